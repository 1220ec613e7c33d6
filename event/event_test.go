package event

import (
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

const postUpdatePayload = `{
	"oldValue": {
		"name": "projects/demo-wander/databases/(default)/documents/posts/p1",
		"fields": {
			"userId": {"stringValue": "alice"},
			"likes": {"arrayValue": {"values": [{"stringValue": "bob"}]}}
		},
		"updateTime": "2025-06-01T10:00:00Z"
	},
	"value": {
		"name": "projects/demo-wander/databases/(default)/documents/posts/p1",
		"fields": {
			"userId": {"stringValue": "alice"},
			"locationName": {"stringValue": "Half Dome, Yosemite"},
			"timestamp": {"timestampValue": "2025-05-30T09:00:00Z"},
			"viewCount": {"integerValue": "42"},
			"flagged": {"booleanValue": false},
			"likes": {"arrayValue": {"values": [
				{"stringValue": "bob"},
				{"stringValue": "carol"},
				{"integerValue": "7"}
			]}}
		},
		"updateTime": "2025-06-01T10:00:05Z"
	},
	"updateMask": {"fieldPaths": ["likes"]}
}`

func newEvent(t *testing.T, payload string) cloudevents.Event {
	t.Helper()
	e := cloudevents.NewEvent()
	e.SetID("evt-1")
	e.SetSource("//firestore.googleapis.com/projects/demo-wander")
	e.SetType("google.cloud.firestore.document.v1.updated")
	if err := e.SetData(cloudevents.ApplicationJSON, []byte(payload)); err != nil {
		t.Fatalf("SetData: %v", err)
	}
	return e
}

func TestParse(t *testing.T) {
	fe, err := Parse(newEvent(t, postUpdatePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := fe.Value.ID(); got != "p1" {
		t.Errorf("ID() = %q, want %q", got, "p1")
	}
	if got := fe.Value.Path(); got != "posts/p1" {
		t.Errorf("Path() = %q, want %q", got, "posts/p1")
	}
	if !fe.OldValue.Exists() || !fe.Value.Exists() {
		t.Error("both snapshots should exist for an update event")
	}
	if got := fe.Value.Fields.String("userId"); got != "alice" {
		t.Errorf("String(userId) = %q, want %q", got, "alice")
	}
	if got := fe.Value.Fields.String("locationName"); got != "Half Dome, Yosemite" {
		t.Errorf("String(locationName) = %q", got)
	}
	if got := fe.Value.Fields.Int("viewCount"); got != 42 {
		t.Errorf("Int(viewCount) = %d, want 42", got)
	}
	if got := fe.Value.Fields.Bool("flagged"); got {
		t.Error("Bool(flagged) = true, want false")
	}
	want := time.Date(2025, 5, 30, 9, 0, 0, 0, time.UTC)
	if got := fe.Value.Fields.Time("timestamp"); !got.Equal(want) {
		t.Errorf("Time(timestamp) = %v, want %v", got, want)
	}
	if got := fe.UpdateMask.FieldPaths; len(got) != 1 || got[0] != "likes" {
		t.Errorf("UpdateMask = %v", got)
	}
}

func TestStringSliceSkipsNonStrings(t *testing.T) {
	fe, err := Parse(newEvent(t, postUpdatePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := fe.Value.Fields.StringSlice("likes")
	if len(got) != 2 || got[0] != "bob" || got[1] != "carol" {
		t.Errorf("StringSlice(likes) = %v, want [bob carol]", got)
	}
}

func TestFieldDefaults(t *testing.T) {
	fe, err := Parse(newEvent(t, postUpdatePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	f := fe.Value.Fields
	if f.String("missing") != "" {
		t.Error("missing string should default to empty")
	}
	if f.Int("missing") != 0 {
		t.Error("missing int should default to zero")
	}
	if f.Bool("missing") {
		t.Error("missing bool should default to false")
	}
	if !f.Time("missing").IsZero() {
		t.Error("missing time should default to zero time")
	}
	if f.StringSlice("missing") != nil {
		t.Error("missing array should default to nil")
	}
	if f.StringSlice("userId") != nil {
		t.Error("non-array field should yield nil slice")
	}
}

func TestParseCreateEvent(t *testing.T) {
	payload := `{
		"value": {
			"name": "projects/demo-wander/databases/(default)/documents/chats/c1/messages/m1",
			"fields": {"senderId": {"stringValue": "bob"}}
		},
		"updateMask": {}
	}`
	fe, err := Parse(newEvent(t, payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fe.OldValue.Exists() {
		t.Error("create event must have no old snapshot")
	}
	if got := fe.Value.Path(); got != "chats/c1/messages/m1" {
		t.Errorf("Path() = %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "not json"},
		{name: "no document", payload: `{"updateMask": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(newEvent(t, tt.payload)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

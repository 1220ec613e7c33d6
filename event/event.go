// Package event decodes Firestore document-change CloudEvents into typed
// snapshots. The payload is the DocumentEventData JSON shape: oldValue,
// value and updateMask, with every field wrapped in a typed value object
// (stringValue, arrayValue, ...).
package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// FirestoreEvent is the decoded payload of a Firestore document trigger.
// OldValue is zero for creates, Value is zero for deletes.
type FirestoreEvent struct {
	OldValue   Document   `json:"oldValue"`
	Value      Document   `json:"value"`
	UpdateMask UpdateMask `json:"updateMask"`
}

type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

// Document is one snapshot of a watched document.
type Document struct {
	Name       string    `json:"name"`
	Fields     Fields    `json:"fields"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
}

// Exists reports whether the snapshot holds a document at all. A create
// event carries an empty OldValue, a delete an empty Value.
func (d Document) Exists() bool {
	return d.Name != ""
}

// ID returns the last path segment of the document resource name, e.g.
// "p123" for ".../documents/posts/p123".
func (d Document) ID() string {
	if i := strings.LastIndex(d.Name, "/"); i >= 0 {
		return d.Name[i+1:]
	}
	return d.Name
}

// Path returns the collection-relative document path, e.g.
// "chats/c1/messages/m1". Empty if the name is not a documents resource.
func (d Document) Path() string {
	const marker = "/documents/"
	if i := strings.Index(d.Name, marker); i >= 0 {
		return d.Name[i+len(marker):]
	}
	return ""
}

// Fields maps field names to their typed Firestore values.
type Fields map[string]Value

// Value is a single Firestore field value. Exactly one member is set;
// which one depends on the stored type.
type Value struct {
	StringValue    *string    `json:"stringValue,omitempty"`
	IntegerValue   *string    `json:"integerValue,omitempty"` // int64 as decimal string
	DoubleValue    *float64   `json:"doubleValue,omitempty"`
	BooleanValue   *bool      `json:"booleanValue,omitempty"`
	TimestampValue *time.Time `json:"timestampValue,omitempty"`
	NullValue      *struct{}  `json:"nullValue,omitempty"`
	ArrayValue     *Array     `json:"arrayValue,omitempty"`
	MapValue       *Map       `json:"mapValue,omitempty"`
}

type Array struct {
	Values []Value `json:"values"`
}

type Map struct {
	Fields Fields `json:"fields"`
}

// String returns the string field named key, or "" when absent or not a
// string. Absent fields default rather than error.
func (f Fields) String(key string) string {
	if v, ok := f[key]; ok && v.StringValue != nil {
		return *v.StringValue
	}
	return ""
}

// Int returns the integer field named key, or 0 when absent.
func (f Fields) Int(key string) int64 {
	if v, ok := f[key]; ok && v.IntegerValue != nil {
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err == nil {
			return n
		}
	}
	return 0
}

// Bool returns the boolean field named key, or false when absent.
func (f Fields) Bool(key string) bool {
	if v, ok := f[key]; ok && v.BooleanValue != nil {
		return *v.BooleanValue
	}
	return false
}

// Time returns the timestamp field named key, or the zero time when absent.
func (f Fields) Time(key string) time.Time {
	if v, ok := f[key]; ok && v.TimestampValue != nil {
		return *v.TimestampValue
	}
	return time.Time{}
}

// StringSlice returns the array field named key flattened to its string
// elements. Non-string elements are skipped, an absent field yields nil.
func (f Fields) StringSlice(key string) []string {
	v, ok := f[key]
	if !ok || v.ArrayValue == nil {
		return nil
	}
	var out []string
	for _, el := range v.ArrayValue.Values {
		if el.StringValue != nil {
			out = append(out, *el.StringValue)
		}
	}
	return out
}

// Parse decodes the Firestore payload out of a CloudEvent.
func Parse(e cloudevents.Event) (*FirestoreEvent, error) {
	var fe FirestoreEvent
	if err := json.Unmarshal(e.Data(), &fe); err != nil {
		return nil, fmt.Errorf("decoding firestore event %s: %w", e.ID(), err)
	}
	if !fe.Value.Exists() && !fe.OldValue.Exists() {
		return nil, fmt.Errorf("firestore event %s carries no document", e.ID())
	}
	return &fe, nil
}

// Package delta turns before/after document snapshots into typed change
// deltas. Each delta carries everything the notification needs, plus a
// deterministic signature used to deduplicate redelivered trigger events.
package delta

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/devsashidhar/wander/event"
)

const unknownLocation = "an unknown location"

// Like describes a growth of a post's likes array.
type Like struct {
	PostID       string
	OwnerID      string
	LocationName string
	Total        int
	Added        []string // liker IDs present after but not before
}

// Follow describes one newly-followed user.
type Follow struct {
	FollowerID string
	FollowedID string
}

// Message describes a newly-created chat message.
type Message struct {
	ChatID     string
	MessageID  string
	SenderID   string
	ReceiverID string
	Text       string
}

// DetectLike returns a Like when the post's likes array grew, nil
// otherwise. A shrinking or unchanged array never notifies.
func DetectLike(ev *event.FirestoreEvent) *Like {
	if !ev.Value.Exists() {
		return nil
	}
	before := ev.OldValue.Fields.StringSlice("likes")
	after := ev.Value.Fields.StringSlice("likes")
	if len(after) <= len(before) {
		return nil
	}
	loc := ev.Value.Fields.String("locationName")
	if loc == "" {
		loc = unknownLocation
	}
	return &Like{
		PostID:       ev.Value.ID(),
		OwnerID:      ev.Value.Fields.String("userId"),
		LocationName: loc,
		Total:        len(after),
		Added:        subtract(after, before),
	}
}

// DetectFollows returns one Follow per ID added to the user's following
// array. Concurrent multi-follow updates yield multiple deltas rather
// than silently dropping all but the first.
func DetectFollows(ev *event.FirestoreEvent) []Follow {
	if !ev.Value.Exists() {
		return nil
	}
	added := subtract(
		ev.Value.Fields.StringSlice("following"),
		ev.OldValue.Fields.StringSlice("following"),
	)
	follower := ev.Value.ID()
	var out []Follow
	for _, id := range added {
		out = append(out, Follow{FollowerID: follower, FollowedID: id})
	}
	return out
}

// DetectMessage returns a Message only when the document was created.
// Edits and read-flag flips pass through the same update trigger but
// must not re-notify the receiver.
func DetectMessage(ev *event.FirestoreEvent) *Message {
	if !ev.Value.Exists() || ev.OldValue.Exists() {
		return nil
	}
	path := strings.Split(ev.Value.Path(), "/")
	var chatID string
	if len(path) == 4 && path[0] == "chats" {
		chatID = path[1]
	}
	return &Message{
		ChatID:     chatID,
		MessageID:  ev.Value.ID(),
		SenderID:   ev.Value.Fields.String("senderId"),
		ReceiverID: ev.Value.Fields.String("receiverId"),
		Text:       ev.Value.Fields.String("text"),
	}
}

// Signature returns the dedup key for a like delta. The added-liker set
// is sorted so two deliveries of the same platform event always agree.
func (l *Like) Signature() string {
	added := append([]string(nil), l.Added...)
	sort.Strings(added)
	return sign("like", l.PostID, fmt.Sprint(l.Total), strings.Join(added, ","))
}

func (f Follow) Signature() string {
	return sign("follow", f.FollowerID, f.FollowedID)
}

func (m *Message) Signature() string {
	return sign("message", m.ChatID, m.MessageID)
}

func sign(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// subtract returns the elements of after that are absent from before,
// preserving order and dropping duplicates.
func subtract(after, before []string) []string {
	seen := make(map[string]struct{}, len(before))
	for _, id := range before {
		seen[id] = struct{}{}
	}
	var out []string
	for _, id := range after {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Package store is the Firestore access layer shared by the trigger and
// HTTP functions. A Store is created per invocation and closed with it;
// the project ID comes from the metadata server like everywhere else in
// the functions runtime.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/compute/metadata"
	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/devsashidhar/wander/contract"
)

const (
	usersCollection        = "users"
	postsCollection        = "posts"
	notificationsSubcol    = "notifications"
	likeTrackingCollection = "user_like_tracking"
	dispatchedCollection   = "dispatched_events"

	fcmTokensField = "fcmTokens"

	// Minimum gap between two like notifications for the same post.
	likeCooldown = 60 * time.Second
)

// ErrNotFound is returned when a referenced document does not exist.
var ErrNotFound = errors.New("document not found")

type Store struct {
	client *firestore.Client
}

// New connects to the project's Firestore database, resolving the
// project ID from the metadata server.
func New(ctx context.Context) (*Store, error) {
	projectID, err := metadata.ProjectIDWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving project ID: %w", err)
	}
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewForProject connects to an explicit project, optionally with a
// credentials file. Used by the cmd tools running outside GCP.
func NewForProject(ctx context.Context, projectID string, opts ...option.ClientOption) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the raw firestore client for iteration-heavy tools.
func (s *Store) Client() *firestore.Client {
	return s.client
}

// User fetches one user document. Returns ErrNotFound for missing users.
func (s *Store) User(ctx context.Context, userID string) (*contract.User, error) {
	doc, err := s.client.Collection(usersCollection).Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", userID, err)
	}
	var user contract.User
	if err := doc.DataTo(&user); err != nil {
		return nil, fmt.Errorf("decoding user %s: %w", userID, err)
	}
	return &user, nil
}

// Post fetches one post document. Returns ErrNotFound for missing posts.
func (s *Store) Post(ctx context.Context, postID string) (*contract.Post, error) {
	doc, err := s.client.Collection(postsCollection).Doc(postID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("post %s: %w", postID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", postID, err)
	}
	var post contract.Post
	if err := doc.DataTo(&post); err != nil {
		return nil, fmt.Errorf("decoding post %s: %w", postID, err)
	}
	return &post, nil
}

// RemoveTokens strips dead delivery tokens from a user's fcmTokens
// array. ArrayRemove keeps the mutation set-subtractive so concurrent
// registrations are not clobbered.
func (s *Store) RemoveTokens(ctx context.Context, userID string, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	vals := make([]any, len(tokens))
	for i, t := range tokens {
		vals[i] = t
	}
	_, err := s.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: fcmTokensField, Value: firestore.ArrayRemove(vals...)},
	})
	if err != nil {
		return fmt.Errorf("removing %d tokens for user %s: %w", len(tokens), userID, err)
	}
	return nil
}

// AddToken registers a delivery token for a user. ArrayUnion deduplicates,
// so re-registration on every app launch is harmless.
func (s *Store) AddToken(ctx context.Context, userID, token string) error {
	_, err := s.client.Collection(usersCollection).Doc(userID).Update(ctx, []firestore.Update{
		{Path: fcmTokensField, Value: firestore.ArrayUnion(token)},
	})
	if err != nil {
		return fmt.Errorf("adding token for user %s: %w", userID, err)
	}
	return nil
}

// LogFollowNotification persists the in-app notification entry written
// alongside every follow push.
func (s *Store) LogFollowNotification(ctx context.Context, userID, message string) error {
	_, _, err := s.client.Collection(usersCollection).Doc(userID).Collection(notificationsSubcol).Add(ctx, contract.Notification{
		Type:    "follow",
		Message: message,
	})
	if err != nil {
		return fmt.Errorf("logging follow notification for user %s: %w", userID, err)
	}
	return nil
}

// ClaimDispatch records a dispatch signature before any push goes out.
// The Create fails with AlreadyExists when the platform redelivered the
// same event, in which case the caller must skip dispatch entirely.
func (s *Store) ClaimDispatch(ctx context.Context, signature string) (bool, error) {
	_, err := s.client.Collection(dispatchedCollection).Doc(signature).Create(ctx, map[string]any{
		"createdAt": firestore.ServerTimestamp,
	})
	if status.Code(err) == codes.AlreadyExists {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claiming dispatch %s: %w", signature, err)
	}
	return true, nil
}

// ShouldNotifyLikes consults the per-post cooldown record and reports
// whether a like notification may go out now. Read-only: the record is
// committed separately via RecordLikeNotification once the dispatch
// has actually happened, so a failed invocation leaves state that a
// platform redelivery can still act on.
func (s *Store) ShouldNotifyLikes(ctx context.Context, postID string, likeCount int, now time.Time) (bool, error) {
	doc, err := s.client.Collection(likeTrackingCollection).Doc(postID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return shouldNotify(nil, likeCount, now), nil
	}
	if err != nil {
		return false, fmt.Errorf("fetching like tracking for post %s: %w", postID, err)
	}
	var tracking contract.LikeTracking
	if err := doc.DataTo(&tracking); err != nil {
		return false, fmt.Errorf("decoding like tracking for post %s: %w", postID, err)
	}
	return shouldNotify(&tracking, likeCount, now), nil
}

// RecordLikeNotification refreshes the cooldown record after a
// dispatch went out.
func (s *Store) RecordLikeNotification(ctx context.Context, postID string, likeCount int, now time.Time) error {
	_, err := s.client.Collection(likeTrackingCollection).Doc(postID).Set(ctx, contract.LikeTracking{
		LastLikeCount:        likeCount,
		LastNotificationDate: now,
	})
	if err != nil {
		return fmt.Errorf("updating like tracking for post %s: %w", postID, err)
	}
	return nil
}

// shouldNotify decides against the last recorded state: a post never
// notified before always may, otherwise the count must have moved and
// the cooldown window must have passed. A count that dips and returns
// to the recorded value reads as unchanged and stays throttled; the
// next genuine growth moves past it.
func shouldNotify(last *contract.LikeTracking, likeCount int, now time.Time) bool {
	if last == nil {
		return true
	}
	if likeCount == last.LastLikeCount {
		return false
	}
	return now.Sub(last.LastNotificationDate) >= likeCooldown
}

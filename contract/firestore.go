package contract

import "time"

type User struct {
	Username    string   `firestore:"username"`
	FirstName   string   `firestore:"firstName"`
	LastName    string   `firestore:"lastName"`
	Following   []string `firestore:"following"`
	ViewedPosts []string `firestore:"viewedPosts"`
	FCMTokens   []string `firestore:"fcmTokens"`
}

type Post struct {
	UserID       string    `firestore:"userId"`
	ImageURL     string    `firestore:"imageUrl"`
	LocationName string    `firestore:"locationName"`
	Timestamp    time.Time `firestore:"timestamp"`
	Likes        []string  `firestore:"likes"`
}

type Chat struct {
	UserIDs              []string  `firestore:"userIds"`
	CreatedAt            time.Time `firestore:"createdAt"`
	LastMessageTimestamp time.Time `firestore:"lastMessageTimestamp"`
}

type Message struct {
	SenderID   string    `firestore:"senderId"`
	ReceiverID string    `firestore:"receiverId"`
	Text       string    `firestore:"text"`
	Timestamp  time.Time `firestore:"timestamp"`
	IsRead     bool      `firestore:"isRead"`
}

// Notification is a persisted entry in users/{id}/notifications. Only
// follow events are logged; likes and messages stay push-only.
type Notification struct {
	Type      string    `firestore:"type"`
	Message   string    `firestore:"message"`
	Timestamp time.Time `firestore:"timestamp,serverTimestamp"`
	Read      bool      `firestore:"read"`
}

// LikeTracking is the per-post cooldown record in user_like_tracking.
type LikeTracking struct {
	LastLikeCount        int       `firestore:"lastLikeCount"`
	LastNotificationDate time.Time `firestore:"lastNotificationDate"`
}

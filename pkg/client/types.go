package client

import "time"

// JSON shapes returned by the API and push servers, as seen by a client.

type NotificationKind string

const (
	NotificationNewEpisode            NotificationKind = "new-episode"
	NotificationFriendRequest         NotificationKind = "friend-request"
	NotificationFriendRequestAccepted NotificationKind = "friend-request-accepted"
)

// Notification is one entry of the user's notification list.
type Notification struct {
	ID          uint             `json:"id"`
	RecipientID uint             `json:"recipientId"`
	SenderID    *uint            `json:"senderId"`
	Kind        NotificationKind `json:"kind"`
	Message     string           `json:"message"`
	Link        string           `json:"link"`
	IsRead      bool             `json:"isRead"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// PushEventType names a websocket frame.
type PushEventType string

const (
	EventNewNotification       PushEventType = "newNotification"
	EventFriendRequestAccepted PushEventType = "friendRequestAccepted"
	EventUnreadCountChanged    PushEventType = "unreadCountChanged"
)

// PushEvent is a frame read from the push server.
type PushEvent struct {
	Type         PushEventType `json:"type"`
	RecipientID  uint          `json:"recipientId"`
	Notification *Notification `json:"notification,omitempty"`
	UnreadCount  int64         `json:"unreadCount"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// NotificationPage is the body of GET /notifications.
type NotificationPage struct {
	Items       []Notification `json:"items"`
	Pagination  Pagination     `json:"pagination"`
	UnreadCount int64          `json:"unreadCount"`
}

type UserInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// RelationshipEntry is a friend or a pending request seen from the caller.
type RelationshipEntry struct {
	RelationshipID uint      `json:"relationshipId"`
	User           *UserInfo `json:"user"`
	Status         string    `json:"status"` // pending | accepted
	Since          time.Time `json:"since"`
}

// RelationshipList is the body of GET /friends.
type RelationshipList struct {
	Friends  []*RelationshipEntry `json:"friends"`
	Incoming []*RelationshipEntry `json:"incoming"`
	Outgoing []*RelationshipEntry `json:"outgoing"`
}

// ToggleResult is the confirmed state of a follow or favorite plus its counter.
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

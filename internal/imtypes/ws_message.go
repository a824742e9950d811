package imtypes

import (
	"context"

	"movie-social/internal/models"
)

// PushEventType 推送给客户端的事件名。
type PushEventType string

const (
	EventNewNotification       PushEventType = "newNotification"
	EventFriendRequestAccepted PushEventType = "friendRequestAccepted"
	EventUnreadCountChanged    PushEventType = "unreadCountChanged"
)

// PushEvent is the frame written to a websocket and the message carried on
// the push topic. UnreadCount is always a fresh store count at publish time.
type PushEvent struct {
	Type         PushEventType        `json:"type"`
	RecipientID  uint                 `json:"recipientId"`
	Notification *models.Notification `json:"notification,omitempty"`
	UnreadCount  int64                `json:"unreadCount"`
}

// PushPublisher delivers a push to every live session of one user.
// Offline users are not an error; the notification row is the durable copy.
type PushPublisher interface {
	Publish(ctx context.Context, userID uint, ev PushEvent) error
}

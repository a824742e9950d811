package models

import "time"

// NotificationKind 通知类型。
type NotificationKind string

const (
	NotificationNewEpisode            NotificationKind = "new-episode"
	NotificationFriendRequest         NotificationKind = "friend-request"
	NotificationFriendRequestAccepted NotificationKind = "friend-request-accepted"
)

// Notification 是发给单个接收者的一次性消息，除已读标记外不可变。
// 未读数永远是 COUNT(*) WHERE recipient_id=? AND is_read=false，表里没有计数列。
type Notification struct {
	ID          uint             `gorm:"primarykey" json:"id"`
	RecipientID uint             `gorm:"not null;index:idx_notifications_recipient_read,priority:1" json:"recipientId"`
	SenderID    *uint            `json:"senderId"` // nil 表示系统事件产生
	Kind        NotificationKind `gorm:"type:varchar(40);not null" json:"kind"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	Link        string           `gorm:"type:varchar(255)" json:"link"`
	IsRead      bool             `gorm:"not null;index:idx_notifications_recipient_read,priority:2" json:"isRead"`
	CreatedAt   time.Time        `gorm:"index" json:"createdAt"`
}

// TableName 指定 Notification 模型的表名。
func (Notification) TableName() string {
	return "notifications"
}

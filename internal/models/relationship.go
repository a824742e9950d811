package models

import (
	"time"

	"gorm.io/gorm"
)

// RelationshipStatus 好友关系的状态。拒绝和取消是删除行，不是一种状态。
type RelationshipStatus string

const (
	RelationshipPending  RelationshipStatus = "pending"
	RelationshipAccepted RelationshipStatus = "accepted"
)

// Relationship 是两个用户之间的有向好友边。
// (UserLowID, UserHighID) 是无序对的规范形式，唯一索引保证任意两人之间最多一行。
// 没有软删除列：拒绝/取消/删好友都是硬删除，否则唯一索引会阻止再次发起请求。
type Relationship struct {
	ID          uint               `gorm:"primarykey" json:"id"`
	RequesterID uint               `gorm:"not null;index" json:"requesterId"`
	RecipientID uint               `gorm:"not null;index" json:"recipientId"`
	UserLowID   uint               `gorm:"not null;uniqueIndex:idx_relationship_pair" json:"-"`
	UserHighID  uint               `gorm:"not null;uniqueIndex:idx_relationship_pair" json:"-"`
	Status      RelationshipStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// TableName 指定 Relationship 模型的表名。
func (Relationship) TableName() string {
	return "friend_relationships"
}

// CanonicalPair returns the two ids ordered low, high.
func CanonicalPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}

// EnsureCanonicalOrder fills UserLowID/UserHighID from requester and recipient.
func (r *Relationship) EnsureCanonicalOrder() {
	r.UserLowID, r.UserHighID = CanonicalPair(r.RequesterID, r.RecipientID)
}

// BeforeCreate keeps the pair columns in sync no matter how the row was built.
func (r *Relationship) BeforeCreate(tx *gorm.DB) error {
	r.EnsureCanonicalOrder()
	return nil
}

// OtherParty 返回关系中除 userID 以外的另一方。
func (r *Relationship) OtherParty(userID uint) uint {
	if r.RequesterID == userID {
		return r.RecipientID
	}
	return r.RequesterID
}

// RelationshipEntry is one line of a friend list: the other user plus the edge it came from.
type RelationshipEntry struct {
	RelationshipID uint               `json:"relationshipId"`
	User           *UserBasicInfo     `json:"user"`
	Status         RelationshipStatus `json:"status"`
	Since          time.Time          `json:"since"`
}

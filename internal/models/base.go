package models

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 用户、影片等可软删除实体的公共字段。
// 好友关系和通知不使用它：前者必须硬删除，后者从不删除。
type BaseModel struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

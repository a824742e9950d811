package models

// User 代表系统中的用户。账号的注册与凭证签发不在本服务内，这里只保存展示所需的字段。
type User struct {
	BaseModel
	Username  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	Nickname  string `gorm:"type:varchar(100)" json:"nickname,omitempty"`
	AvatarURL string `gorm:"type:varchar(255)" json:"avatarUrl,omitempty"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for friend lists and for rendering notification messages.
type UserBasicInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Nickname  string `json:"nickname,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// DisplayName 优先返回昵称，没有昵称时返回用户名。
func (u *UserBasicInfo) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// TableName 指定 User 模型的表名。
func (User) TableName() string {
	return "users"
}

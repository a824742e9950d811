package models

import (
	"fmt"
	"time"
)

// Movie 只保留触发新剧集事件所需的字段，目录元数据的维护不在本服务内。
type Movie struct {
	BaseModel
	Title string `gorm:"type:varchar(255);not null" json:"title"`
	Slug  string `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
}

// TableName 指定 Movie 模型的表名。
func (Movie) TableName() string {
	return "movies"
}

// Episode 影片的一集，同一影片内集号唯一。
type Episode struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_episode_movie_number" json:"movieId"`
	Number    int       `gorm:"not null;uniqueIndex:idx_episode_movie_number" json:"number"`
	Name      string    `gorm:"type:varchar(255)" json:"name,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 Episode 模型的表名。
func (Episode) TableName() string {
	return "episodes"
}

// EpisodeLink 播放页地址，例如 /xem-phim/one-piece/tap-1071。
func EpisodeLink(slug string, number int) string {
	return fmt.Sprintf("/xem-phim/%s/tap-%d", slug, number)
}

package models

import "time"

// MovieFollow 用户关注某部影片，新剧集通知的受众来源。
type MovieFollow struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_movie_follow_user_movie" json:"userId"`
	MovieID   uint      `gorm:"not null;uniqueIndex:idx_movie_follow_user_movie;index" json:"movieId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 MovieFollow 模型的表名。
func (MovieFollow) TableName() string {
	return "movie_follows"
}

// EpisodeFavorite 用户收藏某一集。
type EpisodeFavorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_episode_favorite_user_episode" json:"userId"`
	EpisodeID uint      `gorm:"not null;uniqueIndex:idx_episode_favorite_user_episode;index" json:"episodeId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName 指定 EpisodeFavorite 模型的表名。
func (EpisodeFavorite) TableName() string {
	return "episode_favorites"
}

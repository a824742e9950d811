package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"movie-social/internal/models"
)

// FollowRepository stores title follows and episode favorites.
// Add/remove calls are idempotent: they report whether the state actually changed.
type FollowRepository interface {
	FollowMovie(ctx context.Context, userID, movieID uint) (bool, error)
	UnfollowMovie(ctx context.Context, userID, movieID uint) (bool, error)
	IsFollowing(ctx context.Context, userID, movieID uint) (bool, error)
	CountMovieFollowers(ctx context.Context, movieID uint) (int64, error)
	MovieFollowerIDs(ctx context.Context, movieID uint) ([]uint, error)

	AddFavorite(ctx context.Context, userID, episodeID uint) (bool, error)
	RemoveFavorite(ctx context.Context, userID, episodeID uint) (bool, error)
	IsFavorite(ctx context.Context, userID, episodeID uint) (bool, error)
	CountEpisodeFavorites(ctx context.Context, episodeID uint) (int64, error)
}

type gormFollowRepository struct {
	db *gorm.DB
}

// NewGormFollowRepository creates a new GORM-based FollowRepository.
func NewGormFollowRepository(db *gorm.DB) FollowRepository {
	return &gormFollowRepository{db: db}
}

func (r *gormFollowRepository) FollowMovie(ctx context.Context, userID, movieID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.MovieFollow{UserID: userID, MovieID: movieID})
	return res.RowsAffected > 0, res.Error
}

func (r *gormFollowRepository) UnfollowMovie(ctx context.Context, userID, movieID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Delete(&models.MovieFollow{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormFollowRepository) IsFollowing(ctx context.Context, userID, movieID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MovieFollow{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormFollowRepository) CountMovieFollowers(ctx context.Context, movieID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MovieFollow{}).
		Where("movie_id = ?", movieID).
		Count(&count).Error
	return count, err
}

// MovieFollowerIDs resolves the audience of a new-episode fan-out.
func (r *gormFollowRepository) MovieFollowerIDs(ctx context.Context, movieID uint) ([]uint, error) {
	ids := []uint{}
	err := r.db.WithContext(ctx).Model(&models.MovieFollow{}).
		Where("movie_id = ?", movieID).
		Order("user_id").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *gormFollowRepository) AddFavorite(ctx context.Context, userID, episodeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.EpisodeFavorite{UserID: userID, EpisodeID: episodeID})
	return res.RowsAffected > 0, res.Error
}

func (r *gormFollowRepository) RemoveFavorite(ctx context.Context, userID, episodeID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND episode_id = ?", userID, episodeID).
		Delete(&models.EpisodeFavorite{})
	return res.RowsAffected > 0, res.Error
}

func (r *gormFollowRepository) IsFavorite(ctx context.Context, userID, episodeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EpisodeFavorite{}).
		Where("user_id = ? AND episode_id = ?", userID, episodeID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormFollowRepository) CountEpisodeFavorites(ctx context.Context, episodeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.EpisodeFavorite{}).
		Where("episode_id = ?", episodeID).
		Count(&count).Error
	return count, err
}

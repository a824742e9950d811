package storage

import (
	"context"

	"gorm.io/gorm"

	"movie-social/internal/models"
)

// CatalogRepository covers the slice of the catalog the notification flow needs.
type CatalogRepository interface {
	CreateMovie(ctx context.Context, movie *models.Movie) error
	GetMovie(ctx context.Context, id uint) (*models.Movie, error)
	// CreateEpisode fails with gorm.ErrDuplicatedKey when the movie already has that number.
	CreateEpisode(ctx context.Context, episode *models.Episode) error
	GetEpisode(ctx context.Context, id uint) (*models.Episode, error)
}

type gormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GORM-based CatalogRepository.
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &gormCatalogRepository{db: db}
}

func (r *gormCatalogRepository) CreateMovie(ctx context.Context, movie *models.Movie) error {
	return r.db.WithContext(ctx).Create(movie).Error
}

func (r *gormCatalogRepository) GetMovie(ctx context.Context, id uint) (*models.Movie, error) {
	var movie models.Movie
	if err := r.db.WithContext(ctx).First(&movie, id).Error; err != nil {
		return nil, err
	}
	return &movie, nil
}

func (r *gormCatalogRepository) CreateEpisode(ctx context.Context, episode *models.Episode) error {
	return r.db.WithContext(ctx).Create(episode).Error
}

func (r *gormCatalogRepository) GetEpisode(ctx context.Context, id uint) (*models.Episode, error) {
	var episode models.Episode
	if err := r.db.WithContext(ctx).First(&episode, id).Error; err != nil {
		return nil, err
	}
	return &episode, nil
}

package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"movie-social/internal/events"
	"movie-social/internal/logger"
	"movie-social/internal/models"
	"movie-social/internal/storage"
)

// CatalogService is the event source for new-episode notifications.
type CatalogService interface {
	PublishEpisode(ctx context.Context, movieID uint, number int, name string) (*models.Episode, error)
}

type catalogService struct {
	repo       storage.CatalogRepository
	dispatcher events.Dispatcher
	log        *logger.Logger
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(repo storage.CatalogRepository, dispatcher events.Dispatcher, log *logger.Logger) CatalogService {
	return &catalogService{repo: repo, dispatcher: dispatcher, log: log}
}

// PublishEpisode stores the episode and then fires EpisodePublished. The
// episode is returned even when the dispatch fails.
func (s *catalogService) PublishEpisode(ctx context.Context, movieID uint, number int, name string) (*models.Episode, error) {
	if number < 1 {
		return nil, ErrInvalidInput
	}
	movie, err := s.repo.GetMovie(ctx, movieID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, storeErr("load movie", err)
	}

	episode := &models.Episode{MovieID: movie.ID, Number: number, Name: name}
	if err := s.repo.CreateEpisode(ctx, episode); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEpisodeExists
		}
		return nil, storeErr("create episode", err)
	}
	s.log.Info("episode published", zap.Uint("movie_id", movie.ID), zap.Int("episode", number), zap.Uint("episode_id", episode.ID))

	if s.dispatcher != nil {
		ev := events.EpisodePublished{
			MovieID:       movie.ID,
			EpisodeID:     episode.ID,
			Title:         movie.Title,
			Slug:          movie.Slug,
			EpisodeNumber: number,
		}
		if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
			s.log.Error("dispatch episode published failed, followers will not be notified",
				zap.Uint("episode_id", episode.ID), zap.Error(err))
		}
	}
	return episode, nil
}

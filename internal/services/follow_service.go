package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"movie-social/internal/storage"
)

// ToggleResult is the confirmed server state after a toggle plus the exact
// dependent counter, so clients can replace their optimistic value.
type ToggleResult struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// FollowService handles the follow (movie) and favorite (episode) toggles.
// All calls are idempotent.
type FollowService interface {
	Follow(ctx context.Context, userID, movieID uint) (*ToggleResult, error)
	Unfollow(ctx context.Context, userID, movieID uint) (*ToggleResult, error)
	SetFavorite(ctx context.Context, userID, episodeID uint, favorite bool) (*ToggleResult, error)
}

type followService struct {
	follows storage.FollowRepository
	catalog storage.CatalogRepository
}

// NewFollowService creates a new FollowService instance.
func NewFollowService(follows storage.FollowRepository, catalog storage.CatalogRepository) FollowService {
	return &followService{follows: follows, catalog: catalog}
}

func (s *followService) Follow(ctx context.Context, userID, movieID uint) (*ToggleResult, error) {
	return s.setFollow(ctx, userID, movieID, true)
}

func (s *followService) Unfollow(ctx context.Context, userID, movieID uint) (*ToggleResult, error) {
	return s.setFollow(ctx, userID, movieID, false)
}

func (s *followService) setFollow(ctx context.Context, userID, movieID uint, on bool) (*ToggleResult, error) {
	if _, err := s.catalog.GetMovie(ctx, movieID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, storeErr("load movie", err)
	}

	var err error
	if on {
		_, err = s.follows.FollowMovie(ctx, userID, movieID)
	} else {
		_, err = s.follows.UnfollowMovie(ctx, userID, movieID)
	}
	if err != nil {
		return nil, storeErr("toggle follow", err)
	}

	count, err := s.follows.CountMovieFollowers(ctx, movieID)
	if err != nil {
		return nil, storeErr("count followers", err)
	}
	return &ToggleResult{Active: on, Count: count}, nil
}

func (s *followService) SetFavorite(ctx context.Context, userID, episodeID uint, favorite bool) (*ToggleResult, error) {
	if _, err := s.catalog.GetEpisode(ctx, episodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEpisodeNotFound
		}
		return nil, storeErr("load episode", err)
	}

	var err error
	if favorite {
		_, err = s.follows.AddFavorite(ctx, userID, episodeID)
	} else {
		_, err = s.follows.RemoveFavorite(ctx, userID, episodeID)
	}
	if err != nil {
		return nil, storeErr("toggle favorite", err)
	}

	count, err := s.follows.CountEpisodeFavorites(ctx, episodeID)
	if err != nil {
		return nil, storeErr("count favorites", err)
	}
	return &ToggleResult{Active: favorite, Count: count}, nil
}

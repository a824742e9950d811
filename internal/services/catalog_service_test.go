package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/events"
	"movie-social/internal/logger"
	"movie-social/internal/storage"
	"movie-social/internal/storage/storagetest"
)

func TestPublishEpisode_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	movie := storagetest.SeedMovie(t, env.db, "Conan", "conan")

	_, err := env.catalog.PublishEpisode(ctx, 999, 1, "")
	assert.ErrorIs(t, err, ErrMovieNotFound)

	_, err = env.catalog.PublishEpisode(ctx, movie.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.catalog.PublishEpisode(ctx, movie.ID, 1, "Tập 1")
	require.NoError(t, err)
	_, err = env.catalog.PublishEpisode(ctx, movie.ID, 1, "Tập 1")
	assert.ErrorIs(t, err, ErrEpisodeExists)
}

func TestPublishEpisode_SucceedsWhenDispatchFails(t *testing.T) {
	env := newTestEnv(t)
	movie := storagetest.SeedMovie(t, env.db, "Conan", "conan", env.alice.ID)

	broken := events.DispatcherFunc(func(context.Context, events.Event) error {
		return errors.New("broker down")
	})
	catalog := NewCatalogService(storage.NewGormCatalogRepository(env.db), broken, logger.NewNop())

	episode, err := catalog.PublishEpisode(context.Background(), movie.ID, 7, "")
	require.NoError(t, err)
	assert.Equal(t, 7, episode.Number)
	assert.Zero(t, env.storeUnread(t, env.alice.ID))
}

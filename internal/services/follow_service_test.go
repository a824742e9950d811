package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/storage/storagetest"
)

func TestFollowToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	movie := storagetest.SeedMovie(t, env.db, "Doraemon", "doraemon", env.bob.ID)

	res, err := env.follows.Follow(ctx, env.alice.ID, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Active: true, Count: 2}, res)

	res, err = env.follows.Follow(ctx, env.alice.ID, movie.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Count, "follow is idempotent")

	res, err = env.follows.Unfollow(ctx, env.alice.ID, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Active: false, Count: 1}, res)

	_, err = env.follows.Follow(ctx, env.alice.ID, 9999)
	assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestFavoriteToggle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	movie := storagetest.SeedMovie(t, env.db, "Doraemon", "doraemon")
	episode, err := env.catalog.PublishEpisode(ctx, movie.ID, 1, "")
	require.NoError(t, err)

	res, err := env.follows.SetFavorite(ctx, env.alice.ID, episode.ID, true)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Active: true, Count: 1}, res)

	res, err = env.follows.SetFavorite(ctx, env.bob.ID, episode.ID, true)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Count)

	res, err = env.follows.SetFavorite(ctx, env.alice.ID, episode.ID, false)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{Active: false, Count: 1}, res)

	_, err = env.follows.SetFavorite(ctx, env.alice.ID, 9999, true)
	assert.ErrorIs(t, err, ErrEpisodeNotFound)
}

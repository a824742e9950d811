package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-social/internal/events"
	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
	"movie-social/internal/models"
	"movie-social/internal/storage"
	"movie-social/internal/storage/storagetest"
)

func TestFanout_NewEpisodeToThreeFollowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	followers := []uint{env.alice.ID, env.bob.ID, env.carol.ID}
	movie := storagetest.SeedMovie(t, env.db, "One Piece", "one-piece", followers...)

	// bob already has something unread
	require.NoError(t, env.notifRepo.CreateBatch(ctx, []*models.Notification{{
		RecipientID: env.bob.ID, Kind: models.NotificationFriendRequest, Message: "x", Link: "/ban-be/loi-moi",
	}}))

	episode, err := env.catalog.PublishEpisode(ctx, movie.ID, 1071, "")
	require.NoError(t, err)
	assert.NotZero(t, episode.ID)

	var rows []models.Notification
	require.NoError(t, env.db.Where("kind = ?", models.NotificationNewEpisode).Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, n := range rows {
		assert.True(t, strings.Contains(n.Link, "1071"), n.Link)
		assert.Equal(t, "/xem-phim/one-piece/tap-1071", n.Link)
		assert.Equal(t, "One Piece vừa có tập mới: Tập 1071.", n.Message)
		assert.Nil(t, n.SenderID)
	}

	for _, uid := range followers {
		pushes := env.pub.forUser(uid)
		require.Len(t, pushes, 1, "user %d", uid)
		assert.Equal(t, imtypes.EventNewNotification, pushes[0].Type)
		assert.Equal(t, env.storeUnread(t, uid), pushes[0].UnreadCount)
	}
	assert.EqualValues(t, 2, env.pub.forUser(env.bob.ID)[0].UnreadCount)
	assert.Empty(t, env.pub.forUser(env.dave.ID), "non-followers get nothing")
}

func TestFanout_RedeliveryDoesNotDuplicateUnread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	movie := storagetest.SeedMovie(t, env.db, "Naruto", "naruto", env.alice.ID, env.bob.ID)
	ev := events.EpisodePublished{MovieID: movie.ID, Title: movie.Title, Slug: movie.Slug, EpisodeNumber: 3}

	require.NoError(t, env.fanout.HandleEpisodePublished(ctx, ev))
	require.NoError(t, env.fanout.HandleEpisodePublished(ctx, ev))
	assert.EqualValues(t, 1, env.storeUnread(t, env.alice.ID))
	assert.EqualValues(t, 1, env.storeUnread(t, env.bob.ID))

	// once read, the same link may notify again
	_, err := env.notifications.MarkAllRead(ctx, env.alice.ID)
	require.NoError(t, err)
	require.NoError(t, env.fanout.HandleEpisodePublished(ctx, ev))
	assert.EqualValues(t, 1, env.storeUnread(t, env.alice.ID))
	assert.EqualValues(t, 1, env.storeUnread(t, env.bob.ID))

	// a different episode always notifies
	ev.EpisodeNumber = 4
	require.NoError(t, env.fanout.HandleEpisodePublished(ctx, ev))
	assert.EqualValues(t, 2, env.storeUnread(t, env.bob.ID))
}

type failingCreateRepo struct {
	storage.NotificationRepository
}

func (failingCreateRepo) CreateBatch(context.Context, []*models.Notification) error {
	return errors.New("disk full")
}

func TestFanout_PersistFailureAbortsWithoutPush(t *testing.T) {
	env := newTestEnv(t)
	movie := storagetest.SeedMovie(t, env.db, "Bleach", "bleach", env.alice.ID, env.bob.ID)

	fanout := NewFanoutService(
		failingCreateRepo{env.notifRepo},
		storage.NewGormFollowRepository(env.db),
		env.relRepo,
		storage.NewGormUserRepository(env.db),
		env.pub,
		logger.NewNop(),
	)
	err := fanout.HandleEpisodePublished(context.Background(), events.EpisodePublished{
		MovieID: movie.ID, Title: movie.Title, Slug: movie.Slug, EpisodeNumber: 1,
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.Empty(t, env.pub.events)
}

func TestFanout_PublishFailureIsAbsorbed(t *testing.T) {
	env := newTestEnv(t)
	movie := storagetest.SeedMovie(t, env.db, "Bleach", "bleach", env.alice.ID)
	env.pub.err = errors.New("not connected")

	err := env.fanout.HandleEpisodePublished(context.Background(), events.EpisodePublished{
		MovieID: movie.ID, Title: movie.Title, Slug: movie.Slug, EpisodeNumber: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, env.storeUnread(t, env.alice.ID), "row persists for the next fetch")
}

func TestFanout_StaleFriendRequestIsSkipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, b := env.alice.ID, env.bob.ID

	rel, err := env.relationships.SendRequest(ctx, a, b)
	require.NoError(t, err)
	require.NoError(t, env.relationships.CancelRequest(ctx, a, b))
	before := env.storeUnread(t, b)

	// late redelivery after the cancel
	require.NoError(t, env.fanout.HandleFriendRequestSent(ctx, events.FriendRequestSent{
		RelationshipID: rel.ID, RequesterID: a, RecipientID: b,
	}))
	assert.Equal(t, before, env.storeUnread(t, b))
}

func TestFanout_FriendRequestMessageUsesSenderName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.relationships.SendRequest(ctx, env.carol.ID, env.dave.ID)
	require.NoError(t, err)

	pushes := env.pub.forUser(env.dave.ID)
	require.Len(t, pushes, 1)
	n := pushes[0].Notification
	require.NotNil(t, n)
	assert.Equal(t, "carol đã gửi cho bạn lời mời kết bạn.", n.Message)
	require.NotNil(t, n.SenderID)
	assert.Equal(t, env.carol.ID, *n.SenderID)
	assert.NotZero(t, n.ID)
}

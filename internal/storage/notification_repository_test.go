package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"movie-social/internal/models"
	"movie-social/internal/storage"
	"movie-social/internal/storage/storagetest"
)

func seedNotifications(t *testing.T, db *gorm.DB, recipient uint, n int) []*models.Notification {
	t.Helper()
	batch := make([]*models.Notification, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, &models.Notification{
			RecipientID: recipient,
			Kind:        models.NotificationNewEpisode,
			Message:     "x",
			Link:        models.EpisodeLink("phim", i+1),
		})
	}
	require.NoError(t, storage.NewGormNotificationRepository(db).CreateBatch(context.Background(), batch))
	return batch
}

func TestNotificationRepository_CreateBatchAssignsIDs(t *testing.T) {
	db := storagetest.NewTestDB(t)
	batch := seedNotifications(t, db, 1, 3)
	for _, n := range batch {
		assert.NotZero(t, n.ID)
		assert.False(t, n.IsRead)
	}
}

func TestNotificationRepository_ListNewestFirst(t *testing.T) {
	db := storagetest.NewTestDB(t)
	repo := storage.NewGormNotificationRepository(db)
	ctx := context.Background()
	batch := seedNotifications(t, db, 1, 5)
	seedNotifications(t, db, 2, 2)

	items, total, err := repo.ListByRecipient(ctx, 1, false, 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	require.Len(t, items, 2)
	assert.Equal(t, batch[4].ID, items[0].ID)
	assert.Equal(t, batch[3].ID, items[1].ID)

	items, _, err = repo.ListByRecipient(ctx, 1, false, 2, 4)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, batch[0].ID, items[0].ID)
}

func TestNotificationRepository_MarkReadIsConditional(t *testing.T) {
	db := storagetest.NewTestDB(t)
	repo := storage.NewGormNotificationRepository(db)
	ctx := context.Background()
	batch := seedNotifications(t, db, 1, 3)

	ok, err := repo.MarkRead(ctx, 2, batch[0].ID)
	require.NoError(t, err)
	assert.False(t, ok, "another recipient must not match")

	ok, err = repo.MarkRead(ctx, 1, batch[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRead(ctx, 1, batch[0].ID)
	require.NoError(t, err)
	assert.False(t, ok, "second mark is a no-op")

	count, err := repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	unread, total, err := repo.ListByRecipient(ctx, 1, true, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, unread, 2)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db := storagetest.NewTestDB(t)
	repo := storage.NewGormNotificationRepository(db)
	ctx := context.Background()
	seedNotifications(t, db, 1, 4)
	seedNotifications(t, db, 2, 1)

	n, err := repo.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)

	count, err := repo.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestNotificationRepository_UnreadRecipientsWithLink(t *testing.T) {
	db := storagetest.NewTestDB(t)
	repo := storage.NewGormNotificationRepository(db)
	ctx := context.Background()
	link := models.EpisodeLink("phim", 1)

	seedNotifications(t, db, 1, 1)
	second := seedNotifications(t, db, 2, 1)
	_, err := repo.MarkRead(ctx, 2, second[0].ID)
	require.NoError(t, err)

	ids, err := repo.UnreadRecipientsWithLink(ctx, models.NotificationNewEpisode, link, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, ids)

	ids, err = repo.UnreadRecipientsWithLink(ctx, models.NotificationFriendRequest, link, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

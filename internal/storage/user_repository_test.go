package storage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"movie-social/internal/storage"
	"movie-social/internal/storage/storagetest"
)

func TestUserRepository_Lookups(t *testing.T) {
	db := storagetest.NewTestDB(t)
	users := storagetest.SeedUsers(t, db, "alice", "bob")
	repo := storage.NewGormUserRepository(db)
	ctx := context.Background()

	byName, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, users[1].ID, byName.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	ok, err := repo.Exists(ctx, users[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	infos, err := repo.GetMultipleBasicInfoByIDs(ctx, []uint{users[0].ID, users[1].ID, 999})
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

// Package storagetest provides an in-memory database for package tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"movie-social/internal/config"
	"movie-social/internal/logger"
	"movie-social/internal/models"
	"movie-social/internal/storage"
)

// NewTestDB opens a private in-memory SQLite database with all tables migrated.
// It goes through storage.InitDB, so it has the same single-connection and
// error-translation behaviour as a real sqlite deployment.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.DatabaseConfig{
		Type: "sqlite",
		Path: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	lg := logger.NewNop()
	db, err := storage.InitDB(cfg, lg)
	require.NoError(t, err, "opening test database")
	require.NoError(t, storage.AutoMigrateTables(db, lg), "migrating test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedUsers creates one user per username and returns them in order.
func SeedUsers(t *testing.T, db *gorm.DB, usernames ...string) []*models.User {
	t.Helper()

	repo := storage.NewGormUserRepository(db)
	users := make([]*models.User, 0, len(usernames))
	for _, name := range usernames {
		u := &models.User{Username: name, Nickname: name}
		require.NoError(t, repo.Create(context.Background(), u))
		users = append(users, u)
	}
	return users
}

// SeedMovie creates a movie followed by the given users.
func SeedMovie(t *testing.T, db *gorm.DB, title, slug string, followers ...uint) *models.Movie {
	t.Helper()

	ctx := context.Background()
	movie := &models.Movie{Title: title, Slug: slug}
	require.NoError(t, storage.NewGormCatalogRepository(db).CreateMovie(ctx, movie))

	follows := storage.NewGormFollowRepository(db)
	for _, uid := range followers {
		_, err := follows.FollowMovie(ctx, uid, movie.ID)
		require.NoError(t, err)
	}
	return movie
}

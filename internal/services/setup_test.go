package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"movie-social/internal/config"
	"movie-social/internal/events"
	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
	"movie-social/internal/models"
	"movie-social/internal/storage"
	"movie-social/internal/storage/storagetest"
)

// recordingPublisher stands in for the delivery channel.
type recordingPublisher struct {
	mu     sync.Mutex
	events []imtypes.PushEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, userID uint, ev imtypes.PushEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	ev.RecipientID = userID
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) forUser(userID uint) []imtypes.PushEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []imtypes.PushEvent
	for _, ev := range p.events {
		if ev.RecipientID == userID {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	pub       *recordingPublisher
	notifRepo storage.NotificationRepository
	relRepo   storage.RelationshipRepository

	relationships RelationshipService
	notifications NotificationService
	fanout        FanoutService
	catalog       CatalogService
	follows       FollowService

	alice, bob, carol, dave *models.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := storagetest.NewTestDB(t)
	lg := logger.NewNop()
	pub := &recordingPublisher{}

	userRepo := storage.NewGormUserRepository(db)
	relRepo := storage.NewGormRelationshipRepository(db)
	notifRepo := storage.NewGormNotificationRepository(db)
	followRepo := storage.NewGormFollowRepository(db)
	catalogRepo := storage.NewGormCatalogRepository(db)

	fanout := NewFanoutService(notifRepo, followRepo, relRepo, userRepo, pub, lg)
	router := events.NewRouter(lg)
	fanout.Register(router)
	dispatcher := events.NewInlineDispatcher(router)

	users := storagetest.SeedUsers(t, db, "alice", "bob", "carol", "dave")

	return &testEnv{
		db:            db,
		pub:           pub,
		notifRepo:     notifRepo,
		relRepo:       relRepo,
		relationships: NewRelationshipService(db, userRepo, relRepo, dispatcher, lg),
		notifications: NewNotificationService(notifRepo, pub, config.NotificationsConfig{PageSize: 20, MaxPageSize: 50}, lg),
		fanout:        fanout,
		catalog:       NewCatalogService(catalogRepo, dispatcher, lg),
		follows:       NewFollowService(followRepo, catalogRepo),
		alice:         users[0],
		bob:           users[1],
		carol:         users[2],
		dave:          users[3],
	}
}

func (e *testEnv) countRelationships(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Relationship{}).Count(&n).Error)
	return n
}

func (e *testEnv) storeUnread(t *testing.T, userID uint) int64 {
	t.Helper()
	n, err := e.notifRepo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	return n
}

package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"movie-social/internal/config"
	"movie-social/internal/imtypes"
	"movie-social/internal/logger"
	"movie-social/internal/models"
	"movie-social/internal/storage"
)

// Pagination 分页信息。
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// NotificationPage is one page of a recipient's notifications plus the
// store-derived unread count at read time.
type NotificationPage struct {
	Items       []models.Notification `json:"items"`
	Pagination  Pagination            `json:"pagination"`
	UnreadCount int64                 `json:"unreadCount"`
}

// NotificationService exposes listing and read-state changes. Every count it
// returns or pushes is recomputed from the store.
type NotificationService interface {
	ListNotifications(ctx context.Context, recipientID uint, page, limit int, unreadOnly bool) (*NotificationPage, error)
	UnreadCount(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, recipientID, notificationID uint) (int64, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
}

type notificationService struct {
	repo      storage.NotificationRepository
	publisher imtypes.PushPublisher
	cfg       config.NotificationsConfig
	log       *logger.Logger
}

// NewNotificationService creates a new NotificationService instance.
func NewNotificationService(
	repo storage.NotificationRepository,
	publisher imtypes.PushPublisher,
	cfg config.NotificationsConfig,
	log *logger.Logger,
) NotificationService {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.MaxPageSize < cfg.PageSize {
		cfg.MaxPageSize = cfg.PageSize
	}
	return &notificationService{repo: repo, publisher: publisher, cfg: cfg, log: log}
}

func (s *notificationService) ListNotifications(ctx context.Context, recipientID uint, page, limit int, unreadOnly bool) (*NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.cfg.PageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}

	items, total, err := s.repo.ListByRecipient(ctx, recipientID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		return nil, storeErr("list notifications", err)
	}
	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, storeErr("count unread", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &NotificationPage{
		Items: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
		UnreadCount: unread,
	}, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, storeErr("count unread", err)
	}
	return count, nil
}

// MarkRead is idempotent: a second call finds no unread row to flip and
// leaves the count alone.
func (s *notificationService) MarkRead(ctx context.Context, recipientID, notificationID uint) (int64, error) {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotificationNotFound
		}
		return 0, storeErr("load notification", err)
	}
	if n.RecipientID != recipientID {
		return 0, ErrUnauthorized
	}

	changed, err := s.repo.MarkRead(ctx, recipientID, notificationID)
	if err != nil {
		return 0, storeErr("mark notification read", err)
	}
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, storeErr("count unread", err)
	}
	if changed {
		s.pushCount(ctx, recipientID, count)
	}
	return count, nil
}

// MarkAllRead flips every unread row in one UPDATE.
func (s *notificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	changed, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return 0, storeErr("mark all read", err)
	}
	// 重新计数：标记期间可能有新通知写入
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, storeErr("count unread", err)
	}
	s.log.Debug("marked all notifications read", zap.Uint("recipient_id", recipientID), zap.Int64("rows", changed))
	if changed > 0 {
		s.pushCount(ctx, recipientID, count)
	}
	return count, nil
}

// pushCount keeps the user's other sessions in sync. Delivery is best effort.
func (s *notificationService) pushCount(ctx context.Context, recipientID uint, count int64) {
	if s.publisher == nil {
		return
	}
	ev := imtypes.PushEvent{
		Type:        imtypes.EventUnreadCountChanged,
		RecipientID: recipientID,
		UnreadCount: count,
	}
	if err := s.publisher.Publish(ctx, recipientID, ev); err != nil {
		s.log.Warn("push unread count failed", zap.Uint("recipient_id", recipientID), zap.Error(err))
	}
}

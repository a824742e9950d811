package storage

import (
	"context"

	"gorm.io/gorm"

	"movie-social/internal/models"
)

const notificationInsertBatch = 200

// NotificationRepository defines the interface for notification data operations.
// 未读数只能通过 CountUnread 得到，不存在单独维护的计数。
type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	ListByRecipient(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, recipientID uint) (int64, error)
	MarkRead(ctx context.Context, recipientID, id uint) (bool, error)
	MarkAllRead(ctx context.Context, recipientID uint) (int64, error)
	// UnreadRecipientsWithLink returns the subset of candidates that already hold
	// an unread notification of this kind pointing at link.
	UnreadRecipientsWithLink(ctx context.Context, kind models.NotificationKind, link string, candidates []uint) ([]uint, error)
}

type gormNotificationRepository struct {
	db *gorm.DB
}

// NewGormNotificationRepository creates a new GORM-based NotificationRepository.
func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	return &gormNotificationRepository{db: db}
}

// CreateBatch inserts all rows in one statement per batch and fills in their IDs.
func (r *gormNotificationRepository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(notifications, notificationInsertBatch).Error
}

func (r *gormNotificationRepository) GetByID(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification
	if err := r.db.WithContext(ctx).First(&n, id).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient pages a recipient's notifications newest first and returns the total.
func (r *gormNotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	q = q.Session(&gorm.Session{}) // count 和 find 共用同一组条件

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := []models.Notification{}
	if total == 0 {
		return items, 0, nil
	}
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *gormNotificationRepository) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return count, err
}

// MarkRead flips one unread row of the recipient. Returns false when the row
// was already read (or is not the recipient's), which makes repeats harmless.
func (r *gormNotificationRepository) MarkRead(ctx context.Context, recipientID, id uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND is_read = ?", id, recipientID, false).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

// MarkAllRead is one bulk UPDATE over the recipient's unread rows.
func (r *gormNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *gormNotificationRepository) UnreadRecipientsWithLink(ctx context.Context, kind models.NotificationKind, link string, candidates []uint) ([]uint, error) {
	ids := []uint{}
	if len(candidates) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("kind = ? AND link = ? AND is_read = ? AND recipient_id IN ?", kind, link, false, candidates).
		Distinct().
		Pluck("recipient_id", &ids).Error
	return ids, err
}

package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"movie-social/internal/models"
)

// RelationshipRepository defines the interface for friend relationship data operations.
// Every mutating method is a single conditional statement; the returned bool
// reports whether a row matched.
type RelationshipRepository interface {
	Create(ctx context.Context, rel *models.Relationship) error
	// FindByPair returns the row for the unordered pair {a, b}, or nil if there is none.
	FindByPair(ctx context.Context, a, b uint) (*models.Relationship, error)
	Accept(ctx context.Context, requesterID, recipientID uint) (bool, error)
	DeletePending(ctx context.Context, requesterID, recipientID uint) (bool, error)
	DeleteAccepted(ctx context.Context, a, b uint) (bool, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Relationship, error)
}

type gormRelationshipRepository struct {
	db *gorm.DB
}

// NewGormRelationshipRepository creates a new GORM-based RelationshipRepository.
// Pass a transaction handle to run the calls inside it.
func NewGormRelationshipRepository(db *gorm.DB) RelationshipRepository {
	return &gormRelationshipRepository{db: db}
}

// Create inserts a pending or accepted row. A second row for the same pair
// fails with gorm.ErrDuplicatedKey (TranslateError must be enabled).
func (r *gormRelationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	rel.EnsureCanonicalOrder()
	return r.db.WithContext(ctx).Create(rel).Error
}

func (r *gormRelationshipRepository) FindByPair(ctx context.Context, a, b uint) (*models.Relationship, error) {
	low, high := models.CanonicalPair(a, b)
	var rel models.Relationship
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ?", low, high).
		First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

// Accept flips {requester -> recipient, pending} to accepted.
func (r *gormRelationshipRepository) Accept(ctx context.Context, requesterID, recipientID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Relationship{}).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", requesterID, recipientID, models.RelationshipPending).
		Update("status", models.RelationshipAccepted)
	return res.RowsAffected > 0, res.Error
}

// DeletePending removes {requester -> recipient, pending}; used by both reject and cancel.
func (r *gormRelationshipRepository) DeletePending(ctx context.Context, requesterID, recipientID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("requester_id = ? AND recipient_id = ? AND status = ?", requesterID, recipientID, models.RelationshipPending).
		Delete(&models.Relationship{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAccepted removes the accepted row for {a, b} regardless of who initiated it.
func (r *gormRelationshipRepository) DeleteAccepted(ctx context.Context, a, b uint) (bool, error) {
	low, high := models.CanonicalPair(a, b)
	res := r.db.WithContext(ctx).
		Where("user_low_id = ? AND user_high_id = ? AND status = ?", low, high, models.RelationshipAccepted).
		Delete(&models.Relationship{})
	return res.RowsAffected > 0, res.Error
}

// ListForUser returns every row the user takes part in, newest first.
func (r *gormRelationshipRepository) ListForUser(ctx context.Context, userID uint) ([]models.Relationship, error) {
	var rels []models.Relationship
	err := r.db.WithContext(ctx).
		Where("requester_id = ? OR recipient_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&rels).Error
	return rels, err
}

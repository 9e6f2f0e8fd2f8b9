package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
)

// EntryRepository defines the persistence surface the cart service needs.
type EntryRepository interface {
	Add(ctx context.Context, entry *models.CartEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error)
	RemoveOne(ctx context.Context, userID uuid.UUID, productID string) (bool, error)
	RemoveAll(ctx context.Context, userID uuid.UUID, productID string) error
	Clear(ctx context.Context, userID uuid.UUID) error
	ClearTx(tx *gorm.DB, userID uuid.UUID) error
}

// Repository persists raw cart entries.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Add appends one raw entry.
func (r *Repository) Add(ctx context.Context, entry *models.CartEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser returns all raw entries in insertion order.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CartEntry, error) {
	var entries []models.CartEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// RemoveOne deletes the oldest entry for the product, decrementing the
// derived quantity by one. Returns false when no entry matched.
func (r *Repository) RemoveOne(ctx context.Context, userID uuid.UUID, productID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where(`id = (
			SELECT id FROM cart_entries
			WHERE user_id = ? AND product_id = ?
			ORDER BY created_at ASC, id ASC
			LIMIT 1
		)`, userID, productID).
		Delete(&models.CartEntry{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RemoveAll deletes every entry for the product.
func (r *Repository) RemoveAll(ctx context.Context, userID uuid.UUID, productID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartEntry{}).Error
}

// Clear removes every entry for the user.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartEntry{}).Error
}

// ClearTx removes every entry for the user inside an existing transaction.
func (r *Repository) ClearTx(tx *gorm.DB, userID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	return tx.
		Where("user_id = ?", userID).
		Delete(&models.CartEntry{}).Error
}

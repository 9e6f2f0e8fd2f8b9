package wishlist

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
)

// ItemRepository defines the persistence surface the wishlist service needs.
type ItemRepository interface {
	Find(ctx context.Context, userID uuid.UUID, productID string) (*models.WishlistItem, error)
	Insert(ctx context.Context, item *models.WishlistItem) error
	Remove(ctx context.Context, userID uuid.UUID, productID string) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error)
}

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Find loads the item if the user has liked the product; nil when absent.
func (r *Repository) Find(ctx context.Context, userID uuid.UUID, productID string) (*models.WishlistItem, error) {
	var item models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// Insert adds a wishlist entry and ignores duplicates.
func (r *Repository) Insert(ctx context.Context, item *models.WishlistItem) error {
	return r.db.WithContext(ctx).
		Exec(`INSERT INTO wishlist_items (id, user_id, product_id, name, price_cents, image_url, category, price_bucket)
		      VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		      ON CONFLICT (user_id, product_id) DO NOTHING`,
			uuid.New(), item.UserID, item.ProductID, item.Name, item.PriceCents, item.ImageURL, item.Category, item.PriceBucket).
		Error
}

// Remove deletes the user-product like if it exists.
func (r *Repository) Remove(ctx context.Context, userID uuid.UUID, productID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).
		Error
}

// ListByUser returns the user's likes, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

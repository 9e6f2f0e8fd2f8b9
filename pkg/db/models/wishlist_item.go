package models

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem snapshots a liked product for a user. Uniqueness per
// (user, product) makes the like toggle idempotent at the storage layer.
type WishlistItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_wishlist_user_product"`
	ProductID   string    `gorm:"column:product_id;not null;uniqueIndex:idx_wishlist_user_product"`
	Name        string    `gorm:"column:name;not null"`
	PriceCents  int64     `gorm:"column:price_cents;not null"`
	ImageURL    string    `gorm:"column:image_url;not null"`
	Category    string    `gorm:"column:category;not null"`
	PriceBucket string    `gorm:"column:price_bucket;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

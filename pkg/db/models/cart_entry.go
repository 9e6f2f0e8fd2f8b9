package models

import (
	"time"

	"github.com/google/uuid"
)

// CartEntry is one raw add-to-cart record. Duplicates for the same product
// represent quantity; quantity itself is never stored.
type CartEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID  string    `gorm:"column:product_id;not null"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	ImageURL   string    `gorm:"column:image_url;not null"`
	Category   *string   `gorm:"column:category"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

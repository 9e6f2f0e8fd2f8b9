package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots one aggregated cart line at the moment of checkout.
type OrderItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  string    `gorm:"column:product_id;not null"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	ImageURL   string    `gorm:"column:image_url;not null"`
	Category   *string   `gorm:"column:category"`
	Quantity   int       `gorm:"column:quantity;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

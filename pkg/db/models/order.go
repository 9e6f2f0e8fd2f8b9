package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the immutable record written when checkout completes.
type Order struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	CustomerName  string    `gorm:"column:customer_name;not null"`
	Address       string    `gorm:"column:address;not null"`
	Phone         string    `gorm:"column:phone;not null"`
	SubtotalCents int64     `gorm:"column:subtotal_cents;not null"`
	TaxCents      int64     `gorm:"column:tax_cents;not null"`
	AmountCents   int64     `gorm:"column:amount_cents;not null"`
	PaymentRef    string    `gorm:"column:payment_ref;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

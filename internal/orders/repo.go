package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
	"github.com/shoplight/shoplight-backend/pkg/pagination"
)

// Repository persists orders and their item snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx writes the order and its items inside an existing transaction.
// The checkout flow owns the transaction so the cart clear commits with
// the order or not at all.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order, items []models.OrderItem) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := tx.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].OrderID = order.ID
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Create(&items).Error
}

// ListRow is an order summary with its snapshot line count.
type ListRow struct {
	models.Order
	ItemCount int `gorm:"column:item_count"`
}

// ListByUser returns the user's orders newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]ListRow, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []ListRow
	err = r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("orders.*, (SELECT COUNT(*) FROM order_items WHERE order_items.order_id = orders.id) AS item_count").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByIDAndUser loads one order with its items, scoped to the owner.
// Returns gorm.ErrRecordNotFound when absent or owned by someone else.
func (r *Repository) FindByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, nil, err
	}

	var items []models.OrderItem
	err = r.db.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

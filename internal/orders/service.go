package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/pagination"
)

// OrderRepository defines the persistence surface the orders service needs.
type OrderRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]ListRow, int64, error)
	FindByIDAndUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, []models.OrderItem, error)
}

// ItemDTO is one snapshotted line inside an order.
type ItemDTO struct {
	ProductID  string  `json:"product_id"`
	Name       string  `json:"name"`
	PriceCents int64   `json:"price_cents"`
	ImageURL   string  `json:"image_url"`
	Category   *string `json:"category,omitempty"`
	Quantity   int     `json:"quantity"`
}

// SummaryDTO is the list view of an order.
type SummaryDTO struct {
	ID            uuid.UUID `json:"id"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TaxCents      int64     `json:"tax_cents"`
	AmountCents   int64     `json:"amount_cents"`
	ItemCount     int       `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// DetailDTO is the full order record including shipping details and items.
type DetailDTO struct {
	ID            uuid.UUID `json:"id"`
	CustomerName  string    `json:"customer_name"`
	Address       string    `json:"address"`
	Phone         string    `json:"phone"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TaxCents      int64     `json:"tax_cents"`
	AmountCents   int64     `json:"amount_cents"`
	PaymentRef    string    `json:"payment_ref"`
	Items         []ItemDTO `json:"items"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListDTO pairs a page of orders with the overall count.
type ListDTO struct {
	Orders []SummaryDTO `json:"orders"`
	Total  int64        `json:"total"`
	Page   int          `json:"page"`
	Limit  int          `json:"limit"`
}

// Service reads order history. Writing happens in checkout.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, params pagination.Params) (ListDTO, error)
	Get(ctx context.Context, orderID, userID uuid.UUID) (DetailDTO, error)
}

type service struct {
	repo OrderRepository
}

// NewService builds the orders read service.
func NewService(repo OrderRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	return &service{repo: repo}, nil
}

// List returns the user's order history newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID, params pagination.Params) (ListDTO, error) {
	if userID == uuid.Nil {
		return ListDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	params.Page = pagination.NormalizePage(params.Page)
	params.Limit = pagination.NormalizeLimit(params.Limit)

	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return ListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	summaries := make([]SummaryDTO, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, SummaryDTO{
			ID:            row.ID,
			SubtotalCents: row.SubtotalCents,
			TaxCents:      row.TaxCents,
			AmountCents:   row.AmountCents,
			ItemCount:     row.ItemCount,
			CreatedAt:     row.CreatedAt,
		})
	}
	return ListDTO{Orders: summaries, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

// Get loads a single order owned by the user.
func (s *service) Get(ctx context.Context, orderID, userID uuid.UUID) (DetailDTO, error) {
	if userID == uuid.Nil {
		return DetailDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if orderID == uuid.Nil {
		return DetailDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	record, items, err := s.repo.FindByIDAndUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return DetailDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return DetailDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	itemDTOs := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		itemDTOs = append(itemDTOs, ItemDTO{
			ProductID:  item.ProductID,
			Name:       item.Name,
			PriceCents: item.PriceCents,
			ImageURL:   item.ImageURL,
			Category:   item.Category,
			Quantity:   item.Quantity,
		})
	}

	return DetailDTO{
		ID:            record.ID,
		CustomerName:  record.CustomerName,
		Address:       record.Address,
		Phone:         record.Phone,
		SubtotalCents: record.SubtotalCents,
		TaxCents:      record.TaxCents,
		AmountCents:   record.AmountCents,
		PaymentRef:    record.PaymentRef,
		Items:         itemDTOs,
		CreatedAt:     record.CreatedAt,
	}, nil
}

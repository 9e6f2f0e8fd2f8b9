package checkout

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/internal/cart"
	"github.com/shoplight/shoplight-backend/internal/payments"
	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 \-]{6,19}$`)

type quoter interface {
	Quote(ctx context.Context, userID uuid.UUID) (cart.Quote, error)
}

type cartClearer interface {
	ClearTx(tx *gorm.DB, userID uuid.UUID) error
}

type orderWriter interface {
	CreateTx(tx *gorm.DB, order *models.Order, items []models.OrderItem) error
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Input carries the shipping details collected at checkout.
type Input struct {
	CustomerName string `json:"customer_name" validate:"required,min=2"`
	Address      string `json:"address" validate:"required,min=10"`
	Phone        string `json:"phone" validate:"required"`
}

// Result is returned once the order is committed.
type Result struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentRef    string    `json:"payment_ref"`
	SubtotalCents int64     `json:"subtotal_cents"`
	TaxCents      int64     `json:"tax_cents"`
	AmountCents   int64     `json:"amount_cents"`
	PlacedAt      time.Time `json:"placed_at"`
}

// Service turns a cart into an order.
type Service interface {
	Checkout(ctx context.Context, userID uuid.UUID, input Input) (Result, error)
}

type service struct {
	carts   quoter
	clearer cartClearer
	orders  orderWriter
	gateway payments.Gateway
	tx      transactor
}

// NewService wires the checkout flow.
func NewService(carts quoter, clearer cartClearer, orders orderWriter, gateway payments.Gateway, tx transactor) (Service, error) {
	if carts == nil {
		return nil, fmt.Errorf("cart quoter required")
	}
	if clearer == nil {
		return nil, fmt.Errorf("cart clearer required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transactor required")
	}
	return &service{carts: carts, clearer: clearer, orders: orders, gateway: gateway, tx: tx}, nil
}

// Checkout charges the cart total, then writes the order and empties the
// cart in one transaction. A failed write after a successful charge rolls
// the cart back untouched so the attempt can be retried.
func (s *service) Checkout(ctx context.Context, userID uuid.UUID, input Input) (Result, error) {
	if userID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := validateInput(&input); err != nil {
		return Result{}, err
	}

	quote, err := s.carts.Quote(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if len(quote.Lines) == 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	charge, err := s.gateway.Charge(ctx, userID, quote.TotalCents)
	if err != nil {
		return Result{}, err
	}

	order := models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		CustomerName:  input.CustomerName,
		Address:       input.Address,
		Phone:         input.Phone,
		SubtotalCents: quote.SubtotalCents,
		TaxCents:      quote.TaxCents,
		AmountCents:   quote.TotalCents,
		PaymentRef:    charge.Reference,
	}
	items := make([]models.OrderItem, 0, len(quote.Lines))
	for _, line := range quote.Lines {
		items = append(items, models.OrderItem{
			ProductID:  line.ProductID,
			Name:       line.Name,
			PriceCents: line.PriceCents,
			ImageURL:   line.ImageURL,
			Category:   line.Category,
			Quantity:   line.Quantity,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.orders.CreateTx(tx, &order, items); err != nil {
			return err
		}
		return s.clearer.ClearTx(tx, userID)
	})
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "commit order")
	}

	return Result{
		OrderID:       order.ID,
		PaymentRef:    charge.Reference,
		SubtotalCents: quote.SubtotalCents,
		TaxCents:      quote.TaxCents,
		AmountCents:   quote.TotalCents,
		PlacedAt:      charge.ChargedAt,
	}, nil
}

func validateInput(input *Input) error {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.Address = strings.TrimSpace(input.Address)
	input.Phone = strings.TrimSpace(input.Phone)

	if len(input.CustomerName) < 2 {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if len(input.Address) < 10 {
		return pkgerrors.New(pkgerrors.CodeValidation, "a full shipping address is required")
	}
	if !phonePattern.MatchString(input.Phone) {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone number is invalid")
	}
	return nil
}

package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

// AddItemInput is the product snapshot stored with each raw entry.
type AddItemInput struct {
	ProductID  string  `json:"product_id" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	PriceCents int64   `json:"price_cents" validate:"required,min=1"`
	ImageURL   string  `json:"image_url"`
	Category   *string `json:"category"`
}

// CartDTO is the derived cart view returned to clients.
type CartDTO struct {
	Lines         []LineItem `json:"lines"`
	ItemCount     int        `json:"item_count"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	TotalCents    int64      `json:"total_cents"`
}

// Service exposes cart operations over the raw entry store.
type Service interface {
	View(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	Quote(ctx context.Context, userID uuid.UUID) (Quote, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error)
	RemoveOne(ctx context.Context, userID uuid.UUID, productID string) (CartDTO, error)
	RemoveAll(ctx context.Context, userID uuid.UUID, productID string) (CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo               EntryRepository
	taxRateBasisPoints int64
}

// NewService builds the cart service.
func NewService(repo EntryRepository, taxRateBasisPoints int64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart entry repository required")
	}
	if taxRateBasisPoints < 0 {
		return nil, fmt.Errorf("tax rate must be non-negative")
	}
	return &service{repo: repo, taxRateBasisPoints: taxRateBasisPoints}, nil
}

// View returns the aggregated cart with derived quantities and totals.
func (s *service) View(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart entries")
	}
	return toDTO(BuildQuote(entries, s.taxRateBasisPoints), len(entries)), nil
}

// Quote returns the money view used by checkout.
func (s *service) Quote(ctx context.Context, userID uuid.UUID) (Quote, error) {
	if userID == uuid.Nil {
		return Quote{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	entries, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return Quote{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart entries")
	}
	return BuildQuote(entries, s.taxRateBasisPoints), nil
}

// AddItem appends one raw entry and returns the refreshed cart.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	entry := models.CartEntry{
		UserID:     userID,
		ProductID:  productID,
		Name:       strings.TrimSpace(input.Name),
		PriceCents: input.PriceCents,
		ImageURL:   strings.TrimSpace(input.ImageURL),
		Category:   input.Category,
	}
	if err := s.repo.Add(ctx, &entry); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart entry")
	}

	return s.View(ctx, userID)
}

// RemoveOne decrements the derived quantity by deleting the oldest entry.
// Removing from an absent product is a no-op, not an error.
func (s *service) RemoveOne(ctx context.Context, userID uuid.UUID, productID string) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.repo.RemoveOne(ctx, userID, productID); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart entry")
	}
	return s.View(ctx, userID)
}

// RemoveAll drops the whole line for the product.
func (s *service) RemoveAll(ctx context.Context, userID uuid.UUID, productID string) (CartDTO, error) {
	if userID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.RemoveAll(ctx, userID, productID); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	return s.View(ctx, userID)
}

// Clear empties the cart.
func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func toDTO(quote Quote, entryCount int) CartDTO {
	return CartDTO{
		Lines:         quote.Lines,
		ItemCount:     entryCount,
		SubtotalCents: quote.SubtotalCents,
		TaxCents:      quote.TaxCents,
		TotalCents:    quote.TotalCents,
	}
}

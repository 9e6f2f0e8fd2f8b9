package wishlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shoplight/shoplight-backend/internal/catalog"
	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

// ToggleInput is the product snapshot a like stores.
type ToggleInput struct {
	ProductID  string `json:"product_id" validate:"required"`
	Name       string `json:"name" validate:"required"`
	PriceCents int64  `json:"price_cents" validate:"required,min=1"`
	ImageURL   string `json:"image_url"`
	Category   string `json:"category"`
}

// ItemDTO is one wishlist row returned to clients.
type ItemDTO struct {
	ProductID   string    `json:"product_id"`
	Name        string    `json:"name"`
	PriceCents  int64     `json:"price_cents"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	PriceBucket string    `json:"price_bucket"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToggleResult reports whether the product ended up liked.
type ToggleResult struct {
	ProductID string `json:"product_id"`
	Liked     bool   `json:"liked"`
}

// Service exposes business rules for wishlist management.
type Service interface {
	Toggle(ctx context.Context, userID uuid.UUID, input ToggleInput) (ToggleResult, error)
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
}

type service struct {
	repo ItemRepository
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo ItemRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	return &service{repo: repo}, nil
}

// Toggle likes the product when absent and unlikes it when present.
func (s *service) Toggle(ctx context.Context, userID uuid.UUID, input ToggleInput) (ToggleResult, error) {
	if userID == uuid.Nil {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	existing, err := s.repo.Find(ctx, userID, productID)
	if err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist item")
	}

	if existing != nil {
		if err := s.repo.Remove(ctx, userID, productID); err != nil {
			return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
		}
		return ToggleResult{ProductID: productID, Liked: false}, nil
	}

	if strings.TrimSpace(input.Name) == "" {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.PriceCents <= 0 {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = catalog.DetectCategory(input.Name)
	}

	item := models.WishlistItem{
		UserID:      userID,
		ProductID:   productID,
		Name:        strings.TrimSpace(input.Name),
		PriceCents:  input.PriceCents,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Category:    category,
		PriceBucket: catalog.PriceBucketFor(input.PriceCents),
	}
	if err := s.repo.Insert(ctx, &item); err != nil {
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist wishlist item")
	}

	return ToggleResult{ProductID: productID, Liked: true}, nil
}

// List returns the user's likes, newest first.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist")
	}

	dtos := make([]ItemDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, ItemDTO{
			ProductID:   item.ProductID,
			Name:        item.Name,
			PriceCents:  item.PriceCents,
			ImageURL:    item.ImageURL,
			Category:    item.Category,
			PriceBucket: item.PriceBucket,
			CreatedAt:   item.CreatedAt,
		})
	}
	return dtos, nil
}

package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

// Result describes a settled charge.
type Result struct {
	Reference   string    `json:"reference"`
	AmountCents int64     `json:"amount_cents"`
	ChargedAt   time.Time `json:"charged_at"`
}

// Gateway charges a customer. The storefront ships with a mock gateway;
// a real processor slots in behind the same interface.
type Gateway interface {
	Charge(ctx context.Context, userID uuid.UUID, amountCents int64) (Result, error)
}

type mockGateway struct{}

// NewMockGateway returns a gateway that approves every well-formed charge
// and issues a synthetic payment reference.
func NewMockGateway() Gateway {
	return &mockGateway{}
}

func (g *mockGateway) Charge(ctx context.Context, userID uuid.UUID, amountCents int64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "charge cancelled")
	}
	if userID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if amountCents <= 0 {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "charge amount must be positive")
	}
	return Result{
		Reference:   fmt.Sprintf("mockpay_%s", uuid.NewString()),
		AmountCents: amountCents,
		ChargedAt:   time.Now().UTC(),
	}, nil
}

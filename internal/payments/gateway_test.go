package payments

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
)

func TestMockGatewayCharge(t *testing.T) {
	gateway := NewMockGateway()

	result, err := gateway.Charge(context.Background(), uuid.New(), 35400)
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if !strings.HasPrefix(result.Reference, "mockpay_") {
		t.Fatalf("expected mockpay reference, got %q", result.Reference)
	}
	if result.AmountCents != 35400 {
		t.Fatalf("expected amount echoed back, got %d", result.AmountCents)
	}
	if result.ChargedAt.IsZero() {
		t.Fatal("expected charge timestamp")
	}
}

func TestMockGatewayRejectsInvalidCharges(t *testing.T) {
	gateway := NewMockGateway()

	if _, err := gateway.Charge(context.Background(), uuid.Nil, 100); err == nil {
		t.Fatal("expected error for missing user")
	}

	_, err := gateway.Charge(context.Background(), uuid.New(), 0)
	if err == nil {
		t.Fatal("expected error for zero amount")
	}
	var appErr *pkgerrors.Error
	if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

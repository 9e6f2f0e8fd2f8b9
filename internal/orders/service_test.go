package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shoplight/shoplight-backend/pkg/db/models"
	pkgerrors "github.com/shoplight/shoplight-backend/pkg/errors"
	"github.com/shoplight/shoplight-backend/pkg/pagination"
)

type stubOrderRepo struct {
	orders []models.Order
	items  map[uuid.UUID][]models.OrderItem
}

func (s *stubOrderRepo) ListByUser(_ context.Context, userID uuid.UUID, params pagination.Params) ([]ListRow, int64, error) {
	var owned []ListRow
	for _, order := range s.orders {
		if order.UserID == userID {
			owned = append(owned, ListRow{Order: order, ItemCount: len(s.items[order.ID])})
		}
	}
	total := int64(len(owned))
	offset := params.Offset()
	if offset >= len(owned) {
		return nil, total, nil
	}
	end := offset + params.Limit
	if end > len(owned) {
		end = len(owned)
	}
	return owned[offset:end], total, nil
}

func (s *stubOrderRepo) FindByIDAndUser(_ context.Context, orderID, userID uuid.UUID) (*models.Order, []models.OrderItem, error) {
	for i := range s.orders {
		if s.orders[i].ID == orderID && s.orders[i].UserID == userID {
			return &s.orders[i], s.items[orderID], nil
		}
	}
	return nil, nil, gorm.ErrRecordNotFound
}

func TestServiceListScopesToUser(t *testing.T) {
	userID := uuid.New()
	otherID := uuid.New()
	repo := &stubOrderRepo{orders: []models.Order{
		{ID: uuid.New(), UserID: userID, AmountCents: 354, CreatedAt: time.Now()},
		{ID: uuid.New(), UserID: otherID, AmountCents: 999, CreatedAt: time.Now()},
		{ID: uuid.New(), UserID: userID, AmountCents: 118, CreatedAt: time.Now()},
	}}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	list, err := svc.List(context.Background(), userID, pagination.Params{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 2 || len(list.Orders) != 2 {
		t.Fatalf("expected 2 owned orders, got total=%d len=%d", list.Total, len(list.Orders))
	}
	if list.Page != 1 || list.Limit != pagination.DefaultLimit {
		t.Fatalf("expected normalized pagination, got page=%d limit=%d", list.Page, list.Limit)
	}
}

func TestServiceGetReturnsItems(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	category := "fashion"
	repo := &stubOrderRepo{
		orders: []models.Order{{
			ID:            orderID,
			UserID:        userID,
			CustomerName:  "Asha Rao",
			Address:       "12 Hill Road, Mumbai 400050",
			Phone:         "+91 98200 00000",
			SubtotalCents: 300,
			TaxCents:      54,
			AmountCents:   354,
			PaymentRef:    "mockpay_abc",
		}},
		items: map[uuid.UUID][]models.OrderItem{
			orderID: {{ProductID: "p1", Name: "Leather shoes", PriceCents: 100, Category: &category, Quantity: 3}},
		},
	}
	svc, _ := NewService(repo)

	detail, err := svc.Get(context.Background(), orderID, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if detail.PaymentRef != "mockpay_abc" || detail.AmountCents != 354 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.Items) != 1 || detail.Items[0].Quantity != 3 {
		t.Fatalf("expected single line with quantity 3, got %+v", detail.Items)
	}
}

func TestServiceGetNotFoundForOtherUser(t *testing.T) {
	ownerID := uuid.New()
	orderID := uuid.New()
	repo := &stubOrderRepo{orders: []models.Order{{ID: orderID, UserID: ownerID}}}
	svc, _ := NewService(repo)

	_, err := svc.Get(context.Background(), orderID, uuid.New())
	if err == nil {
		t.Fatal("expected not found")
	}
	var appErr *pkgerrors.Error
	if !pkgerrors.As(err, &appErr) || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

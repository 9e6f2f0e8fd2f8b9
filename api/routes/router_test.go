package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	authsvc "github.com/shoplight/shoplight-backend/internal/auth"
	cartsvc "github.com/shoplight/shoplight-backend/internal/cart"
	checkoutsvc "github.com/shoplight/shoplight-backend/internal/checkout"
	feedsvc "github.com/shoplight/shoplight-backend/internal/feed"
	pkgauth "github.com/shoplight/shoplight-backend/pkg/auth"
	"github.com/shoplight/shoplight-backend/pkg/config"
	"github.com/shoplight/shoplight-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessionChecker struct{}

func (stubSessionChecker) HasSession(context.Context, string) (bool, error) { return true, nil }

type stubCartService struct{}

func (stubCartService) View(context.Context, uuid.UUID) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (stubCartService) Quote(context.Context, uuid.UUID) (cartsvc.Quote, error) {
	return cartsvc.Quote{}, nil
}

func (stubCartService) AddItem(context.Context, uuid.UUID, cartsvc.AddItemInput) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveOne(context.Context, uuid.UUID, string) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (stubCartService) RemoveAll(context.Context, uuid.UUID, string) (cartsvc.CartDTO, error) {
	return cartsvc.CartDTO{}, nil
}

func (stubCartService) Clear(context.Context, uuid.UUID) error { return nil }

type stubFeedService struct{}

func (stubFeedService) LoadMore(context.Context, uuid.UUID, string) (feedsvc.DTO, error) {
	return feedsvc.DTO{}, nil
}

func (stubFeedService) View(context.Context, uuid.UUID, string, string) (feedsvc.DTO, error) {
	return feedsvc.DTO{}, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(context.Context, authsvc.RegisterInput) (authsvc.SessionDTO, error) {
	return authsvc.SessionDTO{}, nil
}

func (stubAuthService) Login(context.Context, authsvc.LoginInput) (authsvc.SessionDTO, error) {
	return authsvc.SessionDTO{}, nil
}

func (stubAuthService) Refresh(context.Context, authsvc.RefreshInput) (authsvc.SessionDTO, error) {
	return authsvc.SessionDTO{}, nil
}

func (stubAuthService) Logout(context.Context, string) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "8080"},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "shoplight-test", ExpirationMinutes: 15},
	}
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{
		Config:      testConfig(),
		Logger:      logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
		DB:          stubPinger{},
		Sessions:    stubSessionChecker{},
		AuthService: stubAuthService{},
		CartService: stubCartService{},
		FeedService: stubFeedService{},
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Shoplight-Env") != "dev" {
		t.Fatal("expected environment header")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter()

	for _, target := range []string{"/api/v1/cart", "/api/v1/feed", "/api/v1/orders"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", target, rec.Code)
		}
	}
}

func TestProtectedRouteAcceptsValidToken(t *testing.T) {
	router := newTestRouter()

	cfg := testConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		DisplayName: "Asha Rao",
		JTI:         uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (f *fakeCache) Ping(context.Context) error { return nil }

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeCache) IncrWithTTL(context.Context, string, time.Duration) (int64, error) {
	return 1, nil
}

func (f *fakeCache) IdempotencyKey(scope, id string) string {
	return "sl:idem:" + scope + ":" + id
}

func (f *fakeCache) RateLimitKey(scope string) string { return "sl:rl:" + scope }

type countingCheckoutService struct {
	calls int
}

func (s *countingCheckoutService) Checkout(context.Context, uuid.UUID, checkoutsvc.Input) (checkoutsvc.Result, error) {
	s.calls++
	return checkoutsvc.Result{
		OrderID:     uuid.New(),
		PaymentRef:  "mockpay_test",
		AmountCents: 35400,
		PlacedAt:    time.Now().UTC(),
	}, nil
}

func TestCheckoutIdempotencyReplay(t *testing.T) {
	checkout := &countingCheckoutService{}
	router := NewRouter(Deps{
		Config:          testConfig(),
		Logger:          logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
		DB:              stubPinger{},
		Redis:           newFakeCache(),
		Sessions:        stubSessionChecker{},
		CheckoutService: checkout,
	})

	cfg := testConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		DisplayName: "Asha Rao",
		JTI:         uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("MintAccessToken: %v", err)
	}

	const shipping = `{"customer_name":"Asha Rao","address":"12 MG Road, Bengaluru 560001","phone":"+91 98450 12345"}`

	newCheckoutRequest := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(shipping))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	// The key header is mandatory on checkout.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, newCheckoutRequest())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without idempotency key, got %d: %s", rec.Code, rec.Body.String())
	}
	if checkout.calls != 0 {
		t.Fatal("checkout ran without idempotency key")
	}

	var bodies []string
	for i := 0; i < 2; i++ {
		req := newCheckoutRequest()
		req.Header.Set("Idempotency-Key", "order-attempt-1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d: %s", i, rec.Code, rec.Body.String())
		}
		bodies = append(bodies, rec.Body.String())
	}
	if checkout.calls != 1 {
		t.Fatalf("checkout executed %d times, expected 1", checkout.calls)
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("expected replayed response, got %q then %q", bodies[0], bodies[1])
	}
}

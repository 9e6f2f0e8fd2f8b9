package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shoplight/shoplight-backend/api/controllers"
	"github.com/shoplight/shoplight-backend/api/middleware"
	authsvc "github.com/shoplight/shoplight-backend/internal/auth"
	cartsvc "github.com/shoplight/shoplight-backend/internal/cart"
	checkoutsvc "github.com/shoplight/shoplight-backend/internal/checkout"
	feedsvc "github.com/shoplight/shoplight-backend/internal/feed"
	ordersvc "github.com/shoplight/shoplight-backend/internal/orders"
	usersvc "github.com/shoplight/shoplight-backend/internal/users"
	wishlistsvc "github.com/shoplight/shoplight-backend/internal/wishlist"
	"github.com/shoplight/shoplight-backend/pkg/auth/session"
	"github.com/shoplight/shoplight-backend/pkg/config"
	"github.com/shoplight/shoplight-backend/pkg/logger"
	"github.com/shoplight/shoplight-backend/pkg/metrics"
	"github.com/shoplight/shoplight-backend/pkg/pexels"
)

// Cache is the Redis surface the router's middleware and health checks use.
// pkg/redis.Client satisfies it.
type Cache interface {
	controllers.Pinger
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	IdempotencyKey(scope, id string) string
	RateLimitKey(scope string) string
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           controllers.Pinger
	Redis        Cache
	Sessions     session.AccessSessionChecker
	Registry     *prometheus.Registry
	HTTPMetrics  *metrics.HTTPMetrics
	PexelsClient *pexels.Client

	AuthService     authsvc.Service
	FeedService     feedsvc.Service
	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	OrdersService   ordersvc.Service
	WishlistService wishlistsvc.Service
	UsersService    usersvc.Service
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Image search proxy stays public; the upstream key never leaves the server.
	r.Get("/search-images", controllers.SearchImages(deps.PexelsClient, logg))

	// Idempotency reads the matched route pattern, so it must be attached
	// per endpoint; a Use-mounted copy would run before routing resolves.
	idempotent := middleware.Idempotency(deps.Redis, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(
			middleware.AuthRateLimit(registerPolicy, deps.Redis, logg),
			idempotent,
		).Post("/register", controllers.AuthRegister(deps.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", controllers.AuthLogin(deps.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, deps.Sessions, logg)).Post("/logout", controllers.AuthLogout(deps.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))

		r.Route("/feed", func(r chi.Router) {
			r.Get("/", controllers.FeedView(deps.FeedService, logg))
			r.Post("/more", controllers.FeedLoadMore(deps.FeedService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(deps.CartService, logg))
			r.With(idempotent).Post("/items", controllers.CartAddItem(deps.CartService, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(deps.CartService, logg))
			r.Delete("/", controllers.CartClear(deps.CartService, logg))
		})

		r.With(idempotent).Post("/checkout", controllers.Checkout(deps.CheckoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.OrdersService, logg))
			r.Get("/{orderID}", controllers.OrdersGet(deps.OrdersService, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.WishlistService, logg))
			r.With(idempotent).Post("/toggle", controllers.WishlistToggle(deps.WishlistService, logg))
		})

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", controllers.ProfileGet(deps.UsersService, logg))
			r.Put("/name", controllers.ProfileUpdate(deps.UsersService, logg))
			r.Post("/addresses", controllers.AddressAdd(deps.UsersService, logg))
			r.Put("/addresses/{index}", controllers.AddressUpdate(deps.UsersService, logg))
			r.Delete("/addresses/{index}", controllers.AddressDelete(deps.UsersService, logg))
			r.Post("/addresses/{index}/default", controllers.AddressMakeDefault(deps.UsersService, logg))
		})
	})

	return r
}

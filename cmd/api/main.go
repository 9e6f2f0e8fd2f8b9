package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/shoplight/shoplight-backend/api/routes"
	authsvc "github.com/shoplight/shoplight-backend/internal/auth"
	cartsvc "github.com/shoplight/shoplight-backend/internal/cart"
	checkoutsvc "github.com/shoplight/shoplight-backend/internal/checkout"
	feedsvc "github.com/shoplight/shoplight-backend/internal/feed"
	ordersvc "github.com/shoplight/shoplight-backend/internal/orders"
	"github.com/shoplight/shoplight-backend/internal/payments"
	usersvc "github.com/shoplight/shoplight-backend/internal/users"
	wishlistsvc "github.com/shoplight/shoplight-backend/internal/wishlist"
	"github.com/shoplight/shoplight-backend/pkg/auth/session"
	"github.com/shoplight/shoplight-backend/pkg/config"
	"github.com/shoplight/shoplight-backend/pkg/db"
	"github.com/shoplight/shoplight-backend/pkg/logger"
	"github.com/shoplight/shoplight-backend/pkg/metrics"
	"github.com/shoplight/shoplight-backend/pkg/migrate"
	"github.com/shoplight/shoplight-backend/pkg/pexels"
	"github.com/shoplight/shoplight-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	pexelsClient, err := pexels.NewClient(
		cfg.Pexels.APIKey,
		pexels.WithBaseURL(cfg.Pexels.BaseURL),
		pexels.WithHTTPClient(&http.Client{Timeout: cfg.Pexels.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create pexels client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	cartRepo := cartsvc.NewRepository(dbClient.DB())
	cartService, err := cartsvc.NewService(cartRepo, int64(cfg.Checkout.TaxRateBasisPoints))
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	feedService, err := feedsvc.NewService(redisClient, pexelsClient, cfg.Feed)
	if err != nil {
		logg.Error(context.Background(), "failed to create feed service", err)
		os.Exit(1)
	}

	ordersRepo := ordersvc.NewRepository(dbClient.DB())
	ordersService, err := ordersvc.NewService(ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(cartService, cartRepo, ordersRepo, payments.NewMockGateway(), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	wishlistService, err := wishlistsvc.NewService(wishlistsvc.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create wishlist service", err)
		os.Exit(1)
	}

	usersRepo := usersvc.NewRepository(dbClient.DB())
	usersService, err := usersvc.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(usersRepo, sessionManager, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:          cfg,
			Logger:          logg,
			DB:              dbClient,
			Redis:           redisClient,
			Sessions:        sessionManager,
			Registry:        registry,
			HTTPMetrics:     httpMetrics,
			PexelsClient:    pexelsClient,
			AuthService:     authService,
			FeedService:     feedService,
			CartService:     cartService,
			CheckoutService: checkoutService,
			OrdersService:   ordersService,
			WishlistService: wishlistService,
			UsersService:    usersService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

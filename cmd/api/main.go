package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lmorales-dev/shopstream-backend/api/routes"
	"github.com/lmorales-dev/shopstream-backend/internal/auth"
	"github.com/lmorales-dev/shopstream-backend/internal/billing"
	"github.com/lmorales-dev/shopstream-backend/internal/cart"
	"github.com/lmorales-dev/shopstream-backend/internal/checkout"
	"github.com/lmorales-dev/shopstream-backend/internal/coupons"
	"github.com/lmorales-dev/shopstream-backend/internal/orders"
	"github.com/lmorales-dev/shopstream-backend/internal/products"
	"github.com/lmorales-dev/shopstream-backend/internal/realtime"
	"github.com/lmorales-dev/shopstream-backend/internal/users"
	"github.com/lmorales-dev/shopstream-backend/pkg/auth/session"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	"github.com/lmorales-dev/shopstream-backend/pkg/mailer"
	"github.com/lmorales-dev/shopstream-backend/pkg/migrate"
	"github.com/lmorales-dev/shopstream-backend/pkg/redis"
	"github.com/lmorales-dev/shopstream-backend/pkg/stripe"
)

const shutdownGrace = 15 * time.Second

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

	if _, err := stripe.NewClient(context.Background(), cfg.Stripe, logg); err != nil {
		logg.Error(context.Background(), "failed to configure stripe", err)
		os.Exit(1)
	}

	mailSender, err := mailer.New(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to configure mailer", err)
		os.Exit(1)
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())
	billRepo := billing.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.Params{
		Users:       userRepo,
		Sessions:    sessionManager,
		Mailer:      mailSender,
		Logger:      logg,
		JWT:         cfg.JWT,
		Password:    cfg.Password,
		FrontendURL: cfg.Frontend.BaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	userService, err := users.NewService(userRepo, orderRepo, billRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create user service", err)
		os.Exit(1)
	}

	productService, err := products.NewService(productRepo, redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(cartRepo, productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	couponService, err := coupons.NewService(couponRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create coupon service", err)
		os.Exit(1)
	}

	hub, err := realtime.NewHub(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime hub", err)
		os.Exit(1)
	}

	publisher, err := realtime.NewPublisher(redisClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create realtime publisher", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.Params{
		Sessions:    checkout.NewSessionClient(),
		Coupons:     couponRepo,
		Gifts:       couponService,
		Products:    productRepo,
		Users:       userRepo,
		Cart:        cartRepo,
		Orders:      orderRepo,
		Bills:       billRepo,
		Mailer:      mailSender,
		Publisher:   publisher,
		Logger:      logg,
		FrontendURL: cfg.Frontend.BaseURL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(rootCtx)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(rootCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Auth:     authService,
			Users:    userService,
			Products: productService,
			Cart:     cartService,
			Coupons:  couponService,
			Checkout: checkoutService,
			Hub:      hub,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-rootCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rohanjoshi-dev/bitekart-backend/api/controllers"
	"github.com/rohanjoshi-dev/bitekart-backend/api/routes"
	authsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/auth"
	cartsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/cart"
	checkoutsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/checkout"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/notifications"
	orderssvc "github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/payments"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/products"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/screenshots"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/db"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/fcm"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/metrics"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/migrate"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/pubsub"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/razorpay"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/redis"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/storage"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/storage/gcs"
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

	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" || cfg.Redis.Address != "" {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured, rate limiting and webhook dedupe disabled")
	}

	var gateway *razorpay.Client
	if cfg.Razorpay.Configured() {
		gateway, err = razorpay.NewClient(ctx, cfg.Razorpay, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap razorpay", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "razorpay not configured, online payments disabled")
	}

	var pusher notifications.Pusher
	if cfg.Firebase.Configured() {
		fcmClient, err := fcm.NewClient(ctx, cfg.Firebase, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap fcm", err)
			os.Exit(1)
		}
		pusher = fcmClient
	}

	var publisher notifications.EventPublisher
	if cfg.PubSub.Configured() {
		psClient, err := pubsub.NewClient(ctx, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer psClient.Close()
		publisher = psClient
	}

	var proofStore storage.Store
	if cfg.FeatureFlags.StorageBackend == "gcs" {
		gcsStore, err := gcs.NewStore(ctx, cfg.GCS, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap gcs storage", err)
			os.Exit(1)
		}
		proofStore = gcsStore
	} else {
		localStore, err := storage.NewLocalStore(cfg.Uploads)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap local storage", err)
			os.Exit(1)
		}
		proofStore = localStore
	}

	registry := prometheus.NewRegistry()
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	gdb := dbClient.DB()
	cartRepo := cartsvc.NewRepository(gdb)
	ordersRepo := orderssvc.NewRepository(gdb)
	paymentsRepo := payments.NewRepository(gdb)
	screenshotsRepo := screenshots.NewRepository(gdb)
	notificationsRepo := notifications.NewRepository(gdb)
	productsRepo := products.NewRepository(gdb)
	settingsRepo := checkoutsvc.NewSettingsRepo(gdb)
	inventory := checkoutsvc.NewInventory(gdb)

	notifier, err := notifications.NewService(notificationsRepo, pusher, publisher, logg)
	if err != nil {
		logg.Error(ctx, "failed to create notifications service", err)
		os.Exit(1)
	}

	authService, err := authsvc.NewService(authsvc.Params{
		Users:   authsvc.NewUserStore(gdb),
		Vendors: authsvc.NewVendorFinder(gdb),
		JWT:     cfg.JWT,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartRepo, productsRepo)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	var paymentsService payments.Service
	if gateway != nil {
		paymentsService, err = payments.NewService(payments.Params{
			Repo:       paymentsRepo,
			OrdersRepo: ordersRepo,
			Gateway:    gateway,
			Tx:         dbClient,
			Notifier:   notifier,
			Metrics:    paymentMetrics,
			Logger:     logg,
		})
		if err != nil {
			logg.Error(ctx, "failed to create payments service", err)
			os.Exit(1)
		}
	}

	ordersService, err := orderssvc.NewService(ordersRepo, dbClient, inventory, refundIssuer(paymentsService), notifier, logg)
	if err != nil {
		logg.Error(ctx, "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutParams := checkoutsvc.Params{
		CartRepo:      cartRepo,
		OrdersRepo:    ordersRepo,
		Stock:         inventory,
		Fees:          checkoutsvc.NewFeeCalculator(settingsRepo, cfg.Delivery),
		Tx:            dbClient,
		Notifier:      notifier,
		Metrics:       paymentMetrics,
		Logger:        logg,
		OnlineEnabled: cfg.Razorpay.OnlineEnabled && paymentsService != nil,
	}
	if paymentsService != nil {
		checkoutParams.Intents = paymentsService
	}
	checkoutService, err := checkoutsvc.NewService(checkoutParams)
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	screenshotsService, err := screenshots.NewService(screenshots.Params{
		Repo:       screenshotsRepo,
		OrdersRepo: ordersRepo,
		Payments:   paymentsRepo,
		Stock:      inventory,
		Store:      proofStore,
		Tx:         dbClient,
		Notifier:   notifier,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create screenshots service", err)
		os.Exit(1)
	}

	pingers := map[string]controllers.Pinger{"db": dbClient}
	if redisClient != nil {
		pingers["redis"] = redisClient
	}

	deps := routes.Deps{
		Config:        cfg,
		Logger:        logg,
		Pingers:       pingers,
		Redis:         redisClient,
		Registry:      registry,
		Auth:          authService,
		Cart:          cartService,
		Checkout:      checkoutService,
		Orders:        ordersService,
		Payments:      paymentsService,
		Screenshots:   screenshotsService,
		Notifications: notifier,
		Products:      productsRepo,
		Settings:      settingsRepo,
	}
	if redisClient != nil {
		deps.WebhookGuard = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(runCtx, "shutting down api server")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(runCtx, "graceful shutdown failed", err)
		}
	}
}

// refundIssuer substitutes a no-op when the gateway is absent. COD and
// manual orders never reach the refund path with money captured online.
func refundIssuer(svc payments.Service) orderssvc.RefundIssuer {
	if svc == nil {
		return noopRefunds{}
	}
	return svc
}

type noopRefunds struct{}

func (noopRefunds) RefundOrder(ctx context.Context, orderID int64, reason string) error {
	return nil
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/marketplace-engine/api/routes"
	"github.com/angelmondragon/marketplace-engine/internal/app"
	squarewebhook "github.com/angelmondragon/marketplace-engine/internal/webhooks/square"
	"github.com/angelmondragon/marketplace-engine/pkg/config"
	"github.com/angelmondragon/marketplace-engine/pkg/db"
	"github.com/angelmondragon/marketplace-engine/pkg/instance"
	"github.com/angelmondragon/marketplace-engine/pkg/logger"
	"github.com/angelmondragon/marketplace-engine/pkg/metrics"
	"github.com/angelmondragon/marketplace-engine/pkg/migrate"
	"github.com/angelmondragon/marketplace-engine/pkg/redis"
	"github.com/angelmondragon/marketplace-engine/pkg/square"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := app.Build(app.Params{
		Config:  cfg,
		Logger:  logg,
		DB:      dbClient,
		Redis:   redisClient,
		Metrics: metrics.NewCommerceMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}
	services.Dispatcher.Start()

	deps := routes.Dependencies{
		DB:      dbClient,
		Redis:   redisClient,
		Metrics: registry,

		Cart:          services.Cart,
		Coupons:       services.Coupons,
		Inventory:     services.Inventory,
		Orders:        services.Orders,
		Payments:      services.Payments,
		Returns:       services.Returns,
		Reviews:       services.Reviews,
		Notifications: services.Notifications,
		Dispatcher:    services.Dispatcher,
	}
	if cfg.Square.Enabled() {
		if err := wireSquare(context.Background(), cfg, logg, redisClient, services, &deps); err != nil {
			logg.Error(context.Background(), "failed to configure square", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "square credentials missing, webhook endpoint disabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr:         addr,
		Handler:      routes.NewRouter(cfg, logg, deps),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "http server shutdown failed", err)
		exitCode = 1
	}
	if err := services.Dispatcher.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "event dispatcher did not drain", err)
		exitCode = 1
	}
	logg.Info(ctx, "api server stopped")

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func wireSquare(ctx context.Context, cfg *config.Config, logg *logger.Logger, redisClient *redis.Client, services *app.Services, deps *routes.Dependencies) error {
	client, err := square.NewClient(ctx, cfg.Square, logg)
	if err != nil {
		return err
	}
	webhookSvc, err := squarewebhook.NewService(squarewebhook.ServiceParams{
		Payments:   services.Payments,
		Square:     client,
		Dispatcher: services.Dispatcher,
		Logger:     logg,
	})
	if err != nil {
		return err
	}
	guard, err := squarewebhook.NewIdempotencyGuard(redisClient, cfg.Events.IdempotencyTTL, "square-webhook")
	if err != nil {
		return err
	}
	deps.SquareClient = client
	deps.SquareWebhook = webhookSvc
	deps.SquareGuard = guard
	return nil
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stevie86/portugal-hostel-booking/internal/application/services"
	"github.com/stevie86/portugal-hostel-booking/internal/config"
	"github.com/stevie86/portugal-hostel-booking/internal/infrastructure/notification"
	"github.com/stevie86/portugal-hostel-booking/internal/infrastructure/persistence/postgres"
	"github.com/stevie86/portugal-hostel-booking/internal/interfaces/rest"
	"github.com/stevie86/portugal-hostel-booking/internal/provider"
	"github.com/stevie86/portugal-hostel-booking/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payment service",
		"port", cfg.Server.Port,
		"env", cfg.Primary.Env,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	pgxCfg, err := cfg.Database.PgxConfig(ctx)
	if err != nil {
		logger.Error("invalid database configuration", "error", err)
		os.Exit(1)
	}
	db, err := postgres.Connect(ctx, pgxCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	payments := postgres.NewPaymentStore(db)
	logs := postgres.NewTransactionLogStore(db)
	bookings := postgres.NewBookingStore(db)
	notifier := notification.NewLogNotifier(logger)

	seed := time.Now().UnixNano()
	latency := 300 * time.Millisecond
	cardProvider := provider.NewCreditCardProvider(cfg.Providers.Card.Domain(),
		provider.NewSimulatedCardGateway(seed, latency), logs, logger)
	mbwayProvider := provider.NewMBWayProvider(cfg.Providers.MBWay.Domain(),
		provider.NewSimulatedMBWayGateway(seed+1, latency), logs, logger)
	multibancoProvider := provider.NewMultibancoProvider(cfg.Providers.Multibanco.Domain(),
		provider.NewSimulatedMultibancoGateway(seed+2, latency), logs, logger)

	service := services.NewPaymentService(services.Config{
		DefaultTenantID:  cfg.Payment.DefaultTenantID,
		MaxRetryAttempts: cfg.Payment.MaxRetryAttempts,
		RetryDelay:       cfg.Payment.RetryDelay,
	}, payments, logs, bookings, notifier, logger)

	service.RegisterProvider(cardProvider)
	service.RegisterProvider(mbwayProvider)
	service.RegisterProvider(multibancoProvider)

	reconciler := worker.NewReconciler(multibancoProvider, payments, bookings, notifier,
		worker.ReconcilerConfig{
			Interval:    cfg.Worker.Interval,
			MinAge:      cfg.Worker.MinAge,
			ExpireAfter: cfg.Worker.ExpireAfter,
			BatchSize:   cfg.Worker.BatchSize,
		}, logger)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()
	go reconciler.Start(workerCtx)

	e := rest.NewServer(rest.NewHandlers(service, logger), logger, cfg.Server.ReadTimeout)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	go func() {
		logger.Info("server starting", "addr", "0.0.0.0:"+cfg.Server.Port)
		if err := e.Start("0.0.0.0:" + cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

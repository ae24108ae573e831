// Command api runs the Advenrent REST backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"advenrent_backend/internal/auth"
	"advenrent_backend/internal/bookings"
	bookingssvc "advenrent_backend/internal/bookings/service"
	"advenrent_backend/internal/email"
	apphttp "advenrent_backend/internal/http"
	"advenrent_backend/internal/http/router"
	"advenrent_backend/internal/notification"
	"advenrent_backend/internal/payments"
	paymentsprovider "advenrent_backend/internal/payments/provider"
	"advenrent_backend/internal/scheduler"
	"advenrent_backend/internal/storage"
	"advenrent_backend/internal/vehicles"
	vehiclessvc "advenrent_backend/internal/vehicles/service"
	"advenrent_backend/migrations"
	"advenrent_backend/platform/cache"
	"advenrent_backend/platform/config"
	"advenrent_backend/platform/db"
	"advenrent_backend/platform/events"
	"advenrent_backend/platform/logger"
	"advenrent_backend/platform/validator"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, migrations.FS, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database migrations applied")

	var searchCache vehiclessvc.Cache = cache.Noop{}
	if cfg.GetRedisURL() != "" {
		redisCache, err := cache.New(cfg.GetRedisURL())
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		searchCache = redisCache
	} else {
		log.Warn("redis not configured, search caching disabled")
	}

	bus := events.NewInMemoryBus(log)
	val := validator.New()

	var store storage.Service
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		if err := minioSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketVehicleImages()); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
		store = minioSvc
	} else {
		log.Warn("object storage not configured, vehicle image uploads disabled")
	}

	var sender email.Sender = email.NewNoopSender(log)
	if cfg.GetEmailEnabled() {
		smtpSender, err := email.NewSMTPSender(cfg, log)
		if err != nil {
			return fmt.Errorf("init mail sender: %w", err)
		}
		sender = smtpSender
	}
	notification.New(sender, log).Subscribe(bus)

	var reminders bookingssvc.ReminderScheduler
	if cfg.GetRedisURL() != "" {
		schedClient, err := scheduler.NewClient(cfg, log)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		defer schedClient.Close()
		reminders = schedClient
	} else {
		log.Warn("redis not configured, booking reminders disabled")
	}

	authModule := auth.NewModule(pool, cfg, bus, log, val)
	vehiclesModule := vehicles.NewModule(pool, searchCache, store, cfg, log, val)
	bookingsModule := bookings.NewModule(pool, vehiclesModule.Repository(), authModule.Repository(), bus, reminders, log, val)

	modules := []apphttp.Module{authModule, vehiclesModule, bookingsModule}

	if cfg.IsPaymentsEnabled() {
		stripeProvider, err := paymentsprovider.NewStripeProvider(cfg.GetStripeSecretKey())
		if err != nil {
			return fmt.Errorf("init payments: %w", err)
		}
		modules = append(modules, payments.NewModule(pool, bookingsModule.Repository(), stripeProvider, log, val))
	} else {
		log.Warn("stripe not configured, payments disabled")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: bus,
		Modules:  modules,
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr(), "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// connectWithRetry pings the database with backoff so the server survives
// a slow database start in containerized deployments.
func connectWithRetry(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*pgxpool.Pool, error) {
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err := db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		lastErr = err
		log.Warn("database not ready, retrying", "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, lastErr
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kiosk_checkin_backend/internal/adapters/storage"
	"kiosk_checkin_backend/internal/checkin"
	"kiosk_checkin_backend/internal/events"
	apphttp "kiosk_checkin_backend/internal/http"
	"kiosk_checkin_backend/internal/http/router"
	"kiosk_checkin_backend/internal/panels"
	"kiosk_checkin_backend/internal/relay"
	"kiosk_checkin_backend/platform/config"
	"kiosk_checkin_backend/platform/db"
	"kiosk_checkin_backend/platform/logger"
	"kiosk_checkin_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Optional relay redelivery queue; the dispatch path stays
	// single-attempt either way.
	redeliveryQueue, closeQueue := initRedeliveryQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	// Optional object storage for model photos
	photoStore := initPhotoStore(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	panelsModule := panels.NewModule(pool, eventBus, val, log)
	relayModule := relay.NewModule(pool, cfg, redeliveryQueue, eventBus, val, log)
	checkinModule := checkin.NewModule(pool, cfg, photoStore, eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			panelsModule,
			relayModule,
			checkinModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedeliveryQueue(cfg config.SchedulerConfig, log *logger.Logger) (relay.RedeliveryEnqueuer, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; relay redelivery disabled")
		return nil, nil
	}

	queue, err := relay.NewRedeliveryQueue(cfg)
	if err != nil {
		log.Error("failed to initialize relay redelivery queue", "error", err)
		return nil, nil
	}

	return queue, func() {
		_ = queue.Close()
	}
}

func initPhotoStore(ctx context.Context, cfg config.MinIOConfig, log *logger.Logger) storage.PhotoStore {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MinIO not configured; model photo storage disabled")
		return nil
	}

	store, err := storage.NewMinIOPhotoStore(cfg)
	if err != nil {
		log.Error("failed to initialize photo storage", "error", err)
		return nil
	}

	if err := withRetry(ctx, log, "ensure photo bucket", 5, 2*time.Second, func() error {
		return store.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure photo bucket exists", "error", err)
		return nil
	}

	log.Info("photo storage initialized", "bucket", cfg.GetMinioBucketModelPhotos())
	return store
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"quotescan_backend/internal/adapters/storage"
	"quotescan_backend/internal/crm"
	"quotescan_backend/internal/email"
	"quotescan_backend/internal/events"
	apphttp "quotescan_backend/internal/http"
	"quotescan_backend/internal/http/router"
	"quotescan_backend/internal/leads"
	"quotescan_backend/internal/notification"
	"quotescan_backend/internal/scans"
	"quotescan_backend/internal/scheduler"
	"quotescan_backend/internal/sms"
	"quotescan_backend/internal/verification"
	verifservice "quotescan_backend/internal/verification/service"
	"quotescan_backend/platform/config"
	"quotescan_backend/platform/db"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.Migrate(ctx, cfg)
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

	taskClient, closeTaskClient := initTaskClient(cfg, log)
	if closeTaskClient != nil {
		defer closeTaskClient()
	}

	emailSender := email.NewSender(cfg, log)
	smsClient := sms.NewClient(cfg, log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Storage service for quote document uploads (MinIO)
	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	if err := withRetry(ctx, log, "ensure quote documents bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, cfg.GetMinioBucketQuoteDocuments())
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", cfg.GetMinioBucketQuoteDocuments())
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
	log.Info("storage service initialized", "quoteDocumentsBucket", cfg.GetMinioBucketQuoteDocuments())

	redisHealth := newRedisHealth(cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	leadsModule := leads.NewModule(pool, eventBus, val, log)
	scansModule := scans.NewModule(pool, leadsModule.Service(), storageSvc, taskClient, eventBus, val, log, cfg)

	var smsSender verifservice.CodeSender
	if smsClient != nil {
		smsSender = smsClient
	}
	verificationModule := verification.NewModule(pool, leadsModule.Service(), emailSender, smsSender, cfg, eventBus, val, log)

	// Notification module subscribes to domain events (not HTTP-facing)
	notificationModule := notification.New(emailSender, leadsModule.Service(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	// CRM forwarder pushes conversion values outbound (nil when disabled)
	crmForwarder := crm.New(cfg, leadsModule.Service(), log)
	crmForwarder.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		DB:       pool,
		Redis:    redisHealth,
		Storage:  storageSvc,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
			scansModule,
			verificationModule,
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initTaskClient(cfg config.RedisConfig, log *logger.Logger) (*scheduler.Client, func()) {
	taskClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client; scan analysis will not be queued", "error", err)
		return nil, nil
	}

	return taskClient, func() {
		_ = taskClient.Close()
	}
}

// redisHealth adapts a go-redis client to the health checker contract.
type redisHealth struct {
	client *redis.Client
}

func (r *redisHealth) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func newRedisHealth(cfg config.RedisConfig, log *logger.Logger) apphttp.HealthChecker {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Warn("invalid redis url; redis health check disabled", "error", err)
		return nil
	}
	return &redisHealth{client: redis.NewClient(opt)}
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

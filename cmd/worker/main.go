package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"quotescan_backend/internal/adapters/storage"
	"quotescan_backend/internal/crm"
	"quotescan_backend/internal/email"
	"quotescan_backend/internal/events"
	"quotescan_backend/internal/leads"
	"quotescan_backend/internal/notification"
	"quotescan_backend/internal/scans"
	"quotescan_backend/internal/scheduler"
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
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	storageSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}

	emailSender := email.NewSender(cfg, log)

	// Scan processing publishes completion events in-process, so the
	// worker carries the same event subscribers as the API.
	leadsModule := leads.NewModule(pool, eventBus, val, log)

	taskClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		panic("failed to initialize task client: " + err.Error())
	}
	defer func() { _ = taskClient.Close() }()

	scansModule := scans.NewModule(pool, leadsModule.Service(), storageSvc, taskClient, eventBus, val, log, cfg)

	notificationModule := notification.New(emailSender, leadsModule.Service(), cfg, log)
	notificationModule.RegisterHandlers(eventBus)

	crmForwarder := crm.New(cfg, leadsModule.Service(), log)
	crmForwarder.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, scansModule.Service(), leadsModule.Service(), log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

package main

import (
	"context"

	"quotescan_backend/internal/events"
	"quotescan_backend/internal/leads"
	"quotescan_backend/platform/config"
	"quotescan_backend/platform/db"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/validator"
)

// Re-runs the value classifier over every lead. Run after a tier
// threshold or scoring weight change so stored values match the
// current model.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead value backfill")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	leadsModule := leads.NewModule(pool, eventBus, validator.New(), log)

	updated, err := leadsModule.Service().RecomputeAllValues(ctx)
	if err != nil {
		log.Error("lead value backfill failed", "error", err, "updated", updated)
		panic("lead value backfill failed: " + err.Error())
	}

	log.Info("lead value backfill completed", "updated", updated)
}

package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"quotescan_backend/platform/config"
	"quotescan_backend/platform/logger"
)

// sweepInterval is how often the worker looks for stuck scans.
const sweepInterval = 5 * time.Minute

// ScanProcessor runs analysis tasks. Implemented by the scans service.
type ScanProcessor interface {
	ProcessScan(ctx context.Context, scanID uuid.UUID) error
	SweepStuck(ctx context.Context, stuckAfter time.Duration) (int, error)
}

// LeadRevaluer re-runs classification for one lead. Implemented by the
// leads service.
type LeadRevaluer interface {
	Reclassify(ctx context.Context, leadID uuid.UUID) error
}

// WorkerConfig is the slice of application config the worker needs.
type WorkerConfig interface {
	config.RedisConfig
	config.WorkerConfig
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	scans      ScanProcessor
	leads      LeadRevaluer
	stuckAfter time.Duration
	log        *logger.Logger
}

func NewWorker(cfg WorkerConfig, scans ScanProcessor, leads LeadRevaluer, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
			QueueLow:      1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:     server,
		mux:        mux,
		scans:      scans,
		leads:      leads,
		stuckAfter: cfg.GetScanStuckAfter(),
		log:        log,
	}

	mux.HandleFunc(TaskScanAnalyze, w.handleScanAnalyze)
	mux.HandleFunc(TaskScanSweepStuck, w.handleScanSweep)
	mux.HandleFunc(TaskLeadRevalue, w.handleLeadRevalue)

	return w, nil
}

func (w *Worker) handleScanAnalyze(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseScanAnalyzePayload(task)
	if err != nil {
		return err
	}

	scanID, err := uuid.Parse(payload.ScanID)
	if err != nil {
		return err
	}

	return w.scans.ProcessScan(ctx, scanID)
}

func (w *Worker) handleScanSweep(ctx context.Context, _ *asynq.Task) error {
	failed, err := w.scans.SweepStuck(ctx, w.stuckAfter)
	if err != nil {
		return err
	}
	if failed > 0 {
		w.log.Info("stuck scan sweep", slog.Int("failed", failed))
	}
	return nil
}

func (w *Worker) handleLeadRevalue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRevaluePayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	return w.leads.Reclassify(ctx, leadID)
}

// Run serves tasks until the context is cancelled. The periodic stuck-scan
// sweep runs in-process so no external cron is needed.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go w.runSweepLoop(ctx)

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("task worker stopped", "error", err)
	}
}

func (w *Worker) runSweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.scans.SweepStuck(ctx, w.stuckAfter); err != nil {
				w.log.Error("stuck scan sweep failed", "error", err)
			}
		}
	}
}

// Package service implements the quote scan lifecycle: presigned upload,
// extraction, grading, and report access.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"quotescan_backend/internal/adapters/storage"
	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/scans/agent"
	"quotescan_backend/internal/scans/repository"
	"quotescan_backend/internal/scans/scoring"
	"quotescan_backend/platform/apperr"
	"quotescan_backend/platform/logger"
)

// ScansRepository is the persistence surface the service consumes.
type ScansRepository interface {
	Create(ctx context.Context, params repository.CreateScanParams) (repository.Scan, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Scan, error)
	GetForLead(ctx context.Context, id, leadID uuid.UUID) (repository.Scan, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	SaveResult(ctx context.Context, id uuid.UUID, signals scoring.Signals, report scoring.ScoreReport, engineVersion string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	List(ctx context.Context, limit, offset int) ([]repository.Scan, error)
	ListStuck(ctx context.Context, before time.Time) ([]repository.Scan, error)
}

// LeadReader resolves public tokens to leads. Implemented by the leads service.
type LeadReader interface {
	GetByToken(ctx context.Context, publicToken string) (leadsrepo.Lead, error)
}

// SignalExtractor reads a quote document and returns grading signals.
// Implemented by the agent package; nil when no extraction provider is
// configured.
type SignalExtractor interface {
	ReadQuote(ctx context.Context, req agent.QuoteReadRequest) (*scoring.Signals, error)
}

// AnalysisEnqueuer queues a scan for background analysis.
// Implemented by the scheduler client.
type AnalysisEnqueuer interface {
	EnqueueScanAnalyze(ctx context.Context, scanID uuid.UUID) error
}

type Service struct {
	repo      ScansRepository
	leads     LeadReader
	storage   storage.StorageService
	bucket    string
	extractor SignalExtractor
	enqueuer  AnalysisEnqueuer
	bus       events.Bus
	log       *logger.Logger
}

func New(
	repo ScansRepository,
	leads LeadReader,
	storageSvc storage.StorageService,
	bucket string,
	extractor SignalExtractor,
	enqueuer AnalysisEnqueuer,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		leads:     leads,
		storage:   storageSvc,
		bucket:    bucket,
		extractor: extractor,
		enqueuer:  enqueuer,
		bus:       bus,
		log:       log,
	}
}

// CreateScanInput describes the upcoming upload.
type CreateScanInput struct {
	FileName         string
	ContentType      string
	SizeBytes        int64
	OpeningCountHint *int
}

// CreateScanResult carries the presigned PUT target back to the funnel.
type CreateScanResult struct {
	Scan      repository.Scan
	UploadURL string
	ExpiresAt time.Time
}

// CreateScan validates the upload and mints a presigned PUT URL. The scan
// row is created pending; nothing is analyzed until the upload is
// confirmed.
func (s *Service) CreateScan(ctx context.Context, leadToken string, input CreateScanInput) (CreateScanResult, error) {
	lead, err := s.leads.GetByToken(ctx, leadToken)
	if err != nil {
		return CreateScanResult{}, err
	}

	if err := s.storage.ValidateContentType(input.ContentType); err != nil {
		return CreateScanResult{}, apperr.Validation(err.Error()).WithOp("create scan")
	}
	if err := s.storage.ValidateFileSize(input.SizeBytes); err != nil {
		return CreateScanResult{}, apperr.Validation(err.Error()).WithOp("create scan")
	}

	folder := fmt.Sprintf("%s/scans", lead.ID)
	presigned, err := s.storage.GenerateUploadURL(ctx, s.bucket, folder, input.FileName, input.ContentType, input.SizeBytes)
	if err != nil {
		return CreateScanResult{}, fmt.Errorf("create scan: presign upload: %w", err)
	}

	scan, err := s.repo.Create(ctx, repository.CreateScanParams{
		LeadID:           lead.ID,
		FileKey:          presigned.FileKey,
		ContentType:      input.ContentType,
		OpeningCountHint: input.OpeningCountHint,
	})
	if err != nil {
		return CreateScanResult{}, fmt.Errorf("create scan: %w", err)
	}

	return CreateScanResult{
		Scan:      scan,
		UploadURL: presigned.URL,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

// ConfirmUpload verifies the object landed in the bucket, claims the scan
// for analysis, and queues it. Confirming a scan already past pending is
// a no-op so funnel retries are safe.
func (s *Service) ConfirmUpload(ctx context.Context, leadToken string, scanID uuid.UUID) (repository.Scan, error) {
	lead, err := s.leads.GetByToken(ctx, leadToken)
	if err != nil {
		return repository.Scan{}, err
	}

	scan, err := s.getForLead(ctx, scanID, lead.ID, "confirm upload")
	if err != nil {
		return repository.Scan{}, err
	}

	if scan.Status != repository.StatusPending {
		return scan, nil
	}

	if _, err := s.storage.StatObject(ctx, s.bucket, scan.FileKey); err != nil {
		return repository.Scan{}, apperr.Validation("Upload not found. Complete the upload before confirming.").WithOp("confirm upload")
	}

	claimed, err := s.repo.MarkProcessing(ctx, scan.ID)
	if err != nil {
		return repository.Scan{}, fmt.Errorf("confirm upload: %w", err)
	}
	if !claimed {
		// Lost the race against another confirm; treat as already done.
		return s.getForLead(ctx, scanID, lead.ID, "confirm upload")
	}
	scan.Status = repository.StatusProcessing

	if err := s.enqueuer.EnqueueScanAnalyze(ctx, scan.ID); err != nil {
		// The sweeper will fail the scan if analysis never runs.
		s.log.Error("failed to enqueue scan analysis", "error", err, "scanId", scan.ID)
	}

	s.bus.Publish(ctx, events.ScanUploaded{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    scan.ID,
		LeadID:    lead.ID,
		FileKey:   scan.FileKey,
	})

	return scan, nil
}

// ProcessScan runs extraction and grading for one claimed scan. Called
// from the worker. A scan in any state other than processing is skipped,
// which makes duplicate task deliveries harmless. Analysis failures mark
// the scan failed rather than bubbling up for a retry: the document won't
// read differently the second time.
func (s *Service) ProcessScan(ctx context.Context, scanID uuid.UUID) error {
	scan, err := s.repo.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, repository.ErrScanNotFound) {
			s.log.Warn("scan analysis skipped: scan missing", "scanId", scanID)
			return nil
		}
		return fmt.Errorf("process scan: %w", err)
	}

	if scan.Status != repository.StatusProcessing {
		s.log.ScanEvent("analysis_skipped", scan.ID.String(), slog.String("status", scan.Status))
		return nil
	}

	signals, err := s.extractSignals(ctx, scan)
	if err != nil {
		s.failScan(ctx, scan, err.Error())
		return nil
	}

	report := scoring.Score(*signals, scan.OpeningCountHint)

	if err := s.repo.SaveResult(ctx, scan.ID, *signals, report, scoring.EngineVersion); err != nil {
		s.failScan(ctx, scan, "failed to persist report")
		return fmt.Errorf("process scan: save result: %w", err)
	}

	s.log.ScanEvent("analysis_completed", scan.ID.String(), slog.Int("overallScore", report.OverallScore))

	s.bus.Publish(ctx, events.ScanCompleted{
		BaseEvent:    events.NewBaseEvent(),
		ScanID:       scan.ID,
		LeadID:       scan.LeadID,
		OverallScore: report.OverallScore,
		Summary:      report.Summary,
	})

	return nil
}

func (s *Service) extractSignals(ctx context.Context, scan repository.Scan) (*scoring.Signals, error) {
	if s.extractor == nil {
		return nil, errors.New("no extraction provider configured")
	}

	obj, err := s.storage.DownloadFile(ctx, s.bucket, scan.FileKey)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	signals, err := s.extractor.ReadQuote(ctx, agent.QuoteReadRequest{
		ScanID: scan.ID,
		Documents: []agent.DocumentData{
			{MIMEType: scan.ContentType, Data: data},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("extract signals: %w", err)
	}

	return signals, nil
}

func (s *Service) failScan(ctx context.Context, scan repository.Scan, reason string) {
	s.log.ScanEvent("analysis_failed", scan.ID.String(), slog.String("reason", reason))

	if err := s.repo.MarkFailed(ctx, scan.ID, reason); err != nil {
		s.log.Error("failed to mark scan failed", "error", err, "scanId", scan.ID)
		return
	}

	s.bus.Publish(ctx, events.ScanFailed{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    scan.ID,
		LeadID:    scan.LeadID,
		Reason:    reason,
	})
}

// GetReport returns a lead's own scan for the public report page.
func (s *Service) GetReport(ctx context.Context, leadToken string, scanID uuid.UUID) (repository.Scan, error) {
	lead, err := s.leads.GetByToken(ctx, leadToken)
	if err != nil {
		return repository.Scan{}, err
	}
	return s.getForLead(ctx, scanID, lead.ID, "get report")
}

// GetScan returns any scan for the ops surface.
func (s *Service) GetScan(ctx context.Context, scanID uuid.UUID) (repository.Scan, error) {
	scan, err := s.repo.GetByID(ctx, scanID)
	if err != nil {
		if errors.Is(err, repository.ErrScanNotFound) {
			return repository.Scan{}, apperr.NotFound("Scan not found").WithOp("get scan")
		}
		return repository.Scan{}, fmt.Errorf("get scan: %w", err)
	}
	return scan, nil
}

// ScanWithDownloadURL pairs a scan with a presigned GET for its document.
type ScanWithDownloadURL struct {
	Scan        repository.Scan
	DownloadURL string
}

// ListWithDownloadURLs returns recent scans with signed document links.
// URL generation fans out with a bounded group because each presign is a
// round trip to the storage backend.
func (s *Service) ListWithDownloadURLs(ctx context.Context, limit, offset int) ([]ScanWithDownloadURL, error) {
	scans, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}

	items := make([]ScanWithDownloadURL, len(scans))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)

	for i, scan := range scans {
		items[i].Scan = scan
		g.Go(func() error {
			presigned, err := s.storage.GenerateDownloadURL(gctx, s.bucket, scan.FileKey)
			if err != nil {
				// A missing object shouldn't hide the whole listing.
				s.log.Warn("failed to presign scan download", "error", err, "scanId", scan.ID)
				return nil
			}
			items[i].DownloadURL = presigned.URL
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}

	return items, nil
}

// Rescore regrades a completed scan from its stored signals. Used after
// engine tuning; no events fire, the report just gets the new numbers and
// engine version.
func (s *Service) Rescore(ctx context.Context, scanID uuid.UUID) (repository.Scan, error) {
	scan, err := s.GetScan(ctx, scanID)
	if err != nil {
		return repository.Scan{}, err
	}

	if scan.Signals == nil {
		return repository.Scan{}, apperr.Conflict("Scan has no stored signals to re-score").WithOp("rescore")
	}

	report := scoring.Score(*scan.Signals, scan.OpeningCountHint)
	if err := s.repo.SaveResult(ctx, scan.ID, *scan.Signals, report, scoring.EngineVersion); err != nil {
		return repository.Scan{}, fmt.Errorf("rescore: %w", err)
	}

	s.log.ScanEvent("rescored", scan.ID.String(), slog.Int("overallScore", report.OverallScore))

	return s.GetScan(ctx, scanID)
}

// SweepStuck fails scans that have sat in processing beyond the deadline.
// Returns how many were failed.
func (s *Service) SweepStuck(ctx context.Context, stuckAfter time.Duration) (int, error) {
	stuck, err := s.repo.ListStuck(ctx, time.Now().Add(-stuckAfter))
	if err != nil {
		return 0, fmt.Errorf("sweep stuck scans: %w", err)
	}

	for _, scan := range stuck {
		s.failScan(ctx, scan, "analysis timed out")
	}

	return len(stuck), nil
}

func (s *Service) getForLead(ctx context.Context, scanID, leadID uuid.UUID, op string) (repository.Scan, error) {
	scan, err := s.repo.GetForLead(ctx, scanID, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrScanNotFound) {
			return repository.Scan{}, apperr.NotFound("Scan not found").WithOp(op)
		}
		return repository.Scan{}, fmt.Errorf("%s: %w", op, err)
	}
	return scan, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"quotescan_backend/internal/adapters/storage"
	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/scans/agent"
	"quotescan_backend/internal/scans/repository"
	"quotescan_backend/internal/scans/scoring"
	"quotescan_backend/platform/logger"
)

type fakeScansRepo struct {
	scans map[uuid.UUID]repository.Scan
}

func newFakeScansRepo() *fakeScansRepo {
	return &fakeScansRepo{scans: make(map[uuid.UUID]repository.Scan)}
}

func (f *fakeScansRepo) Create(_ context.Context, params repository.CreateScanParams) (repository.Scan, error) {
	scan := repository.Scan{
		ID:               uuid.New(),
		LeadID:           params.LeadID,
		FileKey:          params.FileKey,
		ContentType:      params.ContentType,
		Status:           repository.StatusPending,
		OpeningCountHint: params.OpeningCountHint,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	f.scans[scan.ID] = scan
	return scan, nil
}

func (f *fakeScansRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Scan, error) {
	scan, ok := f.scans[id]
	if !ok {
		return repository.Scan{}, repository.ErrScanNotFound
	}
	return scan, nil
}

func (f *fakeScansRepo) GetForLead(_ context.Context, id, leadID uuid.UUID) (repository.Scan, error) {
	scan, ok := f.scans[id]
	if !ok || scan.LeadID != leadID {
		return repository.Scan{}, repository.ErrScanNotFound
	}
	return scan, nil
}

func (f *fakeScansRepo) MarkProcessing(_ context.Context, id uuid.UUID) (bool, error) {
	scan, ok := f.scans[id]
	if !ok || scan.Status != repository.StatusPending {
		return false, nil
	}
	scan.Status = repository.StatusProcessing
	f.scans[id] = scan
	return true, nil
}

func (f *fakeScansRepo) SaveResult(_ context.Context, id uuid.UUID, signals scoring.Signals, report scoring.ScoreReport, engineVersion string) error {
	scan, ok := f.scans[id]
	if !ok {
		return repository.ErrScanNotFound
	}
	now := time.Now()
	scan.Status = repository.StatusCompleted
	scan.Signals = &signals
	scan.Report = &report
	scan.OverallScore = &report.OverallScore
	scan.EngineVersion = &engineVersion
	scan.ScoredAt = &now
	scan.FailureReason = nil
	f.scans[id] = scan
	return nil
}

func (f *fakeScansRepo) MarkFailed(_ context.Context, id uuid.UUID, reason string) error {
	scan, ok := f.scans[id]
	if !ok {
		return repository.ErrScanNotFound
	}
	scan.Status = repository.StatusFailed
	scan.FailureReason = &reason
	f.scans[id] = scan
	return nil
}

func (f *fakeScansRepo) List(_ context.Context, _, _ int) ([]repository.Scan, error) {
	out := make([]repository.Scan, 0, len(f.scans))
	for _, scan := range f.scans {
		out = append(out, scan)
	}
	return out, nil
}

func (f *fakeScansRepo) ListStuck(_ context.Context, before time.Time) ([]repository.Scan, error) {
	var out []repository.Scan
	for _, scan := range f.scans {
		if scan.Status == repository.StatusProcessing && scan.UpdatedAt.Before(before) {
			out = append(out, scan)
		}
	}
	return out, nil
}

type fakeStorage struct {
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) GenerateUploadURL(_ context.Context, _, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	fileKey := folder + "/" + fileName
	return &storage.PresignedURL{
		URL:       "https://storage.test/upload/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://storage.test/download/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) DownloadFile(_ context.Context, _, fileKey string) (io.ReadCloser, error) {
	data, ok := f.objects[fileKey]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) StatObject(_ context.Context, _, fileKey string) (int64, error) {
	data, ok := f.objects[fileKey]
	if !ok {
		return 0, errors.New("object not found")
	}
	return int64(len(data)), nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _, fileKey string) error {
	delete(f.objects, fileKey)
	return nil
}

func (f *fakeStorage) EnsureBucketExists(context.Context, string) error { return nil }

func (f *fakeStorage) ValidateContentType(contentType string) error {
	if contentType != "application/pdf" && !strings.HasPrefix(contentType, "image/") {
		return errors.New("content type not allowed")
	}
	return nil
}

func (f *fakeStorage) ValidateFileSize(sizeBytes int64) error {
	if sizeBytes > f.GetMaxFileSize() {
		return errors.New("file too large")
	}
	return nil
}

func (f *fakeStorage) GetMaxFileSize() int64 { return 20 << 20 }

type fakeLeads struct {
	lead leadsrepo.Lead
}

func (f *fakeLeads) GetByToken(_ context.Context, token string) (leadsrepo.Lead, error) {
	if token != f.lead.PublicToken {
		return leadsrepo.Lead{}, leadsrepo.ErrLeadNotFound
	}
	return f.lead, nil
}

type fakeExtractor struct {
	signals *scoring.Signals
	err     error
	calls   int
}

func (f *fakeExtractor) ReadQuote(_ context.Context, _ agent.QuoteReadRequest) (*scoring.Signals, error) {
	f.calls++
	return f.signals, f.err
}

type fakeEnqueuer struct {
	enqueued []uuid.UUID
	err      error
}

func (f *fakeEnqueuer) EnqueueScanAnalyze(_ context.Context, scanID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, scanID)
	return nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Publish(_ context.Context, event events.Event) {
	f.published = append(f.published, event)
}

func (f *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	f.Publish(ctx, event)
	return nil
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func (f *fakeBus) eventsNamed(name string) []events.Event {
	var out []events.Event
	for _, e := range f.published {
		if e.EventName() == name {
			out = append(out, e)
		}
	}
	return out
}

type testHarness struct {
	svc       *Service
	repo      *fakeScansRepo
	store     *fakeStorage
	extractor *fakeExtractor
	enqueuer  *fakeEnqueuer
	bus       *fakeBus
	leadToken string
	leadID    uuid.UUID
}

func newHarness() *testHarness {
	repo := newFakeScansRepo()
	store := newFakeStorage()
	extractor := &fakeExtractor{}
	enqueuer := &fakeEnqueuer{}
	bus := &fakeBus{}

	lead := leadsrepo.Lead{ID: uuid.New(), PublicToken: "tok_abc"}
	svc := New(repo, &fakeLeads{lead: lead}, store, "quote-documents", extractor, enqueuer, bus, logger.New("development"))

	return &testHarness{
		svc:       svc,
		repo:      repo,
		store:     store,
		extractor: extractor,
		enqueuer:  enqueuer,
		bus:       bus,
		leadToken: lead.PublicToken,
		leadID:    lead.ID,
	}
}

func validSignals() *scoring.Signals {
	price := 18000.0
	openings := 8
	return &scoring.Signals{
		IsValidQuote:         true,
		TotalPrice:           &price,
		OpeningCountEstimate: &openings,
		MentionsImpactRating: true,
		MentionsPermit:       true,
		MentionsWarranty:     true,
	}
}

// createAndConfirm walks a scan through the funnel's happy path up to
// processing.
func (h *testHarness) createAndConfirm(t *testing.T) repository.Scan {
	t.Helper()

	result, err := h.svc.CreateScan(context.Background(), h.leadToken, CreateScanInput{
		FileName:    "quote.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("create scan failed: %v", err)
	}

	h.store.objects[result.Scan.FileKey] = []byte("%PDF-1.4 fake quote")

	scan, err := h.svc.ConfirmUpload(context.Background(), h.leadToken, result.Scan.ID)
	if err != nil {
		t.Fatalf("confirm upload failed: %v", err)
	}
	return scan
}

func TestCreateScanMintsUploadURL(t *testing.T) {
	h := newHarness()

	result, err := h.svc.CreateScan(context.Background(), h.leadToken, CreateScanInput{
		FileName:    "quote.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("expected create to succeed, got %v", err)
	}

	if result.Scan.Status != repository.StatusPending {
		t.Errorf("expected new scan pending, got %s", result.Scan.Status)
	}
	if result.UploadURL == "" {
		t.Error("expected a presigned upload URL")
	}
	if !strings.HasPrefix(result.Scan.FileKey, h.leadID.String()+"/scans/") {
		t.Errorf("expected file key scoped to the lead, got %q", result.Scan.FileKey)
	}
}

func TestCreateScanRejectsContentType(t *testing.T) {
	h := newHarness()

	_, err := h.svc.CreateScan(context.Background(), h.leadToken, CreateScanInput{
		FileName:    "quote.exe",
		ContentType: "application/octet-stream",
		SizeBytes:   1024,
	})
	if err == nil {
		t.Fatal("expected content type rejection")
	}
}

func TestCreateScanUnknownToken(t *testing.T) {
	h := newHarness()

	_, err := h.svc.CreateScan(context.Background(), "tok_other", CreateScanInput{
		FileName:    "quote.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err == nil {
		t.Fatal("expected unknown token to fail")
	}
}

func TestConfirmUploadClaimsAndQueues(t *testing.T) {
	h := newHarness()

	scan := h.createAndConfirm(t)

	if scan.Status != repository.StatusProcessing {
		t.Errorf("expected processing after confirm, got %s", scan.Status)
	}
	if len(h.enqueuer.enqueued) != 1 || h.enqueuer.enqueued[0] != scan.ID {
		t.Errorf("expected one analysis task for %s, got %v", scan.ID, h.enqueuer.enqueued)
	}
	if got := len(h.bus.eventsNamed(events.ScanUploaded{}.EventName())); got != 1 {
		t.Errorf("expected one scan.uploaded event, got %d", got)
	}
}

func TestConfirmUploadIsIdempotent(t *testing.T) {
	h := newHarness()

	scan := h.createAndConfirm(t)

	again, err := h.svc.ConfirmUpload(context.Background(), h.leadToken, scan.ID)
	if err != nil {
		t.Fatalf("second confirm failed: %v", err)
	}
	if again.Status != repository.StatusProcessing {
		t.Errorf("expected processing on repeat confirm, got %s", again.Status)
	}
	if len(h.enqueuer.enqueued) != 1 {
		t.Errorf("expected no second analysis task, got %d", len(h.enqueuer.enqueued))
	}
}

func TestConfirmUploadRequiresObject(t *testing.T) {
	h := newHarness()

	result, err := h.svc.CreateScan(context.Background(), h.leadToken, CreateScanInput{
		FileName:    "quote.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("create scan failed: %v", err)
	}

	if _, err := h.svc.ConfirmUpload(context.Background(), h.leadToken, result.Scan.ID); err == nil {
		t.Fatal("expected confirm to fail when the object never landed")
	}
}

func TestProcessScanCompletesAndPublishes(t *testing.T) {
	h := newHarness()
	h.extractor.signals = validSignals()

	scan := h.createAndConfirm(t)

	if err := h.svc.ProcessScan(context.Background(), scan.ID); err != nil {
		t.Fatalf("process scan failed: %v", err)
	}

	stored := h.repo.scans[scan.ID]
	if stored.Status != repository.StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.Report == nil || stored.Signals == nil {
		t.Fatal("expected signals and report persisted")
	}
	if stored.EngineVersion == nil || *stored.EngineVersion != scoring.EngineVersion {
		t.Errorf("expected engine version %s, got %v", scoring.EngineVersion, stored.EngineVersion)
	}

	completed := h.bus.eventsNamed(events.ScanCompleted{}.EventName())
	if len(completed) != 1 {
		t.Fatalf("expected one scan.completed event, got %d", len(completed))
	}
	evt := completed[0].(events.ScanCompleted)
	if evt.OverallScore != stored.Report.OverallScore {
		t.Errorf("expected event score %d, got %d", stored.Report.OverallScore, evt.OverallScore)
	}
}

func TestProcessScanSkipsNonProcessing(t *testing.T) {
	h := newHarness()
	h.extractor.signals = validSignals()

	result, err := h.svc.CreateScan(context.Background(), h.leadToken, CreateScanInput{
		FileName:    "quote.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
	})
	if err != nil {
		t.Fatalf("create scan failed: %v", err)
	}

	// Still pending: the task must not touch it.
	if err := h.svc.ProcessScan(context.Background(), result.Scan.ID); err != nil {
		t.Fatalf("process scan returned error: %v", err)
	}
	if h.extractor.calls != 0 {
		t.Errorf("expected extractor untouched for a pending scan, got %d calls", h.extractor.calls)
	}
	if got := h.repo.scans[result.Scan.ID].Status; got != repository.StatusPending {
		t.Errorf("expected scan left pending, got %s", got)
	}
}

func TestProcessScanMissingScanIsNoop(t *testing.T) {
	h := newHarness()

	if err := h.svc.ProcessScan(context.Background(), uuid.New()); err != nil {
		t.Fatalf("expected missing scan to be a no-op, got %v", err)
	}
}

func TestProcessScanExtractionFailureMarksFailed(t *testing.T) {
	h := newHarness()
	h.extractor.err = errors.New("model refused")

	scan := h.createAndConfirm(t)

	// Extraction failures are terminal for the scan, not the task.
	if err := h.svc.ProcessScan(context.Background(), scan.ID); err != nil {
		t.Fatalf("expected no retryable error, got %v", err)
	}

	stored := h.repo.scans[scan.ID]
	if stored.Status != repository.StatusFailed {
		t.Fatalf("expected failed, got %s", stored.Status)
	}
	if stored.FailureReason == nil || !strings.Contains(*stored.FailureReason, "model refused") {
		t.Errorf("expected failure reason recorded, got %v", stored.FailureReason)
	}
	if got := len(h.bus.eventsNamed(events.ScanFailed{}.EventName())); got != 1 {
		t.Errorf("expected one scan.failed event, got %d", got)
	}
}

func TestRescoreRequiresStoredSignals(t *testing.T) {
	h := newHarness()

	scan := h.createAndConfirm(t)

	if _, err := h.svc.Rescore(context.Background(), scan.ID); err == nil {
		t.Fatal("expected rescore to refuse a scan without signals")
	}
}

func TestRescoreRegradesWithoutEvents(t *testing.T) {
	h := newHarness()
	h.extractor.signals = validSignals()

	scan := h.createAndConfirm(t)
	if err := h.svc.ProcessScan(context.Background(), scan.ID); err != nil {
		t.Fatalf("process scan failed: %v", err)
	}
	eventsBefore := len(h.bus.published)

	rescored, err := h.svc.Rescore(context.Background(), scan.ID)
	if err != nil {
		t.Fatalf("rescore failed: %v", err)
	}

	if rescored.Report == nil {
		t.Fatal("expected a report after rescore")
	}
	if len(h.bus.published) != eventsBefore {
		t.Errorf("expected no events from rescore, got %d new", len(h.bus.published)-eventsBefore)
	}
}

func TestSweepStuckFailsOldProcessingScans(t *testing.T) {
	h := newHarness()

	scan := h.createAndConfirm(t)

	stale := h.repo.scans[scan.ID]
	stale.UpdatedAt = time.Now().Add(-time.Hour)
	h.repo.scans[scan.ID] = stale

	failed, err := h.svc.SweepStuck(context.Background(), 15*time.Minute)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("expected 1 stuck scan failed, got %d", failed)
	}
	if got := h.repo.scans[scan.ID].Status; got != repository.StatusFailed {
		t.Errorf("expected failed after sweep, got %s", got)
	}
}

func TestGetReportScopedToLead(t *testing.T) {
	h := newHarness()

	scan := h.createAndConfirm(t)

	if _, err := h.svc.GetReport(context.Background(), h.leadToken, scan.ID); err != nil {
		t.Fatalf("expected owner to read their scan, got %v", err)
	}
	if _, err := h.svc.GetReport(context.Background(), "tok_other", scan.ID); err == nil {
		t.Fatal("expected foreign token to be rejected")
	}
}

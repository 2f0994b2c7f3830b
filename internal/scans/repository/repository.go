// Package repository provides PostgreSQL persistence for quote scans.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quotescan_backend/internal/scans/scoring"
)

var ErrScanNotFound = errors.New("scan not found")

// Scan statuses. A scan moves pending -> processing -> completed|failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Scan struct {
	ID               uuid.UUID
	LeadID           uuid.UUID
	FileKey          string
	ContentType      string
	Status           string
	FailureReason    *string
	OpeningCountHint *int
	Signals          *scoring.Signals
	Report           *scoring.ScoreReport
	OverallScore     *int
	EngineVersion    *string
	ScoredAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

const scanColumns = `id, lead_id, file_key, content_type, status, failure_reason,
		opening_count_hint, signals, report, overall_score, engine_version, scored_at,
		created_at, updated_at`

func scanRow(row pgx.Row) (Scan, error) {
	var (
		s          Scan
		signalsRaw []byte
		reportRaw  []byte
	)
	err := row.Scan(
		&s.ID, &s.LeadID, &s.FileKey, &s.ContentType, &s.Status, &s.FailureReason,
		&s.OpeningCountHint, &signalsRaw, &reportRaw, &s.OverallScore, &s.EngineVersion, &s.ScoredAt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Scan{}, ErrScanNotFound
	}
	if err != nil {
		return Scan{}, err
	}

	if len(signalsRaw) > 0 {
		var sig scoring.Signals
		if err := json.Unmarshal(signalsRaw, &sig); err != nil {
			return Scan{}, fmt.Errorf("unmarshal scan signals: %w", err)
		}
		s.Signals = &sig
	}
	if len(reportRaw) > 0 {
		var report scoring.ScoreReport
		if err := json.Unmarshal(reportRaw, &report); err != nil {
			return Scan{}, fmt.Errorf("unmarshal scan report: %w", err)
		}
		s.Report = &report
	}

	return s, nil
}

type CreateScanParams struct {
	LeadID           uuid.UUID
	FileKey          string
	ContentType      string
	OpeningCountHint *int
}

func (r *Repository) Create(ctx context.Context, params CreateScanParams) (Scan, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO scans (lead_id, file_key, content_type, status, opening_count_hint)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+scanColumns,
		params.LeadID, params.FileKey, params.ContentType, StatusPending, params.OpeningCountHint,
	)
	return scanRow(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Scan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1`, id)
	return scanRow(row)
}

// GetForLead scopes the lookup to one lead so public-token access can
// never read another lead's scan.
func (r *Repository) GetForLead(ctx context.Context, id, leadID uuid.UUID) (Scan, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+scanColumns+` FROM scans WHERE id = $1 AND lead_id = $2`, id, leadID)
	return scanRow(row)
}

// MarkProcessing claims a pending scan for analysis. Returns false when
// the scan was already past pending, which makes upload confirmation
// idempotent.
func (r *Repository) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scans
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, StatusProcessing, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// SaveResult persists extraction signals plus the graded report and
// completes the scan. Also used by re-scoring, where only the report
// changes.
func (r *Repository) SaveResult(ctx context.Context, id uuid.UUID, signals scoring.Signals, report scoring.ScoreReport, engineVersion string) error {
	signalsRaw, err := json.Marshal(signals)
	if err != nil {
		return fmt.Errorf("marshal scan signals: %w", err)
	}
	reportRaw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal scan report: %w", err)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE scans
		SET status = $2, signals = $3, report = $4, overall_score = $5,
			engine_version = $6, scored_at = NOW(), failure_reason = NULL, updated_at = NOW()
		WHERE id = $1
	`, id, StatusCompleted, signalsRaw, reportRaw, report.OverallScore, engineVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}
	return nil
}

// MarkFailed records why analysis could not finish.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scans
		SET status = $2, failure_reason = $3, updated_at = NOW()
		WHERE id = $1
	`, id, StatusFailed, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScanNotFound
	}
	return nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Scan, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]Scan, 0, limit)
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}

	return scans, rows.Err()
}

// ListStuck returns scans that have been processing since before the
// deadline. The sweeper fails them so the funnel stops showing a spinner.
func (r *Repository) ListStuck(ctx context.Context, before time.Time) ([]Scan, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+scanColumns+`
		FROM scans
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at ASC
	`, StatusProcessing, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scans := make([]Scan, 0)
	for rows.Next() {
		s, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, s)
	}

	return scans, rows.Err()
}

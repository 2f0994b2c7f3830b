// Package repository provides PostgreSQL persistence for leads.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLeadNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID             uuid.UUID
	PublicToken    string
	FirstName      string
	LastName       string
	Email          *string
	Phone          *string
	ZipCode        *string
	IsHomeowner    *bool
	ProjectSize    *string
	Urgency        *string
	Verified       bool
	Value          int
	Tier           string
	ValueReasoning string
	UTMSource      *string
	UTMMedium      *string
	UTMCampaign    *string
	GCLID          *string
	FBCLID         *string
	LandingPage    *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const leadColumns = `id, public_token, first_name, last_name, email, phone, zip_code,
		is_homeowner, project_size, urgency, verified, lead_value, lead_tier, value_reasoning,
		utm_source, utm_medium, utm_campaign, gclid, fbclid, landing_page, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.PublicToken, &lead.FirstName, &lead.LastName, &lead.Email, &lead.Phone, &lead.ZipCode,
		&lead.IsHomeowner, &lead.ProjectSize, &lead.Urgency, &lead.Verified, &lead.Value, &lead.Tier, &lead.ValueReasoning,
		&lead.UTMSource, &lead.UTMMedium, &lead.UTMCampaign, &lead.GCLID, &lead.FBCLID, &lead.LandingPage,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrLeadNotFound
	}
	return lead, err
}

type CreateLeadParams struct {
	PublicToken    string
	FirstName      string
	LastName       string
	Email          *string
	Phone          *string
	ZipCode        *string
	IsHomeowner    *bool
	ProjectSize    *string
	Urgency        *string
	Value          int
	Tier           string
	ValueReasoning string
	UTMSource      *string
	UTMMedium      *string
	UTMCampaign    *string
	GCLID          *string
	FBCLID         *string
	LandingPage    *string
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			public_token, first_name, last_name, email, phone, zip_code,
			is_homeowner, project_size, urgency, lead_value, lead_tier, value_reasoning,
			utm_source, utm_medium, utm_campaign, gclid, fbclid, landing_page
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+leadColumns,
		params.PublicToken, params.FirstName, params.LastName, params.Email, params.Phone, params.ZipCode,
		params.IsHomeowner, params.ProjectSize, params.Urgency, params.Value, params.Tier, params.ValueReasoning,
		params.UTMSource, params.UTMMedium, params.UTMCampaign, params.GCLID, params.FBCLID, params.LandingPage,
	)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

func (r *Repository) GetByPublicToken(ctx context.Context, token string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE public_token = $1`, token)
	return scanLead(row)
}

// UpdateQualificationParams carries partial funnel answers. Nil fields are
// left untouched.
type UpdateQualificationParams struct {
	IsHomeowner *bool
	ProjectSize *string
	Urgency     *string
}

func (r *Repository) UpdateQualification(ctx context.Context, id uuid.UUID, params UpdateQualificationParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET is_homeowner = COALESCE($2, is_homeowner),
			project_size = COALESCE($3, project_size),
			urgency = COALESCE($4, urgency),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns,
		id, params.IsHomeowner, params.ProjectSize, params.Urgency,
	)
	return scanLead(row)
}

// UpdateValue persists the classifier outcome.
func (r *Repository) UpdateValue(ctx context.Context, id uuid.UUID, value int, tier string, reasoning string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET lead_value = $2, lead_tier = $3, value_reasoning = $4, updated_at = NOW()
		WHERE id = $1
	`, id, value, tier, reasoning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// MarkVerified flips the verified flag. Returns the updated lead so the
// caller can reclassify with the bonus.
func (r *Repository) MarkVerified(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET verified = TRUE, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns,
		id,
	)
	return scanLead(row)
}

// ListLeadsParams filters the ops listing. Nil filters match everything.
type ListLeadsParams struct {
	Tier     *string
	Verified *bool
	Limit    int
	Offset   int
}

func (r *Repository) List(ctx context.Context, params ListLeadsParams) ([]Lead, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	where := []string{}
	args := []any{}
	if params.Tier != nil {
		args = append(args, *params.Tier)
		where = append(where, fmt.Sprintf("lead_tier = $%d", len(args)))
	}
	if params.Verified != nil {
		args = append(args, *params.Verified)
		where = append(where, fmt.Sprintf("verified = $%d", len(args)))
	}

	query := `SELECT ` + leadColumns + ` FROM leads`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, params.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// ListPage walks all leads in insertion order for batch reclassification.
func (r *Repository) ListPage(ctx context.Context, limit, offset int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0, limit)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// Package repository provides PostgreSQL persistence for one-time
// verification codes.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrVerificationNotFound = errors.New("verification not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Verification is one issued code. Only the bcrypt hash is stored; the
// plaintext code exists solely in the delivery message.
type Verification struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	Channel       string
	Destination   string
	CodeHash      string
	Attempts      int
	ExpiresAt     time.Time
	ConsumedAt    *time.Time
	InvalidatedAt *time.Time
	CreatedAt     time.Time
}

const verificationColumns = `id, lead_id, channel, destination, code_hash, attempts,
		expires_at, consumed_at, invalidated_at, created_at`

func scanVerification(row pgx.Row) (Verification, error) {
	var v Verification
	err := row.Scan(
		&v.ID, &v.LeadID, &v.Channel, &v.Destination, &v.CodeHash, &v.Attempts,
		&v.ExpiresAt, &v.ConsumedAt, &v.InvalidatedAt, &v.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Verification{}, ErrVerificationNotFound
	}
	if err != nil {
		return Verification{}, err
	}
	return v, nil
}

type CreateVerificationParams struct {
	LeadID      uuid.UUID
	Channel     string
	Destination string
	CodeHash    string
	ExpiresAt   time.Time
}

func (r *Repository) Create(ctx context.Context, params CreateVerificationParams) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO verifications (lead_id, channel, destination, code_hash, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+verificationColumns,
		params.LeadID, params.Channel, params.Destination, params.CodeHash, params.ExpiresAt,
	)
	return scanVerification(row)
}

// GetOpenByLead returns the lead's newest code that is neither consumed
// nor invalidated. Issuing a new code invalidates older ones, so at most
// one open code exists per lead.
func (r *Repository) GetOpenByLead(ctx context.Context, leadID uuid.UUID) (Verification, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+verificationColumns+`
		FROM verifications
		WHERE lead_id = $1 AND consumed_at IS NULL AND invalidated_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`, leadID)
	return scanVerification(row)
}

// InvalidateOpen retires every open code for the lead.
func (r *Repository) InvalidateOpen(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE verifications
		SET invalidated_at = NOW()
		WHERE lead_id = $1 AND consumed_at IS NULL AND invalidated_at IS NULL
	`, leadID)
	return err
}

// IncrementAttempts bumps the attempt counter and returns the new total.
func (r *Repository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx, `
		UPDATE verifications
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`, id).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrVerificationNotFound
	}
	return attempts, err
}

// Consume marks the code as used. Only succeeds while the code is open.
func (r *Repository) Consume(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE verifications
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL AND invalidated_at IS NULL
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVerificationNotFound
	}
	return nil
}

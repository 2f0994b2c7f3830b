// Package service implements one-time-code contact verification. A
// verified contact raises the lead's value, so codes are hashed, expire,
// and lock out after repeated wrong guesses.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/verification/repository"
	"quotescan_backend/platform/apperr"
	"quotescan_backend/platform/logger"
)

// Verification channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// VerificationRepository is the persistence surface the service consumes.
type VerificationRepository interface {
	Create(ctx context.Context, params repository.CreateVerificationParams) (repository.Verification, error)
	GetOpenByLead(ctx context.Context, leadID uuid.UUID) (repository.Verification, error)
	InvalidateOpen(ctx context.Context, leadID uuid.UUID) error
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	Consume(ctx context.Context, id uuid.UUID) error
}

// LeadReader resolves public tokens to leads. Implemented by the leads service.
type LeadReader interface {
	GetByToken(ctx context.Context, publicToken string) (leadsrepo.Lead, error)
}

// CodeSender delivers a verification code over one channel. Implemented
// by the email and sms packages.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, destination, code string) error
}

// Config is the slice of application config the service needs.
type Config interface {
	GetVerificationCodeTTL() time.Duration
	GetVerificationMaxAttempts() int
}

type Service struct {
	repo        VerificationRepository
	leads       LeadReader
	emailSender CodeSender
	smsSender   CodeSender
	codeTTL     time.Duration
	maxAttempts int
	bus         events.Bus
	log         *logger.Logger
}

func New(
	repo VerificationRepository,
	leads LeadReader,
	emailSender CodeSender,
	smsSender CodeSender,
	cfg Config,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:        repo,
		leads:       leads,
		emailSender: emailSender,
		smsSender:   smsSender,
		codeTTL:     cfg.GetVerificationCodeTTL(),
		maxAttempts: cfg.GetVerificationMaxAttempts(),
		bus:         bus,
		log:         log,
	}
}

// Start issues a fresh code for the lead and delivers it over the chosen
// channel. Any previously open code is invalidated first, so only the
// newest code can ever be confirmed.
func (s *Service) Start(ctx context.Context, leadToken, channel string) error {
	lead, err := s.leads.GetByToken(ctx, leadToken)
	if err != nil {
		return err
	}

	if lead.Verified {
		return apperr.Conflict("Lead is already verified").WithOp("start verification")
	}

	destination, sender, err := s.resolveChannel(lead, channel)
	if err != nil {
		return err
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("start verification: generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("start verification: hash code: %w", err)
	}

	if err := s.repo.InvalidateOpen(ctx, lead.ID); err != nil {
		return fmt.Errorf("start verification: %w", err)
	}

	if _, err := s.repo.Create(ctx, repository.CreateVerificationParams{
		LeadID:      lead.ID,
		Channel:     channel,
		Destination: destination,
		CodeHash:    string(hash),
		ExpiresAt:   time.Now().Add(s.codeTTL),
	}); err != nil {
		return fmt.Errorf("start verification: %w", err)
	}

	if err := sender.SendVerificationCode(ctx, destination, code); err != nil {
		s.log.VerificationEvent("code_delivery_failed", lead.ID.String(), false, err.Error())
		return apperr.Internal("Failed to deliver the verification code").WithOp("start verification")
	}

	s.log.VerificationEvent("code_sent", lead.ID.String(), true, "")
	return nil
}

// Confirm checks a submitted code against the lead's open verification.
// Expired codes are gone, exhausted codes lock out, and a correct code
// consumes the verification and marks the lead verified.
func (s *Service) Confirm(ctx context.Context, leadToken, code string) error {
	lead, err := s.leads.GetByToken(ctx, leadToken)
	if err != nil {
		return err
	}

	if lead.Verified {
		return apperr.Conflict("Lead is already verified").WithOp("confirm verification")
	}

	verification, err := s.repo.GetOpenByLead(ctx, lead.ID)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return apperr.NotFound("No verification code was requested").WithOp("confirm verification")
		}
		return fmt.Errorf("confirm verification: %w", err)
	}

	if time.Now().After(verification.ExpiresAt) {
		s.log.VerificationEvent("code_expired", lead.ID.String(), false, "expired")
		return apperr.Gone("Verification code expired. Request a new one.").WithOp("confirm verification")
	}

	attempts, err := s.repo.IncrementAttempts(ctx, verification.ID)
	if err != nil {
		return fmt.Errorf("confirm verification: %w", err)
	}
	if attempts > s.maxAttempts {
		// Lock the code so guessing can't continue after the limit.
		if err := s.repo.InvalidateOpen(ctx, lead.ID); err != nil {
			s.log.Error("failed to invalidate exhausted code", "error", err, "leadId", lead.ID)
		}
		s.log.VerificationEvent("attempts_exhausted", lead.ID.String(), false, "too many attempts")
		return apperr.TooManyRequests("Too many attempts. Request a new code.").WithOp("confirm verification")
	}

	if bcrypt.CompareHashAndPassword([]byte(verification.CodeHash), []byte(code)) != nil {
		s.log.VerificationEvent("code_mismatch", lead.ID.String(), false, "incorrect code")
		return apperr.Validation("Incorrect verification code").WithOp("confirm verification")
	}

	if err := s.repo.Consume(ctx, verification.ID); err != nil {
		return fmt.Errorf("confirm verification: %w", err)
	}

	s.log.VerificationEvent("verified", lead.ID.String(), true, "")

	// Synchronous so the lead's value bonus is applied before the funnel
	// refetches the lead.
	if err := s.bus.PublishSync(ctx, events.LeadVerified{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Channel:   verification.Channel,
	}); err != nil {
		s.log.Error("lead verified handler failed", "error", err, "leadId", lead.ID)
	}

	return nil
}

func (s *Service) resolveChannel(lead leadsrepo.Lead, channel string) (string, CodeSender, error) {
	switch channel {
	case ChannelEmail:
		if lead.Email == nil || *lead.Email == "" {
			return "", nil, apperr.Validation("Lead has no email address").WithOp("start verification")
		}
		if s.emailSender == nil {
			return "", nil, apperr.Conflict("Email verification is not available").WithOp("start verification")
		}
		return *lead.Email, s.emailSender, nil
	case ChannelSMS:
		if lead.Phone == nil || *lead.Phone == "" {
			return "", nil, apperr.Validation("Lead has no phone number").WithOp("start verification")
		}
		if s.smsSender == nil {
			return "", nil, apperr.Conflict("SMS verification is not available").WithOp("start verification")
		}
		return *lead.Phone, s.smsSender, nil
	default:
		return "", nil, apperr.Validation("Unknown verification channel").WithOp("start verification")
	}
}

// generateCode returns a 6-digit numeric code with leading zeros kept.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

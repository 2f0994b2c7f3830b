// Package service implements lead capture, qualification, and valuation.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"quotescan_backend/internal/events"
	"quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/leads/token"
	"quotescan_backend/internal/leads/valuation"
	"quotescan_backend/platform/apperr"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/phone"
	"quotescan_backend/platform/sanitize"
)

// LeadsRepository is the persistence surface the service consumes.
type LeadsRepository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetByPublicToken(ctx context.Context, token string) (repository.Lead, error)
	UpdateQualification(ctx context.Context, id uuid.UUID, params repository.UpdateQualificationParams) (repository.Lead, error)
	UpdateValue(ctx context.Context, id uuid.UUID, value int, tier string, reasoning string) error
	MarkVerified(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	List(ctx context.Context, params repository.ListLeadsParams) ([]repository.Lead, error)
	ListPage(ctx context.Context, limit, offset int) ([]repository.Lead, error)
}

type Service struct {
	repo LeadsRepository
	bus  events.Bus
	log  *logger.Logger
}

func New(repo LeadsRepository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// CaptureInput is the sanitized-at-the-edge intake payload.
type CaptureInput struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	ZipCode     string
	IsHomeowner *bool
	ProjectSize string
	Urgency     string
	UTMSource   string
	UTMMedium   string
	UTMCampaign string
	GCLID       string
	FBCLID      string
	LandingPage string
}

// CaptureLead persists a new lead and classifies it with whatever factors
// the funnel already knows. Free-text fields are stripped of HTML and the
// phone number is normalized to E.164 before storage.
func (s *Service) CaptureLead(ctx context.Context, input CaptureInput) (repository.Lead, error) {
	publicToken, err := token.GeneratePublicToken()
	if err != nil {
		return repository.Lead{}, fmt.Errorf("capture lead: %w", err)
	}

	result := valuation.Classify(valuation.QualificationFactors{
		IsHomeowner: input.IsHomeowner,
		ProjectSize: input.ProjectSize,
		Urgency:     input.Urgency,
	})

	normalizedPhone := phone.NormalizeE164(input.Phone)

	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		PublicToken:    publicToken,
		FirstName:      sanitize.Text(input.FirstName),
		LastName:       sanitize.Text(input.LastName),
		Email:          optional(input.Email),
		Phone:          optional(normalizedPhone),
		ZipCode:        optional(input.ZipCode),
		IsHomeowner:    input.IsHomeowner,
		ProjectSize:    optional(input.ProjectSize),
		Urgency:        optional(input.Urgency),
		Value:          result.Value,
		Tier:           string(result.Tier),
		ValueReasoning: result.Reasoning,
		UTMSource:      optional(input.UTMSource),
		UTMMedium:      optional(input.UTMMedium),
		UTMCampaign:    optional(input.UTMCampaign),
		GCLID:          optional(input.GCLID),
		FBCLID:         optional(input.FBCLID),
		LandingPage:    optional(sanitize.Text(input.LandingPage)),
	})
	if err != nil {
		return repository.Lead{}, fmt.Errorf("capture lead: %w", err)
	}

	s.bus.Publish(ctx, events.LeadCaptured{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		PublicToken: lead.PublicToken,
		Email:       input.Email,
		Phone:       normalizedPhone,
		ZipCode:     input.ZipCode,
		UTMSource:   input.UTMSource,
	})

	return lead, nil
}

// UpdateQualification applies partial funnel answers and reclassifies.
func (s *Service) UpdateQualification(ctx context.Context, publicToken string, params repository.UpdateQualificationParams) (repository.Lead, error) {
	lead, err := s.repo.GetByPublicToken(ctx, publicToken)
	if err != nil {
		return repository.Lead{}, translateNotFound(err, "update qualification")
	}

	lead, err = s.repo.UpdateQualification(ctx, lead.ID, params)
	if err != nil {
		return repository.Lead{}, fmt.Errorf("update qualification: %w", err)
	}

	return s.reclassify(ctx, lead)
}

// MarkVerified flips the verified flag and reclassifies with the bonus.
// Invoked from the verification module's success path via the event bus.
func (s *Service) MarkVerified(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.repo.MarkVerified(ctx, leadID)
	if err != nil {
		return translateNotFound(err, "mark verified")
	}

	if _, err := s.reclassify(ctx, lead); err != nil {
		return err
	}
	return nil
}

// Reclassify re-runs the classifier for one lead, persisting and
// publishing only when the value actually changed.
func (s *Service) Reclassify(ctx context.Context, leadID uuid.UUID) error {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		return translateNotFound(err, "reclassify")
	}
	_, err = s.reclassify(ctx, lead)
	return err
}

func (s *Service) GetByToken(ctx context.Context, publicToken string) (repository.Lead, error) {
	lead, err := s.repo.GetByPublicToken(ctx, publicToken)
	if err != nil {
		return repository.Lead{}, translateNotFound(err, "get lead")
	}
	return lead, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, translateNotFound(err, "get lead")
	}
	return lead, nil
}

func (s *Service) List(ctx context.Context, params repository.ListLeadsParams) ([]repository.Lead, error) {
	leads, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	return leads, nil
}

// RecomputeAllValues walks every lead and reclassifies it. Used by the
// backfill command after classifier rule changes. Returns how many leads
// changed value.
func (s *Service) RecomputeAllValues(ctx context.Context) (int, error) {
	const pageSize = 500

	changed := 0
	for offset := 0; ; offset += pageSize {
		page, err := s.repo.ListPage(ctx, pageSize, offset)
		if err != nil {
			return changed, fmt.Errorf("recompute values: %w", err)
		}
		if len(page) == 0 {
			return changed, nil
		}

		for _, lead := range page {
			before := lead.Value
			updated, err := s.reclassify(ctx, lead)
			if err != nil {
				return changed, err
			}
			if updated.Value != before {
				changed++
			}
		}
	}
}

func (s *Service) reclassify(ctx context.Context, lead repository.Lead) (repository.Lead, error) {
	result := valuation.Classify(factorsFromLead(lead))

	if result.Value == lead.Value && string(result.Tier) == lead.Tier && result.Reasoning == lead.ValueReasoning {
		return lead, nil
	}

	if err := s.repo.UpdateValue(ctx, lead.ID, result.Value, string(result.Tier), result.Reasoning); err != nil {
		return repository.Lead{}, fmt.Errorf("persist lead value: %w", err)
	}

	previous := lead.Value
	lead.Value = result.Value
	lead.Tier = string(result.Tier)
	lead.ValueReasoning = result.Reasoning

	if result.Value != previous {
		s.bus.Publish(ctx, events.LeadValueUpdated{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        lead.ID,
			Value:         lead.Value,
			PreviousValue: previous,
			Tier:          lead.Tier,
			Reasoning:     lead.ValueReasoning,
			Verified:      lead.Verified,
		})
	}

	return lead, nil
}

func factorsFromLead(lead repository.Lead) valuation.QualificationFactors {
	factors := valuation.QualificationFactors{
		IsHomeowner: lead.IsHomeowner,
		Verified:    lead.Verified,
	}
	if lead.ProjectSize != nil {
		factors.ProjectSize = *lead.ProjectSize
	}
	if lead.Urgency != nil {
		factors.Urgency = *lead.Urgency
	}
	return factors
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func translateNotFound(err error, op string) error {
	if errors.Is(err, repository.ErrLeadNotFound) {
		return apperr.NotFound("Lead not found").WithOp(op)
	}
	return fmt.Errorf("%s: %w", op, err)
}

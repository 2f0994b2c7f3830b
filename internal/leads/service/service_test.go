package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"quotescan_backend/internal/events"
	"quotescan_backend/internal/leads/repository"
	"quotescan_backend/platform/logger"
)

type fakeRepo struct {
	leads map[uuid.UUID]repository.Lead
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:             uuid.New(),
		PublicToken:    params.PublicToken,
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          params.Email,
		Phone:          params.Phone,
		ZipCode:        params.ZipCode,
		IsHomeowner:    params.IsHomeowner,
		ProjectSize:    params.ProjectSize,
		Urgency:        params.Urgency,
		Value:          params.Value,
		Tier:           params.Tier,
		ValueReasoning: params.ValueReasoning,
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrLeadNotFound
	}
	return lead, nil
}

func (f *fakeRepo) GetByPublicToken(_ context.Context, token string) (repository.Lead, error) {
	for _, lead := range f.leads {
		if lead.PublicToken == token {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrLeadNotFound
}

func (f *fakeRepo) UpdateQualification(_ context.Context, id uuid.UUID, params repository.UpdateQualificationParams) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrLeadNotFound
	}
	if params.IsHomeowner != nil {
		lead.IsHomeowner = params.IsHomeowner
	}
	if params.ProjectSize != nil {
		lead.ProjectSize = params.ProjectSize
	}
	if params.Urgency != nil {
		lead.Urgency = params.Urgency
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateValue(_ context.Context, id uuid.UUID, value int, tier string, reasoning string) error {
	lead, ok := f.leads[id]
	if !ok {
		return repository.ErrLeadNotFound
	}
	lead.Value = value
	lead.Tier = tier
	lead.ValueReasoning = reasoning
	f.leads[id] = lead
	return nil
}

func (f *fakeRepo) MarkVerified(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrLeadNotFound
	}
	lead.Verified = true
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.ListLeadsParams) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeRepo) ListPage(_ context.Context, limit, offset int) ([]repository.Lead, error) {
	all, _ := f.List(context.Background(), repository.ListLeadsParams{})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
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

func newTestService() (*Service, *fakeRepo, *fakeBus) {
	repo := newFakeRepo()
	bus := &fakeBus{}
	return New(repo, bus, logger.New("development")), repo, bus
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(s string) *string { return &s }

func TestCaptureLeadClassifiesAndPublishes(t *testing.T) {
	svc, _, bus := newTestService()

	lead, err := svc.CaptureLead(context.Background(), CaptureInput{
		FirstName:   "<b>Maria</b>",
		Email:       "maria@example.com",
		Phone:       "(305) 555-0142",
		IsHomeowner: boolPtr(true),
		ProjectSize: "entire_home",
		Urgency:     "asap",
	})
	if err != nil {
		t.Fatalf("expected capture to succeed, got %v", err)
	}

	if lead.PublicToken == "" {
		t.Error("expected a public token to be minted")
	}
	if lead.FirstName != "Maria" {
		t.Errorf("expected HTML stripped from name, got %q", lead.FirstName)
	}
	if lead.Phone == nil || *lead.Phone != "+13055550142" {
		t.Errorf("expected phone normalized to E.164, got %v", lead.Phone)
	}
	if lead.Value != 500 || lead.Tier != "whale" {
		t.Errorf("expected immediate classification 500/whale, got %d/%s", lead.Value, lead.Tier)
	}

	captured := bus.eventsNamed(events.LeadCaptured{}.EventName())
	if len(captured) != 1 {
		t.Fatalf("expected one lead.captured event, got %d", len(captured))
	}
}

func TestUpdateQualificationReclassifies(t *testing.T) {
	svc, _, bus := newTestService()

	lead, err := svc.CaptureLead(context.Background(), CaptureInput{FirstName: "Sam"})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if lead.Value != 10 {
		t.Fatalf("expected unknown homeowner to start at 10, got %d", lead.Value)
	}

	updated, err := svc.UpdateQualification(context.Background(), lead.PublicToken, repository.UpdateQualificationParams{
		IsHomeowner: boolPtr(true),
		ProjectSize: strPtr("medium"),
		Urgency:     strPtr("soon"),
	})
	if err != nil {
		t.Fatalf("expected qualification update to succeed, got %v", err)
	}
	if updated.Value != 100 || updated.Tier != "warm" {
		t.Errorf("expected 100/warm after qualification, got %d/%s", updated.Value, updated.Tier)
	}

	valueEvents := bus.eventsNamed(events.LeadValueUpdated{}.EventName())
	if len(valueEvents) != 1 {
		t.Fatalf("expected one value_updated event, got %d", len(valueEvents))
	}
	evt := valueEvents[0].(events.LeadValueUpdated)
	if evt.PreviousValue != 10 || evt.Value != 100 {
		t.Errorf("expected event 10 -> 100, got %d -> %d", evt.PreviousValue, evt.Value)
	}
}

func TestUpdateQualificationNoChangeNoEvent(t *testing.T) {
	svc, _, bus := newTestService()

	lead, err := svc.CaptureLead(context.Background(), CaptureInput{
		FirstName:   "Sam",
		IsHomeowner: boolPtr(true),
		ProjectSize: "medium",
		Urgency:     "soon",
	})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	if _, err := svc.UpdateQualification(context.Background(), lead.PublicToken, repository.UpdateQualificationParams{
		ProjectSize: strPtr("medium"),
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	if got := len(bus.eventsNamed(events.LeadValueUpdated{}.EventName())); got != 0 {
		t.Errorf("expected no value_updated event when the value is unchanged, got %d", got)
	}
}

func TestMarkVerifiedAppliesBonus(t *testing.T) {
	svc, repo, bus := newTestService()

	lead, err := svc.CaptureLead(context.Background(), CaptureInput{
		FirstName:   "Ana",
		IsHomeowner: boolPtr(true),
		ProjectSize: "entire_home",
		Urgency:     "asap",
	})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	if err := svc.MarkVerified(context.Background(), lead.ID); err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}

	stored := repo.leads[lead.ID]
	if !stored.Verified {
		t.Error("expected lead marked verified")
	}
	if stored.Value != 600 || stored.Tier != "whale" {
		t.Errorf("expected verified whale at 600/whale, got %d/%s", stored.Value, stored.Tier)
	}

	valueEvents := bus.eventsNamed(events.LeadValueUpdated{}.EventName())
	if len(valueEvents) != 1 {
		t.Fatalf("expected one value_updated event, got %d", len(valueEvents))
	}
}

func TestMarkVerifiedDisqualifiedStaysZero(t *testing.T) {
	svc, repo, _ := newTestService()

	lead, err := svc.CaptureLead(context.Background(), CaptureInput{
		FirstName:   "Renter",
		IsHomeowner: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	if err := svc.MarkVerified(context.Background(), lead.ID); err != nil {
		t.Fatalf("mark verified failed: %v", err)
	}

	if stored := repo.leads[lead.ID]; stored.Value != 0 || stored.Tier != "disqualified" {
		t.Errorf("expected disqualified lead to stay 0/disqualified, got %d/%s", stored.Value, stored.Tier)
	}
}

func TestRecomputeAllValuesCountsChanges(t *testing.T) {
	svc, repo, _ := newTestService()

	lead, err := svc.CaptureLead(context.Background(), CaptureInput{
		FirstName:   "Ana",
		IsHomeowner: boolPtr(true),
		ProjectSize: "large",
		Urgency:     "asap",
	})
	if err != nil {
		t.Fatalf("capture failed: %v", err)
	}

	// Simulate a stale value from an older rule set.
	stale := repo.leads[lead.ID]
	stale.Value = 75
	repo.leads[lead.ID] = stale

	changed, err := svc.RecomputeAllValues(context.Background())
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if changed != 1 {
		t.Errorf("expected 1 changed lead, got %d", changed)
	}
	if got := repo.leads[lead.ID].Value; got != 200 {
		t.Errorf("expected value restored to 200, got %d", got)
	}
}

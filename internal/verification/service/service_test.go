package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/verification/repository"
	"quotescan_backend/platform/apperr"
	"quotescan_backend/platform/logger"
)

type fakeVerificationRepo struct {
	verifications map[uuid.UUID]repository.Verification
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{verifications: make(map[uuid.UUID]repository.Verification)}
}

func (f *fakeVerificationRepo) Create(_ context.Context, params repository.CreateVerificationParams) (repository.Verification, error) {
	v := repository.Verification{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		Channel:     params.Channel,
		Destination: params.Destination,
		CodeHash:    params.CodeHash,
		ExpiresAt:   params.ExpiresAt,
		CreatedAt:   time.Now(),
	}
	f.verifications[v.ID] = v
	return v, nil
}

func (f *fakeVerificationRepo) GetOpenByLead(_ context.Context, leadID uuid.UUID) (repository.Verification, error) {
	var newest *repository.Verification
	for _, v := range f.verifications {
		if v.LeadID != leadID || v.ConsumedAt != nil || v.InvalidatedAt != nil {
			continue
		}
		if newest == nil || v.CreatedAt.After(newest.CreatedAt) {
			copied := v
			newest = &copied
		}
	}
	if newest == nil {
		return repository.Verification{}, repository.ErrVerificationNotFound
	}
	return *newest, nil
}

func (f *fakeVerificationRepo) InvalidateOpen(_ context.Context, leadID uuid.UUID) error {
	now := time.Now()
	for id, v := range f.verifications {
		if v.LeadID == leadID && v.ConsumedAt == nil && v.InvalidatedAt == nil {
			v.InvalidatedAt = &now
			f.verifications[id] = v
		}
	}
	return nil
}

func (f *fakeVerificationRepo) IncrementAttempts(_ context.Context, id uuid.UUID) (int, error) {
	v, ok := f.verifications[id]
	if !ok {
		return 0, repository.ErrVerificationNotFound
	}
	v.Attempts++
	f.verifications[id] = v
	return v.Attempts, nil
}

func (f *fakeVerificationRepo) Consume(_ context.Context, id uuid.UUID) error {
	v, ok := f.verifications[id]
	if !ok || v.ConsumedAt != nil || v.InvalidatedAt != nil {
		return repository.ErrVerificationNotFound
	}
	now := time.Now()
	v.ConsumedAt = &now
	f.verifications[id] = v
	return nil
}

type fakeLeads struct {
	lead leadsrepo.Lead
}

func (f *fakeLeads) GetByToken(_ context.Context, token string) (leadsrepo.Lead, error) {
	if token != f.lead.PublicToken {
		return leadsrepo.Lead{}, leadsrepo.ErrLeadNotFound
	}
	return f.lead, nil
}

type fakeSender struct {
	sent []string // codes, in delivery order
	dest []string
}

func (f *fakeSender) SendVerificationCode(_ context.Context, destination, code string) error {
	f.dest = append(f.dest, destination)
	f.sent = append(f.sent, code)
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

type testConfig struct{}

func (testConfig) GetVerificationCodeTTL() time.Duration { return 10 * time.Minute }
func (testConfig) GetVerificationMaxAttempts() int       { return 5 }

type harness struct {
	svc       *Service
	repo      *fakeVerificationRepo
	email     *fakeSender
	sms       *fakeSender
	bus       *fakeBus
	leadToken string
	leadID    uuid.UUID
}

func newHarness() *harness {
	email := "ana@example.com"
	phone := "+13055550142"
	lead := leadsrepo.Lead{
		ID:          uuid.New(),
		PublicToken: "tok_abc",
		Email:       &email,
		Phone:       &phone,
	}

	repo := newFakeVerificationRepo()
	emailSender := &fakeSender{}
	smsSender := &fakeSender{}
	bus := &fakeBus{}
	svc := New(repo, &fakeLeads{lead: lead}, emailSender, smsSender, testConfig{}, bus, logger.New("development"))

	return &harness{
		svc:       svc,
		repo:      repo,
		email:     emailSender,
		sms:       smsSender,
		bus:       bus,
		leadToken: lead.PublicToken,
		leadID:    lead.ID,
	}
}

func (h *harness) lastCode(t *testing.T) string {
	t.Helper()
	if len(h.email.sent) > 0 {
		return h.email.sent[len(h.email.sent)-1]
	}
	if len(h.sms.sent) > 0 {
		return h.sms.sent[len(h.sms.sent)-1]
	}
	t.Fatal("no code was delivered")
	return ""
}

func TestStartDeliversSixDigitCode(t *testing.T) {
	h := newHarness()

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelEmail); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if len(h.email.sent) != 1 {
		t.Fatalf("expected one email delivery, got %d", len(h.email.sent))
	}
	code := h.email.sent[0]
	if len(code) != 6 {
		t.Errorf("expected a 6-digit code, got %q", code)
	}
	if h.email.dest[0] != "ana@example.com" {
		t.Errorf("expected delivery to the lead's email, got %q", h.email.dest[0])
	}

	open, err := h.repo.GetOpenByLead(context.Background(), h.leadID)
	if err != nil {
		t.Fatalf("expected an open verification: %v", err)
	}
	if open.CodeHash == code {
		t.Error("expected the stored hash to differ from the plaintext code")
	}
	if bcrypt.CompareHashAndPassword([]byte(open.CodeHash), []byte(code)) != nil {
		t.Error("expected the stored hash to match the delivered code")
	}
}

func TestStartInvalidatesPriorCodes(t *testing.T) {
	h := newHarness()

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelEmail); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	firstCode := h.lastCode(t)

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelSMS); err != nil {
		t.Fatalf("second start failed: %v", err)
	}

	// The old code must no longer confirm.
	err := h.svc.Confirm(context.Background(), h.leadToken, firstCode)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected the invalidated code to be rejected, got %v", err)
	}
}

func TestConfirmVerifiesAndPublishes(t *testing.T) {
	h := newHarness()

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelSMS); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := h.svc.Confirm(context.Background(), h.leadToken, h.lastCode(t)); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if len(h.bus.published) != 1 {
		t.Fatalf("expected one event, got %d", len(h.bus.published))
	}
	evt, ok := h.bus.published[0].(events.LeadVerified)
	if !ok {
		t.Fatalf("expected LeadVerified, got %T", h.bus.published[0])
	}
	if evt.LeadID != h.leadID || evt.Channel != ChannelSMS {
		t.Errorf("unexpected event payload: %+v", evt)
	}

	// The code is consumed; a replay fails.
	if err := h.svc.Confirm(context.Background(), h.leadToken, h.lastCode(t)); err == nil {
		t.Error("expected a consumed code to be rejected on replay")
	}
}

func TestConfirmWrongCode(t *testing.T) {
	h := newHarness()

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelEmail); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	wrong := "000000"
	if h.lastCode(t) == wrong {
		wrong = "111111"
	}

	err := h.svc.Confirm(context.Background(), h.leadToken, wrong)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected a validation error for a wrong code, got %v", err)
	}
	if len(h.bus.published) != 0 {
		t.Errorf("expected no event on a wrong code, got %d", len(h.bus.published))
	}
}

func TestConfirmLocksOutAfterMaxAttempts(t *testing.T) {
	h := newHarness()

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelEmail); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	code := h.lastCode(t)
	wrong := "999999"
	if wrong == code {
		wrong = "111111"
	}

	for i := 0; i < 5; i++ {
		if err := h.svc.Confirm(context.Background(), h.leadToken, wrong); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("attempt %d: expected validation error, got %v", i+1, err)
		}
	}

	// The sixth attempt hits the lockout even with the right code.
	err := h.svc.Confirm(context.Background(), h.leadToken, code)
	if !apperr.Is(err, apperr.KindTooManyRequests) {
		t.Fatalf("expected lockout after max attempts, got %v", err)
	}

	// Lockout invalidates the code entirely.
	if _, err := h.repo.GetOpenByLead(context.Background(), h.leadID); err == nil {
		t.Error("expected the exhausted code to be invalidated")
	}
}

func TestConfirmExpiredCode(t *testing.T) {
	h := newHarness()

	if err := h.svc.Start(context.Background(), h.leadToken, ChannelEmail); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	open, err := h.repo.GetOpenByLead(context.Background(), h.leadID)
	if err != nil {
		t.Fatalf("expected an open verification: %v", err)
	}
	open.ExpiresAt = time.Now().Add(-time.Minute)
	h.repo.verifications[open.ID] = open

	err = h.svc.Confirm(context.Background(), h.leadToken, h.lastCode(t))
	if !apperr.Is(err, apperr.KindGone) {
		t.Errorf("expected gone for an expired code, got %v", err)
	}
}

func TestConfirmWithoutStart(t *testing.T) {
	h := newHarness()

	err := h.svc.Confirm(context.Background(), h.leadToken, "123456")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found when no code was requested, got %v", err)
	}
}

func TestStartRequiresContactForChannel(t *testing.T) {
	h := newHarness()
	noPhone := leadsrepo.Lead{ID: uuid.New(), PublicToken: "tok_nophone"}
	h.svc.leads = &fakeLeads{lead: noPhone}

	err := h.svc.Start(context.Background(), "tok_nophone", ChannelSMS)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error without a phone number, got %v", err)
	}
}

func TestStartRejectsVerifiedLead(t *testing.T) {
	h := newHarness()
	verified := leadsrepo.Lead{ID: uuid.New(), PublicToken: "tok_done", Verified: true}
	h.svc.leads = &fakeLeads{lead: verified}

	err := h.svc.Start(context.Background(), "tok_done", ChannelEmail)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("expected conflict for an already verified lead, got %v", err)
	}
}

package notification

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/platform/logger"
)

type fakeLeads struct {
	lead leadsrepo.Lead
	err  error
}

func (f *fakeLeads) GetByID(context.Context, uuid.UUID) (leadsrepo.Lead, error) {
	return f.lead, f.err
}

type fakeSender struct {
	reportURLs []string
	recipients []string
	err        error
}

func (f *fakeSender) SendVerificationCode(context.Context, string, string) error { return nil }

func (f *fakeSender) SendReportReady(_ context.Context, toEmail, reportURL string) error {
	if f.err != nil {
		return f.err
	}
	f.recipients = append(f.recipients, toEmail)
	f.reportURLs = append(f.reportURLs, reportURL)
	return nil
}

type testConfig struct{}

func (testConfig) GetAppBaseURL() string { return "https://app.example.com/" }

func TestScanCompletedSendsReportEmail(t *testing.T) {
	email := "ana@example.com"
	lead := leadsrepo.Lead{ID: uuid.New(), PublicToken: "tok_abc", Email: &email}
	sender := &fakeSender{}
	m := New(sender, &fakeLeads{lead: lead}, testConfig{}, logger.New("development"))

	scanID := uuid.New()
	err := m.Handle(context.Background(), events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    scanID,
		LeadID:    lead.ID,
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(sender.recipients) != 1 || sender.recipients[0] != email {
		t.Fatalf("expected one email to %s, got %v", email, sender.recipients)
	}
	wantSuffix := "/report/tok_abc/" + scanID.String()
	if !strings.HasSuffix(sender.reportURLs[0], wantSuffix) {
		t.Errorf("expected report URL ending in %s, got %s", wantSuffix, sender.reportURLs[0])
	}
	if strings.Contains(sender.reportURLs[0], "com//") {
		t.Errorf("expected trailing slash trimmed from base URL, got %s", sender.reportURLs[0])
	}
}

func TestScanCompletedSkipsLeadWithoutEmail(t *testing.T) {
	lead := leadsrepo.Lead{ID: uuid.New(), PublicToken: "tok_abc"}
	sender := &fakeSender{}
	m := New(sender, &fakeLeads{lead: lead}, testConfig{}, logger.New("development"))

	err := m.Handle(context.Background(), events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    uuid.New(),
		LeadID:    lead.ID,
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(sender.recipients) != 0 {
		t.Errorf("expected no email without an address, got %v", sender.recipients)
	}
}

func TestDeliveryFailureNeverPropagates(t *testing.T) {
	email := "ana@example.com"
	lead := leadsrepo.Lead{ID: uuid.New(), PublicToken: "tok_abc", Email: &email}
	sender := &fakeSender{err: errors.New("smtp down")}
	m := New(sender, &fakeLeads{lead: lead}, testConfig{}, logger.New("development"))

	err := m.Handle(context.Background(), events.ScanCompleted{
		BaseEvent: events.NewBaseEvent(),
		ScanID:    uuid.New(),
		LeadID:    lead.ID,
	})
	if err != nil {
		t.Fatalf("expected delivery failure to be swallowed, got %v", err)
	}
}

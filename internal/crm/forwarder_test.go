package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/platform/logger"
)

type testCRMConfig struct {
	url    string
	secret string
}

func (c testCRMConfig) GetCRMWebhookURL() string    { return c.url }
func (c testCRMConfig) GetCRMWebhookSecret() string { return c.secret }
func (c testCRMConfig) IsCRMEnabled() bool          { return c.url != "" }

type fakeLeads struct {
	lead leadsrepo.Lead
}

func (f *fakeLeads) GetByID(context.Context, uuid.UUID) (leadsrepo.Lead, error) {
	return f.lead, nil
}

func TestNewReturnsNilWhenDisabled(t *testing.T) {
	f := New(testCRMConfig{}, &fakeLeads{}, logger.New("development"))
	if f != nil {
		t.Fatal("expected nil forwarder without a webhook URL")
	}
	// Registering a nil forwarder must be safe.
	f.RegisterHandlers(events.NewInMemoryBus(logger.New("development")))
}

func TestForwardsValueUpdateWithSecret(t *testing.T) {
	source := "google"
	gclid := "abc123"
	lead := leadsrepo.Lead{
		ID:        uuid.New(),
		Value:     500,
		Tier:      "whale",
		Verified:  true,
		UTMSource: &source,
		GCLID:     &gclid,
	}

	var got conversionPayload
	var gotSecret string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get(webhookSecretHeader)
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := New(testCRMConfig{url: server.URL, secret: "s3cret"}, &fakeLeads{lead: lead}, logger.New("development"))

	err := f.Handle(context.Background(), events.LeadValueUpdated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Value:     500,
	})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if gotSecret != "s3cret" {
		t.Errorf("expected secret header, got %q", gotSecret)
	}
	if got.Event != "lead.value_updated" || got.LeadID != lead.ID || got.Value != 500 || got.Tier != "whale" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.UTMSource == nil || *got.UTMSource != "google" {
		t.Errorf("expected attribution forwarded, got %+v", got)
	}
	if got.GCLID == nil || *got.GCLID != "abc123" {
		t.Errorf("expected gclid forwarded, got %+v", got)
	}
}

func TestWebhookFailureNeverPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	lead := leadsrepo.Lead{ID: uuid.New(), Value: 100, Tier: "warm"}
	f := New(testCRMConfig{url: server.URL}, &fakeLeads{lead: lead}, logger.New("development"))

	err := f.Handle(context.Background(), events.LeadVerified{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Channel:   "sms",
	})
	if err != nil {
		t.Fatalf("expected webhook failure to be swallowed, got %v", err)
	}
}

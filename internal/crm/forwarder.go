// Package crm forwards lead conversions to an external CRM webhook. The
// funnel is the source of truth; the CRM just receives value updates so
// ad platforms can optimize against real lead values.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/platform/config"
	"quotescan_backend/platform/logger"
)

const webhookSecretHeader = "X-Webhook-Secret"

// LeadReader resolves leads for attribution fields. Implemented by the
// leads service.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

// conversionPayload is the wire format posted to the CRM webhook.
type conversionPayload struct {
	Event       string    `json:"event"`
	LeadID      uuid.UUID `json:"leadId"`
	Value       int       `json:"value"`
	Tier        string    `json:"tier"`
	Verified    bool      `json:"verified"`
	UTMSource   *string   `json:"utmSource,omitempty"`
	UTMMedium   *string   `json:"utmMedium,omitempty"`
	UTMCampaign *string   `json:"utmCampaign,omitempty"`
	GCLID       *string   `json:"gclid,omitempty"`
	FBCLID      *string   `json:"fbclid,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Forwarder subscribes to lead value changes and posts them outbound.
// Delivery is best effort: a CRM outage never fails the funnel.
type Forwarder struct {
	webhookURL string
	secret     string
	leads      LeadReader
	http       *http.Client
	log        *logger.Logger
}

// New creates a forwarder, or nil when no CRM webhook is configured. A
// nil forwarder registers no handlers.
func New(cfg config.CRMConfig, leads LeadReader, log *logger.Logger) *Forwarder {
	if !cfg.IsCRMEnabled() {
		return nil
	}

	return &Forwarder{
		webhookURL: cfg.GetCRMWebhookURL(),
		secret:     cfg.GetCRMWebhookSecret(),
		leads:      leads,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// RegisterHandlers subscribes to the events worth forwarding.
func (f *Forwarder) RegisterHandlers(bus events.Bus) {
	if f == nil {
		return
	}
	bus.Subscribe(events.LeadValueUpdated{}.EventName(), f)
	bus.Subscribe(events.LeadVerified{}.EventName(), f)
}

// Handle routes events to the appropriate forwarding method.
func (f *Forwarder) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadValueUpdated:
		f.forward(ctx, e.LeadID, "lead.value_updated")
	case events.LeadVerified:
		f.forward(ctx, e.LeadID, "lead.verified")
	default:
		f.log.Warn("unhandled event type", "event", event.EventName())
	}
	return nil
}

func (f *Forwarder) forward(ctx context.Context, leadID uuid.UUID, eventName string) {
	lead, err := f.leads.GetByID(ctx, leadID)
	if err != nil {
		f.log.Error("crm forward skipped: lead lookup failed", "error", err, "leadId", leadID)
		return
	}

	payload := conversionPayload{
		Event:       eventName,
		LeadID:      lead.ID,
		Value:       lead.Value,
		Tier:        lead.Tier,
		Verified:    lead.Verified,
		UTMSource:   lead.UTMSource,
		UTMMedium:   lead.UTMMedium,
		UTMCampaign: lead.UTMCampaign,
		GCLID:       lead.GCLID,
		FBCLID:      lead.FBCLID,
		OccurredAt:  time.Now().UTC(),
	}

	if err := f.post(ctx, payload); err != nil {
		f.log.Error("crm forward failed", "error", err, "leadId", leadID, "event", eventName)
		return
	}

	f.log.Info("crm conversion forwarded", "leadId", leadID, "event", eventName, "value", lead.Value)
}

func (f *Forwarder) post(ctx context.Context, payload conversionPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal crm payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")
	if f.secret != "" {
		req.Header.Set(webhookSecretHeader, f.secret)
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("crm webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return nil
}

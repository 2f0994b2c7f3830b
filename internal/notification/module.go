// Package notification reacts to domain events with outbound messages.
// Domain modules publish events and never know about email providers or
// templates; this module owns that mapping. Delivery failures are logged
// and swallowed: a missed notice must never fail the operation that
// triggered it.
package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"quotescan_backend/internal/email"
	"quotescan_backend/internal/events"
	leadsrepo "quotescan_backend/internal/leads/repository"
	"quotescan_backend/platform/logger"
)

// LeadReader resolves leads for delivery addressing. Implemented by the
// leads service.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

// Config is the slice of application config the module needs.
type Config interface {
	GetAppBaseURL() string
}

// Module handles notification-related event subscriptions.
type Module struct {
	sender     email.Sender
	leads      LeadReader
	appBaseURL string
	log        *logger.Logger
}

// New creates a new notification module.
func New(sender email.Sender, leads LeadReader, cfg Config, log *logger.Logger) *Module {
	return &Module{
		sender:     sender,
		leads:      leads,
		appBaseURL: strings.TrimRight(cfg.GetAppBaseURL(), "/"),
		log:        log,
	}
}

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ScanCompleted{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ScanCompleted:
		return m.handleScanCompleted(ctx, e)
	default:
		m.log.Warn("unhandled event type", "event", event.EventName())
		return nil
	}
}

// handleScanCompleted emails the lead that their report finished grading.
// Leads without an email address just see the report in the funnel.
func (m *Module) handleScanCompleted(ctx context.Context, e events.ScanCompleted) error {
	lead, err := m.leads.GetByID(ctx, e.LeadID)
	if err != nil {
		m.log.Error("report notice skipped: lead lookup failed", "error", err, "leadId", e.LeadID)
		return nil
	}

	if lead.Email == nil || *lead.Email == "" {
		return nil
	}

	reportURL := fmt.Sprintf("%s/report/%s/%s", m.appBaseURL, lead.PublicToken, e.ScanID)
	if err := m.sender.SendReportReady(ctx, *lead.Email, reportURL); err != nil {
		m.log.Error("failed to send report ready email", "error", err, "leadId", lead.ID, "scanId", e.ScanID)
		return nil
	}

	m.log.Info("report ready email sent", "leadId", lead.ID, "scanId", e.ScanID)
	return nil
}

// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"quotescan_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCaptured is published when a new lead enters the funnel.
type LeadCaptured struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	PublicToken string    `json:"publicToken"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	ZipCode     string    `json:"zipCode,omitempty"`
	UTMSource   string    `json:"utmSource,omitempty"`
}

func (e LeadCaptured) EventName() string { return "leads.lead.captured" }

// LeadValueUpdated is published whenever classification changes a lead's value.
type LeadValueUpdated struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	Value         int       `json:"value"`
	PreviousValue int       `json:"previousValue"`
	Tier          string    `json:"tier"`
	Reasoning     string    `json:"reasoning"`
	Verified      bool      `json:"verified"`
}

func (e LeadValueUpdated) EventName() string { return "leads.lead.value_updated" }

// LeadVerified is published when a lead completes contact verification.
type LeadVerified struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Channel string    `json:"channel"`
}

func (e LeadVerified) EventName() string { return "leads.lead.verified" }

// =============================================================================
// Scans Domain Events
// =============================================================================

// ScanUploaded is published when a quote document upload is confirmed.
type ScanUploaded struct {
	BaseEvent
	ScanID  uuid.UUID `json:"scanId"`
	LeadID  uuid.UUID `json:"leadId"`
	FileKey string    `json:"fileKey"`
}

func (e ScanUploaded) EventName() string { return "scans.scan.uploaded" }

// ScanCompleted is published when analysis and scoring finished successfully.
type ScanCompleted struct {
	BaseEvent
	ScanID       uuid.UUID `json:"scanId"`
	LeadID       uuid.UUID `json:"leadId"`
	OverallScore int       `json:"overallScore"`
	Summary      string    `json:"summary"`
}

func (e ScanCompleted) EventName() string { return "scans.scan.completed" }

// ScanFailed is published when analysis could not produce a report.
type ScanFailed struct {
	BaseEvent
	ScanID uuid.UUID `json:"scanId"`
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

func (e ScanFailed) EventName() string { return "scans.scan.failed" }

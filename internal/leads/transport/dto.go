// Package transport defines request/response DTOs for the leads HTTP surface.
package transport

import (
	"time"

	"github.com/google/uuid"

	"quotescan_backend/internal/leads/repository"
)

// CaptureLeadRequest is the public intake payload. Attribution fields come
// from the funnel's tracking layer, not the visitor.
type CaptureLeadRequest struct {
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,max=100"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"omitempty,max=30"`
	ZipCode   string `json:"zipCode" validate:"omitempty,max=10"`

	IsHomeowner *bool  `json:"isHomeowner"`
	ProjectSize string `json:"projectSize" validate:"omitempty,project_size"`
	Urgency     string `json:"urgency" validate:"omitempty,urgency"`

	UTMSource   string `json:"utmSource" validate:"omitempty,max=255"`
	UTMMedium   string `json:"utmMedium" validate:"omitempty,max=255"`
	UTMCampaign string `json:"utmCampaign" validate:"omitempty,max=255"`
	GCLID       string `json:"gclid" validate:"omitempty,max=255"`
	FBCLID      string `json:"fbclid" validate:"omitempty,max=255"`
	LandingPage string `json:"landingPage" validate:"omitempty,max=2000"`
}

// QualificationRequest carries partial funnel answers.
type QualificationRequest struct {
	IsHomeowner *bool   `json:"isHomeowner"`
	ProjectSize *string `json:"projectSize" validate:"omitempty,project_size"`
	Urgency     *string `json:"urgency" validate:"omitempty,urgency"`
}

// CaptureLeadResponse returns the token the funnel uses for every later call.
type CaptureLeadResponse struct {
	Token string `json:"token"`
}

// PublicLeadResponse is the funnel's view of its own lead. Contact details
// are echoed back so the UI can prefill, value internals are not.
type PublicLeadResponse struct {
	Token       string  `json:"token"`
	FirstName   string  `json:"firstName"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	IsHomeowner *bool   `json:"isHomeowner,omitempty"`
	ProjectSize *string `json:"projectSize,omitempty"`
	Urgency     *string `json:"urgency,omitempty"`
	Verified    bool    `json:"verified"`
}

// LeadResponse is the ops view with value internals included.
type LeadResponse struct {
	ID             uuid.UUID `json:"id"`
	PublicToken    string    `json:"publicToken"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	ZipCode        *string   `json:"zipCode,omitempty"`
	IsHomeowner    *bool     `json:"isHomeowner,omitempty"`
	ProjectSize    *string   `json:"projectSize,omitempty"`
	Urgency        *string   `json:"urgency,omitempty"`
	Verified       bool      `json:"verified"`
	Value          int       `json:"value"`
	Tier           string    `json:"tier"`
	ValueReasoning string    `json:"valueReasoning"`
	UTMSource      *string   `json:"utmSource,omitempty"`
	UTMMedium      *string   `json:"utmMedium,omitempty"`
	UTMCampaign    *string   `json:"utmCampaign,omitempty"`
	GCLID          *string   `json:"gclid,omitempty"`
	FBCLID         *string   `json:"fbclid,omitempty"`
	LandingPage    *string   `json:"landingPage,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func ToPublicLeadResponse(lead repository.Lead) PublicLeadResponse {
	return PublicLeadResponse{
		Token:       lead.PublicToken,
		FirstName:   lead.FirstName,
		Email:       lead.Email,
		Phone:       lead.Phone,
		IsHomeowner: lead.IsHomeowner,
		ProjectSize: lead.ProjectSize,
		Urgency:     lead.Urgency,
		Verified:    lead.Verified,
	}
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:             lead.ID,
		PublicToken:    lead.PublicToken,
		FirstName:      lead.FirstName,
		LastName:       lead.LastName,
		Email:          lead.Email,
		Phone:          lead.Phone,
		ZipCode:        lead.ZipCode,
		IsHomeowner:    lead.IsHomeowner,
		ProjectSize:    lead.ProjectSize,
		Urgency:        lead.Urgency,
		Verified:       lead.Verified,
		Value:          lead.Value,
		Tier:           lead.Tier,
		ValueReasoning: lead.ValueReasoning,
		UTMSource:      lead.UTMSource,
		UTMMedium:      lead.UTMMedium,
		UTMCampaign:    lead.UTMCampaign,
		GCLID:          lead.GCLID,
		FBCLID:         lead.FBCLID,
		LandingPage:    lead.LandingPage,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
}

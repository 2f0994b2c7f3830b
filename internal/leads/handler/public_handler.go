// Package handler provides Gin handlers for the leads module.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/leads/service"
	"quotescan_backend/internal/leads/transport"
	"quotescan_backend/platform/httpkit"
	"quotescan_backend/platform/validator"
)

const (
	publicMsgInvalidInput = "Invalid input"
	publicMsgLeadNotFound = "Lead not found"
)

// PublicHandler handles the unauthenticated funnel endpoints. Every route
// after capture is keyed by the lead's public token.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers public lead routes under /public/leads.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Capture)
	rg.GET("/:token", h.Get)
	rg.PATCH("/:token/qualification", h.UpdateQualification)
}

// Capture creates a lead from the funnel's intake step.
func (h *PublicHandler) Capture(c *gin.Context) {
	var req transport.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, publicMsgInvalidInput, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, publicMsgInvalidInput, err.Error())
		return
	}

	lead, err := h.svc.CaptureLead(c.Request.Context(), service.CaptureInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		ZipCode:     req.ZipCode,
		IsHomeowner: req.IsHomeowner,
		ProjectSize: req.ProjectSize,
		Urgency:     req.Urgency,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		GCLID:       req.GCLID,
		FBCLID:      req.FBCLID,
		LandingPage: req.LandingPage,
	})
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "Failed to save lead", nil)
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CaptureLeadResponse{Token: lead.PublicToken})
}

// Get returns the funnel's view of its own lead.
func (h *PublicHandler) Get(c *gin.Context) {
	lead, err := h.svc.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		httpkit.Error(c, http.StatusNotFound, publicMsgLeadNotFound, nil)
		return
	}

	httpkit.OK(c, transport.ToPublicLeadResponse(lead))
}

// UpdateQualification applies funnel answers as they arrive.
func (h *PublicHandler) UpdateQualification(c *gin.Context) {
	var req transport.QualificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, publicMsgInvalidInput, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, publicMsgInvalidInput, err.Error())
		return
	}

	lead, err := h.svc.UpdateQualification(c.Request.Context(), c.Param("token"), repository.UpdateQualificationParams{
		IsHomeowner: req.IsHomeowner,
		ProjectSize: req.ProjectSize,
		Urgency:     req.Urgency,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPublicLeadResponse(lead))
}

// Package handler provides Gin handlers for contact verification.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quotescan_backend/internal/verification/service"
	"quotescan_backend/internal/verification/transport"
	"quotescan_backend/platform/httpkit"
	"quotescan_backend/platform/validator"
)

const msgInvalidInput = "Invalid input"

// Handler handles the funnel's verification endpoints, keyed by lead token.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers verification routes. Both endpoints trigger or
// guess codes, so the whole group sits behind the strict rate limiter.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, limiter *httpkit.VerificationRateLimiter) {
	rg.Use(limiter.RateLimit())
	rg.POST("", h.Start)
	rg.POST("/confirm", h.Confirm)
}

// Start issues a verification code and delivers it to the lead's contact.
func (h *Handler) Start(c *gin.Context) {
	var req transport.StartVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidInput, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidInput, err.Error())
		return
	}

	if err := h.svc.Start(c.Request.Context(), c.Param("token"), req.Channel); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"sent": true})
}

// Confirm checks the submitted code and verifies the lead on a match.
func (h *Handler) Confirm(c *gin.Context) {
	var req transport.ConfirmVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidInput, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidInput, err.Error())
		return
	}

	if err := h.svc.Confirm(c.Request.Context(), c.Param("token"), req.Code); httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"verified": true})
}

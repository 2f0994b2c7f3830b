package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/leads/service"
	"quotescan_backend/internal/leads/transport"
	"quotescan_backend/platform/httpkit"
)

// Handler exposes the authenticated ops surface for leads.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers ops lead routes on the protected group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}

// List returns leads, optionally filtered by tier and verified state.
func (h *Handler) List(c *gin.Context) {
	params := repository.ListLeadsParams{}

	if tier := c.Query("tier"); tier != "" {
		params.Tier = &tier
	}
	if verified := c.Query("verified"); verified != "" {
		v, err := strconv.ParseBool(verified)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "Invalid verified filter", nil)
			return
		}
		params.Verified = &v
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	leads, err := h.svc.List(c.Request.Context(), params)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "Failed to list leads", nil)
		return
	}

	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, transport.ToLeadResponse(lead))
	}

	httpkit.OK(c, gin.H{"items": items, "count": len(items)})
}

// Get returns one lead with value internals.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Invalid lead ID", nil)
		return
	}

	lead, err := h.svc.GetByID(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToLeadResponse(lead))
}

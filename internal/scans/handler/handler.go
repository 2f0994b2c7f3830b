package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"quotescan_backend/internal/scans/service"
	"quotescan_backend/internal/scans/transport"
	"quotescan_backend/platform/httpkit"
)

// Handler exposes the protected ops surface for scans.
type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/rescore", h.Rescore)
}

// List returns recent scans with presigned document links.
func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.svc.ListWithDownloadURLs(c.Request.Context(), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	responses := make([]transport.ScanResponse, len(items))
	for i, item := range items {
		responses[i] = transport.ToScanResponse(item.Scan, item.DownloadURL)
	}

	httpkit.OK(c, responses)
}

// Get returns one scan with its extraction internals.
func (h *Handler) Get(c *gin.Context) {
	scanID, ok := h.scanID(c)
	if !ok {
		return
	}

	scan, err := h.svc.GetScan(c.Request.Context(), scanID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToScanResponse(scan, ""))
}

func (h *Handler) scanID(c *gin.Context) (uuid.UUID, bool) {
	scanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Invalid scan ID", nil)
		return uuid.UUID{}, false
	}
	return scanID, true
}

// Rescore regrades a scan from its stored signals.
func (h *Handler) Rescore(c *gin.Context) {
	scanID, ok := h.scanID(c)
	if !ok {
		return
	}

	scan, err := h.svc.Rescore(c.Request.Context(), scanID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToScanResponse(scan, ""))
}

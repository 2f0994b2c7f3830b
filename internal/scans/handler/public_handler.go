// Package handler provides Gin handlers for the scans module.
package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"quotescan_backend/internal/scans/service"
	"quotescan_backend/internal/scans/transport"
	"quotescan_backend/platform/httpkit"
	"quotescan_backend/platform/validator"
)

const publicMsgInvalidInput = "Invalid input"

// qrSize is the pixel width of the generated report QR PNG.
const qrSize = 256

// PublicHandler handles the funnel's scan endpoints, keyed by lead token.
type PublicHandler struct {
	svc        *service.Service
	val        *validator.Validator
	appBaseURL string
}

func NewPublicHandler(svc *service.Service, val *validator.Validator, appBaseURL string) *PublicHandler {
	return &PublicHandler{svc: svc, val: val, appBaseURL: appBaseURL}
}

// RegisterRoutes registers public scan routes under /public/leads/:token/scans.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.POST("/:scanId/confirm", h.ConfirmUpload)
	rg.GET("/:scanId", h.GetReport)
	rg.GET("/:scanId/qr", h.ReportQR)
}

// Create validates the announced upload and returns a presigned PUT URL.
func (h *PublicHandler) Create(c *gin.Context) {
	var req transport.CreateScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, publicMsgInvalidInput, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, publicMsgInvalidInput, err.Error())
		return
	}

	result, err := h.svc.CreateScan(c.Request.Context(), c.Param("token"), service.CreateScanInput{
		FileName:         req.FileName,
		ContentType:      req.ContentType,
		SizeBytes:        req.SizeBytes,
		OpeningCountHint: req.OpeningCountHint,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.CreateScanResponse{
		ScanID:    result.Scan.ID,
		UploadURL: result.UploadURL,
		ExpiresAt: result.ExpiresAt.Unix(),
	})
}

// ConfirmUpload flips the scan to processing and queues analysis.
func (h *PublicHandler) ConfirmUpload(c *gin.Context) {
	scanID, ok := h.scanID(c)
	if !ok {
		return
	}

	scan, err := h.svc.ConfirmUpload(c.Request.Context(), c.Param("token"), scanID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPublicScanResponse(scan))
}

// GetReport returns the scan's current state and, once completed, the
// graded report. The funnel polls this endpoint while analysis runs.
func (h *PublicHandler) GetReport(c *gin.Context) {
	scanID, ok := h.scanID(c)
	if !ok {
		return
	}

	scan, err := h.svc.GetReport(c.Request.Context(), c.Param("token"), scanID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToPublicScanResponse(scan))
}

// ReportQR renders a QR code pointing at the shareable report page.
func (h *PublicHandler) ReportQR(c *gin.Context) {
	scanID, ok := h.scanID(c)
	if !ok {
		return
	}

	// Resolve the scan first so the QR endpoint 404s for foreign tokens.
	if _, err := h.svc.GetReport(c.Request.Context(), c.Param("token"), scanID); httpkit.HandleError(c, err) {
		return
	}

	reportURL := fmt.Sprintf("%s/report/%s/%s", h.appBaseURL, c.Param("token"), scanID)
	png, err := qrcode.Encode(reportURL, qrcode.Medium, qrSize)
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "Failed to render QR code", nil)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *PublicHandler) scanID(c *gin.Context) (uuid.UUID, bool) {
	scanID, err := uuid.Parse(c.Param("scanId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "Invalid scan ID", nil)
		return uuid.UUID{}, false
	}
	return scanID, true
}

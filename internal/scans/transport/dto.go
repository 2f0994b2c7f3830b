// Package transport defines request/response DTOs for the scans HTTP surface.
package transport

import (
	"time"

	"github.com/google/uuid"

	"quotescan_backend/internal/scans/repository"
	"quotescan_backend/internal/scans/scoring"
)

// CreateScanRequest announces an upcoming quote document upload.
type CreateScanRequest struct {
	FileName         string `json:"fileName" validate:"required,max=255"`
	ContentType      string `json:"contentType" validate:"required,max=100"`
	SizeBytes        int64  `json:"sizeBytes" validate:"required,gt=0"`
	OpeningCountHint *int   `json:"openingCountHint" validate:"omitempty,gte=1,lte=500"`
}

// CreateScanResponse carries the presigned PUT target.
type CreateScanResponse struct {
	ScanID    uuid.UUID `json:"scanId"`
	UploadURL string    `json:"uploadUrl"`
	ExpiresAt int64     `json:"expiresAt"`
}

// PublicScanResponse is the funnel's view of a scan. The report is only
// present once grading completed.
type PublicScanResponse struct {
	ScanID        uuid.UUID            `json:"scanId"`
	Status        string               `json:"status"`
	Report        *scoring.ScoreReport `json:"report,omitempty"`
	FailureReason *string              `json:"failureReason,omitempty"`
	ScoredAt      *time.Time           `json:"scoredAt,omitempty"`
	CreatedAt     time.Time            `json:"createdAt"`
}

// ScanResponse is the ops view with extraction internals.
type ScanResponse struct {
	ID               uuid.UUID            `json:"id"`
	LeadID           uuid.UUID            `json:"leadId"`
	FileKey          string               `json:"fileKey"`
	ContentType      string               `json:"contentType"`
	Status           string               `json:"status"`
	FailureReason    *string              `json:"failureReason,omitempty"`
	OpeningCountHint *int                 `json:"openingCountHint,omitempty"`
	Signals          *scoring.Signals     `json:"signals,omitempty"`
	Report           *scoring.ScoreReport `json:"report,omitempty"`
	OverallScore     *int                 `json:"overallScore,omitempty"`
	EngineVersion    *string              `json:"engineVersion,omitempty"`
	ScoredAt         *time.Time           `json:"scoredAt,omitempty"`
	DownloadURL      string               `json:"downloadUrl,omitempty"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

func ToPublicScanResponse(scan repository.Scan) PublicScanResponse {
	return PublicScanResponse{
		ScanID:        scan.ID,
		Status:        scan.Status,
		Report:        scan.Report,
		FailureReason: scan.FailureReason,
		ScoredAt:      scan.ScoredAt,
		CreatedAt:     scan.CreatedAt,
	}
}

func ToScanResponse(scan repository.Scan, downloadURL string) ScanResponse {
	return ScanResponse{
		ID:               scan.ID,
		LeadID:           scan.LeadID,
		FileKey:          scan.FileKey,
		ContentType:      scan.ContentType,
		Status:           scan.Status,
		FailureReason:    scan.FailureReason,
		OpeningCountHint: scan.OpeningCountHint,
		Signals:          scan.Signals,
		Report:           scan.Report,
		OverallScore:     scan.OverallScore,
		EngineVersion:    scan.EngineVersion,
		ScoredAt:         scan.ScoredAt,
		DownloadURL:      downloadURL,
		CreatedAt:        scan.CreatedAt,
		UpdatedAt:        scan.UpdatedAt,
	}
}

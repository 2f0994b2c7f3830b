// Package scans provides the quote scan bounded context: document upload,
// signal extraction, grading, and report delivery.
package scans

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"quotescan_backend/internal/adapters/storage"
	"quotescan_backend/internal/events"
	apphttp "quotescan_backend/internal/http"
	"quotescan_backend/internal/scans/agent"
	"quotescan_backend/internal/scans/handler"
	"quotescan_backend/internal/scans/repository"
	"quotescan_backend/internal/scans/service"
	"quotescan_backend/platform/config"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/validator"
)

// ModuleConfig is the slice of application config the scans module needs.
type ModuleConfig interface {
	config.MinIOConfig
	config.AgentConfig
	config.FunnelConfig
}

// Module is the scans bounded context module implementing http.Module.
type Module struct {
	svc           *service.Service
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
}

// NewModule creates and initializes the scans module. When no extraction
// provider is configured the module still serves uploads and reports;
// analysis tasks fail the scan with a clear reason.
func NewModule(
	pool *pgxpool.Pool,
	leads service.LeadReader,
	storageSvc storage.StorageService,
	enqueuer service.AnalysisEnqueuer,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
	cfg ModuleConfig,
) *Module {
	repo := repository.New(pool)

	var extractor service.SignalExtractor
	if cfg.IsAgentEnabled() {
		reader, err := agent.NewQuoteReader(cfg.GetMoonshotAPIKey())
		if err != nil {
			log.Error("failed to initialize quote extraction agent; analysis tasks will fail scans", "error", err)
		} else {
			extractor = reader
		}
	} else {
		log.Warn("quote extraction agent disabled: MOONSHOT_API_KEY not set")
	}

	svc := service.New(
		repo,
		leads,
		storageSvc,
		cfg.GetMinioBucketQuoteDocuments(),
		extractor,
		enqueuer,
		eventBus,
		log,
	)

	return &Module{
		svc:           svc,
		handler:       handler.NewHandler(svc),
		publicHandler: handler.NewPublicHandler(svc, val, cfg.GetAppBaseURL()),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scans"
}

// Service returns the scans service for the worker and other modules.
func (m *Module) Service() *service.Service {
	return m.svc
}

// RegisterRoutes mounts the token-scoped funnel routes and the protected
// ops surface.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.publicHandler.RegisterRoutes(ctx.Public.Group("/leads/:token/scans"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/scans"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

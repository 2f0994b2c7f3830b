// Package verification provides the contact verification bounded context.
package verification

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"quotescan_backend/internal/events"
	apphttp "quotescan_backend/internal/http"
	"quotescan_backend/internal/verification/handler"
	"quotescan_backend/internal/verification/repository"
	"quotescan_backend/internal/verification/service"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/validator"
)

// Module is the verification bounded context module implementing http.Module.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule creates and initializes the verification module. Senders may
// be nil when the corresponding channel is not configured; starting a
// verification over a missing channel fails with a clear error.
func NewModule(
	pool *pgxpool.Pool,
	leads service.LeadReader,
	emailSender service.CodeSender,
	smsSender service.CodeSender,
	cfg service.Config,
	eventBus events.Bus,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, emailSender, smsSender, cfg, eventBus, log)

	return &Module{
		svc:     svc,
		handler: handler.NewHandler(svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "verification"
}

// RegisterRoutes mounts the token-scoped verification routes behind the
// strict rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Public.Group("/leads/:token/verification"), ctx.VerificationRateLimiter)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

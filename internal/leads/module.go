// Package leads provides the lead capture and valuation bounded context.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"quotescan_backend/internal/events"
	apphttp "quotescan_backend/internal/http"
	"quotescan_backend/internal/leads/handler"
	"quotescan_backend/internal/leads/repository"
	"quotescan_backend/internal/leads/service"
	"quotescan_backend/internal/leads/transport"
	"quotescan_backend/platform/logger"
	"quotescan_backend/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	svc           *service.Service
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	if err := transport.RegisterValidations(val); err != nil {
		log.Error("failed to register lead validation tags", "error", err)
	}

	// Verification success flips the lead and re-runs the classifier with
	// the bonus.
	eventBus.Subscribe(events.LeadVerified{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadVerified)
		if !ok {
			return nil
		}
		if err := svc.MarkVerified(ctx, e.LeadID); err != nil {
			log.Error("failed to apply verification to lead", "error", err, "leadId", e.LeadID)
			return err
		}
		return nil
	}))

	return &Module{
		svc:           svc,
		handler:       handler.NewHandler(svc),
		publicHandler: handler.NewPublicHandler(svc, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service for other modules and commands.
func (m *Module) Service() *service.Service {
	return m.svc
}

// RegisterRoutes mounts public funnel routes and the protected ops surface.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.publicHandler.RegisterRoutes(ctx.Public.Group("/leads"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

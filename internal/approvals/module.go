// Package approvals provides the approval workflow module.
package approvals

import (
	"crm_portal_backend/internal/approvals/handler"
	"crm_portal_backend/internal/approvals/repository"
	"crm_portal_backend/internal/approvals/service"
	"crm_portal_backend/internal/events"
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the approvals domain module.
type Module struct {
	handler *handler.Handler

	// Service is exposed so the requests module can attach it as its
	// revision approvals port.
	Service *service.Service
}

// NewModule creates the approvals module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "approvals"
}

// RegisterRoutes registers the module's routes under /api/v1/approvals.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/approvals"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

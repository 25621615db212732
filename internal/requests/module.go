// Package requests provides the request lifecycle domain module.
package requests

import (
	"crm_portal_backend/internal/events"
	apphttp "crm_portal_backend/internal/http"
	"crm_portal_backend/internal/requests/audit"
	"crm_portal_backend/internal/requests/gate"
	"crm_portal_backend/internal/requests/handler"
	"crm_portal_backend/internal/requests/lifecycle"
	"crm_portal_backend/internal/requests/outbox"
	"crm_portal_backend/internal/requests/pipeline"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/internal/requests/scoring"
	"crm_portal_backend/platform/logger"
	"crm_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the requests domain module.
type Module struct {
	handler *handler.Handler

	// Lifecycle is exposed so sibling modules can attach ports (the
	// approvals module wires its revision port here).
	Lifecycle *lifecycle.Service
	// Gate is exposed so the notification module can register as notifier.
	Gate *gate.Service
	// RepairQueue is exposed so the composition root can attach the
	// background scheduler.
	RepairQueue *outbox.Queue
}

// NewModule creates the requests module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)

	lc := lifecycle.New(repo, bus, log)
	repairQueue := outbox.NewQueue(outbox.New(pool), log)
	lc.SetAuditRepairQueue(repairQueue)

	au := audit.New(repo)
	sc := scoring.New(repo)
	pl := pipeline.New(lc, log)
	ga := gate.New(repo, bus, log)

	return &Module{
		handler:     handler.New(lc, au, sc, pl, ga, val),
		Lifecycle:   lc,
		Gate:        ga,
		RepairQueue: repairQueue,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "requests"
}

// RegisterRoutes registers the module's routes under /api/v1/requests and
// the eligibility gate under /api/v1/admin/requests.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/requests"))
	m.handler.RegisterAdminRoutes(ctx.Admin.Group("/requests"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

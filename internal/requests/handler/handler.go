// Package handler exposes the requests bounded context over HTTP. Every
// mutating route resolves the caller into an explicit actor and passes it
// into the service layer; no handler keeps ambient session state.
package handler

import (
	"net/http"

	"crm_portal_backend/internal/requests/audit"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/gate"
	"crm_portal_backend/internal/requests/lifecycle"
	"crm_portal_backend/internal/requests/pipeline"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/internal/requests/scoring"
	"crm_portal_backend/internal/requests/transport"
	"crm_portal_backend/platform/httpkit"
	"crm_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the requests bounded context.
type Handler struct {
	lifecycle *lifecycle.Service
	audit     *audit.Service
	scoring   *scoring.Service
	pipeline  *pipeline.Coordinator
	gate      *gate.Service
	val       *validator.Validator
}

// New creates a new requests handler.
func New(lc *lifecycle.Service, au *audit.Service, sc *scoring.Service, pl *pipeline.Coordinator, ga *gate.Service, val *validator.Validator) *Handler {
	return &Handler{lifecycle: lc, audit: au, scoring: sc, pipeline: pl, gate: ga, val: val}
}

// RegisterRoutes registers the request routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.GET("/:id/activities", h.ListActivities)

	rg.POST("/:id/services", h.SubmitServices)
	rg.POST("/:id/quotation", h.SendQuotation)
	rg.POST("/:id/revision-request", h.RequestRevision)
	rg.POST("/:id/accept", h.AcceptQuotation)
	rg.POST("/:id/revision-approve", h.ApproveRevision)
	rg.POST("/:id/change-request", h.RequestChange)

	rg.POST("/:id/score/recalculate", h.RecalculateScore)
	rg.POST("/:id/stage", h.MoveStage)
	rg.POST("/:id/stage/cancel", h.CancelStageMove)
}

// RegisterAdminRoutes registers the eligibility gate routes. Mounted under
// the admin group so the role check happens before the handler runs.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/eligibility/invoice", h.ListInvoiceEligible)
	rg.POST("/eligibility/campaign", h.SelectCampaignTargets)
}

// actorFrom resolves the authenticated identity into a domain actor. The
// admin role wins over staff roles, staff roles over the plain user role.
func actorFrom(identity httpkit.Identity) domain.Actor {
	role := domain.RoleUser
	switch {
	case identity.HasRole("admin"):
		role = domain.RoleAdmin
	case identity.HasRole("sales_rep"):
		role = domain.RoleSalesRep
	case identity.HasRole("support_agent"):
		role = domain.RoleSupportAgent
	}
	return domain.Actor{
		ID:          identity.UserID(),
		DisplayName: identity.DisplayName(),
		Role:        role,
	}
}

func requestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /api/v1/requests
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	actor := actorFrom(identity)

	created, err := h.lifecycle.Create(c.Request.Context(), actor, repository.CreateRequestParams{
		OwnerEmail: req.OwnerEmail,
		Company:    req.Company,
		Message:    req.Message,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Created(c, transport.FromRequest(created))
}

// List handles GET /api/v1/requests
func (h *Handler) List(c *gin.Context) {
	var query transport.ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	actor := actorFrom(identity)

	params := repository.ListParams{
		Status: domain.Status(query.Status),
		Limit:  query.Limit,
		Offset: query.Offset,
	}
	// Plain users only ever see their own requests.
	if actor.Role == domain.RoleUser {
		params.OwnerID = actor.ID
	}

	items, err := h.lifecycle.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.FromRequests(items))
}

// GetByID handles GET /api/v1/requests/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	actor := actorFrom(identity)

	req, err := h.lifecycle.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if actor.Role == domain.RoleUser && req.OwnerID != actor.ID {
		httpkit.Error(c, http.StatusForbidden, "You are not authorized to perform this action", nil)
		return
	}

	httpkit.OK(c, transport.FromRequest(req))
}

// ListActivities handles GET /api/v1/requests/:id/activities
func (h *Handler) ListActivities(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var query transport.ListActivitiesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if query.Order == "asc" {
		items, err := h.audit.ListFull(c.Request.Context(), id)
		if httpkit.HandleError(c, err) {
			return
		}
		httpkit.OK(c, transport.ActivityPageResponse{Items: transport.FromActivities(items)})
		return
	}

	page, err := h.audit.List(c.Request.Context(), id, query.PageSize, query.Cursor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ActivityPageResponse{
		Items:      transport.FromActivities(page.Items),
		NextCursor: page.NextCursor,
	})
}

// SubmitServices handles POST /api/v1/requests/:id/services
func (h *Handler) SubmitServices(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var req transport.SubmitServicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.lifecycle.SubmitServices(c.Request.Context(), id, actorFrom(identity), req.Services)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequest(updated))
}

// SendQuotation handles POST /api/v1/requests/:id/quotation
func (h *Handler) SendQuotation(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var req transport.SendQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, "price: must be a decimal number")
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.lifecycle.SendQuotation(c.Request.Context(), id, actorFrom(identity), domain.NewSendQuotation(price, req.Details))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequest(updated))
}

// RequestRevision handles POST /api/v1/requests/:id/revision-request
func (h *Handler) RequestRevision(c *gin.Context) {
	h.simpleTransition(c, func(ctx *gin.Context, id uuid.UUID, actor domain.Actor) (repository.Request, error) {
		return h.lifecycle.RequestRevision(ctx.Request.Context(), id, actor)
	})
}

// AcceptQuotation handles POST /api/v1/requests/:id/accept
func (h *Handler) AcceptQuotation(c *gin.Context) {
	h.simpleTransition(c, func(ctx *gin.Context, id uuid.UUID, actor domain.Actor) (repository.Request, error) {
		return h.lifecycle.AcceptQuotation(ctx.Request.Context(), id, actor)
	})
}

// ApproveRevision handles POST /api/v1/requests/:id/revision-approve
func (h *Handler) ApproveRevision(c *gin.Context) {
	h.simpleTransition(c, func(ctx *gin.Context, id uuid.UUID, actor domain.Actor) (repository.Request, error) {
		return h.lifecycle.ApproveRevision(ctx.Request.Context(), id, actor)
	})
}

// RequestChange handles POST /api/v1/requests/:id/change-request
func (h *Handler) RequestChange(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var req transport.RequestChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.lifecycle.RequestChange(c.Request.Context(), id, actorFrom(identity), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequest(updated))
}

func (h *Handler) simpleTransition(c *gin.Context, apply func(*gin.Context, uuid.UUID, domain.Actor) (repository.Request, error)) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := apply(c, id, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequest(updated))
}

// RecalculateScore handles POST /api/v1/requests/:id/score/recalculate
func (h *Handler) RecalculateScore(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	updated, err := h.scoring.Recalculate(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequest(updated))
}

// MoveStage handles POST /api/v1/requests/:id/stage
func (h *Handler) MoveStage(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	var req transport.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	actor := actorFrom(identity)

	// Seed the board view from authoritative state before the optimistic move.
	current, err := h.lifecycle.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	h.pipeline.Track(current.ID, current.Status)

	updated, err := h.pipeline.MoveToStage(c.Request.Context(), id, actor, domain.Status(req.TargetStage))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequest(updated))
}

// CancelStageMove handles POST /api/v1/requests/:id/stage/cancel
func (h *Handler) CancelStageMove(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	cancelled := h.pipeline.Cancel(id)
	httpkit.OK(c, gin.H{"cancelled": cancelled})
}

// ListInvoiceEligible handles GET /api/v1/admin/requests/eligibility/invoice
func (h *Handler) ListInvoiceEligible(c *gin.Context) {
	items, err := h.gate.ListInvoiceEligible(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequests(items))
}

// SelectCampaignTargets handles POST /api/v1/admin/requests/eligibility/campaign
func (h *Handler) SelectCampaignTargets(c *gin.Context) {
	var req transport.CampaignSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	items, err := h.gate.SelectCampaignTargets(c.Request.Context(), domain.Status(req.TargetStatus))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromRequests(items))
}

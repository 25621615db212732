// Package handler exposes the approvals workflow over HTTP.
package handler

import (
	"context"
	"net/http"

	"crm_portal_backend/internal/approvals/repository"
	"crm_portal_backend/internal/approvals/service"
	"crm_portal_backend/internal/approvals/transport"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/platform/httpkit"
	"crm_portal_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for approvals.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new approvals handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the approval routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Submit)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/deny", h.Deny)
}

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

func approvalID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid approval id", nil)
		return uuid.Nil, false
	}
	return id, true
}

// Submit handles POST /api/v1/approvals
func (h *Handler) Submit(c *gin.Context) {
	var req transport.SubmitApprovalRequest
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

	approval, err := h.svc.Submit(c.Request.Context(), actorFrom(identity), service.SubmitParams{
		Type:      req.Type,
		RequestID: req.RequestID,
		Details:   req.Details,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.FromApproval(approval))
}

// List handles GET /api/v1/approvals
func (h *Handler) List(c *gin.Context) {
	var query transport.ListApprovalsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	items, err := h.svc.List(c.Request.Context(), repository.ListParams{
		Type:   query.Type,
		Status: query.Status,
		Limit:  query.Limit,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromApprovals(items))
}

// GetByID handles GET /api/v1/approvals/:id
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := approvalID(c)
	if !ok {
		return
	}

	approval, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromApproval(approval))
}

// Approve handles POST /api/v1/approvals/:id/approve
func (h *Handler) Approve(c *gin.Context) {
	h.resolve(c, h.svc.Approve)
}

// Deny handles POST /api/v1/approvals/:id/deny
func (h *Handler) Deny(c *gin.Context) {
	h.resolve(c, h.svc.Deny)
}

func (h *Handler) resolve(c *gin.Context, apply func(ctx context.Context, id uuid.UUID, actor domain.Actor) (repository.ApprovalRequest, error)) {
	id, ok := approvalID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	approval, err := apply(c.Request.Context(), id, actorFrom(identity))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromApproval(approval))
}

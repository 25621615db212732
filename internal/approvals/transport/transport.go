// Package transport defines the request and response shapes of the
// approvals HTTP surface.
package transport

import (
	"time"

	"crm_portal_backend/internal/approvals/repository"

	"github.com/google/uuid"
)

// SubmitApprovalRequest is the request body for opening an approval.
type SubmitApprovalRequest struct {
	Type      string     `json:"type" validate:"required,oneof=sales_revision attendance_overtime attendance_break"`
	RequestID *uuid.UUID `json:"requestId,omitempty"`
	Details   string     `json:"details,omitempty" validate:"max=2000"`
}

// ListApprovalsQuery is the query parameters for listing approvals.
type ListApprovalsQuery struct {
	Type   string `form:"type" validate:"omitempty,oneof=sales_revision attendance_overtime attendance_break"`
	Status string `form:"status" validate:"omitempty,oneof=pending approved denied"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=200"`
}

// ApprovalResponse is the response body for an approval request.
type ApprovalResponse struct {
	ID              uuid.UUID  `json:"id"`
	Type            string     `json:"type"`
	RequestID       *uuid.UUID `json:"requestId,omitempty"`
	RequestedBy     uuid.UUID  `json:"requestedBy"`
	RequestedByName string     `json:"requestedByName"`
	Details         string     `json:"details,omitempty"`
	Status          string     `json:"status"`
	ResolvedBy      *uuid.UUID `json:"resolvedBy,omitempty"`
	ResolvedByName  *string    `json:"resolvedByName,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
}

// FromApproval maps a stored approval to its response shape.
func FromApproval(a repository.ApprovalRequest) ApprovalResponse {
	return ApprovalResponse{
		ID:              a.ID,
		Type:            a.Type,
		RequestID:       a.RequestID,
		RequestedBy:     a.RequestedBy,
		RequestedByName: a.RequestedByName,
		Details:         a.Details,
		Status:          a.Status,
		ResolvedBy:      a.ResolvedBy,
		ResolvedByName:  a.ResolvedByName,
		CreatedAt:       a.CreatedAt,
		ResolvedAt:      a.ResolvedAt,
	}
}

// FromApprovals maps a slice of stored approvals.
func FromApprovals(items []repository.ApprovalRequest) []ApprovalResponse {
	out := make([]ApprovalResponse, len(items))
	for i, a := range items {
		out[i] = FromApproval(a)
	}
	return out
}

// Package service implements the approval workflow: submit opens a pending
// approval, approve and deny resolve it. Resolution is terminal; a resolved
// approval can never change status again.
package service

import (
	"context"
	"errors"
	"strings"

	"crm_portal_backend/internal/approvals/repository"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence contract of the approval workflow.
type Store interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.ApprovalRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.ApprovalRequest, error)
	List(ctx context.Context, params repository.ListParams) ([]repository.ApprovalRequest, error)
	Resolve(ctx context.Context, id uuid.UUID, status string, resolvedBy uuid.UUID, resolvedByName string) (repository.ApprovalRequest, error)
	FindOpenByRequest(ctx context.Context, requestID uuid.UUID, approvalType string) (repository.ApprovalRequest, error)
}

// Service exposes the approval operations.
type Service struct {
	repo Store
	bus  events.Bus
	log  *logger.Logger
}

// New creates the approvals service.
func New(repo Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SubmitParams describes a new approval request.
type SubmitParams struct {
	Type      string
	RequestID *uuid.UUID
	Details   string
}

// Submit opens a pending approval on behalf of the actor.
func (s *Service) Submit(ctx context.Context, actor domain.Actor, params SubmitParams) (repository.ApprovalRequest, error) {
	if !repository.KnownType(params.Type) {
		return repository.ApprovalRequest{}, apperr.Validation("type: unknown approval type")
	}
	if params.Type == repository.TypeSalesRevision && params.RequestID == nil {
		return repository.ApprovalRequest{}, apperr.Validation("requestId: required for sales revision approvals")
	}

	approval, err := s.repo.Create(ctx, repository.CreateParams{
		Type:            params.Type,
		RequestID:       params.RequestID,
		RequestedBy:     actor.ID,
		RequestedByName: actor.DisplayName,
		Details:         strings.TrimSpace(params.Details),
	})
	if err != nil {
		return repository.ApprovalRequest{}, apperr.Unavailable("could not create approval request", err)
	}
	return approval, nil
}

// Get returns a single approval.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.ApprovalRequest, error) {
	approval, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.ApprovalRequest{}, apperr.NotFound("approval request not found")
		}
		return repository.ApprovalRequest{}, apperr.Unavailable("could not load approval request", err)
	}
	return approval, nil
}

// List returns approvals, optionally filtered by type and status.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.ApprovalRequest, error) {
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperr.Unavailable("could not list approval requests", err)
	}
	return items, nil
}

// Approve resolves a pending approval as approved.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor domain.Actor) (repository.ApprovalRequest, error) {
	return s.resolve(ctx, id, actor, repository.StatusApproved)
}

// Deny resolves a pending approval as denied.
func (s *Service) Deny(ctx context.Context, id uuid.UUID, actor domain.Actor) (repository.ApprovalRequest, error) {
	return s.resolve(ctx, id, actor, repository.StatusDenied)
}

func (s *Service) resolve(ctx context.Context, id uuid.UUID, actor domain.Actor, status string) (repository.ApprovalRequest, error) {
	if actor.Role != domain.RoleAdmin {
		return repository.ApprovalRequest{}, apperr.Forbidden()
	}

	approval, err := s.repo.Resolve(ctx, id, status, actor.ID, actor.DisplayName)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return repository.ApprovalRequest{}, apperr.NotFound("approval request not found")
		case errors.Is(err, repository.ErrAlreadyResolved):
			return repository.ApprovalRequest{}, apperr.InvalidTransition()
		default:
			return repository.ApprovalRequest{}, apperr.Unavailable("could not resolve approval request", err)
		}
	}

	s.bus.Publish(ctx, events.ApprovalResolved{
		BaseEvent:  events.NewBaseEvent(),
		ApprovalID: approval.ID,
		RequestID:  approval.RequestID,
		Type:       approval.Type,
		Status:     approval.Status,
	})
	return approval, nil
}

// =============================================================================
// Lifecycle port
// =============================================================================

// OpenRevision opens the sales revision approval attached to a lifecycle
// request. Called by the lifecycle engine on requestRevision.
func (s *Service) OpenRevision(ctx context.Context, requestID uuid.UUID, actor domain.Actor) error {
	_, err := s.repo.Create(ctx, repository.CreateParams{
		Type:            repository.TypeSalesRevision,
		RequestID:       &requestID,
		RequestedBy:     actor.ID,
		RequestedByName: actor.DisplayName,
		Details:         "Quotation revision requested",
	})
	return err
}

// ResolveRevision closes the open sales revision approval for a request.
// Called by the lifecycle engine on approveRevision; a missing or already
// resolved approval is not an error, the lifecycle status is authoritative.
func (s *Service) ResolveRevision(ctx context.Context, requestID uuid.UUID, actor domain.Actor) error {
	open, err := s.repo.FindOpenByRequest(ctx, requestID, repository.TypeSalesRevision)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	approval, err := s.repo.Resolve(ctx, open.ID, repository.StatusApproved, actor.ID, actor.DisplayName)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyResolved) {
			return nil
		}
		return err
	}

	s.bus.Publish(ctx, events.ApprovalResolved{
		BaseEvent:  events.NewBaseEvent(),
		ApprovalID: approval.ID,
		RequestID:  approval.RequestID,
		Type:       approval.Type,
		Status:     approval.Status,
	})
	return nil
}

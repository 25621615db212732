// Package lifecycle implements the request lifecycle state machine: it
// validates and applies status transitions, appends the audit entry for
// each one, and publishes the resulting domain events. Derived subsystems
// (scoring, campaign/billing gate) read the outcome lazily; nothing here
// computes them inline.
package lifecycle

import (
	"context"
	"errors"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/gate"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Repository is the consumer-driven data access interface of the engine.
type Repository interface {
	repository.RequestReader
	repository.RequestWriter
	repository.ActivityAppender
}

// AuditRepairEntry is a failed audit append queued for the repair pass.
type AuditRepairEntry struct {
	RequestID uuid.UUID
	Message   string
	ActorID   uuid.UUID
	ActorName string
	ActorRole string
}

// AuditRepairQueue accepts failed audit appends for later replay.
// Implemented by the outbox repository; nil disables queueing.
type AuditRepairQueue interface {
	Enqueue(ctx context.Context, entry AuditRepairEntry) error
}

// RevisionApprovals is the port to the approvals bounded context.
// requestRevision opens a pending approval; approveRevision resolves it.
// Optional; nil means no approvals integration.
type RevisionApprovals interface {
	OpenRevision(ctx context.Context, requestID uuid.UUID, actor domain.Actor) error
	ResolveRevision(ctx context.Context, requestID uuid.UUID, actor domain.Actor) error
}

// Service is the lifecycle state machine engine.
type Service struct {
	repo      Repository
	bus       events.Bus
	log       *logger.Logger
	repairs   AuditRepairQueue
	approvals RevisionApprovals
}

// New creates the lifecycle engine.
func New(repo Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetAuditRepairQueue injects the repair queue for failed audit appends.
func (s *Service) SetAuditRepairQueue(q AuditRepairQueue) {
	s.repairs = q
}

// SetRevisionApprovals injects the approvals port.
func (s *Service) SetRevisionApprovals(a RevisionApprovals) {
	s.approvals = a
}

// Create registers a new request in the initial status, owned by the actor.
func (s *Service) Create(ctx context.Context, actor domain.Actor, params repository.CreateRequestParams) (repository.Request, error) {
	params.OwnerID = actor.ID
	if params.OwnerName == "" {
		params.OwnerName = actor.DisplayName
	}

	req, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Request{}, apperr.Unavailable("could not create request", err)
	}

	s.bus.Publish(ctx, events.RequestCreated{
		BaseEvent: events.NewBaseEvent(),
		RequestID: req.ID,
		OwnerID:   req.OwnerID,
	})
	return req, nil
}

// Get returns a single request.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Request{}, apperr.NotFound("request not found")
		}
		return repository.Request{}, apperr.Unavailable("could not load request", err)
	}
	return req, nil
}

// List returns requests, optionally filtered by status and owner.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Request, error) {
	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperr.Unavailable("could not list requests", err)
	}
	return items, nil
}

// ApplyTransition validates and applies a lifecycle transition, appending
// exactly one activity record on success.
//
// Failure modes, in evaluation order: NotFound (no such request),
// Validation (payload precondition), Forbidden (authorization matrix or
// ownership), InvalidTransition (event not legal from the current status),
// Unavailable (persistence outage). A PartialFailure is returned together
// with the updated request when the status write committed but the audit
// append did not; the entry is queued for the repair pass and never retried
// inline.
func (s *Service) ApplyTransition(ctx context.Context, requestID uuid.UUID, actor domain.Actor, event domain.TransitionEvent) (repository.Request, error) {
	req, err := s.Get(ctx, requestID)
	if err != nil {
		return repository.Request{}, err
	}

	if err := event.Validate(); err != nil {
		return repository.Request{}, apperr.Validation(err.Error())
	}

	if !domain.CanTransition(actor.Role, event.EventName()) {
		return repository.Request{}, apperr.Forbidden()
	}
	// Users may only act on requests they own. Admin events apply to any request.
	if actor.Role == domain.RoleUser && req.OwnerID != actor.ID {
		return repository.Request{}, apperr.Forbidden()
	}

	newStatus, ok := domain.Next(req.Status, event.EventName())
	if !ok {
		return repository.Request{}, apperr.InvalidTransition()
	}

	params := repository.TransitionUpdateParams{
		Status:        newStatus,
		LastUpdatedBy: actor.Role.Category(),
	}
	switch e := event.(type) {
	case domain.SubmitServices:
		params.SetServices = e.Services
	case domain.SendQuotation:
		params.SetQuotation = &repository.QuotationUpdate{Price: e.Price, Details: e.Details}
	case domain.ApproveRevision:
		// Destructive reset: rides on the same statement as the status
		// change so both succeed or both fail.
		params.ResetSelection = true
	}

	oldStatus := req.Status
	updated, err := s.repo.ApplyTransition(ctx, requestID, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Request{}, apperr.NotFound("request not found")
		}
		return repository.Request{}, apperr.Unavailable("could not apply transition", err)
	}

	s.syncApprovals(ctx, event, requestID, actor)
	s.log.Transition(requestID.String(), event.EventName(), string(oldStatus), string(newStatus), string(actor.Role))

	// The audit append happens before any event fanout: a transition is not
	// durable until its activity is recorded or queued for repair.
	message := activityMessage(event, actor.DisplayName)
	_, appendErr := s.repo.AppendActivity(ctx, repository.AppendActivityParams{
		RequestID: requestID,
		Message:   message,
		ActorID:   actor.ID,
		ActorName: actor.DisplayName,
		ActorRole: string(actor.Role),
	})

	s.bus.Publish(ctx, events.RequestTransitioned{
		BaseEvent:     events.NewBaseEvent(),
		RequestID:     updated.ID,
		Event:         event.EventName(),
		OldStatus:     string(oldStatus),
		NewStatus:     string(updated.Status),
		ActorID:       actor.ID,
		ActorRole:     string(actor.Role),
		LastUpdatedBy: string(updated.LastUpdatedBy),
	})
	s.announceInvoiceEligibility(ctx, updated)

	if appendErr != nil {
		// Status already committed: this is a partial failure, surfaced
		// distinctly and queued for the audit-repair pass.
		s.log.PartialFailure(requestID.String(), appendErr)
		if s.repairs != nil {
			if qErr := s.repairs.Enqueue(ctx, AuditRepairEntry{
				RequestID: requestID,
				Message:   message,
				ActorID:   actor.ID,
				ActorName: actor.DisplayName,
				ActorRole: string(actor.Role),
			}); qErr != nil {
				s.log.Error("audit repair enqueue failed", "requestId", requestID, "error", qErr)
			}
		}
		return updated, apperr.PartialFailure("transition applied but audit entry could not be recorded", appendErr)
	}

	return updated, nil
}

// syncApprovals keeps the approvals bounded context in step with revision
// transitions. Failures are logged, not surfaced: the approval record is a
// convenience view, the lifecycle status is authoritative.
func (s *Service) syncApprovals(ctx context.Context, event domain.TransitionEvent, requestID uuid.UUID, actor domain.Actor) {
	if s.approvals == nil {
		return
	}
	switch event.(type) {
	case domain.RequestRevision:
		if err := s.approvals.OpenRevision(ctx, requestID, actor); err != nil {
			s.log.Error("could not open revision approval", "requestId", requestID, "error", err)
		}
	case domain.ApproveRevision:
		if err := s.approvals.ResolveRevision(ctx, requestID, actor); err != nil {
			s.log.Error("could not resolve revision approval", "requestId", requestID, "error", err)
		}
	}
}

func (s *Service) announceInvoiceEligibility(ctx context.Context, req repository.Request) {
	if !gate.IsInvoiceEligible(req) {
		return
	}
	evt := events.InvoiceEligible{
		BaseEvent: events.NewBaseEvent(),
		RequestID: req.ID,
		OwnerName: req.OwnerName,
	}
	if req.OwnerEmail != nil {
		evt.OwnerEmail = *req.OwnerEmail
	}
	if req.QuotationPrice != nil {
		evt.Amount = req.QuotationPrice.String()
	}
	s.bus.Publish(ctx, evt)
}

// =============================================================================
// Named commands (§ invoking surface)
// =============================================================================

// SubmitServices confirms the owner's service selection.
func (s *Service) SubmitServices(ctx context.Context, requestID uuid.UUID, actor domain.Actor, services []string) (repository.Request, error) {
	return s.ApplyTransition(ctx, requestID, actor, domain.NewSubmitServices(services))
}

// SendQuotation attaches a priced quotation.
func (s *Service) SendQuotation(ctx context.Context, requestID uuid.UUID, actor domain.Actor, event domain.SendQuotation) (repository.Request, error) {
	return s.ApplyTransition(ctx, requestID, actor, event)
}

// RequestRevision asks for quotation changes.
func (s *Service) RequestRevision(ctx context.Context, requestID uuid.UUID, actor domain.Actor) (repository.Request, error) {
	return s.ApplyTransition(ctx, requestID, actor, domain.NewRequestRevision())
}

// AcceptQuotation approves the quotation and the project.
func (s *Service) AcceptQuotation(ctx context.Context, requestID uuid.UUID, actor domain.Actor) (repository.Request, error) {
	return s.ApplyTransition(ctx, requestID, actor, domain.NewAcceptQuotation())
}

// ApproveRevision grants the revision, resetting selection and quotation.
func (s *Service) ApproveRevision(ctx context.Context, requestID uuid.UUID, actor domain.Actor) (repository.Request, error) {
	return s.ApplyTransition(ctx, requestID, actor, domain.NewApproveRevision())
}

// RequestChange flags a change request on an approved project.
func (s *Service) RequestChange(ctx context.Context, requestID uuid.UUID, actor domain.Actor, reason string) (repository.Request, error) {
	return s.ApplyTransition(ctx, requestID, actor, domain.NewRequestChange(reason))
}

// Package pipeline coordinates drag-and-drop style stage moves over an
// optimistic local view. A move flips the local stage immediately, issues
// the authoritative transition, and restores the exact prior stage when the
// transition comes back as anything other than success. The optimistic
// state is provisional until the authoritative response arrives.
package pipeline

import (
	"context"
	"sync"

	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// TransitionApplier issues the authoritative lifecycle transition.
// Implemented by the lifecycle service.
type TransitionApplier interface {
	ApplyTransition(ctx context.Context, requestID uuid.UUID, actor domain.Actor, event domain.TransitionEvent) (repository.Request, error)
}

// pendingMove is one in-flight optimistic move. At most one exists per
// request id at any time.
type pendingMove struct {
	prior  domain.Status
	target domain.Status
	cancel context.CancelFunc
}

// Coordinator holds the optimistic stage view and serializes moves per
// request id. A second move on a request with one already in flight is
// rejected, never interleaved.
type Coordinator struct {
	applier TransitionApplier
	log     *logger.Logger

	mu      sync.Mutex
	stages  map[uuid.UUID]domain.Status
	pending map[uuid.UUID]*pendingMove
}

// New creates the coordinator.
func New(applier TransitionApplier, log *logger.Logger) *Coordinator {
	return &Coordinator{
		applier: applier,
		log:     log,
		stages:  make(map[uuid.UUID]domain.Status),
		pending: make(map[uuid.UUID]*pendingMove),
	}
}

// Track seeds or refreshes the local view for a request. Ignored while a
// move on that request is in flight; the move's resolution wins.
func (c *Coordinator) Track(requestID uuid.UUID, status domain.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, inFlight := c.pending[requestID]; inFlight {
		return
	}
	c.stages[requestID] = status
}

// Stage returns the request's stage in the local view.
func (c *Coordinator) Stage(requestID uuid.UUID) (domain.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.stages[requestID]
	return status, ok
}

// MoveToStage moves a request to the target stage. The transition event is
// derived from the edge between the current local stage and the target;
// payload-carrying edges get a zero payload and rely on the authoritative
// side to reject them.
func (c *Coordinator) MoveToStage(ctx context.Context, requestID uuid.UUID, actor domain.Actor, target domain.Status) (repository.Request, error) {
	if !domain.IsKnownStatus(target) {
		return repository.Request{}, apperr.Validation("unknown target stage")
	}
	return c.move(ctx, requestID, actor, nil, target)
}

// Move moves a request along the given transition event, for callers that
// carry the event payload with the drag. The target stage is derived from
// the transition table.
func (c *Coordinator) Move(ctx context.Context, requestID uuid.UUID, actor domain.Actor, event domain.TransitionEvent) (repository.Request, error) {
	return c.move(ctx, requestID, actor, event, "")
}

func (c *Coordinator) move(ctx context.Context, requestID uuid.UUID, actor domain.Actor, event domain.TransitionEvent, target domain.Status) (repository.Request, error) {
	if !domain.CanReorder(actor.Role) {
		return repository.Request{}, apperr.Forbidden()
	}

	c.mu.Lock()
	prior, tracked := c.stages[requestID]
	if !tracked {
		c.mu.Unlock()
		return repository.Request{}, apperr.NotFound("request is not on the pipeline board")
	}
	if _, inFlight := c.pending[requestID]; inFlight {
		c.mu.Unlock()
		return repository.Request{}, apperr.Conflict("another move for this request is already in flight")
	}

	if event == nil {
		var ok bool
		if event, ok = eventForEdge(prior, target); !ok {
			c.mu.Unlock()
			return repository.Request{}, apperr.InvalidTransition()
		}
	} else {
		var ok bool
		if target, ok = domain.Next(prior, event.EventName()); !ok {
			c.mu.Unlock()
			return repository.Request{}, apperr.InvalidTransition()
		}
	}

	// Optimistic flip: the local view shows the target stage before the
	// authoritative call resolves.
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()
	move := &pendingMove{prior: prior, target: target, cancel: cancel}
	c.stages[requestID] = target
	c.pending[requestID] = move
	c.mu.Unlock()

	updated, err := c.applier.ApplyTransition(mctx, requestID, actor, event)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending[requestID] != move {
		// Cancelled while in flight: the view was already reverted. When the
		// authoritative side committed anyway, reconcile to its answer.
		if err == nil {
			c.stages[requestID] = updated.Status
			return updated, nil
		}
		return repository.Request{}, apperr.Conflict("move was cancelled")
	}
	delete(c.pending, requestID)

	if err != nil {
		// Every non-success is a rollback trigger: restore the exact prior stage.
		c.stages[requestID] = prior
		c.log.Warn("pipeline move rolled back",
			"requestId", requestID, "from", string(prior), "to", string(target), "error", err)
		if _, ok := err.(*apperr.Error); ok {
			return repository.Request{}, err
		}
		return repository.Request{}, apperr.Unavailable("could not confirm stage move", err)
	}

	c.stages[requestID] = updated.Status
	return updated, nil
}

// Cancel collapses a pending move to a no-op revert before confirmation.
// Returns false when no move is in flight for the request.
func (c *Coordinator) Cancel(requestID uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	move, ok := c.pending[requestID]
	if !ok {
		return false
	}
	move.cancel()
	c.stages[requestID] = move.prior
	delete(c.pending, requestID)
	return true
}

// eventForEdge resolves the transition event connecting two stages.
// Payload-carrying events get zero payloads; the authoritative side
// validates them.
func eventForEdge(from, to domain.Status) (domain.TransitionEvent, bool) {
	for _, name := range domain.EventsFrom(from) {
		next, ok := domain.Next(from, name)
		if !ok || next != to {
			continue
		}
		switch name {
		case domain.EventSubmitServices:
			return domain.SubmitServices{}, true
		case domain.EventSendQuotation:
			return domain.SendQuotation{}, true
		case domain.EventRequestRevision:
			return domain.NewRequestRevision(), true
		case domain.EventAcceptQuotation:
			return domain.NewAcceptQuotation(), true
		case domain.EventApproveRevision:
			return domain.NewApproveRevision(), true
		case domain.EventRequestChange:
			return domain.NewRequestChange(""), true
		}
	}
	return nil, false
}

package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type applierCall struct {
	requestID uuid.UUID
	event     domain.TransitionEvent
}

type fakeApplier struct {
	mu     sync.Mutex
	calls  []applierCall
	result repository.Request
	err    error

	// block, when non-nil, holds the call open until closed or the
	// context is cancelled.
	block   chan struct{}
	started chan struct{}
}

func (f *fakeApplier) ApplyTransition(ctx context.Context, requestID uuid.UUID, _ domain.Actor, event domain.TransitionEvent) (repository.Request, error) {
	f.mu.Lock()
	f.calls = append(f.calls, applierCall{requestID: requestID, event: event})
	block := f.block
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return repository.Request{}, ctx.Err()
		}
	}
	return f.result, f.err
}

func (f *fakeApplier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func adminActor() domain.Actor {
	return domain.Actor{ID: uuid.New(), DisplayName: "Priya", Role: domain.RoleAdmin}
}

func TestMoveToStageConfirms(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{
		result: repository.Request{ID: requestID, Status: domain.StatusQuotationSent},
	}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusServicesSelected)

	updated, err := coord.MoveToStage(context.Background(), requestID, adminActor(), domain.StatusQuotationSent)
	if err != nil {
		t.Fatalf("MoveToStage: %v", err)
	}
	if updated.Status != domain.StatusQuotationSent {
		t.Fatalf("status = %s, want %s", updated.Status, domain.StatusQuotationSent)
	}
	if stage, _ := coord.Stage(requestID); stage != domain.StatusQuotationSent {
		t.Fatalf("local stage = %s, want %s", stage, domain.StatusQuotationSent)
	}
	if applier.callCount() != 1 {
		t.Fatalf("applier calls = %d, want 1", applier.callCount())
	}
	if _, ok := applier.calls[0].event.(domain.SendQuotation); !ok {
		t.Fatalf("derived event = %T, want domain.SendQuotation", applier.calls[0].event)
	}
}

func TestMoveToStageRollsBackOnRejection(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{err: apperr.Forbidden()}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusServicesSelected)

	actor := domain.Actor{ID: uuid.New(), DisplayName: "Ravi", Role: domain.RoleSalesRep}
	_, err := coord.MoveToStage(context.Background(), requestID, actor, domain.StatusQuotationSent)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden", apperr.GetKind(err))
	}
	if stage, _ := coord.Stage(requestID); stage != domain.StatusServicesSelected {
		t.Fatalf("local stage = %s, want exact prior %s", stage, domain.StatusServicesSelected)
	}
}

func TestMoveToStageSerializesPerRequest(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{
		result:  repository.Request{ID: requestID, Status: domain.StatusQuotationSent},
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusServicesSelected)

	done := make(chan error, 1)
	go func() {
		_, err := coord.MoveToStage(context.Background(), requestID, adminActor(), domain.StatusQuotationSent)
		done <- err
	}()
	<-applier.started

	_, err := coord.MoveToStage(context.Background(), requestID, adminActor(), domain.StatusQuotationSent)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("second move kind = %v, want KindConflict", apperr.GetKind(err))
	}

	close(applier.block)
	if err := <-done; err != nil {
		t.Fatalf("first move: %v", err)
	}
	if applier.callCount() != 1 {
		t.Fatalf("applier calls = %d, want 1", applier.callCount())
	}
}

func TestCancelRevertsPendingMove(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusQuotationSent)

	done := make(chan error, 1)
	go func() {
		_, err := coord.MoveToStage(context.Background(), requestID, adminActor(), domain.StatusProjectApproved)
		done <- err
	}()
	<-applier.started

	if !coord.Cancel(requestID) {
		t.Fatal("Cancel returned false with a move in flight")
	}
	if stage, _ := coord.Stage(requestID); stage != domain.StatusQuotationSent {
		t.Fatalf("local stage after cancel = %s, want %s", stage, domain.StatusQuotationSent)
	}

	select {
	case err := <-done:
		if apperr.GetKind(err) != apperr.KindConflict {
			t.Fatalf("cancelled move kind = %v, want KindConflict", apperr.GetKind(err))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled move did not return")
	}
	if coord.Cancel(requestID) {
		t.Fatal("Cancel returned true with no move in flight")
	}
}

func TestMoveToStageUntrackedRequest(t *testing.T) {
	applier := &fakeApplier{}
	coord := New(applier, logger.New("test"))

	_, err := coord.MoveToStage(context.Background(), uuid.New(), adminActor(), domain.StatusQuotationSent)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want KindNotFound", apperr.GetKind(err))
	}
	if applier.callCount() != 0 {
		t.Fatalf("applier calls = %d, want 0", applier.callCount())
	}
}

func TestMoveToStageDeniedRole(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusServicesSelected)

	actor := domain.Actor{ID: uuid.New(), DisplayName: "Meera", Role: domain.RoleSupportAgent}
	_, err := coord.MoveToStage(context.Background(), requestID, actor, domain.StatusQuotationSent)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden", apperr.GetKind(err))
	}
	if applier.callCount() != 0 {
		t.Fatalf("applier calls = %d, want 0", applier.callCount())
	}
}

func TestMoveToStageNoEdge(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusServiceSelectionPending)

	_, err := coord.MoveToStage(context.Background(), requestID, adminActor(), domain.StatusProjectApproved)
	if apperr.GetKind(err) != apperr.KindInvalidTransition {
		t.Fatalf("kind = %v, want KindInvalidTransition", apperr.GetKind(err))
	}
	if stage, _ := coord.Stage(requestID); stage != domain.StatusServiceSelectionPending {
		t.Fatalf("local stage = %s, want unchanged", stage)
	}
	if applier.callCount() != 0 {
		t.Fatalf("applier calls = %d, want 0", applier.callCount())
	}
}

func TestMoveDerivesTargetFromEvent(t *testing.T) {
	requestID := uuid.New()
	applier := &fakeApplier{
		result: repository.Request{ID: requestID, Status: domain.StatusRevisionRequested},
	}
	coord := New(applier, logger.New("test"))
	coord.Track(requestID, domain.StatusQuotationSent)

	actor := domain.Actor{ID: uuid.New(), DisplayName: "Anil", Role: domain.RoleUser}
	updated, err := coord.Move(context.Background(), requestID, actor, domain.NewRequestRevision())
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if updated.Status != domain.StatusRevisionRequested {
		t.Fatalf("status = %s, want %s", updated.Status, domain.StatusRevisionRequested)
	}
	if stage, _ := coord.Stage(requestID); stage != domain.StatusRevisionRequested {
		t.Fatalf("local stage = %s, want %s", stage, domain.StatusRevisionRequested)
	}
}

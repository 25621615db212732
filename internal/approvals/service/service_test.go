package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"crm_portal_backend/internal/approvals/repository"
	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	approvals map[uuid.UUID]repository.ApprovalRequest
}

func newFakeStore() *fakeStore {
	return &fakeStore{approvals: make(map[uuid.UUID]repository.ApprovalRequest)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (repository.ApprovalRequest, error) {
	approval := repository.ApprovalRequest{
		ID:              uuid.New(),
		Type:            params.Type,
		RequestID:       params.RequestID,
		RequestedBy:     params.RequestedBy,
		RequestedByName: params.RequestedByName,
		Details:         params.Details,
		Status:          repository.StatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.approvals[approval.ID] = approval
	return approval, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.ApprovalRequest, error) {
	approval, ok := f.approvals[id]
	if !ok {
		return repository.ApprovalRequest{}, repository.ErrNotFound
	}
	return approval, nil
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) ([]repository.ApprovalRequest, error) {
	out := make([]repository.ApprovalRequest, 0)
	for _, a := range f.approvals {
		if params.Type != "" && a.Type != params.Type {
			continue
		}
		if params.Status != "" && a.Status != params.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) Resolve(_ context.Context, id uuid.UUID, status string, resolvedBy uuid.UUID, resolvedByName string) (repository.ApprovalRequest, error) {
	approval, ok := f.approvals[id]
	if !ok {
		return repository.ApprovalRequest{}, repository.ErrNotFound
	}
	if approval.Status != repository.StatusPending {
		return repository.ApprovalRequest{}, repository.ErrAlreadyResolved
	}
	now := time.Now()
	approval.Status = status
	approval.ResolvedBy = &resolvedBy
	approval.ResolvedByName = &resolvedByName
	approval.ResolvedAt = &now
	f.approvals[id] = approval
	return approval, nil
}

func (f *fakeStore) FindOpenByRequest(_ context.Context, requestID uuid.UUID, approvalType string) (repository.ApprovalRequest, error) {
	for _, a := range f.approvals {
		if a.RequestID != nil && *a.RequestID == requestID && a.Type == approvalType && a.Status == repository.StatusPending {
			return a, nil
		}
	}
	return repository.ApprovalRequest{}, repository.ErrNotFound
}

type fakeBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *fakeBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *fakeBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *fakeBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *fakeStore, *fakeBus) {
	store := newFakeStore()
	bus := &fakeBus{}
	return New(store, bus, logger.New("test")), store, bus
}

func admin() domain.Actor {
	return domain.Actor{ID: uuid.New(), DisplayName: "Priya", Role: domain.RoleAdmin}
}

func TestSubmitAndApprove(t *testing.T) {
	svc, _, bus := newTestService()
	requestID := uuid.New()

	requester := domain.Actor{ID: uuid.New(), DisplayName: "Anil Kumar", Role: domain.RoleUser}
	approval, err := svc.Submit(context.Background(), requester, SubmitParams{
		Type:      repository.TypeSalesRevision,
		RequestID: &requestID,
		Details:   "Quotation revision requested",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if approval.Status != repository.StatusPending {
		t.Fatalf("status = %s, want pending", approval.Status)
	}

	resolved, err := svc.Approve(context.Background(), approval.ID, admin())
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if resolved.Status != repository.StatusApproved {
		t.Fatalf("status = %s, want approved", resolved.Status)
	}
	if resolved.ResolvedBy == nil || resolved.ResolvedAt == nil {
		t.Fatal("resolution fields not set")
	}

	if len(bus.published) != 1 {
		t.Fatalf("published events = %d, want 1", len(bus.published))
	}
	evt := bus.published[0].(events.ApprovalResolved)
	if evt.ApprovalID != approval.ID || evt.Status != repository.StatusApproved {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestResolveIsTerminal(t *testing.T) {
	svc, _, _ := newTestService()
	requestID := uuid.New()

	requester := domain.Actor{ID: uuid.New(), DisplayName: "Anil Kumar", Role: domain.RoleUser}
	approval, err := svc.Submit(context.Background(), requester, SubmitParams{
		Type:      repository.TypeSalesRevision,
		RequestID: &requestID,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if _, err := svc.Deny(context.Background(), approval.ID, admin()); err != nil {
		t.Fatalf("Deny: %v", err)
	}

	_, err = svc.Approve(context.Background(), approval.ID, admin())
	if apperr.GetKind(err) != apperr.KindInvalidTransition {
		t.Fatalf("kind = %v, want KindInvalidTransition", apperr.GetKind(err))
	}

	got, err := svc.Get(context.Background(), approval.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != repository.StatusDenied {
		t.Fatalf("status = %s, want denied to stick", got.Status)
	}
}

func TestResolveRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService()
	requestID := uuid.New()

	requester := domain.Actor{ID: uuid.New(), DisplayName: "Anil Kumar", Role: domain.RoleUser}
	approval, _ := svc.Submit(context.Background(), requester, SubmitParams{
		Type:      repository.TypeSalesRevision,
		RequestID: &requestID,
	})

	rep := domain.Actor{ID: uuid.New(), DisplayName: "Ravi", Role: domain.RoleSalesRep}
	_, err := svc.Approve(context.Background(), approval.ID, rep)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Fatalf("kind = %v, want KindForbidden", apperr.GetKind(err))
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := newTestService()
	requester := domain.Actor{ID: uuid.New(), DisplayName: "Anil Kumar", Role: domain.RoleUser}

	_, err := svc.Submit(context.Background(), requester, SubmitParams{Type: "vacation"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want KindValidation for unknown type", apperr.GetKind(err))
	}

	_, err = svc.Submit(context.Background(), requester, SubmitParams{Type: repository.TypeSalesRevision})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want KindValidation for missing request id", apperr.GetKind(err))
	}

	_, err = svc.Submit(context.Background(), requester, SubmitParams{Type: repository.TypeAttendanceOvertime, Details: "2h overtime on release night"})
	if err != nil {
		t.Fatalf("Submit attendance approval: %v", err)
	}
}

func TestRevisionPortRoundTrip(t *testing.T) {
	svc, store, _ := newTestService()
	requestID := uuid.New()

	user := domain.Actor{ID: uuid.New(), DisplayName: "Anil Kumar", Role: domain.RoleUser}
	if err := svc.OpenRevision(context.Background(), requestID, user); err != nil {
		t.Fatalf("OpenRevision: %v", err)
	}

	open, err := store.FindOpenByRequest(context.Background(), requestID, repository.TypeSalesRevision)
	if err != nil {
		t.Fatalf("no open revision approval: %v", err)
	}

	if err := svc.ResolveRevision(context.Background(), requestID, admin()); err != nil {
		t.Fatalf("ResolveRevision: %v", err)
	}
	resolved, _ := store.GetByID(context.Background(), open.ID)
	if resolved.Status != repository.StatusApproved {
		t.Fatalf("status = %s, want approved", resolved.Status)
	}

	// Resolving again with nothing open is a no-op.
	if err := svc.ResolveRevision(context.Background(), requestID, admin()); err != nil {
		t.Fatalf("ResolveRevision second call: %v", err)
	}
}

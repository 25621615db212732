package gate

import (
	"context"
	"sync"
	"testing"
	"time"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func decPtr(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func strPtr(s string) *string { return &s }

func TestIsInvoiceEligible(t *testing.T) {
	base := repository.Request{
		Status:           domain.StatusProjectApproved,
		QuotationPrice:   decPtr(50000),
		SelectedServices: []string{"Web Development"},
	}

	if !IsInvoiceEligible(base) {
		t.Fatal("approved, priced, with services should be eligible")
	}

	noPrice := base
	noPrice.QuotationPrice = nil
	if IsInvoiceEligible(noPrice) {
		t.Fatal("missing price must not be eligible")
	}

	noServices := base
	noServices.SelectedServices = nil
	if IsInvoiceEligible(noServices) {
		t.Fatal("empty selection must not be eligible")
	}

	wrongStatus := base
	wrongStatus.Status = domain.StatusQuotationSent
	if IsInvoiceEligible(wrongStatus) {
		t.Fatal("only ProjectApproved is eligible")
	}
}

func TestIsCampaignTarget(t *testing.T) {
	req := repository.Request{
		Status:     domain.StatusQuotationSent,
		OwnerEmail: strPtr("anil@example.com"),
	}

	if !IsCampaignTarget(req, domain.StatusQuotationSent) {
		t.Fatal("matching status with email should be a target")
	}
	if IsCampaignTarget(req, domain.StatusProjectApproved) {
		t.Fatal("status mismatch must not be a target")
	}

	noEmail := req
	noEmail.OwnerEmail = nil
	if IsCampaignTarget(noEmail, domain.StatusQuotationSent) {
		t.Fatal("missing owner email must not be a target")
	}
}

type fakeGateReader struct {
	eligible []repository.Request
	targets  []repository.Request
}

func (f *fakeGateReader) ListInvoiceEligible(context.Context) ([]repository.Request, error) {
	return f.eligible, nil
}

func (f *fakeGateReader) ListCampaignTargets(context.Context, domain.Status) ([]repository.Request, error) {
	return f.targets, nil
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

type recordingNotifier struct {
	notified chan uuid.UUID
}

func (n *recordingNotifier) NotifyCampaignTarget(_ context.Context, req repository.Request) error {
	n.notified <- req.ID
	return nil
}

func TestSelectCampaignTargets(t *testing.T) {
	targets := []repository.Request{
		{ID: uuid.New(), Status: domain.StatusQuotationSent, OwnerEmail: strPtr("a@example.com")},
		{ID: uuid.New(), Status: domain.StatusQuotationSent, OwnerEmail: strPtr("b@example.com")},
	}
	repo := &fakeGateReader{targets: targets}
	bus := &fakeBus{}
	svc := New(repo, bus, logger.New("test"))
	notifier := &recordingNotifier{notified: make(chan uuid.UUID, len(targets))}
	svc.SetNotifier(notifier)

	selected, err := svc.SelectCampaignTargets(context.Background(), domain.StatusQuotationSent)
	if err != nil {
		t.Fatalf("SelectCampaignTargets: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("selected = %d, want 2", len(selected))
	}

	bus.mu.Lock()
	if len(bus.published) != 1 {
		bus.mu.Unlock()
		t.Fatalf("published = %d, want 1", len(bus.published))
	}
	evt := bus.published[0].(events.CampaignTargetsSelected)
	bus.mu.Unlock()
	if evt.TargetStatus != string(domain.StatusQuotationSent) || len(evt.RequestIDs) != 2 {
		t.Fatalf("unexpected event: %+v", evt)
	}

	seen := make(map[uuid.UUID]bool)
	for i := 0; i < len(targets); i++ {
		select {
		case id := <-notifier.notified:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatal("notification fan-out did not complete")
		}
	}
	for _, target := range targets {
		if !seen[target.ID] {
			t.Fatalf("request %s was not notified", target.ID)
		}
	}
}

func TestSelectCampaignTargetsUnknownStatus(t *testing.T) {
	svc := New(&fakeGateReader{}, &fakeBus{}, logger.New("test"))

	_, err := svc.SelectCampaignTargets(context.Background(), domain.Status("Archived"))
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("kind = %v, want KindValidation", apperr.GetKind(err))
	}
}

func TestListInvoiceEligible(t *testing.T) {
	eligible := []repository.Request{{ID: uuid.New(), Status: domain.StatusProjectApproved}}
	svc := New(&fakeGateReader{eligible: eligible}, &fakeBus{}, logger.New("test"))

	items, err := svc.ListInvoiceEligible(context.Background())
	if err != nil {
		t.Fatalf("ListInvoiceEligible: %v", err)
	}
	if len(items) != 1 || items[0].ID != eligible[0].ID {
		t.Fatalf("items = %+v", items)
	}
}

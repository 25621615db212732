// Package gate provides the read-only campaign and billing eligibility
// checks. The predicates are pure; the query service evaluates them against
// current persisted state and holds no cache, so it can never desynchronize
// from the lifecycle engine's authoritative status field.
package gate

import (
	"context"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/apperr"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// IsInvoiceEligible reports whether a request is billable: project
// approved, quotation priced, and at least one service selected.
func IsInvoiceEligible(req repository.Request) bool {
	return req.Status == domain.StatusProjectApproved &&
		req.QuotationPrice != nil &&
		len(req.SelectedServices) > 0
}

// IsCampaignTarget reports whether a request qualifies for a bulk
// communication targeting the given status.
func IsCampaignTarget(req repository.Request, target domain.Status) bool {
	return req.Status == target &&
		req.OwnerEmail != nil && *req.OwnerEmail != ""
}

// Notifier is the outward notification collaborator. Calls are
// fire-and-forget from the gate's perspective; delivery is external.
type Notifier interface {
	NotifyCampaignTarget(ctx context.Context, req repository.Request) error
}

// Service answers eligibility queries against the persistence collaborator.
type Service struct {
	repo     repository.GateReader
	bus      events.Bus
	log      *logger.Logger
	notifier Notifier // optional; nil means selection only, no fanout
}

// New creates the gate service.
func New(repo repository.GateReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// SetNotifier injects the notification collaborator.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// ListInvoiceEligible returns the requests currently eligible for invoicing.
func (s *Service) ListInvoiceEligible(ctx context.Context) ([]repository.Request, error) {
	items, err := s.repo.ListInvoiceEligible(ctx)
	if err != nil {
		return nil, apperr.Unavailable("could not query invoice eligibility", err)
	}
	return items, nil
}

// SelectCampaignTargets returns the requests in the target status with an
// owner email on file, publishes the selection, and fans the notification
// out to the collaborator without blocking the caller.
func (s *Service) SelectCampaignTargets(ctx context.Context, target domain.Status) ([]repository.Request, error) {
	if !domain.IsKnownStatus(target) {
		return nil, apperr.Validation("unknown target status")
	}

	items, err := s.repo.ListCampaignTargets(ctx, target)
	if err != nil {
		return nil, apperr.Unavailable("could not query campaign targets", err)
	}

	ids := make([]uuid.UUID, len(items))
	for i, req := range items {
		ids[i] = req.ID
	}
	s.bus.Publish(ctx, events.CampaignTargetsSelected{
		BaseEvent:    events.NewBaseEvent(),
		TargetStatus: string(target),
		RequestIDs:   ids,
	})

	if s.notifier != nil && len(items) > 0 {
		go s.notifyTargets(context.WithoutCancel(ctx), items)
	}

	return items, nil
}

// notifyTargets delivers campaign notifications concurrently. Errors are
// logged only; the selection already succeeded.
func (s *Service) notifyTargets(ctx context.Context, items []repository.Request) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, req := range items {
		g.Go(func() error {
			if err := s.notifier.NotifyCampaignTarget(gctx, req); err != nil {
				s.log.Error("campaign notification failed", "requestId", req.ID, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

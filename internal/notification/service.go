package notification

import (
	"context"
	"fmt"
	"html"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/logger"
)

// stageLabels maps lifecycle statuses to the wording used in campaign mail.
var stageLabels = map[string]string{
	"ServiceSelectionPending": "waiting for your service selection",
	"ServicesSelected":        "being prepared for a quotation",
	"QuotationSent":           "waiting for your review of the quotation",
	"RevisionRequested":       "under revision",
	"ProjectApproved":         "approved and in progress",
	"ChangeRequestPending":    "awaiting a decision on your change request",
}

// Service builds and dispatches the outbound notifications. It implements
// the campaign gate's notifier and subscribes to the invoice eligibility
// event on the bus.
type Service struct {
	sender Sender
	log    *logger.Logger
}

// New creates the notification service.
func New(sender Sender, log *logger.Logger) *Service {
	return &Service{sender: sender, log: log}
}

// RegisterSubscribers attaches the service to the event bus.
func (s *Service) RegisterSubscribers(bus events.Bus) {
	bus.Subscribe(events.InvoiceEligible{}.EventName(), events.HandlerFunc(s.handleInvoiceEligible))
}

// NotifyCampaignTarget sends the campaign email for one selected request.
func (s *Service) NotifyCampaignTarget(ctx context.Context, req repository.Request) error {
	if req.OwnerEmail == nil || *req.OwnerEmail == "" {
		return nil
	}

	label, ok := stageLabels[string(req.Status)]
	if !ok {
		label = "in progress"
	}

	subject := "An update on your request"
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your request is currently %s. Log in to the portal to see the details and next steps.</p>`,
		html.EscapeString(req.OwnerName), label,
	)
	return s.sender.Send(ctx, *req.OwnerEmail, subject, body)
}

func (s *Service) handleInvoiceEligible(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.InvoiceEligible)
	if !ok {
		return nil
	}
	if evt.OwnerEmail == "" {
		return nil
	}

	subject := "Your project is ready for invoicing"
	body := fmt.Sprintf(
		`<p>Hi %s,</p><p>Your project has been approved and the agreed quotation of ₹%s is now ready for invoicing. You will receive the invoice shortly.</p>`,
		html.EscapeString(evt.OwnerName), html.EscapeString(evt.Amount),
	)
	if err := s.sender.Send(ctx, evt.OwnerEmail, subject, body); err != nil {
		s.log.Error("invoice notification failed", "requestId", evt.RequestID, "error", err)
		return err
	}
	return nil
}

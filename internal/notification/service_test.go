package notification

import (
	"context"
	"strings"
	"testing"

	"crm_portal_backend/internal/events"
	"crm_portal_backend/internal/requests/domain"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeSender struct {
	sent []sentMail
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (f *fakeSender) Send(_ context.Context, toEmail, subject, htmlContent string) error {
	f.sent = append(f.sent, sentMail{to: toEmail, subject: subject, body: htmlContent})
	return nil
}

func TestNotifyCampaignTarget(t *testing.T) {
	sender := &fakeSender{}
	svc := New(sender, logger.New("test"))

	email := "anil@example.com"
	req := repository.Request{
		ID:         uuid.New(),
		OwnerName:  "Anil Kumar",
		OwnerEmail: &email,
		Status:     domain.StatusQuotationSent,
	}
	if err := svc.NotifyCampaignTarget(context.Background(), req); err != nil {
		t.Fatalf("NotifyCampaignTarget: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	mail := sender.sent[0]
	if mail.to != email {
		t.Fatalf("to = %s, want %s", mail.to, email)
	}
	if !strings.Contains(mail.body, "Anil Kumar") || !strings.Contains(mail.body, "review of the quotation") {
		t.Fatalf("body = %q", mail.body)
	}
}

func TestNotifyCampaignTargetWithoutEmail(t *testing.T) {
	sender := &fakeSender{}
	svc := New(sender, logger.New("test"))

	req := repository.Request{ID: uuid.New(), OwnerName: "Anil Kumar", Status: domain.StatusQuotationSent}
	if err := svc.NotifyCampaignTarget(context.Background(), req); err != nil {
		t.Fatalf("NotifyCampaignTarget: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("sent = %d, want 0", len(sender.sent))
	}
}

func TestHandleInvoiceEligible(t *testing.T) {
	sender := &fakeSender{}
	svc := New(sender, logger.New("test"))

	evt := events.InvoiceEligible{
		BaseEvent:  events.NewBaseEvent(),
		RequestID:  uuid.New(),
		OwnerEmail: "anil@example.com",
		OwnerName:  "Anil Kumar",
		Amount:     "50000",
	}
	if err := svc.handleInvoiceEligible(context.Background(), evt); err != nil {
		t.Fatalf("handleInvoiceEligible: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	mail := sender.sent[0]
	if mail.subject != "Your project is ready for invoicing" {
		t.Fatalf("subject = %q", mail.subject)
	}
	if !strings.Contains(mail.body, "₹50000") {
		t.Fatalf("body = %q", mail.body)
	}
}

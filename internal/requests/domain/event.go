package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Event names, used as the keys of the transition table and the
// authorization matrix.
const (
	EventSubmitServices  = "submitServices"
	EventSendQuotation   = "sendQuotation"
	EventRequestRevision = "requestRevision"
	EventAcceptQuotation = "acceptQuotation"
	EventApproveRevision = "approveRevision"
	EventRequestChange   = "requestChange"
)

// TransitionEvent is a tagged variant: one concrete type per transition,
// each carrying only the fields that transition requires. Construct values
// with the New* constructors so payload normalization happens in one place.
type TransitionEvent interface {
	// EventName returns the transition's identifier.
	EventName() string
	// Validate checks the event payload preconditions. A non-nil return
	// is a field-level message suitable for a ValidationError.
	Validate() error
}

// SubmitServices confirms the user's service selection.
type SubmitServices struct {
	Services []string
}

// NewSubmitServices builds a SubmitServices event, trimming blank entries.
func NewSubmitServices(services []string) SubmitServices {
	cleaned := make([]string, 0, len(services))
	for _, s := range services {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return SubmitServices{Services: cleaned}
}

func (SubmitServices) EventName() string { return EventSubmitServices }

func (e SubmitServices) Validate() error {
	if len(e.Services) == 0 {
		return fmt.Errorf("services: at least one service must be selected")
	}
	return nil
}

// SendQuotation attaches a priced quotation to the request.
type SendQuotation struct {
	Price   decimal.Decimal
	Details string
}

// NewSendQuotation builds a SendQuotation event.
func NewSendQuotation(price decimal.Decimal, details string) SendQuotation {
	return SendQuotation{Price: price, Details: strings.TrimSpace(details)}
}

func (SendQuotation) EventName() string { return EventSendQuotation }

func (e SendQuotation) Validate() error {
	if !e.Price.IsPositive() {
		return fmt.Errorf("price: must be greater than zero")
	}
	if e.Details == "" {
		return fmt.Errorf("details: must not be empty")
	}
	return nil
}

// RequestRevision asks for changes to a sent quotation.
type RequestRevision struct{}

func NewRequestRevision() RequestRevision { return RequestRevision{} }

func (RequestRevision) EventName() string { return EventRequestRevision }
func (RequestRevision) Validate() error   { return nil }

// AcceptQuotation approves the quotation and the project with it.
type AcceptQuotation struct{}

func NewAcceptQuotation() AcceptQuotation { return AcceptQuotation{} }

func (AcceptQuotation) EventName() string { return EventAcceptQuotation }
func (AcceptQuotation) Validate() error   { return nil }

// ApproveRevision grants a revision request, resetting the request back to
// service selection. Clears selected services and the quotation.
type ApproveRevision struct{}

func NewApproveRevision() ApproveRevision { return ApproveRevision{} }

func (ApproveRevision) EventName() string { return EventApproveRevision }
func (ApproveRevision) Validate() error   { return nil }

// RequestChange flags a change request on an approved project.
type RequestChange struct {
	Reason string
}

func NewRequestChange(reason string) RequestChange {
	return RequestChange{Reason: strings.TrimSpace(reason)}
}

func (RequestChange) EventName() string { return EventRequestChange }
func (RequestChange) Validate() error   { return nil }

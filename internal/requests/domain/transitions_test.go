package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNextCoversFullTransitionTable(t *testing.T) {
	cases := []struct {
		from  Status
		event string
		to    Status
	}{
		{StatusServiceSelectionPending, EventSubmitServices, StatusServicesSelected},
		{StatusServicesSelected, EventSendQuotation, StatusQuotationSent},
		{StatusQuotationSent, EventRequestRevision, StatusRevisionRequested},
		{StatusQuotationSent, EventAcceptQuotation, StatusProjectApproved},
		{StatusRevisionRequested, EventApproveRevision, StatusServiceSelectionPending},
		{StatusProjectApproved, EventRequestChange, StatusChangeRequestPending},
	}

	for _, tc := range cases {
		got, ok := Next(tc.from, tc.event)
		if !ok {
			t.Fatalf("expected %s to be legal from %s", tc.event, tc.from)
		}
		if got != tc.to {
			t.Fatalf("Next(%s, %s) = %s, want %s", tc.from, tc.event, got, tc.to)
		}
	}
}

func TestNextRejectsUndefinedEvents(t *testing.T) {
	cases := []struct {
		from  Status
		event string
	}{
		{StatusServiceSelectionPending, EventSendQuotation},
		{StatusServiceSelectionPending, EventAcceptQuotation},
		{StatusServicesSelected, EventSubmitServices},
		{StatusServicesSelected, EventAcceptQuotation},
		{StatusQuotationSent, EventSubmitServices},
		{StatusRevisionRequested, EventRequestRevision},
		{StatusProjectApproved, EventAcceptQuotation},
		{StatusChangeRequestPending, EventRequestChange},
		{StatusChangeRequestPending, EventSubmitServices},
	}

	for _, tc := range cases {
		if _, ok := Next(tc.from, tc.event); ok {
			t.Fatalf("expected %s to be illegal from %s", tc.event, tc.from)
		}
	}
}

// Every status in the table must be reachable from the initial status by
// walking the table itself, so no request can ever be driven into a status
// outside the documented path.
func TestAllStatusesReachableFromInitial(t *testing.T) {
	reached := map[Status]bool{InitialStatus: true}
	frontier := []Status{InitialStatus}

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, event := range EventsFrom(current) {
			next, ok := Next(current, event)
			if !ok {
				t.Fatalf("EventsFrom returned %s for %s but Next rejected it", event, current)
			}
			if !reached[next] {
				reached[next] = true
				frontier = append(frontier, next)
			}
		}
	}

	for status := range knownStatuses {
		if !reached[status] {
			t.Fatalf("status %s is unreachable from %s", status, InitialStatus)
		}
	}
}

func TestEventValidation(t *testing.T) {
	if err := NewSubmitServices(nil).Validate(); err == nil {
		t.Fatal("expected empty service set to fail validation")
	}
	if err := NewSubmitServices([]string{"  ", ""}).Validate(); err == nil {
		t.Fatal("expected blank-only service set to fail validation")
	}
	if err := NewSubmitServices([]string{"Website"}).Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	if err := NewSendQuotation(decimal.Zero, "details").Validate(); err == nil {
		t.Fatal("expected zero price to fail validation")
	}
	if err := NewSendQuotation(decimal.NewFromInt(-5), "details").Validate(); err == nil {
		t.Fatal("expected negative price to fail validation")
	}
	if err := NewSendQuotation(decimal.NewFromInt(50000), "  ").Validate(); err == nil {
		t.Fatal("expected blank details to fail validation")
	}
	if err := NewSendQuotation(decimal.NewFromInt(50000), "Full build").Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

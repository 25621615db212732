package lifecycle

import (
	"testing"

	"crm_portal_backend/internal/requests/domain"

	"github.com/shopspring/decimal"
)

func TestFormatRupees(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"500", "500"},
		{"50000", "50,000"},
		{"100000", "1,00,000"},
		{"1234567", "12,34,567"},
		{"123456789", "12,34,56,789"},
		{"50000.5", "50,000.50"},
		{"-1234567", "-12,34,567"},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", tc.in, err)
		}
		if got := formatRupees(amount); got != tc.want {
			t.Fatalf("formatRupees(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestActivityMessages(t *testing.T) {
	cases := []struct {
		event domain.TransitionEvent
		want  string
	}{
		{domain.NewSubmitServices([]string{"Web Development", "SEO"}), "Anil confirmed services: Web Development, SEO."},
		{domain.NewSendQuotation(decimal.NewFromInt(50000), "CMS"), "Anil sent a quotation of ₹50,000."},
		{domain.NewRequestRevision(), "Anil requested a revision of the quotation."},
		{domain.NewAcceptQuotation(), "Anil accepted the quotation and approved the project."},
		{domain.NewApproveRevision(), "Anil approved the revision request. Service selection and quotation were reset."},
		{domain.NewRequestChange("new logo"), "Anil requested a change on the approved project: new logo"},
		{domain.NewRequestChange(""), "Anil requested a change on the approved project."},
	}
	for _, tc := range cases {
		if got := activityMessage(tc.event, "Anil"); got != tc.want {
			t.Fatalf("activityMessage(%s) = %q, want %q", tc.event.EventName(), got, tc.want)
		}
	}
}

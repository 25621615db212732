package lifecycle

import (
	"fmt"
	"strings"

	"crm_portal_backend/internal/requests/domain"

	"github.com/shopspring/decimal"
)

// activityMessage renders the natural-language audit entry for a
// successful transition.
func activityMessage(event domain.TransitionEvent, actorName string) string {
	switch e := event.(type) {
	case domain.SubmitServices:
		return fmt.Sprintf("%s confirmed services: %s.", actorName, strings.Join(e.Services, ", "))
	case domain.SendQuotation:
		return fmt.Sprintf("%s sent a quotation of ₹%s.", actorName, formatRupees(e.Price))
	case domain.RequestRevision:
		return fmt.Sprintf("%s requested a revision of the quotation.", actorName)
	case domain.AcceptQuotation:
		return fmt.Sprintf("%s accepted the quotation and approved the project.", actorName)
	case domain.ApproveRevision:
		return fmt.Sprintf("%s approved the revision request. Service selection and quotation were reset.", actorName)
	case domain.RequestChange:
		if e.Reason != "" {
			return fmt.Sprintf("%s requested a change on the approved project: %s", actorName, e.Reason)
		}
		return fmt.Sprintf("%s requested a change on the approved project.", actorName)
	default:
		return fmt.Sprintf("%s performed %s.", actorName, event.EventName())
	}
}

// formatRupees renders a decimal amount with Indian digit grouping:
// the last three digits form one group, the rest group in pairs
// (e.g. 50000 -> 50,000 and 1234567 -> 12,34,567).
func formatRupees(amount decimal.Decimal) string {
	text := amount.StringFixed(0)
	if !amount.Equal(amount.Truncate(0)) {
		text = amount.StringFixed(2)
	}

	intPart := text
	fracPart := ""
	if dot := strings.IndexByte(text, '.'); dot >= 0 {
		intPart, fracPart = text[:dot], text[dot:]
	}

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(append(groups, tail), ",")
	}

	if neg {
		intPart = "-" + intPart
	}
	return intPart + fracPart
}

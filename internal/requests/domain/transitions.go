package domain

// transitions is the lifecycle state machine. A missing entry means the
// event is not legal from that status. There is no terminal status:
// ChangeRequestPending is resolved manually outside this engine.
var transitions = map[Status]map[string]Status{
	StatusServiceSelectionPending: {
		EventSubmitServices: StatusServicesSelected,
	},
	StatusServicesSelected: {
		EventSendQuotation: StatusQuotationSent,
	},
	StatusQuotationSent: {
		EventRequestRevision: StatusRevisionRequested,
		EventAcceptQuotation: StatusProjectApproved,
	},
	StatusRevisionRequested: {
		EventApproveRevision: StatusServiceSelectionPending,
	},
	StatusProjectApproved: {
		EventRequestChange: StatusChangeRequestPending,
	},
}

// Next returns the status reached by applying event from current.
// The second return is false when the event is not defined for current.
func Next(current Status, event string) (Status, bool) {
	next, ok := transitions[current]
	if !ok {
		return "", false
	}
	to, ok := next[event]
	return to, ok
}

// EventsFrom returns the event names legal from the given status.
// Used by handlers to advertise available actions.
func EventsFrom(current Status) []string {
	next := transitions[current]
	out := make([]string, 0, len(next))
	for name := range next {
		out = append(out, name)
	}
	return out
}

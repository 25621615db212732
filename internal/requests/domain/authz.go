package domain

// eventRoles is the authorization matrix: which roles may invoke which
// transition event. Any (role, event) pair absent here is denied, never
// silently ignored. Ownership of user-tagged events is enforced by the
// lifecycle service, which knows the request's owner.
var eventRoles = map[string]map[Role]bool{
	EventSubmitServices:  {RoleUser: true},
	EventSendQuotation:   {RoleAdmin: true},
	EventRequestRevision: {RoleUser: true},
	EventAcceptQuotation: {RoleUser: true},
	EventApproveRevision: {RoleAdmin: true},
	EventRequestChange:   {RoleUser: true, RoleAdmin: true},
}

// CanTransition reports whether role is authorized to invoke event.
func CanTransition(role Role, event string) bool {
	allowed, ok := eventRoles[event]
	if !ok {
		return false
	}
	return allowed[role]
}

// CanReorder reports whether role may use the pipeline drag-and-drop
// reorder surface. sales_rep holds the capability even though the matrix
// above still decides each individual transition.
func CanReorder(role Role) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSalesRep:
		return true
	default:
		return false
	}
}

// Package domain provides core business rules for the requests bounded context:
// the lifecycle status machine, transition events, and the authorization matrix.
// Everything in this package is pure; nothing here touches I/O or a clock.
package domain

// Status is the lifecycle status of a request.
type Status string

const (
	StatusServiceSelectionPending Status = "ServiceSelectionPending"
	StatusServicesSelected        Status = "ServicesSelected"
	StatusQuotationSent           Status = "QuotationSent"
	StatusRevisionRequested       Status = "RevisionRequested"
	StatusProjectApproved         Status = "ProjectApproved"
	StatusChangeRequestPending    Status = "ChangeRequestPending"
)

// InitialStatus is the status every request starts in.
const InitialStatus = StatusServiceSelectionPending

var knownStatuses = map[Status]struct{}{
	StatusServiceSelectionPending: {},
	StatusServicesSelected:        {},
	StatusQuotationSent:           {},
	StatusRevisionRequested:       {},
	StatusProjectApproved:         {},
	StatusChangeRequestPending:    {},
}

// IsKnownStatus reports whether stage names a valid lifecycle status.
func IsKnownStatus(status Status) bool {
	_, ok := knownStatuses[status]
	return ok
}

// ActorCategory distinguishes the two sides of the conversation for the
// unread-badge mechanism. Staff roles all collapse to CategoryAdmin.
type ActorCategory string

const (
	CategoryUser  ActorCategory = "user"
	CategoryAdmin ActorCategory = "admin"
)

// Role is an actor role as supplied by the identity collaborator.
type Role string

const (
	RoleUser         Role = "user"
	RoleAdmin        Role = "admin"
	RoleSalesRep     Role = "sales_rep"
	RoleSupportAgent Role = "support_agent"
)

// Category maps a role to the lastUpdatedBy category recorded on a request.
func (r Role) Category() ActorCategory {
	if r == RoleUser {
		return CategoryUser
	}
	return CategoryAdmin
}

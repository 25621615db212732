// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"crm_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Request Lifecycle Events
// =============================================================================

// RequestCreated is published when a new request enters the pipeline.
type RequestCreated struct {
	BaseEvent
	RequestID uuid.UUID `json:"requestId"`
	OwnerID   uuid.UUID `json:"ownerId"`
}

func (e RequestCreated) EventName() string { return "requests.created" }

// RequestTransitioned is published after every successful lifecycle
// transition. Consumers (scoring staleness observers, notifications) read
// derived state lazily; the event carries only identifiers and statuses.
type RequestTransitioned struct {
	BaseEvent
	RequestID     uuid.UUID `json:"requestId"`
	Event         string    `json:"event"`
	OldStatus     string    `json:"oldStatus"`
	NewStatus     string    `json:"newStatus"`
	ActorID       uuid.UUID `json:"actorId"`
	ActorRole     string    `json:"actorRole"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

func (e RequestTransitioned) EventName() string { return "requests.transitioned" }

// InvoiceEligible is published when a transition makes a request billable
// (project approved with a priced quotation and selected services).
type InvoiceEligible struct {
	BaseEvent
	RequestID  uuid.UUID `json:"requestId"`
	OwnerEmail string    `json:"ownerEmail,omitempty"`
	OwnerName  string    `json:"ownerName"`
	Amount     string    `json:"amount"`
}

func (e InvoiceEligible) EventName() string { return "requests.invoice.eligible" }

// CampaignTargetsSelected is published after the campaign gate selects a
// batch of requests for bulk communication.
type CampaignTargetsSelected struct {
	BaseEvent
	TargetStatus string      `json:"targetStatus"`
	RequestIDs   []uuid.UUID `json:"requestIds"`
}

func (e CampaignTargetsSelected) EventName() string { return "requests.campaign.targets_selected" }

// =============================================================================
// Approval Events
// =============================================================================

// ApprovalResolved is published when an approval request leaves pending.
type ApprovalResolved struct {
	BaseEvent
	ApprovalID uuid.UUID  `json:"approvalId"`
	RequestID  *uuid.UUID `json:"requestId,omitempty"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
}

func (e ApprovalResolved) EventName() string { return "approvals.resolved" }

package repository

import (
	"context"

	"crm_portal_backend/internal/requests/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// RequestReader provides read-only access to request documents.
type RequestReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Request, error)
	List(ctx context.Context, params ListParams) ([]Request, error)
}

// RequestWriter provides the write operations of the lifecycle engine.
type RequestWriter interface {
	Create(ctx context.Context, params CreateRequestParams) (Request, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, params TransitionUpdateParams) (Request, error)
}

// ActivityAppender records audit-trail entries. Append-only: there is no
// update or delete in the public contract.
type ActivityAppender interface {
	AppendActivity(ctx context.Context, params AppendActivityParams) (Activity, error)
}

// ActivityReader provides the two ordered views over the audit trail.
type ActivityReader interface {
	ListActivitiesDesc(ctx context.Context, requestID uuid.UUID, pageSize int, cursor string) (ActivityPage, error)
	ListActivitiesAsc(ctx context.Context, requestID uuid.UUID) ([]Activity, error)
}

// ScoreStore persists recomputed lead scores.
type ScoreStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (Request, error)
	UpdateScore(ctx context.Context, id uuid.UUID, score int, reasoning []string) (Request, error)
}

// GateReader provides the campaign/billing eligibility queries.
type GateReader interface {
	ListInvoiceEligible(ctx context.Context) ([]Request, error)
	ListCampaignTargets(ctx context.Context, target domain.Status) ([]Request, error)
}

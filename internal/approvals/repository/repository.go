// Package repository provides PostgreSQL persistence for approval requests.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("approval request not found")
	ErrAlreadyResolved = errors.New("approval request already resolved")
)

// Approval types.
const (
	TypeSalesRevision      = "sales_revision"
	TypeAttendanceOvertime = "attendance_overtime"
	TypeAttendanceBreak    = "attendance_break"
)

// Approval statuses. Pending is the only non-terminal status.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

// KnownType reports whether t names a supported approval type.
func KnownType(t string) bool {
	switch t {
	case TypeSalesRevision, TypeAttendanceOvertime, TypeAttendanceBreak:
		return true
	}
	return false
}

// ApprovalRequest is one pending or resolved approval. The same shape
// serves sales revision approvals and attendance approvals; RequestID is
// set only for the former.
type ApprovalRequest struct {
	ID              uuid.UUID
	Type            string
	RequestID       *uuid.UUID
	RequestedBy     uuid.UUID
	RequestedByName string
	Details         string
	Status          string
	ResolvedBy      *uuid.UUID
	ResolvedByName  *string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
	UpdatedAt       time.Time
}

type CreateParams struct {
	Type            string
	RequestID       *uuid.UUID
	RequestedBy     uuid.UUID
	RequestedByName string
	Details         string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const approvalSelectCols = `
	id, type, request_id, requested_by, requested_by_name, details,
	status, resolved_by, resolved_by_name, created_at, resolved_at, updated_at`

// Create opens a new pending approval.
func (r *Repository) Create(ctx context.Context, params CreateParams) (ApprovalRequest, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO approval_requests (type, request_id, requested_by, requested_by_name, details, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+approvalSelectCols,
		params.Type, params.RequestID, params.RequestedBy, params.RequestedByName, params.Details, StatusPending,
	)
	return scanApproval(row)
}

// GetByID returns the approval with the given id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (ApprovalRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+approvalSelectCols+`
		FROM approval_requests
		WHERE id = $1
	`, id)
	approval, err := scanApproval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ApprovalRequest{}, ErrNotFound
	}
	return approval, err
}

// ListParams filters the approval listing. Zero values mean no filter.
type ListParams struct {
	Type   string
	Status string
	Limit  int
}

// List returns approvals newest first.
func (r *Repository) List(ctx context.Context, params ListParams) ([]ApprovalRequest, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+approvalSelectCols+`
		FROM approval_requests
		WHERE ($1 = '' OR type = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, params.Type, params.Status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ApprovalRequest, 0)
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, approval)
	}
	return items, rows.Err()
}

// Resolve moves a pending approval to a terminal status. The pending guard
// sits in the statement itself so a resolved approval can never flip again.
// Returns ErrAlreadyResolved when the approval exists but left pending,
// ErrNotFound when it does not exist.
func (r *Repository) Resolve(ctx context.Context, id uuid.UUID, status string, resolvedBy uuid.UUID, resolvedByName string) (ApprovalRequest, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE approval_requests
		SET status = $2, resolved_by = $3, resolved_by_name = $4, resolved_at = now(), updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING`+approvalSelectCols,
		id, status, resolvedBy, resolvedByName, StatusPending,
	)
	approval, err := scanApproval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr == nil {
			return ApprovalRequest{}, ErrAlreadyResolved
		}
		return ApprovalRequest{}, ErrNotFound
	}
	return approval, err
}

// FindOpenByRequest returns the pending approval of the given type attached
// to a lifecycle request, or ErrNotFound.
func (r *Repository) FindOpenByRequest(ctx context.Context, requestID uuid.UUID, approvalType string) (ApprovalRequest, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+approvalSelectCols+`
		FROM approval_requests
		WHERE request_id = $1 AND type = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1
	`, requestID, approvalType, StatusPending)
	approval, err := scanApproval(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ApprovalRequest{}, ErrNotFound
	}
	return approval, err
}

type approvalRowScanner interface {
	Scan(dest ...any) error
}

func scanApproval(s approvalRowScanner) (ApprovalRequest, error) {
	var a ApprovalRequest
	err := s.Scan(
		&a.ID,
		&a.Type,
		&a.RequestID,
		&a.RequestedBy,
		&a.RequestedByName,
		&a.Details,
		&a.Status,
		&a.ResolvedBy,
		&a.ResolvedByName,
		&a.CreatedAt,
		&a.ResolvedAt,
		&a.UpdatedAt,
	)
	return a, err
}

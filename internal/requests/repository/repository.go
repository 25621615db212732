// Package repository provides PostgreSQL persistence for the requests
// bounded context: request documents, their append-only activity trail,
// and the supporting queries for the campaign/billing gate.
package repository

import (
	"context"
	"errors"
	"time"

	"crm_portal_backend/internal/requests/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("request not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Request is one lead/project tracked through the sales lifecycle.
type Request struct {
	ID                 uuid.UUID
	OwnerID            uuid.UUID
	OwnerName          string
	OwnerEmail         *string
	Company            *string
	Message            string
	Status             domain.Status
	SelectedServices   []string
	QuotationPrice     *decimal.Decimal
	QuotationDetails   *string
	LeadScore          *int
	LeadScoreReasoning []string
	LastUpdatedBy      domain.ActorCategory
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type CreateRequestParams struct {
	OwnerID    uuid.UUID
	OwnerName  string
	OwnerEmail *string
	Company    *string
	Message    string
}

const requestSelectCols = `
	id, owner_id, owner_name, owner_email, company, message, status,
	selected_services, quotation_price::text, quotation_details,
	lead_score, lead_score_reasoning, last_updated_by, created_at, updated_at`

// requestRowScanner is satisfied by pgx.Rows and pgx.Row so scanRequest can
// be shared between single-row and multi-row queries.
type requestRowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(s requestRowScanner) (Request, error) {
	var req Request
	var status, lastUpdatedBy string
	var rawPrice *string
	if err := s.Scan(
		&req.ID,
		&req.OwnerID,
		&req.OwnerName,
		&req.OwnerEmail,
		&req.Company,
		&req.Message,
		&status,
		&req.SelectedServices,
		&rawPrice,
		&req.QuotationDetails,
		&req.LeadScore,
		&req.LeadScoreReasoning,
		&lastUpdatedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return Request{}, err
	}
	req.Status = domain.Status(status)
	req.LastUpdatedBy = domain.ActorCategory(lastUpdatedBy)
	if rawPrice != nil {
		if price, err := decimal.NewFromString(*rawPrice); err == nil {
			req.QuotationPrice = &price
		}
	}
	return req, nil
}

// Create inserts a new request in the initial status.
func (r *Repository) Create(ctx context.Context, params CreateRequestParams) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO requests (owner_id, owner_name, owner_email, company, message, status, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING`+requestSelectCols,
		params.OwnerID, params.OwnerName, params.OwnerEmail, params.Company, params.Message,
		string(domain.InitialStatus), string(domain.CategoryUser),
	)
	return scanRequest(row)
}

// GetByID returns the request with the given id, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+requestSelectCols+`
		FROM requests
		WHERE id = $1
	`, id)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// ListParams filters the request listing. Zero values mean no filter.
type ListParams struct {
	Status  domain.Status
	OwnerID uuid.UUID
	Limit   int
	Offset  int
}

// List returns requests newest first, optionally filtered by status and owner.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Request, error) {
	limit := params.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+requestSelectCols+`
		FROM requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2::uuid IS NULL OR owner_id = $2)
		ORDER BY updated_at DESC
		LIMIT $3 OFFSET $4
	`, string(params.Status), nullableUUID(params.OwnerID), limit, params.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, req)
	}
	return items, rows.Err()
}

// QuotationUpdate carries the quotation fields written by sendQuotation.
type QuotationUpdate struct {
	Price   decimal.Decimal
	Details string
}

// TransitionUpdateParams is the partial update applied by a lifecycle
// transition. Exactly one status write per transition; optional field
// groups are applied in the same statement so the whole update is atomic.
type TransitionUpdateParams struct {
	Status        domain.Status
	LastUpdatedBy domain.ActorCategory
	// SetServices replaces selected_services when non-nil.
	SetServices []string
	// SetQuotation writes quotation_price and quotation_details when non-nil.
	SetQuotation *QuotationUpdate
	// ResetSelection clears selected_services, quotation_price and
	// quotation_details. Used by approveRevision; the clear rides on the
	// same UPDATE as the status change so both succeed or both fail.
	ResetSelection bool
}

// ApplyTransition persists a lifecycle transition. Returns ErrNotFound when
// the request does not exist.
func (r *Repository) ApplyTransition(ctx context.Context, id uuid.UUID, params TransitionUpdateParams) (Request, error) {
	var price *string
	var details *string
	if params.SetQuotation != nil {
		p := params.SetQuotation.Price.String()
		price = &p
		details = &params.SetQuotation.Details
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE requests
		SET status = $2,
		    last_updated_by = $3,
		    selected_services = CASE
		        WHEN $4::bool THEN '{}'::text[]
		        WHEN $5::text[] IS NOT NULL THEN $5
		        ELSE selected_services
		    END,
		    quotation_price = CASE
		        WHEN $4::bool THEN NULL
		        WHEN $6::numeric IS NOT NULL THEN $6
		        ELSE quotation_price
		    END,
		    quotation_details = CASE
		        WHEN $4::bool THEN NULL
		        WHEN $7::text IS NOT NULL THEN $7
		        ELSE quotation_details
		    END,
		    updated_at = now()
		WHERE id = $1
		RETURNING`+requestSelectCols,
		id, string(params.Status), string(params.LastUpdatedBy),
		params.ResetSelection, params.SetServices, price, details,
	)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// UpdateScore persists a recomputed lead score with its reasoning trail.
func (r *Repository) UpdateScore(ctx context.Context, id uuid.UUID, score int, reasoning []string) (Request, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE requests
		SET lead_score = $2, lead_score_reasoning = $3, updated_at = now()
		WHERE id = $1
		RETURNING`+requestSelectCols,
		id, score, reasoning,
	)
	req, err := scanRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	return req, err
}

// Exists reports whether a request with the given id exists.
func (r *Repository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Ping checks database liveness for readiness probes.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

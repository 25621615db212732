package repository

import (
	"context"

	"crm_portal_backend/internal/requests/domain"
)

// Gate queries are evaluated against current persisted state at call time.
// No cache sits between these reads and the lifecycle engine's writes, so
// they cannot desynchronize from the authoritative status field.

// ListInvoiceEligible returns requests that are billable: project approved,
// quotation priced, and at least one service selected.
func (r *Repository) ListInvoiceEligible(ctx context.Context) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+requestSelectCols+`
		FROM requests
		WHERE status = $1
		  AND quotation_price IS NOT NULL
		  AND cardinality(selected_services) > 0
		ORDER BY updated_at DESC
	`, string(domain.StatusProjectApproved))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

// ListCampaignTargets returns requests in the target status whose owner has
// an email address on file.
func (r *Repository) ListCampaignTargets(ctx context.Context, target domain.Status) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+requestSelectCols+`
		FROM requests
		WHERE status = $1
		  AND owner_email IS NOT NULL
		  AND owner_email <> ''
		ORDER BY updated_at DESC
	`, string(target))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

func collectRequests(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Request, error) {
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

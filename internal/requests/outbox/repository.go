// Package outbox persists failed audit appends so the repair pass can
// replay them. A transition whose status write committed but whose
// activity append failed lands here instead of being retried inline.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Entry statuses.
const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// maxAttempts is the replay budget before an entry is parked as failed.
const maxAttempts = 5

// Entry is one queued audit append awaiting replay.
type Entry struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	Message   string
	ActorID   uuid.UUID
	ActorName string
	ActorRole string
	Status    string
	Attempts  int
	LastError *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type EnqueueParams struct {
	RequestID uuid.UUID
	Message   string
	ActorID   uuid.UUID
	ActorName string
	ActorRole string
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const entrySelectCols = `
	id, request_id, message, actor_id, actor_name, actor_role,
	status, attempts, last_error, created_at, updated_at`

// Enqueue stores a failed audit append for the repair pass.
func (r *Repository) Enqueue(ctx context.Context, params EnqueueParams) (Entry, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO audit_repair_outbox (request_id, message, actor_id, actor_name, actor_role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING`+entrySelectCols,
		params.RequestID, params.Message, params.ActorID, params.ActorName, params.ActorRole, StatusPending,
	)
	return scanEntry(row)
}

// ListPending returns up to limit pending entries, oldest first, so replay
// preserves the original append order per request.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+entrySelectCols+`
		FROM audit_repair_outbox
		WHERE status = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2
	`, StatusPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, entry)
	}
	return items, rows.Err()
}

// MarkSucceeded closes an entry after a successful replay.
func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audit_repair_outbox
		SET status = $2, attempts = attempts + 1, last_error = NULL, updated_at = now()
		WHERE id = $1
	`, id, StatusSucceeded)
	return err
}

// MarkAttemptFailed records a failed replay. The entry stays pending until
// the attempt budget runs out, then it is parked as failed.
func (r *Repository) MarkAttemptFailed(ctx context.Context, id uuid.UUID, cause string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audit_repair_outbox
		SET attempts = attempts + 1,
		    last_error = $2,
		    status = CASE WHEN attempts + 1 >= $3 THEN $4 ELSE status END,
		    updated_at = now()
		WHERE id = $1
	`, id, cause, maxAttempts, StatusFailed)
	return err
}

type entryRowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s entryRowScanner) (Entry, error) {
	var e Entry
	err := s.Scan(
		&e.ID,
		&e.RequestID,
		&e.Message,
		&e.ActorID,
		&e.ActorName,
		&e.ActorRole,
		&e.Status,
		&e.Attempts,
		&e.LastError,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

package repository

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Activity is one immutable entry in a request's audit trail. The
// repository exposes no update or delete for activities; append-only is
// enforced by the absence of those operations from the contract.
type Activity struct {
	ID        uuid.UUID
	RequestID uuid.UUID
	Message   string
	ActorID   uuid.UUID
	ActorName string
	ActorRole string
	CreatedAt time.Time
}

type AppendActivityParams struct {
	RequestID uuid.UUID
	Message   string
	ActorID   uuid.UUID
	ActorName string
	ActorRole string
}

var ErrInvalidCursor = errors.New("invalid cursor")

const activitySelectCols = `
	id, request_id, message, actor_id, actor_name, actor_role, created_at`

// AppendActivity records an activity on an existing request. Returns
// ErrNotFound when the parent request does not exist.
func (r *Repository) AppendActivity(ctx context.Context, params AppendActivityParams) (Activity, error) {
	exists, err := r.Exists(ctx, params.RequestID)
	if err != nil {
		return Activity{}, err
	}
	if !exists {
		return Activity{}, ErrNotFound
	}

	var activity Activity
	err = r.pool.QueryRow(ctx, `
		INSERT INTO request_activities (request_id, message, actor_id, actor_name, actor_role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING`+activitySelectCols,
		params.RequestID, params.Message, params.ActorID, params.ActorName, params.ActorRole,
	).Scan(
		&activity.ID,
		&activity.RequestID,
		&activity.Message,
		&activity.ActorID,
		&activity.ActorName,
		&activity.ActorRole,
		&activity.CreatedAt,
	)
	return activity, err
}

// ActivityPage is one page of the descending "latest N" feed.
type ActivityPage struct {
	Items []Activity
	// NextCursor restarts the sequence after the last item. Empty when
	// the page was not full.
	NextCursor string
}

// ListActivitiesDesc returns activities newest first in pages, restartable
// from an opaque cursor. Ordering is total: created_at descending with id
// as tie-break.
func (r *Repository) ListActivitiesDesc(ctx context.Context, requestID uuid.UUID, pageSize int, cursor string) (ActivityPage, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	after, afterID, err := decodeActivityCursor(cursor)
	if err != nil {
		return ActivityPage{}, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT`+activitySelectCols+`
		FROM request_activities
		WHERE request_id = $1
		  AND ($2::timestamptz IS NULL OR (created_at, id) < ($2, $3))
		ORDER BY created_at DESC, id DESC
		LIMIT $4
	`, requestID, after, afterID, pageSize)
	if err != nil {
		return ActivityPage{}, err
	}
	defer rows.Close()

	items, err := collectActivities(rows)
	if err != nil {
		return ActivityPage{}, err
	}

	page := ActivityPage{Items: items}
	if len(items) == pageSize {
		last := items[len(items)-1]
		page.NextCursor = encodeActivityCursor(last.CreatedAt, last.ID)
	}
	return page, nil
}

// ListActivitiesAsc returns the full history oldest first, for the
// complete audit display.
func (r *Repository) ListActivitiesAsc(ctx context.Context, requestID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT`+activitySelectCols+`
		FROM request_activities
		WHERE request_id = $1
		ORDER BY created_at ASC, id ASC
	`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectActivities(rows)
}

func collectActivities(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]Activity, error) {
	items := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.RequestID, &a.Message, &a.ActorID, &a.ActorName, &a.ActorRole, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// encodeActivityCursor packs (created_at, id) into an opaque token.
func encodeActivityCursor(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%s|%s", createdAt.UTC().Format(time.RFC3339Nano), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeActivityCursor(cursor string) (*time.Time, *uuid.UUID, error) {
	if cursor == "" {
		return nil, nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, nil, ErrInvalidCursor
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 {
		return nil, nil, ErrInvalidCursor
	}
	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, nil, ErrInvalidCursor
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, nil, ErrInvalidCursor
	}
	return &ts, &id, nil
}

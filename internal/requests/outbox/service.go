package outbox

import (
	"context"
	"time"

	"crm_portal_backend/internal/requests/lifecycle"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence contract of the outbox.
type Store interface {
	Enqueue(ctx context.Context, params EnqueueParams) (Entry, error)
	ListPending(ctx context.Context, limit int) ([]Entry, error)
	MarkSucceeded(ctx context.Context, id uuid.UUID) error
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, cause string) error
}

// RepairScheduler kicks a background repair pass. Implemented by the
// asynq scheduler client.
type RepairScheduler interface {
	ScheduleAuditRepair(ctx context.Context, delay time.Duration) error
}

// repairDelay gives a transient activity-store outage time to clear
// before the first replay attempt.
const repairDelay = 30 * time.Second

// Queue adapts the outbox store to the lifecycle engine's repair port.
type Queue struct {
	store     Store
	scheduler RepairScheduler // optional
	log       *logger.Logger
}

// NewQueue creates the lifecycle-facing enqueue adapter.
func NewQueue(store Store, log *logger.Logger) *Queue {
	return &Queue{store: store, log: log}
}

// SetScheduler injects the background scheduler that triggers repair passes.
func (q *Queue) SetScheduler(s RepairScheduler) {
	q.scheduler = s
}

// Enqueue stores a failed audit append for later replay and kicks a
// delayed repair pass. The entry is durable once stored; a scheduling
// failure is logged only.
func (q *Queue) Enqueue(ctx context.Context, entry lifecycle.AuditRepairEntry) error {
	stored, err := q.store.Enqueue(ctx, EnqueueParams{
		RequestID: entry.RequestID,
		Message:   entry.Message,
		ActorID:   entry.ActorID,
		ActorName: entry.ActorName,
		ActorRole: entry.ActorRole,
	})
	if err != nil {
		return err
	}

	if q.scheduler != nil {
		if schedErr := q.scheduler.ScheduleAuditRepair(ctx, repairDelay); schedErr != nil {
			q.log.Error("could not schedule audit repair pass",
				"entryId", stored.ID, "requestId", stored.RequestID, "error", schedErr)
		}
	}
	return nil
}

// Repairer replays queued audit appends against the activity store.
type Repairer struct {
	store      Store
	activities repository.ActivityAppender
	log        *logger.Logger
}

// NewRepairer creates the repair pass.
func NewRepairer(store Store, activities repository.ActivityAppender, log *logger.Logger) *Repairer {
	return &Repairer{store: store, activities: activities, log: log}
}

// Run replays up to batchSize pending entries and returns how many were
// repaired. Per-entry failures are recorded on the entry and do not stop
// the batch; only an outage listing the batch itself is returned as error.
func (r *Repairer) Run(ctx context.Context, batchSize int) (int, error) {
	entries, err := r.store.ListPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, entry := range entries {
		_, appendErr := r.activities.AppendActivity(ctx, repository.AppendActivityParams{
			RequestID: entry.RequestID,
			Message:   entry.Message,
			ActorID:   entry.ActorID,
			ActorName: entry.ActorName,
			ActorRole: entry.ActorRole,
		})
		if appendErr != nil {
			r.log.Error("audit repair replay failed",
				"entryId", entry.ID, "requestId", entry.RequestID, "attempts", entry.Attempts+1, "error", appendErr)
			if markErr := r.store.MarkAttemptFailed(ctx, entry.ID, appendErr.Error()); markErr != nil {
				return repaired, markErr
			}
			continue
		}
		if markErr := r.store.MarkSucceeded(ctx, entry.ID); markErr != nil {
			return repaired, markErr
		}
		repaired++
	}

	if repaired > 0 {
		r.log.Info("audit repair pass completed", "repaired", repaired, "batch", len(entries))
	}
	return repaired, nil
}

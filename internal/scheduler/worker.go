package scheduler

import (
	"context"
	"fmt"

	"crm_portal_backend/internal/requests/outbox"
	"crm_portal_backend/internal/requests/repository"
	"crm_portal_backend/platform/config"
	"crm_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	repairer *outbox.Repairer
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		repairer: outbox.NewRepairer(outbox.New(pool), repository.New(pool), log),
		log:      log,
	}

	mux.HandleFunc(TaskAuditRepair, w.handleAuditRepair)

	return w, nil
}

func (w *Worker) handleAuditRepair(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAuditRepairPayload(task)
	if err != nil {
		return err
	}

	batch := payload.BatchSize
	if batch <= 0 {
		batch = 50
	}

	repaired, err := w.repairer.Run(ctx, batch)
	if err != nil {
		return err
	}
	w.log.Info("audit repair task finished", "repaired", repaired)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

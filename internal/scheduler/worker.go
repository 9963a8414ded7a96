package scheduler

import (
	"context"
	"fmt"

	"collabmatch_backend/internal/connections/repository"
	"collabmatch_backend/internal/events"
	"collabmatch_backend/platform/config"
	"collabmatch_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   *repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
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
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskCollaborationReminder, w.handleCollaborationReminder)

	return w, nil
}

func (w *Worker) handleCollaborationReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCollaborationReminderPayload(task)
	if err != nil {
		return err
	}

	connectionID, err := uuid.Parse(payload.ConnectionID)
	if err != nil {
		return err
	}

	recipientID, err := uuid.Parse(payload.RecipientID)
	if err != nil {
		return err
	}

	conn, err := w.repo.GetByID(ctx, connectionID)
	if err != nil {
		// The connection may have been deleted since scheduling.
		w.log.Info("collaboration reminder skipped", "connection_id", payload.ConnectionID, "reason", err.Error())
		return nil
	}

	// Only remind while the request is still unanswered.
	if conn.CollaborationStatus != repository.CollabRequested || conn.RequestedBy == nil {
		return nil
	}

	var projectTitle string
	if conn.Request != nil && conn.Request.ProjectTitle != nil {
		projectTitle = *conn.Request.ProjectTitle
	}

	if w.bus == nil {
		return nil
	}

	w.bus.Publish(ctx, events.CollaborationReminderDue{
		BaseEvent:    events.NewBaseEvent(),
		ConnectionID: conn.ID,
		RequesterID:  *conn.RequestedBy,
		RecipientID:  recipientID,
		ProjectTitle: projectTitle,
	})

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

package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ilan2004/Ev-wheels-sub003/internal/config"
	"github.com/ilan2004/Ev-wheels-sub003/internal/logging"
	"github.com/ilan2004/Ev-wheels-sub003/internal/workflow"
)

const (
	// TypeTransitionNotice is enqueued for every accepted status
	// transition so interested parties (front desk displays, SMS bridges)
	// can react without blocking the request.
	TypeTransitionNotice = "workflow:transition"
)

type TransitionNoticePayload struct {
	EntityKind     workflow.Kind
	EntityID       uuid.UUID
	PreviousStatus workflow.Status
	NewStatus      workflow.Status
	ActorID        uuid.UUID
	Note           string
}

// Notifier delivers a transition notice. Actual delivery channels live
// outside this service; the default just prints.
type Notifier interface {
	Notify(ctx context.Context, notice TransitionNoticePayload) error
}

// StdoutNotifier prints notices to standard output.
type StdoutNotifier struct{}

func (StdoutNotifier) Notify(ctx context.Context, n TransitionNoticePayload) error {
	fmt.Printf("--- STATUS CHANGE ---\nKind: %s\nEntity: %s\n%s -> %s\nBy: %s\n---------------------\n",
		n.EntityKind, n.EntityID, n.PreviousStatus, n.NewStatus, n.ActorID)
	return nil
}

type Worker struct {
	server   *asynq.Server
	notifier Notifier
}

func NewWorker(cfg *config.RedisConfig, notifier Notifier) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logging.Error("process task failed", "type", task.Type(), "payload", string(task.Payload()), "error", err)
			}),
		},
	)

	return &Worker{
		server:   server,
		notifier: notifier,
	}
}

func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTransitionNotice, w.HandleTransitionNotice)

	return w.server.Start(mux)
}

func (w *Worker) Close() {
	if w.server != nil {
		w.server.Shutdown()
	}
}

func (w *Worker) HandleTransitionNotice(ctx context.Context, t *asynq.Task) error {
	var p TransitionNoticePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logging.Info("Dispatching transition notice", "kind", p.EntityKind, "entity_id", p.EntityID, "new_status", p.NewStatus)
	if err := w.notifier.Notify(ctx, p); err != nil {
		return fmt.Errorf("notifier.Notify failed: %w", err)
	}

	return nil
}

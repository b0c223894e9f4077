package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"noticehub/internal/broadcast"
	"noticehub/internal/db"
	"noticehub/internal/notice"
	"noticehub/internal/queue"
)

// Worker consumes the broadcast-send and dispatch queues.
type Worker struct {
	server *asynq.Server

	engine        *broadcast.Engine
	dispatcher    *notice.Dispatcher
	router        *notice.Router
	notifications *db.NotificationStore
	broadcasts    *db.BroadcastStore
	directory     *db.UserDirectory
}

type Deps struct {
	RedisAddr     string
	Engine        *broadcast.Engine
	Dispatcher    *notice.Dispatcher
	Router        *notice.Router
	Notifications *db.NotificationStore
	Broadcasts    *db.BroadcastStore
	Directory     *db.UserDirectory
}

func NewWorker(deps Deps) *Worker {
	redisAddr := deps.RedisAddr
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: redisAddr,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.TaskDispatch:      10,
				queue.TaskBroadcastSend: 2,
			},
		},
	)

	return &Worker{
		server:        server,
		engine:        deps.Engine,
		dispatcher:    deps.Dispatcher,
		router:        deps.Router,
		notifications: deps.Notifications,
		broadcasts:    deps.Broadcasts,
		directory:     deps.Directory,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(queue.TaskBroadcastSend, w.handleBroadcastSend)
	mux.HandleFunc(queue.TaskDispatch, w.handleDispatch)

	slog.Info("Starting worker",
		"queues", []string{queue.TaskBroadcastSend, queue.TaskDispatch},
		"concurrency", 10)

	if err := w.server.Start(mux); err != nil {
		return err
	}

	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.server.Stop()
	slog.Info("Worker stopped")
	return nil
}

func (w *Worker) handleBroadcastSend(ctx context.Context, t *asynq.Task) error {
	var payload queue.BroadcastSendPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	b, err := w.broadcasts.Get(ctx, payload.BroadcastID, payload.ApplicationID)
	if err != nil {
		slog.Error("Failed to load broadcast for send",
			"broadcast_id", payload.BroadcastID, "error", err)
		return err
	}

	var actor *notice.EntityRef
	if payload.ActorKind != "" {
		actor = &notice.EntityRef{Kind: payload.ActorKind, ID: payload.ActorID}
	}

	if _, err := w.engine.Send(ctx, b, actor); err != nil {
		slog.Error("Broadcast send failed",
			"broadcast_id", payload.BroadcastID, "error", err)
		return err
	}

	return nil
}

// handleDispatch attempts channel delivery for each notification in the
// payload. Channels already marked notified are skipped, so asynq
// re-running this task after a partial failure only retries what is
// still outstanding.
func (w *Worker) handleDispatch(ctx context.Context, t *asynq.Task) error {
	var payload queue.DispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	var failed int
	for _, id := range payload.NotificationIDs {
		outcomes, err := w.dispatchOne(ctx, id)
		if err != nil {
			slog.Error("Failed to dispatch notification", "notification_id", id, "error", err)
			failed++
			continue
		}
		for _, outcome := range outcomes {
			if outcome.Err != nil && !errors.Is(outcome.Err, notice.ErrChannelUnavailable) {
				failed++
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d channel deliveries still outstanding", failed)
	}
	return nil
}

func (w *Worker) dispatchOne(ctx context.Context, id string) ([]notice.Outcome, error) {
	n, err := w.notifications.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, notice.ErrNotFound) {
			// Hard-deleted since enqueue; nothing left to deliver.
			return nil, nil
		}
		return nil, err
	}

	recipients, err := w.directory.ActiveUsers(ctx, []int64{n.RecipientID})
	if err != nil {
		return nil, err
	}
	if len(recipients) == 0 {
		slog.Info("Recipient inactive, skipping delivery",
			"notification_id", id, "recipient_id", n.RecipientID)
		return nil, nil
	}
	rcpt := recipients[0]

	channels, err := w.router.ApplicableChannels(ctx, rcpt, n.ApplicationID)
	if err != nil {
		return nil, err
	}

	return w.dispatcher.Dispatch(ctx, notice.Delivery{
		Notification: n,
		Recipient:    rcpt,
		Channels:     channels,
	}), nil
}

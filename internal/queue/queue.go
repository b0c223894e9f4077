package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskBroadcastSend fans one broadcast out on the worker. Enqueued by
	// the API trigger and by any external scheduler.
	TaskBroadcastSend = "broadcast:send"

	// TaskDispatch attempts channel delivery for freshly created
	// notifications. Asynq's retry policy re-invokes it on failure;
	// already-notified channels are skipped on re-runs.
	TaskDispatch = "notice:dispatch"
)

type BroadcastSendPayload struct {
	BroadcastID   int64  `json:"broadcast_id"`
	ApplicationID int64  `json:"application_id"`
	ActorKind     string `json:"actor_kind,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
}

type DispatchPayload struct {
	NotificationIDs []string `json:"notification_ids"`
}

var (
	client    *asynq.Client
	inspector *asynq.Inspector
)

// InitQueue initializes the Redis connection for Asynq.
func InitQueue(redisAddr string) error {
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: redisAddr,
	}

	client = asynq.NewClient(redisOpt)
	inspector = asynq.NewInspector(redisOpt)

	slog.Info("Successfully initialized task queue", "redis_addr", redisAddr)
	return nil
}

// EnqueueBroadcastSend schedules one broadcast send on the worker.
func EnqueueBroadcastSend(payload BroadcastSendPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TaskBroadcastSend, payloadBytes)

	info, err := client.Enqueue(task,
		asynq.Queue(TaskBroadcastSend),
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue broadcast send: %w", err)
	}

	return info.ID, nil
}

// EnqueueDispatch schedules channel delivery for a notification batch.
func EnqueueDispatch(payload DispatchPayload) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TaskDispatch, payloadBytes)

	info, err := client.Enqueue(task,
		asynq.Queue(TaskDispatch),
		asynq.MaxRetry(5),
		asynq.Timeout(5*time.Minute),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue dispatch: %w", err)
	}

	return info.ID, nil
}

// GetTaskStatus returns the current status of a queued task.
func GetTaskStatus(queue, taskID string) (*asynq.TaskInfo, error) {
	info, err := inspector.GetTaskInfo(queue, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task info: %w", err)
	}
	return info, nil
}

// Close closes the Redis connection.
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

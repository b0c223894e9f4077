package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"noticehub/internal/auth"
	"noticehub/internal/notice"
	"noticehub/internal/queue"
)

// SendNotificationRequest is one fan-out event submitted by a server-side
// caller.
type SendNotificationRequest struct {
	Actor       *notice.EntityRef     `json:"actor,omitempty"`
	Verb        string                `json:"verb"`
	Recipients  notice.RecipientSpec  `json:"recipients"`
	Level       notice.Level          `json:"level,omitempty"`
	Description *string               `json:"description,omitempty"`
	Target      *notice.PayloadObject `json:"target,omitempty"`
	Action      *notice.PayloadObject `json:"action,omitempty"`
	Data        notice.ExtraData      `json:"data,omitempty"`
	Timestamp   *time.Time            `json:"timestamp,omitempty"`
	Public      *bool                 `json:"public,omitempty"`
}

// SendNotifications resolves the audience, persists one notification per
// recipient, and queues channel delivery. The response reports success
// as soon as the rows are persisted; delivery status is observed through
// the per-channel notified flags.
func (a *API) SendNotifications(c echo.Context) error {
	var req SendNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Verb == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "verb is required"})
	}

	ctx := c.Request().Context()
	applicationID := auth.ApplicationID(c)

	recipients, err := a.resolver.Resolve(ctx, req.Recipients)
	if err != nil {
		if errors.Is(err, notice.ErrEmptyAudience) {
			return c.JSON(http.StatusOK, map[string]interface{}{"message": "no recipients resolved", "created": 0})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to resolve recipients"})
	}

	event := notice.Event{
		Actor:         req.Actor,
		Verb:          req.Verb,
		Recipients:    recipients,
		ApplicationID: applicationID,
		Level:         req.Level,
		Description:   req.Description,
		Target:        req.Target,
		Action:        req.Action,
		Data:          req.Data,
		Public:        req.Public,
	}
	if req.Timestamp != nil {
		event.Timestamp = *req.Timestamp
	}

	notifications, err := a.factory.CreateBatch(ctx, event)
	if err != nil {
		var payloadErr *notice.InvalidPayloadError
		if errors.As(err, &payloadErr) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error":   "Invalid payload",
				"field":   payloadErr.Field,
				"reasons": payloadErr.Reasons,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create notifications"})
	}

	ids := make([]string, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.ID)
	}

	taskID, err := queue.EnqueueDispatch(queue.DispatchPayload{NotificationIDs: ids})
	if err != nil {
		// Rows are persisted; delivery will catch up when the dispatch
		// task is re-queued externally.
		slog.Error("Failed to queue dispatch for notification batch",
			"application_id", applicationID, "count", len(ids), "error", err)
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message": "notifications created",
		"created": len(notifications),
		"task_id": taskID,
	})
}

// TaskStatus reports the state of a queued send task. The queue query
// parameter names the queue the task was accepted into; dispatch tasks
// are the default.
func (a *API) TaskStatus(c echo.Context) error {
	queueName := c.QueryParam("queue")
	if queueName == "" {
		queueName = queue.TaskDispatch
	}

	info, err := queue.GetTaskStatus(queueName, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Task not found"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"task_id":    info.ID,
		"queue":      info.Queue,
		"state":      info.State.String(),
		"retried":    info.Retried,
		"last_error": info.LastErr,
	})
}

type CreateApplicationRequest struct {
	Name string `json:"name"`
}

// CreateApplication provisions a tenant and returns its API key once.
func (a *API) CreateApplication(c echo.Context) error {
	var req CreateApplicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	app, key, err := a.applications.Create(c.Request().Context(), req.Name)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create application"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"application": app,
		"api_key":     key,
	})
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"noticehub/internal/auth"
	"noticehub/internal/notice"
	"noticehub/internal/queue"
)

// ListBroadcasts returns the application's broadcast definitions.
func (a *API) ListBroadcasts(c echo.Context) error {
	broadcasts, err := a.broadcasts.List(c.Request().Context(), auth.ApplicationID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list broadcasts"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"broadcasts": broadcasts})
}

type SendBroadcastRequest struct {
	Actor *notice.EntityRef `json:"actor,omitempty"`
}

// SendBroadcast queues one broadcast send on the worker and returns the
// task id. The fan-out itself runs asynchronously.
func (a *API) SendBroadcast(c echo.Context) error {
	broadcastID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid broadcast id"})
	}

	applicationID := auth.ApplicationID(c)

	// Reject unknown ids up front rather than from the worker.
	if _, err := a.broadcasts.Get(c.Request().Context(), broadcastID, applicationID); err != nil {
		if errors.Is(err, notice.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Broadcast not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load broadcast"})
	}

	var req SendBroadcastRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	payload := queue.BroadcastSendPayload{
		BroadcastID:   broadcastID,
		ApplicationID: applicationID,
	}
	if req.Actor != nil {
		payload.ActorKind = req.Actor.Kind
		payload.ActorID = req.Actor.ID
	}

	taskID, err := queue.EnqueueBroadcastSend(payload)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to queue broadcast send"})
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "broadcast send queued",
		"task_id": taskID,
		"queue":   queue.TaskBroadcastSend,
	})
}

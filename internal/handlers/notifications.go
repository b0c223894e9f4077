package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"noticehub/internal/auth"
	"noticehub/internal/db"
	"noticehub/internal/notice"
)

// ListNotifications returns the caller's notifications, newest first.
// Supports ?unread=true, ?limit, ?offset.
func (a *API) ListNotifications(c echo.Context) error {
	filter := db.ListFilter{
		RecipientID:   auth.UserID(c),
		ApplicationID: auth.ApplicationID(c),
	}

	if c.QueryParam("unread") == "true" {
		filter.UnreadOnly = true
	}
	if limit, err := strconv.Atoi(c.QueryParam("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.QueryParam("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	notifications, err := a.notifications.List(c.Request().Context(), filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list notifications"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"notifications": notifications})
}

// GetNotification returns one notification the caller owns.
func (a *API) GetNotification(c echo.Context) error {
	n, err := a.notifications.Get(c.Request().Context(), c.Param("id"), auth.UserID(c))
	if err != nil {
		if errors.Is(err, notice.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load notification"})
	}
	return c.JSON(http.StatusOK, n)
}

// NotificationStats returns total and unread counts for the caller.
func (a *API) NotificationStats(c echo.Context) error {
	stats, err := a.notifications.Stats(c.Request().Context(), auth.UserID(c), auth.ApplicationID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load stats"})
	}
	return c.JSON(http.StatusOK, stats)
}

// MarkAsRead marks one notification read. Marking an already-read
// notification again succeeds without changing anything.
func (a *API) MarkAsRead(c echo.Context) error {
	return a.setRead(c, true)
}

// MarkAsUnread flips a notification back to unread.
func (a *API) MarkAsUnread(c echo.Context) error {
	return a.setRead(c, false)
}

func (a *API) setRead(c echo.Context, read bool) error {
	var err error
	if read {
		err = a.notifications.MarkRead(c.Request().Context(), c.Param("id"), auth.UserID(c))
	} else {
		err = a.notifications.MarkUnread(c.Request().Context(), c.Param("id"), auth.UserID(c))
	}
	if err != nil {
		if errors.Is(err, notice.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update notification"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "success"})
}

// MarkAllAsRead marks every unread notification of the caller as read.
func (a *API) MarkAllAsRead(c echo.Context) error {
	updated, err := a.notifications.MarkAllRead(c.Request().Context(), auth.UserID(c), auth.ApplicationID(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to mark notifications read"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"message": "success", "updated": updated})
}

// DeleteNotification soft-deletes by default; a hard delete removes the
// row when the service is configured for it.
func (a *API) DeleteNotification(c echo.Context) error {
	hard := !a.cfg.SoftDelete
	err := a.notifications.Delete(c.Request().Context(), c.Param("id"), auth.UserID(c), hard)
	if err != nil {
		if errors.Is(err, notice.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete notification"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "success"})
}

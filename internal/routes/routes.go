package routes

import (
	"github.com/labstack/echo/v4"

	"noticehub/internal/auth"
	"noticehub/internal/db"
	"noticehub/internal/handlers"
)

func SetupRoutes(api *echo.Group, h *handlers.API, apps *db.ApplicationStore) {
	// Public routes
	api.GET("/health", h.HealthCheck)

	api.Use(auth.RateLimitMiddleware)

	// Recipient-facing routes: JWT identity + application scope header
	me := api.Group("/notifications", auth.JWTMiddleware, auth.ApplicationScopeMiddleware)
	me.GET("", h.ListNotifications)
	me.GET("/stats", h.NotificationStats)
	me.GET("/mark-all-as-read", h.MarkAllAsRead)
	me.GET("/:id", h.GetNotification)
	me.GET("/:id/mark-as-read", h.MarkAsRead)
	me.GET("/:id/mark-as-unread", h.MarkAsUnread)
	me.DELETE("/:id", h.DeleteNotification)

	devices := api.Group("/devices", auth.JWTMiddleware, auth.ApplicationScopeMiddleware)
	devices.POST("", h.RegisterDevice)
	devices.DELETE("/:id", h.DeactivateDevice)

	// Server-side routes: application API key
	server := api.Group("/server", auth.APIKeyMiddleware(apps))
	server.POST("/notifications/send", h.SendNotifications)
	server.GET("/broadcasts", h.ListBroadcasts)
	server.POST("/broadcasts/:id/send", h.SendBroadcast)
	server.GET("/tasks/:id", h.TaskStatus)

	// Provisioning. Deliberately unauthenticated here: expected to be
	// fronted by the operator's admin gateway.
	api.POST("/applications", h.CreateApplication)
}

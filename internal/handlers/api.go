package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"noticehub/internal/config"
	"noticehub/internal/db"
	"noticehub/internal/notice"
)

// API bundles the handler dependencies.
type API struct {
	cfg           *config.Config
	notifications *db.NotificationStore
	devices       *db.DeviceStore
	broadcasts    *db.BroadcastStore
	applications  *db.ApplicationStore
	resolver      *notice.Resolver
	factory       *notice.Factory
}

func NewAPI(
	cfg *config.Config,
	notifications *db.NotificationStore,
	devices *db.DeviceStore,
	broadcasts *db.BroadcastStore,
	applications *db.ApplicationStore,
	resolver *notice.Resolver,
	factory *notice.Factory,
) *API {
	return &API{
		cfg:           cfg,
		notifications: notifications,
		devices:       devices,
		broadcasts:    broadcasts,
		applications:  applications,
		resolver:      resolver,
		factory:       factory,
	}
}

func (a *API) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

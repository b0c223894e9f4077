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

type RegisterDeviceRequest struct {
	Platform string `json:"platform"`
	Token    string `json:"token"`
}

// RegisterDevice registers or reactivates a push endpoint for the caller.
func (a *API) RegisterDevice(c echo.Context) error {
	var req RegisterDeviceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Platform == "" || req.Token == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "platform and token are required"})
	}

	device := &db.Device{
		UserID:        auth.UserID(c),
		ApplicationID: auth.ApplicationID(c),
		Platform:      req.Platform,
		Token:         req.Token,
	}
	if err := a.devices.Register(c.Request().Context(), device); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, device)
}

// DeactivateDevice turns off one of the caller's registered devices.
func (a *API) DeactivateDevice(c echo.Context) error {
	deviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid device id"})
	}

	err = a.devices.Deactivate(c.Request().Context(), deviceID, auth.UserID(c), auth.ApplicationID(c))
	if err != nil {
		if errors.Is(err, notice.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Device not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to deactivate device"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "success"})
}

package auth

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"noticehub/internal/db"
)

// APIKeyHeader authenticates server-side callers.
const APIKeyHeader = "X-Api-Key"

// ApplicationHeader names the application scope on recipient-facing
// routes, where the caller is a trusted client of that application.
const ApplicationHeader = "X-Application-Id"

// APIKeyMiddleware authenticates server routes with an application API
// key and stores the application scope on the context.
func APIKeyMiddleware(apps *db.ApplicationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(APIKeyHeader)
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "API key is required"})
			}

			app, err := apps.Authenticate(c.Request().Context(), key)
			if err != nil {
				if errors.Is(err, db.ErrInvalidAPIKey) {
					return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
				}
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to verify API key"})
			}

			c.Set(ContextApplicationID, app.ID)
			return next(c)
		}
	}
}

// ApplicationScopeMiddleware reads the application id header on
// recipient-facing routes.
func ApplicationScopeMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(ApplicationHeader)
		if raw == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "X-Application-Id header is required"})
		}
		appID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || appID <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid X-Application-Id header"})
		}
		c.Set(ContextApplicationID, appID)
		return next(c)
	}
}

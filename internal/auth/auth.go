// Package auth supplies the request-scoped identities the core trusts:
// the recipient identity from a JWT, and the application scope from an
// API key. Issuing tokens and managing accounts belongs to an external
// identity service.
package auth

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// ContextUserID is the echo context key carrying the authenticated
// recipient id.
const ContextUserID = "user_id"

// ContextApplicationID carries the application scope resolved from a
// verified API key.
const ContextApplicationID = "application_id"

var jwtKey []byte

// InitJWT installs the token verification secret from the service
// configuration. An empty secret falls back to a development-only default.
func InitJWT(secret string) {
	if secret == "" {
		secret = "your-secret-key" // Use this only for development
	}
	jwtKey = []byte(secret)
}

func jwtSecret() []byte {
	if jwtKey == nil {
		InitJWT("")
	}
	return jwtKey
}

// JWTMiddleware authenticates recipient-facing routes and stores the
// caller's user id on the context.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is required"})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format"})
		}

		tokenString := authHeader[7:]
		if tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format"})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtSecret(), nil
		})

		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
			rawID, ok := claims[ContextUserID].(float64)
			if !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			}
			c.Set(ContextUserID, int64(rawID))
			return next(c)
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	}
}

// UserID returns the authenticated recipient id set by JWTMiddleware.
func UserID(c echo.Context) int64 {
	id, _ := c.Get(ContextUserID).(int64)
	return id
}

// ApplicationID returns the application scope set by the API key or
// application-header middleware.
func ApplicationID(c echo.Context) int64 {
	id, _ := c.Get(ContextApplicationID).(int64)
	return id
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, userID float64) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{ContextUserID: userID})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func invokeJWT(t *testing.T, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, c
}

func TestJWTMiddleware(t *testing.T) {
	t.Run("ConfiguredSecretVerifiesTokens", func(t *testing.T) {
		InitJWT("configured-secret")

		rec, c := invokeJWT(t, "Bearer "+signToken(t, "configured-secret", 7))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(7), UserID(c))
	})

	t.Run("TokenSignedWithOtherSecretRejected", func(t *testing.T) {
		InitJWT("configured-secret")

		rec, _ := invokeJWT(t, "Bearer "+signToken(t, "some-other-secret", 7))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MissingHeaderRejected", func(t *testing.T) {
		InitJWT("configured-secret")

		rec, _ := invokeJWT(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedHeaderRejected", func(t *testing.T) {
		InitJWT("configured-secret")

		rec, _ := invokeJWT(t, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

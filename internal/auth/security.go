package auth

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	limiterpkg "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

var RateLimiter *limiterpkg.Limiter

// InitSecurity sets up the per-IP rate limiter: 120 requests per minute.
func InitSecurity() {
	rate := limiterpkg.Rate{
		Period: 1 * time.Minute,
		Limit:  120,
	}
	store := memory.NewStore()
	RateLimiter = limiterpkg.New(store, rate)
}

// RateLimitMiddleware rejects callers over the per-IP limit.
func RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if RateLimiter == nil {
			return next(c)
		}

		limiterCtx, err := RateLimiter.Get(c.Request().Context(), c.RealIP())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Rate limiter failure"})
		}

		if limiterCtx.Reached {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return next(c)
	}
}

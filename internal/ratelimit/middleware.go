package ratelimit

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
)

// IPRateLimitMiddleware limits requests per client IP and sets the
// X-RateLimit-* headers on every response it lets through or rejects.
func (rl *RateLimiter) IPRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := rl.AllowIP(c.Request.Context(), ip)
		if err != nil {
			// A broken limiter never blocks scoring.
			slog.Error("Rate limit check failed", "ip", ip, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if rl.metrics != nil {
				rl.metrics.IncrementRateLimitIPBlock()
				rl.metrics.IncrementRateLimitEndpoint(c.FullPath())
			}

			appErr := apperrors.NewRateLimitError(result.RetryAfter)
			apperrors.LogError(c, appErr)
			apperrors.Abort(c, appErr)
			return
		}

		c.Next()
	}
}

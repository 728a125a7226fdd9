package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"snapcaption/internal/ratelimit"
	"snapcaption/internal/transport/http/response"
)

type RateLimiter interface {
	Allow(ctx context.Context, clientID string) (ratelimit.Decision, error)
}

// RateLimit rejects clients over their per-window quota with 429. Limiter errors let
// the request through.
func RateLimit(limiter RateLimiter, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		clientID := c.GetString(ContextClientIDKey)
		if clientID == "" {
			clientID = "ip:" + c.ClientIP()
		}

		decision, err := limiter.Allow(c.Request.Context(), clientID)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request", zap.String("client", clientID), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.ResetIn.Seconds()))))
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

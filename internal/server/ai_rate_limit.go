package server

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/zyra/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/zyra/internal/observability/metrics"
	"go.uber.org/zap"
)

const rateLimitReasonUserRate = "user-rate"

// AIRateLimit applies the per-user token bucket to the AI endpoints. A
// limiter failure fails closed with 503.
func (s *Server) AIRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		ctx := c.Request.Context()
		result, err := s.limiter.AllowAI(ctx, userID.String())
		if err != nil {
			logger.FromContext(ctx).Warn("ai rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(max(result.Remaining, 0)))
		}
		if !result.Allowed {
			denyRateLimit(c, normalizeRateLimitEndpoint(c), result.RetryAfter, s.obsMetrics)
			return
		}
		c.Next()
	}
}

func denyRateLimit(c *gin.Context, endpoint string, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	metrics.RecordRateLimitDenied(c.Request.Context(), endpoint, rateLimitReasonUserRate)
	logger.FromContext(c.Request.Context()).Info("ai request rate limited",
		zap.String("endpoint", endpoint),
		zap.Int("retry_after_s", seconds),
	)
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	route := strings.TrimSpace(c.FullPath())
	if route == "" {
		return "unknown"
	}
	return route
}

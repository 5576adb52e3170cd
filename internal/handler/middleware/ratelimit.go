package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/metrics"
)

// RateLimit enforces each key's configured requests-per-minute quota
// against the injected window store. The window is keyed by
// (key id, client IP) so one leaked key cannot starve every caller at
// once. State is whatever the store provides: process-local with the
// memory driver, shared with the Redis driver.
func RateLimit(store limiter.Store, defaultPerMinute int, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("RateLimit")
	return func(c *gin.Context) {
		identity := IdentityFromContext(c)
		if identity == nil {
			// Only key-authenticated traffic is quota-bound.
			c.Next()
			return
		}

		perMinute := identity.Key.RateLimit
		if perMinute <= 0 {
			perMinute = defaultPerMinute
		}

		rate := limiter.Rate{
			Period: 1 * time.Minute,
			Limit:  int64(perMinute),
		}
		windowKey := identity.Key.ID.String() + ":" + c.ClientIP()

		limiterCtx, err := limiter.New(store, rate).Get(c.Request.Context(), windowKey)
		if err != nil {
			log.Error("Rate limit store lookup failed", zap.String("key_id", identity.Key.ID.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Rate limit check failed",
			})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(limiterCtx.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(limiterCtx.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(limiterCtx.Reset, 10))

		if limiterCtx.Reached {
			log.Warn("Rate limit exceeded",
				zap.String("key_id", identity.Key.ID.String()),
				zap.String("client_ip", c.ClientIP()),
				zap.Int("limit", perMinute),
			)
			metrics.RateLimitRejections.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": fmt.Sprintf("API rate limit of %d requests per minute exceeded", perMinute),
			})
			return
		}

		c.Next()
	}
}

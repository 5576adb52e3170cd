package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
	"github.com/neurallempire/neurallempire-api/internal/metrics"
)

// UsageEnqueuer hands a completed usage record off for background
// persistence.
type UsageEnqueuer interface {
	EnqueueUsageRecord(ctx context.Context, record *usage.Record) error
}

// UsageRecorder captures request telemetry after the handler has
// produced its response and submits it off the critical path. It runs
// as an explicit stage observing gin's response writer, never wrapping
// the transport. Unauthenticated requests produce no record, and a
// failed submission never touches the response already sent.
func UsageRecorder(enqueuer UsageEnqueuer, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("UsageRecorder")
	return func(c *gin.Context) {
		start := time.Now()
		requestSize := c.Request.ContentLength
		if requestSize < 0 {
			requestSize = 0
		}

		c.Next()

		identity := IdentityFromContext(c)
		if identity == nil {
			return
		}

		responseSize := int64(c.Writer.Size())
		if responseSize < 0 {
			responseSize = 0
		}

		record := &usage.Record{
			APIKeyID:       identity.Key.ID,
			AgentID:        identity.Agent.ID,
			OrganizationID: identity.Organization.ID,
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMS: time.Since(start).Milliseconds(),
			RequestSize:    requestSize,
			ResponseSize:   responseSize,
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
			CreatedAt:      time.Now().UTC(),
		}
		if len(c.Errors) > 0 {
			errStr := c.Errors.String()
			record.Error = &errStr
		}

		go func(rec *usage.Record) {
			ctxAsync, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := enqueuer.EnqueueUsageRecord(ctxAsync, rec); err != nil {
				metrics.UsageRecordFailures.Inc()
				log.Error("Failed to enqueue usage record",
					zap.String("api_key_id", rec.APIKeyID.String()),
					zap.String("path", rec.Path),
					zap.Error(err),
				)
			}
		}(record)
	}
}

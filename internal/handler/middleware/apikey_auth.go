package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"github.com/neurallempire/neurallempire-api/internal/metrics"
	"github.com/neurallempire/neurallempire-api/internal/util"
)

const (
	apiKeyHeader = "X-API-Key"
)

// Every rejection beyond a missing credential returns this same body,
// so callers cannot distinguish unknown prefixes from wrong secrets,
// revoked keys, expired keys, or allowlist misses.
var invalidKeyResponse = gin.H{"error": "Invalid API key", "message": "The provided API key is invalid or has been revoked"}

// APIKeyAuth validates a programmatic credential presented as
// "Authorization: Bearer ne_..." or "X-API-Key: ne_...". On success the
// key, its agent, and its organization are attached to the request as
// the caller identity. Applied per route group, not globally.
func APIKeyAuth(
	keyRepo apikey.Repository,
	agentRepo agent.Repository,
	orgRepo organization.Repository,
	logger *zap.Logger,
) gin.HandlerFunc {
	log := logger.Named("APIKeyAuth")
	return func(c *gin.Context) {
		presented := extractCredential(c)
		if presented == "" {
			log.Debug("API key credential is missing")
			metrics.APIKeyAuthAttempts.WithLabelValues("missing").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide an API key via the Authorization or " + apiKeyHeader + " header",
			})
			return
		}

		prefix, ok := util.ParseAPIKey(presented)
		if !ok {
			log.Warn("Presented credential has invalid key shape")
			metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
			return
		}

		receivedKeyHash := util.HashAPIKey(presented)

		keyRecord, err := keyRepo.FindByPrefix(c.Request.Context(), prefix)
		if err != nil {
			if errors.Is(err, apikey.ErrAPIKeyNotFound) {
				// Burn a comparison anyway so unknown prefixes cost the
				// same as wrong secrets.
				subtle.ConstantTimeCompare([]byte(receivedKeyHash), []byte(receivedKeyHash))
				log.Warn("API key not found or disabled", zap.String("prefix", prefix))
				metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
				return
			}

			log.Error("Failed to query API key store", zap.String("prefix", prefix), zap.Error(err))
			metrics.APIKeyAuthAttempts.WithLabelValues("error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "API key validation failed",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(receivedKeyHash), []byte(keyRecord.KeyHash)) != 1 {
			log.Warn("API key hash mismatch", zap.String("prefix", prefix), zap.String("key_id", keyRecord.ID.String()))
			metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
			return
		}

		if keyRecord.Expired(time.Now().UTC()) {
			log.Warn("Expired API key presented", zap.String("key_id", keyRecord.ID.String()))
			metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
			return
		}

		if !keyRecord.AllowsIP(c.ClientIP()) {
			log.Warn("API key presented from disallowed IP",
				zap.String("key_id", keyRecord.ID.String()),
				zap.String("client_ip", c.ClientIP()),
			)
			metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
			c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
			return
		}

		owningAgent, err := agentRepo.FindByID(c.Request.Context(), keyRecord.AgentID)
		if err != nil {
			if errors.Is(err, agent.ErrAgentNotFound) {
				log.Warn("API key references missing agent", zap.String("key_id", keyRecord.ID.String()))
				metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
				return
			}
			log.Error("Failed to resolve owning agent", zap.String("key_id", keyRecord.ID.String()), zap.Error(err))
			metrics.APIKeyAuthAttempts.WithLabelValues("error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "API key validation failed",
			})
			return
		}

		owningOrg, err := orgRepo.FindByID(c.Request.Context(), keyRecord.OrganizationID)
		if err != nil {
			if errors.Is(err, organization.ErrOrganizationNotFound) {
				log.Warn("API key references missing organization", zap.String("key_id", keyRecord.ID.String()))
				metrics.APIKeyAuthAttempts.WithLabelValues("invalid").Inc()
				c.AbortWithStatusJSON(http.StatusUnauthorized, invalidKeyResponse)
				return
			}
			log.Error("Failed to resolve owning organization", zap.String("key_id", keyRecord.ID.String()), zap.Error(err))
			metrics.APIKeyAuthAttempts.WithLabelValues("error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "API key validation failed",
			})
			return
		}

		setIdentity(c, &Identity{
			Key:          keyRecord,
			Agent:        owningAgent,
			Organization: owningOrg,
		})

		go func(id uuid.UUID, repo apikey.Repository, l *zap.Logger) {
			ctxAsync, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if errUpdate := repo.UpdateLastUsed(ctxAsync, id, time.Now().UTC()); errUpdate != nil {
				l.Error("Failed to update API key last used time asynchronously", zap.String("key_id", id.String()), zap.Error(errUpdate))
			}
		}(keyRecord.ID, keyRepo, log)

		log.Debug("API key validated successfully", zap.String("prefix", prefix), zap.String("key_id", keyRecord.ID.String()))
		metrics.APIKeyAuthAttempts.WithLabelValues("success").Inc()
		c.Next()
	}
}

// extractCredential reads the key from the Authorization header
// (bearer scheme, case-insensitive) or the dedicated API-key header.
func extractCredential(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Fields(authHeader)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return strings.TrimSpace(c.GetHeader(apiKeyHeader))
}

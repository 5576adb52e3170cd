package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"go.uber.org/zap"
)

const expireBatchSize = 1000

type APIKeyExpireHandler struct {
	repo   apikey.Repository
	logger *zap.Logger
}

func NewAPIKeyExpireHandler(repo apikey.Repository, logger *zap.Logger) *APIKeyExpireHandler {
	return &APIKeyExpireHandler{
		repo:   repo,
		logger: logger.Named("APIKeyExpireHandler"),
	}
}

// ProcessTask sweeps keys whose expiry has passed and soft-disables
// them. Expiry is also checked at auth time, so the sweep only keeps
// the stored state honest; a missed run is not a security hole.
func (h *APIKeyExpireHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeAPIKeyExpire {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var p APIKeyExpirePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for api key expiration task", zap.Error(err))
		return fmt.Errorf("invalid payload: %v", err)
	}

	h.logger.Info("Processing api key expiration sweep...")

	now := time.Now().UTC()
	disabledCount := 0
	processedCount := 0
	offset := 0

	for {
		expiredKeys, err := h.repo.ListExpired(ctx, now, expireBatchSize, offset)
		if err != nil {
			h.logger.Error("Failed to list expired api keys", zap.Error(err))
			return fmt.Errorf("repository error listing expired api keys: %w", err)
		}

		if len(expiredKeys) == 0 {
			break
		}

		processedCount += len(expiredKeys)

		for _, key := range expiredKeys {
			h.logger.Info("Disabling expired api key",
				zap.String("key_id", key.ID.String()),
				zap.String("prefix", key.Prefix),
				zap.Timep("expires_at", key.ExpiresAt),
			)

			if errDisable := h.repo.Disable(ctx, key.ID); errDisable != nil {
				h.logger.Error("Failed to disable expired api key",
					zap.String("key_id", key.ID.String()),
					zap.Error(errDisable),
				)
			} else {
				disabledCount++
			}
		}

		if len(expiredKeys) < expireBatchSize {
			break
		}
		// Disabled rows leave the result set, so the next batch starts
		// over only past the keys that failed to disable.
		offset = processedCount - disabledCount
	}

	h.logger.Info("API key expiration sweep finished",
		zap.Int("processed_keys", processedCount),
		zap.Int("disabled", disabledCount),
	)
	return nil
}

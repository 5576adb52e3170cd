package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
	"go.uber.org/zap"
)

type UsageRecordHandler struct {
	repo   usage.Repository
	logger *zap.Logger
}

func NewUsageRecordHandler(repo usage.Repository, logger *zap.Logger) *UsageRecordHandler {
	return &UsageRecordHandler{
		repo:   repo,
		logger: logger.Named("UsageRecordHandler"),
	}
}

func (h *UsageRecordHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeUsageRecord {
		return fmt.Errorf("unexpected task type: %s", t.Type())
	}

	var record usage.Record
	if err := json.Unmarshal(t.Payload(), &record); err != nil {
		h.logger.Error("Failed to unmarshal usage record payload", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v", err)
	}

	if err := h.repo.Record(ctx, &record); err != nil {
		// Telemetry is best-effort: log and drop, never bounce the task.
		h.logger.Error("Failed to persist usage record",
			zap.String("api_key_id", record.APIKeyID.String()),
			zap.String("path", record.Path),
			zap.Error(err),
		)
		return nil
	}

	h.logger.Debug("Usage record persisted",
		zap.String("api_key_id", record.APIKeyID.String()),
		zap.Int("status", record.StatusCode),
	)
	return nil
}

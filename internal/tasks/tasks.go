package tasks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
)

const (
	TypeUsageRecord  = "usage:record"
	TypeAPIKeyExpire = "apikey:expire:check"
)

// NewUsageRecordTask wraps a usage record for background persistence.
// MaxRetry is zero: usage telemetry is best-effort, a failed write is
// logged and dropped rather than retried.
func NewUsageRecordTask(record *usage.Record, opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	allOpts := append(opts, asynq.MaxRetry(0), asynq.Queue("low"))
	return asynq.NewTask(TypeUsageRecord, payloadBytes, allOpts...), nil
}

type APIKeyExpirePayload struct{}

func NewAPIKeyExpireTask(opts ...asynq.Option) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(APIKeyExpirePayload{})
	if err != nil {
		return nil, err
	}

	uniqueOpt := asynq.Unique(1 * time.Hour)
	allOpts := append(opts, uniqueOpt)

	return asynq.NewTask(TypeAPIKeyExpire, payloadBytes, allOpts...), nil
}

// Client enqueues admission-layer background work. It satisfies the
// usage middleware's enqueuer interface.
type Client struct {
	client *asynq.Client
}

func NewClient(redisOpt asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpt)}
}

func (c *Client) EnqueueUsageRecord(ctx context.Context, record *usage.Record) error {
	task, err := NewUsageRecordTask(record)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

func (c *Client) Close() error {
	return c.client.Close()
}

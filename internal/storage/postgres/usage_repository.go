package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
	"go.uber.org/zap"
)

type UsageRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUsageRepository(db *pgxpool.Pool, logger *zap.Logger) *UsageRepository {
	return &UsageRepository{
		db:     db,
		logger: logger.Named("UsageRepository"),
	}
}

var _ usage.Repository = (*UsageRepository)(nil)

func (r *UsageRepository) Record(ctx context.Context, record *usage.Record) error {
	query := `
		INSERT INTO api_usage (api_key_id, agent_id, organization_id, method, path, status_code,
			response_time_ms, request_size, response_size, ip_address, user_agent, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.Exec(ctx, query,
		record.APIKeyID,
		record.AgentID,
		record.OrganizationID,
		record.Method,
		record.Path,
		record.StatusCode,
		record.ResponseTimeMS,
		record.RequestSize,
		record.ResponseSize,
		record.IPAddress,
		record.UserAgent,
		record.Error,
	)
	if err != nil {
		r.logger.Error("Failed to insert usage record",
			zap.String("api_key_id", record.APIKeyID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("db error inserting usage record: %w", err)
	}
	return nil
}

func (r *UsageRepository) SummaryByOrganization(ctx context.Context, orgID uuid.UUID, from time.Time, to time.Time) (*usage.Summary, error) {
	summary := &usage.Summary{
		RequestsPerKey: make(map[string]int),
		PeriodStart:    from,
		PeriodEnd:      to,
	}

	aggQuery := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status_code >= 400),
			COALESCE(AVG(response_time_ms), 0)
		FROM api_usage
		WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
	`
	err := r.db.QueryRow(ctx, aggQuery, orgID, from, to).Scan(
		&summary.TotalRequests,
		&summary.ErrorRequests,
		&summary.AvgResponseMS,
	)
	if err != nil {
		r.logger.Error("Failed to aggregate usage", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error aggregating usage: %w", err)
	}

	perKeyQuery := `
		SELECT api_key_id, COUNT(*)
		FROM api_usage
		WHERE organization_id = $1 AND created_at >= $2 AND created_at < $3
		GROUP BY api_key_id
	`
	rows, err := r.db.Query(ctx, perKeyQuery, orgID, from, to)
	if err != nil {
		r.logger.Error("Failed to aggregate usage per key", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error aggregating usage per key: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var keyID uuid.UUID
		var count int
		if err := rows.Scan(&keyID, &count); err != nil {
			return nil, fmt.Errorf("db error scanning usage row: %w", err)
		}
		summary.RequestsPerKey[keyID.String()] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error iterating usage rows: %w", err)
	}

	return summary, nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"go.uber.org/zap"
)

type APIKeyRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAPIKeyRepository(db *pgxpool.Pool, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{
		db:     db,
		logger: logger.Named("APIKeyRepository"),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

const apiKeyColumns = `
	id, agent_id, organization_id, key_hash, prefix, name, permissions,
	rate_limit, expires_at, ip_allowlist, is_active, created_at, last_used_at
`

func scanAPIKey(row pgx.Row) (*apikey.APIKey, error) {
	var key apikey.APIKey
	var expiresAt sql.NullTime
	var lastUsed sql.NullTime

	err := row.Scan(
		&key.ID,
		&key.AgentID,
		&key.OrganizationID,
		&key.KeyHash,
		&key.Prefix,
		&key.Name,
		&key.Permissions,
		&key.RateLimit,
		&expiresAt,
		&key.IPAllowlist,
		&key.IsActive,
		&key.CreatedAt,
		&lastUsed,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		key.ExpiresAt = &expiresAt.Time
	}
	if lastUsed.Valid {
		key.LastUsedAt = &lastUsed.Time
	}
	return &key, nil
}

func (r *APIKeyRepository) FindByPrefix(ctx context.Context, prefix string) (*apikey.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE prefix = $1 AND is_active = TRUE`
	key, err := scanAPIKey(r.db.QueryRow(ctx, query, prefix))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("API key not found or disabled by prefix", zap.String("prefix", prefix))
			return nil, apikey.ErrAPIKeyNotFound
		}
		r.logger.Error("Failed to find api key by prefix", zap.String("prefix", prefix), zap.Error(err))
		return nil, fmt.Errorf("db error finding api key: %w", err)
	}
	return key, nil
}

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (uuid.UUID, error) {
	query := `
		INSERT INTO api_keys (agent_id, organization_id, key_hash, prefix, name, permissions,
			rate_limit, expires_at, ip_allowlist, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var insertedID uuid.UUID
	var expiresAtArg interface{}
	if key.ExpiresAt != nil {
		expiresAtArg = *key.ExpiresAt
	}

	err := r.db.QueryRow(ctx, query,
		key.AgentID,
		key.OrganizationID,
		key.KeyHash,
		key.Prefix,
		key.Name,
		key.Permissions,
		key.RateLimit,
		expiresAtArg,
		key.IPAllowlist,
		key.IsActive,
	).Scan(&insertedID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Failed to create API key due to unique constraint violation",
				zap.String("constraint", pgErr.ConstraintName),
				zap.String("prefix", key.Prefix),
			)
			return uuid.Nil, fmt.Errorf("api key constraint violation (%s)", pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create api key in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating api key: %w", err)
	}

	r.logger.Info("API key created successfully", zap.String("id", insertedID.String()), zap.String("prefix", key.Prefix))
	return insertedID, nil
}

func (r *APIKeyRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*apikey.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		r.logger.Error("Failed to list api keys", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []*apikey.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("db error scanning api key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error iterating api key rows: %w", err)
	}
	return keys, nil
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error {
	query := `UPDATE api_keys SET last_used_at = $1 WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, lastUsed, id)
	if err != nil {
		r.logger.Error("Failed to update api key last_used_at", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error updating last used time: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("API key not found when updating last_used_at", zap.String("id", id.String()))
	}
	return nil
}

// RotateSecret replaces the stored hash and prefix while keeping the key
// id and its usage history.
func (r *APIKeyRepository) RotateSecret(ctx context.Context, id uuid.UUID, prefix string, keyHash string) error {
	query := `UPDATE api_keys SET prefix = $1, key_hash = $2 WHERE id = $3 AND is_active = TRUE`
	cmdTag, err := r.db.Exec(ctx, query, prefix, keyHash, id)
	if err != nil {
		r.logger.Error("Failed to rotate api key secret", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error rotating api key: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apikey.ErrAPIKeyNotFound
	}
	return nil
}

// Disable soft-revokes the key. Rows are never deleted so usage records
// keep a valid owner.
func (r *APIKeyRepository) Disable(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE api_keys SET is_active = FALSE WHERE id = $1`
	cmdTag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to disable api key", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error disabling api key: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apikey.ErrAPIKeyNotFound
	}
	r.logger.Info("API key disabled", zap.String("id", id.String()))
	return nil
}

func (r *APIKeyRepository) ListExpired(ctx context.Context, now time.Time, limit int, offset int) ([]*apikey.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + `
		FROM api_keys
		WHERE is_active = TRUE AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, now, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list expired api keys", zap.Error(err))
		return nil, fmt.Errorf("db error listing expired api keys: %w", err)
	}
	defer rows.Close()

	var keys []*apikey.APIKey
	for rows.Next() {
		key, err := scanAPIKey(rows)
		if err != nil {
			return nil, fmt.Errorf("db error scanning api key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error iterating api key rows: %w", err)
	}
	return keys, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurallempire/neurallempire-api/internal/domain/lead"
	"go.uber.org/zap"
)

type LeadRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewLeadRepository(db *pgxpool.Pool, logger *zap.Logger) *LeadRepository {
	return &LeadRepository{
		db:     db,
		logger: logger.Named("LeadRepository"),
	}
}

var _ lead.Repository = (*LeadRepository)(nil)

func (r *LeadRepository) Create(ctx context.Context, l *lead.Lead) (uuid.UUID, error) {
	query := `
		INSERT INTO leads (organization_id, agent_id, email, name, phone, source, status, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		l.OrganizationID,
		l.AgentID,
		l.Email,
		l.Name,
		l.Phone,
		l.Source,
		l.Status,
		l.Metadata,
	).Scan(&insertedID)

	if err != nil {
		r.logger.Error("Failed to create lead in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating lead: %w", err)
	}

	return insertedID, nil
}

func (r *LeadRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int, offset int) ([]*lead.Lead, int64, error) {
	var total int64
	countQuery := `SELECT COUNT(*) FROM leads WHERE organization_id = $1`
	if err := r.db.QueryRow(ctx, countQuery, orgID).Scan(&total); err != nil {
		r.logger.Error("Failed to count leads", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, 0, fmt.Errorf("db error counting leads: %w", err)
	}

	query := `
		SELECT id, organization_id, agent_id, email, name, phone, source, status, metadata, created_at
		FROM leads
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list leads", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, 0, fmt.Errorf("db error listing leads: %w", err)
	}
	defer rows.Close()

	var leads []*lead.Lead
	for rows.Next() {
		var l lead.Lead
		err := rows.Scan(
			&l.ID,
			&l.OrganizationID,
			&l.AgentID,
			&l.Email,
			&l.Name,
			&l.Phone,
			&l.Source,
			&l.Status,
			&l.Metadata,
			&l.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("db error scanning lead row: %w", err)
		}
		leads = append(leads, &l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("db error iterating lead rows: %w", err)
	}

	return leads, total, nil
}

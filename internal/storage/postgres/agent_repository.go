package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"go.uber.org/zap"
)

type AgentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAgentRepository(db *pgxpool.Pool, logger *zap.Logger) *AgentRepository {
	return &AgentRepository{
		db:     db,
		logger: logger.Named("AgentRepository"),
	}
}

var _ agent.Repository = (*AgentRepository)(nil)

const agentColumns = `
	id, organization_id, name, type, status, description, configuration, created_at, updated_at
`

func scanAgent(row pgx.Row) (*agent.Agent, error) {
	var a agent.Agent
	err := row.Scan(
		&a.ID,
		&a.OrganizationID,
		&a.Name,
		&a.Type,
		&a.Status,
		&a.Description,
		&a.Configuration,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AgentRepository) Create(ctx context.Context, a *agent.Agent) (uuid.UUID, error) {
	query := `
		INSERT INTO agents (organization_id, name, type, status, description, configuration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		a.OrganizationID,
		a.Name,
		a.Type,
		a.Status,
		a.Description,
		a.Configuration,
	).Scan(&insertedID)

	if err != nil {
		r.logger.Error("Failed to create agent in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating agent: %w", err)
	}

	r.logger.Info("Agent created successfully", zap.String("id", insertedID.String()), zap.String("name", a.Name))
	return insertedID, nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`
	a, err := scanAgent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, agent.ErrAgentNotFound
		}
		r.logger.Error("Failed to find agent by id", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error finding agent: %w", err)
	}
	return a, nil
}

func (r *AgentRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*agent.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE organization_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		r.logger.Error("Failed to list agents", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, fmt.Errorf("db error listing agents: %w", err)
	}
	defer rows.Close()

	var agents []*agent.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("db error scanning agent row: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error iterating agent rows: %w", err)
	}
	return agents, nil
}

func (r *AgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	query := `
		UPDATE agents
		SET name = $1, type = $2, description = $3, configuration = $4, updated_at = NOW()
		WHERE id = $5
	`
	cmdTag, err := r.db.Exec(ctx, query, a.Name, a.Type, a.Description, a.Configuration, a.ID)
	if err != nil {
		r.logger.Error("Failed to update agent", zap.String("id", a.ID.String()), zap.Error(err))
		return fmt.Errorf("db error updating agent: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return agent.ErrAgentNotFound
	}
	return nil
}

func (r *AgentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status agent.Status) error {
	query := `UPDATE agents SET status = $1, updated_at = NOW() WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update agent status", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error updating agent status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return agent.ErrAgentNotFound
	}
	return nil
}

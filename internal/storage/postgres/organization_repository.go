package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"go.uber.org/zap"
)

type OrganizationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewOrganizationRepository(db *pgxpool.Pool, logger *zap.Logger) *OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger.Named("OrganizationRepository"),
	}
}

var _ organization.Repository = (*OrganizationRepository)(nil)

const organizationColumns = `
	id, name, slug, status, plan_type, subdomain_enabled, subdomain_status,
	max_users, max_agents, max_workflows, storage_mb, created_at, updated_at
`

func scanOrganization(row pgx.Row) (*organization.Organization, error) {
	var org organization.Organization
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.Status,
		&org.PlanType,
		&org.SubdomainEnabled,
		&org.SubdomainStatus,
		&org.Limits.MaxUsers,
		&org.Limits.MaxAgents,
		&org.Limits.MaxWorkflows,
		&org.Limits.StorageMB,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE slug = $1`
	org, err := scanOrganization(r.db.QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Organization not found by slug", zap.String("slug", slug))
			return nil, organization.ErrOrganizationNotFound
		}
		r.logger.Error("Failed to find organization by slug", zap.String("slug", slug), zap.Error(err))
		return nil, fmt.Errorf("db error finding organization: %w", err)
	}
	return org, nil
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	org, err := scanOrganization(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, organization.ErrOrganizationNotFound
		}
		r.logger.Error("Failed to find organization by id", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("db error finding organization: %w", err)
	}
	return org, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization) (uuid.UUID, error) {
	query := `
		INSERT INTO organizations (name, slug, status, plan_type, subdomain_enabled, subdomain_status,
			max_users, max_agents, max_workflows, storage_mb)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		org.Name,
		org.Slug,
		org.Status,
		org.PlanType,
		org.SubdomainEnabled,
		org.SubdomainStatus,
		org.Limits.MaxUsers,
		org.Limits.MaxAgents,
		org.Limits.MaxWorkflows,
		org.Limits.StorageMB,
	).Scan(&insertedID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Failed to create organization due to unique constraint violation",
				zap.String("constraint", pgErr.ConstraintName),
				zap.String("slug", org.Slug),
			)
			return uuid.Nil, fmt.Errorf("organization constraint violation (%s)", pgErr.ConstraintName)
		}
		r.logger.Error("Failed to create organization in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("db error creating organization: %w", err)
	}

	r.logger.Info("Organization created successfully", zap.String("id", insertedID.String()), zap.String("slug", org.Slug))
	return insertedID, nil
}

func (r *OrganizationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status organization.Status) error {
	query := `UPDATE organizations SET status = $1, updated_at = NOW() WHERE id = $2`
	cmdTag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update organization status", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("db error updating organization status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return organization.ErrOrganizationNotFound
	}
	return nil
}

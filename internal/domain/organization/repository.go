package organization

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrOrganizationNotFound = errors.New("organization not found")

type Repository interface {
	FindBySlug(ctx context.Context, slug string) (*Organization, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	Create(ctx context.Context, org *Organization) (uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

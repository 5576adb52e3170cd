package agent

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrAgentNotFound = errors.New("agent not found")

type Repository interface {
	Create(ctx context.Context, agent *Agent) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Agent, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*Agent, error)
	Update(ctx context.Context, agent *Agent) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}

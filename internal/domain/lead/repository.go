package lead

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, lead *Lead) (uuid.UUID, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int, offset int) ([]*Lead, int64, error)
}

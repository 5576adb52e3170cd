package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Record(ctx context.Context, record *Record) error
	SummaryByOrganization(ctx context.Context, orgID uuid.UUID, from time.Time, to time.Time) (*Summary, error)
}

package apikey

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrAPIKeyNotFound = errors.New("api key not found or disabled")

type Repository interface {
	FindByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	Create(ctx context.Context, key *APIKey) (uuid.UUID, error)
	ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*APIKey, error)
	UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error
	RotateSecret(ctx context.Context, id uuid.UUID, prefix string, keyHash string) error
	Disable(ctx context.Context, id uuid.UUID) error
	ListExpired(ctx context.Context, now time.Time, limit int, offset int) ([]*APIKey, error)
}

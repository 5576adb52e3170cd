package memstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
)

// APIKeyRepository is an in-memory API key store used in tests and
// local development without a database.
type APIKeyRepository struct {
	mu   sync.RWMutex
	keys map[uuid.UUID]*apikey.APIKey
}

func NewAPIKeyRepository() *APIKeyRepository {
	return &APIKeyRepository{
		keys: make(map[uuid.UUID]*apikey.APIKey),
	}
}

var _ apikey.Repository = (*APIKeyRepository)(nil)

func (r *APIKeyRepository) FindByPrefix(ctx context.Context, prefix string) (*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, key := range r.keys {
		if key.Prefix == prefix && key.IsActive {
			keyCopy := *key
			return &keyCopy, nil
		}
	}
	return nil, apikey.ErrAPIKeyNotFound
}

func (r *APIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	keyCopy := *key
	r.keys[key.ID] = &keyCopy
	return key.ID, nil
}

func (r *APIKeyRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var keys []*apikey.APIKey
	for _, key := range r.keys {
		if key.OrganizationID == orgID {
			keyCopy := *key
			keys = append(keys, &keyCopy)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].CreatedAt.After(keys[j].CreatedAt)
	})
	return keys, nil
}

func (r *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, lastUsed time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return apikey.ErrAPIKeyNotFound
	}
	t := lastUsed
	key.LastUsedAt = &t
	return nil
}

func (r *APIKeyRepository) RotateSecret(ctx context.Context, id uuid.UUID, prefix string, keyHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok || !key.IsActive {
		return apikey.ErrAPIKeyNotFound
	}
	key.Prefix = prefix
	key.KeyHash = keyHash
	return nil
}

func (r *APIKeyRepository) Disable(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok := r.keys[id]
	if !ok {
		return apikey.ErrAPIKeyNotFound
	}
	key.IsActive = false
	return nil
}

func (r *APIKeyRepository) ListExpired(ctx context.Context, now time.Time, limit int, offset int) ([]*apikey.APIKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var expired []*apikey.APIKey
	for _, key := range r.keys {
		if key.IsActive && key.Expired(now) {
			keyCopy := *key
			expired = append(expired, &keyCopy)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(*expired[j].ExpiresAt)
	})

	if offset >= len(expired) {
		return nil, nil
	}
	expired = expired[offset:]
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

package memstorage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
)

// OrganizationRepository is an in-memory organization store used in
// tests and local development without a database.
type OrganizationRepository struct {
	mu   sync.RWMutex
	orgs map[uuid.UUID]*organization.Organization
}

func NewOrganizationRepository() *OrganizationRepository {
	return &OrganizationRepository{
		orgs: make(map[uuid.UUID]*organization.Organization),
	}
}

var _ organization.Repository = (*OrganizationRepository)(nil)

func (r *OrganizationRepository) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, org := range r.orgs {
		if org.Slug == slug {
			orgCopy := *org
			return &orgCopy, nil
		}
	}
	return nil, organization.ErrOrganizationNotFound
}

func (r *OrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, ok := r.orgs[id]
	if !ok {
		return nil, organization.ErrOrganizationNotFound
	}
	orgCopy := *org
	return &orgCopy, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
	if org.CreatedAt.IsZero() {
		org.CreatedAt = time.Now().UTC()
	}
	org.UpdatedAt = org.CreatedAt

	orgCopy := *org
	r.orgs[org.ID] = &orgCopy
	return org.ID, nil
}

func (r *OrganizationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status organization.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.orgs[id]
	if !ok {
		return organization.ErrOrganizationNotFound
	}
	org.Status = status
	org.UpdatedAt = time.Now().UTC()
	return nil
}

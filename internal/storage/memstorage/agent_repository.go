package memstorage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
)

// AgentRepository is an in-memory agent store used in tests and local
// development without a database.
type AgentRepository struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]*agent.Agent
}

func NewAgentRepository() *AgentRepository {
	return &AgentRepository{
		agents: make(map[uuid.UUID]*agent.Agent),
	}
}

var _ agent.Repository = (*AgentRepository)(nil)

func (r *AgentRepository) Create(ctx context.Context, a *agent.Agent) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.UpdatedAt = a.CreatedAt

	agentCopy := *a
	r.agents[a.ID] = &agentCopy
	return a.ID, nil
}

func (r *AgentRepository) FindByID(ctx context.Context, id uuid.UUID) (*agent.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[id]
	if !ok {
		return nil, agent.ErrAgentNotFound
	}
	agentCopy := *a
	return &agentCopy, nil
}

func (r *AgentRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*agent.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var agents []*agent.Agent
	for _, a := range r.agents {
		if a.OrganizationID == orgID {
			agentCopy := *a
			agents = append(agents, &agentCopy)
		}
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].CreatedAt.After(agents[j].CreatedAt)
	})
	return agents, nil
}

func (r *AgentRepository) Update(ctx context.Context, a *agent.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.agents[a.ID]
	if !ok {
		return agent.ErrAgentNotFound
	}
	agentCopy := *a
	agentCopy.CreatedAt = existing.CreatedAt
	agentCopy.UpdatedAt = time.Now().UTC()
	r.agents[a.ID] = &agentCopy
	return nil
}

func (r *AgentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status agent.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.agents[id]
	if !ok {
		return agent.ErrAgentNotFound
	}
	a.Status = status
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Delete removes an agent outright. The SQL store keeps archived rows
// instead; this exists so tests can simulate a key whose agent is gone.
func (r *AgentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return agent.ErrAgentNotFound
	}
	delete(r.agents, id)
	return nil
}

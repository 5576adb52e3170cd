package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"go.uber.org/zap"
)

type AgentService struct {
	repo   agent.Repository
	logger *zap.Logger
}

func NewAgentService(repo agent.Repository, logger *zap.Logger) *AgentService {
	return &AgentService{
		repo:   repo,
		logger: logger.Named("AgentService"),
	}
}

func (s *AgentService) CreateAgent(ctx context.Context, orgID uuid.UUID, req *dto.CreateAgentRequest) (*agent.Agent, error) {
	s.logger.Info("Attempting to create a new agent", zap.String("name", req.Name), zap.String("org_id", orgID.String()))

	newAgent := &agent.Agent{
		OrganizationID: orgID,
		Name:           req.Name,
		Type:           req.Type,
		Configuration:  req.Configuration,
	}

	if req.InitialStatus != nil {
		newAgent.Status = *req.InitialStatus
	} else {
		newAgent.Status = agent.StatusDraft
	}

	if req.Description != nil {
		newAgent.Description = sql.NullString{String: *req.Description, Valid: true}
	}

	insertedID, err := s.repo.Create(ctx, newAgent)
	if err != nil {
		s.logger.Error("Failed to create agent via repository", zap.Error(err))
		return nil, fmt.Errorf("repository error during agent creation: %w", err)
	}

	createdAgent, err := s.repo.FindByID(ctx, insertedID)
	if err != nil {
		s.logger.Error("Failed to find newly created agent by ID", zap.String("id", insertedID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve created agent (id: %s): %w", insertedID, err)
	}

	s.logger.Info("Agent created successfully", zap.String("id", createdAgent.ID.String()))
	return createdAgent, nil
}

func (s *AgentService) GetAgent(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*agent.Agent, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			return nil, fmt.Errorf("%w: agent", ierr.ErrNotFound)
		}
		return nil, fmt.Errorf("repository error finding agent: %w", err)
	}
	if a.OrganizationID != orgID {
		// Cross-tenant reads surface as not-found, never as forbidden.
		return nil, fmt.Errorf("%w: agent", ierr.ErrNotFound)
	}
	return a, nil
}

func (s *AgentService) ListAgents(ctx context.Context, orgID uuid.UUID) ([]*agent.Agent, error) {
	agents, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		s.logger.Error("Failed to list agents from repository", zap.Error(err))
		return nil, fmt.Errorf("repository error listing agents: %w", err)
	}
	return agents, nil
}

func (s *AgentService) UpdateAgent(ctx context.Context, orgID uuid.UUID, id uuid.UUID, req *dto.UpdateAgentRequest) (*agent.Agent, error) {
	a, err := s.GetAgent(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Type != nil {
		a.Type = *req.Type
	}
	if req.Description != nil {
		a.Description = sql.NullString{String: *req.Description, Valid: true}
	}
	if req.Configuration != nil {
		a.Configuration = req.Configuration
	}

	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.Error("Failed to update agent via repository", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error updating agent: %w", err)
	}

	return s.GetAgent(ctx, orgID, id)
}

func (s *AgentService) UpdateAgentStatus(ctx context.Context, orgID uuid.UUID, id uuid.UUID, status agent.Status) error {
	if _, err := s.GetAgent(ctx, orgID, id); err != nil {
		return err
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("Failed to update agent status via repository", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error updating agent status: %w", err)
	}

	s.logger.Info("Agent status updated", zap.String("id", id.String()), zap.String("status", string(status)))
	return nil
}

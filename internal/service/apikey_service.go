package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/util"
	"go.uber.org/zap"
)

type APIKeyService struct {
	repo      apikey.Repository
	agentRepo agent.Repository
	logger    *zap.Logger
}

func NewAPIKeyService(repo apikey.Repository, agentRepo agent.Repository, logger *zap.Logger) *APIKeyService {
	return &APIKeyService{
		repo:      repo,
		agentRepo: agentRepo,
		logger:    logger.Named("APIKeyService"),
	}
}

func (s *APIKeyService) CreateAPIKey(ctx context.Context, orgID uuid.UUID, req *dto.CreateAPIKeyRequest) (*dto.CreateAPIKeyResponse, error) {
	owningAgent, err := s.agentRepo.FindByID(ctx, req.AgentID)
	if err != nil {
		if errors.Is(err, agent.ErrAgentNotFound) {
			return nil, fmt.Errorf("%w: agent does not exist", ierr.ErrValidation)
		}
		return nil, fmt.Errorf("repository error resolving agent: %w", err)
	}
	if owningAgent.OrganizationID != orgID {
		// Keys may only be minted for agents of the caller's own tenant.
		return nil, fmt.Errorf("%w: agent belongs to another organization", ierr.ErrForbidden)
	}

	fullKey, prefix, keyHash, err := util.GenerateAPIKey()
	if err != nil {
		s.logger.Error("Failed to generate api key components", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating key: %v", ierr.ErrInternalServer, err)
	}

	permissions := req.Permissions
	if len(permissions) == 0 {
		permissions = []string{"leads:write"}
	}

	newKey := &apikey.APIKey{
		AgentID:        req.AgentID,
		OrganizationID: orgID,
		KeyHash:        keyHash,
		Prefix:         prefix,
		Name:           req.Name,
		Permissions:    permissions,
		RateLimit:      req.RateLimit,
		ExpiresAt:      req.ExpiresAt,
		IPAllowlist:    req.IPAllowlist,
		IsActive:       true,
	}

	insertedID, err := s.repo.Create(ctx, newKey)
	if err != nil {
		s.logger.Error("Failed to save new api key", zap.Error(err))
		return nil, fmt.Errorf("repository error creating api key: %w", err)
	}

	s.logger.Info("API key created successfully", zap.String("id", insertedID.String()), zap.String("prefix", prefix))

	return &dto.CreateAPIKeyResponse{
		ID:          insertedID,
		FullKey:     fullKey,
		Prefix:      prefix,
		Name:        req.Name,
		AgentID:     req.AgentID,
		Permissions: permissions,
		RateLimit:   newKey.RateLimit,
		ExpiresAt:   newKey.ExpiresAt,
	}, nil
}

func (s *APIKeyService) ListAPIKeys(ctx context.Context, orgID uuid.UUID) ([]*dto.APIKeyResponse, error) {
	keys, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		s.logger.Error("Failed to list api keys from repository", zap.Error(err))
		return nil, fmt.Errorf("repository error listing api keys: %w", err)
	}

	responses := make([]*dto.APIKeyResponse, len(keys))
	for i, key := range keys {
		responses[i] = &dto.APIKeyResponse{
			ID:          key.ID,
			Prefix:      key.Prefix,
			Name:        key.Name,
			AgentID:     key.AgentID,
			Permissions: key.Permissions,
			RateLimit:   key.RateLimit,
			ExpiresAt:   key.ExpiresAt,
			IsActive:    key.IsActive,
			CreatedAt:   key.CreatedAt,
			LastUsedAt:  key.LastUsedAt,
		}
	}
	return responses, nil
}

// RevokeAPIKey soft-disables the key. The row and its usage history
// stay behind for auditing.
func (s *APIKeyService) RevokeAPIKey(ctx context.Context, orgID uuid.UUID, id uuid.UUID) error {
	if err := s.requireOwnership(ctx, orgID, id); err != nil {
		return err
	}

	if err := s.repo.Disable(ctx, id); err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			return fmt.Errorf("%w: api key", ierr.ErrNotFound)
		}
		s.logger.Error("Failed to revoke api key via repository", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("repository error revoking api key %s: %w", id, err)
	}

	s.logger.Info("API key revoked successfully", zap.String("id", id.String()))
	return nil
}

// RegenerateAPIKey rotates the secret while keeping the key id and its
// usage history. The old plaintext stops working immediately.
func (s *APIKeyService) RegenerateAPIKey(ctx context.Context, orgID uuid.UUID, id uuid.UUID) (*dto.CreateAPIKeyResponse, error) {
	if err := s.requireOwnership(ctx, orgID, id); err != nil {
		return nil, err
	}

	fullKey, prefix, keyHash, err := util.GenerateAPIKey()
	if err != nil {
		s.logger.Error("Failed to generate api key components", zap.Error(err))
		return nil, fmt.Errorf("%w: failed generating key: %v", ierr.ErrInternalServer, err)
	}

	if err := s.repo.RotateSecret(ctx, id, prefix, keyHash); err != nil {
		if errors.Is(err, apikey.ErrAPIKeyNotFound) {
			return nil, fmt.Errorf("%w: api key", ierr.ErrNotFound)
		}
		s.logger.Error("Failed to rotate api key secret", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error rotating api key %s: %w", id, err)
	}

	s.logger.Info("API key regenerated", zap.String("id", id.String()), zap.String("prefix", prefix))

	return &dto.CreateAPIKeyResponse{
		ID:      id,
		FullKey: fullKey,
		Prefix:  prefix,
	}, nil
}

func (s *APIKeyService) requireOwnership(ctx context.Context, orgID uuid.UUID, id uuid.UUID) error {
	keys, err := s.repo.ListByOrganization(ctx, orgID)
	if err != nil {
		return fmt.Errorf("repository error checking api key ownership: %w", err)
	}
	for _, key := range keys {
		if key.ID == id {
			return nil
		}
	}
	return fmt.Errorf("%w: api key", ierr.ErrNotFound)
}

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/lead"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"go.uber.org/zap"
)

type LeadService struct {
	repo   lead.Repository
	logger *zap.Logger
}

func NewLeadService(repo lead.Repository, logger *zap.Logger) *LeadService {
	return &LeadService{
		repo:   repo,
		logger: logger.Named("LeadService"),
	}
}

func (s *LeadService) CaptureLead(ctx context.Context, orgID uuid.UUID, agentID uuid.UUID, req *dto.CaptureLeadRequest) (uuid.UUID, error) {
	newLead := &lead.Lead{
		OrganizationID: orgID,
		AgentID:        agentID,
		Email:          req.Email,
		Source:         req.Source,
		Status:         lead.StatusNew,
		Metadata:       req.Metadata,
	}
	if req.Name != nil {
		newLead.Name = sql.NullString{String: *req.Name, Valid: true}
	}
	if req.Phone != nil {
		newLead.Phone = sql.NullString{String: *req.Phone, Valid: true}
	}

	insertedID, err := s.repo.Create(ctx, newLead)
	if err != nil {
		s.logger.Error("Failed to capture lead via repository", zap.Error(err))
		return uuid.Nil, fmt.Errorf("repository error capturing lead: %w", err)
	}

	s.logger.Info("Lead captured",
		zap.String("id", insertedID.String()),
		zap.String("agent_id", agentID.String()),
		zap.String("source", req.Source),
	)
	return insertedID, nil
}

func (s *LeadService) ListLeads(ctx context.Context, orgID uuid.UUID, limit int, offset int) (*dto.LeadListResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	leads, total, err := s.repo.ListByOrganization(ctx, orgID, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list leads from repository", zap.Error(err))
		return nil, fmt.Errorf("repository error listing leads: %w", err)
	}

	return &dto.LeadListResponse{
		Leads:  leads,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

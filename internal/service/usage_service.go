package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
	"go.uber.org/zap"
)

type UsageService struct {
	repo   usage.Repository
	logger *zap.Logger
}

func NewUsageService(repo usage.Repository, logger *zap.Logger) *UsageService {
	return &UsageService{
		repo:   repo,
		logger: logger.Named("UsageService"),
	}
}

func (s *UsageService) GetSummary(ctx context.Context, orgID uuid.UUID, periodDays int) (*usage.Summary, error) {
	if periodDays <= 0 || periodDays > 90 {
		periodDays = 30
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -periodDays)

	summary, err := s.repo.SummaryByOrganization(ctx, orgID, from, to)
	if err != nil {
		s.logger.Error("Failed to build usage summary", zap.String("org_id", orgID.String()), zap.Error(err))
		return nil, fmt.Errorf("repository error building usage summary: %w", err)
	}
	return summary, nil
}

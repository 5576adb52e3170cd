package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/service"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	usageService *service.UsageService
	logger       *zap.Logger
}

func NewDashboardHandler(usageService *service.UsageService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		usageService: usageService,
		logger:       logger.Named("DashboardHandler"),
	}
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	periodDays, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	summary, err := h.usageService.GetSummary(c.Request.Context(), org.ID, periodDays)
	if err != nil {
		h.logger.Error("Failed to get usage summary from service", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard summary"})
		return
	}

	c.JSON(http.StatusOK, dto.DashboardSummaryResponse{
		Organization: org.Slug,
		Usage:        summary,
		// The service clamps out-of-range periods; report the real span.
		PeriodDays: int(summary.PeriodEnd.Sub(summary.PeriodStart).Hours() / 24),
	})
}

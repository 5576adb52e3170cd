package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/handler/middleware"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	service *service.LeadService
	logger  *zap.Logger
}

func NewLeadHandler(service *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		service: service,
		logger:  logger.Named("LeadHandler"),
	}
}

// Capture is the programmatic entry point behind API-key auth: the
// caller identity comes from the key, not from the subdomain.
func (h *LeadHandler) Capture(c *gin.Context) {
	identity := middleware.IdentityFromContext(c)
	if identity == nil {
		// The route is always mounted behind APIKeyAuth.
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "API key required",
			"message": "Lead capture requires an API key",
		})
		return
	}

	if !identity.Key.HasPermission("leads:write") {
		h.logger.Warn("API key lacks lead capture permission", zap.String("key_id", identity.Key.ID.String()))
		_ = c.Error(fmt.Errorf("%w: key lacks leads:write permission", ierr.ErrForbidden))
		return
	}

	var req dto.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind capture lead request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	insertedID, err := h.service.CaptureLead(c.Request.Context(), identity.Organization.ID, identity.Agent.ID, &req)
	if err != nil {
		h.logger.Error("Service failed to capture lead", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": insertedID, "status": "captured"})
}

func (h *LeadHandler) List(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.service.ListLeads(c.Request.Context(), org.ID, limit, offset)
	if err != nil {
		h.logger.Error("Service failed to list leads", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

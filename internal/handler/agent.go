package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/service"
	"go.uber.org/zap"
)

type AgentHandler struct {
	service *service.AgentService
	logger  *zap.Logger
}

func NewAgentHandler(service *service.AgentService, logger *zap.Logger) *AgentHandler {
	return &AgentHandler{
		service: service,
		logger:  logger.Named("AgentHandler"),
	}
}

func (h *AgentHandler) Create(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	var req dto.CreateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind create agent request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	createdAgent, err := h.service.CreateAgent(c.Request.Context(), org.ID, &req)
	if err != nil {
		h.logger.Error("Service failed to create agent", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, createdAgent)
}

func (h *AgentHandler) List(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	agents, err := h.service.ListAgents(c.Request.Context(), org.ID)
	if err != nil {
		h.logger.Error("Service failed to list agents", zap.Error(err))
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, agents)
}

func (h *AgentHandler) GetByID(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid agent id format", ierr.ErrValidation))
		return
	}

	a, err := h.service.GetAgent(c.Request.Context(), org.ID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *AgentHandler) Update(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid agent id format", ierr.ErrValidation))
		return
	}

	var req dto.UpdateAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind update agent request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	updatedAgent, err := h.service.UpdateAgent(c.Request.Context(), org.ID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, updatedAgent)
}

func (h *AgentHandler) UpdateStatus(c *gin.Context) {
	org, ok := requireTenant(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = c.Error(fmt.Errorf("%w: invalid agent id format", ierr.ErrValidation))
		return
	}

	var req dto.UpdateAgentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Failed to bind update agent status request", zap.Error(err))
		_ = c.Error(fmt.Errorf("%w: %v", ierr.ErrValidation, err))
		return
	}

	if err := h.service.UpdateAgentStatus(c.Request.Context(), org.ID, id, req.Status); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

package dto

import (
	"encoding/json"

	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
)

type CreateAgentRequest struct {
	Name          string          `json:"name" binding:"required"`
	Type          string          `json:"type" binding:"required"`
	Description   *string         `json:"description,omitempty"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
	InitialStatus *agent.Status   `json:"initial_status,omitempty" binding:"omitempty,oneof=draft active paused"`
}

type UpdateAgentRequest struct {
	Name          *string         `json:"name,omitempty"`
	Type          *string         `json:"type,omitempty"`
	Description   *string         `json:"description,omitempty"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

type UpdateAgentStatusRequest struct {
	Status agent.Status `json:"status" binding:"required,oneof=draft active paused archived"`
}

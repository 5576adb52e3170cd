package dto

import (
	"encoding/json"

	"github.com/neurallempire/neurallempire-api/internal/domain/lead"
)

type CaptureLeadRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Name     *string         `json:"name,omitempty"`
	Phone    *string         `json:"phone,omitempty"`
	Source   string          `json:"source" binding:"required"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

type LeadListResponse struct {
	Leads  []*lead.Lead `json:"leads"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

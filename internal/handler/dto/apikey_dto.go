package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateAPIKeyRequest struct {
	Name        string     `json:"name" binding:"required"`
	AgentID     uuid.UUID  `json:"agent_id" binding:"required"`
	Permissions []string   `json:"permissions"`
	RateLimit   int        `json:"rate_limit" binding:"omitempty,gt=0"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IPAllowlist []string   `json:"ip_allowlist,omitempty"`
}

// CreateAPIKeyResponse carries the plaintext key. It is returned
// exactly once, at creation or regeneration; only the hash is stored.
type CreateAPIKeyResponse struct {
	ID          uuid.UUID  `json:"id"`
	FullKey     string     `json:"full_key"`
	Prefix      string     `json:"prefix"`
	Name        string     `json:"name"`
	AgentID     uuid.UUID  `json:"agent_id"`
	Permissions []string   `json:"permissions"`
	RateLimit   int        `json:"rate_limit"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type APIKeyResponse struct {
	ID          uuid.UUID  `json:"id"`
	Prefix      string     `json:"prefix"`
	Name        string     `json:"name"`
	AgentID     uuid.UUID  `json:"agent_id"`
	Permissions []string   `json:"permissions"`
	RateLimit   int        `json:"rate_limit"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

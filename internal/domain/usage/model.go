package usage

import (
	"time"

	"github.com/google/uuid"
)

// Record is an append-only log entry describing one completed request
// attributed to an API key. Written by the admission pipeline, read by
// reporting endpoints.
type Record struct {
	ID             uuid.UUID `db:"id" json:"id"`
	APIKeyID       uuid.UUID `db:"api_key_id" json:"api_key_id"`
	AgentID        uuid.UUID `db:"agent_id" json:"agent_id"`
	OrganizationID uuid.UUID `db:"organization_id" json:"organization_id"`
	Method         string    `db:"method" json:"method"`
	Path           string    `db:"path" json:"path"`
	StatusCode     int       `db:"status_code" json:"status_code"`
	ResponseTimeMS int64     `db:"response_time_ms" json:"response_time_ms"`
	RequestSize    int64     `db:"request_size" json:"request_size"`
	ResponseSize   int64     `db:"response_size" json:"response_size"`
	IPAddress      string    `db:"ip_address" json:"ip_address"`
	UserAgent      string    `db:"user_agent" json:"user_agent"`
	Error          *string   `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Summary aggregates usage for one organization over a period.
type Summary struct {
	TotalRequests  int64          `json:"total_requests"`
	ErrorRequests  int64          `json:"error_requests"`
	AvgResponseMS  float64        `json:"avg_response_ms"`
	RequestsPerKey map[string]int `json:"requests_per_key"`
	PeriodStart    time.Time      `json:"period_start"`
	PeriodEnd      time.Time      `json:"period_end"`
}

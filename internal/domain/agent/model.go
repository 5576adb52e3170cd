package agent

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft    Status = "draft"
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Agent is a configured AI marketing agent owned by an organization.
// API keys authenticate programmatic calls on behalf of an agent.
type Agent struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	Name           string          `db:"name" json:"name"`
	Type           string          `db:"type" json:"type"`
	Status         Status          `db:"status" json:"status"`
	Description    sql.NullString  `db:"description" json:"description,omitempty"`
	Configuration  json.RawMessage `db:"configuration" json:"configuration,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func (a *Agent) SetConfiguration(data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	a.Configuration = jsonData
	return nil
}

func (a *Agent) GetConfiguration(target interface{}) error {
	if a.Configuration == nil {
		return nil
	}
	return json.Unmarshal(a.Configuration, target)
}

package lead

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
)

// Lead is a captured prospect submitted through an agent's programmatic
// endpoint.
type Lead struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	OrganizationID uuid.UUID       `db:"organization_id" json:"organization_id"`
	AgentID        uuid.UUID       `db:"agent_id" json:"agent_id"`
	Email          string          `db:"email" json:"email"`
	Name           sql.NullString  `db:"name" json:"name,omitempty"`
	Phone          sql.NullString  `db:"phone" json:"phone,omitempty"`
	Source         string          `db:"source" json:"source"`
	Status         Status          `db:"status" json:"status"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

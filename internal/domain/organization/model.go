package organization

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

type SubdomainStatus string

const (
	SubdomainActive    SubdomainStatus = "active"
	SubdomainSuspended SubdomainStatus = "suspended"
	SubdomainDisabled  SubdomainStatus = "disabled"
)

type PlanLimits struct {
	MaxUsers     int `db:"max_users" json:"max_users"`
	MaxAgents    int `db:"max_agents" json:"max_agents"`
	MaxWorkflows int `db:"max_workflows" json:"max_workflows"`
	StorageMB    int `db:"storage_mb" json:"storage_mb"`
}

type Organization struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	Slug             string          `db:"slug" json:"slug"`
	Status           Status          `db:"status" json:"status"`
	PlanType         string          `db:"plan_type" json:"plan_type"`
	SubdomainEnabled bool            `db:"subdomain_enabled" json:"subdomain_enabled"`
	SubdomainStatus  SubdomainStatus `db:"subdomain_status" json:"subdomain_status"`
	Limits           PlanLimits      `json:"limits"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// Admissible reports whether requests may be served under this
// organization at all, independent of how it was addressed.
func (o *Organization) Admissible() bool {
	return o.Status == StatusActive || o.Status == StatusTrial
}

// SubdomainUsable reports whether the organization may be reached
// through its subdomain.
func (o *Organization) SubdomainUsable() bool {
	return o.SubdomainEnabled && o.SubdomainStatus == SubdomainActive
}

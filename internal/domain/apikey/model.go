package apikey

import (
	"time"

	"github.com/google/uuid"
)

type APIKey struct {
	ID             uuid.UUID  `db:"id"`
	AgentID        uuid.UUID  `db:"agent_id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	KeyHash        string     `db:"key_hash"`
	Prefix         string     `db:"prefix"`
	Name           string     `db:"name"`
	Permissions    []string   `db:"permissions"`
	RateLimit      int        `db:"rate_limit"`
	ExpiresAt      *time.Time `db:"expires_at"`
	IPAllowlist    []string   `db:"ip_allowlist"`
	IsActive       bool       `db:"is_active"`
	CreatedAt      time.Time  `db:"created_at"`
	LastUsedAt     *time.Time `db:"last_used_at"`
}

const (
	APIKeyPrefixLength = 8
	APIKeySecretLength = 32
	APIKeyFormat       = "ne_%s_%s"
)

// Expired reports whether the key has a configured expiry in the past.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}

// AllowsIP reports whether the caller IP passes the key's allowlist.
// An empty allowlist admits every address.
func (k *APIKey) AllowsIP(ip string) bool {
	if len(k.IPAllowlist) == 0 {
		return true
	}
	for _, allowed := range k.IPAllowlist {
		if allowed == ip {
			return true
		}
	}
	return false
}

// HasPermission reports whether the key carries the named permission.
// The wildcard "*" grants everything.
func (k *APIKey) HasPermission(perm string) bool {
	for _, p := range k.Permissions {
		if p == "*" || p == perm {
			return true
		}
	}
	return false
}

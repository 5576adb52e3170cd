package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
)

const (
	tenantContextKey   = "tenantOrganization"
	identityContextKey = "apiKeyIdentity"
	claimsContextKey   = "adminClaims"
)

// Identity is the authenticated programmatic caller: the API key that
// was presented plus the agent and organization it belongs to. It is
// constructed once by the API-key authenticator and read-only after.
type Identity struct {
	Key          *apikey.APIKey
	Agent        *agent.Agent
	Organization *organization.Organization
}

func setTenant(c *gin.Context, org *organization.Organization) {
	c.Set(tenantContextKey, org)
}

// TenantFromContext returns the organization resolved from the request
// hostname, or nil when the request carried no tenant claim. A non-nil
// tenant identifies an organization; it does not authenticate a caller.
func TenantFromContext(c *gin.Context) *organization.Organization {
	value, exists := c.Get(tenantContextKey)
	if !exists {
		return nil
	}
	org, ok := value.(*organization.Organization)
	if !ok {
		return nil
	}
	return org
}

func setIdentity(c *gin.Context, identity *Identity) {
	c.Set(identityContextKey, identity)
}

// IdentityFromContext returns the API-key identity attached by the
// authenticator, or nil on unauthenticated requests.
func IdentityFromContext(c *gin.Context) *Identity {
	value, exists := c.Get(identityContextKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*Identity)
	if !ok {
		return nil
	}
	return identity
}

package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"github.com/neurallempire/neurallempire-api/internal/handler/middleware"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
)

// requireTenant fetches the organization resolved from the hostname.
// Management handlers are tenant-scoped; calling them without a tenant
// subdomain (or dev override) is a validation error.
func requireTenant(c *gin.Context) (*organization.Organization, bool) {
	org := middleware.TenantFromContext(c)
	if org == nil {
		_ = c.Error(fmt.Errorf("%w: request must be made against an organization subdomain", ierr.ErrValidation))
		return nil, false
	}
	return org, true
}

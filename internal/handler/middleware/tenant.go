package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/config"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"github.com/neurallempire/neurallempire-api/internal/handler/dto"
	"github.com/neurallempire/neurallempire-api/internal/metrics"
)

const (
	tenantHeader     = "X-Tenant"
	tenantQueryParam = "tenant"
	authPathPrefix   = "/api/v1/auth"
)

// Hostname labels that never identify a tenant.
var reservedSubdomains = map[string]bool{
	"www":   true,
	"api":   true,
	"app":   true,
	"admin": true,
	"mail":  true,
}

// TenantResolver derives an organization context from the request
// hostname. Resolution is an identity axis independent of API-key
// authentication: it names a tenant, it does not authenticate a caller.
//
// A request that claims no subdomain passes through without a tenant.
// A request that claims a subdomain must resolve to an admissible
// organization or is rejected before any handler runs.
func TenantResolver(orgRepo organization.Repository, cfg *config.TenancyConfig, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("TenantResolver")
	return func(c *gin.Context) {
		// Auth endpoints must work before any tenant exists.
		if strings.HasPrefix(c.Request.URL.Path, authPathPrefix) {
			c.Next()
			return
		}

		host := stripPort(c.Request.Host)

		slug, claimed := candidateSlug(c, host, cfg)
		if !claimed {
			metrics.TenantResolutions.WithLabelValues("none").Inc()
			c.Next()
			return
		}

		org, err := orgRepo.FindBySlug(c.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, organization.ErrOrganizationNotFound) {
				log.Warn("Subdomain claimed for unknown organization", zap.String("slug", slug), zap.String("host", host))
				metrics.TenantResolutions.WithLabelValues("not_found").Inc()
				c.AbortWithStatusJSON(http.StatusNotFound, dto.TenantErrorResponse{
					Success:   false,
					Error:     "Organization not found",
					Code:      "ORG_NOT_FOUND",
					Subdomain: slug,
				})
				return
			}

			log.Error("Failed to query organization store", zap.String("slug", slug), zap.Error(err))
			metrics.TenantResolutions.WithLabelValues("error").Inc()
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.TenantErrorResponse{
				Success: false,
				Error:   "Failed to resolve organization",
				Code:    "ORG_LOOKUP_FAILED",
			})
			return
		}

		if !org.Admissible() {
			log.Warn("Request for inactive organization",
				zap.String("slug", slug),
				zap.String("status", string(org.Status)),
			)
			metrics.TenantResolutions.WithLabelValues("inactive").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, dto.TenantErrorResponse{
				Success:   false,
				Error:     "Organization is not active",
				Code:      "ORG_INACTIVE",
				Subdomain: slug,
			})
			return
		}

		if !org.SubdomainUsable() {
			log.Warn("Request via disabled subdomain", zap.String("slug", slug))
			metrics.TenantResolutions.WithLabelValues("subdomain_disabled").Inc()
			c.AbortWithStatusJSON(http.StatusForbidden, dto.TenantErrorResponse{
				Success:   false,
				Error:     "Subdomain access is disabled",
				Code:      "SUBDOMAIN_DISABLED",
				Subdomain: slug,
			})
			return
		}

		setTenant(c, org)
		c.Header("X-Organization-Id", org.ID.String())
		c.Header("X-Organization-Plan", org.PlanType)

		log.Debug("Tenant resolved", zap.String("slug", slug), zap.String("org_id", org.ID.String()))
		metrics.TenantResolutions.WithLabelValues("resolved").Inc()
		c.Next()
	}
}

// candidateSlug decides whether the request claims a tenant and if so
// which slug. The parsing step never consults the store: "no claim"
// and "claimed but unknown" stay distinct outcomes.
func candidateSlug(c *gin.Context, host string, cfg *config.TenancyConfig) (string, bool) {
	if isLoopbackHost(host) {
		if slug := c.GetHeader(tenantHeader); slug != "" {
			return strings.ToLower(slug), true
		}
		if slug := c.Query(tenantQueryParam); slug != "" {
			return strings.ToLower(slug), true
		}
		return "", false
	}

	if host == cfg.BaseDomain || host == "www."+cfg.BaseDomain {
		return "", false
	}
	for _, platformHost := range cfg.PlatformHosts {
		if host == platformHost {
			return "", false
		}
	}

	labels := strings.Split(host, ".")
	if len(labels) < 3 {
		return "", false
	}
	if reservedSubdomains[labels[0]] {
		return "", false
	}
	return strings.ToLower(labels[0]), true
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopbackHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/config"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"github.com/neurallempire/neurallempire-api/internal/storage/memstorage"
)

func tenancyConfigForTest() *config.TenancyConfig {
	return &config.TenancyConfig{
		BaseDomain:    "neurallempire.com",
		PlatformHosts: []string{"neurallempire.onrender.com"},
	}
}

func seedOrganization(t *testing.T, repo organization.Repository, slug string, status organization.Status, subdomainUsable bool) *organization.Organization {
	t.Helper()
	org := &organization.Organization{
		Name:             slug,
		Slug:             slug,
		Status:           status,
		PlanType:         "pro",
		SubdomainEnabled: subdomainUsable,
		SubdomainStatus:  organization.SubdomainActive,
	}
	if !subdomainUsable {
		org.SubdomainStatus = organization.SubdomainDisabled
	}
	_, err := repo.Create(context.Background(), org)
	require.NoError(t, err)
	return org
}

func buildTenantRouter(orgRepo organization.Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TenantResolver(orgRepo, tenancyConfigForTest(), zap.NewNop()))
	probe := func(c *gin.Context) {
		org := TenantFromContext(c)
		if org == nil {
			c.JSON(http.StatusOK, gin.H{"tenant": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tenant": org.Slug})
	}
	r.GET("/probe", probe)
	r.POST("/api/v1/auth/login", probe)
	return r
}

func doTenantReq(r *gin.Engine, host string, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://"+host+path, http.NoBody)
	r.ServeHTTP(w, req)
	return w
}

func TestTenantResolver_ResolvesActiveOrganization(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	org := seedOrganization(t, repo, "acme", organization.StatusActive, true)
	r := buildTenantRouter(repo)

	res := doTenantReq(r, "acme.neurallempire.com", "/probe")

	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"tenant":"acme"}`, res.Body.String())
	require.Equal(t, org.ID.String(), res.Header().Get("X-Organization-Id"))
	require.Equal(t, "pro", res.Header().Get("X-Organization-Plan"))
}

func TestTenantResolver_TrialOrganizationIsAdmitted(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	seedOrganization(t, repo, "startup", organization.StatusTrial, true)
	r := buildTenantRouter(repo)

	res := doTenantReq(r, "startup.neurallempire.com", "/probe")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"tenant":"startup"}`, res.Body.String())
}

func TestTenantResolver_UnknownSubdomainIs404(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	r := buildTenantRouter(repo)

	res := doTenantReq(r, "acme.neurallempire.com", "/probe")

	require.Equal(t, http.StatusNotFound, res.Code)
	require.JSONEq(t, `{"success":false,"error":"Organization not found","code":"ORG_NOT_FOUND","subdomain":"acme"}`, res.Body.String())
}

func TestTenantResolver_SuspendedOrganizationIsRejected(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	seedOrganization(t, repo, "ghost", organization.StatusSuspended, true)
	r := buildTenantRouter(repo)

	res := doTenantReq(r, "ghost.neurallempire.com", "/probe")

	require.Equal(t, http.StatusForbidden, res.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "ORG_INACTIVE", body["code"])
	require.Equal(t, "ghost", body["subdomain"])
}

func TestTenantResolver_DisabledSubdomainIsRejected(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	seedOrganization(t, repo, "muted", organization.StatusActive, false)
	r := buildTenantRouter(repo)

	res := doTenantReq(r, "muted.neurallempire.com", "/probe")

	require.Equal(t, http.StatusForbidden, res.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "SUBDOMAIN_DISABLED", body["code"])
}

func TestTenantResolver_NoTenantHosts(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	r := buildTenantRouter(repo)

	hosts := []string{
		"neurallempire.com",
		"www.neurallempire.com",
		"api.neurallempire.com",
		"app.neurallempire.com",
		"admin.neurallempire.com",
		"mail.neurallempire.com",
		"neurallempire.onrender.com",
	}
	for _, host := range hosts {
		res := doTenantReq(r, host, "/probe")
		require.Equal(t, http.StatusOK, res.Code, "host %s should pass through", host)
		require.JSONEq(t, `{"tenant":null}`, res.Body.String(), "host %s should carry no tenant", host)
	}
}

func TestTenantResolver_HostPortIsStripped(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	seedOrganization(t, repo, "acme", organization.StatusActive, true)
	r := buildTenantRouter(repo)

	res := doTenantReq(r, "acme.neurallempire.com:8080", "/probe")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"tenant":"acme"}`, res.Body.String())
}

func TestTenantResolver_LoopbackOverrides(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	seedOrganization(t, repo, "acme", organization.StatusActive, true)
	r := buildTenantRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/probe", http.NoBody)
	req.Header.Set("X-Tenant", "acme")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"tenant":"acme"}`, w.Body.String())

	res := doTenantReq(r, "127.0.0.1:8080", "/probe?tenant=acme")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"tenant":"acme"}`, res.Body.String())

	// No override means no tenant claim, even when orgs exist.
	res = doTenantReq(r, "localhost:8080", "/probe")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"tenant":null}`, res.Body.String())
}

func TestTenantResolver_LoopbackOverrideUnknownSlugIs404(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	r := buildTenantRouter(repo)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localhost:8080/probe", http.NoBody)
	req.Header.Set("X-Tenant", "nope")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestTenantResolver_AuthPathBypassesResolution(t *testing.T) {
	repo := memstorage.NewOrganizationRepository()
	r := buildTenantRouter(repo)

	// Unknown subdomain, but the auth route must still work.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "http://nosuchorg.neurallempire.com/api/v1/auth/login", http.NoBody)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

type failingOrgRepo struct{}

func (failingOrgRepo) FindBySlug(ctx context.Context, slug string) (*organization.Organization, error) {
	return nil, errors.New("connection refused")
}
func (failingOrgRepo) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	return nil, errors.New("connection refused")
}
func (failingOrgRepo) Create(ctx context.Context, org *organization.Organization) (uuid.UUID, error) {
	return uuid.Nil, errors.New("connection refused")
}
func (failingOrgRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status organization.Status) error {
	return errors.New("connection refused")
}

func TestTenantResolver_StoreFailureIs500(t *testing.T) {
	r := buildTenantRouter(failingOrgRepo{})

	res := doTenantReq(r, "acme.neurallempire.com", "/probe")

	require.Equal(t, http.StatusInternalServerError, res.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, "ORG_LOOKUP_FAILED", body["code"])
}

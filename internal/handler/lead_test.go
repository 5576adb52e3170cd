package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/domain/lead"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
	"github.com/neurallempire/neurallempire-api/internal/handler/middleware"
	"github.com/neurallempire/neurallempire-api/internal/service"
	"github.com/neurallempire/neurallempire-api/internal/storage/memstorage"
	"github.com/neurallempire/neurallempire-api/internal/util"
)

type recordingEnqueuer struct {
	records chan *usage.Record
}

func (e *recordingEnqueuer) EnqueueUsageRecord(ctx context.Context, record *usage.Record) error {
	e.records <- record
	return nil
}

func (e *recordingEnqueuer) wait(t *testing.T) *usage.Record {
	t.Helper()
	select {
	case record := <-e.records:
		return record
	case <-time.After(2 * time.Second):
		t.Fatal("no usage record was enqueued")
		return nil
	}
}

type leadMemRepo struct {
	leads []*lead.Lead
}

func (r *leadMemRepo) Create(ctx context.Context, l *lead.Lead) (uuid.UUID, error) {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	r.leads = append(r.leads, l)
	return l.ID, nil
}

func (r *leadMemRepo) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int, offset int) ([]*lead.Lead, int64, error) {
	var matched []*lead.Lead
	for _, l := range r.leads {
		if l.OrganizationID == orgID {
			matched = append(matched, l)
		}
	}
	return matched, int64(len(matched)), nil
}

// leadPipelineFixture assembles the full programmatic admission chain
// the way the server mounts it for POST /api/v1/leads.
type leadPipelineFixture struct {
	router   *gin.Engine
	enqueuer *recordingEnqueuer
	leadRepo *leadMemRepo
	keyRepo  *memstorage.APIKeyRepository
	orgID    uuid.UUID
	agentID  uuid.UUID
}

func newLeadPipelineFixture(t *testing.T) *leadPipelineFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	f := &leadPipelineFixture{
		enqueuer: &recordingEnqueuer{records: make(chan *usage.Record, 16)},
		leadRepo: &leadMemRepo{},
		keyRepo:  memstorage.NewAPIKeyRepository(),
	}

	orgRepo := memstorage.NewOrganizationRepository()
	org := &organization.Organization{
		Name:             "acme",
		Slug:             "acme",
		Status:           organization.StatusActive,
		SubdomainEnabled: true,
		SubdomainStatus:  organization.SubdomainActive,
	}
	orgID, err := orgRepo.Create(context.Background(), org)
	require.NoError(t, err)
	f.orgID = orgID

	agentRepo := memstorage.NewAgentRepository()
	agentID, err := agentRepo.Create(context.Background(), &agent.Agent{
		OrganizationID: orgID,
		Name:           "outreach-bot",
		Type:           "outreach",
		Status:         agent.StatusActive,
	})
	require.NoError(t, err)
	f.agentID = agentID

	leadHandler := NewLeadHandler(service.NewLeadService(f.leadRepo, logger), logger)

	r := gin.New()
	r.Use(middleware.ErrorHandlerMiddleware(logger))
	r.POST("/api/v1/leads",
		middleware.APIKeyAuth(f.keyRepo, agentRepo, orgRepo, logger),
		middleware.UsageRecorder(f.enqueuer, logger),
		middleware.RateLimit(limitermemory.NewStore(), 60, logger),
		leadHandler.Capture,
	)
	f.router = r
	return f
}

func (f *leadPipelineFixture) mintKey(t *testing.T, permissions []string, rateLimit int) string {
	t.Helper()
	fullKey, prefix, keyHash, err := util.GenerateAPIKey()
	require.NoError(t, err)
	_, err = f.keyRepo.Create(context.Background(), &apikey.APIKey{
		AgentID:        f.agentID,
		OrganizationID: f.orgID,
		KeyHash:        keyHash,
		Prefix:         prefix,
		Name:           "pipeline",
		Permissions:    permissions,
		RateLimit:      rateLimit,
		IsActive:       true,
	})
	require.NoError(t, err)
	return fullKey
}

func (f *leadPipelineFixture) capture(key string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestLeadCapturePipeline(t *testing.T) {
	f := newLeadPipelineFixture(t)
	key := f.mintKey(t, []string{"leads:write"}, 60)

	res := f.capture(key, `{"email":"jane@example.com","source":"landing-page"}`)

	require.Equal(t, http.StatusCreated, res.Code)
	assert.Contains(t, res.Body.String(), `"status":"captured"`)

	require.Len(t, f.leadRepo.leads, 1)
	assert.Equal(t, f.orgID, f.leadRepo.leads[0].OrganizationID)
	assert.Equal(t, f.agentID, f.leadRepo.leads[0].AgentID)

	record := f.enqueuer.wait(t)
	assert.Equal(t, http.StatusCreated, record.StatusCode)
	assert.Equal(t, "/api/v1/leads", record.Path)
}

func TestLeadCaptureRequiresKey(t *testing.T) {
	f := newLeadPipelineFixture(t)

	res := f.capture("", `{"email":"jane@example.com","source":"landing-page"}`)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, f.leadRepo.leads)
}

func TestLeadCaptureRequiresWritePermission(t *testing.T) {
	f := newLeadPipelineFixture(t)
	key := f.mintKey(t, []string{"usage:read"}, 60)

	res := f.capture(key, `{"email":"jane@example.com","source":"landing-page"}`)

	require.Equal(t, http.StatusForbidden, res.Code)
	assert.Contains(t, res.Body.String(), "FORBIDDEN")
	require.Empty(t, f.leadRepo.leads)
}

func TestLeadCaptureRejectsBadPayload(t *testing.T) {
	f := newLeadPipelineFixture(t)
	key := f.mintKey(t, []string{"leads:write"}, 60)

	res := f.capture(key, `{"source":"landing-page"}`)

	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "VALIDATION_ERROR")
	require.Empty(t, f.leadRepo.leads)
}

func TestLeadCaptureRateLimitedRequestsAreStillRecorded(t *testing.T) {
	f := newLeadPipelineFixture(t)
	key := f.mintKey(t, []string{"leads:write"}, 2)
	body := `{"email":"jane@example.com","source":"landing-page"}`

	require.Equal(t, http.StatusCreated, f.capture(key, body).Code)
	require.Equal(t, http.StatusCreated, f.capture(key, body).Code)

	res := f.capture(key, body)
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Contains(t, res.Body.String(), "API rate limit of 2 requests per minute exceeded")

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		statuses = append(statuses, f.enqueuer.wait(t).StatusCode)
	}
	assert.Contains(t, statuses, http.StatusTooManyRequests, "the rejected request is still billable")
}

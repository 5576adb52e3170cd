package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/domain/agent"
	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
	"github.com/neurallempire/neurallempire-api/internal/domain/organization"
	"github.com/neurallempire/neurallempire-api/internal/domain/usage"
)

// captureEnqueuer hands records back over a channel so tests can wait
// out the detached submission goroutine.
type captureEnqueuer struct {
	records chan *usage.Record
	err     error
}

func newCaptureEnqueuer(err error) *captureEnqueuer {
	return &captureEnqueuer{records: make(chan *usage.Record, 8), err: err}
}

func (e *captureEnqueuer) EnqueueUsageRecord(ctx context.Context, record *usage.Record) error {
	e.records <- record
	return e.err
}

func (e *captureEnqueuer) wait(t *testing.T) *usage.Record {
	t.Helper()
	select {
	case record := <-e.records:
		return record
	case <-time.After(2 * time.Second):
		t.Fatal("no usage record was enqueued")
		return nil
	}
}

func fullIdentity() *Identity {
	orgID := uuid.New()
	return &Identity{
		Key:          &apikey.APIKey{ID: uuid.New(), OrganizationID: orgID, IsActive: true},
		Agent:        &agent.Agent{ID: uuid.New(), OrganizationID: orgID},
		Organization: &organization.Organization{ID: orgID, Slug: "acme"},
	}
}

func buildUsageRouter(enqueuer UsageEnqueuer, identity *Identity, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if identity != nil {
		r.Use(func(c *gin.Context) {
			setIdentity(c, identity)
			c.Next()
		})
	}
	r.Use(UsageRecorder(enqueuer, zap.NewNop()))
	r.POST("/api/v1/leads", handler)
	return r
}

func TestUsageRecorder_RecordsAuthenticatedRequest(t *testing.T) {
	enqueuer := newCaptureEnqueuer(nil)
	identity := fullIdentity()
	r := buildUsageRouter(enqueuer, identity, func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"accepted": true})
	})

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"email":"jane@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads", body)
	req.Header.Set("User-Agent", "agent-sdk/1.2")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	record := enqueuer.wait(t)
	require.Equal(t, identity.Key.ID, record.APIKeyID)
	require.Equal(t, identity.Agent.ID, record.AgentID)
	require.Equal(t, identity.Organization.ID, record.OrganizationID)
	require.Equal(t, http.MethodPost, record.Method)
	require.Equal(t, "/api/v1/leads", record.Path)
	require.Equal(t, http.StatusCreated, record.StatusCode)
	require.Equal(t, int64(28), record.RequestSize)
	require.Positive(t, record.ResponseSize)
	require.Equal(t, "agent-sdk/1.2", record.UserAgent)
	require.Nil(t, record.Error)
}

func TestUsageRecorder_SkipsUnauthenticatedRequest(t *testing.T) {
	enqueuer := newCaptureEnqueuer(nil)
	r := buildUsageRouter(enqueuer, nil, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leads", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case <-enqueuer.records:
		t.Fatal("unauthenticated request must not produce a usage record")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUsageRecorder_RecordsRejectedStatus(t *testing.T) {
	// A downstream 429 is still billable traffic.
	enqueuer := newCaptureEnqueuer(nil)
	r := buildUsageRouter(enqueuer, fullIdentity(), func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leads", http.NoBody))
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	record := enqueuer.wait(t)
	require.Equal(t, http.StatusTooManyRequests, record.StatusCode)
}

func TestUsageRecorder_CapturesHandlerErrors(t *testing.T) {
	enqueuer := newCaptureEnqueuer(nil)
	r := buildUsageRouter(enqueuer, fullIdentity(), func(c *gin.Context) {
		_ = c.Error(errors.New("lead validation failed"))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leads", http.NoBody))

	record := enqueuer.wait(t)
	require.NotNil(t, record.Error)
	require.Contains(t, *record.Error, "lead validation failed")
}

func TestUsageRecorder_EnqueueFailureLeavesResponseIntact(t *testing.T) {
	enqueuer := newCaptureEnqueuer(errors.New("redis unavailable"))
	r := buildUsageRouter(enqueuer, fullIdentity(), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"accepted": true})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/leads", http.NoBody))

	require.Equal(t, http.StatusCreated, w.Code)
	require.JSONEq(t, `{"accepted":true}`, w.Body.String())
	enqueuer.wait(t)
}

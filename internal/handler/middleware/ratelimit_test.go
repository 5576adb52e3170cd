package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	"go.uber.org/zap"

	"github.com/neurallempire/neurallempire-api/internal/domain/apikey"
)

func buildRateLimitRouter(defaultPerMinute int, identity *Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if identity != nil {
		r.Use(func(c *gin.Context) {
			setIdentity(c, identity)
			c.Next()
		})
	}
	r.Use(RateLimit(limitermemory.NewStore(), defaultPerMinute, zap.NewNop()))
	r.POST("/leads", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"accepted": true})
	})
	return r
}

func identityWithLimit(perMinute int) *Identity {
	return &Identity{
		Key: &apikey.APIKey{
			ID:        uuid.New(),
			RateLimit: perMinute,
			IsActive:  true,
		},
	}
}

func doRateLimitReq(r *gin.Engine, clientIP string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/leads", http.NoBody)
	if clientIP != "" {
		req.Header.Set("X-Real-IP", clientIP)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsAboveConfiguredLimit(t *testing.T) {
	r := buildRateLimitRouter(1000, identityWithLimit(60))

	for i := 0; i < 60; i++ {
		res := doRateLimitReq(r, "")
		require.Equal(t, http.StatusCreated, res.Code, "request %d should be admitted", i+1)
	}

	res := doRateLimitReq(r, "")
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.JSONEq(t, `{"error":"Rate limit exceeded","message":"API rate limit of 60 requests per minute exceeded"}`, res.Body.String())
	require.Equal(t, "0", res.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_SetsWindowHeaders(t *testing.T) {
	r := buildRateLimitRouter(1000, identityWithLimit(60))

	res := doRateLimitReq(r, "")

	require.Equal(t, http.StatusCreated, res.Code)
	require.Equal(t, "60", res.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "59", res.Header().Get("X-RateLimit-Remaining"))

	reset := res.Header().Get("X-RateLimit-Reset")
	require.NotEmpty(t, reset)
}

func TestRateLimit_FallsBackToDefaultLimit(t *testing.T) {
	// A key with no explicit quota uses the configured default.
	r := buildRateLimitRouter(2, identityWithLimit(0))

	require.Equal(t, http.StatusCreated, doRateLimitReq(r, "").Code)
	require.Equal(t, http.StatusCreated, doRateLimitReq(r, "").Code)

	res := doRateLimitReq(r, "")
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Contains(t, res.Body.String(), "API rate limit of 2 requests per minute exceeded")
}

func TestRateLimit_WindowIsPerClientIP(t *testing.T) {
	r := buildRateLimitRouter(1000, identityWithLimit(1))
	r.TrustedPlatform = "X-Real-IP"

	require.Equal(t, http.StatusCreated, doRateLimitReq(r, "203.0.113.7").Code)
	require.Equal(t, http.StatusTooManyRequests, doRateLimitReq(r, "203.0.113.7").Code)

	// A different caller of the same key gets its own window.
	require.Equal(t, http.StatusCreated, doRateLimitReq(r, "203.0.113.8").Code)
}

func TestRateLimit_WindowIsPerKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := limitermemory.NewStore()
	first := identityWithLimit(1)
	second := identityWithLimit(1)

	current := first
	r := gin.New()
	r.Use(func(c *gin.Context) {
		setIdentity(c, current)
		c.Next()
	})
	r.Use(RateLimit(store, 60, zap.NewNop()))
	r.POST("/leads", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"accepted": true})
	})

	require.Equal(t, http.StatusCreated, doRateLimitReq(r, "").Code)
	require.Equal(t, http.StatusTooManyRequests, doRateLimitReq(r, "").Code)

	current = second
	require.Equal(t, http.StatusCreated, doRateLimitReq(r, "").Code)
}

func TestRateLimit_UnauthenticatedRequestsBypass(t *testing.T) {
	r := buildRateLimitRouter(1, nil)

	for i := 0; i < 5; i++ {
		res := doRateLimitReq(r, "")
		require.Equal(t, http.StatusCreated, res.Code)
		require.Empty(t, res.Header().Get("X-RateLimit-Limit"))
	}
}

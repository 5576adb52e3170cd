package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TenantResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_tenant_resolutions_total",
		Help: "Tenant resolution outcomes by result.",
	}, []string{"outcome"})

	APIKeyAuthAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admission_apikey_auth_total",
		Help: "API key authentication outcomes by result.",
	}, []string{"outcome"})

	RateLimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admission_rate_limited_total",
		Help: "Requests rejected by the per-key rate limiter.",
	})

	UsageRecordFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admission_usage_record_failures_total",
		Help: "Usage records that could not be enqueued or persisted.",
	})
)

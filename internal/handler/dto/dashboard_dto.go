package dto

import "github.com/neurallempire/neurallempire-api/internal/domain/usage"

type DashboardSummaryResponse struct {
	Organization string         `json:"organization"`
	Usage        *usage.Summary `json:"usage"`
	PeriodDays   int            `json:"periodDays"`
}

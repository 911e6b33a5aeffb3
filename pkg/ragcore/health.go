package ragcore

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/ragcore/internal/usecase/health"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // database, embedding, llm -> "ok"/"error"
}

// Healthy reports whether every component passed.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Health checks storage and both model providers.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	var err error
	if report.Status == healthuc.Unhealthy {
		err = errUnhealthy
	}
	c.obs.observe("health", start, err)
	return HealthStatus{Status: string(report.Status), Checks: checks}
}

// healthUseCase is the internal interface for health checks.
type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

package pipeline

import (
	"context"
	"time"
)

// HealthReport is the system readiness payload.
type HealthReport struct {
	SystemReady bool               `json:"system_ready"`
	Providers   map[string]bool    `json:"providers"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	CheckedAt   time.Time          `json:"checked_at"`
}

// Health reports collaborator readiness. The market data source is probed
// with a cheap snapshot call bounded by a short timeout.
func (r *Runner) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Providers: r.enricher.ProviderStatus(),
		CheckedAt: r.now(),
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.source.GetUniverseSnapshot(probeCtx)
	report.Providers["market_data"] = err == nil
	report.SystemReady = err == nil

	if snap, err := r.metrics.Snapshot(); err == nil {
		report.Metrics = snap
	}
	return report
}

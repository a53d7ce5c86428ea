// Package metrics holds the Prometheus instrumentation for the discovery
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Registry holds all pipeline metrics.
type Registry struct {
	reg *prometheus.Registry

	StageDuration   *prometheus.HistogramVec
	RejectionsTotal *prometheus.CounterVec
	ScansTotal      *prometheus.CounterVec
	ActiveScans     prometheus.Gauge
	EnrichFailures  prometheus.Counter
	CandidatesFound prometheus.Histogram
}

// NewRegistry creates and registers the pipeline metrics on a private
// Prometheus registry.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "equityrun_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"stage"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equityrun_universe_rejections_total",
				Help: "Universe filter rejections by gate reason",
			},
			[]string{"reason"},
		),
		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "equityrun_scans_total",
				Help: "Completed scan cycles by status",
			},
			[]string{"status"},
		),
		ActiveScans: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "equityrun_active_scans",
				Help: "Number of currently running scan cycles",
			},
		),
		EnrichFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "equityrun_enrich_failures_total",
				Help: "Symbols dropped due to enrichment failures",
			},
		),
		CandidatesFound: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "equityrun_candidates_per_scan",
				Help:    "Scored candidates surfaced per scan cycle",
				Buckets: []float64{0, 1, 3, 5, 10, 25, 50, 100},
			},
		),
	}

	r.reg.MustRegister(
		r.StageDuration,
		r.RejectionsTotal,
		r.ScansTotal,
		r.ActiveScans,
		r.EnrichFailures,
		r.CandidatesFound,
	)
	return r
}

// Gatherer exposes the underlying registry for the /metrics handler.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Snapshot gathers current counter and gauge values keyed by metric name,
// used by the health endpoint payload.
func (r *Registry) Snapshot() (map[string]float64, error) {
	families, err := r.reg.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				total += m.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				total += m.GetGauge().GetValue()
			default:
				continue
			}
		}
		switch mf.GetType() {
		case dto.MetricType_COUNTER, dto.MetricType_GAUGE:
			out[mf.GetName()] = total
		}
	}
	return out, nil
}

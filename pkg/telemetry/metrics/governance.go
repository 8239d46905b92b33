package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// GovernanceMetrics tracks governance calls.
//
// Metrics:
//   - tork_governance_calls_total: calls by final action
//   - tork_governance_pii_detections_total: calls that found each PII type
//   - tork_governance_duration_seconds: per-call latency by action
//   - tork_governance_rejected_total: calls rejected before detection
type GovernanceMetrics struct {
	callsTotal      *prometheus.CounterVec
	detectionsTotal *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	rejectedTotal   *prometheus.CounterVec
}

// NewGovernanceMetrics creates and registers governance metrics.
func NewGovernanceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *GovernanceMetrics {
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.ExponentialBuckets(0.00005, 2, 11) // 50µs to ~51ms
	}

	gm := &GovernanceMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "calls_total",
				Help:      "Total number of governance calls by action",
			},
			[]string{"action"},
		),

		detectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "pii_detections_total",
				Help:      "Number of governance calls in which each PII type was detected",
			},
			[]string{"type"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "duration_seconds",
				Help:      "Duration of governance calls in seconds",
				Buckets:   buckets,
			},
			[]string{"action"},
		),

		rejectedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rejected_total",
				Help:      "Governance calls rejected before detection",
			},
			[]string{"reason"},
		),
	}

	// Pre-create series so dashboards see zeroes before the first call.
	for _, a := range engine.Actions {
		gm.callsTotal.WithLabelValues(string(a))
	}

	registry.MustRegister(
		gm.callsTotal,
		gm.detectionsTotal,
		gm.duration,
		gm.rejectedTotal,
	)
	return gm
}

// Record records one completed call.
func (gm *GovernanceMetrics) Record(action engine.Action, types []pii.PIIType, elapsed time.Duration) {
	gm.callsTotal.WithLabelValues(string(action)).Inc()
	gm.duration.WithLabelValues(string(action)).Observe(elapsed.Seconds())
	for _, t := range types {
		if t.Valid() {
			gm.detectionsTotal.WithLabelValues(string(t)).Inc()
		}
	}
}

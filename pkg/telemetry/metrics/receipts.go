package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"tork-hq/governance/pkg/config"
)

// ReceiptMetrics tracks the receipt sink.
//
// Metrics:
//   - tork_governance_receipts_stored_total: writes by result
//   - tork_governance_receipts_pruned_total: receipts removed by retention
//   - tork_governance_prune_runs_total: retention runs by result
type ReceiptMetrics struct {
	storedTotal *prometheus.CounterVec
	prunedTotal prometheus.Counter
	pruneRuns   *prometheus.CounterVec
}

// NewReceiptMetrics creates and registers receipt metrics.
func NewReceiptMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ReceiptMetrics {
	rm := &ReceiptMetrics{
		storedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "receipts_stored_total",
				Help:      "Receipt writes by result",
			},
			[]string{"result"},
		),
		prunedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "receipts_pruned_total",
				Help:      "Receipts removed by retention",
			},
		),
		pruneRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "prune_runs_total",
				Help:      "Retention runs by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(rm.storedTotal, rm.prunedTotal, rm.pruneRuns)
	return rm
}

// RecordStore records one receipt write.
func (rm *ReceiptMetrics) RecordStore(err error) {
	rm.storedTotal.WithLabelValues(result(err)).Inc()
}

// RecordPrune records one retention run.
func (rm *ReceiptMetrics) RecordPrune(deleted int64, err error) {
	rm.pruneRuns.WithLabelValues(result(err)).Inc()
	if deleted > 0 {
		rm.prunedTotal.Add(float64(deleted))
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

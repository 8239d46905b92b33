package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/stats"
)

// Collector owns every Prometheus metric exported by tork. All label
// values come from closed sets (actions, PII types, route templates), so
// cardinality is bounded without a limiter.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	governance *GovernanceMetrics
	receipts   *ReceiptMetrics
	http       *HTTPMetrics
}

// NewCollector creates a collector and registers its metrics with
// registry. A nil registry gets a fresh one; nil cfg uses the defaults.
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//	t, _ := tork.New(tork.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.Default().Metrics
		cfg.Enabled = true
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}
	c.governance = NewGovernanceMetrics(cfg, registry)
	c.receipts = NewReceiptMetrics(cfg, registry)
	c.http = NewHTTPMetrics(cfg, registry)
	return c
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveGovern records one completed governance call.
func (c *Collector) ObserveGovern(action engine.Action, types []pii.PIIType, elapsed time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.governance.Record(action, types, elapsed)
}

// ObserveRejected records a call rejected before detection, such as
// invalid UTF-8 input.
func (c *Collector) ObserveRejected(reason string) {
	if !c.config.Enabled {
		return
	}
	c.governance.rejectedTotal.WithLabelValues(reason).Inc()
}

// ObserveReceiptStored records the outcome of a receipt write.
func (c *Collector) ObserveReceiptStored(err error) {
	if !c.config.Enabled {
		return
	}
	c.receipts.RecordStore(err)
}

// ObservePrune records receipts removed by one retention run.
func (c *Collector) ObservePrune(deleted int64, err error) {
	if !c.config.Enabled {
		return
	}
	c.receipts.RecordPrune(deleted, err)
}

// ObserveHTTP records one served HTTP request.
func (c *Collector) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.http.Record(route, method, status, elapsed)
}

// RegisterStats exports the resettable counters of tracker as gauges
// under <namespace>_stats_*.
func (c *Collector) RegisterStats(tracker *stats.Tracker) error {
	return c.registry.Register(NewStatsCollector(c.config.Namespace, tracker))
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"tork-hq/governance/pkg/stats"
)

// StatsCollector exposes a stats.Tracker snapshot at scrape time. The
// tracker can be reset, so its values are gauges rather than counters.
type StatsCollector struct {
	tracker *stats.Tracker

	calls        *prometheus.Desc
	piiCalls     *prometheus.Desc
	byType       *prometheus.Desc
	byAction     *prometheus.Desc
	processingNs *prometheus.Desc
	lastReset    *prometheus.Desc
}

// NewStatsCollector returns a collector for tracker.
func NewStatsCollector(namespace string, tracker *stats.Tracker) *StatsCollector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, "stats", n)
	}
	return &StatsCollector{
		tracker:      tracker,
		calls:        prometheus.NewDesc(name("calls"), "Governance calls since the last reset", nil, nil),
		piiCalls:     prometheus.NewDesc(name("pii_calls"), "Calls that detected PII since the last reset", nil, nil),
		byType:       prometheus.NewDesc(name("pii_by_type"), "Calls detecting each PII type since the last reset", []string{"type"}, nil),
		byAction:     prometheus.NewDesc(name("actions"), "Calls by action since the last reset", []string{"action"}, nil),
		processingNs: prometheus.NewDesc(name("processing_time_nanoseconds"), "Total processing time since the last reset", nil, nil),
		lastReset:    prometheus.NewDesc(name("last_reset_timestamp_seconds"), "Unix time of the last reset", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.calls
	ch <- c.piiCalls
	ch <- c.byType
	ch <- c.byAction
	ch <- c.processingNs
	ch <- c.lastReset
}

// Collect implements prometheus.Collector.
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.tracker.Snapshot()

	ch <- prometheus.MustNewConstMetric(c.calls, prometheus.GaugeValue, float64(s.TotalCalls))
	ch <- prometheus.MustNewConstMetric(c.piiCalls, prometheus.GaugeValue, float64(s.TotalPIIDetected))
	for t, n := range s.PIIByType {
		ch <- prometheus.MustNewConstMetric(c.byType, prometheus.GaugeValue, float64(n), string(t))
	}
	ch <- prometheus.MustNewConstMetric(c.byAction, prometheus.GaugeValue, float64(s.ActionCounts.Allow), "allow")
	ch <- prometheus.MustNewConstMetric(c.byAction, prometheus.GaugeValue, float64(s.ActionCounts.Redact), "redact")
	ch <- prometheus.MustNewConstMetric(c.byAction, prometheus.GaugeValue, float64(s.ActionCounts.Deny), "deny")
	ch <- prometheus.MustNewConstMetric(c.processingNs, prometheus.GaugeValue, float64(s.TotalProcessingTimeNs))
	ch <- prometheus.MustNewConstMetric(c.lastReset, prometheus.GaugeValue, float64(s.LastReset.UnixNano())/1e9)
}

// Package metrics exports governance activity to Prometheus.
//
// A Collector registers governance, receipt and HTTP metrics with its own
// registry and implements the observer hook a Tork instance calls after
// every govern call:
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//	t, err := tork.New(tork.WithObserver(collector))
//	_ = collector.RegisterStats(t.Tracker())
//	router.Handle("/metrics", collector.Handler())
//
// Metric names use the configured namespace and subsystem, tork_governance
// by default. Labels take values from closed sets only: actions, PII type
// names, result strings and route templates.
package metrics

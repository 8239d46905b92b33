// Package telemetry groups the observability packages used by tork:
//
//   - logging: log/slog loggers that scrub PII with the core pattern pack
//   - metrics: Prometheus counters and histograms for governance calls
//   - tracing: OpenTelemetry spans, one per govern call
//   - health: liveness and readiness endpoints for tork serve
//
// None of them is required by the governance core. A Tork instance with no
// options logs nowhere, records no metrics and creates no-op spans.
package telemetry

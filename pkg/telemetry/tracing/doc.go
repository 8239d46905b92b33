// Package tracing creates OpenTelemetry spans for governance calls.
//
// Each govern call produces one "tork.govern" span carrying the final
// action, the number of matches, the detected type names and the policy
// version. Matched values are never recorded.
//
// Tracing is off by default. When enabled, spans go only to the span
// processors the caller supplies, so the library itself makes no network
// calls:
//
//	tracer, err := tracing.New(&cfg.Tracing,
//	    tracing.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)),
//	)
//	defer tracer.Shutdown(ctx)
//	t, err := tork.New(tork.WithTracer(tracer))
//
// Samplers are "always", "never" and "ratio", each wrapped in ParentBased.
package tracing

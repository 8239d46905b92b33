package tork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"tork-hq/governance/pkg/evidence/recorder"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/patterns"
	"tork-hq/governance/pkg/pii/scan"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/stats"
	"tork-hq/governance/pkg/telemetry/logging"
	"tork-hq/governance/pkg/telemetry/tracing"
)

// Tork is a governance instance. The registry and configuration are
// immutable after construction; only the stats tracker is mutated, so a
// single instance may be shared by any number of goroutines.
type Tork struct {
	config   engine.Config
	registry *patterns.Registry
	defaults pii.GovernOptions
	tracker  *stats.Tracker

	tracer   *tracing.Tracer
	observer Observer
	logger   *slog.Logger
}

// defaultRegistry compiles the embedded packs once per process for
// instances and package functions that add no packs of their own.
var defaultRegistry = sync.OnceValues(func() (*patterns.Registry, error) {
	return patterns.NewRegistry(patterns.WithLogger(logging.Discard()))
})

// New creates an instance with DefaultConfig.
func New(opts ...Option) (*Tork, error) {
	return NewWithConfig(engine.DefaultConfig(), opts...)
}

// NewWithConfig creates an instance with cfg. An invalid cfg returns an
// error matching engine.ErrInvalidConfig; a pattern pack that fails to load
// returns a *pii.ConfigurationError.
func NewWithConfig(cfg engine.Config, opts ...Option) (*Tork, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.tracer == nil {
		o.tracer = tracing.Noop()
	}

	registry, err := buildRegistry(&o)
	if err != nil {
		return nil, err
	}
	if o.tracker == nil {
		o.tracker = stats.NewTracker()
	}

	t := &Tork{
		config:   cfg,
		registry: registry,
		defaults: o.defaults,
		tracker:  o.tracker,
		tracer:   o.tracer,
		observer: o.observer,
		logger:   o.logger.With("component", "tork"),
	}
	t.logger.Debug("governance instance created",
		"policy_version", cfg.PolicyVersion,
		"default_action", cfg.DefaultAction.String(),
		"patterns", registry.Len(),
	)
	return t, nil
}

func buildRegistry(o *options) (*patterns.Registry, error) {
	switch {
	case o.registry != nil && len(o.packs) > 0:
		return nil, pii.NewConfigurationError("options", "", errors.New("WithRegistry cannot be combined with extra packs"))
	case o.registry != nil:
		return o.registry, nil
	case len(o.packs) > 0:
		packOpts := append([]patterns.Option{patterns.WithLogger(o.logger)}, o.packs...)
		return patterns.NewRegistry(packOpts...)
	}
	return defaultRegistry()
}

// Govern governs text with the instance's default options.
func (t *Tork) Govern(text string) (*GovernanceResult, error) {
	return t.GovernContext(context.Background(), text, t.defaults)
}

// GovernWithOptions governs text with the packs selected by opts.
func (t *Tork) GovernWithOptions(text string, opts pii.GovernOptions) (*GovernanceResult, error) {
	return t.GovernContext(context.Background(), text, opts)
}

// GovernContext runs the full pipeline: encoding check, pattern activation,
// span resolution, redaction, policy decision, receipt minting and, last,
// the stats update. ctx carries the parent span only; the work is bounded
// and never blocks.
//
// Invalid UTF-8 returns a *pii.InputEncodingError and leaves stats
// untouched.
func (t *Tork) GovernContext(ctx context.Context, text string, opts pii.GovernOptions) (*GovernanceResult, error) {
	start := time.Now()

	ctx, span := t.tracer.Start(ctx, tracing.SpanGovern,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(tracing.GovernStartAttributes(opts, len(text))...),
	)
	defer span.End()

	if err := scan.CheckEncoding(text); err != nil {
		tracing.SetStatus(span, err)
		if ro, ok := t.observer.(RejectionObserver); ok {
			ro.ObserveRejected("invalid_encoding")
		}
		t.logger.DebugContext(ctx, "governance rejected input", "error", err)
		return nil, fmt.Errorf("govern: %w", err)
	}

	spans := scan.Resolve(scan.Candidates(text, t.registry.Active(opts)))
	red := scan.Redact(text, spans)
	decision := engine.Decide(red.HasPII, t.config, text, red.Text)
	elapsed := time.Since(start)

	receipt := recorder.Mint(recorder.Decision{
		Input:         text,
		Output:        decision.Output,
		PolicyVersion: t.config.PolicyVersion,
		DetectedTypes: red.Types,
		Action:        decision.Action,
		Elapsed:       elapsed,
	})

	t.tracker.Record(stats.Event{Types: red.Types, Action: decision.Action, Elapsed: elapsed})
	if t.observer != nil {
		t.observer.ObserveGovern(decision.Action, red.Types, elapsed)
	}

	tracing.SetGovernAttributes(span, decision.Action, red.Types, len(spans), t.config.PolicyVersion, receipt.ReceiptID)
	tracing.SetStatus(span, nil)
	t.logger.DebugContext(logging.WithReceiptID(ctx, receipt.ReceiptID), "governed",
		"action", decision.Action.String(),
		"pii_types", red.Types,
		"pii_count", len(spans),
		"duration", elapsed,
	)

	return &GovernanceResult{
		Action:  decision.Action,
		Output:  decision.Output,
		Receipt: receipt,
	}, nil
}

// DetectPII runs detection and redaction for the packs selected by opts
// without a policy decision, receipt or stats update.
func (t *Tork) DetectPII(text string, opts pii.GovernOptions) (*scan.DetectionResult, error) {
	return scan.Detect(text, t.registry.Active(opts))
}

// GetStats returns a consistent snapshot of the instance's counters.
func (t *Tork) GetStats() stats.Snapshot {
	return t.tracker.Snapshot()
}

// ResetStats zeroes every counter and stamps a new reset time.
func (t *Tork) ResetStats() {
	t.tracker.Reset()
	t.logger.Debug("stats reset")
}

// Config returns the instance's immutable configuration.
func (t *Tork) Config() engine.Config {
	return t.config
}

// DefaultOptions returns the options Govern uses.
func (t *Tork) DefaultOptions() pii.GovernOptions {
	return t.defaults
}

// Registry returns the compiled pattern registry.
func (t *Tork) Registry() *patterns.Registry {
	return t.registry
}

// Tracker returns the stats tracker, for exporters that read it directly.
func (t *Tork) Tracker() *stats.Tracker {
	return t.tracker
}

// DetectPII runs core-pack detection and redaction on text. It needs no
// instance and touches no stats.
func DetectPII(text string) (*scan.DetectionResult, error) {
	registry, err := defaultRegistry()
	if err != nil {
		return nil, err
	}
	return scan.Detect(text, registry.Active(pii.GovernOptions{}))
}

// HashText returns "sha256:" followed by the lowercase hex digest of text.
func HashText(text string) string {
	return recorder.HashText(text)
}

// GenerateReceiptID returns a fresh receipt identifier.
func GenerateReceiptID() string {
	return recorder.NewReceiptID()
}

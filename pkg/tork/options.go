package tork

import (
	"log/slog"
	"time"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/patterns"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/stats"
	"tork-hq/governance/pkg/telemetry/tracing"
)

// Observer receives the outcome of every successful governance call. The
// metrics collector implements it.
type Observer interface {
	ObserveGovern(action engine.Action, types []pii.PIIType, elapsed time.Duration)
}

// RejectionObserver is optionally implemented by an Observer that also
// counts calls rejected before detection ran.
type RejectionObserver interface {
	ObserveRejected(reason string)
}

// Option configures a Tork instance.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	tracer   *tracing.Tracer
	observer Observer
	registry *patterns.Registry
	tracker  *stats.Tracker
	packs    []patterns.Option
	defaults pii.GovernOptions
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer sets the tracer used by GovernContext. The default is a no-op
// tracer.
func WithTracer(tracer *tracing.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// WithObserver registers an observer notified after every governance call.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithRegistry shares an already compiled pattern registry. It cannot be
// combined with WithPackFile or WithPackData.
func WithRegistry(registry *patterns.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithTracker makes the instance count into an existing tracker, so that a
// replacement instance built on configuration reload continues the
// previous counters.
func WithTracker(tracker *stats.Tracker) Option {
	return func(o *options) {
		o.tracker = tracker
	}
}

// WithPackFile adds an operator-supplied pattern pack read from path.
func WithPackFile(path string) Option {
	return func(o *options) {
		o.packs = append(o.packs, patterns.WithPackFile(path))
	}
}

// WithPackData adds an operator-supplied pattern pack from YAML bytes.
func WithPackData(name string, data []byte) Option {
	return func(o *options) {
		o.packs = append(o.packs, patterns.WithPackData(name, data))
	}
}

// WithDefaultOptions sets the options Govern uses. Without it Govern
// activates the core pack only.
func WithDefaultOptions(opts pii.GovernOptions) Option {
	return func(o *options) {
		o.defaults = pii.GovernOptions{
			Regions:  append([]string(nil), opts.Regions...),
			Industry: opts.Industry,
		}
	}
}

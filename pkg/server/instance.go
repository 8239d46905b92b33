package server

import (
	"context"
	"sync/atomic"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/scan"
	"tork-hq/governance/pkg/stats"
	"tork-hq/governance/pkg/tork"
)

// Instance holds the current governance instance. Configuration reloads
// build a new *tork.Tork and Swap it in; in-flight calls finish on the
// instance they started with.
type Instance struct {
	current atomic.Pointer[tork.Tork]
}

// NewInstance returns a holder for t.
func NewInstance(t *tork.Tork) *Instance {
	i := &Instance{}
	i.current.Store(t)
	return i
}

// Get returns the current instance.
func (i *Instance) Get() *tork.Tork {
	return i.current.Load()
}

// Swap installs t and returns the previous instance.
func (i *Instance) Swap(t *tork.Tork) *tork.Tork {
	return i.current.Swap(t)
}

// GovernContext governs text with the current instance.
func (i *Instance) GovernContext(ctx context.Context, text string, opts pii.GovernOptions) (*tork.GovernanceResult, error) {
	return i.Get().GovernContext(ctx, text, opts)
}

// DetectPII runs detection with the current instance.
func (i *Instance) DetectPII(text string, opts pii.GovernOptions) (*scan.DetectionResult, error) {
	return i.Get().DetectPII(text, opts)
}

// DefaultOptions returns the current instance's pack selection.
func (i *Instance) DefaultOptions() pii.GovernOptions {
	return i.Get().DefaultOptions()
}

// Stats returns the current instance's stats snapshot.
func (i *Instance) Stats() stats.Snapshot {
	return i.Get().GetStats()
}

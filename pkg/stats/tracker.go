package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

// Event is the per-call input to Record.
type Event struct {
	// Types are the distinct PII types detected by the call.
	Types   []pii.PIIType
	Action  engine.Action
	Elapsed time.Duration
}

// ActionCounts counts calls by final action.
type ActionCounts struct {
	Allow  uint64 `json:"allow"`
	Redact uint64 `json:"redact"`
	Deny   uint64 `json:"deny"`
}

// Snapshot is a consistent copy of the counters at one instant.
type Snapshot struct {
	TotalCalls            uint64                 `json:"total_calls"`
	TotalPIIDetected      uint64                 `json:"total_pii_detected"`
	PIIByType             map[pii.PIIType]uint64 `json:"pii_by_type"`
	ActionCounts          ActionCounts           `json:"action_counts"`
	TotalProcessingTimeNs uint64                 `json:"total_processing_time_ns"`
	LastReset             time.Time              `json:"last_reset"`
}

// Count returns the detection count for t, zero when absent.
func (s Snapshot) Count(t pii.PIIType) uint64 {
	return s.PIIByType[t]
}

// Tracker is a concurrency-safe stats accumulator. The zero value is not
// usable; call NewTracker.
type Tracker struct {
	mu sync.RWMutex

	calls     atomic.Uint64
	piiCalls  atomic.Uint64
	allow     atomic.Uint64
	redact    atomic.Uint64
	deny      atomic.Uint64
	elapsedNs atomic.Uint64
	byType    []atomic.Uint64

	lastReset time.Time
	now       func() time.Time
}

// NewTracker returns a tracker with every counter at zero and LastReset
// set to the construction time.
func NewTracker() *Tracker {
	t := &Tracker{
		byType: make([]atomic.Uint64, pii.NumTypes()),
		now:    time.Now,
	}
	t.lastReset = t.now().UTC()
	return t
}

// Record applies one governance call to the counters. Every entry in
// e.Types adds one to that type's counter; unknown types are ignored.
func (t *Tracker) Record(e Event) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	t.calls.Add(1)

	counted := false
	for _, typ := range e.Types {
		if i := typ.Index(); i >= 0 {
			t.byType[i].Add(1)
			counted = true
		}
	}
	if counted {
		t.piiCalls.Add(1)
	}

	switch e.Action {
	case engine.ActionAllow:
		t.allow.Add(1)
	case engine.ActionRedact:
		t.redact.Add(1)
	case engine.ActionDeny:
		t.deny.Add(1)
	}

	if e.Elapsed > 0 {
		t.elapsedNs.Add(uint64(e.Elapsed))
	}
}

// Reset zeroes every counter and stamps a new LastReset.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.calls.Store(0)
	t.piiCalls.Store(0)
	t.allow.Store(0)
	t.redact.Store(0)
	t.deny.Store(0)
	t.elapsedNs.Store(0)
	for i := range t.byType {
		t.byType[i].Store(0)
	}
	t.lastReset = t.now().UTC()
}

// Snapshot returns a consistent copy of the counters. PIIByType holds an
// entry for every known type, including zeros.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	byType := make(map[pii.PIIType]uint64, len(t.byType))
	for i, typ := range pii.AllTypes() {
		byType[typ] = t.byType[i].Load()
	}

	return Snapshot{
		TotalCalls:       t.calls.Load(),
		TotalPIIDetected: t.piiCalls.Load(),
		PIIByType:        byType,
		ActionCounts: ActionCounts{
			Allow:  t.allow.Load(),
			Redact: t.redact.Load(),
			Deny:   t.deny.Load(),
		},
		TotalProcessingTimeNs: t.elapsedNs.Load(),
		LastReset:             t.lastReset,
	}
}

package stats

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
)

func TestTracker_Record(t *testing.T) {
	tr := NewTracker()

	events := []Event{
		{Action: engine.ActionAllow, Elapsed: time.Microsecond},
		{Action: engine.ActionRedact, Types: []pii.PIIType{pii.TypeSSN}, Elapsed: time.Microsecond},
		{Action: engine.ActionRedact, Types: []pii.PIIType{pii.TypeSSN, pii.TypeEmail}, Elapsed: time.Microsecond},
		{Action: engine.ActionDeny, Types: []pii.PIIType{pii.TypeEmiratesID}, Elapsed: time.Microsecond},
		{Action: engine.ActionAllow, Types: []pii.PIIType{"not_a_type"}},
	}
	for _, e := range events {
		tr.Record(e)
	}

	snap := tr.Snapshot()

	tests := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"total calls", snap.TotalCalls, 5},
		{"calls with pii", snap.TotalPIIDetected, 3},
		{"ssn", snap.Count(pii.TypeSSN), 2},
		{"email", snap.Count(pii.TypeEmail), 1},
		{"emirates id", snap.Count(pii.TypeEmiratesID), 1},
		{"phone", snap.Count(pii.TypePhone), 0},
		{"allow", snap.ActionCounts.Allow, 2},
		{"redact", snap.ActionCounts.Redact, 2},
		{"deny", snap.ActionCounts.Deny, 1},
		{"processing ns", snap.TotalProcessingTimeNs, uint64(4 * time.Microsecond)},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}

	if len(snap.PIIByType) != pii.NumTypes() {
		t.Errorf("PIIByType has %d entries, want %d", len(snap.PIIByType), pii.NumTypes())
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()
	first := tr.Snapshot().LastReset

	tr.now = func() time.Time { return first.Add(time.Hour) }
	tr.Record(Event{Action: engine.ActionRedact, Types: []pii.PIIType{pii.TypeSSN}, Elapsed: time.Millisecond})
	tr.Reset()

	snap := tr.Snapshot()
	if snap.TotalCalls != 0 || snap.TotalPIIDetected != 0 || snap.TotalProcessingTimeNs != 0 {
		t.Errorf("counters after Reset() = %+v", snap)
	}
	if snap.ActionCounts != (ActionCounts{}) {
		t.Errorf("ActionCounts after Reset() = %+v", snap.ActionCounts)
	}
	for typ, n := range snap.PIIByType {
		if n != 0 {
			t.Errorf("%s = %d after Reset()", typ, n)
		}
	}
	if !snap.LastReset.After(first) {
		t.Errorf("LastReset = %v, want after %v", snap.LastReset, first)
	}
}

func TestTracker_SnapshotIsCopy(t *testing.T) {
	tr := NewTracker()
	tr.Record(Event{Action: engine.ActionRedact, Types: []pii.PIIType{pii.TypeSSN}})

	snap := tr.Snapshot()
	snap.PIIByType[pii.TypeSSN] = 99

	if got := tr.Snapshot().Count(pii.TypeSSN); got != 1 {
		t.Errorf("Count(ssn) = %d after mutating a snapshot, want 1", got)
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker()

	const n = 1000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := Event{Action: engine.ActionAllow}
			if i%4 == 0 {
				e = Event{Action: engine.ActionRedact, Types: []pii.PIIType{pii.TypeSSN}}
			}
			tr.Record(e)
		}(i)
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.TotalCalls != n {
		t.Errorf("TotalCalls = %d, want %d", snap.TotalCalls, n)
	}
	if snap.Count(pii.TypeSSN) != n/4 {
		t.Errorf("Count(ssn) = %d, want %d", snap.Count(pii.TypeSSN), n/4)
	}
}

// Every increment lands either before or after a reset, so the calls
// counted after the last reset never exceed the calls issued after it.
func TestTracker_ConcurrentReset(t *testing.T) {
	tr := NewTracker()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					tr.Record(Event{Action: engine.ActionRedact, Types: []pii.PIIType{pii.TypeEmail}})
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		tr.Reset()
		snap := tr.Snapshot()
		if snap.Count(pii.TypeEmail) != snap.TotalCalls {
			t.Fatalf("inconsistent snapshot: calls=%d email=%d", snap.TotalCalls, snap.Count(pii.TypeEmail))
		}
		if snap.ActionCounts.Redact != snap.TotalCalls {
			t.Fatalf("inconsistent snapshot: calls=%d redact=%d", snap.TotalCalls, snap.ActionCounts.Redact)
		}
	}
	close(stop)
	wg.Wait()

	tr.Reset()
	if got := tr.Snapshot().TotalCalls; got != 0 {
		t.Errorf("TotalCalls after final Reset() = %d, want 0", got)
	}
}

func TestSnapshot_JSON(t *testing.T) {
	tr := NewTracker()
	tr.Record(Event{Action: engine.ActionDeny, Types: []pii.PIIType{pii.TypeCreditCard}})

	data, err := json.Marshal(tr.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"total_calls", "total_pii_detected", "pii_by_type", "action_counts", "total_processing_time_ns", "last_reset"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("snapshot JSON missing %q", key)
		}
	}
	byType := decoded["pii_by_type"].(map[string]any)
	if byType["credit_card"] != float64(1) {
		t.Errorf("pii_by_type.credit_card = %v, want 1", byType["credit_card"])
	}
}

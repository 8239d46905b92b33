// Package stats accumulates governance counters for one Tork instance.
//
// A Tracker holds one atomic counter per PII type, indexed by the closed
// type enumeration, plus call, action and processing-time counters.
// Record takes the read lock and performs only atomic adds, so concurrent
// governance calls never contend with each other. Reset and Snapshot take
// the write lock, so every increment lands wholly before or wholly after a
// reset and a snapshot never observes a half-applied call.
//
//	tr := stats.NewTracker()
//	tr.Record(stats.Event{Action: engine.ActionRedact, Types: types})
//	snap := tr.Snapshot()
//	fmt.Println(snap.TotalCalls, snap.Count(pii.TypeSSN))
package stats

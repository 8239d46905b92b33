// Package evidence defines governance receipts and the optional sinks a
// caller can use to keep them.
//
// Every governance call returns a Receipt: a random identifier, a UTC
// timestamp, sha256 hashes of the exact input and of the output actually
// returned, the policy version in force, the detected PII types and the
// action taken. Receipts are values; nothing in the governance path stores,
// indexes or chains them.
//
// # Persistence
//
// Persistence is the caller's responsibility. The sub-packages provide
// building blocks for it:
//
//   - recorder: hashing, receipt identifiers, and an asynchronous Recorder
//     that hands receipts to a Storage without blocking the caller
//   - storage: in-memory and SQLite Storage implementations
//   - query: validation and defaults for Query
//   - export: JSON and CSV exporters
//   - retention: age and count based pruning on a cron schedule
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/receipts.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rec := recorder.NewRecorder(store, nil)
//	defer rec.Close()
//
//	result, err := gov.Govern(text)
//	if err == nil {
//	    _ = rec.Record(ctx, &result.Receipt)
//	}
//
// # Hashes
//
// Hashes cover the whole text with no truncation and are formatted as
// "sha256:" followed by 64 lowercase hex characters. A Deny receipt hashes
// the empty output.
package evidence

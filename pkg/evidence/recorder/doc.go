// Package recorder mints governance receipts and optionally hands them to a
// storage backend.
//
// # Hashing
//
// HashText and HashContent return "sha256:" followed by 64 lowercase hex
// characters. The exact bytes are hashed with no truncation or
// normalization, so the digest of a given text is identical on every call
// and in every process:
//
//	recorder.HashText("test")
//	// sha256:9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08
//
// # Receipt Identifiers
//
// NewReceiptID returns "rcpt_" followed by the 32 hex characters of a random
// UUID v4. Identifiers are not derived from content.
//
// # Async Recording
//
// Recorder persists receipts through a buffered channel and one background
// goroutine:
//
//   - Record() copies the receipt and enqueues it (non-blocking unless full)
//   - Background goroutine drains channel and writes to storage
//   - Close() drains the channel before returning
//
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	defer rec.Close()
//	_ = rec.Record(ctx, &result.Receipt)
package recorder

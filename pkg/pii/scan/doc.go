// Package scan runs active patterns over text, resolves overlapping matches
// and produces redacted output.
//
// The pipeline has three pure stages:
//
//	candidates := scan.Candidates(text, registry.Active(opts))
//	spans := scan.Resolve(candidates)
//	out := scan.Redact(text, spans)
//
// Resolve always yields a sorted, non-overlapping span set. When spans
// overlap, the higher priority wins, then the longer match, then the earlier
// start. Every span lies on rune boundaries of the original text.
//
// Detect combines all three stages and rejects input that is not valid
// UTF-8 with a *pii.InputEncodingError.
package scan

// Package pii defines the shared vocabulary of the governance pipeline: the
// closed set of PII types and their placeholder tokens, activation tags for
// region and industry packs, per-call governance options, detected spans, and
// the error taxonomy shared by every stage.
//
// # PII Types
//
// PIIType is a closed enumeration. Each type has a fixed placeholder token
// that never varies by locale:
//
//	pii.TypeSSN.Placeholder()        // "[SSN_REDACTED]"
//	pii.TypeEmiratesID.Placeholder() // "[EMIRATES_ID_REDACTED]"
//
// Types serialize as lowercase snake_case strings and can be used directly as
// map keys. Index returns a dense position in enum order, which lets counters
// live in fixed-size arrays.
//
// # Activation Tags
//
// Every detector carries exactly one activation tag: "core", one of the
// supported region codes (au, us, gb, eu, ae, sa, ng, in, jp, cn, kr, br), or
// one of the supported industry codes (healthcare, finance, legal). Codes are
// case-sensitive lowercase. Unrecognized codes in GovernOptions are ignored.
//
// # Errors
//
// Construction failures surface as *ConfigurationError (matching
// ErrConfiguration); per-call encoding failures surface as
// *InputEncodingError (matching ErrInvalidEncoding). Callers can retry
// construction or skip a single input accordingly.
package pii

// Package patterns compiles and serves PII detectors.
//
// Detectors are declared in YAML pattern packs embedded in the binary: one
// core pack that is always active, one pack per supported region code and one
// per supported industry code. Each entry names its PII type, an intra-pack
// priority, a regular expression and a matching kind:
//
//	- id: ae.emirates_id
//	  type: emirates_id
//	  priority: 900
//	  regex: '\b784-?\d{4}-?\d{7}-?\d\b'
//
// Kinds compose small matchers. A "regex" pattern accepts every hit, a
// "checksum" pattern additionally requires a validator (luhn, mod97, aba,
// npi, mod11) to pass, and a "context" pattern requires one of its keywords
// within a byte window before the hit. A named capture group "pii" narrows
// the reported span to the sensitive value.
//
// A Registry is built once with NewRegistry and is immutable afterwards;
// Active assembles the ordered detector list for a call.
package patterns

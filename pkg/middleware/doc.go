// Package middleware provides net/http middleware for governed services.
//
// Govern inspects the text content of JSON request bodies before they
// reach a handler:
//
//	t, _ := tork.New()
//	handler = middleware.Govern(t, middleware.DefaultConfig())(handler)
//
// Requests with PII are rewritten (Redact) or rejected with 403 (Deny).
// Clients select region and industry packs per request:
//
//	X-Tork-Region: ae,in
//	X-Tork-Industry: finance
//
// Every governed response carries X-Tork-Action and X-Tork-Receipt-ID.
//
// The package also carries the supporting chain used by the serve command:
//
//	handler = Recovery(logger)(Logging(logger, collector, route)(RequestID(handler)))
//
// APIKeyAuth guards a handler with the keys from server.api_keys, sent as
// X-API-Key or an Authorization bearer token.
package middleware

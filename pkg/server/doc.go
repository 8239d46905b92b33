// Package server serves the governance API over HTTP.
//
// NewRouter wires an Instance, health checks, metrics and an optional
// receipt recorder into a gorilla/mux router wrapped in the recovery,
// logging, request ID and tracing middleware. Server runs the handler
// with graceful shutdown. Instance lets the serve command replace the
// governance instance on configuration reload without dropping requests.
//
// For HTTPS, CertReloader keeps the certificate pair current and
// TLSConfig builds the listener configuration passed to UseTLS.
package server

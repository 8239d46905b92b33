package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"tork-hq/governance/pkg/telemetry/logging"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

// RequestID adds a request ID to the context and response headers. A
// client-supplied X-Request-ID is reused; otherwise a UUID v4 is generated.
// The ID is stored with logging.WithRequestID so every *Context log line
// carries it.
//
//	handler = RequestID(handler)
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), requestID)))
	})
}

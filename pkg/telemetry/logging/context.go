package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

const (
	// RequestIDKey is the context key for request IDs.
	RequestIDKey contextKey = "request_id"

	// ReceiptIDKey is the context key for governance receipt IDs.
	ReceiptIDKey contextKey = "receipt_id"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithReceiptID adds a receipt ID to the context.
func WithReceiptID(ctx context.Context, receiptID string) context.Context {
	return context.WithValue(ctx, ReceiptIDKey, receiptID)
}

// GetReceiptID retrieves the receipt ID from the context.
func GetReceiptID(ctx context.Context) string {
	if receiptID, ok := ctx.Value(ReceiptIDKey).(string); ok {
		return receiptID
	}
	return ""
}

// contextHandler adds request, receipt and trace identifiers from the
// record's context to every entry logged with a *Context method.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if ctx != nil {
		if id := GetRequestID(ctx); id != "" {
			rec.AddAttrs(slog.String(string(RequestIDKey), id))
		}
		if id := GetReceiptID(ctx); id != "" {
			rec.AddAttrs(slog.String(string(ReceiptIDKey), id))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			rec.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}
	return h.Handler.Handle(ctx, rec)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

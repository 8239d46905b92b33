// Package logging builds log/slog loggers that never write raw PII.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:     "info",
//	    Format:    "json",
//	    RedactPII: true,
//	})
//
//	logger.Info("request governed",
//	    "input", "mail jane@example.com", // written as "mail [EMAIL_REDACTED]"
//	    "api_key", "sk-abc123",           // written as "***"
//	)
//
// # PII Redaction
//
// The redactor runs the core governance pattern pack over every string
// attribute, error and the message itself, replacing matches with the same
// placeholders a govern call produces. Bearer tokens, sk- keys and
// password=value pairs are masked as well, and attributes whose key looks
// like a credential (password, token, secret, api_key...) are replaced with
// "***" outright.
//
// # Context
//
// Entries logged with the *Context methods carry request_id and receipt_id
// from the context, plus trace_id and span_id when a span is active.
package logging

package logging

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/pii/patterns"
	"tork-hq/governance/pkg/pii/scan"
)

// Redactor scrubs PII and credentials from log output. PII detection uses
// the same core pattern pack as governance, so anything a govern call
// would redact never reaches a log line either.
type Redactor struct {
	active  []*patterns.Pattern
	secrets []secretPattern
}

type secretPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// secretPatterns catch credentials that are not PII but must not be logged.
var secretPatterns = []secretPattern{
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer ***"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9_-]{8,}`), "sk-***"},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)[:=]\s*\S+`), "$1=***"},
}

// sensitiveKeys are attribute names whose values are always masked.
var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token", "api_key", "apikey",
	"authorization", "private_key", "privatekey",
}

// NewRedactor builds a redactor over the given patterns. Pass the core
// pack from a registry, or any Active set for a broader scrub.
func NewRedactor(active []*patterns.Pattern) *Redactor {
	return &Redactor{active: active, secrets: secretPatterns}
}

// DefaultRedactor builds a redactor over the embedded core pack.
func DefaultRedactor() (*Redactor, error) {
	reg, err := patterns.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load log redaction patterns: %w", err)
	}
	return NewRedactor(reg.Pack(pii.TagCore)), nil
}

// RedactString replaces PII with type placeholders and masks credentials.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	for _, s := range r.secrets {
		value = s.regex.ReplaceAllString(value, s.replacement)
	}

	// Invalid UTF-8 cannot be scanned; mask it rather than log it raw.
	if scan.CheckEncoding(value) != nil {
		return "[INVALID_UTF8]"
	}
	spans := scan.Resolve(scan.Candidates(value, r.active))
	return scan.Redact(value, spans).Text
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.SourceKey:
			return a
		}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case error:
			return slog.String(a.Key, r.RedactString(v.Error()))
		case fmt.Stringer:
			return slog.String(a.Key, r.RedactString(v.String()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

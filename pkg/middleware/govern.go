package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/telemetry/logging"
	"tork-hq/governance/pkg/tork"
)

// Request and response headers used by Govern.
const (
	RegionHeader    = "X-Tork-Region"
	IndustryHeader  = "X-Tork-Industry"
	ActionHeader    = "X-Tork-Action"
	ReceiptIDHeader = "X-Tork-Receipt-ID"
)

// DefaultMaxBodyBytes bounds governed request bodies when Config leaves
// MaxBodyBytes at zero.
const DefaultMaxBodyBytes int64 = 1 << 20

// Governor is the part of a governance instance the middleware needs.
// *tork.Tork implements it.
type Governor interface {
	GovernContext(ctx context.Context, text string, opts pii.GovernOptions) (*tork.GovernanceResult, error)
}

// Config controls which requests Govern inspects.
type Config struct {
	// ProtectedPaths are governed path prefixes. Empty governs every path.
	ProtectedPaths []string

	// SkipPaths are path prefixes that bypass governance. They win over
	// ProtectedPaths.
	SkipPaths []string

	// ContentFields are the JSON body fields searched for text, in order.
	// The first non-empty string field is governed.
	ContentFields []string

	// MaxBodyBytes limits governed bodies. Zero uses DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Defaults apply when a request carries no region or industry header.
	Defaults pii.GovernOptions

	// DefaultsFrom, when set, replaces Defaults and is read on every
	// request, so reloaded pack selections take effect immediately.
	DefaultsFrom func() pii.GovernOptions

	// OnResult, when set, is called with every governance result before
	// the response is decided. The serve command records receipts here.
	OnResult func(*http.Request, *tork.GovernanceResult)

	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// DefaultConfig returns the configuration used for an empty server section.
func DefaultConfig() Config {
	return Config{
		ProtectedPaths: []string{"/api/"},
		SkipPaths:      []string{"/health", "/metrics"},
		ContentFields:  []string{"content", "message", "text", "prompt", "query", "input"},
		MaxBodyBytes:   DefaultMaxBodyBytes,
	}
}

func (c Config) defaults() pii.GovernOptions {
	if c.DefaultsFrom != nil {
		return c.DefaultsFrom()
	}
	return c.Defaults
}

// ConfigFromServer builds a Config from the server and governance sections.
func ConfigFromServer(s config.ServerConfig, g config.GovernanceConfig) Config {
	cfg := DefaultConfig()
	if s.ProtectedPaths != nil {
		cfg.ProtectedPaths = s.ProtectedPaths
	}
	if s.SkipPaths != nil {
		cfg.SkipPaths = s.SkipPaths
	}
	if len(s.ContentFields) > 0 {
		cfg.ContentFields = s.ContentFields
	}
	if s.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = s.MaxBodyBytes
	}
	cfg.Defaults = g.GovernOptions()
	return cfg
}

// Govern governs the text content of POST, PUT and PATCH request bodies.
//
// The body must be a JSON object; the first non-empty string among
// ContentFields is governed. Bodies that are not JSON objects or that carry
// no content field pass through unchanged. On Deny the request is rejected
// with 403 and a JSON body naming the receipt and detected types; on
// Redact the field is rewritten with the redacted text before next runs;
// on Allow the original body is forwarded. The result is available to
// next through ResultFromContext.
func Govern(g Governor, cfg Config) func(http.Handler) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	logger := cfg.Logger.With("component", "middleware")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !governedMethod(r.Method) || !cfg.governedPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					WriteError(w, http.StatusRequestEntityTooLarge, "request body too large")
					return
				}
				WriteError(w, http.StatusBadRequest, "failed to read request body")
				return
			}

			doc, field, text, ok := extractContent(body, cfg.ContentFields)
			if !ok {
				logger.DebugContext(r.Context(), "no governable content, passing through", "path", r.URL.Path)
				replaceBody(r, body)
				next.ServeHTTP(w, r)
				return
			}

			res, err := g.GovernContext(r.Context(), text, requestOptions(r, cfg.defaults()))
			if err != nil {
				logger.WarnContext(r.Context(), "governance failed", "error", err)
				WriteError(w, http.StatusBadRequest, "content could not be governed")
				return
			}
			if cfg.OnResult != nil {
				cfg.OnResult(r, res)
			}

			ctx := logging.WithReceiptID(withResult(r.Context(), res), res.Receipt.ReceiptID)
			r = r.WithContext(ctx)
			w.Header().Set(ActionHeader, res.Action.String())
			w.Header().Set(ReceiptIDHeader, res.Receipt.ReceiptID)

			switch res.Action {
			case engine.ActionDeny:
				logger.InfoContext(ctx, "request denied", "pii_types", res.Receipt.DetectedTypes)
				WriteJSON(w, http.StatusForbidden, ErrorResponse{
					Error:     "request blocked: PII detected",
					ReceiptID: res.Receipt.ReceiptID,
					PIITypes:  res.Receipt.DetectedTypes,
				})
				return
			case engine.ActionRedact:
				doc[field] = res.Output
				rewritten, err := json.Marshal(doc)
				if err != nil {
					WriteError(w, http.StatusInternalServerError, "failed to rewrite request body")
					return
				}
				body = rewritten
			}

			replaceBody(r, body)
			next.ServeHTTP(w, r)
		})
	}
}

func governedMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func (c *Config) governedPath(path string) bool {
	for _, p := range c.SkipPaths {
		if strings.HasPrefix(path, p) {
			return false
		}
	}
	if len(c.ProtectedPaths) == 0 {
		return true
	}
	for _, p := range c.ProtectedPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// extractContent decodes body as a JSON object and returns the first
// non-empty string field named in fields. Numbers are kept as json.Number
// so a rewritten body does not lose precision.
func extractContent(body []byte, fields []string) (map[string]any, string, string, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, "", "", false
	}
	for _, f := range fields {
		if s, ok := doc[f].(string); ok && s != "" {
			return doc, f, s, true
		}
	}
	return nil, "", "", false
}

// requestOptions reads per-request pack selection from headers, falling
// back to defaults when neither header is present. Codes are taken as sent
// apart from surrounding spaces, so "AE" selects no pack.
func requestOptions(r *http.Request, defaults pii.GovernOptions) pii.GovernOptions {
	region := r.Header.Get(RegionHeader)
	industry := r.Header.Get(IndustryHeader)
	if region == "" && industry == "" {
		return defaults
	}

	var opts pii.GovernOptions
	for _, code := range strings.Split(region, ",") {
		if code = strings.TrimSpace(code); code != "" {
			opts.Regions = append(opts.Regions, code)
		}
	}
	opts.Industry = strings.TrimSpace(industry)
	return opts
}

func replaceBody(r *http.Request, body []byte) {
	r.Body = io.NopCloser(bytes.NewReader(body))
	r.ContentLength = int64(len(body))
	r.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

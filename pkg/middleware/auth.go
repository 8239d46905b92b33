package middleware

import (
	"context"
	"crypto/sha256"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tork-hq/governance/pkg/config"
)

// APIKeyHeader carries an API key. An Authorization bearer token is
// accepted as well.
const APIKeyHeader = "X-API-Key"

var (
	// ErrMissingAPIKey indicates a request without credentials.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidAPIKey indicates an unknown key.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrAPIKeyDisabled indicates a configured key that is switched off.
	ErrAPIKeyDisabled = errors.New("API key disabled")
)

// APIKeyInfo describes an accepted key holder.
type APIKeyInfo struct {
	Name    string
	Enabled bool
}

// APIKeyValidator checks API keys, held as SHA-256 digests. It is
// immutable and safe for concurrent use.
type APIKeyValidator struct {
	keys map[[sha256.Size]byte]*APIKeyInfo
}

// NewAPIKeyValidator builds a validator from the server section's keys.
func NewAPIKeyValidator(keys []config.APIKeyConfig) *APIKeyValidator {
	v := &APIKeyValidator{keys: make(map[[sha256.Size]byte]*APIKeyInfo, len(keys))}
	for _, k := range keys {
		v.keys[sha256.Sum256([]byte(k.Key))] = &APIKeyInfo{Name: k.Name, Enabled: k.IsEnabled()}
	}
	return v
}

// Validate returns the holder of key.
func (v *APIKeyValidator) Validate(key string) (*APIKeyInfo, error) {
	info, ok := v.keys[sha256.Sum256([]byte(key))]
	if !ok {
		return nil, ErrInvalidAPIKey
	}
	if !info.Enabled {
		return nil, ErrAPIKeyDisabled
	}
	return info, nil
}

// Len returns the number of configured keys.
func (v *APIKeyValidator) Len() int {
	return len(v.keys)
}

type apiKeyInfoKey struct{}

// APIKeyFromContext returns the authenticated key holder, if any.
func APIKeyFromContext(ctx context.Context) (*APIKeyInfo, bool) {
	info, ok := ctx.Value(apiKeyInfoKey{}).(*APIKeyInfo)
	return info, ok
}

// APIKeyAuth rejects requests without a valid key with 401.
func APIKeyAuth(v *APIKeyValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := extractAPIKey(r)
			if err == nil {
				var info *APIKeyInfo
				if info, err = v.Validate(key); err == nil {
					logger.DebugContext(r.Context(), "API key authenticated", "key_name", info.Name)
					next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), apiKeyInfoKey{}, info)))
					return
				}
			}

			logger.WarnContext(r.Context(), "request rejected",
				"error", err,
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			w.Header().Set("WWW-Authenticate", `Bearer realm="tork"`)
			WriteError(w, http.StatusUnauthorized, err.Error())
		})
	}
}

func extractAPIKey(r *http.Request) (string, error) {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key, nil
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && token != "" {
			return strings.TrimSpace(token), nil
		}
	}
	return "", ErrMissingAPIKey
}

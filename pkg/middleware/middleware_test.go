package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"tork-hq/governance/pkg/config"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/policy/engine"
	"tork-hq/governance/pkg/telemetry/logging"
	"tork-hq/governance/pkg/tork"
)

// echo writes the received body back and reports the governance result.
func echo(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("reading body: %v", err)
		}
		if res := ResultFromContext(r.Context()); res != nil {
			w.Header().Set("X-Echo-Action", res.Action.String())
		}
		if int64(len(body)) != r.ContentLength {
			t.Errorf("ContentLength = %d, body length %d", r.ContentLength, len(body))
		}
		_, _ = w.Write(body)
	})
}

func newGovernor(t *testing.T, cfg engine.Config) *tork.Tork {
	t.Helper()
	tk, err := tork.NewWithConfig(cfg)
	if err != nil {
		t.Fatalf("NewWithConfig() error = %v", err)
	}
	return tk
}

func TestGovern(t *testing.T) {
	redact := newGovernor(t, engine.DefaultConfig())
	deny := newGovernor(t, engine.DefaultConfig().WithDefaultAction(engine.ActionDeny))

	tests := []struct {
		name       string
		governor   *tork.Tork
		method     string
		path       string
		body       string
		headers    map[string]string
		wantStatus int
		wantBody   string
		wantAction string
	}{
		{
			name:       "redacts content field",
			governor:   redact,
			method:     http.MethodPost,
			path:       "/api/chat",
			body:       `{"content":"My SSN is 123-45-6789"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"content":"My SSN is [SSN_REDACTED]"}`,
			wantAction: "redact",
		},
		{
			name:       "first non-empty field wins",
			governor:   redact,
			method:     http.MethodPut,
			path:       "/api/notes",
			body:       `{"content":"","message":"mail john@example.com","n":12345678901234567890}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"content":"","message":"mail [EMAIL_REDACTED]","n":12345678901234567890}`,
			wantAction: "redact",
		},
		{
			name:       "clean content is forwarded unchanged",
			governor:   redact,
			method:     http.MethodPatch,
			path:       "/api/chat",
			body:       `{"prompt":  "hello world"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"prompt":  "hello world"}`,
			wantAction: "allow",
		},
		{
			name:       "deny rejects request",
			governor:   deny,
			method:     http.MethodPost,
			path:       "/api/chat",
			body:       `{"text":"SSN 123-45-6789"}`,
			wantStatus: http.StatusForbidden,
			wantAction: "deny",
		},
		{
			name:       "region header activates pack",
			governor:   redact,
			method:     http.MethodPost,
			path:       "/api/chat",
			body:       `{"input":"Emirates ID: 784-1234-1234567-1"}`,
			headers:    map[string]string{RegionHeader: " ae "},
			wantStatus: http.StatusOK,
			wantBody:   `{"input":"Emirates ID: [EMIRATES_ID_REDACTED]"}`,
			wantAction: "redact",
		},

		{
			name:       "get is not governed",
			governor:   deny,
			method:     http.MethodGet,
			path:       "/api/chat",
			body:       `{"content":"SSN 123-45-6789"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"content":"SSN 123-45-6789"}`,
		},
		{
			name:       "unprotected path is not governed",
			governor:   deny,
			method:     http.MethodPost,
			path:       "/public/chat",
			body:       `{"content":"SSN 123-45-6789"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"content":"SSN 123-45-6789"}`,
		},
		{
			name:       "non json body passes through",
			governor:   deny,
			method:     http.MethodPost,
			path:       "/api/upload",
			body:       `SSN 123-45-6789`,
			wantStatus: http.StatusOK,
			wantBody:   `SSN 123-45-6789`,
		},
		{
			name:       "no content field passes through",
			governor:   deny,
			method:     http.MethodPost,
			path:       "/api/chat",
			body:       `{"other":"SSN 123-45-6789"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"other":"SSN 123-45-6789"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Govern(tt.governor, DefaultConfig())(echo(t))

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody != "" {
				got := w.Body.String()
				if strings.HasPrefix(tt.wantBody, "{") && got != tt.wantBody {
					assertJSONEqual(t, got, tt.wantBody)
				} else if got != tt.wantBody {
					t.Errorf("body = %q, want %q", got, tt.wantBody)
				}
			}
			if got := w.Header().Get(ActionHeader); got != tt.wantAction {
				t.Errorf("%s = %q, want %q", ActionHeader, got, tt.wantAction)
			}
			if tt.wantAction != "" && tt.wantAction != "deny" {
				if got := w.Header().Get("X-Echo-Action"); got != tt.wantAction {
					t.Errorf("ResultFromContext action = %q, want %q", got, tt.wantAction)
				}
			}
		})
	}
}

func assertJSONEqual(t *testing.T, got, want string) {
	t.Helper()
	var g, w any
	decode := func(s string, v *any) {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		if err := dec.Decode(v); err != nil {
			t.Fatalf("decoding %q: %v", s, err)
		}
	}
	decode(got, &g)
	decode(want, &w)
	gb, _ := json.Marshal(g)
	wb, _ := json.Marshal(w)
	if !bytes.Equal(gb, wb) {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestGovern_DenyResponse(t *testing.T) {
	deny := newGovernor(t, engine.DefaultConfig().WithDefaultAction(engine.ActionDeny))
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"content":"SSN 123-45-6789, mail a@b.co"}`))
	w := httptest.NewRecorder()
	Govern(deny, DefaultConfig())(next).ServeHTTP(w, req)

	if called {
		t.Fatal("next handler ran for a denied request")
	}
	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ReceiptID == "" || resp.ReceiptID != w.Header().Get(ReceiptIDHeader) {
		t.Errorf("receipt_id = %q, header %q", resp.ReceiptID, w.Header().Get(ReceiptIDHeader))
	}
	if len(resp.PIITypes) != 2 || resp.PIITypes[0] != pii.TypeSSN || resp.PIITypes[1] != pii.TypeEmail {
		t.Errorf("pii_types = %v, want [ssn email]", resp.PIITypes)
	}
	if strings.Contains(w.Body.String(), "123-45-6789") {
		t.Error("deny response leaks the input")
	}
}

func TestGovern_BodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBodyBytes = 16
	handler := Govern(newGovernor(t, engine.DefaultConfig()), cfg)(echo(t))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"content":"this body is longer than sixteen bytes"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestGovern_OnResultAndDefaults(t *testing.T) {
	var (
		mu      sync.Mutex
		results []*tork.GovernanceResult
	)
	cfg := DefaultConfig()
	cfg.Defaults = pii.GovernOptions{Regions: []string{"ae"}}
	cfg.OnResult = func(_ *http.Request, res *tork.GovernanceResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, res)
	}
	handler := Govern(newGovernor(t, engine.DefaultConfig()), cfg)(echo(t))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"content":"Emirates ID: 784-1234-1234567-1"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(results) != 1 {
		t.Fatalf("OnResult calls = %d, want 1", len(results))
	}
	if results[0].Receipt.DetectedTypes[0] != pii.TypeEmiratesID {
		t.Errorf("DetectedTypes = %v, want [emirates_id]", results[0].Receipt.DetectedTypes)
	}
}

func TestGovern_DefaultsFrom(t *testing.T) {
	var (
		current pii.GovernOptions
		last    *tork.GovernanceResult
	)
	cfg := DefaultConfig()
	cfg.Defaults = pii.GovernOptions{Regions: []string{"ae"}}
	cfg.DefaultsFrom = func() pii.GovernOptions { return current }
	cfg.OnResult = func(_ *http.Request, res *tork.GovernanceResult) { last = res }
	handler := Govern(newGovernor(t, engine.DefaultConfig()), cfg)(echo(t))

	post := func() bool {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"content":"Emirates ID: 784-1234-1234567-1"}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if last == nil {
			t.Fatal("OnResult not called")
		}
		return last.Receipt.HasType(pii.TypeEmiratesID)
	}

	if post() {
		t.Error("emirates_id detected although DefaultsFrom selects core only")
	}
	current = pii.GovernOptions{Regions: []string{"ae"}}
	if !post() {
		t.Error("emirates_id not detected after DefaultsFrom switched to ae")
	}
}

func TestRequestOptions(t *testing.T) {
	defaults := pii.GovernOptions{Regions: []string{"in"}}
	tests := []struct {
		name     string
		region   string
		industry string
		want     pii.GovernOptions
	}{
		{"no headers keep defaults", "", "", defaults},
		{"spaces trimmed", " ae , gb ", "", pii.GovernOptions{Regions: []string{"ae", "gb"}}},
		{"case kept", "AE", "Finance", pii.GovernOptions{Regions: []string{"AE"}, Industry: "Finance"}},
		{"industry only", "", "healthcare", pii.GovernOptions{Industry: "healthcare"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
			if tt.region != "" {
				req.Header.Set(RegionHeader, tt.region)
			}
			if tt.industry != "" {
				req.Header.Set(IndustryHeader, tt.industry)
			}
			got := requestOptions(req, defaults)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("requestOptions() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGovern_UppercaseRegionSelectsNoPack(t *testing.T) {
	var last *tork.GovernanceResult
	cfg := DefaultConfig()
	cfg.OnResult = func(_ *http.Request, res *tork.GovernanceResult) { last = res }
	handler := Govern(newGovernor(t, engine.DefaultConfig()), cfg)(echo(t))

	for _, tt := range []struct {
		region string
		want   bool
	}{
		{"AE", false},
		{"ae", true},
	} {
		last = nil
		req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"content":"Emirates ID: 784-1234-1234567-1"}`))
		req.Header.Set(RegionHeader, tt.region)
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if last == nil {
			t.Fatalf("region %q: OnResult not called", tt.region)
		}
		if got := last.Receipt.HasType(pii.TypeEmiratesID); got != tt.want {
			t.Errorf("region %q: emirates_id detected = %v, want %v", tt.region, got, tt.want)
		}
	}
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestGovern_LeavesRequestBodyToServer(t *testing.T) {
	handler := Govern(newGovernor(t, engine.DefaultConfig()), DefaultConfig())(echo(t))

	body := &closeTracker{Reader: strings.NewReader(`{"content":"mail john@example.com"}`)}
	req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
	req.Body = body
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "[EMAIL_REDACTED]") {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body.closed {
		t.Error("middleware closed the incoming request body")
	}
}

func TestConfig_GovernedPath(t *testing.T) {
	cfg := Config{ProtectedPaths: []string{"/api/"}, SkipPaths: []string{"/api/health"}}
	tests := map[string]bool{
		"/api/chat":   true,
		"/api/health": false,
		"/v1/govern":  false,
	}
	for path, want := range tests {
		if got := cfg.governedPath(path); got != want {
			t.Errorf("governedPath(%q) = %v, want %v", path, got, want)
		}
	}

	all := Config{}
	if !all.governedPath("/anything") {
		t.Error("empty ProtectedPaths should govern every path")
	}
}

func TestConfigFromServer(t *testing.T) {
	cfg := ConfigFromServer(
		config.ServerConfig{ProtectedPaths: []string{"/chat/"}, MaxBodyBytes: 10},
		config.GovernanceConfig{Regions: []string{"in"}, Industry: "finance"},
	)
	if cfg.ProtectedPaths[0] != "/chat/" || cfg.MaxBodyBytes != 10 {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(cfg.ContentFields) != 6 || cfg.SkipPaths[0] != "/health" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if cfg.Defaults.Industry != "finance" || cfg.Defaults.Regions[0] != "in" {
		t.Errorf("Defaults = %+v", cfg.Defaults)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if len(seen) != 36 || w.Header().Get(RequestIDHeader) != seen {
			t.Errorf("request id = %q, header %q", seen, w.Header().Get(RequestIDHeader))
		}
	})

	t.Run("reuses client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "client-id-1")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if seen != "client-id-1" || w.Header().Get(RequestIDHeader) != "client-id-1" {
			t.Errorf("request id = %q", seen)
		}
	})
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "boom") {
		t.Error("panic value leaked to client")
	}
	if !strings.Contains(buf.String(), "panic in handler") {
		t.Errorf("log = %s", buf.String())
	}
}

type httpObservation struct {
	route, method string
	status        int
}

type recordingHTTPObserver struct {
	mu  sync.Mutex
	obs []httpObservation
}

func (o *recordingHTTPObserver) ObserveHTTP(route, method string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.obs = append(o.obs, httpObservation{route, method, status})
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := &recordingHTTPObserver{}
	route := func(*http.Request) string { return "/api/{name}" }

	handler := Logging(logger, obs, route)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/x", nil).WithContext(context.Background()))

	if len(obs.obs) != 1 || obs.obs[0] != (httpObservation{"/api/{name}", http.MethodPost, http.StatusTeapot}) {
		t.Errorf("observations = %+v", obs.obs)
	}
	if !strings.Contains(buf.String(), `"level":"WARN","msg":"request completed"`) {
		t.Errorf("log = %s", buf.String())
	}
}

package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"tork-hq/governance/pkg/evidence"
	"tork-hq/governance/pkg/middleware"
	"tork-hq/governance/pkg/pii"
	"tork-hq/governance/pkg/telemetry/health"
	"tork-hq/governance/pkg/telemetry/logging"
	"tork-hq/governance/pkg/telemetry/metrics"
	"tork-hq/governance/pkg/telemetry/tracing"
	"tork-hq/governance/pkg/tork"
)

// ReceiptRecorder persists receipts. *recorder.Recorder implements it.
type ReceiptRecorder interface {
	Record(ctx context.Context, receipt *evidence.Receipt) error
}

// Deps are the components the router serves.
type Deps struct {
	Instance *Instance
	Health   *health.Checker
	Version  health.VersionInfo

	// Metrics and MetricsPath are optional; /metrics is served only when
	// both are set.
	Metrics     *metrics.Collector
	MetricsPath string

	// Tracer defaults to a no-op tracer.
	Tracer *tracing.Tracer

	// Recorder, when set, receives every receipt minted through the API
	// and the middleware.
	Recorder ReceiptRecorder

	// APIKeys, when it holds keys, guards /v1 and /api/. Health, version
	// and metrics stay open.
	APIKeys *middleware.APIKeyValidator

	// Middleware configures governance of the /api/ echo endpoint.
	Middleware middleware.Config

	Logger *slog.Logger
}

// governRequest is the body of POST /v1/govern and POST /v1/detect.
type governRequest struct {
	Text     string   `json:"text"`
	Regions  []string `json:"regions,omitempty"`
	Industry string   `json:"industry,omitempty"`
}

func (g governRequest) options(defaults pii.GovernOptions) pii.GovernOptions {
	if len(g.Regions) == 0 && g.Industry == "" {
		return defaults
	}
	return pii.GovernOptions{Regions: g.Regions, Industry: g.Industry}
}

type api struct {
	deps   Deps
	logger *slog.Logger
}

// NewRouter builds the full handler chain:
//
//	POST /v1/govern        govern text, returns a GovernanceResult
//	POST /v1/detect        detection only, returns a DetectionResult
//	GET  /v1/stats         stats snapshot
//	POST /v1/stats/reset   reset stats, returns the new snapshot
//	GET  /health /ready /version
//	GET  /metrics          when metrics are enabled
//	*    /api/...          echo endpoint behind the governance middleware
func NewRouter(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Tracer == nil {
		deps.Tracer = tracing.Noop()
	}
	a := &api{deps: deps, logger: deps.Logger.With("component", "api")}

	protect := func(h http.Handler) http.Handler { return h }
	if deps.APIKeys != nil && deps.APIKeys.Len() > 0 {
		protect = middleware.APIKeyAuth(deps.APIKeys, deps.Logger)
	}

	router := mux.NewRouter()
	router.Handle("/v1/govern", protect(http.HandlerFunc(a.handleGovern))).Methods(http.MethodPost)
	router.Handle("/v1/detect", protect(http.HandlerFunc(a.handleDetect))).Methods(http.MethodPost)
	router.Handle("/v1/stats", protect(http.HandlerFunc(a.handleStats))).Methods(http.MethodGet)
	router.Handle("/v1/stats/reset", protect(http.HandlerFunc(a.handleStatsReset))).Methods(http.MethodPost)

	if deps.Health != nil {
		router.Handle("/health", deps.Health.LivenessHandler()).Methods(http.MethodGet, http.MethodHead)
		router.Handle("/ready", deps.Health.ReadinessHandler()).Methods(http.MethodGet, http.MethodHead)
	}
	router.Handle("/version", health.VersionHandler(deps.Version)).Methods(http.MethodGet, http.MethodHead)

	if deps.Metrics != nil && deps.MetricsPath != "" {
		router.Handle(deps.MetricsPath, deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	mwCfg := deps.Middleware
	if mwCfg.Logger == nil {
		mwCfg.Logger = deps.Logger
	}
	if mwCfg.DefaultsFrom == nil {
		mwCfg.DefaultsFrom = deps.Instance.DefaultOptions
	}
	if deps.Recorder != nil {
		onResult := mwCfg.OnResult
		mwCfg.OnResult = func(r *http.Request, res *tork.GovernanceResult) {
			a.record(r.Context(), res)
			if onResult != nil {
				onResult(r, res)
			}
		}
	}
	apiRouter := router.PathPrefix("/api/").Subrouter()
	apiRouter.Use(protect, middleware.Govern(deps.Instance, mwCfg))
	apiRouter.PathPrefix("/").HandlerFunc(handleEcho)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	route := routeName(router)
	var observer middleware.HTTPObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}

	var handler http.Handler = router
	handler = deps.Tracer.HTTPMiddleware(route)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Logging(deps.Logger, observer, route)(handler)
	handler = middleware.Recovery(deps.Logger)(handler)
	return handler
}

// routeName maps a request to its route template so that metrics and span
// names stay low-cardinality.
func routeName(router *mux.Router) func(*http.Request) string {
	return func(r *http.Request) string {
		var match mux.RouteMatch
		if router.Match(r, &match) && match.Route != nil {
			if tpl, err := match.Route.GetPathTemplate(); err == nil {
				return tpl
			}
		}
		return "unmatched"
	}
}

func (a *api) decode(w http.ResponseWriter, r *http.Request) (governRequest, bool) {
	var req governRequest
	limit := a.deps.Middleware.MaxBodyBytes
	if limit <= 0 {
		limit = middleware.DefaultMaxBodyBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

func (a *api) handleGovern(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}

	res, err := a.deps.Instance.GovernContext(r.Context(), req.Text, req.options(a.deps.Instance.DefaultOptions()))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	a.record(r.Context(), res)

	w.Header().Set(middleware.ReceiptIDHeader, res.Receipt.ReceiptID)
	middleware.WriteJSON(w, http.StatusOK, res)
}

func (a *api) handleDetect(w http.ResponseWriter, r *http.Request) {
	req, ok := a.decode(w, r)
	if !ok {
		return
	}

	res, err := a.deps.Instance.DetectPII(req.Text, req.options(a.deps.Instance.DefaultOptions()))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	middleware.WriteJSON(w, http.StatusOK, res)
}

func (a *api) handleStats(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, a.deps.Instance.Stats())
}

func (a *api) handleStatsReset(w http.ResponseWriter, r *http.Request) {
	a.deps.Instance.Get().ResetStats()
	a.logger.InfoContext(r.Context(), "stats reset")
	middleware.WriteJSON(w, http.StatusOK, a.deps.Instance.Stats())
}

// record hands a receipt to the recorder. A failure is logged and never
// fails the request.
func (a *api) record(ctx context.Context, res *tork.GovernanceResult) {
	if a.deps.Recorder == nil {
		return
	}
	if err := a.deps.Recorder.Record(ctx, &res.Receipt); err != nil {
		a.logger.WarnContext(ctx, "failed to record receipt", "error", err)
	}
}

// handleEcho returns the (possibly redacted) request body with the
// governance outcome, for exercising the middleware.
func handleEcho(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	resp := struct {
		Path      string          `json:"path"`
		Body      json.RawMessage `json:"body,omitempty"`
		RawBody   string          `json:"raw_body,omitempty"`
		Action    string          `json:"action,omitempty"`
		ReceiptID string          `json:"receipt_id,omitempty"`
	}{Path: r.URL.Path}

	if json.Valid(body) {
		resp.Body = body
	} else {
		resp.RawBody = string(body)
	}
	if res := middleware.ResultFromContext(r.Context()); res != nil {
		resp.Action = res.Action.String()
		resp.ReceiptID = res.Receipt.ReceiptID
	}
	middleware.WriteJSON(w, http.StatusOK, resp)
}

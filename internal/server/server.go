// Package server exposes the tagger over HTTP.
//
// Routes:
//
//	POST /v1/place   decide (and optionally apply) tags for a snapshot
//	GET  /v1/rules   list the decision table, or render it (format=dot|svg)
//	GET  /healthz    liveness check
//
// Snapshots are posted as JSON, or YAML with a YAML content type. Every
// request applies to a fresh in-memory document; the server keeps no
// per-request state beyond the shared directive cache.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/autotag/pkg/buildinfo"
	"github.com/matzehuels/autotag/pkg/document"
	"github.com/matzehuels/autotag/pkg/errors"
	"github.com/matzehuels/autotag/pkg/observability"
	"github.com/matzehuels/autotag/pkg/pipeline"
	"github.com/matzehuels/autotag/pkg/placement"
	"github.com/matzehuels/autotag/pkg/render/rulegraph"
	"github.com/matzehuels/autotag/pkg/scene"
)

const (
	// MaxBodyBytes bounds a posted snapshot.
	MaxBodyBytes = 16 << 20

	requestTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Server handles tagging requests with a shared Runner.
type Server struct {
	runner *pipeline.Runner
	base   pipeline.Options
	logger *log.Logger
	router chi.Router
}

// New creates a server. base supplies the families, policy and run
// defaults that requests may override per call.
func New(runner *pipeline.Runner, base pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, base: base, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/place", s.handlePlace)
		r.Get("/rules", s.handleRules)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// instrument reports requests to the server hooks and the log.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		hooks := observability.Server()

		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		hooks.OnResponse(r.Context(), r.Method, route, status, time.Since(start))
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Handlers
// =============================================================================

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Build: buildinfo.Current()})
}

// PlaceResponse is the body of a successful POST /v1/place.
type PlaceResponse struct {
	Result *pipeline.Result `json:"result"`
	// Tags is set when the request asked for apply=true.
	Tags []document.Tag `json:"tags,omitempty"`
}

func (s *Server) handlePlace(w http.ResponseWriter, r *http.Request) {
	snap, err := decodeSnapshot(r.Body, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}

	opts, err := s.requestOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), snap, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := PlaceResponse{Result: res}

	if apply, _ := strconv.ParseBool(r.URL.Query().Get("apply")); apply {
		doc := document.New()
		if _, err := s.runner.Apply(r.Context(), doc, res); err != nil {
			writeError(w, err)
			return
		}
		resp.Tags = doc.Tags()
	}
	writeJSON(w, http.StatusOK, resp)
}

// requestOptions layers query parameters over the base options.
func (s *Server) requestOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.base
	q := r.URL.Query()
	if v := q.Get("view"); v != "" {
		opts.View = v
	}
	for name, dst := range map[string]*bool{
		"parallel":         &opts.Parallel,
		"abort_on_invalid": &opts.AbortOnInvalidGeometry,
		"refresh":          &opts.Refresh,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "query parameter %s: %q is not a boolean", name, v)
		}
		*dst = b
	}
	return opts, nil
}

// RuleView is the JSON form of one decision table cell.
type RuleView struct {
	View          string    `json:"view"`
	Category      string    `json:"category"`
	Symbol        string    `json:"symbol"`
	CurtainSymbol string    `json:"curtain_symbol,omitempty"`
	Family        string    `json:"family"`
	Adjust        string    `json:"adjust"`
	Offset        []float64 `json:"offset,omitempty"`
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	opts := s.base
	rules, err := s.runner.Rules(&opts)
	if err != nil {
		writeError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		views := make([]RuleView, len(rules))
		for i, rule := range rules {
			views[i] = ruleView(rule, opts)
		}
		writeJSON(w, http.StatusOK, views)
	case "dot", "svg":
		out, err := rulegraph.Render(r.Context(), rules, rulegraph.Options{Families: opts.Families}, format)
		if err != nil {
			writeError(w, err)
			return
		}
		ct := "text/vnd.graphviz"
		if format == "svg" {
			ct = "image/svg+xml"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = w.Write(out)
	default:
		writeError(w, errors.New(errors.ErrCodeUnsupported, "unsupported format %q", format))
	}
}

func ruleView(r placement.Rule, opts pipeline.Options) RuleView {
	v := RuleView{
		View:     r.View.String(),
		Category: r.Category.String(),
		Symbol:   r.Symbol.String(),
		Family:   opts.Families[r.Symbol],
		Adjust:   r.Adjust.String(),
	}
	if r.CurtainSymbol.Valid() {
		v.CurtainSymbol = r.CurtainSymbol.String()
	}
	if r.Adjust == placement.AdjustOffsetAnchor || r.Adjust == placement.AdjustPostOffset {
		v.Offset = []float64{r.Offset.X, r.Offset.Y, r.Offset.Z}
	}
	return v
}

// =============================================================================
// Encoding
// =============================================================================

func decodeSnapshot(body io.Reader, contentType string) (*scene.Snapshot, error) {
	body = io.LimitReader(body, MaxBodyBytes)
	if strings.Contains(contentType, "yaml") {
		return scene.ReadYAML(body)
	}
	return scene.ReadJSON(body)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, statusFor(code), ErrorResponse{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSnapshot, errors.ErrCodeInvalidFormat,
		errors.ErrCodeUnknownCategory, errors.ErrCodeInvalidGeometry:
		return http.StatusBadRequest
	case errors.ErrCodeMissingSymbol:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"code":%q,"message":"encode response"}`, errors.ErrCodeInternal)
	}
}

// Package http exposes the analyzer as a JSON API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/aretw0/btlib"
	"github.com/aretw0/btlib/internal/logging"
	"github.com/aretw0/btlib/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MaxBodySize bounds every request body.
const MaxBodySize = 16 << 20

// Analyzer defines what the server needs from the library facade.
type Analyzer interface {
	ParseDefinition(text []byte) (*domain.Tree, error)
	DecodeTrace(buf []byte) (*domain.Tree, error)
	CompileFSM(tree *domain.Tree) (*domain.Automaton, error)
	Validate(tree *domain.Tree) error
	Analyze(buf []byte) (*domain.Tree, *domain.Telemetry, error)
	Summarize(tree *domain.Tree, record *domain.Telemetry) (btlib.Summary, error)
	Coverage(values domain.ValueMap) (float64, error)
	Ingest(ctx context.Context, key string, buf []byte) (*domain.Telemetry, error)
}

// Store is the subset of the recorder used by the run endpoints.
type Store interface {
	Load(ctx context.Context, key string) (*domain.Telemetry, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

// RunResponse is the body of the run endpoints.
type RunResponse struct {
	Key      string            `json:"key"`
	Coverage float64           `json:"coverage"`
	Record   *domain.Telemetry `json:"record"`
}

// Server serves the JSON API.
type Server struct {
	analyzer Analyzer
	store    Store
	logger   *slog.Logger
	metrics  *Metrics
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics replaces the default metrics, e.g. to register them on a
// shared registry.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewHandler creates the HTTP handler. store backs the /runs endpoints.
func NewHandler(analyzer Analyzer, store Store, opts ...Option) http.Handler {
	s := &Server{analyzer: analyzer, store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(prometheus.NewRegistry())
	}

	r := chi.NewRouter()
	r.Use(s.metrics.middleware)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.metrics.gatherer, promhttp.HandlerOpts{}))

	r.Post("/tree", s.PostTree)
	r.Post("/fsm", s.PostFSM)
	r.Post("/validate", s.PostValidate)
	r.Post("/coverage", s.PostCoverage)

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Get("/{key}", s.GetRun)
		r.Post("/{key}", s.PostRun)
		r.Delete("/{key}", s.DeleteRun)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PostTree handles POST /tree. XML bodies are parsed as definitions, any
// other body is decoded as an .fbl trace.
func (s *Server) PostTree(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.readTree(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

// PostFSM handles POST /fsm.
func (s *Server) PostFSM(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.readTree(w, r)
	if !ok {
		return
	}
	fsm, err := s.analyzer.CompileFSM(tree)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fsm)
}

// PostValidate handles POST /validate.
func (s *Server) PostValidate(w http.ResponseWriter, r *http.Request) {
	tree, ok := s.readTree(w, r)
	if !ok {
		return
	}
	if err := s.analyzer.Validate(tree); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"valid": true})
}

// PostCoverage handles POST /coverage: a single .fbl run, not recorded.
func (s *Server) PostCoverage(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	tree, run, err := s.analyzer.Analyze(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.metrics.events.Add(float64(eventCount(run)))
	summary, err := s.analyzer.Summarize(tree, run)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// PostRun handles POST /runs/{key}: records an .fbl run.
func (s *Server) PostRun(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	record, err := s.analyzer.Ingest(r.Context(), key, body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("Run recorded", "key", key, "runs", len(record.Runs))
	s.writeRun(w, key, record)
}

// GetRun handles GET /runs/{key}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	record, err := s.store.Load(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeRun(w, key, record)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"keys": keys})
}

// DeleteRun handles DELETE /runs/{key}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "btlib-http",
		"version": btlib.Version,
	})
}

// -- Helpers --

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		return nil, false
	}
	if len(body) == 0 {
		http.Error(w, "Empty request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (s *Server) readTree(w http.ResponseWriter, r *http.Request) (*domain.Tree, bool) {
	body, ok := s.readBody(w, r)
	if !ok {
		return nil, false
	}
	var (
		tree *domain.Tree
		err  error
	)
	if isXML(r.Header.Get("Content-Type")) {
		tree, err = s.analyzer.ParseDefinition(body)
	} else {
		tree, err = s.analyzer.DecodeTrace(body)
	}
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return tree, true
}

func isXML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/xml" || mt == "text/xml" || strings.HasSuffix(mt, "+xml")
}

func (s *Server) writeRun(w http.ResponseWriter, key string, record *domain.Telemetry) {
	cov, err := s.analyzer.Coverage(record.Counts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, RunResponse{Key: key, Coverage: cov, Record: record})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// statusFor maps library errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFormat):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStructural), errors.Is(err, domain.ErrUnsupportedConstruct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConsistency):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	} else {
		s.logger.Debug("Request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": fmt.Sprint(err)})
}

func eventCount(run *domain.Telemetry) int {
	n := 0
	for _, v := range run.Counts {
		if v != nil {
			n += v.Count
		}
	}
	return n
}

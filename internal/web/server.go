// Package web serves a tracker registry over a JSON HTTP API.
package web

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasnoah/stagetrack/internal/logging"
	"github.com/lucasnoah/stagetrack/internal/metrics"
	"github.com/lucasnoah/stagetrack/internal/registry"
)

// Server is the JSON API server. The registry and its trackers are not safe
// for concurrent use on their own, so every handler goes through mu.
type Server struct {
	mu  sync.RWMutex
	reg *registry.Registry

	logger   *slog.Logger
	metrics  *metrics.Recorder
	gatherer prometheus.Gatherer
}

// Options configures optional collaborators of a Server.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
	// Gatherer backs /metrics. When nil the endpoint is not registered.
	Gatherer prometheus.Gatherer
}

// NewServer creates a Server that takes ownership of reg.
func NewServer(reg *registry.Registry, opts Options) *Server {
	if reg == nil {
		reg = registry.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	opts.Metrics.SetTrackers(reg.Len())
	return &Server{
		reg:      reg,
		logger:   logger,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
	}
}

// Handler registers routes and returns the root handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /trackers", s.handleListTrackers)
	mux.HandleFunc("POST /trackers", s.handleAddTracker)
	mux.HandleFunc("GET /trackers/{id}", s.handleGetTracker)
	mux.HandleFunc("PUT /trackers/{id}", s.handleUpdateTracker)
	mux.HandleFunc("POST /trackers/{id}/stages", s.handleAddStage)
	mux.HandleFunc("PUT /trackers/{id}/stages/{stageID}", s.handleUpdateStage)
	mux.HandleFunc("GET /trackers/{id}/current", s.handleCurrentStage)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "status", rec.status)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

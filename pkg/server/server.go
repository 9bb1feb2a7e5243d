package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/reqtag/request-tagger/pkg/audit"
	"github.com/reqtag/request-tagger/pkg/auth"
	"github.com/reqtag/request-tagger/pkg/config"
	"github.com/reqtag/request-tagger/pkg/middleware"
	"github.com/reqtag/request-tagger/pkg/tag"
)

// Server represents the HTTP request-tagging server
type Server struct {
	config     *config.Config
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	logger     *logrus.Logger
	generator  *tag.Generator
	trail      *audit.VisitQueue
	startedAt  time.Time
	ready      bool
}

// NewServer creates a new server instance. The reuse detector may be nil
// when incoming identifiers are not trusted.
func NewServer(cfg *config.Config, logger *logrus.Logger, gen *tag.Generator, trail *audit.VisitQueue, reuse *audit.ReuseDetector) *Server {
	s := &Server{
		config:    cfg,
		router:    mux.NewRouter(),
		logger:    logger,
		generator: gen,
		trail:     trail,
		startedAt: time.Now(),
	}

	// Setup routes
	s.setupRoutes()

	// Assemble the middleware pipeline as an explicit ordered list: the
	// first entry is the first to see a request
	s.handler = middleware.Chain(s.router,
		middleware.SizeLimit(cfg.Server.MaxRequestSize),
		middleware.Tagging(gen, logger, middleware.TaggingOptions{
			Header:        cfg.Tagging.Header,
			TrustIncoming: cfg.Tagging.TrustIncoming,
			Reuse:         reuse,
		}),
		middleware.AccessLog(logger, trail),
	)

	// Create HTTP server
	readTimeout, _ := cfg.ParseDuration(cfg.Server.ReadTimeout)
	writeTimeout, _ := cfg.ParseDuration(cfg.Server.WriteTimeout)

	s.httpServer = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        s.handler,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	return s
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	// Demo endpoint showing the assigned tag
	s.router.HandleFunc("/echo", s.handleEcho).Methods(http.MethodGet, http.MethodPost)

	// Health endpoint
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// Readiness endpoint
	s.router.HandleFunc("/readyz", s.handleReadiness).Methods(http.MethodGet)

	// Prometheus metrics
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Admin endpoints, only registered when a token is configured
	if s.config.Admin.Token != "" {
		admin := s.router.PathPrefix("/admin").Subrouter()
		admin.Use(auth.Middleware(s.config.Admin.Token, s.logger))
		admin.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	}
}

// Handler returns the fully assembled handler, including the middleware
// pipeline. Used by tests to serve the stack without binding a port.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithFields(logrus.Fields{
		"port":     s.config.Server.Port,
		"instance": s.generator.Instance(),
	}).Info("Starting HTTP server")

	s.ready = true

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	s.ready = false

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// SetReady sets the readiness status
func (s *Server) SetReady(ready bool) {
	s.ready = ready
}

// echoResponse describes a tagged request back to its sender
type echoResponse struct {
	RequestID      string `json:"request_id"`
	Sequence       uint64 `json:"sequence,omitempty"`
	Instance       string `json:"instance,omitempty"`
	ClientSupplied bool   `json:"client_supplied,omitempty"`
	Method         string `json:"method"`
	Path           string `json:"path"`
}

// handleEcho reports the tag assigned to the current request
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	resp := echoResponse{
		Method: r.Method,
		Path:   r.URL.Path,
	}

	if t, ok := tag.FromContext(r.Context()); ok {
		resp.RequestID = t.String()
		resp.Sequence = t.Sequence()
		resp.Instance = t.Instance()
		resp.ClientSupplied = t.ClientSupplied()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// statsResponse reports tagging state for operators
type statsResponse struct {
	Instance      string  `json:"instance"`
	LastSequence  uint64  `json:"last_sequence"`
	AuditDepth    int     `json:"audit_queue_depth"`
	AuditCapacity int     `json:"audit_queue_capacity"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// handleStats reports generator and audit queue state
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Instance:      s.generator.Instance(),
		LastSequence:  s.generator.Last(),
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
	}
	if s.trail != nil {
		resp.AuditDepth = s.trail.Depth()
		resp.AuditCapacity = s.trail.Capacity()
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// handleHealth returns the health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// handleReadiness returns the readiness status
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if !s.ready {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// writeJSON writes a JSON response with the given status code
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/joshdurbin/shortlink/internal/service"
)

// Server represents the HTTP server
type Server struct {
	handler *Handler
	server  *http.Server
	port    string
	logger  logrus.FieldLogger
}

// NewRouter wires the routes. API and operational routes are matched before
// the catch-all redirect.
func NewRouter(handler *Handler, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()

	r.Methods(http.MethodGet).Path("/healthz").HandlerFunc(handler.Health)
	r.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Methods(http.MethodPost).Path("/api/mappings").HandlerFunc(handler.WriteMappings)
	r.Methods(http.MethodGet).Path("/api/mappings/{path:.+}").HandlerFunc(handler.GetMapping)

	r.Methods(http.MethodGet).Path("/{path:.+}").HandlerFunc(handler.Redirect)

	return r
}

// NewServer creates a new HTTP server
func NewServer(shortlinks service.Shortlinks, gatherer prometheus.Gatherer, port string, logger logrus.FieldLogger, verbose bool) *Server {
	handler := NewHandler(shortlinks, logger)

	var finalHandler http.Handler = NewRouter(handler, gatherer)
	if verbose {
		finalHandler = NewLoggingMiddleware(logger, verbose).Middleware(finalHandler)
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		handler: handler,
		server:  server,
		port:    port,
		logger:  logger,
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.WithField("port", s.port).Info("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// Port returns the server port
func (s *Server) Port() string {
	return s.port
}

// Handler returns the server handler (useful for testing)
func (s *Server) Handler() *Handler {
	return s.handler
}

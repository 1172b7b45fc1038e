package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	apimiddleware "github.com/helixml/careerpath/infrastructure/api/middleware"
)

// Server owns the root router and the listening http.Server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	addr       string
	origins    []string
	timeouts   Timeouts
}

// Timeouts bound the phases of an HTTP connection.
type Timeouts struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
}

// DefaultTimeouts allow a slow encoder call to finish inside Write.
var DefaultTimeouts = Timeouts{
	ReadHeader: 10 * time.Second,
	Read:       30 * time.Second,
	Write:      90 * time.Second,
	Idle:       120 * time.Second,
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAllowedOrigins restricts CORS to the given origins. The default is *.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithTimeouts overrides DefaultTimeouts.
func WithTimeouts(t Timeouts) ServerOption {
	return func(s *Server) { s.timeouts = t }
}

// NewServer creates a Server with the shared middleware stack installed.
// Request timeouts are applied per route group because chi's Timeout
// middleware breaks the streaming MCP transport.
func NewServer(addr string, logger *slog.Logger, opts ...ServerOption) Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := Server{
		router:   chi.NewRouter(),
		addr:     addr,
		logger:   logger,
		origins:  []string{"*"},
		timeouts: DefaultTimeouts,
	}
	for _, opt := range opts {
		opt(&s)
	}

	s.router.Use(
		chimiddleware.RequestID,
		chimiddleware.RealIP,
		apimiddleware.CorrelationID,
		apimiddleware.Logging(logger),
		chimiddleware.Recoverer,
		cors.Handler(s.corsOptions()),
	)
	return s
}

func (s Server) corsOptions() cors.Options {
	exposed := []string{apimiddleware.CorrelationHeader, "Mcp-Session-Id"}
	return cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: append([]string{"Accept", "Content-Type", apimiddleware.APIKeyHeader}, exposed...),
		ExposedHeaders: exposed,
		MaxAge:         300,
	}
}

// Router returns the root router.
func (s Server) Router() chi.Router {
	return s.router
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return s.addr
}

// Start listens on Addr and blocks until the server stops. A graceful
// Shutdown is not an error.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		ReadTimeout:       s.timeouts.Read,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/domsync/pkg/patch"
	"github.com/vango-dev/domsync/pkg/telemetry"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. The runner and patchers log through it
// as well.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables engine metrics and the /metrics route.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithTracer sets the tracer for transaction spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Server) {
		s.tracer = tracer
	}
}

// Server is the headless render-target server. It owns one Runner and
// streams transactions in over HTTP and WebSocket.
type Server struct {
	config   *ServerConfig
	runner   *Runner
	hub      *Hub
	router   chi.Router
	upgrader websocket.Upgrader

	metrics *telemetry.Metrics
	tracer  trace.Tracer
	logger  *slog.Logger

	httpServer *http.Server

	// ctx scopes the runner and websocket transactions.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server and starts its runner. Call Close or Shutdown to
// stop it.
func New(config *ServerConfig, opts ...Option) *Server {
	s := &Server{
		config: config.withDefaults(),
		logger: slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(s.logger)
	patchOpts := []patch.Option{patch.WithMetrics(s.metrics)}
	if s.tracer != nil {
		patchOpts = append(patchOpts, patch.WithTracer(s.tracer))
	}
	s.runner = NewRunner(s.hub, s.logger, patchOpts...)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  s.config.ReadBufferSize,
		WriteBufferSize: s.config.WriteBufferSize,
		CheckOrigin:     s.config.CheckOrigin,
	}
	s.router = s.routes()

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go func() {
		if err := s.runner.Run(s.ctx); err != nil && err != context.Canceled {
			s.logger.Error("runner stopped", "error", err)
		}
	}()

	return s
}

// Handler returns the server's routes for mounting in another router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Runner returns the server's runner.
func (s *Server) Runner() *Runner {
	return s.runner
}

// Hub returns the connected-client hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Config returns the server configuration with defaults applied.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Run starts the server and blocks until SIGINT, SIGTERM or a listen error.
func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:    s.config.Address,
		Handler: s.router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-shutdown:
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown disconnects websocket clients, drains HTTP requests and stops
// the runner.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.hub.closeAll()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			s.Close()
			return err
		}
	}

	s.Close()
	s.logger.Info("server shutdown complete")
	return nil
}

// Close stops the runner and disconnects clients without waiting for
// in-flight HTTP requests.
func (s *Server) Close() {
	s.hub.closeAll()
	s.cancel()
}

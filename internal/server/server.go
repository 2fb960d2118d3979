package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/benvon/bobbys-store/api/openapi"
	"github.com/benvon/bobbys-store/internal/config"
	"github.com/benvon/bobbys-store/internal/handlers"
	"github.com/benvon/bobbys-store/internal/logger"
	"github.com/benvon/bobbys-store/internal/middleware"
	"github.com/benvon/bobbys-store/internal/routes"
	"github.com/benvon/bobbys-store/internal/telemetry"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 60 * time.Second
	maxHeaderBytes  = 1 << 20
)

// Storage is the background-connected document store.
type Storage interface {
	Start(ctx context.Context)
	Done() <-chan struct{}
	Ready() bool
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithRoutes sets the route groups to mount.
func WithRoutes(set routes.Set) Option {
	return func(s *Server) { s.routes = set }
}

// WithVersion sets the version reported by GET /version.
func WithVersion(version string) Option {
	return func(s *Server) { s.version = version }
}

// WithCheck adds a readiness dependency besides the store.
func WithCheck(name string, checker handlers.Checker) Option {
	return func(s *Server) {
		s.checks = append(s.checks, namedCheck{name: name, checker: checker})
	}
}

// WithTracing instruments routed requests with OpenTelemetry.
func WithTracing(serviceName string) Option {
	return func(s *Server) { s.tracingService = serviceName }
}

type namedCheck struct {
	name    string
	checker handlers.Checker
}

// Server is the HTTP bootstrap: it serves requests from the moment the
// listener is bound, whether or not the store has connected yet.
type Server struct {
	cfg            *config.Config
	store          Storage
	logger         *zap.Logger
	routes         routes.Set
	version        string
	checks         []namedCheck
	tracingService string
	handler        http.Handler
}

// New assembles the router and middleware chain.
func New(cfg *config.Config, store Storage, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		store:   store,
		logger:  logger,
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.buildHandler()
	return s
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) buildHandler() http.Handler {
	r := mux.NewRouter()

	if s.tracingService != "" {
		r.Use(telemetry.Middleware(s.tracingService))
		s.logger.Info("otel_middleware_enabled")
	}

	health := handlers.NewHealthChecker(s.version).WithCheck("database", s.store)
	for _, c := range s.checks {
		health.WithCheck(c.name, c.checker)
	}
	health.RegisterRoutes(r)
	handlers.NewOpenAPIHandler(openapi.Document).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	routes.Mount(r, s.routes, s.logger)

	return middleware.Chain(r,
		middleware.RequestID,
		middleware.Metrics,
		middleware.Logging(s.logger),
		middleware.ErrorHandler(s.logger),
		middleware.SecurityHeaders(s.cfg.EnableHSTS),
		middleware.CORS(s.cfg.CORS, s.logger),
		middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, s.logger),
		middleware.JSONBody(s.cfg.JSONBodyLimit, s.logger),
		middleware.Timeout(s.cfg.RequestTimeout),
	)
}

// Run binds cfg.Addr() and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("server_starting", zap.String("addr", s.cfg.Addr()))

	ln, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve starts the store connector in the background and serves on ln.
// The store outcome never affects serving. On ctx cancellation the server
// drains in-flight requests and disconnects the store.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	storeCtx, cancelStore := context.WithCancel(ctx)
	defer cancelStore()
	go s.store.Start(storeCtx)

	srv := &http.Server{
		Handler:        s.handler,
		ReadTimeout:    readTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    idleTimeout,
		MaxHeaderBytes: maxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	s.logger.Info("server_listening", zap.String("addr", ln.Addr().String()))

	select {
	case err := <-serveErr:
		cancelStore()
		s.closeStore()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server_shutting_down")
	cancelStore()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	s.closeStore()
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	s.logger.Info("server_exited")
	return nil
}

// closeStore waits for the connector to give up before disconnecting so a
// late successful attempt cannot leak a client.
func (s *Server) closeStore() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	select {
	case <-s.store.Done():
	case <-ctx.Done():
	}
	if err := s.store.Close(ctx); err != nil {
		s.logger.Warn("failed_to_close_database_connection",
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

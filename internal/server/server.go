// Package server exposes a pageviews repository over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/discochess/pageviews/internal/stats"
)

const (
	defaultAddr        = ":8080"
	readHeaderTimeout  = 5 * time.Second
	defaultIdleTimeout = 60 * time.Second
)

// Server serves the pageview endpoints.
type Server struct {
	repo      Repository
	router    *mux.Router
	http      *http.Server
	logger    *zap.Logger
	collector stats.Collector
	metrics   http.Handler

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithStats sets the collector that receives request metrics.
func WithStats(c stats.Collector) Option {
	return func(s *Server) {
		s.collector = c
	}
}

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates a server for repo listening on addr.
func New(addr string, repo Repository, opts ...Option) *Server {
	if addr == "" {
		addr = defaultAddr
	}
	s := &Server{
		repo:      repo,
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = mux.NewRouter()
	s.setupRoutes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(loggingMiddleware(s.logger, s.collector))

	s.router.HandleFunc("/track", TrackHandler(s.repo, s.logger)).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/pages", PageHandler(s.repo, s.logger)).Methods(http.MethodGet)
	s.router.HandleFunc("/pages/all", ListHandler(s.repo, s.logger)).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", HealthHandler(s.repo, s.logger)).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listen address and serves in the background.
// It returns once the listener is bound.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("server: already started")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.http.Addr, err)
	}
	s.listener = ln
	s.done = make(chan struct{})

	s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
	go func() {
		defer close(s.done)
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.http.Addr
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.logger.Info("http server stopped")
	return nil
}

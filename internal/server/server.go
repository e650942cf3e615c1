// Package server exposes bees optimization jobs on benchmark functions over
// a REST API and a JSON-RPC 2.0 endpoint.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/heng-zhai/MSc-project/internal/config"
	"github.com/heng-zhai/MSc-project/internal/logging"
	"github.com/heng-zhai/MSc-project/internal/metrics"
	"github.com/heng-zhai/MSc-project/internal/optimization/benchmarks"
)

// Logger defines the logging interface used by the server
// This allows us to be flexible with our logging implementation
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

var (
	// ErrNotFound is returned for an unknown optimization id.
	ErrNotFound = errors.New("optimization not found")
	// ErrRateLimited is returned when job starts arrive faster than the
	// configured admission rate.
	ErrRateLimited = errors.New("too many optimization requests")
	// ErrFinished is returned when cancelling a job that already ended.
	ErrFinished = errors.New("optimization already finished")
	// ErrClosed is returned when starting a job on a closed server.
	ErrClosed = errors.New("server is shutting down")
)

// Option customises a Server.
type Option func(*Server)

// WithMetrics records job and optimizer activity in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithCatalog sets the catalog used for suggested bounds and known optima.
func WithCatalog(c *benchmarks.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// WithZapLogger sets the logger handed to every optimizer.
func WithZapLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.zap = l
	}
}

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg     *config.Config
	logger  Logger
	zap     *zap.Logger
	metrics *metrics.Metrics
	catalog *benchmarks.Catalog

	// workers bounds running jobs; limiter bounds how fast jobs are admitted.
	workers *semaphore.Weighted
	limiter *rate.Limiter

	seq    atomic.Uint64
	jobs   sync.WaitGroup
	closed atomic.Bool

	// Optimization state management
	optimizations   map[string]*OptimizationState
	optimizationsMu sync.RWMutex // Protects the optimizations map and every state in it
}

// NewServer creates a new server instance with the given config and logger
// The logger parameter accepts any type that implements the Logger interface
func NewServer(cfg *config.Config, logger Logger, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		zap:           zap.NewNop(),
		workers:       semaphore.NewWeighted(int64(max(cfg.Optimization.WorkerCount, 1))),
		limiter:       rate.NewLimiter(rate.Limit(cfg.Optimization.StartRate), max(cfg.Optimization.StartBurst, 1)),
		optimizations: make(map[string]*OptimizationState),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.catalog == nil {
		catalog, err := benchmarks.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("loading benchmark catalog: %w", err)
		}
		s.catalog = catalog
	}
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s, nil
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/functions", s.handleFunctions)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Close cancels every job and waits for their goroutines to return, or for
// ctx to expire.
func (s *Server) Close(ctx context.Context) error {
	s.optimizationsMu.Lock()
	s.closed.Store(true)
	for _, opt := range s.optimizations {
		if opt.cancel != nil {
			opt.cancel()
		}
	}
	s.optimizationsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for optimization jobs: %w", ctx.Err())
	}
}

func (s *Server) newID() string {
	return fmt.Sprintf("opt_%d_%d", time.Now().Unix(), s.seq.Add(1))
}

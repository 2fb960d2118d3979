package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benvon/bobbys-store/internal/config"
	logpkg "github.com/benvon/bobbys-store/internal/logger"
	"github.com/benvon/bobbys-store/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ErrNotReady is returned while the background connection has not succeeded.
var ErrNotReady = errors.New("database connection not ready")

// DialFunc opens and verifies a client for uri.
type DialFunc func(ctx context.Context, uri string) (*mongo.Client, error)

// Dial connects to MongoDB and pings the primary.
func Dial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// Store owns the long-lived document store client. The connection is
// established in the background by Start; until it succeeds every accessor
// returns ErrNotReady.
type Store struct {
	cfg        config.MongoConfig
	logger     *zap.Logger
	dial       DialFunc
	newBackOff func() backoff.BackOff

	mu      sync.RWMutex
	client  *mongo.Client
	lastErr error

	ready   atomic.Bool
	started atomic.Bool
	done    chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithDialer replaces the MongoDB dialer.
func WithDialer(dial DialFunc) Option {
	return func(s *Store) { s.dial = dial }
}

// WithBackOff replaces the retry schedule.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *Store) { s.newBackOff = newBackOff }
}

// NewStore creates an unconnected store.
func NewStore(cfg config.MongoConfig, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		cfg:    cfg,
		logger: logger,
		dial:   Dial,
		done:   make(chan struct{}),
	}
	s.newBackOff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = time.Second
		b.MaxInterval = cfg.RetryMaxInterval
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start connects with bounded exponential backoff and returns when the
// store is ready, the retry budget is spent, or ctx is cancelled. Failures
// are logged, never fatal. Only the first call does anything.
func (s *Store) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	defer close(s.done)

	attempt := 0
	connect := func() error {
		attempt++
		attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
		defer cancel()

		client, err := s.dial(attemptCtx, s.cfg.URI)
		if err != nil {
			metrics.StorageConnectAttempts.WithLabelValues("failure").Inc()
			s.setErr(err)
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		metrics.StorageConnectAttempts.WithLabelValues("success").Inc()
		s.mu.Lock()
		s.client = client
		s.lastErr = nil
		s.mu.Unlock()
		s.ready.Store(true)
		metrics.StorageReady.Set(1)
		return nil
	}

	notify := func(err error, delay time.Duration) {
		s.logger.Warn("failed_to_connect_to_database_retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", s.cfg.MaxRetries),
			zap.String("error", logpkg.SanitizeError(err)),
			zap.Duration("retry_delay", delay),
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(s.newBackOff(), uint64(s.cfg.MaxRetries)), ctx)
	if err := backoff.RetryNotify(connect, policy, notify); err != nil {
		s.logger.Error("failed_to_connect_to_database",
			zap.Int("attempts", attempt),
			zap.String("uri", config.RedactURI(s.cfg.URI)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return
	}

	s.logger.Info("connected_to_database",
		zap.Int("attempts", attempt),
		zap.String("database", s.cfg.Database),
	)
}

func (s *Store) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

// Done is closed once Start has returned.
func (s *Store) Done() <-chan struct{} {
	return s.done
}

// Ready reports whether a connection has been established.
func (s *Store) Ready() bool {
	return s.ready.Load()
}

// Err returns the most recent connection error, if any.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Client returns the shared driver client.
func (s *Store) Client() (*mongo.Client, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrNotReady
	}
	return s.client, nil
}

// Database returns the configured database handle.
func (s *Store) Database() (*mongo.Database, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	return client.Database(s.cfg.Database), nil
}

// Collection returns a collection of the configured database.
func (s *Store) Collection(name string) (*mongo.Collection, error) {
	db, err := s.Database()
	if err != nil {
		return nil, err
	}
	return db.Collection(name), nil
}

// Ping checks the live connection.
func (s *Store) Ping(ctx context.Context) error {
	client, err := s.Client()
	if err != nil {
		if last := s.Err(); last != nil {
			return fmt.Errorf("%w: %v", ErrNotReady, last)
		}
		return err
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client if one was established.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	client := s.client
	s.client = nil
	s.mu.Unlock()

	s.ready.Store(false)
	metrics.StorageReady.Set(0)

	if client == nil {
		return nil
	}
	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

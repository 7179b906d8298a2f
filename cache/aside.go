package cache

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/goliatone/go-datamapper/errs"
	"go.uber.org/zap"
)

// Aside fronts the first backend that could be constructed from an ordered
// candidate list. With no backend every operation fails with errs.ErrNoBackend,
// which callers treat as "cache unavailable".
type Aside struct {
	backend Backend
	name    string
	logger  *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// Option configures an Aside.
type Option func(*Aside)

// WithLogger sets the logger used for candidate failures.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aside) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAside tries each candidate in order and keeps the first that constructs.
// Construction failures are logged and swallowed.
func NewAside(ctx context.Context, candidates []Candidate, opts ...Option) *Aside {
	a := &Aside{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}

	for _, candidate := range candidates {
		if candidate.New == nil {
			continue
		}
		backend, err := candidate.New(ctx)
		if err != nil {
			a.logger.Debug("unable to load cache backend",
				zap.String("backend", candidate.Name),
				zap.Error(err),
			)
			continue
		}
		a.backend = backend
		a.name = candidate.Name
		a.logger.Info("cache backend selected", zap.String("backend", candidate.Name))
		break
	}

	if a.backend == nil {
		a.logger.Warn("no cache backend available")
	}
	return a
}

// NewAsideWithBackend wraps an already constructed backend.
func NewAsideWithBackend(name string, backend Backend, opts ...Option) *Aside {
	return NewAside(context.Background(), []Candidate{{
		Name: name,
		New:  func(context.Context) (Backend, error) { return backend, nil },
	}}, opts...)
}

// Active returns the selected backend name, or "" if none.
func (a *Aside) Active() string {
	if a == nil {
		return ""
	}
	return a.name
}

// Available reports whether a backend was selected.
func (a *Aside) Available() bool {
	return a != nil && a.backend != nil
}

// Fetch returns the bytes cached under key.
func (a *Aside) Fetch(ctx context.Context, key string) ([]byte, error) {
	if !a.Available() {
		return nil, errs.NoBackend()
	}
	return a.backend.Fetch(ctx, key)
}

// Store caches value under key for ttl.
func (a *Aside) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !a.Available() {
		return errs.NoBackend()
	}
	return a.backend.Store(ctx, key, value, ttl)
}

// Flush removes key. A key that is not cached is not an error.
func (a *Aside) Flush(ctx context.Context, key string) error {
	if !a.Available() {
		return errs.NoBackend()
	}
	if err := a.backend.Flush(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Close releases the active backend when it holds resources, such as the
// redis connection pool. Later calls return the first result.
func (a *Aside) Close() error {
	if !a.Available() {
		return nil
	}
	a.closeOnce.Do(func() {
		if closer, ok := a.backend.(io.Closer); ok {
			a.closeErr = closer.Close()
		}
	})
	return a.closeErr
}

// Keys lists the keys visible through the active backend.
func (a *Aside) Keys(ctx context.Context) ([]string, error) {
	if !a.Available() {
		return nil, errs.NoBackend()
	}
	return a.backend.Keys(ctx)
}

// FetchValue decodes the payload cached under key into dest.
func (a *Aside) FetchValue(ctx context.Context, key string, dest any) error {
	data, err := a.Fetch(ctx, key)
	if err != nil {
		return err
	}
	return Decode(data, dest)
}

// StoreValue encodes v and caches it under key.
func (a *Aside) StoreValue(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	return a.Store(ctx, key, data, ttl)
}

// FetchFn loads a value from the source of truth on a cache miss.
type FetchFn[T any] func(ctx context.Context) (T, error)

// GetOrFetch reads key through the cache. On a miss, or any cache failure,
// fetchFn is called and a successful result is cached for ttl. Cache failures
// never reach the caller; fetchFn errors do.
func GetOrFetch[T any](ctx context.Context, a *Aside, key string, ttl time.Duration, fetchFn FetchFn[T]) (T, error) {
	var cached T
	err := a.FetchValue(ctx, key, &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrNotFound) {
		a.logFailure("fetch", key, err)
	}

	result, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := a.StoreValue(ctx, key, result, ttl); err != nil {
		a.logFailure("store", key, err)
	}
	return result, nil
}

func (a *Aside) logFailure(op, key string, err error) {
	if a == nil {
		return
	}
	a.logger.Debug("cache "+op+" failed", zap.String("key", key), zap.Error(err))
}

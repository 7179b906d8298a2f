package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-datamapper/internal/cacheinfra"
	"github.com/google/uuid"
)

// Cache lifetimes used by the data mapping layer.
const (
	TTLShort      = 60 * time.Second
	TTLLong       = time.Hour
	TTLPersistent = time.Duration(0)
)

// ErrNotFound is returned by a Backend when a key is absent or has expired.
var ErrNotFound = cacheinfra.ErrNotFound

// ErrNoSession is returned by the session backend when the context has no session.
var ErrNoSession = cacheinfra.ErrNoSession

// Backend is a byte-oriented cache with per-entry TTL. A zero TTL never expires.
type Backend interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
	Store(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Flush(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Candidate is one entry of the ordered backend list tried by NewAside.
type Candidate struct {
	Name string
	New  func(ctx context.Context) (Backend, error)
}

// Sessions is the registry of session-scoped cache maps.
type Sessions = cacheinfra.Sessions

// NewSessions creates an empty session registry.
func NewSessions() *Sessions {
	return cacheinfra.NewSessions()
}

// WithSession binds the caller's session identifier to ctx. Private keys and
// the session backend both read it from there.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return cacheinfra.WithSession(ctx, sessionID)
}

// SessionFromContext returns the identifier bound by WithSession.
func SessionFromContext(ctx context.Context) (string, bool) {
	return cacheinfra.SessionFromContext(ctx)
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// RedisCandidate connects to the networked key-value service.
func RedisCandidate(cfg RedisConfig) Candidate {
	return Candidate{
		Name: BackendRedis,
		New: func(ctx context.Context) (Backend, error) {
			backend, err := cacheinfra.NewRedisBackend(ctx, cfg.toInternal())
			if err != nil {
				return nil, err
			}
			return backend, nil
		},
	}
}

// SessionCandidate stores entries in the caller's session map.
func SessionCandidate(sessions *Sessions) Candidate {
	return Candidate{
		Name: BackendSession,
		New: func(ctx context.Context) (Backend, error) {
			backend, err := cacheinfra.NewSessionBackend(sessions)
			if err != nil {
				return nil, err
			}
			return backend, nil
		},
	}
}

// LocalCandidate keeps entries in a process-local sturdyc client.
func LocalCandidate(cfg LocalConfig) Candidate {
	return Candidate{
		Name: BackendLocal,
		New: func(ctx context.Context) (Backend, error) {
			backend, err := cacheinfra.NewLocalBackend(cfg.toInternal())
			if err != nil {
				return nil, err
			}
			return backend, nil
		},
	}
}

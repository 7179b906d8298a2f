package cacheinfra

import (
	"context"
	"errors"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type sessionEntry struct {
	value  []byte
	expire time.Time
}

type sessionBucket = xsync.MapOf[string, sessionEntry]

// Sessions is the process-wide registry of per-session cache maps. The
// surrounding session layer owns the identifiers; this only holds the data.
type Sessions struct {
	buckets *xsync.MapOf[string, *sessionBucket]
}

// NewSessions creates an empty registry.
func NewSessions() *Sessions {
	return &Sessions{buckets: xsync.NewMapOf[string, *sessionBucket]()}
}

func (s *Sessions) bucket(sessionID string) *sessionBucket {
	b, _ := s.buckets.LoadOrCompute(sessionID, func() *sessionBucket {
		return xsync.NewMapOf[string, sessionEntry]()
	})
	return b
}

// Destroy drops everything cached for sessionID.
func (s *Sessions) Destroy(sessionID string) {
	s.buckets.Delete(sessionID)
}

// Len reports the number of sessions holding a cache map.
func (s *Sessions) Len() int {
	return s.buckets.Size()
}

// SessionBackend stores entries in the map of the session found in the
// request context. TTL is emulated with an expiry stamp pruned on Fetch.
type SessionBackend struct {
	sessions *Sessions
	now      func() time.Time
}

// NewSessionBackend fails when no session registry is available.
func NewSessionBackend(sessions *Sessions) (*SessionBackend, error) {
	if sessions == nil {
		return nil, errors.New("session support is required")
	}
	return &SessionBackend{sessions: sessions, now: time.Now}, nil
}

func (b *SessionBackend) current(ctx context.Context) (*sessionBucket, error) {
	sid, ok := SessionFromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return b.sessions.bucket(sid), nil
}

// Fetch returns the payload stored under key, flushing it if it has expired.
func (b *SessionBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	bucket, err := b.current(ctx)
	if err != nil {
		return nil, err
	}

	entry, ok := bucket.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	if entry.expire.IsZero() || entry.expire.After(b.now()) {
		return entry.value, nil
	}

	bucket.Delete(key)
	return nil, ErrNotFound
}

// Store saves value under key. A zero ttl never expires.
func (b *SessionBackend) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	bucket, err := b.current(ctx)
	if err != nil {
		return err
	}

	entry := sessionEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expire = b.now().Add(ttl)
	}
	bucket.Store(key, entry)
	return nil
}

// Flush removes key, failing with ErrNotFound when it is not cached.
func (b *SessionBackend) Flush(ctx context.Context, key string) error {
	bucket, err := b.current(ctx)
	if err != nil {
		return err
	}

	if _, loaded := bucket.LoadAndDelete(key); !loaded {
		return ErrNotFound
	}
	return nil
}

// Keys lists the keys cached for the current session, expired ones included.
func (b *SessionBackend) Keys(ctx context.Context) ([]string, error) {
	bucket, err := b.current(ctx)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, bucket.Size())
	bucket.Range(func(key string, _ sessionEntry) bool {
		keys = append(keys, key)
		return true
	})
	return keys, nil
}

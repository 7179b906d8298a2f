package cacheinfra

import (
	"context"
	"time"

	"github.com/viccon/sturdyc"
)

// localEntry pairs the payload with its own expiry; sturdyc only knows the
// client-wide TTL.
type localEntry struct {
	value  []byte
	expire time.Time
}

// LocalBackend keeps entries in a sharded in-process sturdyc client.
type LocalBackend struct {
	client *sturdyc.Client[localEntry]
	now    func() time.Time
}

// NewLocalBackend validates cfg and creates the sturdyc client.
func NewLocalBackend(cfg LocalConfig) (*LocalBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[localEntry](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &LocalBackend{client: client, now: time.Now}, nil
}

// Fetch returns the payload stored under key.
func (b *LocalBackend) Fetch(ctx context.Context, key string) ([]byte, error) {
	entry, ok := b.client.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	if !entry.expire.IsZero() && !entry.expire.After(b.now()) {
		b.client.Delete(key)
		return nil, ErrNotFound
	}
	return entry.value, nil
}

// Store saves value under key. A zero ttl keeps the entry until sturdyc evicts it.
func (b *LocalBackend) Store(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := localEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		entry.expire = b.now().Add(ttl)
	}
	b.client.Set(key, entry)
	return nil
}

// Flush removes key, failing with ErrNotFound when it is not cached.
func (b *LocalBackend) Flush(ctx context.Context, key string) error {
	if _, ok := b.client.Get(key); !ok {
		return ErrNotFound
	}
	b.client.Delete(key)
	return nil
}

// Keys lists every key currently held by the client.
func (b *LocalBackend) Keys(ctx context.Context) ([]string, error) {
	return b.client.ScanKeys(), nil
}

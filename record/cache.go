package record

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/schema"
	"go.uber.org/zap"
)

// lookupID is the identifier a unique lookup is cached under within its
// type: the value itself for ID, "{field}_{value}" for other unique fields.
func lookupID(field string, value any) string {
	if field == schema.IDField {
		return cache.FormatKeyValue(value)
	}
	return field + cache.KeySeparator + cache.FormatKeyValue(value)
}

// cacheKey returns false when the entity may not be cached, which is the
// case for private types without a session in ctx.
func (m *Mapper) cacheKey(ctx context.Context, e *Entity, id string) (string, bool) {
	if !m.aside.Available() {
		return "", false
	}
	return m.keys.BuildKey(ctx, e.typ.Name, id, e.typ.scope())
}

// loadCached fills e from the cache. A payload that does not carry exactly
// the declared fields counts as a miss.
func (m *Mapper) loadCached(ctx context.Context, e *Entity, id string) bool {
	key, ok := m.cacheKey(ctx, e, id)
	if !ok {
		return false
	}

	var snapshot map[string]any
	if err := m.aside.FetchValue(ctx, key, &snapshot); err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			m.logger.Debug("cache fetch failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := e.attrs.load(snapshot); err != nil {
		m.logger.Debug("ignoring malformed cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// uniqueLookupIDs lists the lookup identifiers of every unique field with a
// value, ID first.
func (m *Mapper) uniqueLookupIDs(e *Entity) []string {
	if e.ID() == 0 {
		return nil
	}

	var ids []string
	for _, f := range e.desc.UniqueFields() {
		v := e.attrs.values[f.Name]
		if v == nil {
			continue
		}
		ids = append(ids, lookupID(f.Name, v))
	}
	return ids
}

func (m *Mapper) seedUniqueKeys(ctx context.Context, e *Entity, ttl time.Duration) {
	m.storeSnapshot(ctx, e, m.uniqueLookupIDs(e), ttl)
}

func (m *Mapper) cacheByID(ctx context.Context, e *Entity, ttl time.Duration) {
	if e.ID() == 0 {
		return
	}
	m.storeSnapshot(ctx, e, []string{lookupID(schema.IDField, e.ID())}, ttl)
}

// storeSnapshot encodes the snapshot once and stores the same bytes under
// every id.
func (m *Mapper) storeSnapshot(ctx context.Context, e *Entity, ids []string, ttl time.Duration) {
	if len(ids) == 0 || !m.aside.Available() {
		return
	}

	data, err := cache.Encode(e.attrs.values)
	if err != nil {
		m.logger.Debug("cache encode failed", zap.String("type", e.typ.Name), zap.Error(err))
		return
	}

	for _, id := range ids {
		key, ok := m.cacheKey(ctx, e, id)
		if !ok {
			return
		}
		if err := m.aside.Store(ctx, key, data, ttl); err != nil {
			m.logger.Debug("cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
}

func (m *Mapper) flushLookupIDs(ctx context.Context, e *Entity, ids []string) {
	for _, id := range ids {
		key, ok := m.cacheKey(ctx, e, id)
		if !ok {
			return
		}
		if err := m.aside.Flush(ctx, key); err != nil {
			m.logger.Debug("cache flush failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Package cache provides the cache-aside layer used by the data mapper.
//
// # Overview
//
// This package exports:
//
//   - Backend: a byte-oriented cache with per-entry TTL
//   - Aside: selects the first working Backend from an ordered candidate list
//   - KeyBuilder: composes namespaced, scope-aware backend keys
//   - Encode/Decode: the msgpack payload codec
//
// Three backends are available as candidates: "redis" (networked, native TTL),
// "session" (the caller's session map, TTL emulated and pruned on read) and
// "local" (a process-local sturdyc client).
//
// # Basic Usage
//
//	sessions := cache.NewSessions()
//	aside := cache.NewAside(ctx, []cache.Candidate{
//		cache.RedisCandidate(cfg.Redis),
//		cache.SessionCandidate(sessions),
//	}, cache.WithLogger(logger))
//
//	ctx = cache.WithSession(ctx, sessionID)
//	keys := cache.NewKeyBuilder("craft")
//	key, ok := keys.BuildKey(ctx, "Category", "1", cache.ScopePublic)
//
// A candidate whose constructor fails, for example because Redis is not
// reachable, is skipped. If every candidate fails the Aside still exists but
// all operations return errs.ErrNoBackend; callers are expected to fall back
// to the store.
//
// # Key Layout
//
// Public keys read "{namespace}_{type}_{id}_public". Private keys replace the
// identifier with hashes of the identifier and of the session, so values
// projected for one session are never served to another. The namespace
// segment is omitted when empty.
//
// # Read-through helper
//
// GetOrFetch reads a typed value through the cache and loads it from the
// source of truth on a miss:
//
//	desc, err := cache.GetOrFetch(ctx, aside, key, cache.TTLPersistent,
//		func(ctx context.Context) (schema.Descriptor, error) {
//			return loadFromStore(ctx)
//		})
//
// Cache failures are logged at debug level and never returned.
package cache

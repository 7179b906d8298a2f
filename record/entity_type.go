package record

import (
	"context"
	"time"

	"github.com/goliatone/go-datamapper/cache"
)

// PostCreateFunc runs after an entity was loaded from the store by a unique
// key lookup. It is not called on cache hits.
type PostCreateFunc func(ctx context.Context, e *Entity)

// EntityType registers the cache policy of one kind of entity.
type EntityType struct {
	Name string
	// Relation defaults to the mapper's relation namer applied to Name.
	Relation string
	// Public entities are cached under shared keys. Others are private to
	// the caller's session and are not cached without one.
	Public bool
	// CacheTTL is the lifetime of entries seeded after a store read. Zero
	// never expires.
	CacheTTL time.Duration
	// PostCreate replaces the default hook, which caches the entity under
	// every unique key with CacheTTL.
	PostCreate PostCreateFunc
}

func (t EntityType) scope() cache.Scope {
	if t.Public {
		return cache.ScopePublic
	}
	return cache.ScopePrivate
}

// defaultEntityType is the policy of a type that was never registered.
func defaultEntityType(name string) EntityType {
	return EntityType{Name: name, CacheTTL: cache.TTLLong}
}

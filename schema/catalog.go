package schema

import (
	"context"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/store"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// KeysID is the cache identifier a type's descriptor is stored under.
const KeysID = "keys"

// Catalog loads descriptors once per entity type. Lookups go through an
// in-process memo, then the cache, then store introspection; descriptors
// are cached with no expiry since schemas are assumed stable.
type Catalog struct {
	store  store.Store
	aside  *cache.Aside
	keys   cache.KeyBuilder
	memo   *xsync.MapOf[string, *Descriptor]
	logger *zap.Logger
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLogger sets the catalog logger.
func WithLogger(logger *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCatalog creates a catalog. aside may be nil or have no backend, in
// which case every miss goes to the store.
func NewCatalog(st store.Store, aside *cache.Aside, keys cache.KeyBuilder, opts ...CatalogOption) *Catalog {
	if keys == nil {
		keys = cache.NewKeyBuilder("")
	}
	c := &Catalog{
		store:  st,
		aside:  aside,
		keys:   keys,
		memo:   xsync.NewMapOf[string, *Descriptor](),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Describe returns the descriptor of entityType, whose rows live in relation.
func (c *Catalog) Describe(ctx context.Context, entityType, relation string) (*Descriptor, error) {
	if d, ok := c.memo.Load(entityType); ok {
		return d, nil
	}
	if c.store == nil {
		return nil, errs.Configuration("no store configured to describe %s", entityType)
	}

	load := func(ctx context.Context) (Descriptor, error) {
		columns, err := c.store.Columns(ctx, relation)
		if err != nil {
			return Descriptor{}, errs.Schema(entityType, err)
		}
		d, err := FromColumns(entityType, relation, columns)
		if err != nil {
			return Descriptor{}, err
		}
		c.logger.Debug("schema loaded from store",
			zap.String("type", entityType),
			zap.String("relation", relation),
			zap.Int("fields", len(d.Fields)),
		)
		return *d, nil
	}

	key, _ := c.keys.BuildKey(ctx, entityType, KeysID, cache.ScopePublic)
	d, err := cache.GetOrFetch(ctx, c.aside, key, cache.TTLPersistent, load)
	if err != nil {
		return nil, err
	}

	// a cached payload written for another relation or by an older layout
	if d.Relation != relation || d.validate() != nil {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.aside.StoreValue(ctx, key, fresh, cache.TTLPersistent); err != nil {
			c.logger.Debug("cache store failed", zap.String("key", key), zap.Error(err))
		}
		d = fresh
	}

	actual, _ := c.memo.LoadOrStore(entityType, &d)
	return actual, nil
}

// Forget drops the memoized and cached descriptor of entityType so the next
// Describe reads the store again.
func (c *Catalog) Forget(ctx context.Context, entityType string) error {
	c.memo.Delete(entityType)
	key, _ := c.keys.BuildKey(ctx, entityType, KeysID, cache.ScopePublic)
	if !c.aside.Available() {
		return nil
	}
	return c.aside.Flush(ctx, key)
}

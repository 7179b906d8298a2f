package di

import (
	"context"
	"errors"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/config"
	"github.com/goliatone/go-datamapper/crafting"
	"github.com/goliatone/go-datamapper/record"
	"github.com/goliatone/go-datamapper/schema"
	"github.com/goliatone/go-datamapper/store"
	"github.com/goliatone/go-datamapper/store/sqlstore"
	"go.uber.org/zap"
)

// Container wires the data mapping stack for one process: a store, the
// session registry, the cache-aside front, the schema catalog and the mapper
// with the crafting site's entity types registered.
type Container struct {
	config   config.Config
	logger   *zap.Logger
	store    store.Store
	closer   func() error
	sessions *cache.Sessions
	backends []cache.Candidate
	keys     cache.KeyBuilder
	aside    *cache.Aside
	catalog  *schema.Catalog
	mapper   *record.Mapper
}

// Option customises a Container before it is wired.
type Option func(*Container)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithStore uses st instead of opening the configured store. The container
// does not close it.
func WithStore(st store.Store) Option {
	return func(c *Container) {
		c.store = st
	}
}

// WithSessions shares an existing session registry.
func WithSessions(sessions *cache.Sessions) Option {
	return func(c *Container) {
		if sessions != nil {
			c.sessions = sessions
		}
	}
}

// WithCacheCandidates replaces the backends named in the configuration. The
// container closes the backend it selects.
func WithCacheCandidates(candidates ...cache.Candidate) Option {
	return func(c *Container) {
		c.backends = candidates
	}
}

// NewContainer builds the stack described by cfg. The cache falls back
// through the configured backends; having none is not an error.
func NewContainer(ctx context.Context, cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		config:   cfg,
		logger:   zap.NewNop(),
		sessions: cache.NewSessions(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		st, err := sqlstore.Open(cfg.Store.Driver, cfg.Store.DSN, sqlstore.WithLogger(c.logger.Named("store")))
		if err != nil {
			return nil, err
		}
		c.store = st
		c.closer = st.Close
	}

	cacheCfg := cfg.Cache.Options()
	if c.backends != nil {
		c.aside = cache.NewAside(ctx, c.backends, cache.WithLogger(c.logger.Named("cache")))
	} else {
		aside, err := cache.NewAsideFromConfig(ctx, cacheCfg, c.sessions, cache.WithLogger(c.logger.Named("cache")))
		if err != nil {
			c.Close()
			return nil, err
		}
		c.aside = aside
	}
	c.keys = cache.NewKeyBuilder(cacheCfg.Namespace)
	c.catalog = schema.NewCatalog(c.store, c.aside, c.keys, schema.WithLogger(c.logger.Named("schema")))

	namer := record.SameRelations
	if cfg.RelationNaming == config.NamingPlural {
		namer = record.PluralRelations
	}

	c.mapper = record.NewMapper(c.store, c.aside,
		record.WithLogger(c.logger.Named("record")),
		record.WithKeyBuilder(c.keys),
		record.WithCatalog(c.catalog),
		record.WithRelationNamer(namer),
		record.WithReleaseTTL(cacheCfg.ShortTTL),
	)
	if err := crafting.Register(c.mapper, cacheCfg.ShortTTL, cacheCfg.LongTTL); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

// NewContainerWithDefaults loads the configuration from the environment and
// builds the stack.
func NewContainerWithDefaults(ctx context.Context, opts ...Option) (*Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewContainer(ctx, cfg, opts...)
}

// Config returns the configuration the container was built from.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the shared logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Store returns the relational store.
func (c *Container) Store() store.Store {
	return c.store
}

// Sessions returns the registry backing the session cache backend.
func (c *Container) Sessions() *cache.Sessions {
	return c.sessions
}

// Aside returns the cache-aside front.
func (c *Container) Aside() *cache.Aside {
	return c.aside
}

// KeyBuilder returns the namespaced cache key builder.
func (c *Container) KeyBuilder() cache.KeyBuilder {
	return c.keys
}

// Catalog returns the schema catalog.
func (c *Container) Catalog() *schema.Catalog {
	return c.catalog
}

// Mapper returns the entity mapper.
func (c *Container) Mapper() *record.Mapper {
	return c.mapper
}

// Close releases the cache backend, then the store when the container
// opened it.
func (c *Container) Close() error {
	var err error
	if c.aside != nil {
		err = c.aside.Close()
	}
	if c.closer != nil {
		closer := c.closer
		c.closer = nil
		err = errors.Join(err, closer())
	}
	return err
}

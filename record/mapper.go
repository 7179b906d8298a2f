// Package record is the active-record layer: entities whose fields come from
// the store's schema, read through a cache-aside lookup and written back with
// prepared statements.
package record

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/schema"
	"github.com/goliatone/go-datamapper/store"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
)

// Mapper creates, looks up and persists entities. It is safe for concurrent
// use; the entities it returns are not.
type Mapper struct {
	store      store.Store
	aside      *cache.Aside
	keys       cache.KeyBuilder
	catalog    *schema.Catalog
	types      *xsync.MapOf[string, EntityType]
	namer      RelationNamer
	releaseTTL time.Duration
	logger     *zap.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Mapper) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithKeyBuilder sets the cache key builder. The default has no namespace.
func WithKeyBuilder(keys cache.KeyBuilder) Option {
	return func(m *Mapper) {
		if keys != nil {
			m.keys = keys
		}
	}
}

// WithCatalog shares a schema catalog. By default the mapper builds its own
// from its store, cache and key builder.
func WithCatalog(catalog *schema.Catalog) Option {
	return func(m *Mapper) {
		m.catalog = catalog
	}
}

// WithRelationNamer sets how relation names are derived for types that do
// not name one. The default is SameRelations.
func WithRelationNamer(namer RelationNamer) Option {
	return func(m *Mapper) {
		if namer != nil {
			m.namer = namer
		}
	}
}

// WithReleaseTTL sets the lifetime of entries cached by Release.
func WithReleaseTTL(ttl time.Duration) Option {
	return func(m *Mapper) {
		m.releaseTTL = ttl
	}
}

// NewMapper creates a mapper. aside may be nil or have no backend; every
// lookup then goes to the store.
func NewMapper(st store.Store, aside *cache.Aside, opts ...Option) *Mapper {
	m := &Mapper{
		store:      st,
		aside:      aside,
		keys:       cache.NewKeyBuilder(""),
		types:      xsync.NewMapOf[string, EntityType](),
		namer:      SameRelations,
		releaseTTL: cache.TTLShort,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.catalog == nil {
		m.catalog = schema.NewCatalog(st, aside, m.keys, schema.WithLogger(m.logger))
	}
	return m
}

// Register sets the cache policy of entity types. A type that is never
// registered is private, cached for cache.TTLLong, and stored in the
// relation the namer derives from its name.
func (m *Mapper) Register(types ...EntityType) error {
	for _, t := range types {
		if strings.TrimSpace(t.Name) == "" {
			return errs.Configuration("entity type without a name")
		}
		m.types.Store(t.Name, t)
	}
	return nil
}

// EntityType returns the effective policy of the named type.
func (m *Mapper) EntityType(name string) EntityType {
	t, ok := m.types.Load(name)
	if !ok {
		t = defaultEntityType(name)
	}
	if t.Relation == "" {
		t.Relation = m.namer(t.Name)
	}
	return t
}

// Types lists the registered types sorted by name.
func (m *Mapper) Types() []EntityType {
	var out []EntityType
	m.types.Range(func(name string, _ EntityType) bool {
		out = append(out, m.EntityType(name))
		return true
	})
	slices.SortFunc(out, func(a, b EntityType) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Catalog returns the schema catalog.
func (m *Mapper) Catalog() *schema.Catalog {
	return m.catalog
}

// Aside returns the cache the mapper reads through.
func (m *Mapper) Aside() *cache.Aside {
	return m.aside
}

// Describe returns the schema of the named type.
func (m *Mapper) Describe(ctx context.Context, entityType string) (*schema.Descriptor, error) {
	t := m.EntityType(entityType)
	return m.catalog.Describe(ctx, t.Name, t.Relation)
}

// CreateNew returns a Transient entity with every field at its default: 0,
// "", 0.0 or nil for blobs. Writes are delayed until Write.
func (m *Mapper) CreateNew(ctx context.Context, entityType string) (*Entity, error) {
	t := m.EntityType(entityType)
	desc, err := m.catalog.Describe(ctx, t.Name, t.Relation)
	if err != nil {
		return nil, err
	}
	return newEntity(m, t, desc), nil
}

// FindUnique loads the entity whose unique field equals value. The cache is
// read first, under value itself for ID and "{field}_{value}" otherwise. On a
// miss one parameterized SELECT runs; no matching row yields errs.ErrNotFound
// and writes nothing to the cache. A row found in the store runs the type's
// post-create hook, which by default caches the entity under every unique key.
func (m *Mapper) FindUnique(ctx context.Context, entityType, field string, value any) (*Entity, error) {
	t := m.EntityType(entityType)
	desc, err := m.catalog.Describe(ctx, t.Name, t.Relation)
	if err != nil {
		return nil, err
	}

	f, ok := desc.Field(field)
	if !ok {
		return nil, errs.UnknownAttribute(t.Name, field)
	}
	if !f.Unique {
		return nil, errs.InvalidKey(t.Name, field)
	}
	v, ok := normalize(f.Bind, value)
	if !ok || v == nil {
		return nil, errs.InvalidValue(t.Name, field, value, string(f.Bind))
	}

	e := newEntity(m, t, desc)
	if !cacheBypassed(ctx) && m.loadCached(ctx, e, lookupID(field, v)) {
		e.state = Clean
		return e, nil
	}

	rows, err := m.selectRows(ctx, t, desc, &f, v)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.NotFound(t.Name, field, cache.FormatKeyValue(v))
	}
	if err := e.attrs.load(rows[0]); err != nil {
		return nil, err
	}
	e.state = Clean

	if t.PostCreate != nil {
		t.PostCreate(ctx, e)
	} else {
		e.CacheUniqueKeys(ctx, t.CacheTTL)
	}
	return e, nil
}

// CreateFromRows converts store rows to Clean entities without touching the
// cache. Every row must carry exactly the declared field set.
func (m *Mapper) CreateFromRows(ctx context.Context, entityType string, rows []map[string]any) ([]*Entity, error) {
	t := m.EntityType(entityType)
	desc, err := m.catalog.Describe(ctx, t.Name, t.Relation)
	if err != nil {
		return nil, err
	}
	return m.fromRows(t, desc, rows)
}

// GetAll loads every row of the type. List queries never use the cache.
func (m *Mapper) GetAll(ctx context.Context, entityType string) ([]*Entity, error) {
	t := m.EntityType(entityType)
	desc, err := m.catalog.Describe(ctx, t.Name, t.Relation)
	if err != nil {
		return nil, err
	}

	rows, err := m.selectRows(ctx, t, desc, nil, nil)
	if err != nil {
		return nil, err
	}
	return m.fromRows(t, desc, rows)
}

// GetAllBy loads every row whose field equals value. The field need not be
// unique. List queries never use the cache.
func (m *Mapper) GetAllBy(ctx context.Context, entityType, field string, value any) ([]*Entity, error) {
	t := m.EntityType(entityType)
	desc, err := m.catalog.Describe(ctx, t.Name, t.Relation)
	if err != nil {
		return nil, err
	}

	f, ok := desc.Field(field)
	if !ok {
		return nil, errs.UnknownAttribute(t.Name, field)
	}
	v, ok := normalize(f.Bind, value)
	if !ok {
		return nil, errs.InvalidValue(t.Name, field, value, string(f.Bind))
	}

	rows, err := m.selectRows(ctx, t, desc, &f, v)
	if err != nil {
		return nil, err
	}
	return m.fromRows(t, desc, rows)
}

// Release re-caches a Clean, persisted entity under its ID key for the
// release TTL. It is meant for callers done with an entity.
func (m *Mapper) Release(ctx context.Context, e *Entity) {
	if e == nil || e.state != Clean || e.ID() == 0 {
		return
	}
	m.cacheByID(ctx, e, m.releaseTTL)
}

func (m *Mapper) fromRows(t EntityType, desc *schema.Descriptor, rows []map[string]any) ([]*Entity, error) {
	out := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		e := newEntity(m, t, desc)
		if err := e.attrs.load(row); err != nil {
			return nil, err
		}
		e.state = Clean
		out = append(out, e)
	}
	return out, nil
}

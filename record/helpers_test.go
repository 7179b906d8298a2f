package record_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/pkg/testsupport"
	"github.com/goliatone/go-datamapper/record"
	"github.com/stretchr/testify/require"
)

const gadgetDDL = `CREATE TABLE "Gadget" (
	"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"Code" VARCHAR(16) UNIQUE,
	"Count" INT(11) NOT NULL DEFAULT 0,
	"Ratio" DOUBLE NOT NULL DEFAULT 0,
	"Notes" TEXT,
	"Payload" BLOB
)`

// memoryBackend is a map-backed cache.Backend that ignores TTLs.
type memoryBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string][]byte)}
}

func (b *memoryBackend) Fetch(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, cache.ErrNotFound
	}
	return slices.Clone(v), nil
}

func (b *memoryBackend) Store(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = slices.Clone(value)
	return nil
}

func (b *memoryBackend) Flush(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[key]; !ok {
		return cache.ErrNotFound
	}
	delete(b.data, key)
	return nil
}

func (b *memoryBackend) Keys(_ context.Context) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (b *memoryBackend) keys() []string {
	keys, _ := b.Keys(context.Background())
	return keys
}

func (b *memoryBackend) get(key string) []byte {
	v, _ := b.Fetch(context.Background(), key)
	return v
}

type fixture struct {
	store   *testsupport.CountingStore
	backend *memoryBackend
	mapper  *record.Mapper
}

// newFixture builds a mapper over a fresh in-memory database holding the
// Widget and Gadget relations. Both types are registered public.
func newFixture(t *testing.T, types ...record.EntityType) *fixture {
	t.Helper()
	st := testsupport.NewCountingStore(testsupport.OpenSQLite(t, testsupport.WidgetDDL, gadgetDDL))
	return newFixtureOn(t, st, types...)
}

// newFixtureOn builds a mapper with an empty cache over an existing store.
func newFixtureOn(t *testing.T, st *testsupport.CountingStore, types ...record.EntityType) *fixture {
	t.Helper()

	if len(types) == 0 {
		types = []record.EntityType{
			{Name: "Widget", Public: true},
			{Name: "Gadget", Public: true},
		}
	}

	backend := newMemoryBackend()
	m := record.NewMapper(st, cache.NewAsideWithBackend("memory", backend))
	require.NoError(t, m.Register(types...))

	return &fixture{store: st, backend: backend, mapper: m}
}

// writeWidget persists a widget and returns it Clean.
func (f *fixture) writeWidget(t *testing.T, name string, price float64) *record.Entity {
	t.Helper()
	ctx := context.Background()

	e, err := f.mapper.CreateNew(ctx, "Widget")
	require.NoError(t, err)
	require.NoError(t, e.Set(ctx, "Name", name))
	require.NoError(t, e.Set(ctx, "Price", price))
	require.NoError(t, e.Write(ctx, true))
	return e
}

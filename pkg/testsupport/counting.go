package testsupport

import (
	"context"
	"strings"

	"github.com/goliatone/go-datamapper/store"
	"github.com/puzpuzpuz/xsync/v3"
)

// CountingStore wraps a store.Store and counts what reaches it: prepared
// statements and executions, keyed by the statement's leading verb, and
// column introspections.
type CountingStore struct {
	store.Store

	prepared *xsync.MapOf[string, *xsync.Counter]
	executed *xsync.MapOf[string, *xsync.Counter]
	columns  *xsync.Counter
}

var _ store.Store = (*CountingStore)(nil)

// NewCountingStore wraps inner.
func NewCountingStore(inner store.Store) *CountingStore {
	return &CountingStore{
		Store:    inner,
		prepared: xsync.NewMapOf[string, *xsync.Counter](),
		executed: xsync.NewMapOf[string, *xsync.Counter](),
		columns:  xsync.NewCounter(),
	}
}

// Columns counts and forwards an introspection.
func (c *CountingStore) Columns(ctx context.Context, relation string) ([]store.Column, error) {
	c.columns.Inc()
	return c.Store.Columns(ctx, relation)
}

// Prepare counts and forwards a statement.
func (c *CountingStore) Prepare(ctx context.Context, query string) (store.Stmt, error) {
	verb := Verb(query)
	inc(c.prepared, verb)

	stmt, err := c.Store.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	return &countingStmt{Stmt: stmt, verb: verb, executed: c.executed}, nil
}

// Prepared returns how many statements with verb were prepared. An empty
// verb counts every statement.
func (c *CountingStore) Prepared(verb string) int64 {
	return total(c.prepared, verb)
}

// Executed returns how many statements with verb ran. An empty verb counts
// every execution.
func (c *CountingStore) Executed(verb string) int64 {
	return total(c.executed, verb)
}

// Calls returns the number of prepared statements plus introspections, the
// total traffic the store saw.
func (c *CountingStore) Calls() int64 {
	return c.Prepared("") + c.columns.Value()
}

// Introspections returns how many times Columns was called.
func (c *CountingStore) Introspections() int64 {
	return c.columns.Value()
}

// Reset zeroes every counter.
func (c *CountingStore) Reset() {
	c.prepared.Clear()
	c.executed.Clear()
	c.columns.Reset()
}

// Verb returns the upper-cased first word of query.
func Verb(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

func inc(counters *xsync.MapOf[string, *xsync.Counter], verb string) {
	counter, _ := counters.LoadOrCompute(verb, func() *xsync.Counter {
		return xsync.NewCounter()
	})
	counter.Inc()
}

func total(counters *xsync.MapOf[string, *xsync.Counter], verb string) int64 {
	if verb != "" {
		counter, ok := counters.Load(strings.ToUpper(verb))
		if !ok {
			return 0
		}
		return counter.Value()
	}

	var sum int64
	counters.Range(func(_ string, counter *xsync.Counter) bool {
		sum += counter.Value()
		return true
	})
	return sum
}

type countingStmt struct {
	store.Stmt
	verb     string
	executed *xsync.MapOf[string, *xsync.Counter]
}

func (s *countingStmt) Exec(ctx context.Context) (store.Result, error) {
	inc(s.executed, s.verb)
	return s.Stmt.Exec(ctx)
}

func (s *countingStmt) Insert(ctx context.Context, idColumn string) (int64, error) {
	inc(s.executed, s.verb)
	return s.Stmt.Insert(ctx, idColumn)
}

func (s *countingStmt) Query(ctx context.Context) ([]store.Row, error) {
	inc(s.executed, s.verb)
	return s.Stmt.Query(ctx)
}

// Package sqlstore implements store.Store on a bun database handle, for
// SQLite and PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-datamapper/store"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	"go.uber.org/zap"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "postgres"
)

// ErrRelationNotFound is returned by Columns when the relation has no columns.
var ErrRelationNotFound = errors.New("sqlstore: relation not found")

// Store is a store.Store backed by *bun.DB.
type Store struct {
	db     *bun.DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for statement tracing at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open connects to dsn with the named driver and picks the matching bun dialect.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	var d schema.Dialect
	switch driver {
	case DriverSQLite, DriverSQLite3:
		d = sqlitedialect.New()
	case DriverPostgres:
		d = pgdialect.New()
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	sqldb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", driver, err)
	}
	if isMemoryDSN(driver, dsn) {
		// every pooled connection would otherwise see its own empty database
		sqldb.SetMaxOpenConns(1)
	}

	return New(bun.NewDB(sqldb, d), opts...), nil
}

// New wraps an existing bun handle.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying bun handle.
func (s *Store) DB() *bun.DB {
	return s.db
}

// Ping verifies the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) isPostgres() bool {
	return s.db.Dialect().Name() == dialect.PG
}

// QuoteIdent wraps name in the dialect's identifier quote, doubling any
// embedded quote characters.
func (s *Store) QuoteIdent(name string) string {
	q := string(s.db.Dialect().IdentQuote())
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// Prepare compiles query on the server. '?' placeholders are rewritten to
// $n for PostgreSQL.
func (s *Store) Prepare(ctx context.Context, query string) (store.Stmt, error) {
	native := query
	if s.isPostgres() {
		native = Rebind(query)
	}

	prepared, err := s.db.DB.PrepareContext(ctx, native)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: prepare %q: %w", query, err)
	}
	s.logger.Debug("statement prepared", zap.String("query", native))

	return &Stmt{store: s, query: native, stmt: prepared}, nil
}

func isMemoryDSN(driver, dsn string) bool {
	if driver == DriverPostgres {
		return false
	}
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory") || strings.HasPrefix(dsn, "file::memory:")
}

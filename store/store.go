// Package store defines the prepared-statement surface the data mapper talks
// to. Implementations live in sub-packages; sqlstore is the bun-backed one.
package store

import (
	"context"
	"io"
)

// Key markers reported by Columns.
const (
	KeyPrimary = "PRI"
	KeyUnique  = "UNI"
)

// Column describes one column of a relation, as reported by the store.
type Column struct {
	Name string
	// Type is the store's native type string, for example "varchar(64)".
	Type string
	// Key is KeyPrimary, KeyUnique or empty.
	Key string
}

// Row is one result row keyed by column name.
type Row = map[string]any

// Result reports the outcome of a statement that does not return rows.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Store is a relational store reachable through parameterized statements.
type Store interface {
	// Columns lists the relation's columns in ordinal order.
	Columns(ctx context.Context, relation string) ([]Column, error)
	// Prepare compiles a query written with '?' placeholders.
	Prepare(ctx context.Context, query string) (Stmt, error)
	// QuoteIdent quotes a relation or column name for the store's dialect.
	QuoteIdent(name string) string
}

// Stmt is a prepared statement. Parameters are bound with a type string
// holding one bind character per argument: 'i' integer, 'd' float,
// 's' string, 'b' blob. Blob parameters may be streamed with SendLongData
// before execution.
type Stmt interface {
	Bind(types string, args ...any) error
	SendLongData(index int, r io.Reader) error
	Exec(ctx context.Context) (Result, error)
	// Insert executes an INSERT and returns the identifier the store
	// generated for idColumn.
	Insert(ctx context.Context, idColumn string) (int64, error)
	Query(ctx context.Context) ([]Row, error)
	Close() error
}

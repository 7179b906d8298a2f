package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/goliatone/go-datamapper/store"
	"go.uber.org/zap"
)

// Stmt is a server-side prepared statement with bound parameters.
type Stmt struct {
	store.Params

	store *Store
	query string
	stmt  *sql.Stmt
}

var _ store.Stmt = (*Stmt)(nil)

// Exec runs the statement and reports affected rows.
func (st *Stmt) Exec(ctx context.Context) (store.Result, error) {
	res, err := st.stmt.ExecContext(ctx, st.Args()...)
	if err != nil {
		return store.Result{}, fmt.Errorf("sqlstore: exec: %w", err)
	}

	var out store.Result
	out.RowsAffected, _ = res.RowsAffected()
	if !st.store.isPostgres() {
		out.LastInsertID, _ = res.LastInsertId()
	}
	st.store.logger.Debug("statement executed",
		zap.String("query", st.query),
		zap.Int64("rows_affected", out.RowsAffected),
	)
	return out, nil
}

// Insert runs an INSERT and returns the identifier generated for idColumn.
// PostgreSQL has no LastInsertId, so the statement is re-issued with a
// RETURNING clause.
func (st *Stmt) Insert(ctx context.Context, idColumn string) (int64, error) {
	if !st.store.isPostgres() {
		res, err := st.Exec(ctx)
		if err != nil {
			return 0, err
		}
		return res.LastInsertID, nil
	}

	query := strings.TrimRight(strings.TrimSpace(st.query), ";") + " RETURNING " + st.store.QuoteIdent(idColumn)
	var id int64
	if err := st.store.db.DB.QueryRowContext(ctx, query, st.Args()...).Scan(&id); err != nil {
		return 0, fmt.Errorf("sqlstore: insert: %w", err)
	}
	return id, nil
}

// Query runs the statement and reads every row into memory.
func (st *Stmt) Query(ctx context.Context) ([]store.Row, error) {
	rows, err := st.stmt.QueryContext(ctx, st.Args()...)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlstore: query columns: %w", err)
	}

	var out []store.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlstore: scan: %w", err)
		}

		row := make(store.Row, len(columns))
		for i, name := range columns {
			// drivers may reuse the scan buffer
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlstore: rows: %w", err)
	}
	return out, nil
}

// Close releases the prepared statement.
func (st *Stmt) Close() error {
	return st.stmt.Close()
}

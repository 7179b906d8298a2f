package sqlstore

import (
	"context"
	"fmt"

	"github.com/goliatone/go-datamapper/store"
)

type sqliteColumn struct {
	Name string `bun:"name"`
	Type string `bun:"type"`
	PK   int    `bun:"pk"`
}

type pgColumn struct {
	Name string `bun:"name"`
	Type string `bun:"type"`
}

type pgConstraint struct {
	Column string `bun:"column_name"`
	Kind   string `bun:"constraint_type"`
	Width  int    `bun:"width"`
}

const sqliteColumnsQuery = `SELECT name, type, pk FROM pragma_table_info(?) ORDER BY cid`

// single-column unique indexes only; a composite index does not make any
// one of its columns a lookup key
const sqliteUniqueQuery = `SELECT ii.name
FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
WHERE il."unique" = 1 AND il.origin <> 'pk'
  AND (SELECT count(*) FROM pragma_index_info(il.name)) = 1`

const pgColumnsQuery = `SELECT column_name AS name, data_type AS type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`

const pgConstraintsQuery = `SELECT kcu.column_name, tc.constraint_type,
  (SELECT count(*) FROM information_schema.key_column_usage k2
    WHERE k2.constraint_name = tc.constraint_name AND k2.table_schema = tc.table_schema) AS width
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
WHERE tc.table_schema = current_schema() AND tc.table_name = ?
  AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')`

// Columns lists relation's columns in ordinal order with PRI/UNI markers.
// Foreign keys and non-unique indexes never produce a marker.
func (s *Store) Columns(ctx context.Context, relation string) ([]store.Column, error) {
	var (
		columns []store.Column
		err     error
	)
	if s.isPostgres() {
		columns, err = s.pgColumns(ctx, relation)
	} else {
		columns, err = s.sqliteColumns(ctx, relation)
	}
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRelationNotFound, relation)
	}
	return columns, nil
}

func (s *Store) sqliteColumns(ctx context.Context, relation string) ([]store.Column, error) {
	var rows []sqliteColumn
	if err := s.db.NewRaw(sqliteColumnsQuery, relation).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("sqlstore: describe %s: %w", relation, err)
	}

	var unique []string
	if len(rows) > 0 {
		if err := s.db.NewRaw(sqliteUniqueQuery, relation).Scan(ctx, &unique); err != nil {
			return nil, fmt.Errorf("sqlstore: describe indexes of %s: %w", relation, err)
		}
	}
	isUnique := make(map[string]bool, len(unique))
	for _, name := range unique {
		isUnique[name] = true
	}

	columns := make([]store.Column, 0, len(rows))
	for _, row := range rows {
		col := store.Column{Name: row.Name, Type: row.Type}
		switch {
		case row.PK > 0:
			col.Key = store.KeyPrimary
		case isUnique[row.Name]:
			col.Key = store.KeyUnique
		}
		columns = append(columns, col)
	}
	return columns, nil
}

func (s *Store) pgColumns(ctx context.Context, relation string) ([]store.Column, error) {
	var rows []pgColumn
	if err := s.db.NewRaw(pgColumnsQuery, relation).Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("sqlstore: describe %s: %w", relation, err)
	}

	var constraints []pgConstraint
	if len(rows) > 0 {
		if err := s.db.NewRaw(pgConstraintsQuery, relation).Scan(ctx, &constraints); err != nil {
			return nil, fmt.Errorf("sqlstore: describe constraints of %s: %w", relation, err)
		}
	}
	keys := make(map[string]string, len(constraints))
	for _, c := range constraints {
		switch {
		case c.Kind == "PRIMARY KEY":
			keys[c.Column] = store.KeyPrimary
		case c.Kind == "UNIQUE" && c.Width == 1 && keys[c.Column] == "":
			keys[c.Column] = store.KeyUnique
		}
	}

	columns := make([]store.Column, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, store.Column{Name: row.Name, Type: row.Type, Key: keys[row.Name]})
	}
	return columns, nil
}

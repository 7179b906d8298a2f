package record

import (
	"bytes"
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/schema"
	"github.com/goliatone/go-datamapper/store"
)

// statement is a query with its parameters in bind order. Blob parameters
// are bound as NULL and their bytes streamed with SendLongData.
type statement struct {
	query    string
	types    []byte
	args     []any
	longData map[int][]byte
}

func (s *statement) add(f schema.Field, v any) {
	if f.Bind == schema.BindBlob {
		if b, ok := v.([]byte); ok {
			if s.longData == nil {
				s.longData = make(map[int][]byte)
			}
			s.longData[len(s.args)] = b
		}
		v = nil
	}
	s.types = append(s.types, f.Bind.Char())
	s.args = append(s.args, v)
}

func (m *Mapper) requireStore(entity string) error {
	if m.store == nil {
		return errs.Configuration("no store configured for %s", entity)
	}
	return nil
}

// prepare compiles st, binds its parameters and uploads blob data.
func (m *Mapper) prepare(ctx context.Context, entity string, st statement) (store.Stmt, error) {
	if err := m.requireStore(entity); err != nil {
		return nil, err
	}

	stmt, err := m.store.Prepare(ctx, st.query)
	if err != nil {
		return nil, errs.Store(entity, err)
	}
	if err := stmt.Bind(string(st.types), st.args...); err != nil {
		stmt.Close()
		return nil, errs.Store(entity, err)
	}
	for i, data := range st.longData {
		if err := stmt.SendLongData(i, bytes.NewReader(data)); err != nil {
			stmt.Close()
			return nil, errs.Store(entity, err)
		}
	}
	return stmt, nil
}

func (m *Mapper) exec(ctx context.Context, entity string, st statement) (store.Result, error) {
	stmt, err := m.prepare(ctx, entity, st)
	if err != nil {
		return store.Result{}, err
	}
	defer stmt.Close()

	res, err := stmt.Exec(ctx)
	if err != nil {
		return store.Result{}, errs.Store(entity, err)
	}
	return res, nil
}

// writeSnapshot stores values as one row: an UPDATE keyed by ID when the
// entity has one, an INSERT otherwise. It returns the row's ID.
func (m *Mapper) writeSnapshot(ctx context.Context, e *Entity, values map[string]any) (int64, error) {
	name := e.typ.Name
	q := m.store
	if err := m.requireStore(name); err != nil {
		return 0, err
	}

	relation := q.QuoteIdent(e.typ.Relation)
	fields := e.desc.ValueFields()
	id := e.ID()

	var st statement
	if id != 0 {
		if len(fields) == 0 {
			return id, nil
		}
		sets := make([]string, len(fields))
		for i, f := range fields {
			sets[i] = q.QuoteIdent(f.Name) + " = ?"
			st.add(f, values[f.Name])
		}
		idField, _ := e.desc.Field(schema.IDField)
		st.add(idField, id)
		st.query = "UPDATE " + relation + " SET " + strings.Join(sets, ", ") +
			" WHERE " + q.QuoteIdent(schema.IDField) + " = ?"

		if _, err := m.exec(ctx, name, st); err != nil {
			return 0, err
		}
		return id, nil
	}

	if len(fields) == 0 {
		st.query = "INSERT INTO " + relation + " DEFAULT VALUES"
	} else {
		columns := make([]string, len(fields))
		marks := make([]string, len(fields))
		for i, f := range fields {
			columns[i] = q.QuoteIdent(f.Name)
			marks[i] = "?"
			st.add(f, values[f.Name])
		}
		st.query = "INSERT INTO " + relation + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	}

	stmt, err := m.prepare(ctx, name, st)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	newID, err := stmt.Insert(ctx, schema.IDField)
	if err != nil {
		return 0, errs.Store(name, err)
	}
	return newID, nil
}

// persistField stores one changed field in immediate-write mode. Without an
// ID the whole snapshot, with the change applied, is inserted instead.
func (m *Mapper) persistField(ctx context.Context, e *Entity, field string, v any) (int64, error) {
	if e.ID() == 0 {
		tentative := maps.Clone(e.attrs.values)
		tentative[field] = v
		return m.writeSnapshot(ctx, e, tentative)
	}

	if err := m.requireStore(e.typ.Name); err != nil {
		return 0, err
	}
	f, _ := e.desc.Field(field)
	idField, _ := e.desc.Field(schema.IDField)

	var st statement
	st.add(f, v)
	st.add(idField, e.ID())
	st.query = "UPDATE " + m.store.QuoteIdent(e.typ.Relation) +
		" SET " + m.store.QuoteIdent(field) + " = ?" +
		" WHERE " + m.store.QuoteIdent(schema.IDField) + " = ?"

	if _, err := m.exec(ctx, e.typ.Name, st); err != nil {
		return 0, err
	}
	return e.ID(), nil
}

func (m *Mapper) deleteRow(ctx context.Context, e *Entity) error {
	if err := m.requireStore(e.typ.Name); err != nil {
		return err
	}
	idField, _ := e.desc.Field(schema.IDField)

	var st statement
	st.add(idField, e.ID())
	st.query = "DELETE FROM " + m.store.QuoteIdent(e.typ.Relation) +
		" WHERE " + m.store.QuoteIdent(schema.IDField) + " = ?"

	_, err := m.exec(ctx, e.typ.Name, st)
	return err
}

// selectRows reads the declared fields of every row, or of the rows where
// where equals value when where is set, in ID order.
func (m *Mapper) selectRows(ctx context.Context, t EntityType, desc *schema.Descriptor, where *schema.Field, value any) ([]map[string]any, error) {
	if err := m.requireStore(t.Name); err != nil {
		return nil, err
	}

	columns := make([]string, len(desc.Fields))
	for i, f := range desc.Fields {
		columns[i] = m.store.QuoteIdent(f.Name)
	}

	var st statement
	st.query = "SELECT " + strings.Join(columns, ", ") + " FROM " + m.store.QuoteIdent(t.Relation)
	if where != nil {
		st.query += " WHERE " + m.store.QuoteIdent(where.Name) + " = ?"
		st.types = append(st.types, where.Bind.Char())
		st.args = append(st.args, value)
	}
	st.query += " ORDER BY " + m.store.QuoteIdent(schema.IDField)

	stmt, err := m.prepare(ctx, t.Name, st)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	rows, err := stmt.Query(ctx)
	if err != nil {
		return nil, errs.Store(t.Name, err)
	}

	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

// Package schema describes entity relations: their fields, the bind type of
// each field and which fields are unique lookup keys.
package schema

import (
	"fmt"
	"slices"

	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/store"
)

// IDField is the identifier every described relation must carry.
const IDField = "ID"

// Field is one declared field of an entity type.
type Field struct {
	Name   string   `msgpack:"name"`
	Bind   BindType `msgpack:"bind"`
	Native string   `msgpack:"native"`
	Unique bool     `msgpack:"unique"`
}

// Descriptor is the introspected shape of an entity type. Fields keep the
// store's ordinal order, which fixes statement parameter order.
type Descriptor struct {
	Type     string  `msgpack:"type"`
	Relation string  `msgpack:"relation"`
	Fields   []Field `msgpack:"fields"`
}

// FromColumns builds a descriptor from store column metadata.
func FromColumns(entityType, relation string, columns []store.Column) (*Descriptor, error) {
	d := &Descriptor{Type: entityType, Relation: relation, Fields: make([]Field, 0, len(columns))}

	for _, col := range columns {
		bind, err := MapNativeType(col.Type)
		if err != nil {
			return nil, errs.TypeMapping(entityType, col.Name, col.Type)
		}
		d.Fields = append(d.Fields, Field{
			Name:   col.Name,
			Bind:   bind,
			Native: col.Type,
			Unique: col.Key == store.KeyPrimary || col.Key == store.KeyUnique,
		})
	}

	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Descriptor) validate() error {
	id, ok := d.Field(IDField)
	switch {
	case !ok:
		return errs.Schema(d.Type, fmt.Errorf("relation %s has no %s column", d.Relation, IDField))
	case id.Bind != BindInt:
		return errs.Schema(d.Type, fmt.Errorf("%s column must be an integer, got %q", IDField, id.Native))
	case !id.Unique:
		return errs.Schema(d.Type, fmt.Errorf("%s column must be a primary or unique key", IDField))
	}
	return nil
}

// Field returns the named field.
func (d *Descriptor) Field(name string) (Field, bool) {
	i := slices.IndexFunc(d.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return d.Fields[i], true
}

// Has reports whether name is a declared field.
func (d *Descriptor) Has(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// Names lists the field names in ordinal order.
func (d *Descriptor) Names() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// UniqueFields lists the unique fields in ordinal order, ID included.
func (d *Descriptor) UniqueFields() []Field {
	var out []Field
	for _, f := range d.Fields {
		if f.Unique {
			out = append(out, f)
		}
	}
	return out
}

// ValueFields lists every field except ID, the value list of INSERT and UPDATE.
func (d *Descriptor) ValueFields() []Field {
	out := make([]Field, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name != IDField {
			out = append(out, f)
		}
	}
	return out
}

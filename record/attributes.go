package record

import (
	"maps"

	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/schema"
)

// Attributes is the in-memory snapshot of one entity's field values. Every
// declared field is always present, values are held in the canonical type of
// their bind type, and ID can only be assigned by the mapper.
type Attributes struct {
	entity string
	desc   *schema.Descriptor
	values map[string]any
}

func newAttributes(entity string, desc *schema.Descriptor) *Attributes {
	a := &Attributes{entity: entity, desc: desc}
	a.reset()
	return a
}

func (a *Attributes) reset() {
	a.values = make(map[string]any, len(a.desc.Fields))
	for _, f := range a.desc.Fields {
		a.values[f.Name] = defaultValue(f.Bind)
	}
}

// Get returns the value of a declared field.
func (a *Attributes) Get(name string) (any, error) {
	v, ok := a.values[name]
	if !ok {
		return nil, errs.UnknownAttribute(a.entity, name)
	}
	return v, nil
}

// Has reports whether name is a declared field.
func (a *Attributes) Has(name string) bool {
	_, ok := a.values[name]
	return ok
}

// Set assigns a declared field, coercing value to the field's bind type.
func (a *Attributes) Set(name string, value any) error {
	v, err := a.prepare(name, value)
	if err != nil {
		return err
	}
	a.values[name] = v
	return nil
}

// prepare validates an assignment and returns the normalized value.
func (a *Attributes) prepare(name string, value any) (any, error) {
	if name == schema.IDField {
		return nil, errs.ImmutableField(a.entity, name)
	}
	f, ok := a.desc.Field(name)
	if !ok {
		return nil, errs.UnknownAttribute(a.entity, name)
	}
	v, ok := normalize(f.Bind, value)
	if !ok {
		return nil, errs.InvalidValue(a.entity, name, value, string(f.Bind))
	}
	return v, nil
}

// Snapshot returns a copy of the current values.
func (a *Attributes) Snapshot() map[string]any {
	out := maps.Clone(a.values)
	for k, v := range out {
		if b, ok := v.([]byte); ok {
			out[k] = append(make([]byte, 0, len(b)), b...)
		}
	}
	return out
}

func (a *Attributes) id() int64 {
	id, _ := a.values[schema.IDField].(int64)
	return id
}

func (a *Attributes) setID(id int64) {
	a.values[schema.IDField] = id
}

// load replaces every value from a full row. A row missing a declared field,
// or carrying an undeclared one, is rejected and leaves a untouched.
func (a *Attributes) load(row map[string]any) error {
	values := make(map[string]any, len(a.desc.Fields))
	for _, f := range a.desc.Fields {
		raw, ok := row[f.Name]
		if !ok {
			return errs.ShapeMismatch(a.entity, f.Name, "missing key "+f.Name)
		}
		v, ok := normalize(f.Bind, raw)
		if !ok {
			return errs.InvalidValue(a.entity, f.Name, raw, string(f.Bind))
		}
		values[f.Name] = v
	}
	for name := range row {
		if !a.desc.Has(name) {
			return errs.ShapeMismatch(a.entity, name, "unexpected key "+name)
		}
	}
	a.values = values
	return nil
}

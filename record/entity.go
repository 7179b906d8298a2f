package record

import (
	"context"
	"time"

	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/schema"
)

// State is an entity's position in its lifecycle.
type State int

const (
	// Transient entities have never been written.
	Transient State = iota
	// Clean entities match the row they were read from or written to.
	Clean
	// Dirty entities carry changes made since the last read or write.
	Dirty
	// Deleted entities had their row removed.
	Deleted
)

func (s State) String() string {
	switch s {
	case Transient:
		return "transient"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Entity is one active-record instance. It is not safe for concurrent use.
type Entity struct {
	mapper  *Mapper
	typ     EntityType
	desc    *schema.Descriptor
	attrs   *Attributes
	state   State
	delayed bool
}

var _ Accessor = (*Entity)(nil)

func newEntity(m *Mapper, typ EntityType, desc *schema.Descriptor) *Entity {
	return &Entity{
		mapper:  m,
		typ:     typ,
		desc:    desc,
		attrs:   newAttributes(typ.Name, desc),
		state:   Transient,
		delayed: true,
	}
}

// TypeName returns the registered entity type name.
func (e *Entity) TypeName() string {
	return e.typ.Name
}

// Descriptor returns the entity's schema.
func (e *Entity) Descriptor() *schema.Descriptor {
	return e.desc
}

// ID returns the identifier, zero when not persisted.
func (e *Entity) ID() int64 {
	return e.attrs.id()
}

// State returns the lifecycle state.
func (e *Entity) State() State {
	return e.state
}

// Get returns a field value.
func (e *Entity) Get(name string) (any, error) {
	return e.attrs.Get(name)
}

// Has reports whether name is a declared field.
func (e *Entity) Has(name string) bool {
	return e.attrs.Has(name)
}

// Snapshot returns a copy of every field value.
func (e *Entity) Snapshot() map[string]any {
	return e.attrs.Snapshot()
}

// Call resolves GetX and SetX style method names through Dispatch.
func (e *Entity) Call(ctx context.Context, method string, args ...any) (any, error) {
	return Dispatch(ctx, e, method, args...)
}

// DelayWrites switches to delayed-write mode: Set only changes the snapshot
// until Write is called.
func (e *Entity) DelayWrites() {
	e.delayed = true
}

// DelayedWrites reports whether the entity is in delayed-write mode.
func (e *Entity) DelayedWrites() bool {
	return e.delayed
}

// Set assigns a field. ID is immutable. Setting a field to its current value
// does nothing. In immediate mode the store is updated first and the
// snapshot only changes once that succeeded.
func (e *Entity) Set(ctx context.Context, name string, value any) error {
	if e.state == Deleted {
		return errs.InvalidState(e.typ.Name, e.state.String(), "set a field of")
	}

	v, err := e.attrs.prepare(name, value)
	if err != nil {
		return err
	}
	if current, _ := e.attrs.Get(name); sameValue(current, v) {
		return nil
	}

	if !e.delayed {
		id, err := e.mapper.persistField(ctx, e, name, v)
		if err != nil {
			return err
		}
		e.attrs.setID(id)
	}

	e.attrs.values[name] = v
	e.state = Dirty
	return nil
}

// Write stores the whole snapshot, inserting when the entity has no ID yet.
// keepDelayed selects the write mode afterwards.
func (e *Entity) Write(ctx context.Context, keepDelayed bool) error {
	if e.state == Deleted {
		return errs.InvalidState(e.typ.Name, e.state.String(), "write")
	}

	id, err := e.mapper.writeSnapshot(ctx, e, e.attrs.values)
	if err != nil {
		return err
	}

	e.attrs.setID(id)
	e.delayed = keepDelayed
	e.state = Clean
	e.mapper.cacheByID(ctx, e, e.typ.CacheTTL)
	return nil
}

// Remove deletes the entity's row and resets its ID to zero.
func (e *Entity) Remove(ctx context.Context) error {
	if e.ID() == 0 {
		return errs.MissingIdentifier(e.typ.Name)
	}

	keys := e.mapper.uniqueLookupIDs(e)
	if err := e.mapper.deleteRow(ctx, e); err != nil {
		return err
	}

	e.attrs.setID(0)
	e.state = Deleted
	e.mapper.flushLookupIDs(ctx, e, keys)
	return nil
}

// Reset re-defaults every field and returns the entity to Transient with
// delayed writes, as if freshly created.
func (e *Entity) Reset() {
	e.attrs.reset()
	e.state = Transient
	e.delayed = true
}

// CacheUniqueKeys stores the snapshot under the ID key and under the key of
// every unique field. It is the default post-create hook; cache failures are
// logged and ignored.
func (e *Entity) CacheUniqueKeys(ctx context.Context, ttl time.Duration) {
	e.mapper.seedUniqueKeys(ctx, e, ttl)
}

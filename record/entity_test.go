package record_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_IDImmutable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	transient, err := f.mapper.CreateNew(ctx, "Widget")
	require.NoError(t, err)

	delayed := f.writeWidget(t, "Gear", 9.99)

	immediate := f.writeWidget(t, "Cog", 1.5)
	require.NoError(t, immediate.Write(ctx, false))
	require.False(t, immediate.DelayedWrites())

	for name, e := range map[string]*record.Entity{
		"transient": transient,
		"delayed":   delayed,
		"immediate": immediate,
	} {
		t.Run(name, func(t *testing.T) {
			before := e.Snapshot()
			f.store.Reset()

			assert.ErrorIs(t, e.Set(ctx, "ID", 99), errs.ErrImmutableField)
			_, err := e.Call(ctx, "SetID", 99)
			assert.ErrorIs(t, err, errs.ErrImmutableField)

			assert.Equal(t, before, e.Snapshot())
			assert.Equal(t, int64(0), f.store.Calls())
		})
	}
}

func TestSet_SameValueIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e := f.writeWidget(t, "Gear", 9.99)
	require.NoError(t, e.Write(ctx, false))
	f.store.Reset()

	require.NoError(t, e.Set(ctx, "Name", "Gear"))
	require.NoError(t, e.Set(ctx, "Price", 9.99))
	require.NoError(t, e.Set(ctx, "Price", "9.99"))

	assert.Equal(t, int64(0), f.store.Calls())
	assert.Equal(t, record.Clean, e.State())
}

func TestSet_DelayedOnlyTouchesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.writeWidget(t, "Gear", 9.99)
	f.store.Reset()

	require.NoError(t, e.Set(ctx, "Price", 12))

	assert.Equal(t, int64(0), f.store.Calls())
	assert.Equal(t, record.Dirty, e.State())
	price, err := e.Get("Price")
	require.NoError(t, err)
	assert.Equal(t, 12.0, price)
}

func TestSet_ImmediatePersistsColumn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e := f.writeWidget(t, "Gear", 9.99)
	require.NoError(t, e.Write(ctx, false))
	f.store.Reset()

	require.NoError(t, e.Set(ctx, "Price", 12.5))
	assert.Equal(t, int64(1), f.store.Executed("UPDATE"))
	assert.Equal(t, record.Dirty, e.State())

	fresh, err := f.mapper.FindUnique(record.WithoutCache(ctx), "Widget", "ID", e.ID())
	require.NoError(t, err)
	assert.Equal(t, 12.5, fresh.Snapshot()["Price"])
}

func TestSet_ImmediateFailureLeavesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.writeWidget(t, "Gear", 9.99)

	e := f.writeWidget(t, "Sprocket", 4.5)
	require.NoError(t, e.Write(ctx, false))

	err := e.Set(ctx, "Name", "Gear")
	require.ErrorIs(t, err, errs.ErrStore)

	name, _ := e.Get("Name")
	assert.Equal(t, "Sprocket", name)
	assert.Equal(t, record.Clean, e.State())
}

func TestSet_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e, err := f.mapper.CreateNew(ctx, "Widget")
	require.NoError(t, err)

	assert.ErrorIs(t, e.Set(ctx, "Colour", "red"), errs.ErrUnknownAttribute)
	assert.ErrorIs(t, e.Set(ctx, "Price", "cheap"), errs.ErrInvalidValue)
	assert.ErrorIs(t, e.Set(ctx, "Name", []int{1}), errs.ErrInvalidValue)

	_, err = e.Get("Colour")
	require.ErrorIs(t, err, errs.ErrUnknownAttribute)
	assert.Contains(t, err.Error(), "Widget")
	assert.Contains(t, err.Error(), "Colour")
	assert.False(t, e.Has("Colour"))
	assert.True(t, e.Has("Price"))
}

func TestWrite_UpdatesExistingRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e := f.writeWidget(t, "Gear", 9.99)

	require.NoError(t, e.Set(ctx, "Name", "Big Gear"))
	f.store.Reset()
	require.NoError(t, e.Write(ctx, true))

	assert.Equal(t, int64(1), f.store.Executed("UPDATE"))
	assert.Equal(t, int64(0), f.store.Executed("INSERT"))
	assert.Equal(t, int64(1), e.ID())

	all, err := f.mapper.GetAll(ctx, "Widget")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Big Gear", all[0].Snapshot()["Name"])
}

func TestWrite_LeavesSecondaryKeysStale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.writeWidget(t, "Gear", 9.99)

	e, err := f.mapper.FindUnique(ctx, "Widget", "Name", "Gear")
	require.NoError(t, err)
	require.NoError(t, e.Set(ctx, "Price", 20.0))
	require.NoError(t, e.Write(ctx, true))

	byName, err := f.mapper.FindUnique(ctx, "Widget", "Name", "Gear")
	require.NoError(t, err)
	assert.Equal(t, 9.99, byName.Snapshot()["Price"])

	byID, err := f.mapper.FindUnique(ctx, "Widget", "ID", 1)
	require.NoError(t, err)
	assert.Equal(t, 20.0, byID.Snapshot()["Price"])
}

func TestRemove_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.writeWidget(t, "Gear", 9.99)

	e, err := f.mapper.FindUnique(ctx, "Widget", "Name", "Gear")
	require.NoError(t, err)

	require.NoError(t, e.Remove(ctx))
	assert.Equal(t, record.Deleted, e.State())
	assert.Equal(t, int64(0), e.ID())
	assert.Equal(t, []string{"Widget_keys_public"}, f.backend.keys())

	_, err = f.mapper.FindUnique(ctx, "Widget", "ID", 1)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	assert.ErrorIs(t, e.Remove(ctx), errs.ErrMissingIdentifier)
	assert.ErrorIs(t, e.Write(ctx, true), errs.ErrInvalidState)
	assert.ErrorIs(t, e.Set(ctx, "Name", "Cog"), errs.ErrInvalidState)

	e.Reset()
	assert.Equal(t, record.Transient, e.State())
	assert.Equal(t, map[string]any{"ID": int64(0), "Name": "", "Price": 0.0}, e.Snapshot())
	require.NoError(t, e.Set(ctx, "Name", "Cog"))
	require.NoError(t, e.Write(ctx, true))
	assert.Equal(t, int64(2), e.ID())
}

func TestRemove_Transient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e, err := f.mapper.CreateNew(ctx, "Widget")
	require.NoError(t, err)

	assert.ErrorIs(t, e.Remove(ctx), errs.ErrMissingIdentifier)
	assert.Equal(t, record.Transient, e.State())
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	e, err := f.mapper.CreateNew(ctx, "Gadget")
	require.NoError(t, err)
	require.NoError(t, e.Set(ctx, "Payload", []byte("abc")))

	snap := e.Snapshot()
	snap["Payload"].([]byte)[0] = 'z'
	snap["Code"] = "changed"

	payload, _ := e.Get("Payload")
	assert.Equal(t, []byte("abc"), payload)
	code, _ := e.Get("Code")
	assert.Equal(t, "", code)
}

func TestDelayWrites_SwitchesBackFromImmediate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	e := f.writeWidget(t, "Gear", 9.99)
	require.NoError(t, e.Write(ctx, false))
	require.False(t, e.DelayedWrites())

	e.DelayWrites()
	assert.True(t, e.DelayedWrites())
	f.store.Reset()

	require.NoError(t, e.Set(ctx, "Price", 3))
	assert.Equal(t, int64(0), f.store.Calls())
	assert.Equal(t, record.Dirty, e.State())
}

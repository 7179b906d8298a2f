package di

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/goliatone/go-datamapper/cache"
	"github.com/goliatone/go-datamapper/crafting"
	"github.com/goliatone/go-datamapper/errs"
	"github.com/goliatone/go-datamapper/pkg/testsupport"
	"github.com/goliatone/go-datamapper/record"
)

const categoryDDL = `CREATE TABLE "Category" (
	"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"Name" VARCHAR(32) NOT NULL UNIQUE
)`

const userDDL = `CREATE TABLE "User" (
	"ID" INTEGER PRIMARY KEY AUTOINCREMENT,
	"Username" VARCHAR(32) NOT NULL UNIQUE,
	"Email" VARCHAR(128),
	"Active" TINYINT(1) NOT NULL DEFAULT 1
)`

func newSessionContainer(t *testing.T) (*Container, *testsupport.CountingStore) {
	t.Helper()

	st := testsupport.NewCountingStore(testsupport.OpenSQLite(t, categoryDDL, userDDL))
	cfg := loadConfig(t, map[string]string{
		"CACHE_BACKENDS":  "session",
		"CACHE_NAMESPACE": "craft",
	})

	container, err := NewContainer(context.Background(), cfg, WithStore(st))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	return container, st
}

// TestEndToEndSessionCacheFlow writes through the mapper, reads back cold,
// then hits the session cache.
func TestEndToEndSessionCacheFlow(t *testing.T) {
	container, st := newSessionContainer(t)
	m := container.Mapper()
	ctx := cache.WithSession(context.Background(), cache.NewSessionID())

	for _, name := range []string{"Progress", "Quality", "Buff"} {
		e, err := m.CreateNew(ctx, crafting.TypeCategory)
		if err != nil {
			t.Fatalf("CreateNew() failed: %v", err)
		}
		if _, err := e.Call(ctx, "SetName", name); err != nil {
			t.Fatalf("SetName failed: %v", err)
		}
		if err := e.Write(ctx, true); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	quality, err := m.FindUnique(ctx, crafting.TypeCategory, "Name", "Quality")
	if err != nil {
		t.Fatalf("FindUnique() failed: %v", err)
	}
	if quality.ID() != crafting.CategoryQuality {
		t.Errorf("Expected ID %d, got %d", crafting.CategoryQuality, quality.ID())
	}

	keys, err := container.Aside().Keys(ctx)
	if err != nil {
		t.Fatalf("Keys() failed: %v", err)
	}
	for _, want := range []string{
		"craft_Category_keys_public",
		"craft_Category_2_public",
		"craft_Category_Name_Quality_public",
	} {
		if !slices.Contains(keys, want) {
			t.Errorf("Expected cache key %q in %v", want, keys)
		}
	}

	st.Reset()
	again, err := m.FindUnique(ctx, crafting.TypeCategory, "Name", "Quality")
	if err != nil {
		t.Fatalf("FindUnique() failed: %v", err)
	}
	if st.Calls() != 0 {
		t.Errorf("Expected cached lookup, store saw %d calls", st.Calls())
	}
	label, err := crafting.CategoryLabel(ctx, again)
	if err != nil || label != "Quality" {
		t.Errorf("Unexpected label %q: %v", label, err)
	}
}

// TestPrivateEntitiesStayInSession checks private entities are cached per
// session and invisible to other sessions.
func TestPrivateEntitiesStayInSession(t *testing.T) {
	container, st := newSessionContainer(t)
	m := container.Mapper()
	alice := cache.WithSession(context.Background(), "alice")
	bob := cache.WithSession(context.Background(), "bob")

	user, err := m.CreateNew(alice, crafting.TypeUser)
	if err != nil {
		t.Fatalf("CreateNew() failed: %v", err)
	}
	if err := user.Set(alice, "Username", "mireia"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := user.Write(alice, true); err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	st.Reset()
	if _, err := m.FindUnique(alice, crafting.TypeUser, "ID", user.ID()); err != nil {
		t.Fatalf("FindUnique() failed: %v", err)
	}
	if st.Executed("SELECT") != 0 {
		t.Errorf("Expected alice's lookup to hit her session cache")
	}

	if _, err := m.FindUnique(bob, crafting.TypeUser, "ID", user.ID()); err != nil {
		t.Fatalf("FindUnique() failed: %v", err)
	}
	if st.Executed("SELECT") != 1 {
		t.Errorf("Expected bob's lookup to reach the store once, got %d", st.Executed("SELECT"))
	}

	container.Sessions().Destroy("alice")
	if _, err := m.FindUnique(alice, crafting.TypeUser, "Username", "mireia"); err != nil {
		t.Fatalf("FindUnique() failed: %v", err)
	}
	if st.Executed("SELECT") != 2 {
		t.Errorf("Expected destroyed session to miss, got %d selects", st.Executed("SELECT"))
	}
}

// TestConcurrentLookups runs unique lookups from many goroutines sharing one
// mapper.
func TestConcurrentLookups(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"CACHE_BACKENDS": "local"})
	st := testsupport.NewCountingStore(testsupport.OpenSQLite(t, categoryDDL))
	container, err := NewContainer(context.Background(), cfg, WithStore(st))
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	m := container.Mapper()
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		e, err := m.CreateNew(ctx, crafting.TypeCategory)
		if err != nil {
			t.Fatalf("CreateNew() failed: %v", err)
		}
		if err := e.Set(ctx, "Name", fmt.Sprintf("Category %d", i)); err != nil {
			t.Fatalf("Set() failed: %v", err)
		}
		if err := e.Write(ctx, true); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}
	}

	const workers = 16
	var wg sync.WaitGroup
	failures := make(chan error, workers*7)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 1; i <= 7; i++ {
				e, err := m.FindUnique(ctx, crafting.TypeCategory, "Name", fmt.Sprintf("Category %d", i))
				if err != nil {
					failures <- fmt.Errorf("worker %d lookup %d: %w", worker, i, err)
					continue
				}
				if e.ID() != int64(i) {
					failures <- fmt.Errorf("worker %d lookup %d: got ID %d", worker, i, e.ID())
				}
			}
		}(w)
	}

	wg.Wait()
	close(failures)
	for err := range failures {
		t.Error(err)
	}
}

// TestStoreErrorsPropagate checks store failures surface as typed errors and
// cache failures never do.
func TestStoreErrorsPropagate(t *testing.T) {
	container, _ := newSessionContainer(t)
	m := container.Mapper()
	ctx := context.Background()

	first, err := m.CreateNew(ctx, crafting.TypeCategory)
	if err != nil {
		t.Fatalf("CreateNew() failed: %v", err)
	}
	if err := first.Set(ctx, "Name", "Buff"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := first.Write(ctx, true); err != nil {
		t.Fatalf("Write() without a session should still succeed: %v", err)
	}

	dup, _ := m.CreateNew(ctx, crafting.TypeCategory)
	_ = dup.Set(ctx, "Name", "Buff")
	err = dup.Write(ctx, true)
	if !errors.Is(err, errs.ErrStore) {
		t.Fatalf("Expected store error, got %v", err)
	}
	if dup.State() != record.Dirty || dup.ID() != 0 {
		t.Errorf("Failed write should leave the entity untouched, got %s id=%d", dup.State(), dup.ID())
	}

	_, err = m.FindUnique(ctx, crafting.TypeMacro, "ID", 1)
	if errs.KindOf(err) != errs.KindSchema {
		t.Errorf("Expected schema error for a missing relation, got %v", err)
	}
}

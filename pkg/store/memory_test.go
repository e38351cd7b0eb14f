package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// sampleSnapshot builds a two-person snapshot with one parent edge.
func sampleSnapshot(t *testing.T) tree.Snapshot {
	t.Helper()
	tr := tree.New()
	for _, spec := range []struct{ id, name string }{{"p", "Parent"}, {"c", "Child"}} {
		if err := tr.Add(&tree.Person{ID: spec.id, Name: spec.name}); err != nil {
			t.Fatalf("Add(%s) = %v", spec.id, err)
		}
	}
	if err := tr.Link("p", "c"); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	return tree.Take(tr)
}

func TestMemory_LoadBeforeSave(t *testing.T) {
	m := NewMemory()
	if _, err := m.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() = %v, want ErrNotFound", err)
	}
}

func TestMemory_SaveLoad(t *testing.T) {
	m := NewMemory()
	snap := sampleSnapshot(t)

	if err := m.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	got, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(got.People) != 2 {
		t.Errorf("Load() returned %d people, want 2", len(got.People))
	}
}

func TestMemory_Assignments(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	got, err := m.LoadAssignments(ctx)
	if err != nil {
		t.Fatalf("LoadAssignments() = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("LoadAssignments() = %v on fresh store, want empty", got)
	}

	want := map[int]string{0: "Emerald", 2: "Teal"}
	if err := m.StoreAssignments(ctx, want); err != nil {
		t.Fatalf("StoreAssignments() = %v", err)
	}
	// Mutating the caller's map must not leak into the store.
	want[5] = "Crimson"

	got, err = m.LoadAssignments(ctx)
	if err != nil {
		t.Fatalf("LoadAssignments() = %v", err)
	}
	if len(got) != 2 || got[0] != "Emerald" || got[2] != "Teal" {
		t.Errorf("LoadAssignments() = %v, want the two stored entries", got)
	}
}

func TestMemory_WatchSignalsOnSave(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := m.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() = %v", err)
	}

	if err := m.Save(context.Background(), sampleSnapshot(t)); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no watch signal after Save")
	}
}

func TestSession_OpenEmptyStore(t *testing.T) {
	session, err := Open(context.Background(), NewMemory())
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if session.Tree.Len() != 0 {
		t.Errorf("Tree.Len() = %d on empty store, want 0", session.Tree.Len())
	}
}

func TestSession_SaveAndReopen(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	session, err := Open(ctx, m)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if err := session.Tree.Add(&tree.Person{ID: "a", Name: "Ada"}); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	if err := session.Save(ctx); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	reopened, err := Open(ctx, m)
	if err != nil {
		t.Fatalf("Open() after save = %v", err)
	}
	if _, ok := reopened.Tree.Person("a"); !ok {
		t.Error("reopened session missing saved person")
	}
}

func TestSession_Reload(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	session, err := Open(ctx, m)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}

	// Another writer saves behind this session's back.
	other := &Session{Tree: tree.New(), store: m}
	if err := other.Tree.Add(&tree.Person{ID: "x", Name: "Xenia"}); err != nil {
		t.Fatalf("Add() = %v", err)
	}
	if err := other.Save(ctx); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	if err := session.Reload(ctx); err != nil {
		t.Fatalf("Reload() = %v", err)
	}
	if _, ok := session.Tree.Person("x"); !ok {
		t.Error("Reload() did not pick up the other writer's state")
	}
}

func TestSession_ReloadEmptyStoreKeepsTree(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	session, err := Open(ctx, m)
	if err != nil {
		t.Fatalf("Open() = %v", err)
	}
	if err := session.Tree.Add(&tree.Person{ID: "a", Name: "Ada"}); err != nil {
		t.Fatalf("Add() = %v", err)
	}

	if err := session.Reload(ctx); err != nil {
		t.Fatalf("Reload() = %v", err)
	}
	if _, ok := session.Tree.Person("a"); !ok {
		t.Error("Reload() dropped the in-memory tree for an empty store")
	}
}

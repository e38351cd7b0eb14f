package tree

import (
	"errors"
	"testing"
)

// mustAdd inserts a person with the given ID/name or fails the test.
func mustAdd(t *testing.T, tr *Tree, id, name string) *Person {
	t.Helper()
	p := &Person{ID: id, Name: name}
	if err := tr.Add(p); err != nil {
		t.Fatalf("Add(%s) = %v", id, err)
	}
	return p
}

func TestAdd_EmptyID(t *testing.T) {
	tr := New()
	if err := tr.Add(&Person{}); !errors.Is(err, ErrInvalidPersonID) {
		t.Errorf("Add() = %v, want ErrInvalidPersonID", err)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	if err := tr.Add(&Person{ID: "a"}); !errors.Is(err, ErrDuplicatePersonID) {
		t.Errorf("Add() = %v, want ErrDuplicatePersonID", err)
	}
}

func TestPeople_StableOrder(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "2", "Cora")
	mustAdd(t, tr, "1", "Ada")
	mustAdd(t, tr, "4", "Ben")
	mustAdd(t, tr, "3", "Ben") // same name, ID tie-break

	got := tr.People()
	wantIDs := []string{"1", "3", "4", "2"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("People()[%d].ID = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestPeople_Empty(t *testing.T) {
	tr := New()
	if got := tr.People(); len(got) != 0 {
		t.Errorf("People() = %v, want empty", got)
	}
	if got := tr.Generations(); len(got) != 0 {
		t.Errorf("Generations() = %v, want empty", got)
	}
}

func TestLink_MutualInverse(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "p", "Parent")
	mustAdd(t, tr, "c", "Child")

	if err := tr.Link("p", "c"); err != nil {
		t.Fatalf("Link() = %v", err)
	}

	if parents := tr.Parents("c"); len(parents) != 1 || parents[0].ID != "p" {
		t.Errorf("Parents(c) = %v, want [p]", parents)
	}
	if children := tr.Children("p"); len(children) != 1 || children[0].ID != "c" {
		t.Errorf("Children(p) = %v, want [c]", children)
	}
}

func TestLink_Self(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	if err := tr.Link("a", "a"); !errors.Is(err, ErrSelfRelation) {
		t.Errorf("Link(a, a) = %v, want ErrSelfRelation", err)
	}
}

func TestLink_UnknownEndpoint(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	if err := tr.Link("a", "ghost"); !errors.Is(err, ErrUnknownPerson) {
		t.Errorf("Link(a, ghost) = %v, want ErrUnknownPerson", err)
	}
	if err := tr.Link("ghost", "a"); !errors.Is(err, ErrUnknownPerson) {
		t.Errorf("Link(ghost, a) = %v, want ErrUnknownPerson", err)
	}
}

func TestLink_CycleRejected(t *testing.T) {
	// a -> b -> c, then linking c as a parent of a would make a its own
	// ancestor.
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	mustAdd(t, tr, "b", "Ben")
	mustAdd(t, tr, "c", "Cora")
	if err := tr.Link("a", "b"); err != nil {
		t.Fatalf("Link(a, b) = %v", err)
	}
	if err := tr.Link("b", "c"); err != nil {
		t.Fatalf("Link(b, c) = %v", err)
	}

	if err := tr.Link("c", "a"); !errors.Is(err, ErrCyclicLink) {
		t.Errorf("Link(c, a) = %v, want ErrCyclicLink", err)
	}
	// The direct reverse edge is also a cycle.
	if err := tr.Link("b", "a"); !errors.Is(err, ErrCyclicLink) {
		t.Errorf("Link(b, a) = %v, want ErrCyclicLink", err)
	}
}

func TestLink_GenerationOverwrite(t *testing.T) {
	tr := New()
	p := mustAdd(t, tr, "p", "Parent")
	c := mustAdd(t, tr, "c", "Child")
	g := mustAdd(t, tr, "g", "Grandchild")
	p.Generation = 3
	c.Generation = 9 // arbitrary prior value, must be overwritten
	if err := tr.Link("c", "g"); err != nil {
		t.Fatalf("Link(c, g) = %v", err)
	}
	gBefore := g.Generation

	if err := tr.Link("p", "c"); err != nil {
		t.Fatalf("Link(p, c) = %v", err)
	}

	if c.Generation != 4 {
		t.Errorf("child generation = %d, want 4", c.Generation)
	}
	// Descendants are not cascaded.
	if g.Generation != gBefore {
		t.Errorf("grandchild generation = %d, want %d (unchanged)", g.Generation, gBefore)
	}
}

func TestUnlink(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "p", "Parent")
	mustAdd(t, tr, "c", "Child")
	if err := tr.Link("p", "c"); err != nil {
		t.Fatalf("Link() = %v", err)
	}

	tr.Unlink("p", "c")

	if parents := tr.Parents("c"); len(parents) != 0 {
		t.Errorf("Parents(c) = %v, want empty", parents)
	}
	if children := tr.Children("p"); len(children) != 0 {
		t.Errorf("Children(p) = %v, want empty", children)
	}

	// Unlinking a missing edge is a no-op and does not bump the version.
	before := tr.Version()
	tr.Unlink("p", "c")
	if tr.Version() != before {
		t.Errorf("Version() = %d after no-op unlink, want %d", tr.Version(), before)
	}
}

func TestPartner_Symmetric(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	mustAdd(t, tr, "b", "Ben")

	if err := tr.Partner("a", "b"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}

	if partners := tr.Partners("a"); len(partners) != 1 || partners[0].ID != "b" {
		t.Errorf("Partners(a) = %v, want [b]", partners)
	}
	if partners := tr.Partners("b"); len(partners) != 1 || partners[0].ID != "a" {
		t.Errorf("Partners(b) = %v, want [a]", partners)
	}
}

func TestPartner_ReAddNoOp(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	mustAdd(t, tr, "b", "Ben")
	if err := tr.Partner("a", "b"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}
	before := tr.Version()

	if err := tr.Partner("b", "a"); err != nil {
		t.Errorf("Partner(b, a) = %v, want nil", err)
	}
	if tr.Version() != before {
		t.Errorf("Version() = %d after re-add, want %d", tr.Version(), before)
	}
}

func TestPartner_Self(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	if err := tr.Partner("a", "a"); !errors.Is(err, ErrSelfRelation) {
		t.Errorf("Partner(a, a) = %v, want ErrSelfRelation", err)
	}
}

func TestUnpartner(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	mustAdd(t, tr, "b", "Ben")
	if err := tr.Partner("a", "b"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}

	tr.Unpartner("b", "a")

	if partners := tr.Partners("a"); len(partners) != 0 {
		t.Errorf("Partners(a) = %v, want empty", partners)
	}
	if partners := tr.Partners("b"); len(partners) != 0 {
		t.Errorf("Partners(b) = %v, want empty", partners)
	}
}

func TestRemove_CleansEdges(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "p", "Parent")
	mustAdd(t, tr, "c", "Child")
	mustAdd(t, tr, "x", "Partner")
	if err := tr.Link("p", "c"); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	if err := tr.Partner("c", "x"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}

	tr.Remove("c")

	if _, ok := tr.Person("c"); ok {
		t.Error("Person(c) still present after Remove")
	}
	if children := tr.Children("p"); len(children) != 0 {
		t.Errorf("Children(p) = %v, want empty", children)
	}
	if partners := tr.Partners("x"); len(partners) != 0 {
		t.Errorf("Partners(x) = %v, want empty", partners)
	}
}

func TestIsAncestor(t *testing.T) {
	tr := New()
	mustAdd(t, tr, "a", "Ada")
	mustAdd(t, tr, "b", "Ben")
	mustAdd(t, tr, "c", "Cora")
	if err := tr.Link("a", "b"); err != nil {
		t.Fatalf("Link(a, b) = %v", err)
	}
	if err := tr.Link("b", "c"); err != nil {
		t.Fatalf("Link(b, c) = %v", err)
	}

	cases := []struct {
		ancestor, person string
		want             bool
	}{
		{"a", "b", true},
		{"a", "c", true},
		{"b", "c", true},
		{"c", "a", false},
		{"b", "a", false},
		{"a", "a", false}, // not their own ancestor
	}
	for _, tc := range cases {
		if got := tr.IsAncestor(tc.ancestor, tc.person); got != tc.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", tc.ancestor, tc.person, got, tc.want)
		}
	}
}

func TestVersion_BumpsOnMutation(t *testing.T) {
	tr := New()
	v0 := tr.Version()

	mustAdd(t, tr, "a", "Ada")
	if tr.Version() == v0 {
		t.Error("Version() unchanged after Add")
	}

	v1 := tr.Version()
	mustAdd(t, tr, "b", "Ben")
	if err := tr.Link("a", "b"); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	if tr.Version() <= v1 {
		t.Error("Version() did not advance after Link")
	}

	v2 := tr.Version()
	tr.Touch()
	if tr.Version() != v2+1 {
		t.Errorf("Version() = %d after Touch, want %d", tr.Version(), v2+1)
	}
}

func TestGenerations_SortedDistinct(t *testing.T) {
	tr := New()
	for i, gen := range []int{2, 0, 2, 5} {
		p := mustAdd(t, tr, string(rune('a'+i)), "P")
		p.Generation = gen
	}

	got := tr.Generations()
	want := []int{0, 2, 5}
	if len(got) != len(want) {
		t.Fatalf("Generations() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Generations()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// Package tree provides the genealogy graph model: person records plus
// parent/child and partner relationships.
//
// Relationship edges are stored centrally and mutated only through typed
// accessors, which guarantees the structural invariants on every path:
//
//   - parents/children are mutual inverses: child ∈ parent.children iff
//     parent ∈ child.parents
//   - partners is symmetric
//   - no person is their own parent, child, or partner
//   - linking never creates a cycle (a candidate parent must not already be
//     a descendant of the candidate child)
//
// Every mutation bumps a version counter. Render layers poll the version
// and re-read the tree when it changes instead of observing individual
// record mutations.
//
// Tree is not safe for concurrent use without external synchronization.
package tree

import (
	"cmp"
	"errors"
	"slices"
)

var (
	// ErrInvalidPersonID is returned by [Tree.Add] when the person ID is empty.
	ErrInvalidPersonID = errors.New("person ID must not be empty")

	// ErrDuplicatePersonID is returned by [Tree.Add] when a person with the
	// same ID already exists.
	ErrDuplicatePersonID = errors.New("duplicate person ID")

	// ErrUnknownPerson is returned by edge mutations when either endpoint
	// does not exist in the tree.
	ErrUnknownPerson = errors.New("unknown person")

	// ErrSelfRelation is returned when a mutation would relate a person to
	// themselves.
	ErrSelfRelation = errors.New("person cannot relate to themselves")

	// ErrCyclicLink is returned by [Tree.Link] when the candidate parent is
	// already a descendant of the candidate child.
	ErrCyclicLink = errors.New("link would create a cycle")
)

// idSet is an adjacency set keyed by person ID.
type idSet map[string]struct{}

// Tree holds the person collection and its relationship edges.
// Use New to create a usable instance.
type Tree struct {
	people   map[string]*Person
	parents  map[string]idSet // child ID -> parent IDs
	children map[string]idSet // parent ID -> child IDs
	partners map[string]idSet // person ID -> partner IDs
	version  uint64
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{
		people:   make(map[string]*Person),
		parents:  make(map[string]idSet),
		children: make(map[string]idSet),
		partners: make(map[string]idSet),
	}
}

// Version returns a counter that increases on every mutation. Consumers
// cache it and re-read the tree when it changes.
func (t *Tree) Version() uint64 { return t.version }

// Len returns the number of people in the tree.
func (t *Tree) Len() int { return len(t.people) }

// Add inserts a person. Returns ErrInvalidPersonID for an empty ID or
// ErrDuplicatePersonID when the ID is already present.
func (t *Tree) Add(p *Person) error {
	if p.ID == "" {
		return ErrInvalidPersonID
	}
	if _, exists := t.people[p.ID]; exists {
		return ErrDuplicatePersonID
	}
	t.people[p.ID] = p
	t.version++
	return nil
}

// Remove deletes a person and all edges touching them. Removing an unknown
// ID is a no-op.
func (t *Tree) Remove(id string) {
	if _, ok := t.people[id]; !ok {
		return
	}
	delete(t.people, id)

	for parent := range t.parents[id] {
		delete(t.children[parent], id)
	}
	for child := range t.children[id] {
		delete(t.parents[child], id)
	}
	for partner := range t.partners[id] {
		delete(t.partners[partner], id)
	}
	delete(t.parents, id)
	delete(t.children, id)
	delete(t.partners, id)
	t.version++
}

// Person returns the person with the given ID and true, or nil and false.
// The returned pointer refers to the live record; scalar mutations (name,
// position) are visible immediately but do not bump the version - use
// [Tree.Touch] after mutating through it.
func (t *Tree) Person(id string) (*Person, bool) {
	p, ok := t.people[id]
	return p, ok
}

// Touch bumps the version counter without structural changes. Callers use
// it after mutating scalar fields on a record obtained from [Tree.Person].
func (t *Tree) Touch() { t.version++ }

// People returns all people sorted by name, with ID as tie-break, for
// deterministic rendering. Returns an empty slice for an empty tree.
func (t *Tree) People() []*Person {
	out := make([]*Person, 0, len(t.people))
	for _, p := range t.people {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *Person) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Parents returns the parents of the given person in stable order.
func (t *Tree) Parents(id string) []*Person { return t.resolve(t.parents[id]) }

// Children returns the children of the given person in stable order.
func (t *Tree) Children(id string) []*Person { return t.resolve(t.children[id]) }

// Partners returns the partners of the given person in stable order.
func (t *Tree) Partners(id string) []*Person { return t.resolve(t.partners[id]) }

// Link records parentID as a parent of childID, keeping both directions of
// the edge in sync, and assigns child.Generation = parent.Generation + 1.
//
// The generation assignment is unconditional: it overwrites whatever
// generation the child had, and descendants of the child are not cascaded.
//
// Returns ErrSelfRelation when both IDs are equal, ErrUnknownPerson when
// either endpoint is missing, or ErrCyclicLink when the candidate parent is
// already a descendant of the candidate child (checked by walking the
// parent's ancestor chain).
func (t *Tree) Link(parentID, childID string) error {
	if parentID == childID {
		return ErrSelfRelation
	}
	parent, ok := t.people[parentID]
	if !ok {
		return ErrUnknownPerson
	}
	child, ok := t.people[childID]
	if !ok {
		return ErrUnknownPerson
	}
	if t.IsAncestor(childID, parentID) {
		return ErrCyclicLink
	}

	t.addEdge(t.children, parentID, childID)
	t.addEdge(t.parents, childID, parentID)
	child.Generation = parent.Generation + 1
	t.version++
	return nil
}

// Unlink removes the parent→child edge in both directions. Unknown IDs or
// a missing edge are a no-op.
func (t *Tree) Unlink(parentID, childID string) {
	if _, ok := t.children[parentID][childID]; !ok {
		return
	}
	delete(t.children[parentID], childID)
	delete(t.parents[childID], parentID)
	t.version++
}

// Partner records a symmetric partner relationship between a and b.
// Returns ErrSelfRelation when both IDs are equal or ErrUnknownPerson when
// either endpoint is missing. Re-adding an existing partnership is a no-op.
func (t *Tree) Partner(a, b string) error {
	if a == b {
		return ErrSelfRelation
	}
	if _, ok := t.people[a]; !ok {
		return ErrUnknownPerson
	}
	if _, ok := t.people[b]; !ok {
		return ErrUnknownPerson
	}
	if _, ok := t.partners[a][b]; ok {
		return nil
	}
	t.addEdge(t.partners, a, b)
	t.addEdge(t.partners, b, a)
	t.version++
	return nil
}

// Unpartner removes the partner relationship between a and b from both
// sides. Unknown IDs or a missing edge are a no-op.
func (t *Tree) Unpartner(a, b string) {
	if _, ok := t.partners[a][b]; !ok {
		return
	}
	delete(t.partners[a], b)
	delete(t.partners[b], a)
	t.version++
}

// IsAncestor reports whether ancestorID appears in the transitive parent
// chain of personID. A person is not their own ancestor.
func (t *Tree) IsAncestor(ancestorID, personID string) bool {
	seen := make(idSet)
	queue := []string{personID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for parent := range t.parents[id] {
			if parent == ancestorID {
				return true
			}
			if _, ok := seen[parent]; ok {
				continue
			}
			seen[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}
	return false
}

// Generations returns the distinct generation values present, ascending.
func (t *Tree) Generations() []int {
	seen := make(map[int]struct{})
	for _, p := range t.people {
		seen[p.Generation] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}

func (t *Tree) addEdge(adj map[string]idSet, from, to string) {
	if adj[from] == nil {
		adj[from] = make(idSet)
	}
	adj[from][to] = struct{}{}
}

// resolve maps an adjacency set to live records in stable (name, ID) order.
func (t *Tree) resolve(set idSet) []*Person {
	out := make([]*Person, 0, len(set))
	for id := range set {
		if p, ok := t.people[id]; ok {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Person) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

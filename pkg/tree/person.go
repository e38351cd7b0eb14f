package tree

import (
	"time"

	"github.com/google/uuid"

	"github.com/bitdegree/heirloom/pkg/geom"
)

// Person is a genealogy record with identity, a generation row, and a
// mutable canvas position. Relationship sets (parents, children, partners)
// are owned by the [Tree] so the mutual-inverse invariant can be enforced
// on every edge mutation; a Person carries only scalar state.
//
// The zero value is not usable - ID must be set before adding to a Tree.
// Use NewPerson to create a person with a generated ID.
type Person struct {
	ID         string     // Unique identifier (uuid)
	Name       string     // Display name
	Generation int        // Row index, 0 = oldest displayed ancestors
	Position   geom.Point // Canvas position, written by layout and drag
	BirthDate  *time.Time // nil when unknown
	Bio        string     // Free-form biography text
	PhotoName  string     // Filename of the portrait in the media vault, "" when none
}

// NewPerson creates a person with a fresh uuid and the given name.
func NewPerson(name string) *Person {
	return &Person{ID: uuid.NewString(), Name: name}
}

// DisplayName returns the name if set, otherwise a placeholder.
func (p *Person) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "Unknown"
}

// BornOn returns the birth date and true, or the zero time and false when
// the date is unset. Callers decide their own fallback; the record never
// substitutes the current time for missing data.
func (p *Person) BornOn() (time.Time, bool) {
	if p.BirthDate == nil {
		return time.Time{}, false
	}
	return *p.BirthDate, true
}

package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bitdegree/heirloom/pkg/geom"
)

// Snapshot is the canonical serialization format for a tree.
// Used for API responses, storage, caching, and export.
//
// Only the parent side of each parent/child edge and both sides of each
// partner edge are stored; Restore rebuilds the inverses, so a snapshot
// round-trips to an identical tree.
type Snapshot struct {
	People []Record `json:"people" bson:"people"`
}

// Record is the serialized form of one person plus their outgoing edges.
type Record struct {
	ID         string     `json:"id" bson:"id"`
	Name       string     `json:"name" bson:"name"`
	Generation int        `json:"generation" bson:"generation"`
	X          float64    `json:"x" bson:"x"`
	Y          float64    `json:"y" bson:"y"`
	BirthDate  *time.Time `json:"birth_date,omitempty" bson:"birth_date,omitempty"`
	Bio        string     `json:"bio,omitempty" bson:"bio,omitempty"`
	PhotoName  string     `json:"photo_name,omitempty" bson:"photo_name,omitempty"`
	Parents    []string   `json:"parents,omitempty" bson:"parents,omitempty"`
	Partners   []string   `json:"partners,omitempty" bson:"partners,omitempty"`
}

// Take converts a tree to its serialization format.
// People and edge lists are emitted in stable order for deterministic
// output, which also makes snapshots usable as cache keys.
func Take(t *Tree) Snapshot {
	people := t.People()
	snap := Snapshot{People: make([]Record, len(people))}
	for i, p := range people {
		rec := Record{
			ID:         p.ID,
			Name:       p.Name,
			Generation: p.Generation,
			X:          p.Position.X,
			Y:          p.Position.Y,
			BirthDate:  p.BirthDate,
			Bio:        p.Bio,
			PhotoName:  p.PhotoName,
		}
		for _, parent := range t.Parents(p.ID) {
			rec.Parents = append(rec.Parents, parent.ID)
		}
		for _, partner := range t.Partners(p.ID) {
			rec.Partners = append(rec.Partners, partner.ID)
		}
		snap.People[i] = rec
	}
	return snap
}

// Restore builds a tree from a snapshot. Returns an error when the snapshot
// violates tree constraints (duplicate IDs, unknown edge endpoints, cycles).
//
// Edges are restored through the same accessors as live mutations, so a
// restored tree carries the same invariants. Link reassigns the child
// generation from the parent, which for a well-formed snapshot matches the
// stored value; the stored generation is reapplied afterwards so a snapshot
// that disagrees with its own edges stays as observed rather than being
// silently corrected.
func Restore(snap Snapshot) (*Tree, error) {
	t := New()
	for _, rec := range snap.People {
		p := &Person{
			ID:         rec.ID,
			Name:       rec.Name,
			Generation: rec.Generation,
			Position:   geom.Point{X: rec.X, Y: rec.Y},
			BirthDate:  rec.BirthDate,
			Bio:        rec.Bio,
			PhotoName:  rec.PhotoName,
		}
		if err := t.Add(p); err != nil {
			return nil, fmt.Errorf("add person %s: %w", rec.ID, err)
		}
	}

	for _, rec := range snap.People {
		for _, parentID := range rec.Parents {
			if err := t.Link(parentID, rec.ID); err != nil {
				return nil, fmt.Errorf("link %s→%s: %w", parentID, rec.ID, err)
			}
		}
		for _, partnerID := range rec.Partners {
			if err := t.Partner(rec.ID, partnerID); err != nil {
				return nil, fmt.Errorf("partner %s↔%s: %w", rec.ID, partnerID, err)
			}
		}
	}

	for _, rec := range snap.People {
		if p, ok := t.Person(rec.ID); ok {
			p.Generation = rec.Generation
		}
	}
	return t, nil
}

// Marshal converts a tree to indented JSON bytes.
func Marshal(t *Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(t, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a tree.
func Unmarshal(data []byte) (*Tree, error) {
	return readFrom(bytes.NewReader(data))
}

// WriteFile writes a tree to a JSON file with 0644 permissions.
func WriteFile(t *Tree, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeTo(t, f)
}

// ReadFile reads a JSON file and returns the decoded tree.
func ReadFile(path string) (*Tree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readFrom(f)
}

func writeTo(t *Tree, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Take(t)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*Tree, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return Restore(snap)
}

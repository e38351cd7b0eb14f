// Package layout computes canvas positions for people from their
// generation and partner relationships.
//
// The strategy is deterministic and cheap: generations become horizontal
// rows, partners are grouped into contiguous blocks within a row, and
// blocks are laid out left to right along a shared cursor. It is a
// "good enough for a family tree" placement, recomputed on demand - not a
// crossing-minimizing tree drawing.
//
// Prior positions are ignored entirely; the same relationships always
// produce the same coordinates. Applying a result to live records is a
// separate, explicit step so a caller may preview and discard.
package layout

import (
	"time"

	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/observability"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// Default spacing constants in canvas units.
const (
	// DefaultVSpacing is the vertical distance between generation rows.
	DefaultVSpacing = 180.0
	// DefaultHSpacing is the horizontal distance allotted per person
	// within a row.
	DefaultHSpacing = 100.0
)

// Options configures the layout spacing. The zero value selects the
// defaults.
type Options struct {
	VSpacing float64 // Vertical distance between generation rows
	HSpacing float64 // Horizontal distance per row member
}

func (o Options) withDefaults() Options {
	if o.VSpacing <= 0 {
		o.VSpacing = DefaultVSpacing
	}
	if o.HSpacing <= 0 {
		o.HSpacing = DefaultHSpacing
	}
	return o
}

// Result maps person IDs to computed positions. It is produced fresh by
// Compute and consumed once by Apply.
type Result map[string]geom.Point

// Compute assigns a position to every person in the tree.
//
// People are bucketed by generation into ascending rows at
// y = generation × VSpacing. Within a row, an unplaced person becomes a
// block root and greedily pulls in still-unplaced partners of the same
// generation, keeping partner pairs adjacent. A person with several
// partners is grouped with whichever partner comes first in stable order;
// the rest fall into later blocks of the same row.
//
// Blocks are centered on a horizontal cursor shared across all rows, which
// then advances by the block width plus one spacing unit. The shared cursor
// makes later generations drift rightward relative to earlier ones; that
// cosmetic artifact is part of the observed behavior and is kept.
//
// Children are never inspected for x-placement, so siblings are not
// clustered under their shared parent.
//
// Compute never fails: an empty tree yields an empty result.
func Compute(t *tree.Tree, opts Options) Result {
	observability.Layout().OnLayoutStart(t.Len())
	start := time.Now()
	defer func() {
		observability.Layout().OnLayoutComplete(t.Len(), time.Since(start))
	}()

	opts = opts.withDefaults()
	result := make(Result, t.Len())

	rows := make(map[int][]*tree.Person)
	for _, p := range t.People() {
		rows[p.Generation] = append(rows[p.Generation], p)
	}

	cursor := 0.0
	for _, gen := range t.Generations() {
		baseY := float64(gen) * opts.VSpacing
		placed := make(map[string]struct{}, len(rows[gen]))

		for _, root := range rows[gen] {
			if _, done := placed[root.ID]; done {
				continue
			}

			block := []*tree.Person{root}
			placed[root.ID] = struct{}{}
			for _, partner := range t.Partners(root.ID) {
				if _, done := placed[partner.ID]; done {
					continue
				}
				if partner.Generation != gen {
					continue
				}
				block = append(block, partner)
				placed[partner.ID] = struct{}{}
			}

			width := float64(len(block)) * opts.HSpacing
			startX := cursor - width/2
			for i, member := range block {
				result[member.ID] = geom.Point{
					X: startX + float64(i)*opts.HSpacing,
					Y: baseY,
				}
			}
			cursor += width + opts.HSpacing
		}
	}
	return result
}

// Apply copies computed positions onto the live records. People absent from
// the result keep their current position. Returns the number of records
// updated; the tree version is bumped once when anything moved.
func Apply(t *tree.Tree, r Result) int {
	updated := 0
	for id, pos := range r {
		if p, ok := t.Person(id); ok {
			p.Position = pos
			updated++
		}
	}
	if updated > 0 {
		t.Touch()
	}
	return updated
}

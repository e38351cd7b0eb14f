// Package palette assigns display colors to generations.
//
// A fixed set of named colors is available; each generation can be assigned
// one by name, and the assignment is persisted through a pluggable backend.
// Generations without an assignment resolve to gray.
//
// A Palette is constructed explicitly and injected into whatever draws
// nodes; there is no process-wide shared instance.
package palette

import (
	"context"
	"errors"
	"slices"

	"github.com/charmbracelet/log"
)

// DefaultColor is the fill used for generations without an assignment.
const DefaultColor = "#808080"

// colors is the fixed palette, keyed by display name.
var colors = map[string]string{
	"Royal Blue":   "#334DCC",
	"Emerald":      "#1A9966",
	"Crimson":      "#CC334D",
	"Goldenrod":    "#D9A621",
	"Purple":       "#800080",
	"Teal":         "#008080",
	"Charcoal":     "#333333",
	"Burnt Orange": "#CC6600",
}

// ErrUnknownColor is returned by [Palette.Assign] for a color name outside
// the fixed palette.
var ErrUnknownColor = errors.New("unknown color name")

// Backend persists generation→color-name assignments.
type Backend interface {
	// LoadAssignments returns the stored assignments, or an empty map when
	// none are stored yet.
	LoadAssignments(ctx context.Context) (map[int]string, error)

	// StoreAssignments replaces the stored assignments.
	StoreAssignments(ctx context.Context, assignments map[int]string) error
}

// Palette resolves generations to colors and manages assignments.
type Palette struct {
	backend     Backend
	logger      *log.Logger
	assignments map[int]string
}

// New creates a palette over the given backend, loading any stored
// assignments. A load failure starts from an empty assignment set and is
// logged rather than failing canvas startup. A nil backend keeps
// assignments in memory only.
func New(ctx context.Context, backend Backend, logger *log.Logger) *Palette {
	if logger == nil {
		logger = log.Default()
	}
	p := &Palette{
		backend:     backend,
		logger:      logger,
		assignments: make(map[int]string),
	}
	if backend != nil {
		stored, err := backend.LoadAssignments(ctx)
		if err != nil {
			logger.Error("load palette assignments failed", "err", err)
		} else if stored != nil {
			p.assignments = stored
		}
	}
	return p
}

// ColorFor returns the hex color assigned to the generation, or
// DefaultColor when unassigned.
func (p *Palette) ColorFor(generation int) string {
	if name, ok := p.assignments[generation]; ok {
		if hex, known := colors[name]; known {
			return hex
		}
	}
	return DefaultColor
}

// NameFor returns the assigned color name for the generation and true, or
// "" and false when unassigned.
func (p *Palette) NameFor(generation int) (string, bool) {
	name, ok := p.assignments[generation]
	return name, ok
}

// Available returns the palette color names not yet assigned to any
// generation, sorted.
func (p *Palette) Available() []string {
	assigned := make(map[string]struct{}, len(p.assignments))
	for _, name := range p.assignments {
		assigned[name] = struct{}{}
	}
	var out []string
	for name := range colors {
		if _, taken := assigned[name]; !taken {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Assign binds a palette color to a generation and persists the result.
// A persistence failure keeps the in-memory assignment and is logged.
func (p *Palette) Assign(ctx context.Context, name string, generation int) error {
	if _, ok := colors[name]; !ok {
		return ErrUnknownColor
	}
	p.assignments[generation] = name
	if p.backend != nil {
		if err := p.backend.StoreAssignments(ctx, p.assignments); err != nil {
			p.logger.Error("store palette assignments failed", "err", err)
		}
	}
	return nil
}

// Names returns all palette color names, sorted.
func Names() []string {
	out := make([]string, 0, len(colors))
	for name := range colors {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

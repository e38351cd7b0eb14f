package canvas

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// Mode is the interaction mode of the canvas.
type Mode int

const (
	// ModeIdle is the default mode: taps open the detail view, drags move
	// nodes.
	ModeIdle Mode = iota
	// ModeAwaitingSource is connect mode before a source was picked: the
	// next tap records the tapped person as the link source (the parent).
	ModeAwaitingSource
	// ModeAwaitingTarget is connect mode after a source was picked: the
	// next tap attempts to link the tapped person as the child.
	ModeAwaitingTarget
)

// String returns a short label for the mode.
func (m Mode) String() string {
	switch m {
	case ModeAwaitingSource:
		return "awaiting-source"
	case ModeAwaitingTarget:
		return "awaiting-target"
	default:
		return "idle"
	}
}

// Saver is the slice of the persistence collaborator the controller needs:
// an atomic save of the current state. Failures are logged, never surfaced.
type Saver interface {
	Save(ctx context.Context) error
}

// Controller drives per-node interaction: drag-to-reposition, tap-to-select,
// and the two-step connect workflow for creating parent→child links.
//
// The controller mutates the tree directly and persists through the
// injected Saver; it never rolls back in-memory state on a failed save.
// It lives for one canvas session.
type Controller struct {
	tree   *tree.Tree
	saver  Saver
	logger *log.Logger

	// OpenDetail is invoked on an idle tap with the tapped person's ID.
	// The detail view is an external collaborator; a nil func means taps
	// select nothing.
	OpenDetail func(id string)

	mode     Mode
	sourceID string

	dragID    string
	dragDelta geom.Point // raw screen-space delta of the active drag
}

// NewController creates a controller for one canvas session.
// A nil logger falls back to the default logger.
func NewController(t *tree.Tree, saver Saver, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{tree: t, saver: saver, logger: logger}
}

// Mode returns the current interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// SourceID returns the pending link source, or "" outside connect mode.
func (c *Controller) SourceID() string { return c.sourceID }

// ToggleConnect flips connect mode. Turning it on enters ModeAwaitingSource;
// turning it off returns to ModeIdle. Either way the pending source is
// cleared and any active drag is abandoned without committing.
func (c *Controller) ToggleConnect() {
	if c.mode == ModeIdle {
		c.mode = ModeAwaitingSource
	} else {
		c.mode = ModeIdle
	}
	c.sourceID = ""
	c.dragID = ""
	c.dragDelta = geom.Point{}
}

// Tap dispatches a tap on the given person according to the current mode.
//
//   - ModeIdle: opens the detail view, no state mutation here.
//   - ModeAwaitingSource: records the person as source, moves to
//     ModeAwaitingTarget.
//   - ModeAwaitingTarget: attempts the link source→person. A self-tap or a
//     cyclic link is a logged no-op that keeps the mode and the source; a
//     valid link commits, persists, and resets to ModeIdle.
func (c *Controller) Tap(ctx context.Context, id string) {
	switch c.mode {
	case ModeIdle:
		if c.OpenDetail != nil {
			c.OpenDetail(id)
		}

	case ModeAwaitingSource:
		c.sourceID = id
		c.mode = ModeAwaitingTarget

	case ModeAwaitingTarget:
		c.commitLink(ctx, id)
	}
}

func (c *Controller) commitLink(ctx context.Context, targetID string) {
	err := c.tree.Link(c.sourceID, targetID)
	switch {
	case err == nil:
		c.logger.Info("linked", "parent", c.sourceID, "child", targetID)
		c.persist(ctx)
		c.sourceID = ""
		c.mode = ModeIdle
	default:
		// Expected no-ops: self-links and cycle rejections keep the mode
		// and the source so the user can pick a different target.
		c.logger.Debug("link rejected", "parent", c.sourceID, "child", targetID, "err", err)
	}
}

// BeginDrag starts dragging a node. Drags are disabled in connect mode to
// keep taps unambiguous; only one node drag can be active at a time, and it
// owns all pointer movement until EndDrag.
func (c *Controller) BeginDrag(id string) {
	if c.mode != ModeIdle {
		return
	}
	if _, ok := c.tree.Person(id); !ok {
		return
	}
	c.dragID = id
	c.dragDelta = geom.Point{}
}

// UpdateDrag records the cumulative screen-space translation of the active
// drag gesture.
func (c *Controller) UpdateDrag(translation geom.Point) {
	if c.dragID == "" {
		return
	}
	c.dragDelta = translation
}

// DragID returns the node currently being dragged, or "".
func (c *Controller) DragID() string { return c.dragID }

// DragOffset returns the canvas-space offset to add to the dragged node's
// base position while the gesture is live. Dividing the screen delta by the
// zoom scale keeps finger and node movement 1:1 at any zoom level.
// Returns the zero point for any node not being dragged.
func (c *Controller) DragOffset(id string, scale float64) geom.Point {
	if id != c.dragID || scale == 0 {
		return geom.Point{}
	}
	return c.dragDelta.Scale(1 / scale)
}

// EndDrag releases the active drag: the node's persisted position moves by
// the accumulated delta divided by scale, the transient delta resets, and
// the change is pushed to the persistence collaborator fire-and-forget.
func (c *Controller) EndDrag(ctx context.Context, scale float64) {
	if c.dragID == "" {
		return
	}
	if p, ok := c.tree.Person(c.dragID); ok && scale != 0 {
		p.Position = p.Position.Add(c.dragDelta.Scale(1 / scale))
		c.tree.Touch()
		c.persist(ctx)
	}
	c.dragID = ""
	c.dragDelta = geom.Point{}
}

// persist pushes state to the saver. Failures leave in-memory state alone:
// the displayed tree diverges from storage until the next successful save.
func (c *Controller) persist(ctx context.Context) {
	if c.saver == nil {
		return
	}
	if err := c.saver.Save(ctx); err != nil {
		c.logger.Error("save failed", "err", err)
	}
}

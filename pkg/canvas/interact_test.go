package canvas

import (
	"context"
	"errors"
	"testing"

	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// fakeSaver counts saves and optionally fails them.
type fakeSaver struct {
	calls int
	err   error
}

func (f *fakeSaver) Save(ctx context.Context) error {
	f.calls++
	return f.err
}

func twoPersonTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New()
	for _, spec := range []struct{ id, name string }{{"a", "Ada"}, {"b", "Ben"}} {
		if err := tr.Add(&tree.Person{ID: spec.id, Name: spec.name}); err != nil {
			t.Fatalf("Add(%s) = %v", spec.id, err)
		}
	}
	return tr
}

func TestController_ToggleConnect(t *testing.T) {
	ctl := NewController(twoPersonTree(t), nil, nil)

	ctl.ToggleConnect()
	if ctl.Mode() != ModeAwaitingSource {
		t.Errorf("Mode() = %v, want ModeAwaitingSource", ctl.Mode())
	}

	ctl.Tap(context.Background(), "a")
	if ctl.Mode() != ModeAwaitingTarget || ctl.SourceID() != "a" {
		t.Errorf("Mode() = %v, SourceID() = %q, want awaiting-target with source a", ctl.Mode(), ctl.SourceID())
	}

	// Toggling off clears the pending source.
	ctl.ToggleConnect()
	if ctl.Mode() != ModeIdle || ctl.SourceID() != "" {
		t.Errorf("Mode() = %v, SourceID() = %q after toggle off, want idle with no source", ctl.Mode(), ctl.SourceID())
	}
}

func TestController_ToggleConnectAbandonsDrag(t *testing.T) {
	tr := twoPersonTree(t)
	ctl := NewController(tr, nil, nil)

	ctl.BeginDrag("a")
	ctl.UpdateDrag(geom.Point{X: 40, Y: 40})
	ctl.ToggleConnect()

	if ctl.DragID() != "" {
		t.Errorf("DragID() = %q after toggle, want empty", ctl.DragID())
	}
	a, _ := tr.Person("a")
	if a.Position != (geom.Point{}) {
		t.Errorf("a.Position = %v, drag must not commit on abandon", a.Position)
	}
}

func TestController_TapIdleOpensDetail(t *testing.T) {
	ctl := NewController(twoPersonTree(t), nil, nil)
	var opened string
	ctl.OpenDetail = func(id string) { opened = id }

	ctl.Tap(context.Background(), "b")

	if opened != "b" {
		t.Errorf("OpenDetail got %q, want b", opened)
	}
	if ctl.Mode() != ModeIdle {
		t.Errorf("Mode() = %v after idle tap, want ModeIdle", ctl.Mode())
	}
}

func TestController_ConnectLinksAndResets(t *testing.T) {
	tr := twoPersonTree(t)
	saver := &fakeSaver{}
	ctl := NewController(tr, saver, nil)

	ctl.ToggleConnect()
	ctl.Tap(context.Background(), "a")
	ctl.Tap(context.Background(), "b")

	if parents := tr.Parents("b"); len(parents) != 1 || parents[0].ID != "a" {
		t.Errorf("Parents(b) = %v, want [a]", parents)
	}
	if ctl.Mode() != ModeIdle || ctl.SourceID() != "" {
		t.Errorf("Mode() = %v, SourceID() = %q after link, want idle with no source", ctl.Mode(), ctl.SourceID())
	}
	if saver.calls != 1 {
		t.Errorf("Save called %d times, want 1", saver.calls)
	}
}

func TestController_ConnectSelfTapKeepsState(t *testing.T) {
	tr := twoPersonTree(t)
	saver := &fakeSaver{}
	ctl := NewController(tr, saver, nil)

	ctl.ToggleConnect()
	ctl.Tap(context.Background(), "a")
	ctl.Tap(context.Background(), "a")

	if ctl.Mode() != ModeAwaitingTarget || ctl.SourceID() != "a" {
		t.Errorf("Mode() = %v, SourceID() = %q after self-tap, want state kept", ctl.Mode(), ctl.SourceID())
	}
	if saver.calls != 0 {
		t.Errorf("Save called %d times on rejected link, want 0", saver.calls)
	}

	// A retry with a valid target still works.
	ctl.Tap(context.Background(), "b")
	if parents := tr.Parents("b"); len(parents) != 1 {
		t.Errorf("Parents(b) = %v after retry, want [a]", parents)
	}
}

func TestController_ConnectCycleKeepsState(t *testing.T) {
	tr := twoPersonTree(t)
	if err := tr.Link("a", "b"); err != nil {
		t.Fatalf("Link() = %v", err)
	}
	ctl := NewController(tr, nil, nil)

	ctl.ToggleConnect()
	ctl.Tap(context.Background(), "b")
	ctl.Tap(context.Background(), "a") // would make a its own ancestor

	if ctl.Mode() != ModeAwaitingTarget || ctl.SourceID() != "b" {
		t.Errorf("Mode() = %v, SourceID() = %q after cycle rejection, want state kept", ctl.Mode(), ctl.SourceID())
	}
	if parents := tr.Parents("a"); len(parents) != 0 {
		t.Errorf("Parents(a) = %v, cyclic link must not be applied", parents)
	}
}

func TestController_DragBlockedInConnectMode(t *testing.T) {
	ctl := NewController(twoPersonTree(t), nil, nil)
	ctl.ToggleConnect()

	ctl.BeginDrag("a")

	if ctl.DragID() != "" {
		t.Errorf("DragID() = %q in connect mode, want empty", ctl.DragID())
	}
}

func TestController_DragUnknownPerson(t *testing.T) {
	ctl := NewController(twoPersonTree(t), nil, nil)
	ctl.BeginDrag("ghost")
	if ctl.DragID() != "" {
		t.Errorf("DragID() = %q for unknown person, want empty", ctl.DragID())
	}
}

func TestController_DragOffsetScaled(t *testing.T) {
	ctl := NewController(twoPersonTree(t), nil, nil)
	ctl.BeginDrag("a")
	ctl.UpdateDrag(geom.Point{X: 100, Y: 50})

	// Screen delta divided by zoom scale keeps movement 1:1.
	if got := ctl.DragOffset("a", 2); got != (geom.Point{X: 50, Y: 25}) {
		t.Errorf("DragOffset(a, 2) = %v, want {50 25}", got)
	}
	if got := ctl.DragOffset("b", 2); got != (geom.Point{}) {
		t.Errorf("DragOffset(b, 2) = %v, want zero for undragged node", got)
	}
	if got := ctl.DragOffset("a", 0); got != (geom.Point{}) {
		t.Errorf("DragOffset(a, 0) = %v, want zero for zero scale", got)
	}
}

func TestController_EndDragCommitsPosition(t *testing.T) {
	tr := twoPersonTree(t)
	a, _ := tr.Person("a")
	a.Position = geom.Point{X: 10, Y: 10}
	saver := &fakeSaver{}
	ctl := NewController(tr, saver, nil)

	ctl.BeginDrag("a")
	ctl.UpdateDrag(geom.Point{X: 60, Y: -30})
	ctl.EndDrag(context.Background(), 2)

	if a.Position != (geom.Point{X: 40, Y: -5}) {
		t.Errorf("a.Position = %v, want {40 -5}", a.Position)
	}
	if ctl.DragID() != "" {
		t.Errorf("DragID() = %q after EndDrag, want empty", ctl.DragID())
	}
	if saver.calls != 1 {
		t.Errorf("Save called %d times, want 1", saver.calls)
	}
}

func TestController_FailedSaveKeepsState(t *testing.T) {
	tr := twoPersonTree(t)
	a, _ := tr.Person("a")
	saver := &fakeSaver{err: errors.New("disk full")}
	ctl := NewController(tr, saver, nil)

	ctl.BeginDrag("a")
	ctl.UpdateDrag(geom.Point{X: 20, Y: 20})
	ctl.EndDrag(context.Background(), 1)

	// In-memory state is never rolled back on a failed save.
	if a.Position != (geom.Point{X: 20, Y: 20}) {
		t.Errorf("a.Position = %v after failed save, want {20 20}", a.Position)
	}
	if saver.calls != 1 {
		t.Errorf("Save called %d times, want 1", saver.calls)
	}
}

package layout

import (
	"testing"

	"github.com/bitdegree/heirloom/pkg/tree"
)

// addPerson inserts a person with a fixed generation or fails the test.
func addPerson(t *testing.T, tr *tree.Tree, id, name string, gen int) *tree.Person {
	t.Helper()
	p := &tree.Person{ID: id, Name: name, Generation: gen}
	if err := tr.Add(p); err != nil {
		t.Fatalf("Add(%s) = %v", id, err)
	}
	return p
}

func TestCompute_Empty(t *testing.T) {
	result := Compute(tree.New(), Options{})
	if len(result) != 0 {
		t.Errorf("Compute() = %d entries, want 0", len(result))
	}
}

func TestCompute_GenerationRows(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)
	addPerson(t, tr, "b", "Ben", 1)
	addPerson(t, tr, "c", "Cora", 3)

	result := Compute(tr, Options{})

	cases := []struct {
		id    string
		wantY float64
	}{
		{"a", 0},
		{"b", 180},
		{"c", 540},
	}
	for _, tc := range cases {
		if got := result[tc.id].Y; got != tc.wantY {
			t.Errorf("result[%s].Y = %v, want %v", tc.id, got, tc.wantY)
		}
	}
}

func TestCompute_SinglePersonCentered(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)

	result := Compute(tr, Options{})

	// One block of width 100 centered on cursor 0.
	if got := result["a"].X; got != -50 {
		t.Errorf("result[a].X = %v, want -50", got)
	}
}

func TestCompute_PartnersAdjacent(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)
	addPerson(t, tr, "b", "Ben", 0)
	if err := tr.Partner("a", "b"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}

	result := Compute(tr, Options{})

	// Block [Ada, Ben] in stable order: width 200 centered on 0, members
	// one HSpacing apart.
	if got := result["a"].X; got != -100 {
		t.Errorf("result[a].X = %v, want -100", got)
	}
	if got := result["b"].X; got != 0 {
		t.Errorf("result[b].X = %v, want 0", got)
	}
	if result["a"].Y != result["b"].Y {
		t.Errorf("partners on different rows: %v vs %v", result["a"].Y, result["b"].Y)
	}
}

func TestCompute_PartnerInOtherGenerationNotPulled(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)
	addPerson(t, tr, "b", "Ben", 1)
	if err := tr.Partner("a", "b"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}

	result := Compute(tr, Options{})

	if result["a"].Y == result["b"].Y {
		t.Error("cross-generation partners placed on the same row")
	}
}

func TestCompute_SharedCursorDrift(t *testing.T) {
	// The horizontal cursor is shared across rows, so a second generation
	// starts to the right of where the first one ended.
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)
	addPerson(t, tr, "b", "Ben", 1)

	result := Compute(tr, Options{})

	if got := result["a"].X; got != -50 {
		t.Errorf("result[a].X = %v, want -50", got)
	}
	// Cursor after Ada's block: 0 + 100 + 100 = 200; Ben centers there.
	if got := result["b"].X; got != 150 {
		t.Errorf("result[b].X = %v, want 150", got)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "c", "Cora", 0)
	addPerson(t, tr, "a", "Ada", 0)
	addPerson(t, tr, "b", "Ben", 1)
	if err := tr.Partner("a", "c"); err != nil {
		t.Fatalf("Partner() = %v", err)
	}

	first := Compute(tr, Options{})
	second := Compute(tr, Options{})

	if len(first) != len(second) {
		t.Fatalf("result sizes differ: %d vs %d", len(first), len(second))
	}
	for id, pos := range first {
		if second[id] != pos {
			t.Errorf("result[%s] = %v then %v, want identical", id, pos, second[id])
		}
	}
}

func TestCompute_IgnoresPriorPositions(t *testing.T) {
	tr := tree.New()
	p := addPerson(t, tr, "a", "Ada", 0)
	p.Position.X = 999
	p.Position.Y = 999

	result := Compute(tr, Options{})

	if result["a"].X == 999 || result["a"].Y == 999 {
		t.Errorf("result[a] = %v, prior position leaked into layout", result["a"])
	}
}

func TestCompute_CustomSpacing(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 2)

	result := Compute(tr, Options{VSpacing: 90, HSpacing: 40})

	if got := result["a"].Y; got != 180 {
		t.Errorf("result[a].Y = %v, want 180 (2 × 90)", got)
	}
	if got := result["a"].X; got != -20 {
		t.Errorf("result[a].X = %v, want -20 (half of 40)", got)
	}
}

func TestApply(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)
	addPerson(t, tr, "b", "Ben", 1)
	before := tr.Version()

	result := Compute(tr, Options{})
	result["ghost"] = result["a"] // entries for unknown people are skipped

	updated := Apply(tr, result)

	if updated != 2 {
		t.Errorf("Apply() = %d, want 2", updated)
	}
	a, _ := tr.Person("a")
	if a.Position != result["a"] {
		t.Errorf("a.Position = %v, want %v", a.Position, result["a"])
	}
	if tr.Version() != before+1 {
		t.Errorf("Version() = %d, want %d (one bump per apply)", tr.Version(), before+1)
	}
}

func TestApply_EmptyResult(t *testing.T) {
	tr := tree.New()
	addPerson(t, tr, "a", "Ada", 0)
	before := tr.Version()

	if updated := Apply(tr, Result{}); updated != 0 {
		t.Errorf("Apply() = %d, want 0", updated)
	}
	if tr.Version() != before {
		t.Errorf("Version() = %d after empty apply, want %d", tr.Version(), before)
	}
}

package layout

import (
	"fmt"
	"testing"

	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph"
	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph/builder"
	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
)

// build runs the hierarchy builder and fails the test on error.
func build(t *testing.T, in *intake.Input) *bgraph.BlockGraph {
	t.Helper()
	g, err := builder.Build(in)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	return g
}

func TestLeafSizing(t *testing.T) {
	tests := []struct {
		label string
		w, h  int
	}{
		{"", 3, 3},
		{"x", 3, 3},
		{"abcd", 6, 3},
		{"a longer label", 16, 3},
	}
	for _, tt := range tests {
		w, h := leafSize(tt.label)
		if w != tt.w || h != tt.h {
			t.Errorf("leafSize(%q) = (%d, %d), want (%d, %d)", tt.label, w, h, tt.w, tt.h)
		}
	}
}

func TestSlots(t *testing.T) {
	tests := []struct {
		length, spacing, want int
	}{
		{3, 1, 2},  // offsets 0, 2
		{5, 1, 3},  // offsets 0, 2, 4
		{3, 0, 3},  // every cell
		{1, 1, 1},  // offset 0 only
		{0, 1, 0},
		{7, 2, 3}, // offsets 0, 3, 6
	}
	for _, tt := range tests {
		if got := slots(tt.length, tt.spacing); got != tt.want {
			t.Errorf("slots(%d, %d) = %d, want %d", tt.length, tt.spacing, got, tt.want)
		}
	}
}

func TestGrowForPorts(t *testing.T) {
	// A 3x3 block offers 8 slots at spacing 1. Nine endpoints force growth.
	w, h := growForPorts(3, 3, 9, 1)
	if capacity(w, h, 1) < 9 {
		t.Errorf("growForPorts(3, 3, 9, 1) = (%d, %d), capacity %d < 9", w, h, capacity(w, h, 1))
	}
	if w < 3 || h < 3 {
		t.Errorf("growForPorts must never shrink, got (%d, %d)", w, h)
	}

	// Enough capacity already: untouched.
	w, h = growForPorts(5, 3, 4, 1)
	if w != 5 || h != 3 {
		t.Errorf("growForPorts(5, 3, 4, 1) = (%d, %d), want (5, 3)", w, h)
	}
}

func TestApplySelfLoopGrowth(t *testing.T) {
	// Seven incoming edges plus a self-loop make nine endpoints on hub; a
	// default 3x3 leaf offers eight slots, so hub must grow. Counting the
	// self-loop once would leave it at 3x3.
	in := &intake.Input{
		Name:  "g",
		Nodes: []intake.Node{{ID: "hub"}},
		Edges: []intake.Edge{{From: "hub", To: "hub"}},
	}
	for i := 0; i < 7; i++ {
		src := fmt.Sprintf("s%d", i)
		in.Nodes = append(in.Nodes, intake.Node{ID: src})
		in.Edges = append(in.Edges, intake.Edge{From: src, To: "hub"})
	}
	g := build(t, in)
	if err := Apply(g, Config{}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	hub, _ := g.Block("hub")
	if got := capacity(hub.Width, hub.Height, DefaultPortSpacing); got < 9 {
		t.Errorf("hub %dx%d offers %d slots, want at least 9", hub.Width, hub.Height, got)
	}
}

func TestApplyTwoLeaves(t *testing.T) {
	g := build(t, &intake.Input{
		Name:  "g",
		Nodes: []intake.Node{{ID: "a"}, {ID: "b"}},
		Edges: []intake.Edge{{From: "a", To: "b"}},
	})
	if err := Apply(g, Config{}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	root := g.Root()
	if root.X != 0 || root.Y != 0 {
		t.Errorf("root at (%d, %d), want (0, 0)", root.X, root.Y)
	}
	a, _ := g.Block("a")
	b, _ := g.Block("b")
	if !root.Contains(a, DefaultPadding) || !root.Contains(b, DefaultPadding) {
		t.Errorf("leaves escape root: a=%+v b=%+v root=%+v", a, b, root)
	}
	if a.Overlaps(b) {
		t.Errorf("sibling leaves overlap: a=%+v b=%+v", a, b)
	}
	// Declaration order is alphabetical; "a" is packed first.
	if a.X >= b.X {
		t.Errorf("a.X = %d not left of b.X = %d", a.X, b.X)
	}
}

func TestApplyRowWrapping(t *testing.T) {
	// Ten unlabeled leaves, 3 cells wide each. With a row width of 15 a
	// row holds four children (0, 4, 8, 12), so ten leaves need 3 rows.
	in := &intake.Input{Name: "g"}
	for i := 0; i < 10; i++ {
		in.Nodes = append(in.Nodes, intake.Node{ID: fmt.Sprintf("n%d", i), Label: " "})
	}
	g := build(t, in)
	if err := Apply(g, Config{MaxRowWidth: 15}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	rows := make(map[int][]*bgraph.Block)
	for _, id := range g.Root().Children {
		b, _ := g.Block(id)
		rows[b.Y] = append(rows[b.Y], b)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for y, row := range rows {
		for _, b := range row {
			if b.Right() > g.Root().Right()-DefaultPadding {
				t.Errorf("block %q overflows row at y=%d", b.ID, y)
			}
		}
	}
	// Row width 15 plus padding on both sides.
	if want := 15 + 2*DefaultPadding; g.Root().Width != want {
		t.Errorf("root width = %d, want %d", g.Root().Width, want)
	}
}

func TestApplyInclusiveBoundary(t *testing.T) {
	// Two 3-wide children and a 1-cell gap end exactly at width 7: the
	// second child stays on the first row.
	in := &intake.Input{Name: "g", Nodes: []intake.Node{{ID: "a"}, {ID: "b"}}}
	g := build(t, in)
	if err := Apply(g, Config{MaxRowWidth: 7}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	a, _ := g.Block("a")
	b, _ := g.Block("b")
	if a.Y != b.Y {
		t.Errorf("exact fit wrapped: a.Y=%d b.Y=%d", a.Y, b.Y)
	}
}

func TestApplyNestedContainers(t *testing.T) {
	g := build(t, &intake.Input{
		Name:      "g",
		Subgraphs: []intake.Subgraph{{ID: "outer"}, {ID: "inner", Parent: "outer"}},
		Nodes:     []intake.Node{{ID: "leaf", Parent: "inner"}},
	})
	if err := Apply(g, Config{}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}

	root := g.Root()
	outer, _ := g.Block("outer")
	inner, _ := g.Block("inner")
	leaf, _ := g.Block("leaf")

	if !root.Contains(outer, DefaultPadding) {
		t.Errorf("outer escapes root")
	}
	if !outer.Contains(inner, DefaultPadding) {
		t.Errorf("inner escapes outer")
	}
	if !inner.Contains(leaf, DefaultPadding) {
		t.Errorf("leaf escapes inner")
	}
	if err := g.Validate(DefaultPadding); err != nil {
		t.Errorf("Validate after layout: %v", err)
	}
}

func TestApplyEmptyContainerMinimum(t *testing.T) {
	g := build(t, &intake.Input{
		Name:      "g",
		Subgraphs: []intake.Subgraph{{ID: "empty"}},
	})
	if err := Apply(g, Config{}); err != nil {
		t.Fatalf("Apply error: %v", err)
	}
	e, _ := g.Block("empty")
	// Same minimum as an unlabeled leaf, widened for the label "empty".
	if e.Height != 3 {
		t.Errorf("empty container height = %d, want 3", e.Height)
	}
	if e.Width < 3 {
		t.Errorf("empty container width = %d, want >= 3", e.Width)
	}
}

func TestApplyDeterminism(t *testing.T) {
	in := &intake.Input{
		Name:      "g",
		Subgraphs: []intake.Subgraph{{ID: "s"}},
		Nodes: []intake.Node{
			{ID: "a", Parent: "s"}, {ID: "b"}, {ID: "c", Parent: "s"},
		},
		Edges: []intake.Edge{{From: "a", To: "b"}, {From: "b", To: "c"}},
	}

	coords := func() map[string][4]int {
		g := build(t, in)
		if err := Apply(g, Config{}); err != nil {
			t.Fatalf("Apply error: %v", err)
		}
		out := make(map[string][4]int)
		for _, b := range g.Blocks() {
			out[b.ID] = [4]int{b.X, b.Y, b.Width, b.Height}
		}
		return out
	}

	first, second := coords(), coords()
	for id, c1 := range first {
		if c2 := second[id]; c1 != c2 {
			t.Errorf("block %q coordinates differ across runs: %v vs %v", id, c1, c2)
		}
	}
}

func TestApplyBadConfig(t *testing.T) {
	g := build(t, &intake.Input{Name: "g", Nodes: []intake.Node{{ID: "a"}}})
	err := Apply(g, Config{MaxRowWidth: 2})
	if !apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
		t.Errorf("Apply(row width 2) = %v, want INVALID_INPUT", err)
	}
}

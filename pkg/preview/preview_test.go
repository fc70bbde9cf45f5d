package preview

import (
	"strings"
	"testing"

	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
)

func TestToDOT(t *testing.T) {
	in := &intake.Input{
		Name:      "sys",
		Subgraphs: []intake.Subgraph{{ID: "grp", Label: "Group"}},
		Nodes: []intake.Node{
			{ID: "a", Label: "Alpha", Parent: "grp"},
			{ID: "b"},
		},
		Edges: []intake.Edge{{From: "a", To: "b", Label: "x"}},
	}
	dot := ToDOT(in)

	for _, want := range []string{
		`digraph "sys" {`,
		`subgraph "cluster_grp" {`,
		`label="Group";`,
		`"a" [label="Alpha"];`,
		`"b";`,
		`"a" -> "b" [label="x"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT output missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTNesting(t *testing.T) {
	in := &intake.Input{
		Name: "g",
		Subgraphs: []intake.Subgraph{
			{ID: "outer"},
			{ID: "inner", Parent: "outer"},
		},
		Nodes: []intake.Node{{ID: "deep", Parent: "inner"}},
	}
	dot := ToDOT(in)

	outerAt := strings.Index(dot, `"cluster_outer"`)
	innerAt := strings.Index(dot, `"cluster_inner"`)
	nodeAt := strings.Index(dot, `"deep"`)
	if outerAt < 0 || innerAt < 0 || nodeAt < 0 {
		t.Fatalf("missing cluster or node declarations:\n%s", dot)
	}
	if !(outerAt < innerAt && innerAt < nodeAt) {
		t.Errorf("nesting order wrong: outer@%d inner@%d deep@%d", outerAt, innerAt, nodeAt)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" viewBox="0.00 0.00 120.50 80.00" other="x">body</svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 120.50 80.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="121"`) && !strings.Contains(out, `width="120"`) {
		t.Errorf("width not rewritten: %s", out)
	}
}

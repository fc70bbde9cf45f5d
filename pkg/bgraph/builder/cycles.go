package builder

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
)

// checkContainmentCycles verifies that the declared parent relationships
// form a forest. The subgraphs are loaded into a directed graph
// (parent -> child) and topologically sorted; any unorderable component
// is a containment cycle and is reported with its lexicographically
// smallest member.
func checkContainmentCycles(subgraphs []intake.Subgraph) error {
	index := make(map[string]int64, len(subgraphs))
	names := make([]string, 0, len(subgraphs))
	for _, sg := range subgraphs {
		if _, ok := index[sg.ID]; !ok {
			index[sg.ID] = int64(len(names))
			names = append(names, sg.ID)
		}
	}

	dg := simple.NewDirectedGraph()
	for _, id := range index {
		dg.AddNode(simple.Node(id))
	}
	for _, sg := range subgraphs {
		if sg.Parent == "" {
			continue
		}
		// gonum rejects self-edges; a self-parent is the smallest cycle.
		if sg.Parent == sg.ID {
			return apperrors.New(apperrors.ErrCodeContainmentCycle,
				"subgraph %q declares itself as parent", sg.ID)
		}
		dg.SetEdge(simple.Edge{F: simple.Node(index[sg.Parent]), T: simple.Node(index[sg.ID])})
	}

	if _, err := topo.Sort(dg); err != nil {
		var unordered topo.Unorderable
		if errors.As(err, &unordered) && len(unordered) > 0 {
			members := make([]string, 0, len(unordered[0]))
			for _, n := range unordered[0] {
				members = append(members, names[n.ID()])
			}
			slices.Sort(members)
			return apperrors.New(apperrors.ErrCodeContainmentCycle,
				"containment cycle through subgraph %q", members[0])
		}
		return apperrors.Wrap(apperrors.ErrCodeInternal, err, "sort containment graph")
	}
	return nil
}

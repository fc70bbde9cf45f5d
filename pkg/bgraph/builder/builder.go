// Package builder constructs the block tree from a normalized intake
// graph. Every node becomes a leaf block, every subgraph a container
// block, and every edge a connection with endpoints resolved to block
// identifiers. Geometry stays unset; the layout engine owns it.
package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph"
	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
)

// Build converts the input into an unlayouted block graph.
//
// Identifier collisions between the root, subgraphs, and nodes are
// resolved by suffixing "~N" with a per-identifier counter; the original
// names keep working as edge endpoints. Child ordering inside every
// container is leaf blocks first, then sub-containers, each group
// alphabetical.
//
// Structural problems in the input - an edge endpoint or declared parent
// naming nothing, or parent declarations forming a cycle - abort the
// build with a STRUCTURAL_* error. No partially built graph is returned.
func Build(in *intake.Input) (*bgraph.BlockGraph, error) {
	subs := make(map[string]intake.Subgraph, len(in.Subgraphs))
	for _, sg := range in.Subgraphs {
		subs[sg.ID] = sg
	}

	if err := checkParents(in, subs); err != nil {
		return nil, err
	}
	if err := checkContainmentCycles(in.Subgraphs); err != nil {
		return nil, err
	}

	b := &treeBuilder{
		graph:    bgraph.New(),
		taken:    make(map[string]bool),
		nodeID:   make(map[string]string, len(in.Nodes)),
		subID:    make(map[string]string, len(in.Subgraphs)),
		childSub: make(map[string][]intake.Subgraph),
		children: make(map[string][]intake.Node),
	}
	for _, sg := range in.Subgraphs {
		b.childSub[sg.Parent] = append(b.childSub[sg.Parent], sg)
	}
	for _, n := range in.Nodes {
		b.children[n.Parent] = append(b.children[n.Parent], n)
	}

	rootID := b.claim(rootName(in))
	if err := b.graph.AddBlock(&bgraph.Block{
		ID:        rootID,
		Label:     in.Name,
		X:         bgraph.Unset,
		Y:         bgraph.Unset,
		Width:     bgraph.Unset,
		Height:    bgraph.Unset,
		Container: true,
	}); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "add root block")
	}
	if err := b.populate("", rootID, 1); err != nil {
		return nil, err
	}

	if err := resolveEdges(b, in); err != nil {
		return nil, err
	}
	return b.graph, nil
}

// rootName picks the root block identifier. An empty graph name falls
// back to "root".
func rootName(in *intake.Input) string {
	if in.Name != "" {
		return in.Name
	}
	return "root"
}

// checkParents verifies that every declared parent names a known subgraph.
func checkParents(in *intake.Input, subs map[string]intake.Subgraph) error {
	for _, sg := range in.Subgraphs {
		if sg.Parent == "" {
			continue
		}
		if _, ok := subs[sg.Parent]; !ok {
			return apperrors.New(apperrors.ErrCodeUnknownParent,
				"subgraph %q declares unknown parent %q", sg.ID, sg.Parent)
		}
	}
	for _, n := range in.Nodes {
		if n.Parent == "" {
			continue
		}
		if _, ok := subs[n.Parent]; !ok {
			return apperrors.New(apperrors.ErrCodeUnknownParent,
				"node %q declares unknown parent %q", n.ID, n.Parent)
		}
	}
	return nil
}

// treeBuilder carries the state of one Build run.
type treeBuilder struct {
	graph  *bgraph.BlockGraph
	taken  map[string]bool   // final block IDs already claimed
	nodeID map[string]string // original node ID -> block ID
	subID  map[string]string // original subgraph ID -> block ID

	childSub map[string][]intake.Subgraph // parent -> child subgraphs
	children map[string][]intake.Node     // parent -> child nodes
}

// claim reserves a block identifier, suffixing "~N" on collision.
func (b *treeBuilder) claim(id string) string {
	final := id
	for n := 1; b.taken[final]; n++ {
		final = fmt.Sprintf("%s~%d", id, n)
	}
	b.taken[final] = true
	return final
}

// populate adds the children of one container: leaves first, then
// sub-containers, each group alphabetical. Recurses into sub-containers.
func (b *treeBuilder) populate(origParent, parentBlock string, depth int) error {
	nodes := slices.Clone(b.children[origParent])
	slices.SortFunc(nodes, func(x, y intake.Node) int { return strings.Compare(x.ID, y.ID) })
	for _, n := range nodes {
		id := b.claim(n.ID)
		b.nodeID[n.ID] = id
		if err := b.graph.AddBlock(&bgraph.Block{
			ID:     id,
			Label:  nodeLabel(n),
			X:      bgraph.Unset,
			Y:      bgraph.Unset,
			Width:  bgraph.Unset,
			Height: bgraph.Unset,
			Depth:  depth,
			Parent: parentBlock,
		}); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "add block %q", id)
		}
	}

	subs := slices.Clone(b.childSub[origParent])
	slices.SortFunc(subs, func(x, y intake.Subgraph) int { return strings.Compare(x.ID, y.ID) })
	for _, sg := range subs {
		id := b.claim(sg.ID)
		b.subID[sg.ID] = id
		if err := b.graph.AddBlock(&bgraph.Block{
			ID:        id,
			Label:     sg.Label,
			X:         bgraph.Unset,
			Y:         bgraph.Unset,
			Width:     bgraph.Unset,
			Height:    bgraph.Unset,
			Depth:     depth,
			Parent:    parentBlock,
			Container: true,
		}); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "add block %q", id)
		}
		if err := b.populate(sg.ID, id, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeLabel falls back to the node ID when the source gives no label.
func nodeLabel(n intake.Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// resolveEdges maps edge endpoints to block IDs and appends connections.
// Node names shadow subgraph names when both exist; subgraphs are valid
// endpoints in their own right.
func resolveEdges(b *treeBuilder, in *intake.Input) error {
	resolve := func(name string) (string, bool) {
		if id, ok := b.nodeID[name]; ok {
			return id, true
		}
		id, ok := b.subID[name]
		return id, ok
	}
	for _, e := range in.Edges {
		from, ok := resolve(e.From)
		if !ok {
			return apperrors.New(apperrors.ErrCodeDanglingEdge,
				"edge references unknown endpoint %q", e.From)
		}
		to, ok := resolve(e.To)
		if !ok {
			return apperrors.New(apperrors.ErrCodeDanglingEdge,
				"edge references unknown endpoint %q", e.To)
		}
		if _, err := b.graph.AddConnection(from, to, e.Label); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInternal, err, "connect %q -> %q", from, to)
		}
	}
	return nil
}

package intake

import (
	"slices"
	"strconv"
	"strings"

	"github.com/awalterschulze/gographviz"

	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

// ParseDOT parses DOT text into a normalized Input.
//
// Nodes are attributed to their innermost declaring subgraph, mirroring the
// DOT cluster nesting. Identifiers and labels are unquoted. The result is
// deterministic regardless of declaration order: nodes and subgraphs are
// sorted by ID, edges keep declaration order.
func ParseDOT(src []byte) (*Input, error) {
	g, err := gographviz.Read(src)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "parse DOT")
	}
	return fromGraph(g), nil
}

func fromGraph(g *gographviz.Graph) *Input {
	rootName := unquote(g.Name)
	in := &Input{Name: rootName}
	if in.Name == "" {
		in.Name = "G"
	}

	subgraphNames := make(map[string]bool, len(g.SubGraphs.SubGraphs))
	for name := range g.SubGraphs.SubGraphs {
		subgraphNames[unquote(name)] = true
	}

	parentOf := parentMap(g, rootName, subgraphNames)

	for name, sg := range g.SubGraphs.SubGraphs {
		id := unquote(name)
		in.Subgraphs = append(in.Subgraphs, Subgraph{
			ID:     id,
			Label:  attrLabel(sg.Attrs),
			Parent: parentOf[id],
		})
	}
	slices.SortFunc(in.Subgraphs, func(a, b Subgraph) int {
		return strings.Compare(a.ID, b.ID)
	})

	for _, n := range g.Nodes.Nodes {
		id := unquote(n.Name)
		in.Nodes = append(in.Nodes, Node{
			ID:     id,
			Label:  attrLabel(n.Attrs),
			Parent: parentOf[id],
		})
	}
	slices.SortFunc(in.Nodes, func(a, b Node) int {
		return strings.Compare(a.ID, b.ID)
	})

	for _, e := range g.Edges.Edges {
		in.Edges = append(in.Edges, Edge{
			From:  unquote(e.Src),
			To:    unquote(e.Dst),
			Label: attrLabel(e.Attrs),
		})
	}

	return in
}

// parentMap derives each entity's innermost enclosing subgraph from the
// analysed parent/child relations. The root graph itself never counts as
// a parent. A node referenced from several scopes keeps the deepest
// declaring subgraph; equally deep scopes tie-break to the
// lexicographically smaller ID so the result is stable.
func parentMap(g *gographviz.Graph, rootName string, subgraphs map[string]bool) map[string]string {
	depths := subgraphDepths(g, rootName, subgraphs)
	parents := make(map[string]string)
	for parent, children := range g.Relations.ParentToChildren {
		p := unquote(parent)
		if p == rootName || !subgraphs[p] {
			continue
		}
		for child := range children {
			c := unquote(child)
			prev, ok := parents[c]
			switch {
			case !ok, depths[p] > depths[prev]:
				parents[c] = p
			case depths[p] == depths[prev] && p < prev:
				parents[c] = p
			}
		}
	}
	return parents
}

// subgraphDepths measures cluster nesting via breadth-first traversal
// from the root graph: its direct subgraphs sit at depth 1. A subgraph
// reachable through several parents keeps its shallowest depth.
func subgraphDepths(g *gographviz.Graph, rootName string, subgraphs map[string]bool) map[string]int {
	children := make(map[string][]string)
	for parent, kids := range g.Relations.ParentToChildren {
		p := unquote(parent)
		if p != rootName && !subgraphs[p] {
			continue
		}
		for kid := range kids {
			if c := unquote(kid); subgraphs[c] {
				children[p] = append(children[p], c)
			}
		}
	}

	depths := make(map[string]int, len(subgraphs))
	queue := []string{rootName}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, c := range children[p] {
			if _, seen := depths[c]; seen {
				continue
			}
			depths[c] = depths[p] + 1
			queue = append(queue, c)
		}
	}
	return depths
}

// attrLabel extracts and unquotes the label attribute, if any.
func attrLabel(attrs gographviz.Attrs) string {
	return unquote(attrs[gographviz.Attr("label")])
}

// unquote strips DOT quoting from an identifier or attribute value.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

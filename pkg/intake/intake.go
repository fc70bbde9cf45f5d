// Package intake turns external graph descriptions into the normalized
// Input consumed by the hierarchy builder. DOT text is the only supported
// source format; a recursive directory mode merges many DOT files into a
// single input with one cluster per directory and file.
package intake

// Node is a graph vertex attributed to its innermost declaring subgraph.
type Node struct {
	ID     string // Unique identifier within the input
	Label  string // Display label ("" when the source gives none)
	Parent string // Declaring subgraph ID ("" for top level)
}

// Edge is a directed connection between two named endpoints. Endpoints
// may name nodes or subgraphs; resolution happens in the builder.
type Edge struct {
	From  string
	To    string
	Label string
}

// Subgraph is a named cluster. Nesting is expressed through Parent.
type Subgraph struct {
	ID     string
	Label  string
	Parent string // Enclosing subgraph ID ("" for top level)
}

// Input is a normalized source graph. Nodes and Subgraphs are sorted by
// ID; Edges keep their declaration order. The same Input always produces
// the same block graph.
type Input struct {
	Name      string // Source graph name (root block label)
	Nodes     []Node
	Edges     []Edge
	Subgraphs []Subgraph
}

// NodeCount returns the number of nodes in the input.
func (in *Input) NodeCount() int { return len(in.Nodes) }

// EdgeCount returns the number of edges in the input.
func (in *Input) EdgeCount() int { return len(in.Edges) }

// Package bgraph defines the block graph model: a tree of rectangular
// blocks on an integer grid, border ports, and connections between them.
// It is the contract between the hierarchy builder, the layout engine,
// the port allocator, and the serialization sinks.
//
// The graph is an arena: blocks and ports live in maps keyed by their
// identifiers, and all relationships (parent, children, port ownership,
// connection endpoints) are stored as identifiers rather than pointers.
// Iteration orders are recorded at insertion time so that every walk over
// the graph is deterministic.
package bgraph

import (
	"errors"
	"slices"

	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

var (
	// ErrInvalidBlockID is returned by [BlockGraph.AddBlock] when the block
	// ID is empty. All blocks must have non-empty identifiers.
	ErrInvalidBlockID = errors.New("block ID must not be empty")

	// ErrDuplicateBlockID is returned by [BlockGraph.AddBlock] when a block
	// with the same ID already exists. Block IDs must be unique.
	ErrDuplicateBlockID = errors.New("duplicate block ID")

	// ErrUnknownBlock is returned when an operation references a block ID
	// that does not exist in the graph.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrMultipleRoots is returned by [BlockGraph.AddBlock] when a second
	// parentless block is added. Exactly one block may have no parent.
	ErrMultipleRoots = errors.New("graph already has a root block")

	// ErrSlotOccupied is returned by [BlockGraph.AddPort] when another port
	// already sits at the same (side, offset) on the block.
	ErrSlotOccupied = errors.New("port slot already occupied")
)

// slot identifies a port position on one block.
type slot struct {
	side   Side
	offset int
}

// BlockGraph is the arena owning all blocks, ports, and connections of one
// converted graph.
//
// The zero value is not usable - use New. BlockGraph is not safe for
// concurrent use without external synchronization; the pipeline runs each
// conversion on a single goroutine.
type BlockGraph struct {
	root   string
	blocks map[string]*Block
	order  []string // block IDs in insertion order

	ports      map[int]*Port
	blockPorts map[string][]int          // block ID -> port IDs in allocation order
	slots      map[string]map[slot]int   // block ID -> occupied slots

	// Connections lists every edge of the source graph in declaration
	// order. Entries are appended by AddConnection and completed in place
	// by the port allocator.
	Connections []Connection
}

// New creates an empty block graph.
func New() *BlockGraph {
	return &BlockGraph{
		blocks:     make(map[string]*Block),
		ports:      make(map[int]*Port),
		blockPorts: make(map[string][]int),
		slots:      make(map[string]map[slot]int),
	}
}

// AddBlock adds b to the arena and links it under its parent. The first
// parentless block becomes the root; adding a second one returns
// ErrMultipleRoots. Returns ErrUnknownBlock when b.Parent names a block
// that has not been added yet (parents must be added before children).
func (g *BlockGraph) AddBlock(b *Block) error {
	if b.ID == "" {
		return ErrInvalidBlockID
	}
	if _, exists := g.blocks[b.ID]; exists {
		return ErrDuplicateBlockID
	}
	if b.Parent == "" {
		if g.root != "" {
			return ErrMultipleRoots
		}
		g.root = b.ID
	} else {
		parent, ok := g.blocks[b.Parent]
		if !ok {
			return ErrUnknownBlock
		}
		parent.Children = append(parent.Children, b.ID)
	}
	g.blocks[b.ID] = b
	g.order = append(g.order, b.ID)
	return nil
}

// Block returns the block with the given ID.
func (g *BlockGraph) Block(id string) (*Block, bool) {
	b, ok := g.blocks[id]
	return b, ok
}

// Root returns the root block, or nil if no block has been added.
func (g *BlockGraph) Root() *Block { return g.blocks[g.root] }

// RootID returns the root block's identifier ("" if none).
func (g *BlockGraph) RootID() string { return g.root }

// Blocks returns all blocks in insertion order.
func (g *BlockGraph) Blocks() []*Block {
	out := make([]*Block, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.blocks[id])
	}
	return out
}

// Len returns the number of blocks in the graph.
func (g *BlockGraph) Len() int { return len(g.blocks) }

// Walk visits every block reachable from the root in depth-first
// pre-order, following each container's recorded child order. Blocks not
// reachable from the root are skipped.
func (g *BlockGraph) Walk(visit func(*Block)) {
	var walk func(id string)
	walk = func(id string) {
		b, ok := g.blocks[id]
		if !ok {
			return
		}
		visit(b)
		for _, child := range b.Children {
			walk(child)
		}
	}
	if g.root != "" {
		walk(g.root)
	}
}

// AddConnection appends a connection with unallocated ports and returns
// its index in Connections. Both endpoints must name existing blocks.
func (g *BlockGraph) AddConnection(from, to, label string) (int, error) {
	if _, ok := g.blocks[from]; !ok {
		return 0, ErrUnknownBlock
	}
	if _, ok := g.blocks[to]; !ok {
		return 0, ErrUnknownBlock
	}
	g.Connections = append(g.Connections, Connection{
		From:     from,
		To:       to,
		FromPort: Unset,
		ToPort:   Unset,
		Label:    label,
	})
	return len(g.Connections) - 1, nil
}

// EndpointCount returns how many connection endpoints land on the block.
// A self-loop counts twice: it needs two distinct ports.
func (g *BlockGraph) EndpointCount(id string) int {
	n := 0
	for _, c := range g.Connections {
		if c.From == id {
			n++
		}
		if c.To == id {
			n++
		}
	}
	return n
}

// AddPort places a port on the given block border and returns it. Port IDs
// are assigned sequentially from 0 in allocation order. Returns
// ErrSlotOccupied when the (side, offset) slot is already taken.
func (g *BlockGraph) AddPort(blockID string, side Side, offset int) (*Port, error) {
	if _, ok := g.blocks[blockID]; !ok {
		return nil, ErrUnknownBlock
	}
	occupied := g.slots[blockID]
	if occupied == nil {
		occupied = make(map[slot]int)
		g.slots[blockID] = occupied
	}
	s := slot{side: side, offset: offset}
	if _, taken := occupied[s]; taken {
		return nil, ErrSlotOccupied
	}
	p := &Port{
		ID:     len(g.ports),
		Block:  blockID,
		Side:   side,
		Offset: offset,
	}
	g.ports[p.ID] = p
	g.blockPorts[blockID] = append(g.blockPorts[blockID], p.ID)
	occupied[s] = p.ID
	return p, nil
}

// Port returns the port with the given ID.
func (g *BlockGraph) Port(id int) (*Port, bool) {
	p, ok := g.ports[id]
	return p, ok
}

// PortAt returns the ID of the port occupying (side, offset) on the block.
func (g *BlockGraph) PortAt(blockID string, side Side, offset int) (int, bool) {
	id, ok := g.slots[blockID][slot{side: side, offset: offset}]
	return id, ok
}

// BlockPorts returns the block's ports in allocation order.
func (g *BlockGraph) BlockPorts(blockID string) []*Port {
	ids := g.blockPorts[blockID]
	out := make([]*Port, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.ports[id])
	}
	return out
}

// PortCount returns the number of allocated ports.
func (g *BlockGraph) PortCount() int { return len(g.ports) }

// MaxDepth returns the deepest block's nesting depth (0 for a lone root).
func (g *BlockGraph) MaxDepth() int {
	max := 0
	for _, b := range g.blocks {
		if b.Depth > max {
			max = b.Depth
		}
	}
	return max
}

// Bounds returns the grid extent covering every block and port. Ports sit
// one cell outside their block, so the extent can exceed the root block.
func (g *BlockGraph) Bounds() (width, height int) {
	for _, id := range g.order {
		b := g.blocks[id]
		if !b.Sized() || !b.Placed() {
			continue
		}
		width = maxInt(width, b.Right())
		height = maxInt(height, b.Bottom())
		for _, pid := range g.blockPorts[id] {
			x, y := g.ports[pid].Coords(b)
			width = maxInt(width, x+1)
			height = maxInt(height, y+1)
		}
	}
	return width, height
}

// Validate checks the geometric invariants after layout and port
// allocation: every block sized and placed, children enclosed by their
// parent with pad cells of clearance, siblings disjoint, ports within
// their side, and connections fully allocated. Any violation is reported
// as an INTERNAL_INVARIANT error - the converter, not the input, is at
// fault when one fires.
func (g *BlockGraph) Validate(pad int) error {
	if g.root == "" {
		return apperrors.New(apperrors.ErrCodeInvariant, "graph has no root block")
	}
	for _, id := range g.order {
		b := g.blocks[id]
		if !b.Sized() {
			return apperrors.New(apperrors.ErrCodeInvariant, "block %q has no size", id)
		}
		if !b.Placed() {
			return apperrors.New(apperrors.ErrCodeInvariant, "block %q has no position", id)
		}
		for _, child := range b.Children {
			c, ok := g.blocks[child]
			if !ok {
				return apperrors.New(apperrors.ErrCodeInvariant, "block %q lists unknown child %q", id, child)
			}
			if !b.Contains(c, pad) {
				return apperrors.New(apperrors.ErrCodeInvariant,
					"block %q escapes parent %q (padding %d)", child, id, pad)
			}
		}
		for i := 0; i < len(b.Children); i++ {
			for j := i + 1; j < len(b.Children); j++ {
				a, c := g.blocks[b.Children[i]], g.blocks[b.Children[j]]
				if a.Overlaps(c) {
					return apperrors.New(apperrors.ErrCodeInvariant,
						"sibling blocks %q and %q overlap", a.ID, c.ID)
				}
			}
		}
		for _, pid := range g.blockPorts[id] {
			p := g.ports[pid]
			if p.Offset < 0 || p.Offset >= b.SideLength(p.Side) {
				return apperrors.New(apperrors.ErrCodeInvariant,
					"port %d offset %d outside %s side of block %q", pid, p.Offset, p.Side, id)
			}
		}
	}
	for i, c := range g.Connections {
		if err := g.validateEndpoint(i, c.From, c.FromPort); err != nil {
			return err
		}
		if err := g.validateEndpoint(i, c.To, c.ToPort); err != nil {
			return err
		}
	}
	return nil
}

func (g *BlockGraph) validateEndpoint(idx int, blockID string, portID int) error {
	if _, ok := g.blocks[blockID]; !ok {
		return apperrors.New(apperrors.ErrCodeInvariant,
			"connection %d references unknown block %q", idx, blockID)
	}
	p, ok := g.ports[portID]
	if !ok {
		return apperrors.New(apperrors.ErrCodeInvariant,
			"connection %d has unallocated port", idx)
	}
	if p.Block != blockID {
		return apperrors.New(apperrors.ErrCodeInvariant,
			"connection %d port %d belongs to block %q, not %q", idx, portID, p.Block, blockID)
	}
	return nil
}

// SortedIDs returns every block ID in lexicographic order. Useful for
// stable reporting independent of insertion order.
func (g *BlockGraph) SortedIDs() []string {
	ids := slices.Clone(g.order)
	slices.Sort(ids)
	return ids
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package bgraph

// Side identifies one of the four borders of a block. Port offsets are
// measured along the side: left to right for horizontal sides, top to
// bottom for vertical ones.
type Side int

const (
	// SideTop is the upper border of a block.
	SideTop Side = iota
	// SideRight is the right border of a block.
	SideRight
	// SideBottom is the lower border of a block.
	SideBottom
	// SideLeft is the left border of a block.
	SideLeft
)

// String returns the lowercase side name.
func (s Side) String() string {
	switch s {
	case SideTop:
		return "top"
	case SideRight:
		return "right"
	case SideBottom:
		return "bottom"
	case SideLeft:
		return "left"
	}
	return "invalid"
}

// NextClockwise returns the side tried after s when a side runs out of
// port slots. The rotation order is right, bottom, left, top.
func (s Side) NextClockwise() Side {
	switch s {
	case SideRight:
		return SideBottom
	case SideBottom:
		return SideLeft
	case SideLeft:
		return SideTop
	default:
		return SideRight
	}
}

// Horizontal reports whether offsets on s run along the block's width.
func (s Side) Horizontal() bool {
	return s == SideTop || s == SideBottom
}

// Block is a rectangular region on the integer grid. Leaf blocks come from
// graph nodes, container blocks from subgraphs; the root block encloses
// everything. Geometry is created unset (Unset sentinel) and assigned
// exactly once by the layout engine.
//
// Relationships are stored as identifiers, not pointers; the owning
// BlockGraph resolves them. The zero value is not usable - ID must be set
// before adding to a graph.
type Block struct {
	ID     string // Unique identifier within the graph
	Label  string // Display label ("" for none)
	X      int    // Absolute grid column of the top-left corner
	Y      int    // Absolute grid row of the top-left corner
	Width  int    // Horizontal extent in grid cells
	Height int    // Vertical extent in grid cells
	Depth  int    // Nesting depth (root = 0)

	Parent   string   // Enclosing block ID ("" for the root)
	Children []string // Child block IDs in placement order

	// Container marks blocks that came from subgraphs. An empty subgraph
	// yields a container with no children, so len(Children) alone cannot
	// distinguish it from a leaf.
	Container bool
}

// Unset is the sentinel for geometry the layout engine has not assigned yet.
const Unset = -1

// Right returns the first grid column past the block.
func (b *Block) Right() int { return b.X + b.Width }

// Bottom returns the first grid row past the block (y grows downward).
func (b *Block) Bottom() int { return b.Y + b.Height }

// SideLength returns the number of cells along the given border.
func (b *Block) SideLength(s Side) int {
	if s.Horizontal() {
		return b.Width
	}
	return b.Height
}

// Sized reports whether the layout engine has assigned dimensions.
func (b *Block) Sized() bool { return b.Width > 0 && b.Height > 0 }

// Placed reports whether the layout engine has assigned a position.
func (b *Block) Placed() bool { return b.X != Unset && b.Y != Unset }

// Overlaps reports whether the two blocks share at least one grid cell.
func (b *Block) Overlaps(o *Block) bool {
	return b.X < o.Right() && o.X < b.Right() &&
		b.Y < o.Bottom() && o.Y < b.Bottom()
}

// Contains reports whether o lies fully inside b with at least pad cells
// of clearance on every side.
func (b *Block) Contains(o *Block, pad int) bool {
	return o.X >= b.X+pad && o.Y >= b.Y+pad &&
		o.Right() <= b.Right()-pad && o.Bottom() <= b.Bottom()-pad
}

// Port is a connection endpoint on a block border. Ports occupy the grid
// cell just outside the border, so edge markers never overlap the block
// rectangle itself.
type Port struct {
	ID     int    // Arena-wide identifier
	Block  string // Owning block ID
	Side   Side   // Border the port sits on
	Offset int    // Cells from the side's origin (0-based)
}

// Coords returns the absolute grid cell of the port given the owning
// block's placed geometry. The cell is adjacent to, not on, the border.
func (p *Port) Coords(b *Block) (x, y int) {
	switch p.Side {
	case SideTop:
		return b.X + p.Offset, b.Y - 1
	case SideBottom:
		return b.X + p.Offset, b.Bottom()
	case SideLeft:
		return b.X - 1, b.Y + p.Offset
	default: // SideRight
		return b.Right(), b.Y + p.Offset
	}
}

// Connection is a directed edge between two blocks. Ports are Unset until
// the port allocator assigns them.
type Connection struct {
	From     string // Source block ID
	To       string // Destination block ID
	FromPort int    // Source port ID (Unset until allocated)
	ToPort   int    // Destination port ID (Unset until allocated)
	Label    string // Optional edge label
}

// SelfLoop reports whether the connection starts and ends on one block.
func (c Connection) SelfLoop() bool { return c.From == c.To }

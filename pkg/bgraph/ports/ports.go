// Package ports assigns border ports to every connection endpoint of a
// laid-out block graph. Side choice is a visual heuristic (face the other
// endpoint), offsets go on an evenly spaced grid, and a fixed rotation
// handles full sides. The only failure mode is port exhaustion, which
// means the layout engine under-sized a block and is reported as an
// internal invariant violation.
package ports

import (
	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph"
	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

// Allocate assigns both ports of every connection, in connection order.
// Blocks must be sized and placed. The minimum gap between adjacent
// ports on one side is spacing cells. A self-loop's two ports always
// land on distinct sides, even when rotation moves the source off its
// preferred side.
func Allocate(g *bgraph.BlockGraph, spacing int) error {
	if spacing < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "negative port spacing %d", spacing)
	}
	for i := range g.Connections {
		c := &g.Connections[i]
		src, ok := g.Block(c.From)
		if !ok {
			return apperrors.New(apperrors.ErrCodeInvariant, "connection references unknown block %q", c.From)
		}
		dst, ok := g.Block(c.To)
		if !ok {
			return apperrors.New(apperrors.ErrCodeInvariant, "connection references unknown block %q", c.To)
		}

		var from, to *bgraph.Port
		var err error
		if c.SelfLoop() {
			// The source allocates first; the destination then avoids
			// whichever side the source actually got.
			from, err = allocate(g, src, bgraph.SideRight, spacing)
			if err != nil {
				return err
			}
			to, err = allocateOffSide(g, src, from.Side, spacing)
		} else {
			from, err = allocate(g, src, facing(src, dst), spacing)
			if err != nil {
				return err
			}
			to, err = allocate(g, dst, facing(dst, src), spacing)
		}
		if err != nil {
			return err
		}
		c.FromPort = from.ID
		c.ToPort = to.ID
	}
	return nil
}

// facing returns the side of b that looks toward other's center. The
// dominant axis wins; ties prefer the horizontal axis, and fully
// concentric blocks default to the right side.
func facing(b, other *bgraph.Block) bgraph.Side {
	// Centers doubled to stay in integers.
	dx := (2*other.X + other.Width) - (2*b.X + b.Width)
	dy := (2*other.Y + other.Height) - (2*b.Y + b.Height)
	if abs(dx) >= abs(dy) {
		if dx < 0 {
			return bgraph.SideLeft
		}
		return bgraph.SideRight
	}
	if dy < 0 {
		return bgraph.SideTop
	}
	return bgraph.SideBottom
}

// allocate claims the smallest free evenly spaced offset on the preferred
// side, rotating right -> bottom -> left -> top when a side is full.
func allocate(g *bgraph.BlockGraph, b *bgraph.Block, side bgraph.Side, spacing int) (*bgraph.Port, error) {
	return claim(g, b, side, spacing, 4)
}

// allocateOffSide claims a slot on any side except avoid, starting one
// side clockwise from it. Self-loops route their destination through
// this so both ports never share a side.
func allocateOffSide(g *bgraph.BlockGraph, b *bgraph.Block, avoid bgraph.Side, spacing int) (*bgraph.Port, error) {
	return claim(g, b, avoid.NextClockwise(), spacing, 3)
}

// claim walks tries sides clockwise from side, taking the first free
// offset. All candidate sides full is a sizing defect, never a user
// error.
func claim(g *bgraph.BlockGraph, b *bgraph.Block, side bgraph.Side, spacing, tries int) (*bgraph.Port, error) {
	step := spacing + 1
	for try := 0; try < tries; try++ {
		length := b.SideLength(side)
		for off := 0; off < length; off += step {
			if _, taken := g.PortAt(b.ID, side, off); !taken {
				return g.AddPort(b.ID, side, off)
			}
		}
		side = side.NextClockwise()
	}
	return nil, apperrors.New(apperrors.ErrCodePortExhaustion,
		"all sides of block %q are full (%d ports)", b.ID, len(g.BlockPorts(b.ID)))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

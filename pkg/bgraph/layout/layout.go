// Package layout assigns every block of a block graph its grid geometry.
//
// Sizing runs bottom-up: leaves get label-derived minimum dimensions,
// containers pack their children into rows and wrap the bounding box with
// the padding margin. Positions are computed container-relative during
// sizing and translated to absolute coordinates in a second, top-down
// pass with the root at (0, 0). Both passes are pure functions of the
// tree, so identical input always yields identical coordinates.
package layout

import (
	"unicode/utf8"

	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph"
	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

// Defaults for the layout configuration.
const (
	// DefaultMaxRowWidth is the packing wrap threshold in grid cells.
	DefaultMaxRowWidth = 48
	// DefaultPadding is the clearance between a container border and its
	// children, in grid cells.
	DefaultPadding = 2
	// DefaultPortSpacing is the minimum gap between adjacent ports.
	DefaultPortSpacing = 1

	// minUnit is the smallest side length of any block. Three cells leave
	// room for a border cell on each side of a one-cell interior.
	minUnit = 3

	// gap is the clearance between sibling blocks, both within a row and
	// between rows.
	gap = 1
)

// Config tunes the layout engine. The zero value means "use defaults".
type Config struct {
	// MaxRowWidth is the row width at which child packing wraps. The
	// boundary is inclusive: a child ending exactly on it stays on the row.
	MaxRowWidth int
	// Padding is the clearance between a container border and its children.
	Padding int
	// PortSpacing is the minimum gap between adjacent ports; sizing
	// reserves enough border length for every known connection endpoint.
	PortSpacing int
}

// WithDefaults returns the config with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.MaxRowWidth == 0 {
		c.MaxRowWidth = DefaultMaxRowWidth
	}
	if c.Padding == 0 {
		c.Padding = DefaultPadding
	}
	if c.PortSpacing == 0 {
		c.PortSpacing = DefaultPortSpacing
	}
	return c
}

// validate rejects configs the packing loop cannot make progress with.
func (c Config) validate() error {
	if c.MaxRowWidth < minUnit {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"max row width %d below minimum block size %d", c.MaxRowWidth, minUnit)
	}
	if c.Padding < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "negative padding %d", c.Padding)
	}
	if c.PortSpacing < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "negative port spacing %d", c.PortSpacing)
	}
	return nil
}

// Apply assigns sizes and absolute positions to every block in the graph.
// Geometry is assigned exactly once; blocks must arrive unset from the
// builder.
func Apply(g *bgraph.BlockGraph, cfg Config) error {
	cfg = cfg.WithDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}
	root := g.Root()
	if root == nil {
		return apperrors.New(apperrors.ErrCodeInvariant, "layout on empty graph")
	}

	if err := size(g, root, cfg); err != nil {
		return err
	}

	root.X, root.Y = 0, 0
	translate(g, root)
	return nil
}

// size computes b's dimensions bottom-up and places its children at
// container-relative positions. Border length is reserved per endpoint
// as the arena counts them, so a self-loop claims two slots.
func size(g *bgraph.BlockGraph, b *bgraph.Block, cfg Config) error {
	for _, id := range b.Children {
		child, ok := g.Block(id)
		if !ok {
			return apperrors.New(apperrors.ErrCodeInvariant, "block %q lists unknown child %q", b.ID, id)
		}
		if err := size(g, child, cfg); err != nil {
			return err
		}
	}

	var w, h int
	if len(b.Children) == 0 {
		w, h = leafSize(b.Label)
	} else {
		innerW, innerH := packChildren(g, b, cfg)
		w = innerW + 2*cfg.Padding
		h = innerH + 2*cfg.Padding
	}
	if lw := labelWidth(b.Label); lw > w {
		w = lw
	}
	b.Width, b.Height = growForPorts(w, h, g.EndpointCount(b.ID), cfg.PortSpacing)
	return nil
}

// leafSize derives a leaf's dimensions from its label.
func leafSize(label string) (w, h int) {
	return labelWidth(label), minUnit
}

// labelWidth returns the width needed to fit the label with one border
// cell on each side, floored at the minimum unit.
func labelWidth(label string) int {
	if w := utf8.RuneCountInString(label) + 2; w > minUnit {
		return w
	}
	return minUnit
}

// packChildren places b's children left to right in declaration order,
// wrapping once a child would extend past the row width (the boundary is
// inclusive). Positions are relative to b's top-left corner and already
// include the padding margin. Returns the children's bounding box.
func packChildren(g *bgraph.BlockGraph, b *bgraph.Block, cfg Config) (innerW, innerH int) {
	cursor, rowTop, rowH := 0, 0, 0
	for _, id := range b.Children {
		c, _ := g.Block(id)
		if cursor > 0 && cursor+c.Width > cfg.MaxRowWidth {
			rowTop += rowH + gap
			cursor, rowH = 0, 0
		}
		c.X = cfg.Padding + cursor
		c.Y = cfg.Padding + rowTop
		cursor += c.Width + gap
		if used := cursor - gap; used > innerW {
			innerW = used
		}
		if c.Height > rowH {
			rowH = c.Height
		}
	}
	return innerW, rowTop + rowH
}

// growForPorts widens and heightens the block until its four borders
// offer enough evenly spaced slots for the known endpoint count. Growing
// never shrinks a packed container, so enclosure is preserved.
func growForPorts(w, h, endpoints, spacing int) (int, int) {
	for capacity(w, h, spacing) < endpoints {
		w++
		if capacity(w, h, spacing) < endpoints {
			h++
		}
	}
	return w, h
}

// capacity is the number of port slots the four borders provide at the
// given spacing.
func capacity(w, h, spacing int) int {
	return 2*slots(w, spacing) + 2*slots(h, spacing)
}

// slots counts the evenly spaced offsets on a side of the given length:
// 0, spacing+1, 2*(spacing+1), ...
func slots(length, spacing int) int {
	if length <= 0 {
		return 0
	}
	return (length-1)/(spacing+1) + 1
}

// translate converts the relative positions produced by sizing into
// absolute coordinates, top-down. The parent's absolute position is final
// when its children are visited.
func translate(g *bgraph.BlockGraph, b *bgraph.Block) {
	for _, id := range b.Children {
		c, _ := g.Block(id)
		c.X += b.X
		c.Y += b.Y
		translate(g, c)
	}
}

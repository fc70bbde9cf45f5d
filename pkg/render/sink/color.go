package sink

import "math"

// Default model colors, packed 24-bit RGB.
const (
	// DefaultBgColor is the viewer background (white).
	DefaultBgColor = 0xFFFFFF
	// DefaultHighlightBgColor is the highlight fill (white).
	DefaultHighlightBgColor = 0xFFFFFF
	// DefaultHighlightFgColor is the highlight stroke (black).
	DefaultHighlightFgColor = 0x000000
	// DefaultEdgeEndColor is the edge marker color (black).
	DefaultEdgeEndColor = 0x000000

	// flatColor is the block shade when the tree has no nesting to encode.
	flatColor = 0xCCCCCC
)

// PackColor packs an RGB triple into the 24-bit integer form used by the
// model: red in the high byte, blue in the low.
func PackColor(r, g, b int) int {
	return r<<16 | g<<8 | b
}

// DepthShade returns the packed grayscale for a block at the given
// nesting depth. Shallow blocks are light, deep blocks dark, with the
// range compressed so neither end reaches pure white or black.
func DepthShade(depth, maxDepth int) int {
	if maxDepth <= 0 {
		return flatColor
	}
	shift := 0.2 * float64(maxDepth)
	col := 1 - (float64(depth)+shift)/(float64(maxDepth)+2*shift)
	v := int(math.Round(col * 255))
	return PackColor(v, v, v)
}

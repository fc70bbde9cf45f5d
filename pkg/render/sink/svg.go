package sink

import (
	"bytes"
	"fmt"
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	cellSize    int
	labels      bool
	connections bool
}

// WithCellSize sets the pixel size of one grid cell (default 16).
func WithCellSize(px int) SVGOption { return func(r *svgRenderer) { r.cellSize = px } }

// WithoutLabels suppresses block label text.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithoutConnections suppresses the lines between paired edge ends;
// the edge end markers themselves are still drawn.
func WithoutConnections() SVGOption { return func(r *svgRenderer) { r.connections = false } }

// RenderSVG renders a serialized model as SVG, one grid cell per
// cellSize pixels. It consumes the model rather than the block graph, so
// a re-imported JSON model produces the same image as a fresh conversion.
func RenderSVG(m *Model, opts ...SVGOption) []byte {
	r := svgRenderer{cellSize: 16, labels: true, connections: true}
	for _, opt := range opts {
		opt(&r)
	}
	cs := r.cellSize

	var buf bytes.Buffer
	w, h := m.Width*cs, m.Height*cs
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" width="%d" height="%d">`+"\n", w, h, w, h)
	fmt.Fprintf(&buf, `  <rect width="%d" height="%d" fill="%s"/>`+"\n", w, h, hexColor(m.BgColor))

	// Tree order puts parents first, so children paint over containers.
	for _, b := range m.Blocks {
		fmt.Fprintf(&buf,
			`  <rect id="block-%d" x="%d" y="%d" width="%d" height="%d" fill="%s" stroke="%s" stroke-width="1"/>`+"\n",
			b.ID, b.X*cs, b.Y*cs, b.Width*cs, b.Height*cs, hexColor(b.Color), hexColor(m.HighlightFgColor))
		if r.labels && b.Label != "" {
			fmt.Fprintf(&buf,
				`  <text x="%d" y="%d" font-size="%d" text-anchor="middle" dominant-baseline="middle" fill="%s">%s</text>`+"\n",
				(2*b.X+b.Width)*cs/2, (2*b.Y+b.Height)*cs/2, cs*3/4, hexColor(m.HighlightFgColor), escapeText(b.Label))
		}
	}

	if r.connections {
		ends := make(map[int]ModelEdgeEnd, len(m.EdgeEnds))
		for _, e := range m.EdgeEnds {
			ends[e.ID] = e
		}
		for _, e := range m.EdgeEnds {
			if !e.IsSource {
				continue
			}
			for _, peerID := range e.EdgeEnds {
				peer, ok := ends[peerID]
				if !ok {
					continue
				}
				fmt.Fprintf(&buf,
					`  <line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="1"/>`+"\n",
					center(e.X, cs), center(e.Y, cs), center(peer.X, cs), center(peer.Y, cs), hexColor(e.Color))
			}
		}
	}

	for _, e := range m.EdgeEnds {
		fmt.Fprintf(&buf,
			`  <rect id="edge-end-%d" x="%d" y="%d" width="%d" height="%d" fill="%s"/>`+"\n",
			e.ID, e.X*cs+cs/4, e.Y*cs+cs/4, cs/2, cs/2, hexColor(e.Color))
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// center returns the pixel center of a grid cell.
func center(cell, cs int) int { return cell*cs + cs/2 }

// hexColor formats a packed 24-bit color as #rrggbb.
func hexColor(c int) string { return fmt.Sprintf("#%06x", c&0xFFFFFF) }

// escapeText escapes the XML special characters in label text.
func escapeText(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

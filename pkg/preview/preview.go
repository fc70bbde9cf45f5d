// Package preview renders an intake graph as a conventional node-link
// diagram via Graphviz. It bypasses the block conversion entirely and
// exists to sanity-check inputs: if the preview looks wrong, the problem
// is the DOT source, not the converter.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
	"github.com/bgraph-dev/dot2bgraph/pkg/render"
)

// ToDOT converts an intake graph back to Graphviz DOT for node-link
// rendering. Subgraphs become cluster subgraphs so Graphviz draws their
// boxes; the original nesting is preserved.
func ToDOT(in *intake.Input) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %q {\n", in.Name)
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	childSubs := make(map[string][]intake.Subgraph)
	for _, sg := range in.Subgraphs {
		childSubs[sg.Parent] = append(childSubs[sg.Parent], sg)
	}
	childNodes := make(map[string][]intake.Node)
	for _, n := range in.Nodes {
		childNodes[n.Parent] = append(childNodes[n.Parent], n)
	}

	writeScope(&buf, "", childSubs, childNodes, 1)

	buf.WriteString("\n")
	for _, e := range in.Edges {
		fmt.Fprintf(&buf, "  %q -> %q", e.From, e.To)
		if e.Label != "" {
			fmt.Fprintf(&buf, " [label=%q]", e.Label)
		}
		buf.WriteString(";\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeScope emits the nodes and nested clusters declared under one
// subgraph ("" for the top level).
func writeScope(buf *bytes.Buffer, parent string, subs map[string][]intake.Subgraph, nodes map[string][]intake.Node, depth int) {
	indent := indentOf(depth)
	for _, n := range nodes[parent] {
		fmt.Fprintf(buf, "%s%q", indent, n.ID)
		if n.Label != "" && n.Label != n.ID {
			fmt.Fprintf(buf, " [label=%q]", n.Label)
		}
		buf.WriteString(";\n")
	}
	for _, sg := range subs[parent] {
		fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+sg.ID)
		if sg.Label != "" {
			fmt.Fprintf(buf, "%s  label=%q;\n", indent, sg.Label)
		}
		writeScope(buf, sg.ID, subs, nodes, depth+1)
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func indentOf(depth int) string {
	out := make([]byte, 2*depth)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// Package sink serializes finished block graphs into renderer-facing
// artifacts: the canonical JSON model and an SVG rendering of it. The
// JSON model is the authoritative interchange form; the SVG renderer
// consumes the model, not the block graph, so a re-imported model renders
// identically to a freshly converted one.
package sink

import (
	"encoding/json"
	"os"

	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph"
	apperrors "github.com/bgraph-dev/dot2bgraph/pkg/errors"
)

// Edge end directions in the model. Source ends point away from their
// block, destination ends point into it.
const (
	DirUp    = 1
	DirRight = 2
	DirDown  = 3
	DirLeft  = 4
)

// Model is the serialized block graph. Blocks and edge ends carry integer
// identifiers assigned in deterministic tree order, so byte-identical
// inputs produce byte-identical models.
type Model struct {
	Width            int            `json:"width"`
	Height           int            `json:"height"`
	BgColor          int            `json:"bgColor"`
	HighlightBgColor int            `json:"highlightBgColor"`
	HighlightFgColor int            `json:"highlightFgColor"`
	Blocks           []ModelBlock   `json:"blocks"`
	EdgeEnds         []ModelEdgeEnd `json:"edgeEnds"`
}

// ModelBlock is one rectangle of the model. Color encodes nesting depth
// as a grayscale shade.
type ModelBlock struct {
	ID       int    `json:"id"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Depth    int    `json:"depth"`
	Color    int    `json:"color"`
	Label    string `json:"label,omitempty"`
	EdgeEnds []int  `json:"edgeEnds"`
}

// ModelEdgeEnd is one connection endpoint, placed on the grid cell just
// outside its block's border. EdgeEnds lists the peer endpoints this one
// connects to.
type ModelEdgeEnd struct {
	ID        int    `json:"id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Color     int    `json:"color"`
	Direction int    `json:"direction"`
	IsSource  bool   `json:"isSource"`
	Block     int    `json:"block"`
	EdgeEnds  []int  `json:"edgeEnds"`
	Label     string `json:"label,omitempty"`
}

// FromBlockGraph serializes a laid-out, port-allocated block graph.
//
// Blocks are numbered in depth-first tree order and edge ends in port
// allocation order. If any port falls at a negative coordinate (a port on
// the root's top or left border), the whole model is translated so every
// coordinate is non-negative.
func FromBlockGraph(g *bgraph.BlockGraph) *Model {
	m := &Model{
		BgColor:          DefaultBgColor,
		HighlightBgColor: DefaultHighlightBgColor,
		HighlightFgColor: DefaultHighlightFgColor,
		Blocks:           make([]ModelBlock, 0, g.Len()),
		EdgeEnds:         make([]ModelEdgeEnd, 0, g.PortCount()),
	}

	offX, offY := portOffset(g)
	maxDepth := g.MaxDepth()

	blockNum := make(map[string]int, g.Len())
	g.Walk(func(b *bgraph.Block) {
		blockNum[b.ID] = len(blockNum)
	})

	peers := make(map[int][]int)
	labels := make(map[int]string)
	sources := make(map[int]bool)
	for _, c := range g.Connections {
		peers[c.FromPort] = append(peers[c.FromPort], c.ToPort)
		peers[c.ToPort] = append(peers[c.ToPort], c.FromPort)
		sources[c.FromPort] = true
		if c.Label != "" {
			labels[c.FromPort] = c.Label
		}
	}

	g.Walk(func(b *bgraph.Block) {
		mb := ModelBlock{
			ID:       blockNum[b.ID],
			X:        b.X + offX,
			Y:        b.Y + offY,
			Width:    b.Width,
			Height:   b.Height,
			Depth:    b.Depth,
			Color:    DepthShade(b.Depth, maxDepth),
			Label:    b.Label,
			EdgeEnds: make([]int, 0),
		}
		for _, p := range g.BlockPorts(b.ID) {
			mb.EdgeEnds = append(mb.EdgeEnds, p.ID)
		}
		m.Blocks = append(m.Blocks, mb)
	})

	for id := 0; id < g.PortCount(); id++ {
		p, ok := g.Port(id)
		if !ok {
			continue
		}
		owner, _ := g.Block(p.Block)
		x, y := p.Coords(owner)
		ee := ModelEdgeEnd{
			ID:        id,
			X:         x + offX,
			Y:         y + offY,
			Color:     DefaultEdgeEndColor,
			Direction: direction(p.Side, sources[id]),
			IsSource:  sources[id],
			Block:     blockNum[p.Block],
			EdgeEnds:  append(make([]int, 0), peers[id]...),
			Label:     labels[id],
		}
		m.EdgeEnds = append(m.EdgeEnds, ee)
	}

	w, h := g.Bounds()
	m.Width = w + offX
	m.Height = h + offY
	return m
}

// portOffset returns the translation needed to keep every port coordinate
// non-negative.
func portOffset(g *bgraph.BlockGraph) (offX, offY int) {
	for _, b := range g.Blocks() {
		for _, p := range g.BlockPorts(b.ID) {
			x, y := p.Coords(b)
			if -x > offX {
				offX = -x
			}
			if -y > offY {
				offY = -y
			}
		}
	}
	return offX, offY
}

// direction maps a port's side to its model direction: outward for source
// ends, inward for destination ends.
func direction(s bgraph.Side, isSource bool) int {
	if isSource {
		switch s {
		case bgraph.SideTop:
			return DirUp
		case bgraph.SideRight:
			return DirRight
		case bgraph.SideBottom:
			return DirDown
		default:
			return DirLeft
		}
	}
	switch s {
	case bgraph.SideTop:
		return DirDown
	case bgraph.SideRight:
		return DirLeft
	case bgraph.SideBottom:
		return DirUp
	default:
		return DirRight
	}
}

// MarshalModel renders the model as pretty-printed JSON.
func MarshalModel(m *Model) ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "marshal model")
	}
	return data, nil
}

// ReadModel parses a serialized model, for round-trip rendering.
func ReadModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "parse model")
	}
	return &m, nil
}

// ReadModelFile loads a serialized model from disk.
func ReadModelFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return ReadModel(data)
}

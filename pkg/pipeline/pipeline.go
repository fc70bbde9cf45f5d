// Package pipeline provides the core conversion pipeline for dot2bgraph.
//
// This package implements the complete build → layout → ports → render
// pipeline that can be used by CLI, server, and watch components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Build: Turn the parsed source graph into the block hierarchy
//  2. Layout: Compute integer grid geometry for every block
//  3. Ports: Allocate border ports for every connection endpoint
//  4. Render: Generate output in various formats (JSON, SVG, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Convert(ctx, input, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bgraph-dev/dot2bgraph/pkg/render/sink"
)

// Default values shared by CLI, server, and watch entry points.
const (
	// DefaultWorkers is the number of concurrent conversions in a batch run.
	DefaultWorkers = 4

	// DefaultScale is the PNG rasterization scale. 2x suits high-DPI
	// displays.
	DefaultScale = 2.0
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// Options contains all configuration for the conversion pipeline.
// This struct supports JSON serialization for server requests.
type Options struct {
	// Layout options. Zero values mean engine defaults.
	MaxRowWidth int `json:"max_row_width,omitempty"`
	Padding     int `json:"padding,omitempty"`
	PortSpacing int `json:"port_spacing,omitempty"`

	// Render options
	Formats       []string `json:"formats,omitempty"`
	CellSize      int      `json:"cell_size,omitempty"`
	NoLabels      bool     `json:"no_labels,omitempty"`
	NoConnections bool     `json:"no_connections,omitempty"`
	Scale         float64  `json:"scale,omitempty"`
	Refresh       bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger  *log.Logger `json:"-"`
	Workers int         `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run for one input graph.
type Result struct {
	// Model is the renderer-facing block model.
	Model *sink.Model

	// ModelHash is the content hash of the serialized model.
	ModelHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	BlockCount      int
	PortCount       int
	ConnectionCount int
	BuildTime       time.Duration
	LayoutTime      time.Duration
	PortTime        time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage. Conversion itself
// is never cached, so only rendering participates.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// renderDigest summarizes the render-relevant options for cache keys.
// Two runs with the same model and the same digest produce byte-identical
// artifacts.
func (o *Options) renderDigest() string {
	return fmt.Sprintf("cs=%d,labels=%t,conns=%t,scale=%g",
		o.CellSize, !o.NoLabels, !o.NoConnections, o.Scale)
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph"
	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph/builder"
	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph/layout"
	"github.com/bgraph-dev/dot2bgraph/pkg/bgraph/ports"
	"github.com/bgraph-dev/dot2bgraph/pkg/cache"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
	"github.com/bgraph-dev/dot2bgraph/pkg/render"
	"github.com/bgraph-dev/dot2bgraph/pkg/render/sink"
)

// Runner encapsulates pipeline execution with artifact caching.
// Both CLI and server can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Logger: logger,
	}
}

// Convert runs the complete build → layout → ports → render pipeline.
func (r *Runner) Convert(ctx context.Context, in *intake.Input, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Build
	buildStart := time.Now()
	g, err := builder.Build(in)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.BlockCount = g.Len()
	result.Stats.ConnectionCount = len(g.Connections)

	opts.Logger.Info("built block graph",
		"blocks", g.Len(),
		"connections", len(g.Connections),
		"duration", result.Stats.BuildTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	cfg := layout.Config{
		MaxRowWidth: opts.MaxRowWidth,
		Padding:     opts.Padding,
		PortSpacing: opts.PortSpacing,
	}.WithDefaults()
	if err := layout.Apply(g, cfg); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Stats.LayoutTime = time.Since(layoutStart)

	opts.Logger.Info("computed layout",
		"duration", result.Stats.LayoutTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 3: Ports
	portStart := time.Now()
	if err := ports.Allocate(g, cfg.PortSpacing); err != nil {
		return nil, fmt.Errorf("ports: %w", err)
	}
	result.Stats.PortTime = time.Since(portStart)
	result.Stats.PortCount = g.PortCount()

	if err := g.Validate(cfg.Padding); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	opts.Logger.Info("allocated ports",
		"ports", g.PortCount(),
		"duration", result.Stats.PortTime)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 4: Render
	result.Model = sink.FromBlockGraph(g)
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, result.Model, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.ModelHash = r.modelHash(result.Model)
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	opts.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Build runs only the structural stage and returns the laid-out block
// graph. Useful for inspecting geometry without rendering.
func (r *Runner) Build(ctx context.Context, in *intake.Input, opts Options) (*bgraph.BlockGraph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	g, err := builder.Build(in)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := layout.Config{
		MaxRowWidth: opts.MaxRowWidth,
		Padding:     opts.Padding,
		PortSpacing: opts.PortSpacing,
	}.WithDefaults()
	if err := layout.Apply(g, cfg); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if err := ports.Allocate(g, cfg.PortSpacing); err != nil {
		return nil, fmt.Errorf("ports: %w", err)
	}
	if err := g.Validate(cfg.Padding); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	return g, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info. The JSON artifact is the serialized model itself and is never
// cached; SVG, PNG, and PDF artifacts are cached by model hash and render
// options.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, m *sink.Model, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	modelData, err := sink.MarshalModel(m)
	if err != nil {
		return nil, false, fmt.Errorf("serialize model: %w", err)
	}
	modelHash := cache.Hash(modelData)
	digest := opts.renderDigest()

	artifacts := make(map[string][]byte)
	cacheable := 0
	cached := 0

	// Try to get all formats from cache first. The JSON artifact is the
	// model itself and never counts toward the hit.
	for _, format := range opts.Formats {
		if format == FormatJSON {
			artifacts[format] = modelData
			continue
		}
		cacheable++
		key := cache.ArtifactKey(modelHash, format, digest)
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit && !opts.Refresh {
			artifacts[format] = data
			cached++
		}
	}
	if cacheable > 0 && cached == cacheable {
		return artifacts, true, nil
	}

	// Render the missing formats. PNG and PDF share one SVG rendering.
	var svg []byte
	renderSVG := func() []byte {
		if svg == nil {
			svg = sink.RenderSVG(m, r.svgOptions(opts)...)
		}
		return svg
	}

	for _, format := range opts.Formats {
		if _, ok := artifacts[format]; ok {
			continue
		}
		var data []byte
		switch format {
		case FormatSVG:
			data = renderSVG()
		case FormatPNG:
			data, err = render.ToPNG(ctx, renderSVG(), opts.Scale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, renderSVG())
		}
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data

		key := cache.ArtifactKey(modelHash, format, digest)
		_ = r.Cache.Set(ctx, key, data, cache.TTLArtifact)
	}

	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, m *sink.Model, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, m, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) svgOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.CellSize > 0 {
		svgOpts = append(svgOpts, sink.WithCellSize(opts.CellSize))
	}
	if opts.NoLabels {
		svgOpts = append(svgOpts, sink.WithoutLabels())
	}
	if opts.NoConnections {
		svgOpts = append(svgOpts, sink.WithoutConnections())
	}
	return svgOpts
}

func (r *Runner) modelHash(m *sink.Model) string {
	data, err := sink.MarshalModel(m)
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

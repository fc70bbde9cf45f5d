package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/bgraph-dev/dot2bgraph/pkg/config"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
	"github.com/bgraph-dev/dot2bgraph/pkg/pipeline"
)

// convertFlags holds the convert flags that are not part of the layered
// configuration.
type convertFlags struct {
	recursive     bool
	cellSize      int
	noLabels      bool
	noConnections bool
	refresh       bool
}

// convertCommand creates the convert command, the main entry point of the
// tool.
func (c *CLI) convertCommand() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert [file.dot...]",
		Short: "Convert DOT graphs to block graph models",
		Long: `Convert attributed graphs in Graphviz DOT notation into block graph models.

Each input file becomes one model: nodes become leaf blocks, subgraphs
become container blocks, and edges become connections between border
ports. The result is written as JSON next to the input (or to --output),
optionally accompanied by SVG, PNG, or PDF renderings.

With --recursive, each argument is a directory tree of .dot/.gv files
that is merged into a single model, with one container per directory and
per file.

Settings are layered: defaults < dot2bgraph.toml < DOT2BGRAPH_*
environment variables < flags.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := pipeline.ValidateFormats(cfg.Formats); err != nil {
				return err
			}
			return c.runConvert(cmd.Context(), args, cfg, flags)
		},
	}

	// Flags that participate in config layering share names with the
	// dot2bgraph.toml keys.
	cmd.Flags().StringP("output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringSliceP("format", "f", []string{"json"}, "output format(s): json (default), svg, png, pdf")
	cmd.Flags().Int("max-row-width", 48, "row width at which child packing wraps")
	cmd.Flags().Int("padding", 2, "clearance between a container border and its children")
	cmd.Flags().Int("port-spacing", 1, "minimum gap between adjacent ports")
	cmd.Flags().Int("workers", 4, "concurrent conversions for multiple inputs")
	cmd.Flags().Bool("no-cache", false, "disable artifact caching")

	cmd.Flags().BoolVarP(&flags.recursive, "recursive", "R", false, "treat arguments as directories of DOT files")
	cmd.Flags().IntVar(&flags.cellSize, "cell-size", 0, "SVG grid cell size in pixels")
	cmd.Flags().BoolVar(&flags.noLabels, "no-labels", false, "omit block labels from SVG output")
	cmd.Flags().BoolVar(&flags.noConnections, "no-connections", false, "omit connection lines from SVG output")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "re-render even when artifacts are cached")

	return cmd
}

// runConvert parses the inputs and runs the pipeline over them.
func (c *CLI) runConvert(ctx context.Context, args []string, cfg *config.Config, flags convertFlags) error {
	items, err := loadInputs(args, flags.recursive)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(cfg.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := pipeline.Options{
		MaxRowWidth:   cfg.MaxRowWidth,
		Padding:       cfg.Padding,
		PortSpacing:   cfg.PortSpacing,
		Formats:       cfg.Formats,
		CellSize:      flags.cellSize,
		NoLabels:      flags.noLabels,
		NoConnections: flags.noConnections,
		Refresh:       flags.refresh,
		Workers:       cfg.Workers,
		Logger:        c.Logger,
	}

	if len(items) == 1 {
		return c.convertSingle(ctx, runner, items[0], opts, cfg.Output)
	}
	return c.convertBatch(ctx, runner, items, opts)
}

// convertSingle converts one input with a spinner and honors --output.
func (c *CLI) convertSingle(ctx context.Context, runner *pipeline.Runner, item pipeline.BatchItem, opts pipeline.Options, output string) error {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %s...", item.Name))
	spinner.Start()

	res, err := runner.Convert(ctx, item.Input, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return fmt.Errorf("convert %s: %w", item.Name, err)
	}
	spinner.Stop()

	printSuccess("Converted %s", item.Name)
	printStats(res.Stats.BlockCount, res.Stats.ConnectionCount, res.CacheInfo.RenderHit)
	return writeArtifacts(res.Artifacts, opts.Formats, item.Name, output)
}

// convertBatch converts multiple inputs concurrently. Outputs are always
// derived from the input names; --output would be ambiguous here.
func (c *CLI) convertBatch(ctx context.Context, runner *pipeline.Runner, items []pipeline.BatchItem, opts pipeline.Options) error {
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Converting %d graphs...", len(items)))
	spinner.Start()

	batch, err := runner.ConvertBatch(ctx, items, opts)
	if err != nil {
		spinner.StopWithError("Conversion failed")
		return err
	}
	spinner.Stop()

	printSuccess("Converted %d graphs (%s)", len(items), batch.Duration.Round(time.Millisecond))
	for _, item := range items {
		res := batch.Results[item.Name]
		printStats(res.Stats.BlockCount, res.Stats.ConnectionCount, res.CacheInfo.RenderHit)
		if err := writeArtifacts(res.Artifacts, opts.Formats, item.Name, ""); err != nil {
			return err
		}
	}
	return nil
}

// loadInputs parses the arguments into named batch items. With recursive
// set, each argument is a directory tree merged into one input; otherwise
// each argument is a single DOT file.
func loadInputs(args []string, recursive bool) ([]pipeline.BatchItem, error) {
	items := make([]pipeline.BatchItem, 0, len(args))
	for _, arg := range args {
		if recursive {
			in, err := intake.ParseDir(arg)
			if err != nil {
				return nil, fmt.Errorf("parse %s: %w", arg, err)
			}
			// Derived outputs land inside the directory.
			items = append(items, pipeline.BatchItem{
				Name:  filepath.Join(filepath.Clean(arg), "bgraph.json"),
				Input: in,
			})
			continue
		}

		data, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		in, err := intake.ParseDOT(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", arg, err)
		}
		items = append(items, pipeline.BatchItem{Name: arg, Input: in})
	}
	return items, nil
}

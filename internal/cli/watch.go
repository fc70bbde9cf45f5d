package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/bgraph-dev/dot2bgraph/pkg/config"
	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
	"github.com/bgraph-dev/dot2bgraph/pkg/pipeline"
)

// debounceDelay batches bursts of file system events (editors often fire
// several per save) into one conversion.
const debounceDelay = 200 * time.Millisecond

// watchCommand creates the watch command for continuous re-conversion.
func (c *CLI) watchCommand() *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Re-convert a directory of DOT files on change",
		Long: `Watch a directory tree of .dot/.gv files and re-convert on every change.

The whole tree is merged into a single model the same way 'convert
--recursive' does, and the outputs are rewritten after each change.
Combine with 'serve' for a live browser view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			if err := pipeline.ValidateFormats(cfg.Formats); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), args[0], cfg, flags)
		},
	}

	cmd.Flags().StringP("output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringSliceP("format", "f", []string{"json"}, "output format(s): json (default), svg, png, pdf")
	cmd.Flags().Int("max-row-width", 48, "row width at which child packing wraps")
	cmd.Flags().Int("padding", 2, "clearance between a container border and its children")
	cmd.Flags().Int("port-spacing", 1, "minimum gap between adjacent ports")
	cmd.Flags().Int("workers", 4, "concurrent conversions")
	cmd.Flags().Bool("no-cache", false, "disable artifact caching")
	cmd.Flags().IntVar(&flags.cellSize, "cell-size", 0, "SVG grid cell size in pixels")
	cmd.Flags().BoolVar(&flags.noLabels, "no-labels", false, "omit block labels from SVG output")
	cmd.Flags().BoolVar(&flags.noConnections, "no-connections", false, "omit connection lines from SVG output")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, dir string, cfg *config.Config, flags convertFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watchTree(watcher, dir); err != nil {
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
		Workers:       cfg.Workers,
		Logger:        c.Logger,
	}

	// Initial conversion before the first change.
	if err := c.watchConvert(ctx, runner, dir, opts, cfg.Output); err != nil {
		printError("%v", err)
	}
	printInfo("Watching %s", dir)

	debounce := time.NewTimer(debounceDelay)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isDotFile(event.Name) {
				// New subdirectories need their own watch.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watchTree(watcher, event.Name)
					}
				}
				continue
			}
			debounce.Reset(debounceDelay)

		case <-debounce.C:
			if err := c.watchConvert(ctx, runner, dir, opts, cfg.Output); err != nil {
				printError("%v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Error("watcher error", "err", err)
		}
	}
}

// watchConvert runs one conversion pass over the directory tree.
func (c *CLI) watchConvert(ctx context.Context, runner *pipeline.Runner, dir string, opts pipeline.Options, output string) error {
	in, err := intake.ParseDir(dir)
	if err != nil {
		return fmt.Errorf("parse %s: %w", dir, err)
	}

	res, err := runner.Convert(ctx, in, opts)
	if err != nil {
		return fmt.Errorf("convert %s: %w", dir, err)
	}

	printSuccess("Converted %s", dir)
	printStats(res.Stats.BlockCount, res.Stats.ConnectionCount, res.CacheInfo.RenderHit)
	return writeArtifacts(res.Artifacts, opts.Formats, filepath.Join(filepath.Clean(dir), "bgraph.json"), output)
}

// watchTree adds dir and all its subdirectories to the watcher.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}

// isDotFile reports whether the path names a Graphviz source file.
func isDotFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".dot" || ext == ".gv"
}

package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// cacheCommand groups maintenance for the on-disk artifact cache.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the rendered artifact cache",
		Long: `Rendered SVG, PNG, and PDF artifacts are cached by model content hash.
Clearing is always safe: artifacts are re-rendered on demand.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached render artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("resolve cache dir: %w", err)
			}

			entries, size, err := sweepCache(dir)
			if err != nil {
				return err
			}
			if entries == 0 {
				printInfo("Cache is empty")
				return nil
			}

			printSuccess("Removed %d cached artifacts (%s)", entries, humanBytes(size))
			printDetail("Directory: %s", dir)
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand. The bare path on
// stdout keeps it usable from scripts.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the artifact cache location",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("resolve cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// sweepCache deletes every cache entry under dir and prunes the empty
// shard directories, returning how many entries and bytes were removed.
// A missing directory counts as an empty cache.
func sweepCache(dir string) (entries int, size int64, err error) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, infoErr := d.Info(); infoErr == nil {
			size += info.Size()
		}
		if rmErr := os.Remove(path); rmErr == nil {
			entries++
		}
		return nil
	})
	if walkErr != nil {
		return 0, 0, walkErr
	}

	shards, readErr := os.ReadDir(dir)
	if readErr != nil {
		return entries, size, nil
	}
	for _, shard := range shards {
		if shard.IsDir() {
			_ = os.Remove(filepath.Join(dir, shard.Name()))
		}
	}
	return entries, size, nil
}

// humanBytes formats a byte count for the clear summary.
func humanBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}

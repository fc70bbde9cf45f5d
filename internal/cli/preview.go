package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
	"github.com/bgraph-dev/dot2bgraph/pkg/pipeline"
	"github.com/bgraph-dev/dot2bgraph/pkg/preview"
)

// previewCommand creates the preview command for conventional node-link
// rendering via Graphviz.
func (c *CLI) previewCommand() *cobra.Command {
	var (
		output    string
		format    string
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "preview [file.dot]",
		Short: "Render a node-link preview of the input graph",
		Long: `Render the input as a conventional node-link diagram via Graphviz.

The preview bypasses the block conversion entirely. It is meant for
sanity-checking inputs: if the preview looks wrong, the problem is the
DOT source, not the converter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != pipeline.FormatSVG && format != pipeline.FormatPNG && format != pipeline.FormatPDF {
				return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf)", format)
			}
			return c.runPreview(cmd.Context(), args[0], output, format, recursive)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: derived from input)")
	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: svg (default), png, pdf")
	cmd.Flags().BoolVarP(&recursive, "recursive", "R", false, "treat the argument as a directory of DOT files")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, input, output, format string, recursive bool) error {
	var (
		in  *intake.Input
		err error
	)
	if recursive {
		in, err = intake.ParseDir(input)
	} else {
		var data []byte
		if data, err = os.ReadFile(input); err == nil {
			in, err = intake.ParseDOT(data)
		}
	}
	if err != nil {
		return fmt.Errorf("parse %s: %w", input, err)
	}

	spinner := newSpinnerWithContext(ctx, "Rendering preview...")
	spinner.Start()

	dot := preview.ToDOT(in)
	var data []byte
	switch format {
	case pipeline.FormatPNG:
		data, err = preview.RenderPNG(ctx, dot, 2.0)
	case pipeline.FormatPDF:
		data, err = preview.RenderPDF(ctx, dot)
	default:
		data, err = preview.RenderSVG(ctx, dot)
	}
	if err != nil {
		spinner.StopWithError("Preview failed")
		return fmt.Errorf("preview %s: %w", input, err)
	}
	spinner.Stop()

	printSuccess("Rendered preview of %s", input)
	if output == "" {
		output = basePath("", input) + "_preview." + format
	}
	return writeFile(output, data)
}

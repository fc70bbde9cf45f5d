package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/bgraph-dev/dot2bgraph/pkg/config"
	"github.com/bgraph-dev/dot2bgraph/pkg/viewer"
)

// serveCommand creates the serve command for viewing a converted model in
// a browser.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		cellSize int
		refresh  int
	)

	cmd := &cobra.Command{
		Use:   "serve [bgraph.json]",
		Short: "Serve a block graph model for browser viewing",
		Long: `Serve a converted model over HTTP.

The model file is re-read on every request, so re-running convert (or
running 'watch' alongside) shows updates on the next browser refresh.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), args[0], cfg.Addr, cellSize, refresh)
		},
	}

	cmd.Flags().String("addr", "localhost:8485", "listen address")
	cmd.Flags().IntVar(&cellSize, "cell-size", 0, "SVG grid cell size in pixels")
	cmd.Flags().IntVar(&refresh, "refresh-interval", 0, "browser auto-refresh interval in seconds (0 disables)")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, modelPath, addr string, cellSize, refresh int) error {
	handler := viewer.Handler(viewer.Options{
		ModelPath:      modelPath,
		CellSize:       cellSize,
		RefreshSeconds: refresh,
		Logger:         c.Logger,
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printSuccess("Serving %s", modelPath)
	printNextStep("Open", "http://"+addr+"/")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bgraph-dev/dot2bgraph/pkg/intake"
)

// BatchItem is one named input in a batch run. Name is typically the
// source file path and keys the result map.
type BatchItem struct {
	Name  string
	Input *intake.Input
}

// BatchResult collects the outcomes of a batch run.
type BatchResult struct {
	// RunID identifies this batch run in logs.
	RunID string

	// Results maps item names to their pipeline results. Only items that
	// converted successfully appear here.
	Results map[string]*Result

	// Duration is the wall-clock time of the whole batch.
	Duration time.Duration
}

// ConvertBatch converts multiple inputs concurrently. Conversions run on
// up to opts.Workers goroutines; the first failure cancels the rest and
// is returned wrapped with its item name.
func (r *Runner) ConvertBatch(ctx context.Context, items []BatchItem, opts Options) (*BatchResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	batch := &BatchResult{
		RunID:   uuid.NewString(),
		Results: make(map[string]*Result, len(items)),
	}
	logger := opts.Logger.With("run", batch.RunID)

	start := time.Now()
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(opts.Workers)

	var mu sync.Mutex
	for _, item := range items {
		grp.Go(func() error {
			itemOpts := opts
			itemOpts.Logger = logger.With("input", item.Name)

			res, err := r.Convert(ctx, item.Input, itemOpts)
			if err != nil {
				return fmt.Errorf("%s: %w", item.Name, err)
			}

			mu.Lock()
			batch.Results[item.Name] = res
			mu.Unlock()
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	batch.Duration = time.Since(start)

	logger.Info("batch complete",
		"inputs", len(items),
		"duration", batch.Duration)

	return batch, nil
}

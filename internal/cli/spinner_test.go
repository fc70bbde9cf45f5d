package cli

import (
	"context"
	"testing"
	"time"
)

func TestSpinnerStop(t *testing.T) {
	s := newSpinner("converting")
	s.Start()
	time.Sleep(2 * spinnerInterval)
	s.Stop()

	if s.Cancelled() {
		t.Error("Cancelled() = true after explicit Stop, want false")
	}
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := newSpinner("converting")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinnerWithContext(ctx, "converting")
	s.Start()

	cancel()
	s.Stop()

	if !s.Cancelled() {
		t.Error("Cancelled() = false after context cancel, want true")
	}
}

func TestSpinnerContextTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), spinnerInterval/2)
	defer cancel()

	s := newSpinnerWithContext(ctx, "converting")
	s.Start()
	<-ctx.Done()
	s.Stop()

	if !s.Cancelled() {
		t.Error("Cancelled() = false after context timeout, want true")
	}
}

func TestSpinnerOutcomeMessages(t *testing.T) {
	s := newSpinner("converting")
	s.Start()
	s.StopWithSuccess("done")

	s = newSpinner("converting")
	s.Start()
	s.StopWithError("failed")
}

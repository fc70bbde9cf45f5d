package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

const spinnerInterval = 80 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner animates a short status line on stderr while a conversion
// runs. It stops on an explicit Stop or when the surrounding context is
// cancelled, and erases its line either way so the final summary prints
// clean.
type Spinner struct {
	message string
	parent  context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	stop    sync.Once
	idle    chan struct{}
}

func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext ties the animation to ctx: cancelling it halts
// the spinner as if Stop had been called.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	derived, cancel := context.WithCancel(ctx)
	return &Spinner{
		message: message,
		parent:  ctx,
		ctx:     derived,
		cancel:  cancel,
		idle:    make(chan struct{}),
	}
}

// Start launches the animation goroutine. Stop must follow before the
// process prints its own output.
func (s *Spinner) Start() {
	go func() {
		defer close(s.idle)
		defer s.erase()
		tick := time.NewTicker(spinnerInterval)
		defer tick.Stop()
		for frame := 0; ; frame++ {
			select {
			case <-s.ctx.Done():
				return
			case <-tick.C:
				glyph := spinnerFrames[frame%len(spinnerFrames)]
				fmt.Fprintf(os.Stderr, "\r%s %s", styleIconSpinner.Render(glyph), StyleDim.Render(s.message))
			}
		}
	}()
}

// Stop halts the animation and waits for the status line to be erased.
// Safe to call more than once.
func (s *Spinner) Stop() {
	s.stop.Do(s.cancel)
	<-s.idle
}

// StopWithSuccess stops the spinner and prints a success line in its place.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and prints an error line in its place.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the surrounding context ended the spinner
// rather than an explicit Stop.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}

func (s *Spinner) erase() {
	width := utf8.RuneCountInString(s.message) + 4
	fmt.Fprintf(os.Stderr, "\r%s\r", strings.Repeat(" ", width))
}

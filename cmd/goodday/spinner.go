package main

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Spinner configuration constants
const (
	spinnerFrameWidth = 2                     // Unicode braille characters render ~2 columns
	spinnerAnimDelay  = 80 * time.Millisecond // Animation frame delay
	spinnerClearPad   = 5                     // Extra clearance for terminal variations
)

// simpleSpinner animates a message on w while a network call runs.
type simpleSpinner struct {
	frames   []string
	message  string
	done     atomic.Bool
	wg       sync.WaitGroup
	w        io.Writer
	clearLen int
}

func newSimpleSpinner(w io.Writer, message string) *simpleSpinner {
	return &simpleSpinner{
		frames:   []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message:  message,
		w:        w,
		clearLen: spinnerFrameWidth + 1 + len(message),
	}
}

func (s *simpleSpinner) Start() {
	if !isTTY() {
		fmt.Fprintf(s.w, "%s...\n", s.message)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		spinnerStyle := lipgloss.NewStyle().Foreground(colorPrimary)
		for i := 0; !s.done.Load(); i++ {
			frame := s.frames[i%len(s.frames)]
			fmt.Fprintf(s.w, "\r%s %s", spinnerStyle.Render(frame), s.message)
			time.Sleep(spinnerAnimDelay)
		}
	}()
}

// Stop ends the animation and clears the spinner line.
func (s *simpleSpinner) Stop() {
	s.done.Store(true)
	s.wg.Wait()
	if isTTY() {
		fmt.Fprint(s.w, "\r"+strings.Repeat(" ", s.clearLen+spinnerClearPad)+"\r")
	}
}

// runWithSpinner runs an operation with a spinner, showing progress.
func runWithSpinner(w io.Writer, message string, operation func() error) error {
	spin := newSimpleSpinner(w, message)
	spin.Start()
	err := operation()
	spin.Stop()
	return err
}

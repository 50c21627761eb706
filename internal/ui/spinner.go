package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// SpinnerState is where a spinner is in its life.
type SpinnerState int

const (
	SpinnerPending SpinnerState = iota
	SpinnerInProgress
	SpinnerSuccess
	SpinnerFailed
)

// FrameInterval is the animation speed.
const FrameInterval = 80 * time.Millisecond

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

// Spinner animates a one-line status while a slow step runs.
type Spinner struct {
	mu       sync.Mutex
	label    string
	state    SpinnerState
	frame    int
	started  time.Time
	out      io.Writer
	stop     chan struct{}
	done     chan struct{}
	running  bool
	lastLine int
}

// NewSpinner creates a spinner that writes to out.
func NewSpinner(label string, out io.Writer) *Spinner {
	return &Spinner{label: label, out: out}
}

// Start begins the animation. Calling it twice is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.state = SpinnerInProgress
	s.started = time.Now()
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	s.renderLocked()
	s.mu.Unlock()

	go s.animate()
}

// Success stops the spinner and prints a success line.
func (s *Spinner) Success() {
	s.finish(SpinnerSuccess)
}

// Fail stops the spinner and prints a failure line.
func (s *Spinner) Fail() {
	s.finish(SpinnerFailed)
}

// State returns the current state.
func (s *Spinner) State() SpinnerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Spinner) finish(state SpinnerState) {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stop)
		s.mu.Unlock()
		<-s.done
		s.mu.Lock()
	}
	s.state = state
	s.renderFinalLocked()
	s.mu.Unlock()
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(FrameInterval)
	defer ticker.Stop()
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(spinnerFrames)
			s.renderLocked()
			s.mu.Unlock()
		}
	}
}

func (s *Spinner) clearLocked() {
	if s.lastLine > 0 {
		fmt.Fprint(s.out, "\r"+strings.Repeat(" ", s.lastLine)+"\r")
	}
}

func (s *Spinner) renderLocked() {
	s.clearLocked()
	symbol := lipgloss.NewStyle().Foreground(ColorAccent).Render(spinnerFrames[s.frame])
	line := fmt.Sprintf("%s %s...", symbol, s.label)
	fmt.Fprint(s.out, line)
	s.lastLine = lipgloss.Width(line)
}

func (s *Spinner) renderFinalLocked() {
	s.clearLocked()
	s.lastLine = 0

	symbol, color := SymbolPending, ColorMuted
	switch s.state {
	case SpinnerSuccess:
		symbol, color = SymbolSuccess, ColorSuccess
	case SpinnerFailed:
		symbol, color = SymbolFail, ColorError
	}

	var elapsed time.Duration
	if !s.started.IsZero() {
		elapsed = time.Since(s.started)
	}
	fmt.Fprintf(s.out, "%s %s %s\n",
		lipgloss.NewStyle().Foreground(color).Render(symbol),
		s.label,
		lipgloss.NewStyle().Foreground(ColorMuted).Render(FormatDuration(elapsed)))
}

// FormatDuration renders short durations like "0.05s" or "1.2s".
func FormatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}

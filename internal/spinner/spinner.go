package spinner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays an animated progress line on stderr. Its message may be
// updated from any goroutine, e.g. from router attempt callbacks.
type Spinner struct {
	writer  io.Writer
	enabled bool

	mu      sync.Mutex
	message string
	active  bool
	done    chan struct{}
	stopped chan struct{}
}

// New creates a spinner that only draws when stderr is a terminal
func New(message string) *Spinner {
	return NewWithWriter(os.Stderr, message, term.IsTerminal(int(os.Stderr.Fd())))
}

// NewWithWriter creates a spinner drawing to w when enabled is true
func NewWithWriter(w io.Writer, message string, enabled bool) *Spinner {
	return &Spinner{writer: w, enabled: enabled, message: message}
}

// Start begins the animation; it is a no-op when disabled or already running
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.active {
		return
	}
	s.active = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.loop(s.done, s.stopped)
}

func (s *Spinner) loop(done, stopped chan struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.writer, "\r\033[K%s %s", frames[frame], s.message)
			s.mu.Unlock()
			frame = (frame + 1) % len(frames)
		}
	}
}

// Update changes the spinner message
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
	if s.active {
		fmt.Fprintf(s.writer, "\r\033[K%s %s", frames[0], s.message)
	}
}

// Message returns the current message
func (s *Spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Stop halts the spinner and clears the line
func (s *Spinner) Stop() {
	s.stop("")
}

// StopWithMessage stops the spinner and prints a final line
func (s *Spinner) StopWithMessage(message string) {
	s.stop(message)
}

func (s *Spinner) stop(final string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		if s.enabled && final != "" {
			fmt.Fprintln(s.writer, final)
		}
		return
	}
	s.active = false
	close(s.done)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped

	s.mu.Lock()
	defer s.mu.Unlock()
	if final != "" {
		fmt.Fprintf(s.writer, "\r\033[K%s\n", final)
	} else {
		fmt.Fprint(s.writer, "\r\033[K")
	}
}

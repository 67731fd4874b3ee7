package spinner

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinner_Disabled(t *testing.T) {
	var buf syncBuffer
	s := NewWithWriter(&buf, "working", false)
	s.Start()
	s.Update("still working")
	s.StopWithMessage("done")

	if buf.String() != "" {
		t.Errorf("disabled spinner wrote %q", buf.String())
	}
	if s.Message() != "still working" {
		t.Errorf("Message = %q", s.Message())
	}
}

func TestSpinner_ConcurrentUpdates(t *testing.T) {
	var buf syncBuffer
	s := NewWithWriter(&buf, "Trying openrouter...", true)
	s.Start()

	var wg sync.WaitGroup
	for _, name := range []string{"gemini", "anthropic", "ollama"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("Trying " + name + "...")
		}()
	}
	wg.Wait()
	time.Sleep(100 * time.Millisecond)
	s.StopWithMessage("✓ done")

	out := buf.String()
	if !strings.HasSuffix(out, "\r\033[K✓ done\n") {
		t.Errorf("unexpected tail %q", out)
	}

	// Stopping twice is harmless
	s.Stop()
}

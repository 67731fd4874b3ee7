package coach

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/careerguide/careerguide/internal/llm"
	"github.com/careerguide/careerguide/internal/prompt"
	"github.com/careerguide/careerguide/internal/session"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newStore(t *testing.T) *session.Store {
	t.Helper()
	s, err := session.Open(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCoach_Reply(t *testing.T) {
	store := newStore(t)
	chat := &llm.Mock{Script: []llm.MockResult{
		{Text: "Try backend roles."},
		{Text: "Start with Go."},
	}}
	c := New(chat, store, "mistral", quietLogger)
	ctx := context.Background()
	rc := &prompt.ResumeContext{Goal: "Backend Developer", FitScore: 60}

	reply, err := c.Reply(ctx, "u1", "What should I do?", rc)
	if err != nil || reply != "Try backend roles." {
		t.Fatalf("Reply = %q, %v", reply, err)
	}
	if !strings.Contains(chat.LastPrompt(), "start of a new conversation") {
		t.Error("first message should use the new conversation intro")
	}
	if !strings.Contains(chat.LastPrompt(), "Target Role: Backend Developer") {
		t.Error("resume context missing from prompt")
	}

	if _, err := c.Reply(ctx, "u1", "Which language?", rc); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(chat.LastPrompt(), "User: What should I do?\nAI: Try backend roles.") {
		t.Errorf("history missing from prompt:\n%s", chat.LastPrompt())
	}

	history, _ := store.FormatConversation(ctx, "u1")
	if strings.Count(history, "\n") != 3 {
		t.Errorf("expected 4 stored messages, got:\n%s", history)
	}
}

func TestCoach_Reset(t *testing.T) {
	store := newStore(t)
	chat := &llm.Mock{Response: "ok"}
	c := New(chat, store, "mistral", quietLogger)
	ctx := context.Background()

	_, _ = c.Reply(ctx, "u1", "hello", nil)
	reply, err := c.Reply(ctx, "u1", "  Restart ", nil)
	if err != nil || reply != ResetMessage {
		t.Fatalf("Reply = %q, %v", reply, err)
	}
	if chat.Calls() != 1 {
		t.Errorf("reset should not call the model, calls = %d", chat.Calls())
	}
	history, _ := store.FormatConversation(ctx, "u1")
	if history != "" {
		t.Errorf("history not cleared: %q", history)
	}
}

func TestCoach_FailureStoresNothing(t *testing.T) {
	store := newStore(t)
	c := New(&llm.Mock{Error: errors.New("connection refused")}, store, "mistral", quietLogger)
	ctx := context.Background()

	if _, err := c.Reply(ctx, "u1", "hello", nil); !errors.Is(err, llm.ErrProvider) {
		t.Errorf("expected provider error, got %v", err)
	}
	history, _ := store.FormatConversation(ctx, "u1")
	if history != "" {
		t.Errorf("failed exchange was stored: %q", history)
	}
}

func TestInterviewer_QuestionLimit(t *testing.T) {
	store := newStore(t)
	chat := &llm.Mock{}
	for i := 1; i <= 3; i++ {
		chat.Script = append(chat.Script, llm.MockResult{Text: fmt.Sprintf("  Question %d?\n", i)})
	}
	iv := NewInterviewer(chat, store, InterviewOptions{MaxQuestions: 2, Logger: quietLogger})
	ctx := context.Background()

	q1, err := iv.NextQuestion(ctx, "u1", "Go developer", "Backend Developer", "")
	if err != nil || q1 != "Question 1?" {
		t.Fatalf("first question = %q, %v", q1, err)
	}
	if _, err := iv.NextQuestion(ctx, "u1", "Go developer", "Backend Developer", "I use channels"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(chat.LastPrompt(), "Question 1?") {
		t.Error("already asked questions should be in the prompt")
	}

	done, err := iv.NextQuestion(ctx, "u1", "Go developer", "Backend Developer", "")
	if err != nil || done != CompletedMessage {
		t.Errorf("expected completion message, got %q, %v", done, err)
	}
	if chat.Calls() != 2 {
		t.Errorf("expected 2 model calls, got %d", chat.Calls())
	}

	if err := iv.Reset(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	if q, _ := iv.NextQuestion(ctx, "u1", "Go developer", "Backend Developer", ""); q != "Question 3?" {
		t.Errorf("after reset got %q", q)
	}
}

func TestInterviewer_ConcurrentQuestionsRespectLimit(t *testing.T) {
	store := newStore(t)
	iv := NewInterviewer(&llm.Mock{Response: "Tell me about a project."}, store,
		InterviewOptions{MaxQuestions: 2, Logger: quietLogger})
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q, err := iv.NextQuestion(ctx, "u1", "Go developer", "Backend Developer", "")
			if err != nil {
				t.Error(err)
				return
			}
			if q == CompletedMessage {
				mu.Lock()
				completed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if n, _ := store.QuestionCount(ctx, "u1"); n != 2 {
		t.Errorf("stored %d questions, want 2", n)
	}
	if completed != 4 {
		t.Errorf("%d callers saw the completion message, want 4", completed)
	}
}

func TestInterviewer_ScoreAndResult(t *testing.T) {
	store := newStore(t)
	chat := &llm.Mock{Script: []llm.MockResult{
		{Text: "Technical depth: 8/10\nOverall role fit (0-100%): 90%"},
		{Text: "Role Fit: 70 %"},
		{Text: "Good answer, no numbers."},
	}}
	iv := NewInterviewer(chat, store, InterviewOptions{Logger: quietLogger})
	ctx := context.Background()

	result, err := iv.FinalResult(ctx, "u1")
	if err != nil || result != NoScoresMessage {
		t.Errorf("FinalResult before answers = %q, %v", result, err)
	}

	want := []struct {
		fit    int
		scored bool
	}{{90, true}, {70, true}, {0, false}}
	for i, w := range want {
		eval, err := iv.Score(ctx, "u1", "my answer", "Backend Developer")
		if err != nil {
			t.Fatal(err)
		}
		if eval.RoleFit != w.fit || eval.Scored != w.scored {
			t.Errorf("answer %d: got %+v, want fit %d scored %v", i, eval, w.fit, w.scored)
		}
	}

	result, _ = iv.FinalResult(ctx, "u1")
	if result != "Congratulations! You passed the mock interview with an average score of 80.00%." {
		t.Errorf("FinalResult = %q", result)
	}

	_ = store.AddScore(ctx, "u1", 0)
	result, _ = iv.FinalResult(ctx, "u1")
	if !strings.HasPrefix(result, "You scored an average of 53.33%") {
		t.Errorf("FinalResult = %q", result)
	}
}

func TestExtractRoleFit(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"Role fit: 85%", 85, true},
		{"overall ROLE FIT - 60 %", 60, true},
		{"Overall role fit (0-100%): 45%", 45, true},
		{"Overall role fit (0-100%)\nRole fit: 72%", 72, true},
		{"Role fit: high\nScore 90%", 0, false},
		{"no score here", 0, false},
	}
	for _, tt := range tests {
		got, ok := ExtractRoleFit(tt.text)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractRoleFit(%q) = %d, %v; want %d, %v", tt.text, got, ok, tt.want, tt.ok)
		}
	}
}

package prompt

import (
	"strings"
	"testing"

	"github.com/careerguide/careerguide/internal/content"
)

func TestBuilder_Build(t *testing.T) {
	b := NewBuilder(256)

	for _, purpose := range content.Purposes {
		req, err := b.Build("  Docker ", purpose)
		if err != nil {
			t.Errorf("%s: unexpected error %v", purpose, err)
			continue
		}
		if req.Entity != "Docker" || req.Purpose != purpose {
			t.Errorf("%s: unexpected request identity %+v", purpose, req)
		}
		if !strings.Contains(req.Prompt, "Docker") {
			t.Errorf("%s: prompt does not mention the entity: %q", purpose, req.Prompt)
		}
		if req.SystemPrompt == "" || req.MaxTokens != 256 {
			t.Errorf("%s: missing system prompt or max tokens", purpose)
		}
	}

	req, _ := b.Build("go", content.LearningAndProjects)
	if !strings.Contains(req.Prompt, "Learning Path:") || !strings.Contains(req.Prompt, "Project Ideas:") {
		t.Error("combined prompt must ask for both section labels")
	}

	if _, err := b.Build("go", content.Purpose("nope")); err == nil {
		t.Error("expected error for unknown purpose")
	}
}

func TestCoachPrompt(t *testing.T) {
	rc := &ResumeContext{
		Goal:           "Backend Developer",
		FitScore:       60,
		AlternateRoles: []AlternateRole{{Role: "DevOps Engineer", Score: 71.5}},
	}

	first := CoachPrompt("", "What should I learn?", rc)
	if !strings.Contains(first, "start of a new conversation") {
		t.Error("first message should use the new conversation intro")
	}
	if !strings.Contains(first, "Target Role: Backend Developer") || !strings.Contains(first, "- DevOps Engineer (71.50%)") {
		t.Errorf("resume context missing from prompt:\n%s", first)
	}

	next := CoachPrompt("user: hi\nbot: hello", "And after that?", nil)
	if !strings.Contains(next, "ongoing career guidance chat") {
		t.Error("follow-up should use the continuing intro")
	}
}

func TestInterviewPrompts(t *testing.T) {
	q := InterviewQuestionPrompt("Data Analyst", "summary", "", nil)
	if !strings.Contains(q, "Already asked questions:\nNone") {
		t.Error("expected None when no questions were asked")
	}

	q = InterviewQuestionPrompt("Data Analyst", "summary", "my answer", []string{"Q1?", "Q2?"})
	if !strings.Contains(q, "Q1?\nQ2?") || !strings.Contains(q, `"my answer"`) {
		t.Errorf("unexpected question prompt:\n%s", q)
	}

	e := AnswerEvaluationPrompt("Data Analyst", "I used SQL")
	if !strings.Contains(e, "(0-100%)") || strings.Contains(e, "%!") {
		t.Errorf("evaluation prompt formatting broken:\n%s", e)
	}
}

func TestTruncateTokens(t *testing.T) {
	text := strings.Repeat("hello world ", 500)

	got := TruncateTokens(text, 50)
	if len(got) >= len(text) {
		t.Fatal("expected text to be truncated")
	}
	if n := CountTokens(got); n > 50 {
		t.Errorf("truncated text has %d tokens, want <= 50", n)
	}

	if TruncateTokens("short", 50) != "short" {
		t.Error("short text should be unchanged")
	}
	if TruncateTokens(text, 0) != text {
		t.Error("zero budget means unbounded")
	}
}

package coach

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/careerguide/careerguide/internal/llm"
	"github.com/careerguide/careerguide/internal/prompt"
	"github.com/careerguide/careerguide/internal/session"
)

const (
	CompletedMessage = "Mock Interview Completed. Please evaluate your overall performance."
	NoScoresMessage  = "No scores found. Please complete the interview first."
	ResetInterview   = "Mock interview session reset."

	DefaultMaxQuestions = 10
	DefaultPassScore    = 80
)

var (
	roleFitLabel = regexp.MustCompile(`(?i)role fit`)
	percentValue = regexp.MustCompile(`(\d+)\s*%`)
)

// InterviewOptions configures an Interviewer
type InterviewOptions struct {
	QuestionModel string
	ScoreModel    string
	MaxQuestions  int
	PassScore     int
	Logger        *slog.Logger
}

// Evaluation is the scored feedback for one answer
type Evaluation struct {
	Text    string `json:"evaluation"`
	RoleFit int    `json:"role_fit,omitempty"`
	Scored  bool   `json:"-"`
}

// Interviewer runs a mock interview for one user at a time
type Interviewer struct {
	chat   llm.Chatter
	store  *session.Store
	opts   InterviewOptions
	logger *slog.Logger
}

// NewInterviewer creates an interviewer
func NewInterviewer(chat llm.Chatter, store *session.Store, opts InterviewOptions) *Interviewer {
	if opts.MaxQuestions < 1 {
		opts.MaxQuestions = DefaultMaxQuestions
	}
	if opts.PassScore < 1 {
		opts.PassScore = DefaultPassScore
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Interviewer{chat: chat, store: store, opts: opts, logger: logger}
}

// NextQuestion asks a new question that has not been asked before, or returns
// CompletedMessage once the question limit is reached.
func (iv *Interviewer) NextQuestion(ctx context.Context, userID, summary, role, lastAnswer string) (string, error) {
	if strings.TrimSpace(summary) == "" || strings.TrimSpace(role) == "" {
		return "", fmt.Errorf("missing resume summary or target role")
	}

	count, err := iv.store.QuestionCount(ctx, userID)
	if err != nil {
		return "", err
	}
	if count >= iv.opts.MaxQuestions {
		return CompletedMessage, nil
	}

	asked, err := iv.store.Questions(ctx, userID)
	if err != nil {
		return "", err
	}

	question, err := iv.chat.Chat(ctx, iv.opts.QuestionModel, []llm.ChatMessage{
		{Role: "user", Content: prompt.InterviewQuestionPrompt(role, summary, lastAnswer, asked)},
	})
	if err != nil {
		return "", fmt.Errorf("interview question: %w", err)
	}
	question = strings.TrimSpace(question)

	recorded, err := iv.store.AddQuestionWithin(ctx, userID, question, iv.opts.MaxQuestions)
	if err != nil {
		return "", err
	}
	if !recorded {
		return CompletedMessage, nil
	}
	iv.logger.Debug("asked interview question", "user", userID, "number", count+1)
	return question, nil
}

// Score evaluates an answer and adds its role-fit percentage to the running
// total. Evaluations without a role-fit line are returned but not counted.
func (iv *Interviewer) Score(ctx context.Context, userID, answer, role string) (*Evaluation, error) {
	if strings.TrimSpace(answer) == "" || strings.TrimSpace(role) == "" {
		return nil, fmt.Errorf("missing answer or target role")
	}

	text, err := iv.chat.Chat(ctx, iv.opts.ScoreModel, []llm.ChatMessage{
		{Role: "user", Content: prompt.AnswerEvaluationPrompt(role, answer)},
	})
	if err != nil {
		return nil, fmt.Errorf("answer evaluation: %w", err)
	}

	eval := &Evaluation{Text: strings.TrimSpace(text)}
	if fit, ok := ExtractRoleFit(eval.Text); ok {
		eval.RoleFit, eval.Scored = fit, true
		if err := iv.store.AddScore(ctx, userID, fit); err != nil {
			return nil, err
		}
	} else {
		iv.logger.Warn("evaluation has no role fit score", "user", userID)
	}
	return eval, nil
}

// FinalResult reports the average role fit over scored answers
func (iv *Interviewer) FinalResult(ctx context.Context, userID string) (string, error) {
	total, scored, err := iv.store.Score(ctx, userID)
	if err != nil {
		return "", err
	}
	if scored == 0 {
		return NoScoresMessage, nil
	}

	average := float64(total) / float64(scored)
	if average >= float64(iv.opts.PassScore) {
		return fmt.Sprintf("Congratulations! You passed the mock interview with an average score of %.2f%%.", average), nil
	}
	return fmt.Sprintf("You scored an average of %.2f%%. Keep practicing and try harder next time!", average), nil
}

// Reset clears the user's interview progress
func (iv *Interviewer) Reset(ctx context.Context, userID string) error {
	return iv.store.ResetInterview(ctx, userID)
}

// ExtractRoleFit finds the percentage on the first "role fit" line of an
// evaluation. Range bounds such as "(0-100%)" are skipped.
func ExtractRoleFit(text string) (int, bool) {
	for _, loc := range roleFitLabel.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		for _, m := range percentValue.FindAllStringSubmatchIndex(rest, -1) {
			if m[2] > 0 && rest[m[2]-1] == '-' {
				continue
			}
			n, err := strconv.Atoi(rest[m[2]:m[3]])
			if err != nil || n > 100 {
				continue
			}
			return n, true
		}
	}
	return 0, false
}

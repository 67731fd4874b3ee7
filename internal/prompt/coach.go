package prompt

import (
	"fmt"
	"strings"
)

const (
	coachFirstIntro    = "You are a friendly AI career coach. This is the start of a new conversation with a user seeking career advice."
	coachContinueIntro = "You are continuing an ongoing career guidance chat. Use the conversation history only for background, but always focus on answering the user's latest question."

	coachTemplate = `%s

Here is the user's background for your internal reference only:
%s

Here is the conversation history for background only:
%s

Now, focus only on answering the user's latest question:
User: %s

Important: Do not repeat the full resume details or background unless specifically asked.
Base your suggestions (roles, learning paths, projects) on the user's latest needs.
Be concise, natural, supportive, and professional.`

	interviewQuestionTemplate = `You are an AI Interviewer for the role of a %s.

Candidate Summary:
%s

Their last answer (if any): "%s"

Already asked questions:
%s

Please generate a new, unique technical or behavioral interview question (1 at a time) that:
- Is relevant for the role
- Is not repeated
- Tests either technical depth or thinking ability
- Is concise and clear

Return only the question, no extra commentary.`

	answerEvaluationTemplate = `You are an AI interviewer for the role of %s.
Evaluate the candidate's answer to an interview question.

Answer:
%s

Rate on:
- Technical depth (0-10)
- Communication clarity (0-10)
- Confidence/professionalism (0-10)
- Overall role fit (0-100%%)

Also, provide:
- Strengths of the answer
- Areas for improvement
- Final recommendation

Return the result in structured, readable format. Include a line of the form "Role fit: NN%%".`
)

// AlternateRole is a suggested role shown to the coach as background
type AlternateRole struct {
	Role  string
	Score float64
}

// ResumeContext is the analysis result the coach may reference
type ResumeContext struct {
	Goal           string
	FitScore       int
	AlternateRoles []AlternateRole
}

// String renders the context as prompt background
func (rc *ResumeContext) String() string {
	if rc == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Target Role: %s\n", orNA(rc.Goal))
	fmt.Fprintf(&b, "Fit Score: %d%%\n", rc.FitScore)
	if len(rc.AlternateRoles) > 0 {
		b.WriteString("Alternate Role Suggestions:\n")
		for _, alt := range rc.AlternateRoles {
			fmt.Fprintf(&b, "- %s (%.2f%%)\n", alt.Role, alt.Score)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// CoachPrompt builds the career coach prompt from history and the latest message
func CoachPrompt(history, message string, rc *ResumeContext) string {
	intro := coachContinueIntro
	if strings.TrimSpace(history) == "" {
		intro = coachFirstIntro
	}
	return fmt.Sprintf(coachTemplate, intro, rc.String(), history, message)
}

// InterviewQuestionPrompt asks for the next, non-repeated interview question
func InterviewQuestionPrompt(role, summary, lastAnswer string, asked []string) string {
	previous := strings.Join(asked, "\n")
	if previous == "" {
		previous = "None"
	}
	return fmt.Sprintf(interviewQuestionTemplate, role, summary, lastAnswer, previous)
}

// AnswerEvaluationPrompt asks for a structured evaluation of an answer
func AnswerEvaluationPrompt(role, answer string) string {
	return fmt.Sprintf(answerEvaluationTemplate, role, answer)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

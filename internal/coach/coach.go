// Package coach runs the conversational features: a career guidance chat and
// a mock interview that asks questions, scores answers and reports a result.
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careerguide/careerguide/internal/llm"
	"github.com/careerguide/careerguide/internal/prompt"
	"github.com/careerguide/careerguide/internal/session"
)

const ResetMessage = "Career guidance session reset."

// Coach answers career questions with the user's chat history as background
type Coach struct {
	chat   llm.Chatter
	store  *session.Store
	model  string
	logger *slog.Logger
}

// New creates a career coach using model for replies
func New(chat llm.Chatter, store *session.Store, model string, logger *slog.Logger) *Coach {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coach{chat: chat, store: store, model: model, logger: logger}
}

// Reply answers message for userID. "reset" or "restart" clears the history
// instead. The exchange is stored only when the model answers.
func (c *Coach) Reply(ctx context.Context, userID, message string, rc *prompt.ResumeContext) (string, error) {
	if userID == "" || strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("missing user id or message")
	}

	switch strings.ToLower(strings.TrimSpace(message)) {
	case "reset", "restart":
		if err := c.store.ResetConversation(ctx, userID); err != nil {
			return "", err
		}
		return ResetMessage, nil
	}

	history, err := c.store.FormatConversation(ctx, userID)
	if err != nil {
		return "", err
	}

	c.logger.Debug("asking career coach", "user", userID, "model", c.model)
	reply, err := c.chat.Chat(ctx, c.model, []llm.ChatMessage{
		{Role: "user", Content: prompt.CoachPrompt(history, message, rc)},
	})
	if err != nil {
		return "", fmt.Errorf("career coach: %w", err)
	}

	if err := c.store.AppendMessage(ctx, userID, session.SenderUser, message); err != nil {
		return "", err
	}
	if err := c.store.AppendMessage(ctx, userID, session.SenderAI, reply); err != nil {
		return "", err
	}
	return reply, nil
}

package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/careerguide/careerguide/internal/content"
)

// Provider is the common interface for all hosted and local LLM backends.
// An adapter makes exactly one attempt per call; timeouts and fallback are
// the router's job.
type Provider interface {
	// Name returns the configured provider name (openrouter, gemini, ...)
	Name() string

	// Generate sends the request and returns the raw generated text
	Generate(ctx context.Context, req content.Request) (string, error)
}

// ErrProvider matches every ProviderError via errors.Is
var ErrProvider = errors.New("provider error")

// ErrEmptyResponse is wrapped when a provider answers without the expected text
var ErrEmptyResponse = errors.New("response missing generated text")

// ProviderError describes a single failed provider invocation: transport
// failure, non-success status or a malformed body.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int // 0 when no HTTP status was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrProvider) hold for any ProviderError
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

func newProviderError(provider, op string, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, StatusCode: status, Err: err}
}

// Kinds of provider adapters that can be configured
const (
	KindOpenAI    = "openai"
	KindGemini    = "gemini"
	KindAnthropic = "anthropic"
	KindOllama    = "ollama"
)

// Kinds lists every supported adapter kind
var Kinds = []string{KindOpenAI, KindGemini, KindAnthropic, KindOllama}

// ChatMessage is one turn of a multi-turn conversation
type ChatMessage struct {
	Role    string // system, user or assistant
	Content string
}

// Chatter is implemented by providers that accept a full message history.
// The coach uses it for conversations; single-shot generation goes through Generate.
type Chatter interface {
	Chat(ctx context.Context, model string, messages []ChatMessage) (string, error)
}

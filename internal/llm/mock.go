package llm

import (
	"context"
	"sync"

	"github.com/careerguide/careerguide/internal/content"
)

// Mock is a deterministic provider for tests. Responses are consumed in order;
// once exhausted, Response/Error are returned for every further call.
type Mock struct {
	ProviderName string
	Response     string
	Error        error

	// Script, when set, overrides Response/Error call by call
	Script []MockResult

	// Hook runs before each call returns, e.g. to block or count
	Hook func(ctx context.Context, req content.Request)

	mu         sync.Mutex
	calls      int
	lastPrompt string
	messages   []ChatMessage
}

// MockResult is one scripted reply
type MockResult struct {
	Text string
	Err  error
}

// Name returns the mock's provider name
func (m *Mock) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Generate returns the next scripted result
func (m *Mock) Generate(ctx context.Context, req content.Request) (string, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.lastPrompt = req.Prompt
	m.mu.Unlock()

	if m.Hook != nil {
		m.Hook(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return "", newProviderError(m.Name(), "generate", 0, err)
	}

	text, err := m.Response, m.Error
	if idx < len(m.Script) {
		text, err = m.Script[idx].Text, m.Script[idx].Err
	}
	if err != nil {
		return "", newProviderError(m.Name(), "generate", 0, err)
	}
	return text, nil
}

// Chat records the conversation and answers like Generate
func (m *Mock) Chat(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	m.mu.Lock()
	m.messages = append([]ChatMessage(nil), messages...)
	m.mu.Unlock()

	var prompt string
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	return m.Generate(ctx, content.Request{Prompt: prompt})
}

// Calls returns how many times the mock was invoked
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastPrompt returns the prompt of the most recent call
func (m *Mock) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPrompt
}

// LastMessages returns the messages of the most recent Chat call
func (m *Mock) LastMessages() []ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ChatMessage(nil), m.messages...)
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/careerguide/careerguide/internal/content"
	"github.com/ollama/ollama/api"
)

const defaultOllamaHost = "http://localhost:11434"

// OllamaConfig configures a local Ollama provider
type OllamaConfig struct {
	Name       string
	BaseURL    string // empty uses OLLAMA_HOST or localhost
	Model      string
	HTTPClient *http.Client
}

// OllamaProvider implements the Provider interface for Ollama
type OllamaProvider struct {
	name   string
	model  string
	client *api.Client
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(cfg OllamaConfig) (*OllamaProvider, error) {
	var client *api.Client
	if cfg.BaseURL == "" {
		// Initialize client from environment (OLLAMA_HOST)
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid Ollama base URL %q: %w", cfg.BaseURL, err)
		}
		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		client = api.NewClient(base, httpClient)
	}

	name := cfg.Name
	if name == "" {
		name = KindOllama
	}

	return &OllamaProvider{
		name:   name,
		model:  cfg.Model,
		client: client,
	}, nil
}

// Generate sends a single non-streaming chat request
func (p *OllamaProvider) Generate(ctx context.Context, req content.Request) (string, error) {
	var messages []ChatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})

	return p.chat(ctx, p.model, messages, req.MaxTokens)
}

// Chat sends a multi-turn conversation. An empty model uses the configured one.
func (p *OllamaProvider) Chat(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	if model == "" {
		model = p.model
	}
	return p.chat(ctx, model, messages, 0)
}

func (p *OllamaProvider) chat(ctx context.Context, model string, messages []ChatMessage, maxTokens int) (string, error) {
	if model == "" {
		return "", newProviderError(p.name, "chat", 0, errors.New("no model configured"))
	}

	apiMessages := make([]api.Message, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, api.Message{Role: m.Role, Content: m.Content})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: apiMessages,
		Stream:   &stream,
	}
	if maxTokens > 0 {
		chatReq.Options = map[string]any{"num_predict": maxTokens}
	}

	// Accumulate response content
	var full strings.Builder
	respFunc := func(resp api.ChatResponse) error {
		full.WriteString(resp.Message.Content)
		return nil
	}

	if err := p.client.Chat(ctx, chatReq, respFunc); err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", newProviderError(p.name, "chat", statusErr.StatusCode, err)
		}
		return "", newProviderError(p.name, "chat", 0, err)
	}

	text := strings.TrimSpace(full.String())
	if text == "" {
		return "", newProviderError(p.name, "chat", 0, ErrEmptyResponse)
	}
	return text, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return p.name
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/careerguide/careerguide/internal/content"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig configures an OpenAI-compatible chat-completions provider.
// OpenRouter, Groq and OpenAI itself all speak this protocol.
type OpenAIConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Model      string
	Headers    map[string]string
	HTTPClient *http.Client
}

// OpenAIProvider implements the Provider interface for OpenAI-compatible endpoints
type OpenAIProvider struct {
	name   string
	model  string
	client openai.Client
}

// NewOpenAIProvider creates a new OpenAI-compatible provider
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Name)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model is required", cfg.Name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// One attempt per call; the router decides what happens next
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	name := cfg.Name
	if name == "" {
		name = KindOpenAI
	}

	return &OpenAIProvider{
		name:   name,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}, nil
}

// Generate sends a single chat completion request
func (p *OpenAIProvider) Generate(ctx context.Context, req content.Request) (string, error) {
	var messages []ChatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Prompt})

	return p.complete(ctx, p.model, messages, req.MaxTokens)
}

// Chat sends a multi-turn conversation. An empty model uses the configured one.
func (p *OpenAIProvider) Chat(ctx context.Context, model string, messages []ChatMessage) (string, error) {
	if model == "" {
		model = p.model
	}
	return p.complete(ctx, model, messages, 0)
}

func (p *OpenAIProvider) complete(ctx context.Context, model string, messages []ChatMessage, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(messages),
		Model:    openai.ChatModel(model),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", newProviderError(p.name, "chat completion", apiErr.StatusCode, err)
		}
		return "", newProviderError(p.name, "chat completion", 0, err)
	}

	if len(resp.Choices) == 0 {
		return "", newProviderError(p.name, "chat completion", 0, ErrEmptyResponse)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", newProviderError(p.name, "chat completion", 0, ErrEmptyResponse)
	}
	return text, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

func toOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

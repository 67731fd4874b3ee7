package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/careerguide/careerguide/internal/content"
)

const anthropicDefaultMaxTokens = 1024

// AnthropicConfig configures a Claude Messages API provider
type AnthropicConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// AnthropicProvider implements the Provider interface for the Messages API
type AnthropicProvider struct {
	name   string
	model  string
	client anthropic.Client
}

// NewAnthropicProvider creates a new Anthropic provider
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Name)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model is required", cfg.Name)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	name := cfg.Name
	if name == "" {
		name = KindAnthropic
	}

	return &AnthropicProvider{
		name:   name,
		model:  cfg.Model,
		client: anthropic.NewClient(opts...),
	}, nil
}

// Generate sends a single Messages API request
func (p *AnthropicProvider) Generate(ctx context.Context, req content.Request) (string, error) {
	// max_tokens is mandatory for this API
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", newProviderError(p.name, "messages", apiErr.StatusCode, err)
		}
		return "", newProviderError(p.name, "messages", 0, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", newProviderError(p.name, "messages", 0, ErrEmptyResponse)
	}
	return text, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return p.name
}

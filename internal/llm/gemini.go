package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/careerguide/careerguide/internal/content"
	"google.golang.org/genai"
)

// GeminiConfig configures a Google Generative Language API provider
type GeminiConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
}

// GeminiProvider implements the Provider interface for Gemini models
type GeminiProvider struct {
	name   string
	model  string
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required", cfg.Name)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%s: model is required", cfg.Name)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	name := cfg.Name
	if name == "" {
		name = KindGemini
	}

	return &GeminiProvider{
		name:   name,
		model:  cfg.Model,
		client: client,
	}, nil
}

// Generate sends a single generateContent request
func (p *GeminiProvider) Generate(ctx context.Context, req content.Request) (string, error) {
	genCfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", newProviderError(p.name, "generate content", apiErr.Code, err)
		}
		return "", newProviderError(p.name, "generate content", 0, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", newProviderError(p.name, "generate content", 0, ErrEmptyResponse)
	}
	return text, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return p.name
}

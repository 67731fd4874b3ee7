package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/careerguide/careerguide/internal/config"
	"github.com/careerguide/careerguide/internal/llm"
	"github.com/careerguide/careerguide/internal/match"
	"github.com/careerguide/careerguide/internal/router"
)

// errNoProviders is returned when no configured provider can be created
var errNoProviders = errors.New("no usable providers; set the API key variables listed by 'careerguide providers'")

// CreateProvider initializes one provider from its configuration
func CreateProvider(ctx context.Context, p config.Provider) (llm.Provider, error) {
	if p.NeedsAPIKey() && p.APIKey() == "" {
		return nil, fmt.Errorf("%s: API key not found, set %s", p.Name, p.APIKeyEnv)
	}

	switch p.Kind {
	case llm.KindOpenAI:
		return llm.NewOpenAIProvider(llm.OpenAIConfig{
			Name:    p.Name,
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey(),
			Model:   p.Model,
			Headers: p.Headers,
		})
	case llm.KindGemini:
		return llm.NewGeminiProvider(ctx, llm.GeminiConfig{
			Name:    p.Name,
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey(),
			Model:   p.Model,
		})
	case llm.KindAnthropic:
		return llm.NewAnthropicProvider(llm.AnthropicConfig{
			Name:    p.Name,
			BaseURL: p.BaseURL,
			APIKey:  p.APIKey(),
			Model:   p.Model,
		})
	case llm.KindOllama:
		return llm.NewOllamaProvider(llm.OllamaConfig{
			Name:    p.Name,
			BaseURL: p.BaseURL,
			Model:   p.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported provider kind: %s", p.Kind)
	}
}

// CreateProviders builds every provider it can, in configured order.
// Providers that cannot be created are logged and left out of the rotation.
func CreateProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]llm.Provider, error) {
	var providers []llm.Provider
	for _, p := range cfg.Providers {
		provider, err := CreateProvider(ctx, p)
		if err != nil {
			logger.Warn("skipping provider", "provider", p.Name, "error", err)
			continue
		}
		providers = append(providers, provider)
	}
	if len(providers) == 0 {
		return nil, errNoProviders
	}
	return providers, nil
}

// CreateRouter builds the fallback router with a freshly drawn rotation threshold
func CreateRouter(cfg *config.Config, providers []llm.Provider, logger *slog.Logger, onAttempt func(string, int)) (*router.Router, error) {
	threshold, err := router.DrawThreshold(cfg.Rotation.Seed, cfg.Rotation.Min, cfg.Rotation.Max)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	rotation, err := router.NewRotation(names, threshold)
	if err != nil {
		return nil, err
	}
	logger.Debug("provider rotation", "order", names, "threshold", threshold)

	return router.New(providers, rotation, router.Options{
		Timeout:    cfg.Generation.Timeout(),
		RetryPause: cfg.Generation.RetryPause(),
		Logger:     logger,
		OnAttempt:  onAttempt,
	})
}

// CreateChatter builds the local chat client used by the coach and interviewer
func CreateChatter(cfg *config.Config) (*llm.OllamaProvider, error) {
	return llm.NewOllamaProvider(llm.OllamaConfig{
		Name:    "coach",
		BaseURL: cfg.Coach.BaseURL,
		Model:   cfg.Coach.CareerModel,
	})
}

// CreateEmbedder returns the configured embedding endpoint, or the hashing
// embedder when none is configured
func CreateEmbedder(cfg *config.Config, logger *slog.Logger) match.Embedder {
	e := cfg.Embedding
	if e.Model == "" {
		return match.HashingEmbedder{}
	}
	var apiKey string
	if e.APIKeyEnv != "" {
		apiKey = os.Getenv(e.APIKeyEnv)
	}
	embedder, err := match.NewOpenAIEmbedder(match.OpenAIEmbedderConfig{
		BaseURL: e.BaseURL,
		APIKey:  apiKey,
		Model:   e.Model,
	})
	if err != nil {
		logger.Warn("falling back to hashing embedder", "error", err)
		return match.HashingEmbedder{}
	}
	return embedder
}

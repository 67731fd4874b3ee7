package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
	"github.com/careerguide/careerguide/internal/llm"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const appName = "careerguide"

// Config represents the entire careerguide configuration
type Config struct {
	CacheDir   string           `toml:"cache_dir,omitempty"`
	Rotation   RotationConfig   `toml:"rotation"`
	Generation GenerationConfig `toml:"generation"`
	Providers  []Provider       `toml:"providers"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	Coach      CoachConfig      `toml:"coach"`
	Session    SessionConfig    `toml:"session"`
	Skills     SkillsConfig     `toml:"skills"`
}

// RotationConfig bounds the randomized rotation threshold
type RotationConfig struct {
	Min  int    `toml:"min"`
	Max  int    `toml:"max"`
	Seed uint64 `toml:"seed,omitempty"` // 0 = seed from the clock
}

// GenerationConfig tunes provider calls and the recommendation pipeline
type GenerationConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	RetryPauseMs   int `toml:"retry_pause_ms"`
	MaxTokens      int `toml:"max_tokens,omitempty"`
	Concurrency    int `toml:"concurrency"`
	ResumeTokens   int `toml:"resume_tokens"` // resume text budget before summarization
}

// Provider describes one hosted or local LLM endpoint in the rotation
type Provider struct {
	Name      string            `toml:"name"`
	Kind      string            `toml:"kind"` // openai, gemini, anthropic, ollama
	BaseURL   string            `toml:"base_url,omitempty"`
	Model     string            `toml:"model"`
	APIKeyEnv string            `toml:"api_key_env,omitempty"`
	Headers   map[string]string `toml:"headers,omitempty"`
}

// EmbeddingConfig selects the embedding endpoint used for role matching.
// An empty model falls back to the built-in hashing embedder.
type EmbeddingConfig struct {
	BaseURL   string `toml:"base_url,omitempty"`
	Model     string `toml:"model,omitempty"`
	APIKeyEnv string `toml:"api_key_env,omitempty"`
}

// CoachConfig configures the local chat models used by the coach and interviewer
type CoachConfig struct {
	BaseURL       string `toml:"base_url,omitempty"` // empty uses OLLAMA_HOST
	CareerModel   string `toml:"career_model"`
	QuestionModel string `toml:"question_model"`
	ScoreModel    string `toml:"score_model"`
	MaxQuestions  int    `toml:"max_questions"`
	PassScore     int    `toml:"pass_score"`
}

// SessionConfig locates the conversation store
type SessionConfig struct {
	DBPath string `toml:"db_path,omitempty"`
}

// SkillsConfig locates the role to skills taxonomy
type SkillsConfig struct {
	MapPath string `toml:"map_path,omitempty"`
}

// Default returns the built-in configuration: OpenRouter first, Gemini second,
// rotation after 10 to 15 successes.
func Default() *Config {
	return &Config{
		Rotation: RotationConfig{Min: 10, Max: 15},
		Generation: GenerationConfig{
			TimeoutSeconds: 30,
			RetryPauseMs:   1000,
			Concurrency:    4,
			ResumeTokens:   1000,
		},
		Providers: DefaultProviders(),
		Coach: CoachConfig{
			CareerModel:   "mistral",
			QuestionModel: "mistral",
			ScoreModel:    "gemma:7b",
			MaxQuestions:  10,
			PassScore:     80,
		},
	}
}

// DefaultProviders returns the default rotation
func DefaultProviders() []Provider {
	return []Provider{
		{
			Name:      "openrouter",
			Kind:      "openai",
			BaseURL:   "https://openrouter.ai/api/v1/",
			Model:     "openai/gpt-3.5-turbo",
			APIKeyEnv: "OPENROUTER_API_KEY",
			Headers:   map[string]string{"HTTP-Referer": "https://github.com/careerguide/careerguide"},
		},
		{
			Name:      "gemini",
			Kind:      "gemini",
			Model:     "gemini-pro",
			APIKeyEnv: "GEMINI_API_KEY",
		},
	}
}

// Load reads the configuration from path (or the default location) and
// applies environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyDefaults()

	// Override with environment variables if set
	if dir := os.Getenv("CAREERGUIDE_CACHE_DIR"); dir != "" {
		cfg.CacheDir = dir
	}
	if path := os.Getenv("CAREERGUIDE_SKILL_MAP"); path != "" {
		cfg.Skills.MapPath = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills every unset field from Default
func (c *Config) applyDefaults() {
	d := Default()
	if c.Rotation.Min == 0 && c.Rotation.Max == 0 {
		c.Rotation.Min, c.Rotation.Max = d.Rotation.Min, d.Rotation.Max
	}
	setDefault(&c.Generation.TimeoutSeconds, d.Generation.TimeoutSeconds)
	setDefault(&c.Generation.RetryPauseMs, d.Generation.RetryPauseMs)
	setDefault(&c.Generation.Concurrency, d.Generation.Concurrency)
	setDefault(&c.Generation.ResumeTokens, d.Generation.ResumeTokens)
	if len(c.Providers) == 0 {
		c.Providers = d.Providers
	}
	setDefault(&c.Coach.CareerModel, d.Coach.CareerModel)
	setDefault(&c.Coach.QuestionModel, d.Coach.QuestionModel)
	setDefault(&c.Coach.ScoreModel, d.Coach.ScoreModel)
	setDefault(&c.Coach.MaxQuestions, d.Coach.MaxQuestions)
	setDefault(&c.Coach.PassScore, d.Coach.PassScore)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider #%d has no name", i+1)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name %q", p.Name)
		}
		seen[p.Name] = true

		if !slices.Contains(llm.Kinds, p.Kind) {
			return fmt.Errorf("provider %q has unknown kind %q (want one of %v)", p.Name, p.Kind, llm.Kinds)
		}
		if p.Model == "" {
			return fmt.Errorf("provider %q has no model", p.Name)
		}
	}

	if c.Rotation.Min < 1 {
		return fmt.Errorf("rotation.min must be at least 1, got %d", c.Rotation.Min)
	}
	if c.Rotation.Max < c.Rotation.Min {
		return fmt.Errorf("rotation.max (%d) is less than rotation.min (%d)", c.Rotation.Max, c.Rotation.Min)
	}
	if c.Generation.TimeoutSeconds < 1 {
		return fmt.Errorf("generation.timeout_seconds must be positive")
	}
	if c.Generation.RetryPauseMs < 0 {
		return fmt.Errorf("generation.retry_pause_ms cannot be negative")
	}
	if c.Coach.PassScore < 0 || c.Coach.PassScore > 100 {
		return fmt.Errorf("coach.pass_score must be between 0 and 100")
	}
	return nil
}

// Timeout returns the per-provider call timeout
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// RetryPause returns the pause between failed provider attempts
func (g GenerationConfig) RetryPause() time.Duration {
	return time.Duration(g.RetryPauseMs) * time.Millisecond
}

// APIKey returns the credential for p from its environment variable
func (p Provider) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// NeedsAPIKey reports whether the provider kind requires a credential
func (p Provider) NeedsAPIKey() bool {
	return p.Kind != llm.KindOllama
}

// ProviderNames returns provider names in configured order
func (c *Config) ProviderNames() []string {
	names := make([]string, len(c.Providers))
	for i, p := range c.Providers {
		names[i] = p.Name
	}
	return names
}

// Save writes the configuration to path (or the default location)
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadEnvFiles loads KEY=value pairs from .env files without overriding
// variables that are already set. Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	if p := os.Getenv("CAREERGUIDE_CONFIG"); p != "" {
		return p
	}
	configPath, err := xdg.ConfigFile(filepath.Join(appName, "config.toml"))
	if err != nil {
		// Fallback to home directory
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", appName, "config.toml")
	}
	return configPath
}

// ResolvedCacheDir returns the content cache directory
func (c *Config) ResolvedCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	cacheDir, err := xdg.CacheFile(appName)
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".cache", appName)
	}
	return cacheDir
}

// ResolvedSessionDB returns the session database path
func (c *Config) ResolvedSessionDB() string {
	if c.Session.DBPath != "" {
		return c.Session.DBPath
	}
	dbPath, err := xdg.DataFile(filepath.Join(appName, "sessions.db"))
	if err != nil {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", appName, "sessions.db")
	}
	return dbPath
}

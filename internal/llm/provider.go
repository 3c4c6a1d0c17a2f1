// Package llm provides a single text-generation interface over the Gemini
// and Anthropic APIs, with a router that falls back between them.
package llm

import (
	"context"
	"errors"
	"time"
)

// Provider names for routing and configuration.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Default models per provider.
const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultAnthropicModel = "claude-sonnet-4-20250514"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey      = errors.New("llm: API key not configured")
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrNoProviders   = errors.New("llm: no providers configured")
)

// Completion is the text a provider generated and who generated it.
type Completion struct {
	Text     string
	Model    string
	Provider string
	Latency  time.Duration
}

// Provider generates text from a system instruction and a user prompt.
type Provider interface {
	// Name returns the provider identifier, e.g. "gemini".
	Name() string

	// Generate runs a single-turn completion.
	Generate(ctx context.Context, system, prompt string) (*Completion, error)
}

// Config selects and tunes the LLM providers. A provider is only
// registered when its key is set.
type Config struct {
	Primary        string        `mapstructure:"primary" yaml:"primary" validate:"omitempty,oneof=gemini anthropic"`
	GeminiKey      string        `mapstructure:"gemini_key" yaml:"gemini_key"`
	AnthropicKey   string        `mapstructure:"anthropic_key" yaml:"anthropic_key"`
	GeminiModel    string        `mapstructure:"gemini_model" yaml:"gemini_model"`
	AnthropicModel string        `mapstructure:"anthropic_model" yaml:"anthropic_model"`
	Temperature    float64       `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int           `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries" yaml:"max_retries" validate:"gte=0"`
	// Language is the language generated reports are written in.
	Language string `mapstructure:"language" yaml:"language"`
}

// DefaultConfig prefers Gemini and keeps the output deterministic enough for
// repeatable reports.
func DefaultConfig() Config {
	return Config{
		Primary:        ProviderGemini,
		GeminiModel:    DefaultGeminiModel,
		AnthropicModel: DefaultAnthropicModel,
		Temperature:    0.3,
		MaxTokens:      8192,
		Timeout:        180 * time.Second,
		MaxRetries:     1,
		Language:       "Korean",
	}
}

// Configured reports whether at least one provider key is set.
func (c Config) Configured() bool {
	return c.GeminiKey != "" || c.AnthropicKey != ""
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Router sends requests to the primary provider and falls back to the
// others in registration order when it fails.
type Router struct {
	providers  []Provider
	maxRetries int
	retryDelay time.Duration
	log        zerolog.Logger
}

// RouterOption configures the router.
type RouterOption func(*Router)

// WithMaxRetries sets the number of extra attempts per provider.
func WithMaxRetries(n int) RouterOption {
	return func(r *Router) { r.maxRetries = n }
}

// WithRetryDelay sets the base delay between retries.
func WithRetryDelay(d time.Duration) RouterOption {
	return func(r *Router) { r.retryDelay = d }
}

// WithLogger sets the router's logger.
func WithLogger(log zerolog.Logger) RouterOption {
	return func(r *Router) { r.log = log.With().Str("component", "llm").Logger() }
}

// NewRouter creates a router over providers. The first provider is primary.
func NewRouter(providers []Provider, opts ...RouterOption) (*Router, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	r := &Router{
		providers:  providers,
		maxRetries: 1,
		retryDelay: time.Second,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Name returns "router/" plus the primary provider's name.
func (r *Router) Name() string {
	return "router/" + r.providers[0].Name()
}

// ProviderNames lists the registered providers, primary first.
func (r *Router) ProviderNames() []string {
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// Generate tries each provider in turn and returns the first completion.
func (r *Router) Generate(ctx context.Context, system, prompt string) (*Completion, error) {
	var lastErr error
	for _, p := range r.providers {
		c, err := r.generateWithRetry(ctx, p, system, prompt)
		if err == nil {
			return c, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
	}
	return nil, fmt.Errorf("llm/router: all providers failed, last error: %w", lastErr)
}

func (r *Router) generateWithRetry(ctx context.Context, p Provider, system, prompt string) (*Completion, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.retryDelay * time.Duration(attempt)):
			}
		}
		c, err := p.Generate(ctx, system, prompt)
		if err == nil {
			return c, nil
		}
		lastErr = err
		if isNonRetryable(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func isNonRetryable(err error) bool {
	return errors.Is(err, ErrNoAPIKey) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// NewRouterFromConfig registers every provider whose key is set, the
// configured primary first.
func NewRouterFromConfig(ctx context.Context, cfg Config, log zerolog.Logger) (*Router, error) {
	var gemini, claude Provider
	if cfg.GeminiKey != "" {
		p, err := NewGeminiProvider(ctx, cfg.GeminiKey,
			WithGeminiModel(cfg.GeminiModel),
			WithGeminiSampling(cfg.Temperature, cfg.MaxTokens),
			WithGeminiTimeout(cfg.Timeout),
		)
		if err != nil {
			return nil, err
		}
		gemini = p
	}
	if cfg.AnthropicKey != "" {
		p, err := NewAnthropicProvider(cfg.AnthropicKey,
			WithAnthropicModel(cfg.AnthropicModel),
			WithAnthropicSampling(cfg.Temperature, cfg.MaxTokens),
			WithAnthropicTimeout(cfg.Timeout),
		)
		if err != nil {
			return nil, err
		}
		claude = p
	}

	order := []Provider{gemini, claude}
	if cfg.Primary == ProviderAnthropic {
		order = []Provider{claude, gemini}
	}
	var providers []Provider
	for _, p := range order {
		if p != nil {
			providers = append(providers, p)
		}
	}
	return NewRouter(providers, WithMaxRetries(cfg.MaxRetries), WithLogger(log))
}

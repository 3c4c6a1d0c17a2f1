package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 8192

// AnthropicProvider implements Provider for Anthropic's Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// AnthropicOption configures the Anthropic provider.
type AnthropicOption func(*anthropicSettings)

type anthropicSettings struct {
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	reqOpts     []option.RequestOption
}

// WithAnthropicModel sets the model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(s *anthropicSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithAnthropicBaseURL points the client at a different endpoint.
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(s *anthropicSettings) { s.reqOpts = append(s.reqOpts, option.WithBaseURL(url)) }
}

// WithAnthropicSampling sets temperature and the output token cap.
func WithAnthropicSampling(temperature float64, maxTokens int) AnthropicOption {
	return func(s *anthropicSettings) {
		s.temperature = temperature
		s.maxTokens = maxTokens
	}
}

// WithAnthropicTimeout sets the per-request timeout.
func WithAnthropicTimeout(d time.Duration) AnthropicOption {
	return func(s *anthropicSettings) { s.timeout = d }
}

// WithAnthropicMaxRetries sets how often the SDK retries transient failures.
func WithAnthropicMaxRetries(n int) AnthropicOption {
	return func(s *anthropicSettings) { s.reqOpts = append(s.reqOpts, option.WithMaxRetries(n)) }
}

// NewAnthropicProvider creates an Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	s := anthropicSettings{model: DefaultAnthropicModel, maxTokens: defaultAnthropicMaxTokens}
	for _, opt := range opts {
		opt(&s)
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultAnthropicMaxTokens
	}

	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, s.reqOpts...)
	if s.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(s.timeout))
	}
	return &AnthropicProvider{
		client:      anthropic.NewClient(reqOpts...),
		model:       s.model,
		temperature: s.temperature,
		maxTokens:   int64(s.maxTokens),
	}, nil
}

func (p *AnthropicProvider) Name() string  { return ProviderAnthropic }
func (p *AnthropicProvider) Model() string { return p.model }

// Generate sends one user turn with the system prompt attached.
func (p *AnthropicProvider) Generate(ctx context.Context, system, prompt string) (*Completion, error) {
	start := time.Now()
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if p.temperature > 0 {
		params.Temperature = anthropic.Float(p.temperature)
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: generate: %w", err)
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return nil, fmt.Errorf("anthropic: %w", ErrEmptyResponse)
	}
	model := p.model
	if resp.Model != "" {
		model = string(resp.Model)
	}
	return &Completion{Text: b.String(), Model: model, Provider: ProviderAnthropic, Latency: time.Since(start)}, nil
}

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google's Gemini API.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

// GeminiOption configures the Gemini provider.
type GeminiOption func(*geminiSettings)

type geminiSettings struct {
	model       string
	baseURL     string
	temperature float64
	maxTokens   int
	timeout     time.Duration
}

// WithGeminiModel sets the model.
func WithGeminiModel(model string) GeminiOption {
	return func(s *geminiSettings) {
		if model != "" {
			s.model = model
		}
	}
}

// WithGeminiBaseURL points the client at a different endpoint.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(s *geminiSettings) { s.baseURL = url }
}

// WithGeminiSampling sets temperature and the output token cap.
func WithGeminiSampling(temperature float64, maxTokens int) GeminiOption {
	return func(s *geminiSettings) {
		s.temperature = temperature
		s.maxTokens = maxTokens
	}
}

// WithGeminiTimeout sets the per-request timeout.
func WithGeminiTimeout(d time.Duration) GeminiOption {
	return func(s *geminiSettings) { s.timeout = d }
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(ctx context.Context, apiKey string, opts ...GeminiOption) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	s := geminiSettings{model: DefaultGeminiModel}
	for _, opt := range opts {
		opt(&s)
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if s.baseURL != "" {
		cc.HTTPOptions.BaseURL = s.baseURL
	}
	if s.timeout > 0 {
		cc.HTTPOptions.Timeout = &s.timeout
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiProvider{
		client:      client,
		model:       s.model,
		temperature: float32(s.temperature),
		maxTokens:   int32(s.maxTokens),
	}, nil
}

func (p *GeminiProvider) Name() string  { return ProviderGemini }
func (p *GeminiProvider) Model() string { return p.model }

// Generate sends one user turn with the system instruction attached.
func (p *GeminiProvider) Generate(ctx context.Context, system, prompt string) (*Completion, error) {
	start := time.Now()
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.temperature),
	}
	if p.maxTokens > 0 {
		cfg.MaxOutputTokens = p.maxTokens
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	contents := []*genai.Content{{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}
	text := geminiText(resp)
	if text == "" {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyResponse)
	}
	return &Completion{Text: text, Model: p.model, Provider: ProviderGemini, Latency: time.Since(start)}, nil
}

// geminiText returns the text of the first candidate that has any.
func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range c.Content.Parts {
			if part != nil && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// ── Router ──

type fakeProvider struct {
	name  string
	errs  []error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(_ context.Context, system, prompt string) (*Completion, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &Completion{Text: f.name + ":" + prompt, Model: f.name + "-model", Provider: f.name}, nil
}

func TestNewRouterRequiresProviders(t *testing.T) {
	_, err := NewRouter(nil)
	assert.ErrorIs(t, err, ErrNoProviders)
}

func TestRouterUsesPrimary(t *testing.T) {
	primary := &fakeProvider{name: "gemini"}
	backup := &fakeProvider{name: "anthropic"}
	r, err := NewRouter([]Provider{primary, backup})
	require.NoError(t, err)

	c, err := r.Generate(context.Background(), "sys", "hello")
	require.NoError(t, err)
	assert.Equal(t, "gemini:hello", c.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Zero(t, backup.calls)
	assert.Equal(t, "router/gemini", r.Name())
	assert.Equal(t, []string{"gemini", "anthropic"}, r.ProviderNames())
}

func TestRouterRetriesThenSucceeds(t *testing.T) {
	primary := &fakeProvider{name: "gemini", errs: []error{errors.New("503")}}
	r, err := NewRouter([]Provider{primary}, WithMaxRetries(2), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	c, err := r.Generate(context.Background(), "", "x")
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Provider)
	assert.Equal(t, 2, primary.calls)
}

func TestRouterFallsBack(t *testing.T) {
	primary := &fakeProvider{name: "gemini", errs: []error{errors.New("boom"), errors.New("boom")}}
	backup := &fakeProvider{name: "anthropic"}
	r, err := NewRouter([]Provider{primary, backup}, WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	c, err := r.Generate(context.Background(), "", "x")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Provider)
	assert.Equal(t, 2, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestRouterNoRetryOnMissingKey(t *testing.T) {
	primary := &fakeProvider{name: "gemini", errs: []error{ErrNoAPIKey}}
	backup := &fakeProvider{name: "anthropic", errs: []error{ErrEmptyResponse, ErrEmptyResponse}}
	r, err := NewRouter([]Provider{primary, backup}, WithMaxRetries(1), WithRetryDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = r.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 2, backup.calls)
}

func TestRouterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	primary := &fakeProvider{name: "gemini", errs: []error{context.Canceled}}
	backup := &fakeProvider{name: "anthropic"}
	r, _ := NewRouter([]Provider{primary, backup})

	_, err := r.Generate(ctx, "", "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, backup.calls)
}

func TestNewRouterFromConfig(t *testing.T) {
	_, err := NewRouterFromConfig(context.Background(), DefaultConfig(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrNoProviders)

	cfg := DefaultConfig()
	cfg.AnthropicKey = "sk-ant-test"
	cfg.GeminiKey = "gm-test"
	cfg.Primary = ProviderAnthropic
	r, err := NewRouterFromConfig(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{ProviderAnthropic, ProviderGemini}, r.ProviderNames())
}

func TestConfigured(t *testing.T) {
	assert.False(t, DefaultConfig().Configured())
	cfg := DefaultConfig()
	cfg.GeminiKey = "k"
	assert.True(t, cfg.Configured())
}

// ── Gemini ──

func TestGeminiProviderRequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestGeminiGenerate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent"), r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"## Overview"},{"text":"\nbody"}]}}]}`)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "test-key", WithGeminiBaseURL(srv.URL+"/"), WithGeminiSampling(0.2, 100))
	require.NoError(t, err)
	c, err := p.Generate(context.Background(), "be terse", "analyse AAPL")
	require.NoError(t, err)

	assert.Equal(t, "## Overview\nbody", c.Text)
	assert.Equal(t, DefaultGeminiModel, c.Model)
	assert.Equal(t, ProviderGemini, c.Provider)
	assert.Contains(t, body, "systemInstruction")
	assert.Contains(t, body, "contents")
}

func TestGeminiEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	p, err := NewGeminiProvider(context.Background(), "test-key", WithGeminiBaseURL(srv.URL+"/"))
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "", "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiTextSkipsThoughts(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []*genai.Part{{Text: "thinking", Thought: true}}}},
		{Content: &genai.Content{Parts: []*genai.Part{{Text: "answer"}}}},
	}}
	assert.Equal(t, "answer", geminiText(resp))
	assert.Empty(t, geminiText(nil))
}

// ── Anthropic ──

func TestAnthropicProviderRequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider("")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestAnthropicGenerate(t *testing.T) {
	var body struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"hello"},{"type":"text","text":" world"}],
			"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider("sk-ant-test",
		WithAnthropicBaseURL(srv.URL),
		WithAnthropicModel("claude-test"),
		WithAnthropicSampling(0.1, 512),
		WithAnthropicMaxRetries(0),
	)
	require.NoError(t, err)
	c, err := p.Generate(context.Background(), "system prompt", "hi")
	require.NoError(t, err)

	assert.Equal(t, "hello world", c.Text)
	assert.Equal(t, "claude-test", c.Model)
	assert.Equal(t, ProviderAnthropic, c.Provider)
	assert.Equal(t, 512, body.MaxTokens)
	require.Len(t, body.System, 1)
	assert.Equal(t, "system prompt", body.System[0].Text)
}

func TestAnthropicServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`)
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider("sk-ant-test", WithAnthropicBaseURL(srv.URL), WithAnthropicMaxRetries(0))
	require.NoError(t, err)
	_, err = p.Generate(context.Background(), "", "hi")
	assert.Error(t, err)
}

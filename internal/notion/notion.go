// Package notion exports analysis reports to a Notion database as pages.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL       = "https://api.notion.com/v1"
	defaultVersion       = "2022-06-28"
	defaultTitleProperty = "이름"
	pageTitleFormat      = "%s 어닝콜 분석 - %s"
)

var (
	// ErrNotConfigured is returned when the API key or database id is missing.
	ErrNotConfigured = errors.New("notion: api key or database id not configured")
	// ErrInvalidRequest is returned for an export request that fails validation.
	ErrInvalidRequest = errors.New("notion: invalid export request")
)

// Config holds Notion credentials and endpoint settings.
type Config struct {
	APIKey        string        `mapstructure:"api_key" yaml:"api_key"`
	DatabaseID    string        `mapstructure:"database_id" yaml:"database_id"`
	Version       string        `mapstructure:"version" yaml:"version"`
	BaseURL       string        `mapstructure:"base_url" yaml:"base_url" validate:"omitempty,url"`
	TitleProperty string        `mapstructure:"title_property" yaml:"title_property"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultConfig targets the public API with no credentials.
func DefaultConfig() Config {
	return Config{
		Version:       defaultVersion,
		BaseURL:       defaultBaseURL,
		TitleProperty: defaultTitleProperty,
		Timeout:       30 * time.Second,
	}
}

// Configured reports whether both the API key and the database id are set.
func (c Config) Configured() bool {
	return c.APIKey != "" && c.DatabaseID != ""
}

// Status is the configuration state reported to clients.
type Status struct {
	Configured bool `json:"configured"`
}

// ExportRequest is a report to publish.
type ExportRequest struct {
	Ticker     string `json:"ticker" validate:"required"`
	Period     string `json:"period"`
	Content    string `json:"content" validate:"required"`
	AnalyzedAt string `json:"analyzed_at,omitempty"`
}

// ExportResult identifies the created page.
type ExportResult struct {
	PageID string `json:"page_id"`
	URL    string `json:"url"`
	Blocks int    `json:"blocks"`
}

// APIError is an error object returned by the Notion API.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Client talks to the Notion REST API.
type Client struct {
	cfg      Config
	http     *http.Client
	limiter  *rate.Limiter
	validate *validator.Validate
	log      zerolog.Logger
}

// NewClient creates a client. Notion allows about three requests per second
// per integration.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = def.TitleProperty
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(3), 3),
		validate: validator.New(),
		log:      log.With().Str("component", "notion").Logger(),
	}
}

// Status reports whether exports are possible.
func (c *Client) Status() Status {
	return Status{Configured: c.cfg.Configured()}
}

// Export creates a database page holding req.Content. Blocks beyond the
// first batch are appended to the page in further requests.
func (c *Client) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	if !c.cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	blocks := MarkdownToBlocks(req.Content)
	first := blocks
	if len(first) > MaxBlocksPerBatch {
		first = first[:MaxBlocksPerBatch]
	}

	titleProp := c.titleProperty(ctx)
	page := map[string]any{
		"parent": map[string]string{"database_id": c.cfg.DatabaseID},
		"properties": map[string]any{
			titleProp: map[string]any{
				"title": []RichText{plain(fmt.Sprintf(pageTitleFormat, req.Ticker, req.Period))},
			},
		},
		"children": first,
	}

	var created struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/pages", page, &created); err != nil {
		return nil, err
	}

	for rest := blocks[len(first):]; len(rest) > 0; {
		n := min(len(rest), MaxBlocksPerBatch)
		body := map[string]any{"children": rest[:n]}
		if err := c.do(ctx, http.MethodPatch, "/blocks/"+created.ID+"/children", body, nil); err != nil {
			return nil, fmt.Errorf("append blocks to %s: %w", created.ID, err)
		}
		rest = rest[n:]
	}

	c.log.Info().
		Str("ticker", req.Ticker).
		Str("period", req.Period).
		Str("page_id", created.ID).
		Int("blocks", len(blocks)).
		Msg("exported report to notion")
	return &ExportResult{PageID: created.ID, URL: created.URL, Blocks: len(blocks)}, nil
}

// titleProperty finds the database's title column. Lookup failures fall back
// to the configured default.
func (c *Client) titleProperty(ctx context.Context) string {
	var db struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/databases/"+c.cfg.DatabaseID, nil, &db); err != nil {
		c.log.Warn().Err(err).Msg("database schema lookup failed")
		return c.cfg.TitleProperty
	}
	for name, prop := range db.Properties {
		if prop.Type == "title" {
			return name
		}
	}
	return c.cfg.TitleProperty
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("notion: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("notion: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Notion-Version", c.cfg.Version)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("notion: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("notion: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("notion: decode response: %w", err)
		}
	}
	return nil
}

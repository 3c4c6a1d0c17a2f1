package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is the user agent string used for provider requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 16 << 20

// ClientConfig configures the shared provider HTTP client.
type ClientConfig struct {
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" yaml:"burst" validate:"gte=0"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" validate:"gte=0"`
}

// DefaultClientConfig allows 5 requests per second and caches bodies for five minutes.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		UserAgent:         DefaultUserAgent,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 5,
		Burst:             5,
		CacheTTL:          5 * time.Minute,
	}
}

// Client performs rate-limited, cached GET requests against provider APIs.
type Client struct {
	http      *http.Client
	userAgent string
	limiter   *rate.Limiter
	cache     *Cache
	ttl       time.Duration
	log       zerolog.Logger
}

// NewClient creates a provider client. A zero RequestsPerSecond disables
// rate limiting.
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	def := DefaultClientConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = max(1, int(cfg.RequestsPerSecond))
	}
	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		limiter:   rate.NewLimiter(limit, burst),
		cache:     NewCache(cfg.CacheTTL),
		ttl:       cfg.CacheTTL,
		log:       log.With().Str("component", "provider-client").Logger(),
	}
}

// Get fetches url and returns the response body. Successful bodies are
// cached for the client's TTL.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if cached, ok := c.cache.Get(url); ok {
		c.log.Debug().Str("url", url).Msg("cache hit")
		return cached.([]byte), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, application/rss+xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrProviderUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Warn().Str("url", url).Int("status", resp.StatusCode).Msg("provider error")
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url, Body: string(body)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrProviderUnavailable, url, err)
	}
	c.log.Debug().Str("url", url).Dur("took", time.Since(start)).Int("bytes", len(data)).Msg("fetched")

	c.cache.Set(url, data)
	return data, nil
}

// GetJSON fetches url and decodes the JSON body into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	data, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.cache.Invalidate(url)
		return fmt.Errorf("%w: decode %s: %v", ErrProviderUnavailable, url, err)
	}
	return nil
}

// PruneCache drops expired response bodies and returns how many were removed.
func (c *Client) PruneCache() int {
	return c.cache.Cleanup()
}

// IsNotFound reports whether err means the provider has no data.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoDataFound)
}

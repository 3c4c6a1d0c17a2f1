// Package datasource fetches raw market data from third-party providers and
// adapts it into the provider-neutral shapes in pkg/models.
//
// Provider schemas stop at this package: fallbacks between alternative
// line-item names, null handling and unit quirks are resolved here so the
// time-series and fiscal layers never see a provider-specific field.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/seenimoa/marketlens/pkg/models"
)

// PriceSource returns ascending daily bars for a ticker.
type PriceSource interface {
	FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]models.DailyBar, error)
}

// FundamentalsSource returns statement columns and analyst estimates.
type FundamentalsSource interface {
	Financials(ctx context.Context, ticker string) (models.Statements, error)
	Estimates(ctx context.Context, ticker string) ([]models.Estimate, error)
}

// ProfileSource returns descriptive metadata for a ticker.
type ProfileSource interface {
	Profile(ctx context.Context, ticker string) (*models.Profile, error)
}

// NewsSource returns recent headlines for a ticker.
type NewsSource interface {
	News(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error)
}

// Provider is a source that serves every kind of market data.
type Provider interface {
	Name() string
	PriceSource
	FundamentalsSource
	ProfileSource
	NewsSource
}

// --- Sentinel errors ---

// ErrProviderUnavailable is returned when a provider call fails, times out or
// answers with a server error.
var ErrProviderUnavailable = errors.New("data provider unavailable")

// ErrNoDataFound is returned when the provider has no data for the ticker or range.
var ErrNoDataFound = errors.New("no data found")

// ErrRateLimited is returned when a provider rate-limits the request. It also
// matches ErrProviderUnavailable.
var ErrRateLimited = fmt.Errorf("rate limited by data provider: %w", ErrProviderUnavailable)

// HTTPError wraps a non-2xx provider response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Unwrap maps the status onto a sentinel so callers can use errors.Is.
func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNoDataFound
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return ErrProviderUnavailable
	}
}

// noData builds an ErrNoDataFound for a ticker.
func noData(ticker, what string) error {
	return fmt.Errorf("%w: %s for %s", ErrNoDataFound, what, ticker)
}

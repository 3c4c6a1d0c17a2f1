// Package market composes provider data with the resampling and fiscal
// alignment layers into the chart and financial payloads served to clients.
package market

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/fiscal"
	"github.com/seenimoa/marketlens/internal/timeseries"
	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// Volume bar colours for up and down buckets.
const (
	ColorUp   = "#22c55e"
	ColorDown = "#ef4444"
)

// Config tunes the chart payload.
type Config struct {
	MovingAverages []int `mapstructure:"moving_averages" yaml:"moving_averages" validate:"dive,gt=0"`
	NewsLimit      int   `mapstructure:"news_limit" yaml:"news_limit" validate:"gte=0"`
}

// DefaultConfig draws 10, 20 and 50-bar averages and ten headlines.
func DefaultConfig() Config {
	return Config{MovingAverages: []int{10, 20, 50}, NewsLimit: 10}
}

// Service builds chart series and financial time series for a ticker.
type Service struct {
	provider datasource.Provider
	aligner  *fiscal.Aligner
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a market service.
func NewService(provider datasource.Provider, aligner *fiscal.Aligner, cfg Config, log zerolog.Logger) *Service {
	if len(cfg.MovingAverages) == 0 {
		cfg.MovingAverages = DefaultConfig().MovingAverages
	}
	return &Service{
		provider: provider,
		aligner:  aligner,
		cfg:      cfg,
		log:      log.With().Str("component", "market").Logger(),
		now:      time.Now,
	}
}

// GetChartSeries fetches daily prices for the range, resamples them to the
// interval and attaches moving averages, profile, financials and news.
//
// Unknown range or interval values fall back to their defaults. Only the
// price fetch can fail the call; profile, financials and news degrade to
// empty sections.
func (s *Service) GetChartSeries(ctx context.Context, ticker, rng, interval string) (*models.ChartSeries, error) {
	ticker = utils.NormalizeTicker(ticker)
	r := timeseries.ParseRange(rng)
	iv := timeseries.ParseInterval(interval)

	now := s.now()
	daily, err := s.provider.FetchDaily(ctx, ticker, r.Start(now), now)
	if err != nil {
		return nil, err
	}
	change, ok := timeseries.DailyChange(daily)
	if !ok {
		return nil, fmt.Errorf("%w: price history for %s", datasource.ErrNoDataFound, ticker)
	}

	series := BuildChart(daily, iv, s.cfg.MovingAverages)
	series.Ticker = ticker
	series.Range = string(r)
	series.CurrentPrice = change.Price
	series.Change = utils.Round2(change.Change)
	series.ChangePct = utils.Round2(change.ChangePct)
	series.News = []models.NewsArticle{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.provider.Profile(gctx, ticker)
		if err != nil {
			s.warn(err, ticker, "profile unavailable")
			return nil
		}
		series.Meta = p
		return nil
	})
	g.Go(func() error {
		fin, err := s.GetFinancialTimeSeries(gctx, ticker)
		if err != nil {
			s.warn(err, ticker, "financials unavailable")
			return nil
		}
		series.Financials = *fin
		return nil
	})
	g.Go(func() error {
		news, err := s.provider.News(gctx, ticker, s.cfg.NewsLimit)
		if err != nil {
			s.warn(err, ticker, "news unavailable")
			return nil
		}
		series.News = news
		return nil
	})
	_ = g.Wait()

	if series.Meta == nil {
		series.Meta = &models.Profile{Ticker: ticker, Name: ticker}
	}
	return series, nil
}

// GetFinancialTimeSeries returns calendar-aligned annual and quarterly
// records merged with analyst estimates. Missing statement line items come
// back as nil fields; a failed estimates fetch leaves only history.
func (s *Service) GetFinancialTimeSeries(ctx context.Context, ticker string) (*models.FinancialTimeSeries, error) {
	ticker = utils.NormalizeTicker(ticker)

	var (
		statements models.Statements
		estimates  []models.Estimate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		st, err := s.provider.Financials(gctx, ticker)
		if err != nil {
			return err
		}
		statements = st
		return nil
	})
	g.Go(func() error {
		est, err := s.provider.Estimates(gctx, ticker)
		if err != nil {
			s.warn(err, ticker, "estimates unavailable")
			return nil
		}
		estimates = est
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ts, missing := s.aligner.Align(statements, estimates)
	for _, m := range missing {
		s.log.Debug().Str("ticker", ticker).Str("period", m.Period).Str("field", m.Field).Msg("missing line item")
	}
	if ts.Annual == nil {
		ts.Annual = []models.FinancialPeriodRecord{}
	}
	if ts.Quarterly == nil {
		ts.Quarterly = []models.FinancialPeriodRecord{}
	}
	return &ts, nil
}

func (s *Service) warn(err error, ticker, msg string) {
	ev := s.log.Warn()
	if errors.Is(err, datasource.ErrNoDataFound) {
		ev = s.log.Debug()
	}
	ev.Err(err).Str("ticker", ticker).Msg(msg)
}

// BuildChart resamples daily bars and lays out the chart arrays. Moving
// averages are computed over the resampled closes.
func BuildChart(daily []models.DailyBar, iv timeseries.Interval, windows []int) *models.ChartSeries {
	bars := timeseries.Resample(daily, iv)
	closes := timeseries.Closes(bars)

	series := &models.ChartSeries{
		Interval:       string(iv),
		Prices:         closes,
		Labels:         make([]string, len(bars)),
		OHLC:           make([]models.OHLCPoint, len(bars)),
		Volume:         make([]models.VolumePoint, len(bars)),
		MovingAverages: make(map[string][]models.SeriesPoint, len(windows)),
	}
	for i, b := range bars {
		x := utils.DateString(b.Date)
		series.Labels[i] = x
		series.OHLC[i] = models.OHLCPoint{X: x, O: b.Open, H: b.High, L: b.Low, C: b.Close}
		color := ColorDown
		if b.Up() {
			color = ColorUp
		}
		series.Volume[i] = models.VolumePoint{X: x, Y: float64(b.Volume), Color: color}
	}
	for _, w := range windows {
		ma := timeseries.MovingAverage(closes, w)
		points := make([]models.SeriesPoint, len(ma))
		for i, v := range ma {
			points[i] = models.SeriesPoint{X: series.Labels[i], Y: v}
		}
		series.MovingAverages[MovingAverageKey(w)] = points
	}
	return series
}

// MovingAverageKey names the series for a window, e.g. "ma20".
func MovingAverageKey(window int) string {
	return "ma" + strconv.Itoa(window)
}

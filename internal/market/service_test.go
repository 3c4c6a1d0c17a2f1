package market

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/fiscal"
	"github.com/seenimoa/marketlens/internal/timeseries"
	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// fakeProvider serves canned data and records the requested window.
type fakeProvider struct {
	bars       []models.DailyBar
	barsErr    error
	profile    *models.Profile
	profileErr error
	statements models.Statements
	finErr     error
	estimates  []models.Estimate
	estErr     error
	news       []models.NewsArticle
	newsErr    error

	gotStart time.Time
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchDaily(_ context.Context, _ string, start, _ time.Time) ([]models.DailyBar, error) {
	f.gotStart = start
	return f.bars, f.barsErr
}

func (f *fakeProvider) Financials(context.Context, string) (models.Statements, error) {
	return f.statements, f.finErr
}

func (f *fakeProvider) Estimates(context.Context, string) ([]models.Estimate, error) {
	return f.estimates, f.estErr
}

func (f *fakeProvider) Profile(context.Context, string) (*models.Profile, error) {
	return f.profile, f.profileErr
}

func (f *fakeProvider) News(_ context.Context, _ string, limit int) ([]models.NewsArticle, error) {
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	if limit > 0 && len(f.news) > limit {
		return f.news[:limit], nil
	}
	return f.news, nil
}

var _ datasource.Provider = (*fakeProvider)(nil)

func weekdayBars(start string, n int) []models.DailyBar {
	d, _ := utils.ParseDate(start)
	var bars []models.DailyBar
	price := 100.0
	for len(bars) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			bars = append(bars, models.DailyBar{Date: d, Open: price, High: price + 1, Low: price - 1, Close: price + 0.5, Volume: 10})
			price++
		}
		d = d.AddDate(0, 0, 1)
	}
	return bars
}

func newTestService(p *fakeProvider) *Service {
	s := NewService(p, fiscal.New(fiscal.DefaultConfig()), DefaultConfig(), zerolog.Nop())
	s.now = func() time.Time { return time.Date(2024, 3, 29, 21, 0, 0, 0, time.UTC) }
	return s
}

func TestGetChartSeriesDaily(t *testing.T) {
	p := &fakeProvider{
		bars:    weekdayBars("2024-01-01", 60),
		profile: &models.Profile{Ticker: "AAPL", Name: "Apple Inc."},
		news:    make([]models.NewsArticle, 15),
	}
	s := newTestService(p)

	cs, err := s.GetChartSeries(context.Background(), " aapl ", "3m", "d")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", cs.Ticker)
	assert.Equal(t, "3m", cs.Range)
	assert.Equal(t, "d", cs.Interval)
	assert.Equal(t, "2023-12-30", utils.DateString(p.gotStart))
	assert.Len(t, cs.OHLC, 60)
	assert.Len(t, cs.Prices, 60)
	assert.Len(t, cs.Labels, 60)
	assert.Equal(t, "Apple Inc.", cs.Meta.Name)
	assert.Len(t, cs.News, 10)

	last := p.bars[59]
	prev := p.bars[58]
	assert.Equal(t, last.Close, cs.CurrentPrice)
	assert.Equal(t, utils.Round2(last.Close-prev.Close), cs.Change)

	for _, key := range []string{"ma10", "ma20", "ma50"} {
		require.Contains(t, cs.MovingAverages, key)
		assert.Len(t, cs.MovingAverages[key], 60)
	}
	assert.Nil(t, cs.MovingAverages["ma50"][48].Y)
	assert.NotNil(t, cs.MovingAverages["ma50"][49].Y)
}

func TestGetChartSeriesWeeklyUsesDailyChange(t *testing.T) {
	p := &fakeProvider{bars: weekdayBars("2024-01-01", 10)}
	s := newTestService(p)

	cs, err := s.GetChartSeries(context.Background(), "AAPL", "1y", "w")
	require.NoError(t, err)
	require.Len(t, cs.OHLC, 2)
	assert.Equal(t, "2024-01-07", cs.Labels[0])
	assert.Equal(t, "2024-01-14", cs.Labels[1])

	// Daily closes step by 1.0, so the day-over-day change is 1 even though
	// the weekly buckets are five points apart.
	assert.Equal(t, 1.0, cs.Change)
}

func TestGetChartSeriesFallsBackOnUnknownParams(t *testing.T) {
	p := &fakeProvider{bars: weekdayBars("2024-01-01", 3)}
	s := newTestService(p)

	cs, err := s.GetChartSeries(context.Background(), "AAPL", "10y", "hourly")
	require.NoError(t, err)
	assert.Equal(t, "1y", cs.Range)
	assert.Equal(t, "d", cs.Interval)
	assert.Equal(t, utils.DateString(timeseries.Range1Y.Start(s.now())), utils.DateString(p.gotStart))
}

func TestGetChartSeriesDegradesSideSections(t *testing.T) {
	p := &fakeProvider{
		bars:       weekdayBars("2024-01-01", 3),
		profileErr: datasource.ErrProviderUnavailable,
		finErr:     datasource.ErrNoDataFound,
		newsErr:    errors.New("feed down"),
	}
	s := newTestService(p)

	cs, err := s.GetChartSeries(context.Background(), "AAPL", "1m", "d")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", cs.Meta.Name)
	assert.Empty(t, cs.Financials.Annual)
	assert.NotNil(t, cs.News)
	assert.Empty(t, cs.News)
}

func TestGetChartSeriesErrors(t *testing.T) {
	tests := []struct {
		name string
		p    *fakeProvider
		want error
	}{
		{"provider down", &fakeProvider{barsErr: fmt.Errorf("chart: %w", datasource.ErrProviderUnavailable)}, datasource.ErrProviderUnavailable},
		{"unknown ticker", &fakeProvider{barsErr: datasource.ErrNoDataFound}, datasource.ErrNoDataFound},
		{"empty series", &fakeProvider{bars: []models.DailyBar{}}, datasource.ErrNoDataFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestService(tt.p).GetChartSeries(context.Background(), "ZZZZ", "1y", "d")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetFinancialTimeSeries(t *testing.T) {
	f := utils.Float
	p := &fakeProvider{
		statements: models.Statements{
			Annual: []models.StatementPeriod{
				{EndDate: time.Date(2024, 9, 28, 0, 0, 0, 0, time.UTC), Revenue: f(391), EPS: f(6.1)},
				{EndDate: time.Date(2023, 9, 30, 0, 0, 0, 0, time.UTC), Revenue: f(383), EPS: f(6.2)},
			},
		},
		estimates: []models.Estimate{{Offset: "0y", Revenue: f(410), EPS: f(7.3)}},
	}
	ts, err := newTestService(p).GetFinancialTimeSeries(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, ts.Annual, 3)
	assert.Equal(t, "2023", ts.Annual[0].Period)
	assert.Equal(t, "2024", ts.Annual[1].Period)
	assert.Equal(t, "2025E", ts.Annual[2].Period)
	assert.NotNil(t, ts.Annual[1].RevenueGrowth)
	assert.NotNil(t, ts.Quarterly)
	assert.Empty(t, ts.Quarterly)
}

func TestGetFinancialTimeSeriesEstimatesOptional(t *testing.T) {
	p := &fakeProvider{
		statements: models.Statements{Annual: []models.StatementPeriod{{EndDate: time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)}}},
		estErr:     datasource.ErrProviderUnavailable,
	}
	ts, err := newTestService(p).GetFinancialTimeSeries(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, ts.Annual, 1)
	assert.Nil(t, ts.Annual[0].Revenue)
}

func TestGetFinancialTimeSeriesStatementsRequired(t *testing.T) {
	p := &fakeProvider{finErr: datasource.ErrProviderUnavailable}
	_, err := newTestService(p).GetFinancialTimeSeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, datasource.ErrProviderUnavailable)
}

func TestBuildChartVolumeColors(t *testing.T) {
	bars := []models.DailyBar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Open: 10, High: 11, Low: 9, Close: 11, Volume: 5},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Open: 11, High: 11, Low: 9, Close: 10, Volume: 7},
		{Date: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), Open: 10, High: 10, Low: 10, Close: 10, Volume: 0},
	}
	cs := BuildChart(bars, timeseries.Daily, []int{2})
	require.Len(t, cs.Volume, 3)
	assert.Equal(t, ColorUp, cs.Volume[0].Color)
	assert.Equal(t, ColorDown, cs.Volume[1].Color)
	assert.Equal(t, ColorUp, cs.Volume[2].Color, "flat bar counts as up")
	assert.Equal(t, 7.0, cs.Volume[1].Y)
	assert.Equal(t, models.OHLCPoint{X: "2024-01-02", O: 10, H: 11, L: 9, C: 11}, cs.OHLC[0])

	ma := cs.MovingAverages["ma2"]
	require.Len(t, ma, 3)
	assert.Nil(t, ma[0].Y)
	assert.InDelta(t, 10.5, *ma[1].Y, 1e-9)
}

func TestMovingAverageKey(t *testing.T) {
	assert.Equal(t, "ma20", MovingAverageKey(20))
}

// Package summary builds the daily market dashboard: index levels, sector
// rotation, top movers, stocks near their 52-week highs, market headlines
// and per-sector constituent tables.
//
// Every view fans out one request per ticker. A ticker that fails is logged
// and left out; a view only fails when its context is cancelled.
package summary

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/timeseries"
	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// ErrUnknownSector is returned by SectorStocks for a sector outside the universe.
var ErrUnknownSector = errors.New("unknown sector")

// Trading-day offsets used for trailing returns on a daily close series.
const (
	weekBack  = 5
	monthBack = 21
)

// Calendar-day windows wide enough to cover the trading days each view needs
// across weekends and holidays.
const (
	sectorWindowDays = 10
	moverWindowDays  = 7
	sectorWeekBars   = 5
)

// Service assembles summary views from a data provider.
type Service struct {
	provider datasource.Provider
	universe Universe
	log      zerolog.Logger
	now      func() time.Time
}

// NewService creates a summary service. Empty parts of u fall back to
// DefaultUniverse.
func NewService(provider datasource.Provider, u Universe, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		universe: u.WithDefaults(),
		log:      log.With().Str("component", "summary").Logger(),
		now:      time.Now,
	}
}

// Universe returns the effective universe.
func (s *Service) Universe() Universe { return s.universe }

// fanOut runs fn for indices 0..n-1 with the configured concurrency. fn
// reports per-item failures itself; only context cancellation is returned.
func (s *Service) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.universe.Concurrency)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(gctx, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Service) skip(err error, ticker, view string) {
	ev := s.log.Warn()
	if errors.Is(err, datasource.ErrNoDataFound) {
		ev = s.log.Debug()
	}
	ev.Err(err).Str("ticker", ticker).Str("view", view).Msg("skipping ticker")
}

func (s *Service) daily(ctx context.Context, ticker string, days int) ([]models.DailyBar, error) {
	now := s.now()
	return s.provider.FetchDaily(ctx, ticker, utils.Day(now).AddDate(0, 0, -days), now)
}

// --- Views ---

// MarketOverview returns each configured index with a month of closes, in
// configuration order.
func (s *Service) MarketOverview(ctx context.Context) ([]models.IndexSnapshot, error) {
	idx := s.universe.Indices
	results := make([]*models.IndexSnapshot, len(idx))
	start := timeseries.Range1M.Start(s.now())

	err := s.fanOut(ctx, len(idx), func(ctx context.Context, i int) {
		in := idx[i]
		bars, err := s.provider.FetchDaily(ctx, in.Symbol, start, s.now())
		if err != nil {
			s.skip(err, in.Symbol, "overview")
			return
		}
		c, ok := timeseries.DailyChange(bars)
		if !ok {
			return
		}
		chart := make([]models.ClosePoint, len(bars))
		for j, b := range bars {
			chart[j] = models.ClosePoint{Date: utils.DateString(b.Date), Close: b.Close}
		}
		results[i] = &models.IndexSnapshot{
			Ticker:    in.Symbol,
			Name:      in.Name,
			Price:     c.Price,
			Change:    c.Change,
			ChangePct: utils.Round2(c.ChangePct),
			Chart:     chart,
		}
	})
	if err != nil {
		return nil, err
	}
	return compact(results), nil
}

// Sectors returns the daily and weekly return of every sector ETF, sorted by
// daily return, best first.
func (s *Service) Sectors(ctx context.Context) ([]models.SectorPerformance, error) {
	sectors := s.universe.Sectors
	results := make([]*models.SectorPerformance, len(sectors))

	err := s.fanOut(ctx, len(sectors), func(ctx context.Context, i int) {
		sec := sectors[i]
		bars, err := s.daily(ctx, sec.ETF, sectorWindowDays)
		if err != nil {
			s.skip(err, sec.ETF, "sectors")
			return
		}
		if len(bars) > sectorWeekBars {
			bars = bars[len(bars)-sectorWeekBars:]
		}
		if len(bars) < 2 {
			return
		}
		c, _ := timeseries.DailyChange(bars)
		results[i] = &models.SectorPerformance{
			Sector:       sec.Name,
			ETF:          sec.ETF,
			Price:        c.Price,
			DailyChange:  utils.Round2(c.ChangePct),
			WeeklyChange: utils.Round2(timeseries.ReturnPct(c.Price, bars[0].Close)),
		}
	})
	if err != nil {
		return nil, err
	}
	out := compact(results)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DailyChange > out[j].DailyChange })
	return out, nil
}

// Movers ranks the major-stock universe by daily percent change and returns
// the largest gainers and the largest losers.
func (s *Service) Movers(ctx context.Context) (*models.Movers, error) {
	tickers := s.universe.MajorStocks
	results := make([]*models.Mover, len(tickers))

	err := s.fanOut(ctx, len(tickers), func(ctx context.Context, i int) {
		t := tickers[i]
		bars, err := s.daily(ctx, t, moverWindowDays)
		if err != nil {
			s.skip(err, t, "movers")
			return
		}
		if len(bars) < 2 {
			return
		}
		c, _ := timeseries.DailyChange(bars)
		m := &models.Mover{
			Ticker:    t,
			Name:      t,
			Sector:    "-",
			Price:     c.Price,
			Change:    c.Change,
			ChangePct: utils.Round2(c.ChangePct),
			Volume:    bars[len(bars)-1].Volume,
		}
		if p, err := s.provider.Profile(ctx, t); err == nil {
			applyProfile(p, &m.Name, &m.Sector)
			m.MarketCap = p.MarketCap
		} else {
			s.skip(err, t, "movers profile")
		}
		results[i] = m
	})
	if err != nil {
		return nil, err
	}
	return RankMovers(compact(results), s.universe.TopMovers), nil
}

// RankMovers splits movers into the top n gainers, largest move first, and
// the top n losers, largest drop first. Unchanged stocks are in neither list.
func RankMovers(all []models.Mover, n int) *models.Movers {
	sorted := make([]models.Mover, len(all))
	copy(sorted, all)
	sort.SliceStable(sorted, func(i, j int) bool {
		return math.Abs(sorted[i].ChangePct) > math.Abs(sorted[j].ChangePct)
	})

	out := &models.Movers{Gainers: []models.Mover{}, Losers: []models.Mover{}}
	for _, m := range sorted {
		switch {
		case m.ChangePct > 0:
			out.Gainers = append(out.Gainers, m)
		case m.ChangePct < 0:
			out.Losers = append(out.Losers, m)
		}
	}
	sort.SliceStable(out.Losers, func(i, j int) bool { return out.Losers[i].ChangePct < out.Losers[j].ChangePct })
	if n > 0 {
		out.Gainers = out.Gainers[:min(n, len(out.Gainers))]
		out.Losers = out.Losers[:min(n, len(out.Losers))]
	}
	return out
}

// NewHighs scans the major-stock universe for prices within the configured
// threshold of the 52-week high, skipping companies below the minimum market
// cap. Results are sorted closest to the high first.
func (s *Service) NewHighs(ctx context.Context) (*models.NewHighs, error) {
	tickers := s.universe.MajorStocks
	results := make([]*models.NewHigh, len(tickers))

	err := s.fanOut(ctx, len(tickers), func(ctx context.Context, i int) {
		t := tickers[i]
		p, err := s.provider.Profile(ctx, t)
		if err != nil {
			s.skip(err, t, "new-highs")
			return
		}
		results[i] = s.newHigh(t, p)
	})
	if err != nil {
		return nil, err
	}

	stocks := compact(results)
	sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].PctFromHigh > stocks[j].PctFromHigh })
	out := &models.NewHighs{
		TotalCount: len(stocks),
		Stocks:     stocks,
		BySector:   make(map[string][]models.NewHigh),
	}
	for _, h := range stocks {
		out.BySector[h.Sector] = append(out.BySector[h.Sector], h)
	}
	return out, nil
}

func (s *Service) newHigh(ticker string, p *models.Profile) *models.NewHigh {
	if p.MarketCap < s.universe.NewHighMinMarketCap {
		return nil
	}
	if p.FiftyTwoWeekHigh <= 0 || p.Price <= 0 {
		return nil
	}
	if p.Price < p.FiftyTwoWeekHigh*s.universe.NewHighThreshold {
		return nil
	}
	h := &models.NewHigh{
		Ticker:           ticker,
		Name:             ticker,
		Sector:           "-",
		Price:            p.Price,
		FiftyTwoWeekHigh: p.FiftyTwoWeekHigh,
		MarketCap:        p.MarketCap,
		PctFromHigh:      utils.Round2((p.Price/p.FiftyTwoWeekHigh - 1) * 100),
	}
	applyProfile(p, &h.Name, &h.Sector)
	return h
}

// MarketNews merges headlines from the configured source tickers, drops
// repeated titles and returns the newest first.
func (s *Service) MarketNews(ctx context.Context) ([]models.NewsArticle, error) {
	sources := s.universe.NewsSources
	batches := make([][]models.NewsArticle, len(sources))

	err := s.fanOut(ctx, len(sources), func(ctx context.Context, i int) {
		articles, err := s.provider.News(ctx, sources[i], s.universe.NewsPerSource)
		if err != nil {
			s.skip(err, sources[i], "news")
			return
		}
		for j := range articles {
			articles[j].Source = sources[i]
		}
		batches[i] = articles
	})
	if err != nil {
		return nil, err
	}
	return MergeNews(batches, s.universe.MarketNewsLimit), nil
}

// MergeNews concatenates batches in order, keeps the first article for each
// title, sorts newest first and truncates to limit when limit is positive.
func MergeNews(batches [][]models.NewsArticle, limit int) []models.NewsArticle {
	seen := make(map[string]struct{})
	out := []models.NewsArticle{}
	for _, batch := range batches {
		for _, a := range batch {
			if _, dup := seen[a.Title]; dup {
				continue
			}
			seen[a.Title] = struct{}{}
			out = append(out, a)
		}
	}
	datasource.SortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SectorStocks returns a year of trailing returns for each constituent of
// sector, largest company first.
func (s *Service) SectorStocks(ctx context.Context, sector string) (*models.SectorStocks, error) {
	group, ok := s.universe.Sector(sector)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSector, sector)
	}
	results := make([]*models.SectorStock, len(group.Tickers))
	start := timeseries.Range1Y.Start(s.now())

	err := s.fanOut(ctx, len(group.Tickers), func(ctx context.Context, i int) {
		t := group.Tickers[i]
		bars, err := s.provider.FetchDaily(ctx, t, start, s.now())
		if err != nil {
			s.skip(err, t, "sector-stocks")
			return
		}
		row, ok := TrailingReturns(t, bars)
		if !ok {
			return
		}
		if p, err := s.provider.Profile(ctx, t); err == nil {
			var sectorName string
			applyProfile(p, &row.Name, &sectorName)
			row.MarketCap = p.MarketCap
		} else {
			s.skip(err, t, "sector-stocks profile")
		}
		results[i] = row
	})
	if err != nil {
		return nil, err
	}

	stocks := compact(results)
	sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].MarketCap > stocks[j].MarketCap })
	return &models.SectorStocks{Sector: group.Name, ETF: group.ETF, Stocks: stocks}, nil
}

// TrailingReturns computes the daily, one-week, one-month and full-period
// returns of a daily series. The week and month bases clamp to the first row
// on short histories. ok is false with fewer than two rows.
func TrailingReturns(ticker string, bars []models.DailyBar) (*models.SectorStock, bool) {
	n := len(bars)
	if n < 2 {
		return nil, false
	}
	c, _ := timeseries.DailyChange(bars)
	base := func(back int) float64 { return bars[max(0, n-1-back)].Close }
	return &models.SectorStock{
		Ticker:    ticker,
		Name:      ticker,
		Price:     utils.Round2(c.Price),
		Change:    utils.Round2(c.Change),
		ChangePct: utils.Round2(c.ChangePct),
		Week:      utils.Round2(timeseries.ReturnPct(c.Price, base(weekBack))),
		Month:     utils.Round2(timeseries.ReturnPct(c.Price, base(monthBack))),
		Year:      utils.Round2(timeseries.ReturnPct(c.Price, bars[0].Close)),
		Volume:    bars[n-1].Volume,
	}, true
}

func applyProfile(p *models.Profile, name, sector *string) {
	if p.Name != "" {
		*name = p.Name
	}
	if p.Sector != "" {
		*sector = p.Sector
	}
}

// compact drops the nil slots left by skipped tickers, keeping order.
func compact[T any](in []*T) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v != nil {
			out = append(out, *v)
		}
	}
	return out
}

package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// YahooEndpoints holds the base URLs of the Yahoo Finance hosts. Tests point
// them at an httptest server.
type YahooEndpoints struct {
	Query1 string
	Query2 string
	Feeds  string
}

// DefaultYahooEndpoints are the public Yahoo Finance hosts.
var DefaultYahooEndpoints = YahooEndpoints{
	Query1: "https://query1.finance.yahoo.com",
	Query2: "https://query2.finance.yahoo.com",
	Feeds:  "https://feeds.finance.yahoo.com",
}

// Yahoo implements Provider using Yahoo Finance's public endpoints.
type Yahoo struct {
	client    *Client
	endpoints YahooEndpoints
	parser    *gofeed.Parser
	log       zerolog.Logger
}

// NewYahoo creates a Yahoo Finance provider on top of client.
func NewYahoo(client *Client, endpoints YahooEndpoints, log zerolog.Logger) *Yahoo {
	return &Yahoo{
		client:    client,
		endpoints: endpoints,
		parser:    gofeed.NewParser(),
		log:       log.With().Str("component", "yahoo").Logger(),
	}
}

// Name returns the provider name.
func (y *Yahoo) Name() string { return "Yahoo Finance" }

// --- Prices ---

// FetchDaily returns daily bars from start through end, ascending, one per date.
// Days with any missing price are skipped.
func (y *Yahoo) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]models.DailyBar, error) {
	symbol := utils.ToYahooSymbol(ticker)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplit",
		y.endpoints.Query1, url.PathEscape(symbol), start.Unix(), end.Unix())

	var resp yfChartResponse
	if err := y.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w: %s", symbol, ErrNoDataFound, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, noData(symbol, "price history")
	}

	bars := parseYFBars(resp.Chart.Result[0])
	if len(bars) == 0 {
		return nil, noData(symbol, "price history")
	}
	return bars, nil
}

// parseYFBars converts chart arrays into sorted, de-duplicated daily bars.
// Timestamps are shifted by the exchange's GMT offset before taking the
// calendar day so that Asian sessions do not land on the previous day.
func parseYFBars(result yfChartResult) []models.DailyBar {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	q := result.Indicators.Quote[0]

	byDate := make(map[time.Time]models.DailyBar, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
		if o == nil || h == nil || l == nil || c == nil {
			continue
		}
		bar := models.DailyBar{
			Date:  utils.Day(time.Unix(ts+result.Meta.GMTOffset, 0).UTC()),
			Open:  *o,
			High:  *h,
			Low:   *l,
			Close: *c,
		}
		if i < len(q.Volume) && q.Volume[i] != nil && *q.Volume[i] > 0 {
			bar.Volume = *q.Volume[i]
		}
		byDate[bar.Date] = bar
	}

	bars := make([]models.DailyBar, 0, len(byDate))
	for _, b := range byDate {
		bars = append(bars, b)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars
}

func at(vals []*float64, i int) *float64 {
	if i < len(vals) {
		return vals[i]
	}
	return nil
}

// --- Profile ---

// Profile returns company metadata from the quoteSummary endpoint.
func (y *Yahoo) Profile(ctx context.Context, ticker string) (*models.Profile, error) {
	symbol := utils.ToYahooSymbol(ticker)
	r, err := y.quoteSummary(ctx, symbol, "price,summaryDetail,assetProfile")
	if err != nil {
		return nil, err
	}

	p := &models.Profile{Ticker: utils.NormalizeTicker(ticker)}
	if pr := r.Price; pr != nil {
		p.Name = coalesce(pr.LongName, pr.ShortName, p.Ticker)
		p.Currency = pr.Currency
		p.MarketCap = utils.Deref(pr.MarketCap.Raw, 0)
		p.Price = utils.Deref(pr.RegularMarketPrice.Raw, 0)
		p.PrevClose = utils.Deref(pr.RegularMarketPreviousClose.Raw, 0)
	}
	if sd := r.SummaryDetail; sd != nil {
		p.PERatio = sd.TrailingPE.Raw
		p.FiftyTwoWeekHigh = utils.Deref(sd.FiftyTwoWeekHigh.Raw, 0)
		p.FiftyTwoWeekLow = utils.Deref(sd.FiftyTwoWeekLow.Raw, 0)
		if p.MarketCap == 0 {
			p.MarketCap = utils.Deref(sd.MarketCap.Raw, 0)
		}
	}
	if ap := r.AssetProfile; ap != nil {
		p.Description = cleanHTML(ap.LongBusinessSummary)
		p.Sector = ap.Sector
		p.Industry = ap.Industry
		p.Website = ap.Website
		p.IRWebsite = ap.IRWebsite
	}
	if p.Name == "" {
		p.Name = p.Ticker
	}
	return p, nil
}

// --- Estimates ---

// Estimates returns consensus revenue and EPS estimates keyed by offset token.
func (y *Yahoo) Estimates(ctx context.Context, ticker string) ([]models.Estimate, error) {
	symbol := utils.ToYahooSymbol(ticker)
	r, err := y.quoteSummary(ctx, symbol, "earningsTrend")
	if err != nil {
		return nil, err
	}
	if r.EarningsTrend == nil {
		return nil, nil
	}
	out := make([]models.Estimate, 0, len(r.EarningsTrend.Trend))
	for _, t := range r.EarningsTrend.Trend {
		out = append(out, models.Estimate{
			Offset:  t.Period,
			Revenue: t.RevenueEstimate.Avg.Raw,
			EPS:     t.EarningsEstimate.Avg.Raw,
		})
	}
	return out, nil
}

func (y *Yahoo) quoteSummary(ctx context.Context, symbol, modules string) (*yfSummaryResult, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.endpoints.Query1, url.PathEscape(symbol), url.QueryEscape(modules))

	var resp yfQuoteSummaryResponse
	if err := y.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w", symbol, err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		return nil, fmt.Errorf("yahoo quoteSummary %s: %w: %s", symbol, ErrNoDataFound, e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, noData(symbol, modules)
	}
	return &resp.QuoteSummary.Result[0], nil
}

// --- Fundamentals ---

// statementItem binds a canonical line item to the Yahoo timeseries names
// that can supply it, in order of preference.
type statementItem struct {
	names  []string
	assign func(p *models.StatementPeriod, v *float64)
}

var statementItems = []statementItem{
	{[]string{"TotalRevenue"}, func(p *models.StatementPeriod, v *float64) { p.Revenue = v }},
	{[]string{"GrossProfit"}, func(p *models.StatementPeriod, v *float64) { p.GrossProfit = v }},
	{[]string{"EBITDA", "NormalizedEBITDA"}, func(p *models.StatementPeriod, v *float64) { p.EBITDA = v }},
	{[]string{"NetIncome"}, func(p *models.StatementPeriod, v *float64) { p.NetIncome = v }},
	{[]string{"OperatingIncome"}, func(p *models.StatementPeriod, v *float64) { p.OperatingIncome = v }},
	{[]string{"OperatingExpense"}, func(p *models.StatementPeriod, v *float64) { p.OperatingExpense = v }},
	{[]string{"ResearchAndDevelopment"}, func(p *models.StatementPeriod, v *float64) { p.RDExpense = v }},
	{[]string{"SellingGeneralAndAdministration"}, func(p *models.StatementPeriod, v *float64) { p.SGAExpense = v }},
	{[]string{"OperatingCashFlow"}, func(p *models.StatementPeriod, v *float64) { p.OperatingCashFlow = v }},
	{[]string{"CapitalExpenditure"}, func(p *models.StatementPeriod, v *float64) { p.CapitalExpenditure = v }},
	{[]string{"BasicEPS", "DilutedEPS"}, func(p *models.StatementPeriod, v *float64) { p.EPS = v }},
}

// fundamentalsLookback is how far back the timeseries request reaches.
const fundamentalsLookback = 10 * 365 * 24 * time.Hour

// Financials returns annual and quarterly statement columns, newest first.
func (y *Yahoo) Financials(ctx context.Context, ticker string) (models.Statements, error) {
	symbol := utils.ToYahooSymbol(ticker)

	var types []string
	for _, prefix := range []string{"annual", "quarterly"} {
		for _, item := range statementItems {
			for _, n := range item.names {
				types = append(types, prefix+n)
			}
		}
	}
	now := time.Now()
	u := fmt.Sprintf("%s/ws/fundamentals-timeseries/v1/finance/timeseries/%s?symbol=%s&type=%s&period1=%d&period2=%d",
		y.endpoints.Query2, url.PathEscape(symbol), url.QueryEscape(symbol),
		url.QueryEscape(strings.Join(types, ",")), now.Add(-fundamentalsLookback).Unix(), now.Unix())

	var resp yfTimeseriesResponse
	if err := y.client.GetJSON(ctx, u, &resp); err != nil {
		return models.Statements{}, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}
	if e := resp.Timeseries.Error; e != nil {
		return models.Statements{}, fmt.Errorf("yahoo fundamentals %s: %w: %s", symbol, ErrNoDataFound, e.Description)
	}

	series, err := parseTimeseries(resp.Timeseries.Result)
	if err != nil {
		return models.Statements{}, fmt.Errorf("yahoo fundamentals %s: %w", symbol, err)
	}
	st := models.Statements{
		Annual:    buildStatements(series, "annual"),
		Quarterly: buildStatements(series, "quarterly"),
	}
	if len(st.Annual) == 0 && len(st.Quarterly) == 0 {
		return st, noData(symbol, "financial statements")
	}
	return st, nil
}

// parseTimeseries flattens the result list into type → asOfDate → value.
func parseTimeseries(results []map[string]json.RawMessage) (map[string]map[string]float64, error) {
	out := make(map[string]map[string]float64)
	for _, r := range results {
		var meta yfTimeseriesMeta
		if raw, ok := r["meta"]; ok {
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, fmt.Errorf("%w: decode timeseries meta: %v", ErrProviderUnavailable, err)
			}
		}
		if len(meta.Type) == 0 {
			continue
		}
		typ := meta.Type[0]
		raw, ok := r[typ]
		if !ok {
			continue
		}
		var points []*yfTimeseriesPoint
		if err := json.Unmarshal(raw, &points); err != nil {
			return nil, fmt.Errorf("%w: decode timeseries %s: %v", ErrProviderUnavailable, typ, err)
		}
		for _, pt := range points {
			if pt == nil || pt.ReportedValue.Raw == nil || pt.AsOfDate == "" {
				continue
			}
			if out[typ] == nil {
				out[typ] = make(map[string]float64)
			}
			out[typ][pt.AsOfDate] = *pt.ReportedValue.Raw
		}
	}
	return out, nil
}

// buildStatements assembles one StatementPeriod per reported date for the
// given prefix, applying the line-item fallbacks, newest first.
func buildStatements(series map[string]map[string]float64, prefix string) []models.StatementPeriod {
	dates := make(map[string]bool)
	for _, item := range statementItems {
		for _, n := range item.names {
			for d := range series[prefix+n] {
				dates[d] = true
			}
		}
	}

	out := make([]models.StatementPeriod, 0, len(dates))
	for d := range dates {
		end, err := utils.ParseDate(d)
		if err != nil {
			continue
		}
		p := models.StatementPeriod{EndDate: end}
		for _, item := range statementItems {
			for _, n := range item.names {
				if v, ok := series[prefix+n][d]; ok {
					item.assign(&p, utils.Float(v))
					break
				}
			}
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	return out
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

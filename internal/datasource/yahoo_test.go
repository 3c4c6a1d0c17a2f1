package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/marketlens/pkg/utils"
)

const chartFixture = `{"chart":{"result":[{
  "meta":{"symbol":"AAPL","currency":"USD","gmtoffset":-18000,"regularMarketPrice":104},
  "timestamp":[1704205800,1704292200,1704378600,1704465000,1704484800],
  "indicators":{"quote":[{
    "open":  [100,101,102,102,103],
    "high":  [102,103,104,104,105],
    "low":   [99,100,101,101,102],
    "close": [101,102,null,103,104],
    "volume":[1000,1100,0,1200,1300]
  }]}
}],"error":null}}`

const chartNotFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

const summaryFixture = `{"quoteSummary":{"result":[{
  "price":{"shortName":"Apple","longName":"Apple Inc.","currency":"USD",
           "marketCap":{"raw":3000000000000,"fmt":"3T"},
           "regularMarketPrice":{"raw":190.5},"regularMarketPreviousClose":{"raw":188.0}},
  "summaryDetail":{"trailingPE":{"raw":29.4},"fiftyTwoWeekHigh":{"raw":199.6},"fiftyTwoWeekLow":{"raw":164.1},"marketCap":{}},
  "assetProfile":{"longBusinessSummary":"Apple designs <b>iPhone</b>.","sector":"Technology","industry":"Consumer Electronics",
                  "website":"https://www.apple.com","irWebsite":"https://investor.apple.com"},
  "earningsTrend":{"trend":[
    {"period":"0q","earningsEstimate":{"avg":{"raw":2.1}},"revenueEstimate":{"avg":{"raw":117000000000}}},
    {"period":"+1q","earningsEstimate":{"avg":{"raw":1.5}},"revenueEstimate":{"avg":{}}},
    {"period":"0y","earningsEstimate":{"avg":{"raw":6.6}},"revenueEstimate":{"avg":{"raw":385000000000}}},
    {"period":"+1y","earningsEstimate":{"avg":{}},"revenueEstimate":{"avg":{}}}
  ]}
}],"error":null}}`

const timeseriesFixture = `{"timeseries":{"result":[
  {"meta":{"symbol":["AAPL"],"type":["annualTotalRevenue"]},"timestamp":[1],
   "annualTotalRevenue":[
     {"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":383285000000}},
     {"asOfDate":"2022-09-30","periodType":"12M","reportedValue":{"raw":394328000000}},
     null]},
  {"meta":{"symbol":["AAPL"],"type":["annualNormalizedEBITDA"]},"timestamp":[1],
   "annualNormalizedEBITDA":[{"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":125820000000}}]},
  {"meta":{"symbol":["AAPL"],"type":["annualEBITDA"]},"timestamp":[1],
   "annualEBITDA":[{"asOfDate":"2022-09-30","periodType":"12M","reportedValue":{"raw":130541000000}}]},
  {"meta":{"symbol":["AAPL"],"type":["annualDilutedEPS"]},"timestamp":[1],
   "annualDilutedEPS":[{"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":6.13}}]},
  {"meta":{"symbol":["AAPL"],"type":["annualBasicEPS"]},"timestamp":[1],
   "annualBasicEPS":[{"asOfDate":"2023-09-30","periodType":"12M","reportedValue":{"raw":6.16}}]},
  {"meta":{"symbol":["AAPL"],"type":["quarterlyTotalRevenue"]},"timestamp":[1],
   "quarterlyTotalRevenue":[{"asOfDate":"2023-12-31","periodType":"3M","reportedValue":{"raw":119575000000}}]},
  {"meta":{"symbol":["AAPL"],"type":["quarterlyGrossProfit"]}}
],"error":null}}`

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Yahoo! Finance: AAPL News</title>
  <item>
    <title>Older headline</title>
    <link>https://example.com/older</link>
    <description>&lt;p&gt;Old &lt;b&gt;news&lt;/b&gt;&lt;/p&gt;</description>
    <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
  </item>
  <item>
    <title>Newer headline</title>
    <link>https://example.com/newer</link>
    <description>Fresh news</description>
    <pubDate>Wed, 03 Jan 2024 10:00:00 +0000</pubDate>
    <media:content url="https://img.example.com/a.jpg" medium="image"/>
  </item>
  <item>
    <title>   </title>
    <link>https://example.com/blank</link>
  </item>
</channel>
</rss>`

// newTestYahoo starts a fake Yahoo server and returns a provider wired to it
// plus a counter of requests served.
func newTestYahoo(t *testing.T) (*Yahoo, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch {
		case r.URL.Path == "/v8/finance/chart/AAPL":
			w.Write([]byte(chartFixture))
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"):
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(chartNotFound))
		case r.URL.Path == "/v10/finance/quoteSummary/AAPL":
			w.Write([]byte(summaryFixture))
		case r.URL.Path == "/ws/fundamentals-timeseries/v1/finance/timeseries/AAPL":
			w.Write([]byte(timeseriesFixture))
		case r.URL.Path == "/rss/2.0/headline":
			w.Header().Set("Content-Type", "application/rss+xml")
			w.Write([]byte(rssFixture))
		case r.URL.Path == "/v10/finance/quoteSummary/BROKEN":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := DefaultClientConfig()
	cfg.RequestsPerSecond = 0
	client := NewClient(cfg, zerolog.Nop())
	endpoints := YahooEndpoints{Query1: srv.URL, Query2: srv.URL, Feeds: srv.URL}
	return NewYahoo(client, endpoints, zerolog.Nop()), &hits
}

func TestYahooFetchDaily(t *testing.T) {
	y, hits := newTestYahoo(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars, err := y.FetchDaily(ctx, "aapl", start, start.AddDate(0, 0, 10))
	require.NoError(t, err)
	require.Len(t, bars, 3, "null close skipped and duplicate day collapsed")

	assert.Equal(t, "2024-01-02", utils.DateString(bars[0].Date))
	assert.Equal(t, "2024-01-03", utils.DateString(bars[1].Date))
	assert.Equal(t, "2024-01-05", utils.DateString(bars[2].Date))
	assert.Equal(t, 104.0, bars[2].Close, "later row of the same day wins")
	assert.Equal(t, int64(1300), bars[2].Volume)

	_, err = y.FetchDaily(ctx, "AAPL", start, start.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "second call served from cache")
}

func TestYahooFetchDailyNotFound(t *testing.T) {
	y, _ := newTestYahoo(t)
	_, err := y.FetchDaily(context.Background(), "NOPE", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoDataFound)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
}

func TestYahooProfile(t *testing.T) {
	y, _ := newTestYahoo(t)
	p, err := y.Profile(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", p.Ticker)
	assert.Equal(t, "Apple Inc.", p.Name)
	assert.Equal(t, "Apple designs iPhone.", p.Description)
	assert.Equal(t, "Technology", p.Sector)
	assert.Equal(t, 3e12, p.MarketCap)
	require.NotNil(t, p.PERatio)
	assert.InDelta(t, 29.4, *p.PERatio, 1e-9)
	assert.Equal(t, 199.6, p.FiftyTwoWeekHigh)
	assert.Equal(t, 190.5, p.Price)
	assert.Equal(t, "https://investor.apple.com", p.IRWebsite)
}

func TestYahooProfileProviderDown(t *testing.T) {
	y, _ := newTestYahoo(t)
	_, err := y.Profile(context.Background(), "BROKEN")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestYahooEstimates(t *testing.T) {
	y, _ := newTestYahoo(t)
	est, err := y.Estimates(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, est, 4)

	assert.Equal(t, "0q", est[0].Offset)
	require.NotNil(t, est[0].Revenue)
	assert.Equal(t, 117e9, *est[0].Revenue)
	assert.Nil(t, est[1].Revenue, "empty avg object is unknown, not zero")
	assert.Nil(t, est[3].EPS)
}

func TestYahooFinancials(t *testing.T) {
	y, _ := newTestYahoo(t)
	st, err := y.Financials(context.Background(), "AAPL")
	require.NoError(t, err)

	require.Len(t, st.Annual, 2)
	newest := st.Annual[0]
	assert.Equal(t, "2023-09-30", utils.DateString(newest.EndDate))
	require.NotNil(t, newest.Revenue)
	assert.Equal(t, 383285e6, *newest.Revenue)
	require.NotNil(t, newest.EBITDA)
	assert.Equal(t, 125820e6, *newest.EBITDA, "falls back to normalized EBITDA")
	require.NotNil(t, newest.EPS)
	assert.Equal(t, 6.16, *newest.EPS, "basic EPS preferred over diluted")
	assert.Nil(t, newest.GrossProfit)

	older := st.Annual[1]
	require.NotNil(t, older.EBITDA)
	assert.Equal(t, 130541e6, *older.EBITDA)
	assert.Nil(t, older.EPS)

	require.Len(t, st.Quarterly, 1)
	assert.Equal(t, "2023-12-31", utils.DateString(st.Quarterly[0].EndDate))
}

func TestYahooNews(t *testing.T) {
	y, _ := newTestYahoo(t)
	news, err := y.News(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, news, 2, "blank titles are dropped")

	assert.Equal(t, "Newer headline", news[0].Title)
	assert.Equal(t, "https://img.example.com/a.jpg", news[0].Thumbnail)
	assert.Equal(t, "Yahoo Finance", news[0].Publisher)
	assert.Equal(t, "AAPL", news[0].Source)
	assert.Equal(t, "Old news", news[1].Summary)
	assert.Greater(t, news[0].PublishTime, news[1].PublishTime)

	limited, err := y.News(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestParseYFBarsEmpty(t *testing.T) {
	assert.Nil(t, parseYFBars(yfChartResult{}))
}

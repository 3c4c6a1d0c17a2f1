package datasource

import "encoding/json"

// --- Yahoo Finance v8 chart API types ---

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Meta       yfChartMeta  `json:"meta"`
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfChartMeta struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	GMTOffset          int64   `json:"gmtoffset"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
}

type yfIndicators struct {
	Quote []yfOHLCV `json:"quote"`
}

type yfOHLCV struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

// --- Yahoo Finance v10 quoteSummary API types ---

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	Price *struct {
		ShortName                  string   `json:"shortName"`
		LongName                   string   `json:"longName"`
		Currency                   string   `json:"currency"`
		MarketCap                  yfNumber `json:"marketCap"`
		RegularMarketPrice         yfNumber `json:"regularMarketPrice"`
		RegularMarketPreviousClose yfNumber `json:"regularMarketPreviousClose"`
	} `json:"price"`
	SummaryDetail *struct {
		TrailingPE       yfNumber `json:"trailingPE"`
		FiftyTwoWeekHigh yfNumber `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  yfNumber `json:"fiftyTwoWeekLow"`
		MarketCap        yfNumber `json:"marketCap"`
	} `json:"summaryDetail"`
	AssetProfile *struct {
		LongBusinessSummary string `json:"longBusinessSummary"`
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		Website             string `json:"website"`
		IRWebsite           string `json:"irWebsite"`
	} `json:"assetProfile"`
	EarningsTrend *struct {
		Trend []struct {
			Period           string `json:"period"`
			EarningsEstimate struct {
				Avg yfNumber `json:"avg"`
			} `json:"earningsEstimate"`
			RevenueEstimate struct {
				Avg yfNumber `json:"avg"`
			} `json:"revenueEstimate"`
		} `json:"trend"`
	} `json:"earningsTrend"`
}

// yfNumber is Yahoo's {"raw": 1.0, "fmt": "1.00"} envelope. Yahoo sends {}
// for unknown values, which decodes to a nil Raw.
type yfNumber struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

// --- Yahoo Finance fundamentals-timeseries API types ---

type yfTimeseriesResponse struct {
	Timeseries struct {
		Result []map[string]json.RawMessage `json:"result"`
		Error  *yfError                     `json:"error"`
	} `json:"timeseries"`
}

type yfTimeseriesMeta struct {
	Type []string `json:"type"`
}

type yfTimeseriesPoint struct {
	AsOfDate      string   `json:"asOfDate"`
	PeriodType    string   `json:"periodType"`
	ReportedValue yfNumber `json:"reportedValue"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

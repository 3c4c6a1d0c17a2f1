package models

// OHLCPoint is a candlestick point as consumed by the chart front end.
type OHLCPoint struct {
	X string  `json:"x"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
}

// VolumePoint is a volume bar coloured by the bar's direction.
type VolumePoint struct {
	X     string  `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

// SeriesPoint is a derived value at a date. Y is nil where the value is
// undefined, e.g. a moving average before its window fills.
type SeriesPoint struct {
	X string   `json:"x"`
	Y *float64 `json:"y"`
}

// ChartSeries is the full chart payload for one ticker.
type ChartSeries struct {
	Ticker       string        `json:"ticker"`
	Range        string        `json:"range"`
	Interval     string        `json:"interval"`
	CurrentPrice float64       `json:"current_price"`
	Change       float64       `json:"change"`
	ChangePct    float64       `json:"change_percent"`
	Prices       []float64     `json:"prices"`
	Labels       []string      `json:"labels"`
	OHLC         []OHLCPoint   `json:"ohlc"`
	Volume       []VolumePoint `json:"volume"`
	// MovingAverages is keyed by "ma" plus the window, e.g. "ma20".
	MovingAverages map[string][]SeriesPoint `json:"moving_averages"`
	Meta           *Profile                 `json:"meta"`
	Financials     FinancialTimeSeries      `json:"financials"`
	News           []NewsArticle            `json:"news"`
}

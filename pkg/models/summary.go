package models

// ClosePoint is one closing price used by the small index charts.
type ClosePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// IndexSnapshot is the latest level and daily move of a market index.
type IndexSnapshot struct {
	Ticker    string       `json:"ticker"`
	Name      string       `json:"name"`
	Price     float64      `json:"price"`
	Change    float64      `json:"change"`
	ChangePct float64      `json:"changePct"`
	Chart     []ClosePoint `json:"chart"`
}

// SectorPerformance is a sector ETF's daily and weekly return.
type SectorPerformance struct {
	Sector       string  `json:"sector"`
	ETF          string  `json:"etf"`
	Price        float64 `json:"price"`
	DailyChange  float64 `json:"dailyChange"`
	WeeklyChange float64 `json:"weeklyChange"`
}

// Mover is a stock ranked by its daily move.
type Mover struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Sector    string  `json:"sector"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
	Volume    int64   `json:"volume"`
	MarketCap float64 `json:"marketCap"`
}

// Movers splits the ranked universe into gainers and losers.
type Movers struct {
	Gainers []Mover `json:"gainers"`
	Losers  []Mover `json:"losers"`
}

// NewHigh is a stock trading near its 52-week high.
type NewHigh struct {
	Ticker           string  `json:"ticker"`
	Name             string  `json:"name"`
	Sector           string  `json:"sector"`
	Price            float64 `json:"price"`
	FiftyTwoWeekHigh float64 `json:"fiftyTwoWeekHigh"`
	MarketCap        float64 `json:"marketCap"`
	PctFromHigh      float64 `json:"pctFromHigh"`
}

// NewHighs holds the matching stocks plus a by-sector grouping.
type NewHighs struct {
	TotalCount int                  `json:"totalCount"`
	Stocks     []NewHigh            `json:"stocks"`
	BySector   map[string][]NewHigh `json:"bySector"`
}

// SectorStock is a sector constituent with trailing returns in percent.
type SectorStock struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"changePct"`
	Week      float64 `json:"week"`
	Month     float64 `json:"month"`
	Year      float64 `json:"year"`
	MarketCap float64 `json:"marketCap"`
	Volume    int64   `json:"volume"`
}

// SectorStocks is the constituent table of one sector.
type SectorStocks struct {
	Sector string        `json:"sector"`
	ETF    string        `json:"etf"`
	Stocks []SectorStock `json:"stocks"`
}

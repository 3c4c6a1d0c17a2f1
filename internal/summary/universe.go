package summary

// Instrument is a named ticker.
type Instrument struct {
	Name   string `mapstructure:"name" yaml:"name" validate:"required"`
	Symbol string `mapstructure:"symbol" yaml:"symbol" validate:"required"`
}

// SectorGroup is a sector with its tracking ETF and largest constituents.
type SectorGroup struct {
	Name    string   `mapstructure:"name" yaml:"name" validate:"required"`
	ETF     string   `mapstructure:"etf" yaml:"etf" validate:"required"`
	Tickers []string `mapstructure:"tickers" yaml:"tickers"`
}

// Universe is the curated set of instruments the daily summary covers.
// Every list and threshold is configuration, not logic.
type Universe struct {
	Indices     []Instrument  `mapstructure:"indices" yaml:"indices" validate:"dive"`
	Sectors     []SectorGroup `mapstructure:"sectors" yaml:"sectors" validate:"dive"`
	MajorStocks []string      `mapstructure:"major_stocks" yaml:"major_stocks"`
	NewsSources []string      `mapstructure:"news_sources" yaml:"news_sources"`

	// NewHighThreshold is the fraction of the 52-week high a price must
	// reach to count as a new high.
	NewHighThreshold float64 `mapstructure:"new_high_threshold" yaml:"new_high_threshold" validate:"gte=0,lte=1"`
	// NewHighMinMarketCap excludes small caps from the new-high scan.
	NewHighMinMarketCap float64 `mapstructure:"new_high_min_market_cap" yaml:"new_high_min_market_cap" validate:"gte=0"`

	TopMovers       int `mapstructure:"top_movers" yaml:"top_movers" validate:"gte=0"`
	NewsPerSource   int `mapstructure:"news_per_source" yaml:"news_per_source" validate:"gte=0"`
	MarketNewsLimit int `mapstructure:"market_news_limit" yaml:"market_news_limit" validate:"gte=0"`
	Concurrency     int `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=0"`
}

// DefaultUniverse covers the major US indices, the eleven SPDR sector ETFs
// and fifty large-cap S&P 500 names.
func DefaultUniverse() Universe {
	return Universe{
		Indices: []Instrument{
			{Name: "SP500", Symbol: "^GSPC"},
			{Name: "NASDAQ", Symbol: "^IXIC"},
			{Name: "DOW", Symbol: "^DJI"},
			{Name: "VIX", Symbol: "^VIX"},
			{Name: "RUSSELL2000", Symbol: "^RUT"},
			{Name: "10Y_TREASURY", Symbol: "^TNX"},
		},
		Sectors: []SectorGroup{
			{Name: "Technology", ETF: "XLK", Tickers: []string{"AAPL", "MSFT", "NVDA", "AVGO", "ORCL", "CRM", "ADBE", "AMD", "CSCO", "INTC"}},
			{Name: "Healthcare", ETF: "XLV", Tickers: []string{"LLY", "UNH", "JNJ", "MRK", "ABBV", "TMO", "PFE", "ABT", "DHR", "ISRG"}},
			{Name: "Financials", ETF: "XLF", Tickers: []string{"BRK-B", "JPM", "V", "MA", "BAC", "WFC", "GS", "MS", "SPGI", "BLK"}},
			{Name: "Consumer Discretionary", ETF: "XLY", Tickers: []string{"AMZN", "TSLA", "HD", "MCD", "NKE", "LOW", "SBUX", "TJX", "BKNG", "CMG"}},
			{Name: "Communication Services", ETF: "XLC", Tickers: []string{"META", "GOOGL", "NFLX", "DIS", "CMCSA", "VZ", "T", "TMUS", "CHTR", "EA"}},
			{Name: "Industrials", ETF: "XLI", Tickers: []string{"GE", "CAT", "UNP", "RTX", "HON", "BA", "DE", "UPS", "LMT", "MMM"}},
			{Name: "Consumer Staples", ETF: "XLP", Tickers: []string{"WMT", "PG", "COST", "KO", "PEP", "PM", "MO", "MDLZ", "CL", "KHC"}},
			{Name: "Energy", ETF: "XLE", Tickers: []string{"XOM", "CVX", "COP", "SLB", "EOG", "MPC", "PSX", "VLO", "OXY", "PXD"}},
			{Name: "Utilities", ETF: "XLU", Tickers: []string{"NEE", "DUK", "SO", "D", "AEP", "SRE", "XEL", "ED", "EXC", "WEC"}},
			{Name: "Real Estate", ETF: "XLRE", Tickers: []string{"PLD", "AMT", "EQIX", "PSA", "CCI", "SPG", "O", "WELL", "DLR", "AVB"}},
			{Name: "Materials", ETF: "XLB", Tickers: []string{"LIN", "APD", "SHW", "ECL", "FCX", "NEM", "DOW", "DD", "NUE", "VMC"}},
		},
		MajorStocks: []string{
			"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA", "META", "TSLA", "BRK-B", "UNH", "JNJ",
			"V", "XOM", "JPM", "PG", "MA", "HD", "CVX", "MRK", "ABBV", "LLY",
			"PEP", "KO", "COST", "AVGO", "TMO", "MCD", "WMT", "CSCO", "ACN", "ABT",
			"DHR", "NEE", "VZ", "NKE", "ADBE", "TXN", "PM", "CRM", "UPS", "RTX",
			"AMD", "INTC", "QCOM", "NFLX", "ORCL", "IBM", "NOW", "AMAT", "INTU", "ISRG",
		},
		NewsSources:         []string{"^GSPC", "SPY", "QQQ", "DIA", "IWM"},
		NewHighThreshold:    0.98,
		NewHighMinMarketCap: 800_000_000,
		TopMovers:           10,
		NewsPerSource:       5,
		MarketNewsLimit:     20,
		Concurrency:         8,
	}
}

// WithDefaults fills every empty list and zero threshold from DefaultUniverse.
func (u Universe) WithDefaults() Universe {
	def := DefaultUniverse()
	if len(u.Indices) == 0 {
		u.Indices = def.Indices
	}
	if len(u.Sectors) == 0 {
		u.Sectors = def.Sectors
	}
	if len(u.MajorStocks) == 0 {
		u.MajorStocks = def.MajorStocks
	}
	if len(u.NewsSources) == 0 {
		u.NewsSources = def.NewsSources
	}
	if u.NewHighThreshold == 0 {
		u.NewHighThreshold = def.NewHighThreshold
	}
	if u.NewHighMinMarketCap == 0 {
		u.NewHighMinMarketCap = def.NewHighMinMarketCap
	}
	if u.TopMovers == 0 {
		u.TopMovers = def.TopMovers
	}
	if u.NewsPerSource == 0 {
		u.NewsPerSource = def.NewsPerSource
	}
	if u.MarketNewsLimit == 0 {
		u.MarketNewsLimit = def.MarketNewsLimit
	}
	if u.Concurrency == 0 {
		u.Concurrency = def.Concurrency
	}
	return u
}

// Sector looks up a sector group by name.
func (u Universe) Sector(name string) (SectorGroup, bool) {
	for _, s := range u.Sectors {
		if s.Name == name {
			return s, true
		}
	}
	return SectorGroup{}, false
}

// SectorNames lists the configured sectors in order.
func (u Universe) SectorNames() []string {
	out := make([]string, len(u.Sectors))
	for i, s := range u.Sectors {
		out[i] = s.Name
	}
	return out
}

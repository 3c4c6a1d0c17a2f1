// Package models defines the core data structures shared across marketlens.
package models

import "time"

// DailyBar represents a single trading day of price data.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// ResampledBar has the shape of a DailyBar, but Date marks the end of the
// aggregation bucket (Sunday for weekly, last calendar day for monthly).
type ResampledBar DailyBar

// Up reports whether the bar closed at or above its open.
func (b ResampledBar) Up() bool { return b.Close >= b.Open }

// Profile is the descriptive metadata of a listed company or fund.
type Profile struct {
	Ticker           string   `json:"ticker"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Sector           string   `json:"sector"`
	Industry         string   `json:"industry,omitempty"`
	Currency         string   `json:"currency,omitempty"`
	MarketCap        float64  `json:"marketCap"`
	PERatio          *float64 `json:"peRatio"`
	Website          string   `json:"website"`
	IRWebsite        string   `json:"irWebsite"`
	Price            float64  `json:"price,omitempty"`
	PrevClose        float64  `json:"prevClose,omitempty"`
	FiftyTwoWeekHigh float64  `json:"fiftyTwoWeekHigh,omitempty"`
	FiftyTwoWeekLow  float64  `json:"fiftyTwoWeekLow,omitempty"`
}

// Quote is a last-price snapshot with the day-over-day move.
type Quote struct {
	Ticker    string  `json:"ticker"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change    float64 `json:"change"`
	ChangePct float64 `json:"change_pct"`
	Volume    int64   `json:"volume,omitempty"`
}

// Package timeseries turns daily OHLCV rows into interval-resampled,
// chart-ready series and derives the metrics drawn alongside them.
//
// Every function is a pure transform over in-memory slices; nothing here
// fetches data or keeps state between calls.
package timeseries

import (
	"time"
)

// Interval is the bar width of a resampled series.
type Interval string

const (
	Daily   Interval = "d"
	Weekly  Interval = "w"
	Monthly Interval = "m"
)

// DefaultInterval is used when a request names no interval or an unknown one.
const DefaultInterval = Daily

// ParseInterval maps a request value onto an Interval, falling back to
// DefaultInterval for anything unrecognised.
func ParseInterval(s string) Interval {
	switch Interval(s) {
	case Daily, Weekly, Monthly:
		return Interval(s)
	default:
		return DefaultInterval
	}
}

// Range is a lookback window ending today.
type Range string

const (
	Range1M  Range = "1m"
	Range3M  Range = "3m"
	Range6M  Range = "6m"
	Range1Y  Range = "1y"
	Range5Y  Range = "5y"
	RangeMax Range = "max"
)

// DefaultRange is used when a request names no range or an unknown one.
const DefaultRange = Range1Y

var rangeDays = map[Range]int{
	Range1M: 30,
	Range3M: 90,
	Range6M: 180,
	Range1Y: 365,
	Range5Y: 1825,
}

// MaxStart is the earliest date requested for the "max" range.
var MaxStart = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseRange maps a request value onto a Range, falling back to
// DefaultRange for anything unrecognised.
func ParseRange(s string) Range {
	r := Range(s)
	if r == RangeMax {
		return r
	}
	if _, ok := rangeDays[r]; ok {
		return r
	}
	return DefaultRange
}

// Start returns the first calendar day covered by r when the window ends at now.
func (r Range) Start(now time.Time) time.Time {
	if r == RangeMax {
		return MaxStart
	}
	days, ok := rangeDays[r]
	if !ok {
		days = rangeDays[DefaultRange]
	}
	y, m, d := now.AddDate(0, 0, -days).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

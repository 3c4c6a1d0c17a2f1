package timeseries

import (
	"math"

	"github.com/seenimoa/marketlens/pkg/models"
)

// PeriodChange returns (current-previous)/|previous|*100. It is nil when
// either input is nil or previous is zero.
func PeriodChange(current, previous *float64) *float64 {
	if current == nil || previous == nil || *previous == 0 {
		return nil
	}
	v := (*current - *previous) / math.Abs(*previous) * 100
	return &v
}

// MarginPct returns numerator/denominator*100, with the same nil rules as
// PeriodChange.
func MarginPct(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	v := *numerator / *denominator * 100
	return &v
}

// FreeCashFlow returns operating cash flow plus capital expenditure. Capex is
// reported as a negative outflow so no sign flip is applied.
func FreeCashFlow(operatingCashFlow, capex *float64) *float64 {
	if operatingCashFlow == nil || capex == nil {
		return nil
	}
	v := *operatingCashFlow + *capex
	return &v
}

// Change is the latest close compared with the prior trading day.
type Change struct {
	Price     float64
	PrevClose float64
	Change    float64
	ChangePct float64
}

// DailyChange compares the last close with the previous day's close. It
// always works on unresampled daily bars so that a weekly or monthly chart
// still reports a day-over-day move. With a single bar the bar's own open
// stands in for the previous close. ChangePct is 0 when the previous close
// is 0. ok is false for an empty series.
func DailyChange(bars []models.DailyBar) (c Change, ok bool) {
	n := len(bars)
	if n == 0 {
		return Change{}, false
	}
	last := bars[n-1]
	prev := last.Open
	if n > 1 {
		prev = bars[n-2].Close
	}
	c = Change{Price: last.Close, PrevClose: prev, Change: last.Close - prev}
	if prev != 0 {
		c.ChangePct = c.Change / prev * 100
	}
	return c, true
}

// ReturnPct is the percent move from base to current, or 0 when base is 0.
func ReturnPct(current, base float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}

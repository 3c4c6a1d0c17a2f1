package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// Resample aggregates ascending daily bars into buckets of the given interval.
//
// Weekly buckets close on Sunday and monthly buckets on the last calendar day
// of the month; the bucket's Date is that closing day. Within a bucket open is
// the first bar's open, close the last bar's close, high and low the extremes
// over every price in the bucket, and volume the sum. Buckets without bars are
// never emitted. Daily is the identity.
func Resample(bars []models.DailyBar, interval Interval) []models.ResampledBar {
	if len(bars) == 0 {
		return []models.ResampledBar{}
	}
	bars = ensureSorted(bars)

	var bucketEnd func(time.Time) time.Time
	switch interval {
	case Weekly:
		bucketEnd = utils.WeekEnd
	case Monthly:
		bucketEnd = utils.MonthEnd
	default:
		out := make([]models.ResampledBar, len(bars))
		for i, b := range bars {
			out[i] = models.ResampledBar(b)
		}
		return out
	}

	out := make([]models.ResampledBar, 0, len(bars)/4+1)
	var cur *models.ResampledBar
	for _, b := range bars {
		end := bucketEnd(b.Date)
		if cur == nil || !cur.Date.Equal(end) {
			out = append(out, models.ResampledBar{
				Date:   end,
				Open:   b.Open,
				High:   math.Inf(-1),
				Low:    math.Inf(1),
				Close:  b.Close,
				Volume: 0,
			})
			cur = &out[len(out)-1]
		}
		cur.High = max(cur.High, b.Open, b.High, b.Low, b.Close)
		cur.Low = min(cur.Low, b.Open, b.High, b.Low, b.Close)
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	return out
}

// ensureSorted returns bars ordered by date, copying only when the input
// is out of order.
func ensureSorted(bars []models.DailyBar) []models.DailyBar {
	if sort.SliceIsSorted(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) }) {
		return bars
	}
	sorted := make([]models.DailyBar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	return sorted
}

// Closes extracts the close of every bar.
func Closes(bars []models.ResampledBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

package timeseries

import (
	"gonum.org/v1/gonum/stat"
)

// MovingAverage calculates the simple moving average of closes over a
// trailing window that includes the current point. Positions before the
// window fills are nil, never zero. A non-positive window yields all nils.
func MovingAverage(closes []float64, window int) []*float64 {
	out := make([]*float64, len(closes))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(closes); i++ {
		v := stat.Mean(closes[i-window+1:i+1], nil)
		out[i] = &v
	}
	return out
}

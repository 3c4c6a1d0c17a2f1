// Package utils provides common utility functions for marketlens.
package utils

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds v half away from zero to the given number of decimal places.
// NaN and infinities are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Round2 rounds to two decimal places, the precision used for prices and
// percentages in API payloads.
func Round2(v float64) float64 { return Round(v, 2) }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Deref returns *p, or def when p is nil.
func Deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// FormatCompact formats a dollar amount with a T/B/M/K suffix,
// e.g. 2.5e12 → "$2.50T", 812_000_000 → "$812.00M".
func FormatCompact(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s$%.2fT", sign, amount/1e12)
	case amount >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, amount/1e6)
	case amount >= 1e3:
		return fmt.Sprintf("%s$%.2fK", sign, amount/1e3)
	default:
		return fmt.Sprintf("%s$%.2f", sign, amount)
	}
}

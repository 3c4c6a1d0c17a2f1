package utils

import (
	"regexp"
	"strings"
)

var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,14}$`)

// NormalizeTicker trims and upper-cases a user-supplied ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// ValidTicker reports whether ticker looks like an exchange symbol such as
// "AAPL", "BRK-B", "005930.KS" or "^GSPC".
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

// ToYahooSymbol converts share-class dots to the dash form Yahoo expects
// ("BRK.B" → "BRK-B"). Exchange suffixes such as ".KS" are kept.
func ToYahooSymbol(ticker string) string {
	t := NormalizeTicker(ticker)
	if i := strings.LastIndex(t, "."); i > 0 && len(t)-i == 2 {
		return t[:i] + "-" + t[i+1:]
	}
	return t
}

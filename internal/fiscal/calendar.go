// Package fiscal maps fiscal-period financial statements onto calendar
// labels and merges them with analyst estimates into one sorted timeline.
//
// Providers index statement columns by fiscal period end date. Companies
// whose fiscal year does not end in December would otherwise be compared
// against the wrong calendar period, so every column is relabelled:
// annual columns to "YYYY" and quarterly columns to "YYYY-Qn". Estimates
// carry a trailing "E" so they sort after the historical label of the same
// period.
package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EstimateMarker is appended to the label of every estimate period.
const EstimateMarker = "E"

// DefaultQuarterShiftDays approximates half a quarter. It is a heuristic:
// fiscal calendars that end more than ~45 days away from a calendar quarter
// boundary can still land in the neighbouring quarter.
const DefaultQuarterShiftDays = 45

// CalendarYear attributes a fiscal year ending on end to a calendar year.
// Years ending January through March mostly cover the prior calendar year.
func CalendarYear(end time.Time) int {
	if end.Month() <= time.March {
		return end.Year() - 1
	}
	return end.Year()
}

// CalendarQuarter shifts end back by shiftDays and returns the calendar
// year and quarter (1-4) the shifted date falls in.
func CalendarQuarter(end time.Time, shiftDays int) (year, quarter int) {
	mid := end.AddDate(0, 0, -shiftDays)
	return mid.Year(), (int(mid.Month())-1)/3 + 1
}

// YearLabel formats an annual label, e.g. "2024".
func YearLabel(year int) string { return strconv.Itoa(year) }

// QuarterLabel formats a quarterly label, e.g. "2024-Q3".
func QuarterLabel(year, quarter int) string { return fmt.Sprintf("%d-Q%d", year, quarter) }

// ParseQuarterLabel is the inverse of QuarterLabel. The estimate marker, if
// present, is ignored.
func ParseQuarterLabel(label string) (year, quarter int, err error) {
	label = strings.TrimSuffix(label, EstimateMarker)
	y, q, ok := strings.Cut(label, "-Q")
	if !ok {
		return 0, 0, fmt.Errorf("invalid quarter label %q", label)
	}
	if year, err = strconv.Atoi(y); err != nil {
		return 0, 0, fmt.Errorf("invalid quarter label %q: %w", label, err)
	}
	if quarter, err = strconv.Atoi(q); err != nil || quarter < 1 || quarter > 4 {
		return 0, 0, fmt.Errorf("invalid quarter label %q", label)
	}
	return year, quarter, nil
}

// addQuarters moves (year, quarter) forward by n quarters.
func addQuarters(year, quarter, n int) (int, int) {
	idx := year*4 + (quarter - 1) + n
	return idx / 4, idx%4 + 1
}

// quarterIndex is a monotonically increasing ordinal for (year, quarter).
func quarterIndex(year, quarter int) int { return year*4 + quarter - 1 }

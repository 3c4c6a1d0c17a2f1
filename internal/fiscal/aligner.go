package fiscal

import (
	"fmt"
	"sort"
	"time"

	"github.com/seenimoa/marketlens/internal/timeseries"
	"github.com/seenimoa/marketlens/pkg/models"
)

// Config tunes the aligner.
type Config struct {
	QuarterShiftDays int `mapstructure:"quarter_shift_days" yaml:"quarter_shift_days" validate:"gte=0,lte=92"`
	AnnualColumns    int `mapstructure:"annual_columns" yaml:"annual_columns" validate:"gte=1"`
	QuarterlyColumns int `mapstructure:"quarterly_columns" yaml:"quarterly_columns" validate:"gte=1"`
}

// DefaultConfig keeps five fiscal years and eight fiscal quarters.
func DefaultConfig() Config {
	return Config{
		QuarterShiftDays: DefaultQuarterShiftDays,
		AnnualColumns:    5,
		QuarterlyColumns: 8,
	}
}

// MissingField records a statement line item that a period did not report.
// It is informational: the corresponding output fields are simply nil.
type MissingField struct {
	Period string
	Field  string
}

func (m MissingField) Error() string {
	return fmt.Sprintf("period %s: missing %s", m.Period, m.Field)
}

// Aligner converts fiscal statement columns into calendar-labelled records.
type Aligner struct {
	cfg Config
	now func() time.Time
}

// New creates an Aligner. Zero-valued config fields take their defaults.
func New(cfg Config) *Aligner {
	def := DefaultConfig()
	if cfg.QuarterShiftDays == 0 {
		cfg.QuarterShiftDays = def.QuarterShiftDays
	}
	if cfg.AnnualColumns <= 0 {
		cfg.AnnualColumns = def.AnnualColumns
	}
	if cfg.QuarterlyColumns <= 0 {
		cfg.QuarterlyColumns = def.QuarterlyColumns
	}
	return &Aligner{cfg: cfg, now: time.Now}
}

// Align builds the annual and quarterly timelines. Missing line items never
// fail the alignment; they are returned alongside the result so callers can
// log them.
func (a *Aligner) Align(st models.Statements, estimates []models.Estimate) (models.FinancialTimeSeries, []MissingField) {
	annual, missA := a.Annual(st.Annual, estimates)
	quarterly, missQ := a.Quarterly(st.Quarterly, estimates)
	return models.FinancialTimeSeries{Annual: annual, Quarterly: quarterly}, append(missA, missQ...)
}

// calendarPeriod is a statement column tagged with its calendar ordinal.
type calendarPeriod struct {
	label   string
	ordinal int
	period  models.StatementPeriod
}

// Annual returns historical years plus year-offset estimates, sorted by label.
func (a *Aligner) Annual(periods []models.StatementPeriod, estimates []models.Estimate) ([]models.FinancialPeriodRecord, []MissingField) {
	tagged := tag(periods, func(end time.Time) (string, int) {
		y := CalendarYear(end)
		return YearLabel(y), y
	})
	records, missing := historical(tagged, a.cfg.AnnualColumns)

	base := a.now().Year() - 1
	if len(tagged) > 0 {
		base = tagged[0].ordinal
	}
	for _, e := range estimates {
		n, kind, ok := parseOffset(e.Offset)
		if !ok || kind != offsetYear {
			continue
		}
		if rec, ok := estimateRecord(YearLabel(base+n+1), e); ok {
			records = append(records, rec)
		}
	}
	sortByLabel(records)
	return records, missing
}

// Quarterly returns historical quarters plus quarter-offset estimates,
// sorted by label.
func (a *Aligner) Quarterly(periods []models.StatementPeriod, estimates []models.Estimate) ([]models.FinancialPeriodRecord, []MissingField) {
	shift := a.cfg.QuarterShiftDays
	tagged := tag(periods, func(end time.Time) (string, int) {
		y, q := CalendarQuarter(end, shift)
		return QuarterLabel(y, q), quarterIndex(y, q)
	})
	records, missing := historical(tagged, a.cfg.QuarterlyColumns)

	var baseY, baseQ int
	if len(tagged) > 0 {
		baseY, baseQ = tagged[0].ordinal/4, tagged[0].ordinal%4+1
	} else {
		now := a.now()
		baseY, baseQ = addQuarters(now.Year(), (int(now.Month())-1)/3+1, -1)
	}
	for _, e := range estimates {
		n, kind, ok := parseOffset(e.Offset)
		if !ok || kind != offsetQuarter {
			continue
		}
		y, q := addQuarters(baseY, baseQ, n+1)
		if rec, ok := estimateRecord(QuarterLabel(y, q), e); ok {
			records = append(records, rec)
		}
	}
	sortByLabel(records)
	return records, missing
}

// tag labels each column, orders them newest first and drops columns that
// collapse onto an already-seen calendar period.
func tag(periods []models.StatementPeriod, label func(time.Time) (string, int)) []calendarPeriod {
	out := make([]calendarPeriod, 0, len(periods))
	for _, p := range periods {
		l, ord := label(p.EndDate)
		out = append(out, calendarPeriod{label: l, ordinal: ord, period: p})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].period.EndDate.After(out[j].period.EndDate) })

	seen := make(map[int]bool, len(out))
	deduped := out[:0]
	for _, cp := range out {
		if seen[cp.ordinal] {
			continue
		}
		seen[cp.ordinal] = true
		deduped = append(deduped, cp)
	}
	return deduped
}

// historical builds records for the newest limit columns. Each is paired
// with the next-older column for growth rates when that column is the
// immediately preceding calendar period.
func historical(tagged []calendarPeriod, limit int) ([]models.FinancialPeriodRecord, []MissingField) {
	n := min(limit, len(tagged))
	records := make([]models.FinancialPeriodRecord, 0, n)
	var missing []MissingField
	for i := 0; i < n; i++ {
		cur := tagged[i]
		var prev *models.StatementPeriod
		if i+1 < len(tagged) && tagged[i+1].ordinal == cur.ordinal-1 {
			prev = &tagged[i+1].period
		}
		records = append(records, BuildRecord(cur.label, cur.period, prev))
		missing = append(missing, missingFields(cur.label, cur.period)...)
	}
	return records, missing
}

// BuildRecord derives margins, free cash flow and growth rates for one
// historical period. prev may be nil, in which case growth rates are nil.
func BuildRecord(label string, p models.StatementPeriod, prev *models.StatementPeriod) models.FinancialPeriodRecord {
	fcf := timeseries.FreeCashFlow(p.OperatingCashFlow, p.CapitalExpenditure)
	r := models.FinancialPeriodRecord{
		Period:           label,
		Revenue:          p.Revenue,
		GPM:              timeseries.MarginPct(p.GrossProfit, p.Revenue),
		OPM:              timeseries.MarginPct(p.OperatingIncome, p.Revenue),
		EBITDAMargin:     timeseries.MarginPct(p.EBITDA, p.Revenue),
		NetIncome:        p.NetIncome,
		EPS:              p.EPS,
		FreeCashFlow:     fcf,
		FCFMargin:        timeseries.MarginPct(fcf, p.Revenue),
		OperatingExpense: p.OperatingExpense,
		RDExpense:        p.RDExpense,
		SGAExpense:       p.SGAExpense,
		RDPct:            timeseries.MarginPct(p.RDExpense, p.Revenue),
		SGAPct:           timeseries.MarginPct(p.SGAExpense, p.Revenue),
		OpexPct:          timeseries.MarginPct(p.OperatingExpense, p.Revenue),
	}
	if prev != nil {
		r.RevenueGrowth = timeseries.PeriodChange(p.Revenue, prev.Revenue)
		r.EPSGrowth = timeseries.PeriodChange(p.EPS, prev.EPS)
		r.FCFGrowth = timeseries.PeriodChange(fcf, timeseries.FreeCashFlow(prev.OperatingCashFlow, prev.CapitalExpenditure))
	}
	return r
}

// estimateRecord builds an estimate row. ok is false when neither revenue
// nor EPS carries a usable value.
func estimateRecord(label string, e models.Estimate) (models.FinancialPeriodRecord, bool) {
	if !usable(e.Revenue) && !usable(e.EPS) {
		return models.FinancialPeriodRecord{}, false
	}
	return models.FinancialPeriodRecord{
		Period:     label + EstimateMarker,
		Revenue:    e.Revenue,
		EPS:        e.EPS,
		IsEstimate: true,
	}, true
}

func usable(v *float64) bool { return v != nil && *v != 0 }

func sortByLabel(records []models.FinancialPeriodRecord) {
	sort.SliceStable(records, func(i, j int) bool { return records[i].Period < records[j].Period })
}

func missingFields(label string, p models.StatementPeriod) []MissingField {
	fields := []struct {
		name string
		v    *float64
	}{
		{"revenue", p.Revenue},
		{"gross_profit", p.GrossProfit},
		{"ebitda", p.EBITDA},
		{"net_income", p.NetIncome},
		{"operating_income", p.OperatingIncome},
		{"operating_expense", p.OperatingExpense},
		{"rd_expense", p.RDExpense},
		{"sga_expense", p.SGAExpense},
		{"operating_cash_flow", p.OperatingCashFlow},
		{"capital_expenditure", p.CapitalExpenditure},
		{"eps", p.EPS},
	}
	var out []MissingField
	for _, f := range fields {
		if f.v == nil {
			out = append(out, MissingField{Period: label, Field: f.name})
		}
	}
	return out
}

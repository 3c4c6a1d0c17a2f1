package models

import "time"

// PeriodType distinguishes annual from quarterly statements.
type PeriodType string

const (
	PeriodAnnual    PeriodType = "annual"
	PeriodQuarterly PeriodType = "quarterly"
)

// StatementPeriod is one fiscal column of the income and cash-flow
// statements in provider-neutral form. A nil field means the line item
// was not reported for that period.
type StatementPeriod struct {
	EndDate            time.Time `json:"end_date"`
	Revenue            *float64  `json:"revenue"`
	GrossProfit        *float64  `json:"gross_profit"`
	EBITDA             *float64  `json:"ebitda"`
	NetIncome          *float64  `json:"net_income"`
	OperatingIncome    *float64  `json:"operating_income"`
	OperatingExpense   *float64  `json:"operating_expense"`
	RDExpense          *float64  `json:"rd_expense"`
	SGAExpense         *float64  `json:"sga_expense"`
	OperatingCashFlow  *float64  `json:"operating_cash_flow"`
	CapitalExpenditure *float64  `json:"capital_expenditure"`
	EPS                *float64  `json:"eps"`
}

// Statements holds a company's fiscal columns, newest first.
type Statements struct {
	Annual    []StatementPeriod `json:"annual"`
	Quarterly []StatementPeriod `json:"quarterly"`
}

// Estimate is an analyst-consensus projection keyed by a relative period
// token such as "0y", "+1y", "0q" or "+1q".
type Estimate struct {
	Offset  string   `json:"offset"`
	Revenue *float64 `json:"revenue"`
	EPS     *float64 `json:"eps"`
}

// FinancialPeriodRecord is one calendar-labelled point of the financial
// time series. Labels look like "2024", "2024-Q3", "2025E" or "2025-Q1E".
type FinancialPeriodRecord struct {
	Period           string   `json:"period"`
	Revenue          *float64 `json:"revenue"`
	RevenueGrowth    *float64 `json:"revenueGrowth"`
	GPM              *float64 `json:"gpm"`
	OPM              *float64 `json:"opm"`
	EBITDAMargin     *float64 `json:"ebitdaMargin"`
	NetIncome        *float64 `json:"netIncome"`
	EPS              *float64 `json:"eps"`
	EPSGrowth        *float64 `json:"epsGrowth"`
	FreeCashFlow     *float64 `json:"freeCashFlow"`
	FCFGrowth        *float64 `json:"fcfGrowth"`
	FCFMargin        *float64 `json:"fcfMargin"`
	OperatingExpense *float64 `json:"operatingExpense"`
	RDExpense        *float64 `json:"rdExpense"`
	SGAExpense       *float64 `json:"sgaExpense"`
	RDPct            *float64 `json:"rdPct"`
	SGAPct           *float64 `json:"sgaPct"`
	OpexPct          *float64 `json:"opexPct"`
	IsEstimate       bool     `json:"isEstimate"`
}

// FinancialTimeSeries is the merged historical and estimate timeline.
type FinancialTimeSeries struct {
	Annual    []FinancialPeriodRecord `json:"annual"`
	Quarterly []FinancialPeriodRecord `json:"quarterly"`
}

package models

import "time"

// AnalysisCategory names one of the AI company-analysis prompts.
type AnalysisCategory string

const (
	CategoryCompanyOverview AnalysisCategory = "company_overview"
	CategoryBusinessModel   AnalysisCategory = "business_model"
	CategoryProductAnalysis AnalysisCategory = "product_analysis"
	CategoryRevenueAnalysis AnalysisCategory = "revenue_analysis"
	CategoryMarginAnalysis  AnalysisCategory = "margin_analysis"
)

// AnalysisResult is a generated company analysis.
type AnalysisResult struct {
	ID          string           `json:"id"`
	Ticker      string           `json:"ticker"`
	CompanyName string           `json:"company_name"`
	Category    AnalysisCategory `json:"category"`
	Content     string           `json:"content"`
	Model       string           `json:"model"`
	Provider    string           `json:"provider"`
	CreatedAt   time.Time        `json:"created_at"`
}

// AnalysisBatch collects the results of several categories for one
// company. A category that failed appears in Errors instead of Results.
type AnalysisBatch struct {
	Ticker      string                      `json:"ticker"`
	CompanyName string                      `json:"company_name"`
	Results     []AnalysisResult            `json:"analyses"`
	Errors      map[AnalysisCategory]string `json:"errors,omitempty"`
}

// EarningCallFile is a transcript PDF available for a ticker.
type EarningCallFile struct {
	Filename   string    `json:"filename"`
	Period     string    `json:"date"`
	Link       string    `json:"link"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	HasCache   bool      `json:"has_analysis"`
}

// EarningCallAnalysis is the generated analysis of one transcript.
type EarningCallAnalysis struct {
	ID         string    `json:"id"`
	Ticker     string    `json:"ticker"`
	Period     string    `json:"period"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	Model      string    `json:"model"`
	TextLength int       `json:"text_length"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	Cached     bool      `json:"cached"`
	CacheDate  string    `json:"cache_date,omitempty"`
}

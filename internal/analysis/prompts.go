package analysis

import (
	"fmt"

	"github.com/seenimoa/marketlens/pkg/models"
)

// ── System Prompts ──

// companySystemPrompt frames every company-analysis category. %s is the
// output language.
const companySystemPrompt = `You are a professional equity research analyst. Follow these rules strictly:

1. **Primary sources**: base every claim on 10-K/10-Q filings, investor relations material or analyst reports.
2. **Always cite**: attach a source to each claim, e.g. [Source: XYZ 10-K 2024 p.45].
3. **Tone**: declarative and concise.
4. **Language**: write the answer in %s.
5. **Format**: Markdown, using headings (##), lists (-) and emphasis (**).`

// earningsCallSystemPrompt frames the earnings-call report. %s is the
// output language.
const earningsCallSystemPrompt = `You are an equity fund manager who specialises in earnings-call transcripts.
Analyse the transcript text you are given and produce a report that supports an investment decision.

**Style rules:**
- Terse, noun-phrase bullet style.
- Write in %s, but keep figures and line-item names exactly as reported in English.
- Markdown output.`

// ── Company Analysis Templates ──
//
// Each template takes the ticker and the company name, in that order.

var categoryPrompts = map[models.AnalysisCategory]string{
	models.CategoryCompanyOverview: `Analyse %[1]s (%[2]s) under the following headings:

## 1) Business Overview
- Core business lines (3-5 line summary)
- Main products and services with their revenue contribution
- Market position: share and rank, with numbers
- Customer types: B2B/B2C, key customers (state the top-10 share)

## 2) Company History
- Founding background
- Major turning points (launches, market entries, M&A)
- Important changes in the last three years: restructuring, M&A, partnerships
- Leadership changes and where the company stands today

## 3) Management
### A. CEO
- Visionary or executor? Founder-led?
- Depth of product knowledge and first-principles thinking
- Skin in the game: ownership %%, insider buying or selling in the last year
- Compensation structure: SBC, performance-linked incentives
- Long-term orientation and communication quality (earnings calls, shareholder letters)

### B. Executive team
- Background of the COO, CFO and CTO
- Economic stake and alignment with the CEO's vision
- Industry experience and tenure
- Recent insider trading activity

### C. Culture
- Open-ended mission and shared identity
- Employee satisfaction indicators (e.g. Glassdoor)
- Integrated culture versus an M&A patchwork
- Whether compensation is aligned with company performance
`,

	models.CategoryBusinessModel: `Analyse the business model of %[1]s (%[2]s):

## 1) How the company makes money
- Step-by-step revenue mechanics
- What each segment sells and how it earns from it

## 2) Cash conversion cycle
- Timing of revenue recognition versus cash collection
- Working-capital needs
- Prepayment versus deferred payment

## 3) Cost structure (COGS)
- Components of cost of revenue
- Fixed versus variable cost ratio
- Presence of economies of scale

## 4) Customer concentration
- Top-10 customer revenue share
- Churn
- Customer acquisition cost (CAC) and lifetime value (LTV)
`,

	models.CategoryProductAnalysis: `Analyse the product portfolio of %[1]s (%[2]s):

## 1) Products by segment
- What each segment sells
- Market position of each product

## 2) Margins
- Margin by product and segment
- High- versus low-margin mix
- Margin trend

## 3) Use cases
- Where the products are used
- End-user profile

## 4) Innovation
- Is the company creating a new market or disrupting an existing one?
- Zero-to-one (revolutionary) or one-to-ten (incremental)?

## 5) Competitive advantage
- Strengths against competing products
- Technical differentiation, pricing and brand power
`,

	models.CategoryRevenueAnalysis: `Analyse the revenue of %[1]s (%[2]s):

## 1) Revenue mix
- By segment and product
- By region (North America, Europe, Asia, ...)
- Dependence on major customers

## 2) Recent drivers
- Main causes of growth or decline over the last 2-3 quarters
- Volume versus price effects
- One-off items versus structural change

## 3) Growth drivers
- New products and services
- Market-share changes
- TAM expansion
- Pricing changes

## 4) Outlook
- Consensus versus management guidance
- Likelihood of acceleration or slowdown
- Risks: competition, regulation, macro
`,

	models.CategoryMarginAnalysis: `Analyse the margins of %[1]s (%[2]s):

## 1) Gross margin (GPM)
- Current level and trend
- Key drivers: mix, input costs, pricing power
- Comparison with competitors

## 2) Operating expenses
- R&D as a share of revenue and its trend
- SG&A efficiency
- Operating leverage

## 3) Profitability drivers
- Main causes of recent margin moves
- One-off costs versus structural change
- Room for further improvement

## 4) Free cash flow margin
- FCF margin trend
- Working-capital effects
- CAPEX intensity and outlook
`,
}

// earningsCallTemplate takes the ticker, the period and the transcript.
const earningsCallTemplate = `Analyse the following earnings-call transcript and write the report in the format below.

## Subject
- **Ticker**: %[1]s
- **Quarter**: %[2]s

---

## 1. Financial Summary
- **Total Revenue**: $X.XM (X%% y/y) vs $X.XM consensus - Beat/Miss/In-line
- **Revenue by segment and region**
- **Gross Profit**: $X.XM (margin X.X%%)
- **Operating Income**: $X.XM (margin X.X%%)
- **Adjusted EBITDA**: $X.XM (margin X.X%%)
- **EPS**: $X.XX vs $X.XX
- **Key KPIs** for the industry
- **Cash flow** where relevant: OCF, FCF, cash

## 2. Guidance
- **Next-quarter revenue**: $X.X-X.XB (X%%-X%% y/y)
- **Full-year revenue**: $X.XB (raised, lowered or maintained)
- **Margin outlook**: X.X%%
- **Other material guidance**

## 3. Management Summary
Summarise management's remarks in the order they were made, prefixing each with its topic in parentheses, e.g.
- **(AI) AI-driven personalisation is lifting engagement**

## 4. Q&A
Cover every question asked on the call:
- **Q (analyst, firm)**: question summary
- **A (management)**: answer summary

---

## Earnings-call transcript:

%[3]s
`

// DefaultCategories are the categories AnalyzeAll runs.
var DefaultCategories = []models.AnalysisCategory{
	models.CategoryCompanyOverview,
	models.CategoryBusinessModel,
	models.CategoryProductAnalysis,
}

// Categories lists every supported category in display order.
func Categories() []models.AnalysisCategory {
	return []models.AnalysisCategory{
		models.CategoryCompanyOverview,
		models.CategoryBusinessModel,
		models.CategoryProductAnalysis,
		models.CategoryRevenueAnalysis,
		models.CategoryMarginAnalysis,
	}
}

// CompanyPrompt renders the user prompt for one category.
func CompanyPrompt(category models.AnalysisCategory, ticker, name string) (string, error) {
	tmpl, ok := categoryPrompts[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return fmt.Sprintf(tmpl, ticker, name), nil
}

// EarningsCallPrompt renders the user prompt for a transcript.
func EarningsCallPrompt(ticker, period, transcript string) string {
	return fmt.Sprintf(earningsCallTemplate, ticker, period, transcript)
}

// CompanySystemPrompt returns the company-analysis system prompt.
func CompanySystemPrompt(language string) string {
	return fmt.Sprintf(companySystemPrompt, language)
}

// EarningsCallSystemPrompt returns the earnings-call system prompt.
func EarningsCallSystemPrompt(language string) string {
	return fmt.Sprintf(earningsCallSystemPrompt, language)
}

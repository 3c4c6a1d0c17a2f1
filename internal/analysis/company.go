// Package analysis generates AI-written company and earnings-call reports
// on top of an llm.Provider.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/llm"
	"github.com/seenimoa/marketlens/pkg/models"
)

// DefaultLanguage is the language reports are written in unless configured.
const DefaultLanguage = "Korean"

// ErrUnknownCategory is returned for a category with no prompt template.
var ErrUnknownCategory = errors.New("unknown analysis category")

// CompanyAnalyzer writes category reports about a listed company.
type CompanyAnalyzer struct {
	llm      llm.Provider
	profiles datasource.ProfileSource
	language string
	log      zerolog.Logger
	now      func() time.Time
}

// NewCompanyAnalyzer creates an analyzer. profiles may be nil, in which case
// the ticker doubles as the company name.
func NewCompanyAnalyzer(provider llm.Provider, profiles datasource.ProfileSource, language string, log zerolog.Logger) *CompanyAnalyzer {
	if language == "" {
		language = DefaultLanguage
	}
	return &CompanyAnalyzer{
		llm:      provider,
		profiles: profiles,
		language: language,
		log:      log.With().Str("component", "company-analysis").Logger(),
		now:      time.Now,
	}
}

// Analyze generates one category report. An empty name is looked up from
// the profile source.
func (a *CompanyAnalyzer) Analyze(ctx context.Context, ticker, name string, category models.AnalysisCategory) (*models.AnalysisResult, error) {
	if a.llm == nil {
		return nil, llm.ErrNoProviders
	}
	if _, ok := categoryPrompts[category]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	name = a.companyName(ctx, ticker, name)
	prompt, err := CompanyPrompt(category, ticker, name)
	if err != nil {
		return nil, err
	}
	return a.generate(ctx, ticker, name, category, prompt)
}

// AnalyzeAll runs every default category. Per-category failures are
// collected in the batch; an error is returned only if all of them fail.
func (a *CompanyAnalyzer) AnalyzeAll(ctx context.Context, ticker, name string) (*models.AnalysisBatch, error) {
	if a.llm == nil {
		return nil, llm.ErrNoProviders
	}
	name = a.companyName(ctx, ticker, name)
	batch := &models.AnalysisBatch{
		Ticker:      ticker,
		CompanyName: name,
		Results:     make([]models.AnalysisResult, 0, len(DefaultCategories)),
	}

	var lastErr error
	for _, category := range DefaultCategories {
		prompt, _ := CompanyPrompt(category, ticker, name)
		res, err := a.generate(ctx, ticker, name, category, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if batch.Errors == nil {
				batch.Errors = make(map[models.AnalysisCategory]string)
			}
			batch.Errors[category] = err.Error()
			lastErr = err
			continue
		}
		batch.Results = append(batch.Results, *res)
	}
	if len(batch.Results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return batch, nil
}

func (a *CompanyAnalyzer) generate(ctx context.Context, ticker, name string, category models.AnalysisCategory, prompt string) (*models.AnalysisResult, error) {
	start := a.now()
	out, err := a.llm.Generate(ctx, CompanySystemPrompt(a.language), prompt)
	if err != nil {
		a.log.Warn().Err(err).Str("ticker", ticker).Str("category", string(category)).Msg("analysis failed")
		return nil, fmt.Errorf("analysis %s for %s: %w", category, ticker, err)
	}
	a.log.Info().
		Str("ticker", ticker).
		Str("category", string(category)).
		Str("model", out.Model).
		Dur("latency", out.Latency).
		Msg("analysis generated")

	return &models.AnalysisResult{
		ID:          uuid.NewString(),
		Ticker:      ticker,
		CompanyName: name,
		Category:    category,
		Content:     out.Text,
		Model:       out.Model,
		Provider:    out.Provider,
		CreatedAt:   start,
	}, nil
}

func (a *CompanyAnalyzer) companyName(ctx context.Context, ticker, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if a.profiles == nil {
		return ticker
	}
	p, err := a.profiles.Profile(ctx, ticker)
	if err != nil || p == nil || p.Name == "" {
		if err != nil {
			a.log.Debug().Err(err).Str("ticker", ticker).Msg("profile lookup failed")
		}
		return ticker
	}
	return p.Name
}

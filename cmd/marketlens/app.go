package main

import (
	"context"
	"errors"

	"github.com/seenimoa/marketlens/api"
	"github.com/seenimoa/marketlens/internal/analysis"
	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/filecache"
	"github.com/seenimoa/marketlens/internal/fiscal"
	"github.com/seenimoa/marketlens/internal/llm"
	"github.com/seenimoa/marketlens/internal/market"
	"github.com/seenimoa/marketlens/internal/notion"
	"github.com/seenimoa/marketlens/internal/pdf"
	"github.com/seenimoa/marketlens/internal/summary"
)

// app holds the wired services shared by every command.
type app struct {
	client   *datasource.Client
	provider datasource.Provider
	market   *market.Service
	summary  *summary.Service
	company  *analysis.CompanyAnalyzer
	earnings *analysis.EarningsAnalyzer
	notion   *notion.Client
}

// newApp wires services from the loaded config. Missing LLM keys leave the
// analyzers without a provider; they then report llm.ErrNoProviders.
func newApp(ctx context.Context) (*app, error) {
	client := datasource.NewClient(cfg.Provider, log)
	yahoo := datasource.NewYahoo(client, datasource.DefaultYahooEndpoints, log)

	var gen llm.Provider
	router, err := llm.NewRouterFromConfig(ctx, cfg.LLM, log)
	switch {
	case err == nil:
		gen = router
	case errors.Is(err, llm.ErrNoProviders):
		log.Warn().Msg("no LLM API key configured; AI analysis disabled")
	default:
		return nil, err
	}

	return &app{
		client:   client,
		provider: yahoo,
		market:   market.NewService(yahoo, fiscal.New(cfg.Fiscal), cfg.Chart, log),
		summary:  summary.NewService(yahoo, cfg.Universe, log),
		company:  analysis.NewCompanyAnalyzer(gen, yahoo, cfg.LLM.Language, log),
		earnings: analysis.NewEarningsAnalyzer(cfg.Earnings, gen, pdf.NewExtractor(log), filecache.NewStore(), cfg.LLM.Language, log),
		notion:   notion.NewClient(cfg.Notion, log),
	}, nil
}

func (a *app) apiDeps() api.Deps {
	return api.Deps{
		Chart:    a.market,
		Summary:  a.summary,
		Company:  a.company,
		Earnings: a.earnings,
		Notion:   a.notion,
	}
}

// scheduler registers the maintenance jobs: expiring stored transcript
// analyses and evicting stale provider responses.
func (a *app) scheduler() (*filecache.Scheduler, error) {
	s := filecache.NewScheduler(log)
	if schedule := a.earnings.Schedule(); schedule != "" {
		if err := s.AddJob(schedule, a.earnings.PruneJob()); err != nil {
			return nil, err
		}
	}
	err := s.AddJob("@every 10m", filecache.FuncJob{
		JobName: "provider-cache",
		Fn: func() error {
			if n := a.client.PruneCache(); n > 0 {
				log.Debug().Int("evicted", n).Msg("pruned provider cache")
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

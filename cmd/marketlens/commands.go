package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/marketlens/api"
	"github.com/seenimoa/marketlens/internal/timeseries"
	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.Server.Port = port
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		sched, err := a.scheduler()
		if err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		return api.NewServer(cfg.Server, a.apiDeps(), log).ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port override")
}

// --- Chart Command ---

var chartCmd = &cobra.Command{
	Use:   "chart [ticker]",
	Short: "Print the chart payload for a ticker as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rng, _ := cmd.Flags().GetString("range")
		interval, _ := cmd.Flags().GetString("interval")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		series, err := a.market.GetChartSeries(cmd.Context(), utils.NormalizeTicker(args[0]), rng, interval)
		if err != nil {
			return err
		}
		return printJSON(series)
	},
}

func init() {
	chartCmd.Flags().String("range", string(timeseries.DefaultRange), "history range (1m, 3m, 6m, 1y, 5y, max)")
	chartCmd.Flags().String("interval", string(timeseries.DefaultInterval), "bar interval (d, w, m)")
}

// --- Financials Command ---

var financialsCmd = &cobra.Command{
	Use:   "financials [ticker]",
	Short: "Print calendar-aligned annual and quarterly financials as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		fin, err := a.market.GetFinancialTimeSeries(cmd.Context(), utils.NormalizeTicker(args[0]))
		if err != nil {
			return err
		}
		return printJSON(fin)
	},
}

// --- Summary Command ---

var summaryCmd = &cobra.Command{
	Use:       "summary [overview|sectors|movers|new-highs|news|sector NAME]",
	Short:     "Print a daily market summary view as JSON",
	Args:      cobra.MaximumNArgs(2),
	ValidArgs: []string{"overview", "sectors", "movers", "new-highs", "news", "sector"},
	RunE: func(cmd *cobra.Command, args []string) error {
		view := "overview"
		if len(args) > 0 {
			view = args[0]
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		var out any
		switch view {
		case "overview":
			out, err = a.summary.MarketOverview(ctx)
		case "sectors":
			out, err = a.summary.Sectors(ctx)
		case "movers":
			out, err = a.summary.Movers(ctx)
		case "new-highs":
			out, err = a.summary.NewHighs(ctx)
		case "news":
			out, err = a.summary.MarketNews(ctx)
		case "sector":
			if len(args) < 2 {
				return fmt.Errorf("sector name required, one of: %s", strings.Join(a.summary.Universe().SectorNames(), ", "))
			}
			out, err = a.summary.SectorStocks(ctx, args[1])
		default:
			return fmt.Errorf("unknown summary view %q", view)
		}
		if err != nil {
			return err
		}
		return printJSON(out)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Write an AI company report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		name, _ := cmd.Flags().GetString("name")
		ticker := utils.NormalizeTicker(args[0])

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if category == "" || category == "all" {
			batch, err := a.company.AnalyzeAll(cmd.Context(), ticker, name)
			if err != nil {
				return err
			}
			return printJSON(batch)
		}
		res, err := a.company.Analyze(cmd.Context(), ticker, name, models.AnalysisCategory(category))
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	analyzeCmd.Flags().String("category", "all", "report category (company_overview, business_model, product_analysis, revenue_analysis, margin_analysis, all)")
	analyzeCmd.Flags().String("name", "", "company name (default: looked up from the profile)")
}

// --- Earnings Command ---

var earningsCmd = &cobra.Command{
	Use:   "earnings [ticker] [file]",
	Short: "List earnings-call transcripts, or analyse one",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			files, err := a.earnings.ListEarningCalls(ticker)
			if err != nil {
				return err
			}
			return printJSON(api.EarningCallList{Ticker: ticker, Files: files})
		}

		refresh, _ := cmd.Flags().GetBool("refresh")
		res, err := a.earnings.AnalyzeEarningCall(cmd.Context(), ticker, args[1], refresh)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	earningsCmd.Flags().Bool("refresh", false, "ignore a stored analysis and run the model again")
}

// Package api provides the HTTP REST API server for marketlens.
//
// It exposes chart and financial data, the daily market summary, AI company
// and earnings-call analysis, and the Notion export under /api, and serves
// the static front end and transcript PDFs.
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/seenimoa/marketlens/internal/config"
	"github.com/seenimoa/marketlens/internal/notion"
	"github.com/seenimoa/marketlens/pkg/models"
)

// ChartService builds chart payloads and financial time series.
type ChartService interface {
	GetChartSeries(ctx context.Context, ticker, rng, interval string) (*models.ChartSeries, error)
	GetFinancialTimeSeries(ctx context.Context, ticker string) (*models.FinancialTimeSeries, error)
}

// SummaryService builds the daily market summary views.
type SummaryService interface {
	MarketOverview(ctx context.Context) ([]models.IndexSnapshot, error)
	Sectors(ctx context.Context) ([]models.SectorPerformance, error)
	Movers(ctx context.Context) (*models.Movers, error)
	NewHighs(ctx context.Context) (*models.NewHighs, error)
	MarketNews(ctx context.Context) ([]models.NewsArticle, error)
	SectorStocks(ctx context.Context, sector string) (*models.SectorStocks, error)
}

// CompanyAnalyzer writes AI company reports.
type CompanyAnalyzer interface {
	Analyze(ctx context.Context, ticker, name string, category models.AnalysisCategory) (*models.AnalysisResult, error)
	AnalyzeAll(ctx context.Context, ticker, name string) (*models.AnalysisBatch, error)
}

// EarningsAnalyzer lists and analyses earnings-call transcripts.
type EarningsAnalyzer interface {
	ListEarningCalls(ticker string) ([]models.EarningCallFile, error)
	AnalyzeEarningCall(ctx context.Context, ticker, filename string, refresh bool) (*models.EarningCallAnalysis, error)
	TranscriptPath(ticker, filename string) (string, error)
}

// NotionExporter publishes reports to Notion.
type NotionExporter interface {
	Status() notion.Status
	Export(ctx context.Context, req notion.ExportRequest) (*notion.ExportResult, error)
}

// Deps are the services the handlers call.
type Deps struct {
	Chart    ChartService
	Summary  SummaryService
	Company  CompanyAnalyzer
	Earnings EarningsAnalyzer
	Notion   NotionExporter
}

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    config.ServerConfig
	deps   Deps
	static fs.FS
	log    zerolog.Logger
}

// NewServer creates a configured API server with all routes and middleware.
// The front end is served from cfg.StaticDir when that directory exists.
func NewServer(cfg config.ServerConfig, deps Deps, log zerolog.Logger) *Server {
	srv := &Server{
		cfg:  cfg,
		deps: deps,
		log:  log.With().Str("component", "api").Logger(),
	}
	if cfg.StaticDir != "" {
		if info, err := os.Stat(cfg.StaticDir); err == nil && info.IsDir() {
			srv.static = os.DirFS(cfg.StaticDir)
		}
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves on cfg.Addr() until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", httpSrv.Addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}

	// CORS
	origins := []string{"*"}
	if len(s.cfg.CORSOrigins) > 0 {
		origins = s.cfg.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		// Chart and fundamentals
		r.Get("/historical", s.handleHistorical)
		r.Get("/financials", s.handleFinancials)

		// AI analysis
		r.Get("/ai-analysis", s.handleAIAnalysis)
		r.Get("/earningcalls", s.handleEarningCalls)
		r.Get("/analyze-earningcall", s.handleAnalyzeEarningCall)
		r.Post("/analyze-earningcall", s.handleAnalyzeEarningCall)

		// Notion
		r.Get("/notion-status", s.handleNotionStatus)
		r.Post("/export-to-notion", s.handleExportToNotion)

		// Daily summary
		r.Get("/market-overview", s.handleMarketOverview)
		r.Get("/sectors", s.handleSectors)
		r.Get("/movers", s.handleMovers)
		r.Get("/new-highs", s.handleNewHighs)
		r.Get("/market-news", s.handleMarketNews)
		r.Get("/sector-stocks", s.handleSectorStocks)
	})

	// Transcript PDFs
	r.Get("/earningcall/{ticker}/{file}", s.handleTranscriptFile)

	if s.static != nil {
		s.mountSPA(r, s.static)
	}
	return r
}

// mountSPA serves the static front end. Unknown paths fall back to
// index.html for client-side routing.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServerFS(distFS)

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()

		if rPath == "index.html" || strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML serves index.html for SPA fallback.
func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// requestLogger logs one line per request with zerolog.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				ev := log.Info()
				if status >= 500 {
					ev = log.Warn()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

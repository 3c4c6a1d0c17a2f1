package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/marketlens/internal/notion"
	"github.com/seenimoa/marketlens/pkg/models"
	"github.com/seenimoa/marketlens/pkg/utils"
)

const maxBodyBytes = 1 << 20

// AnalyzeEarningCallRequest is the body for POST /api/analyze-earningcall.
// Filename is accepted as an alias of File.
type AnalyzeEarningCallRequest struct {
	Ticker   string `json:"ticker"`
	File     string `json:"file"`
	Filename string `json:"filename"`
	Refresh  bool   `json:"refresh"`
}

// EarningCallList is the response of GET /api/earningcalls.
type EarningCallList struct {
	Ticker string                   `json:"ticker"`
	Files  []models.EarningCallFile `json:"files"`
}

// tickerParam reads, normalises and validates the ticker query parameter.
// It writes a 400 and returns false when the ticker is missing or malformed.
func tickerParam(w http.ResponseWriter, raw string) (string, bool) {
	ticker := utils.NormalizeTicker(raw)
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return "", false
	}
	if !utils.ValidTicker(ticker) {
		writeError(w, http.StatusBadRequest, "invalid ticker: "+ticker)
		return "", false
	}
	return ticker, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ── Chart and fundamentals ──

func (s *Server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker, ok := tickerParam(w, q.Get("ticker"))
	if !ok {
		return
	}

	series, err := s.deps.Chart.GetChartSeries(r.Context(), ticker, q.Get("range"), q.Get("interval"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, series)
}

func (s *Server) handleFinancials(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r.URL.Query().Get("ticker"))
	if !ok {
		return
	}

	fin, err := s.deps.Chart.GetFinancialTimeSeries(r.Context(), ticker)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, fin)
}

// ── AI analysis ──

func (s *Server) handleAIAnalysis(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker, ok := tickerParam(w, q.Get("ticker"))
	if !ok {
		return
	}
	name := strings.TrimSpace(q.Get("name"))
	category := strings.ToLower(strings.TrimSpace(q.Get("category")))

	if category == "" || category == "all" {
		batch, err := s.deps.Company.AnalyzeAll(r.Context(), ticker, name)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeOK(w, batch)
		return
	}

	res, err := s.deps.Company.Analyze(r.Context(), ticker, name, models.AnalysisCategory(category))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, res)
}

func (s *Server) handleEarningCalls(w http.ResponseWriter, r *http.Request) {
	ticker, ok := tickerParam(w, r.URL.Query().Get("ticker"))
	if !ok {
		return
	}

	files, err := s.deps.Earnings.ListEarningCalls(ticker)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, EarningCallList{Ticker: ticker, Files: files})
}

func (s *Server) handleAnalyzeEarningCall(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeEarningCallRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		q := r.URL.Query()
		req.Ticker = q.Get("ticker")
		req.File = q.Get("file")
		req.Filename = q.Get("filename")
		req.Refresh, _ = strconv.ParseBool(q.Get("refresh"))
	}

	ticker, ok := tickerParam(w, req.Ticker)
	if !ok {
		return
	}
	file := strings.TrimSpace(req.File)
	if file == "" {
		file = strings.TrimSpace(req.Filename)
	}
	if file == "" {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	res, err := s.deps.Earnings.AnalyzeEarningCall(r.Context(), ticker, file, req.Refresh)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, res)
}

func (s *Server) handleTranscriptFile(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	path, err := s.deps.Earnings.TranscriptPath(ticker, chi.URLParam(r, "file"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	http.ServeFile(w, r, path)
}

// ── Notion ──

func (s *Server) handleNotionStatus(w http.ResponseWriter, r *http.Request) {
	writeOK(w, s.deps.Notion.Status())
}

func (s *Server) handleExportToNotion(w http.ResponseWriter, r *http.Request) {
	var req notion.ExportRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Ticker = utils.NormalizeTicker(req.Ticker)

	res, err := s.deps.Notion.Export(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, res)
}

// ── Daily summary ──

func (s *Server) handleMarketOverview(w http.ResponseWriter, r *http.Request) {
	indices, err := s.deps.Summary.MarketOverview(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, indices)
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	sectors, err := s.deps.Summary.Sectors(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, sectors)
}

func (s *Server) handleMovers(w http.ResponseWriter, r *http.Request) {
	movers, err := s.deps.Summary.Movers(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, movers)
}

func (s *Server) handleNewHighs(w http.ResponseWriter, r *http.Request) {
	highs, err := s.deps.Summary.NewHighs(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, highs)
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	news, err := s.deps.Summary.MarketNews(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, news)
}

func (s *Server) handleSectorStocks(w http.ResponseWriter, r *http.Request) {
	sector := strings.TrimSpace(r.URL.Query().Get("sector"))
	if sector == "" {
		writeError(w, http.StatusBadRequest, "sector is required")
		return
	}

	stocks, err := s.deps.Summary.SectorStocks(r.Context(), sector)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeOK(w, stocks)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/seenimoa/marketlens/internal/analysis"
	"github.com/seenimoa/marketlens/internal/datasource"
	"github.com/seenimoa/marketlens/internal/llm"
	"github.com/seenimoa/marketlens/internal/notion"
	"github.com/seenimoa/marketlens/internal/pdf"
	"github.com/seenimoa/marketlens/internal/summary"
)

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeServiceError maps a service error onto its HTTP status and logs
// server-side failures.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Warn().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

// statusFor maps sentinel errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrNoDataFound),
		errors.Is(err, analysis.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, summary.ErrUnknownSector),
		errors.Is(err, analysis.ErrUnknownCategory),
		errors.Is(err, analysis.ErrInvalidFilename),
		errors.Is(err, analysis.ErrInvalidTicker),
		errors.Is(err, notion.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, pdf.ErrTooLittleText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, llm.ErrNoProviders),
		errors.Is(err, llm.ErrNoAPIKey),
		errors.Is(err, notion.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, datasource.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

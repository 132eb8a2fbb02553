package http

import (
	"log/slog"
	"net/http"

	applog "bilancio/internal/log"
)

const (
	summaryCacheKey = "summary"
	reportCacheKey  = "planned-vs-actual"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if cached, ok := s.summaryCache.Get(summaryCacheKey); ok {
		slog.DebugContext(r.Context(), "Summary cache hit")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.aggregator.GetSummary(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Summary failed",
			applog.FieldOperation, applog.OpRead,
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	view := toSummaryView(summary)
	s.summaryCache.Set(summaryCacheKey, view)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePlannedVsActual(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	if cached, ok := s.reportCache.Get(reportCacheKey); ok {
		slog.DebugContext(r.Context(), "Report cache hit")
		writeJSON(w, http.StatusOK, cached)
		return
	}

	rows, err := s.aggregator.GetPlannedVsActual(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	views := toPlannedVsActualViews(rows)
	s.reportCache.Set(reportCacheKey, views)
	writeJSON(w, http.StatusOK, views)
}

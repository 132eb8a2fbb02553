package http

import (
	"log/slog"
	"net/http"

	applog "bilancio/internal/log"
)

func (s *Server) handleCashBooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		books, err := s.store.ListCashBooks(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]cashBookView, 0, len(books))
		for _, b := range books {
			views = append(views, toCashBookView(b))
		}
		writeJSON(w, http.StatusOK, views)
	case http.MethodPost, http.MethodPut:
		s.saveCashBook(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PUT")
	}
}

func (s *Server) saveCashBook(w http.ResponseWriter, r *http.Request) {
	var req cashBookSaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.planner.SaveCashBook(r.Context(), req.toInput())
	if err != nil {
		slog.ErrorContext(r.Context(), "Cash book save failed",
			applog.FieldOperation, applog.OpSave,
			applog.FieldCashBookID, req.ID,
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, toCashBookView(saved))
}

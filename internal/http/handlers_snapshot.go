package http

import (
	"log/slog"
	"net/http"

	"bilancio/internal/core"
	applog "bilancio/internal/log"
)

// handleSnapshot serves /snapshot: GET exports a consistent dump of the whole
// ledger, POST replaces the ledger with the posted dump.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snap, err := s.store.ExportSnapshot(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Snapshot export failed",
				applog.FieldOperation, applog.OpSnapshot,
				applog.FieldError, err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	case http.MethodPost:
		var snap core.Snapshot
		if err := decodeBody(r, &snap); err != nil {
			writeError(w, err)
			return
		}
		if err := s.store.ImportSnapshot(r.Context(), snap); err != nil {
			slog.ErrorContext(r.Context(), "Snapshot import failed",
				applog.FieldOperation, applog.OpSnapshot,
				applog.FieldError, err)
			writeError(w, err)
			return
		}
		s.invalidateReadCaches()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

package http

import (
	"log/slog"
	"net/http"
	"strings"

	applog "bilancio/internal/log"
)

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		groups, err := s.store.ListGroups(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]groupView, 0, len(groups))
		for _, g := range groups {
			views = append(views, toGroupView(g))
		}
		writeJSON(w, http.StatusOK, views)
	case http.MethodPost, http.MethodPut:
		s.saveGroup(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PUT")
	}
}

func (s *Server) saveGroup(w http.ResponseWriter, r *http.Request) {
	var req groupSaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.planner.SaveExpenseGroup(r.Context(), req.toInput())
	if err != nil {
		slog.ErrorContext(r.Context(), "Group save failed",
			applog.FieldOperation, applog.OpSave,
			applog.FieldGroupID, req.ID,
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, toGroupView(saved))
}

// handleGroupByID serves /groups/{id}.
func (s *Server) handleGroupByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/groups/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		group, err := s.store.GetGroup(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toGroupView(group))
	case http.MethodDelete:
		if err := s.planner.DeleteExpenseGroup(r.Context(), id); err != nil {
			slog.ErrorContext(r.Context(), "Group delete failed",
				applog.FieldOperation, applog.OpDelete,
				applog.FieldGroupID, id,
				applog.FieldError, err)
			writeError(w, err)
			return
		}
		s.invalidateReadCaches()
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w, "GET, DELETE")
	}
}

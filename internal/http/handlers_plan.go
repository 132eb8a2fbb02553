package http

import (
	"log/slog"
	"net/http"

	applog "bilancio/internal/log"
)

func (s *Server) handlePlans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		plans, err := s.aggregator.GetPlanHistory(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		views := make([]planView, 0, len(plans))
		for _, p := range plans {
			views = append(views, toPlanView(p))
		}
		writeJSON(w, http.StatusOK, views)
	case http.MethodPost, http.MethodPut:
		s.savePlan(w, r)
	default:
		methodNotAllowed(w, "GET, POST, PUT")
	}
}

func (s *Server) savePlan(w http.ResponseWriter, r *http.Request) {
	var req planSaveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	saved, err := s.planner.SaveMonthlyPlan(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "Plan save failed",
			applog.FieldOperation, applog.OpSave,
			applog.FieldPlanMonth, input.Month.String(),
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, toPlanView(saved))
}

func (s *Server) handleCurrentPlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	plan, err := s.aggregator.GetCurrentPlan(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanView(plan))
}

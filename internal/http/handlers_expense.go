package http

import (
	"log/slog"
	"net/http"
	"strings"

	applog "bilancio/internal/log"
)

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	filter, err := parseExpenseFilter(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	expenses, err := s.aggregator.GetExpenses(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense list failed",
			applog.FieldOperation, applog.OpList,
			applog.FieldError, err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseViews(expenses))
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.reconciler.CreateExpense(r.Context(), input)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense create failed",
			applog.FieldOperation, applog.OpCreate,
			applog.FieldLabel, input.Label,
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusCreated, toExpenseView(created))
}

// handleExpenseByID serves /expenses/{id}.
func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/expenses/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		expense, err := s.store.GetExpense(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toExpenseView(expense))
	case http.MethodPut, http.MethodPatch:
		s.updateExpense(w, r, id)
	case http.MethodDelete:
		s.deleteExpense(w, r, id)
	default:
		methodNotAllowed(w, "GET, PUT, PATCH, DELETE")
	}
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, id string) {
	var req expensePatchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	patch, err := req.toPatch()
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := s.reconciler.UpdateExpense(r.Context(), id, patch)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense update failed",
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldExpenseID, id,
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	s.invalidateReadCaches()
	writeJSON(w, http.StatusOK, toExpenseView(updated))
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.reconciler.DeleteExpense(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Expense delete failed",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldExpenseID, id,
			applog.FieldError, err)
		writeError(w, err)
		return
	}

	s.invalidateReadCaches()
	w.WriteHeader(http.StatusNoContent)
}

// Package http exposes the ledger over a JSON API. Handlers are thin: they
// parse, call the write or read services, and map the error taxonomy onto
// status codes. No reconciliation logic lives here.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bilancio/internal/core"
)

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// errBadRequest marks unreadable or malformed request bodies.
var errBadRequest = errors.New("malformed request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP statuses: validation failures are
// 422, unknown ids 404, reconciliation conflicts 409, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case isValidationError(err):
		status = http.StatusUnprocessableEntity
	case isNotFoundError(err):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrPlanLocked), errors.Is(err, core.ErrGroupInUse):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidDate,
		core.ErrInvalidAmount,
		core.ErrInvalidMonthKey,
		core.ErrEmptyLabel,
		core.ErrEmptyName,
		core.ErrMissingGroup,
		core.ErrMissingCashBook,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func isNotFoundError(err error) bool {
	for _, target := range []error{
		core.ErrExpenseNotFound,
		core.ErrPlanNotFound,
		core.ErrCashBookNotFound,
		core.ErrGroupNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

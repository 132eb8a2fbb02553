package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bilancio/internal/core"
)

func TestWriteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"malformed body", fmt.Errorf("%w: parse body: unexpected EOF", errBadRequest), http.StatusBadRequest},
		{"invalid amount", core.ErrInvalidAmount, http.StatusUnprocessableEntity},
		{"invalid date", fmt.Errorf("expense: %w", core.ErrInvalidDate), http.StatusUnprocessableEntity},
		{"empty label", core.ErrEmptyLabel, http.StatusUnprocessableEntity},
		{"missing group", core.ErrMissingGroup, http.StatusUnprocessableEntity},
		{"expense not found", core.ErrExpenseNotFound, http.StatusNotFound},
		{"plan not found", fmt.Errorf("current: %w", core.ErrPlanNotFound), http.StatusNotFound},
		{"cash book not found", core.ErrCashBookNotFound, http.StatusNotFound},
		{"conflict", core.ErrConflict, http.StatusConflict},
		{"locked plan", core.ErrPlanLocked, http.StatusConflict},
		{"group in use", core.ErrGroupInUse, http.StatusConflict},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rr.Code)
			}
			var body errorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if body.Error == "" {
				t.Fatal("error message must not be empty")
			}
		})
	}
}

func TestWriteJSONSetsContentType(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]string{"ok": "yes"})
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestWriteJSONNilBody(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusNoContent, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
}

func TestMethodNotAllowedHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	methodNotAllowed(rr, "GET, POST")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
	if allow := rr.Header().Get("Allow"); allow != "GET, POST" {
		t.Fatalf("unexpected Allow header %q", allow)
	}
}

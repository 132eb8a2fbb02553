package http

import (
	"errors"
	"net/url"
	"testing"

	"bilancio/internal/core"
)

func TestExpenseCreateRequestToInput(t *testing.T) {
	req := expenseCreateRequest{
		Label:      "  groceries  ",
		Amount:     "25,50",
		EntryType:  "expense",
		GroupID:    "g1",
		CashBookID: "b1",
		Date:       "2025-02-10",
		Tags:       []string{"food"},
		PlanMonth:  "2025-01",
	}
	input, err := req.toInput()
	if err != nil {
		t.Fatalf("toInput failed: %v", err)
	}
	if input.Label != "groceries" {
		t.Fatalf("label expected trimmed, got %q", input.Label)
	}
	if input.AmountCents != 2550 {
		t.Fatalf("amount expected 2550, got %d", input.AmountCents)
	}
	if input.Date.String() != "2025-02-10" {
		t.Fatalf("unexpected date %s", input.Date)
	}
	if input.PlanMonth != "2025-01" {
		t.Fatalf("unexpected plan month %s", input.PlanMonth)
	}
}

func TestExpenseCreateRequestToInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*expenseCreateRequest)
		wantErr error
	}{
		{"non numeric amount", func(r *expenseCreateRequest) { r.Amount = "abc" }, core.ErrInvalidAmount},
		{"zero amount", func(r *expenseCreateRequest) { r.Amount = "0" }, core.ErrInvalidAmount},
		{"negative amount", func(r *expenseCreateRequest) { r.Amount = "-5" }, core.ErrInvalidAmount},
		{"wrong date layout", func(r *expenseCreateRequest) { r.Date = "10/02/2025" }, core.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := expenseCreateRequest{
				Label: "x", Amount: "1.00", GroupID: "g1", CashBookID: "b1", Date: "2025-02-10",
			}
			tt.mutate(&req)
			if _, err := req.toInput(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExpensePatchRequestToPatch(t *testing.T) {
	label := "  fixed  "
	amount := "12.34"
	date := "2025-03-01"
	month := "2025-03"
	req := expensePatchRequest{
		Label:     &label,
		Amount:    &amount,
		Date:      &date,
		PlanMonth: &month,
	}
	patch, err := req.toPatch()
	if err != nil {
		t.Fatalf("toPatch failed: %v", err)
	}
	if patch.Label == nil || *patch.Label != "fixed" {
		t.Fatalf("label expected trimmed pointer, got %v", patch.Label)
	}
	if patch.AmountCents == nil || *patch.AmountCents != 1234 {
		t.Fatalf("amount expected 1234, got %v", patch.AmountCents)
	}
	if patch.GroupID != nil || patch.CashBookID != nil || patch.Note != nil {
		t.Fatal("untouched fields must stay nil")
	}
	if patch.PlanMonth == nil || *patch.PlanMonth != "2025-03" {
		t.Fatalf("unexpected plan month %v", patch.PlanMonth)
	}
}

func TestExpensePatchRequestRejectsBadValues(t *testing.T) {
	bad := "nope"
	if _, err := (expensePatchRequest{Amount: &bad}).toPatch(); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected invalid amount, got %v", err)
	}
	if _, err := (expensePatchRequest{Date: &bad}).toPatch(); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

func TestPlanSaveRequestToInput(t *testing.T) {
	start := "2025-01-27"
	end := "2025-02-26"
	req := planSaveRequest{
		Month:      "2025-02",
		CycleStart: &start,
		CycleEnd:   &end,
		Budgets: []budgetSaveRequest{
			{GroupID: "g1", PlannedCents: 10000},
		},
	}
	input, err := req.toInput()
	if err != nil {
		t.Fatalf("toInput failed: %v", err)
	}
	if input.Month != "2025-02" {
		t.Fatalf("unexpected month %s", input.Month)
	}
	if input.CycleStart == nil || input.CycleStart.String() != "2025-01-27" {
		t.Fatalf("unexpected cycle start %v", input.CycleStart)
	}
	if len(input.Budgets) != 1 || input.Budgets[0].PlannedCents != 10000 {
		t.Fatalf("unexpected budgets %+v", input.Budgets)
	}

	req.Month = "february"
	if _, err := req.toInput(); !errors.Is(err, core.ErrInvalidMonthKey) {
		t.Fatalf("expected invalid month key, got %v", err)
	}
}

func TestParseExpenseFilter(t *testing.T) {
	query := url.Values{}
	query.Set("from", "2025-02-01")
	query.Set("to", "2025-02-28")
	query.Set("groupId", "g1")
	query.Set("q", " coffee ")
	filter, err := parseExpenseFilter(query)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if filter.From == nil || filter.From.String() != "2025-02-01" {
		t.Fatalf("unexpected from %v", filter.From)
	}
	if filter.To == nil || filter.To.String() != "2025-02-28" {
		t.Fatalf("unexpected to %v", filter.To)
	}
	if filter.GroupID != "g1" || filter.Search != "coffee" {
		t.Fatalf("unexpected filter %+v", filter)
	}

	bad := url.Values{}
	bad.Set("from", "yesterday")
	if _, err := parseExpenseFilter(bad); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/ledger/memory"
)

func newTestAggregator(t *testing.T, store *memory.Store) *Aggregator {
	t.Helper()
	agg := NewAggregator(store)
	agg.now = func() time.Time {
		return time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	}
	return agg
}

func TestGetCurrentPlan(t *testing.T) {
	store := seedStore(t)
	agg := newTestAggregator(t, store)

	plan, err := agg.GetCurrentPlan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Month != "2025-02" {
		t.Fatalf("expected 2025-02, got %s", plan.Month)
	}

	empty := memory.NewStore()
	aggEmpty := newTestAggregator(t, empty)
	if _, err := aggEmpty.GetCurrentPlan(context.Background()); !errors.Is(err, core.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestGetPlanHistorySortedDescending(t *testing.T) {
	store := seedStore(t)
	agg := newTestAggregator(t, store)

	plans, err := agg.GetPlanHistory(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 2 || plans[0].Month != "2025-02" || plans[1].Month != "2025-01" {
		t.Fatalf("expected [2025-02, 2025-01], got %+v", plans)
	}
}

func TestGetSummary(t *testing.T) {
	store := seedStore(t)
	agg := newTestAggregator(t, store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	inputs := []CreateExpenseInput{
		{Label: "groceries", AmountCents: 4000, GroupID: "g1", CashBookID: "b1", Date: core.NewDate(2025, 2, 3)},
		{Label: "metro", AmountCents: 1500, GroupID: "g2", CashBookID: "b2", Date: core.NewDate(2025, 2, 5)},
		{Label: "salary", AmountCents: 100000, Type: core.EntryIncome, GroupID: "g3", CashBookID: "b1", Date: core.NewDate(2025, 2, 1)},
	}
	for _, in := range inputs {
		if _, err := rec.CreateExpense(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.Label, err)
		}
	}

	summary, err := agg.GetSummary(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.PlanMonth != "2025-02" {
		t.Fatalf("plan month expected 2025-02, got %s", summary.PlanMonth)
	}
	if summary.PlannedCents != 15000 {
		t.Fatalf("planned expected 15000, got %d", summary.PlannedCents)
	}
	if summary.ActualCents != 5500 {
		t.Fatalf("actual expected 5500, got %d", summary.ActualCents)
	}
	// Income entries never count as spend.
	if summary.TotalSpentCents != 5500 {
		t.Fatalf("total spent expected 5500, got %d", summary.TotalSpentCents)
	}
	wantCash := int64(100000+5000) - 4000 - 1500 + 100000
	if summary.CashOnHandCents != wantCash {
		t.Fatalf("cash on hand expected %d, got %d", wantCash, summary.CashOnHandCents)
	}
	if len(summary.QuickLinks) == 0 {
		t.Fatal("expected quick links")
	}

	if len(summary.TopGroups) != 2 {
		t.Fatalf("expected 2 top groups, got %d", len(summary.TopGroups))
	}
	if summary.TopGroups[0].GroupID != "g1" || summary.TopGroups[0].ActualCents != 4000 {
		t.Fatalf("top group expected g1/4000, got %+v", summary.TopGroups[0])
	}
	if summary.TopGroups[0].Name != "Groceries" {
		t.Fatalf("group name not enriched: %+v", summary.TopGroups[0])
	}
}

func TestTopGroupsTiesKeepOrderAndSkipZero(t *testing.T) {
	store := memory.NewStore()
	agg := newTestAggregator(t, store)

	budgets := []core.Budget{
		{GroupID: "a", ActualCents: 100},
		{GroupID: "b", ActualCents: 300},
		{GroupID: "c", ActualCents: 300},
		{GroupID: "d", ActualCents: 0},
		{GroupID: "e", ActualCents: 200},
	}
	got, err := agg.topGroups(context.Background(), budgets, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(got))
	}
	// Stable sort: b before c on a tie, zero actuals excluded.
	if got[0].GroupID != "b" || got[1].GroupID != "c" || got[2].GroupID != "e" {
		t.Fatalf("expected [b c e], got %+v", got)
	}
}

func TestGetPlannedVsActual(t *testing.T) {
	store := seedStore(t)
	agg := newTestAggregator(t, store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	if _, err := rec.CreateExpense(ctx, CreateExpenseInput{
		Label:       "groceries",
		AmountCents: 2550,
		GroupID:     "g1",
		CashBookID:  "b1",
		Date:        core.NewDate(2025, 2, 3),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := agg.GetPlannedVsActual(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].GroupID != "g1" || rows[0].GroupName != "Groceries" ||
		rows[0].PlannedCents != 10000 || rows[0].ActualCents != 2550 {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
}

func TestGetExpensesFilter(t *testing.T) {
	store := seedStore(t)
	agg := newTestAggregator(t, store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	for _, in := range []CreateExpenseInput{
		{Label: "market run", AmountCents: 1000, GroupID: "g1", CashBookID: "b1", Date: core.NewDate(2025, 2, 3)},
		{Label: "fuel", AmountCents: 2000, GroupID: "g2", CashBookID: "b1", Date: core.NewDate(2025, 2, 20)},
	} {
		if _, err := rec.CreateExpense(ctx, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	to := core.NewDate(2025, 2, 10)
	got, err := agg.GetExpenses(ctx, ledger.ExpenseFilter{To: &to})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Label != "market run" {
		t.Fatalf("expected only market run, got %+v", got)
	}
}

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger/memory"
)

func TestSaveMonthlyPlanPreservesActuals(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	if _, err := rec.CreateExpense(ctx, CreateExpenseInput{
		Label:       "groceries",
		AmountCents: 2550,
		GroupID:     "g1",
		CashBookID:  "b1",
		Date:        core.NewDate(2025, 2, 10),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Re-save the plan with a new planned target; the reconciled actual
	// must survive the save.
	saved, err := planner.SaveMonthlyPlan(ctx, PlanInput{
		Month: "2025-02",
		Budgets: []BudgetInput{
			{GroupID: "g1", PlannedCents: 20000},
			{GroupID: "g2", PlannedCents: 5000},
		},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	row := saved.BudgetFor("g1")
	if row == nil || row.PlannedCents != 20000 || row.ActualCents != 2550 {
		t.Fatalf("expected planned=20000 actual=2550, got %+v", row)
	}
}

func TestSaveMonthlyPlanKeepsDroppedRowsWithActuals(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	if _, err := rec.CreateExpense(ctx, CreateExpenseInput{
		Label:       "bus",
		AmountCents: 180,
		GroupID:     "g2",
		CashBookID:  "b2",
		Date:        core.NewDate(2025, 2, 4),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// g2 is dropped from the payload but carries an actual: it stays, with
	// planned reset to zero. g1 has no actual and is dropped for real.
	saved, err := planner.SaveMonthlyPlan(ctx, PlanInput{
		Month:   "2025-02",
		Budgets: []BudgetInput{},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if row := saved.BudgetFor("g2"); row == nil || row.PlannedCents != 0 || row.ActualCents != 180 {
		t.Fatalf("expected kept row planned=0 actual=180, got %+v", row)
	}
	if saved.BudgetFor("g1") != nil {
		t.Fatal("row without actual must be dropped")
	}
}

func TestSaveMonthlyPlanLocked(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)
	ctx := context.Background()

	if _, err := planner.SaveMonthlyPlan(ctx, PlanInput{Month: "2025-02", Locked: true}); err != nil {
		t.Fatalf("lock: %v", err)
	}

	// A save keeping the lock is rejected.
	_, err := planner.SaveMonthlyPlan(ctx, PlanInput{Month: "2025-02", Locked: true})
	if !errors.Is(err, core.ErrPlanLocked) {
		t.Fatalf("expected ErrPlanLocked, got %v", err)
	}

	// Unlocking in the same save is allowed.
	saved, err := planner.SaveMonthlyPlan(ctx, PlanInput{Month: "2025-02", Locked: false})
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if saved.Locked {
		t.Fatal("plan must be unlocked")
	}
}

func TestSaveMonthlyPlanCreatesNew(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)
	ctx := context.Background()

	cs := core.NewDate(2025, 2, 27)
	ce := core.NewDate(2025, 3, 26)
	saved, err := planner.SaveMonthlyPlan(ctx, PlanInput{
		Month:      "2025-03",
		CycleStart: &cs,
		CycleEnd:   &ce,
		Budgets:    []BudgetInput{{GroupID: "g1", PlannedCents: 12000}},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("new plan must get an id")
	}

	loaded, err := store.GetPlanByMonth(ctx, "2025-03")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.CycleStart == nil || loaded.CycleStart.String() != "2025-02-27" {
		t.Fatalf("cycle start not persisted: %+v", loaded.CycleStart)
	}
}

func TestSaveCashBookOpeningValue(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	if _, err := rec.CreateExpense(ctx, CreateExpenseInput{
		Label:       "fuel",
		AmountCents: 6000,
		GroupID:     "g2",
		CashBookID:  "b1",
		Date:        core.NewDate(2025, 2, 6),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Metadata-only save never touches the balance.
	saved, err := planner.SaveCashBook(ctx, CashBookInput{
		ID:   "b1",
		Name: "Main checking",
		Type: core.AccountBank,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.BalanceCents != 100000-6000 {
		t.Fatalf("balance expected untouched %d, got %d", 100000-6000, saved.BalanceCents)
	}

	// An explicit opening value replaces the balance outright.
	opening := int64(50000)
	saved, err = planner.SaveCashBook(ctx, CashBookInput{
		ID:           "b1",
		Name:         "Main checking",
		Type:         core.AccountBank,
		OpeningCents: &opening,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.BalanceCents != 50000 {
		t.Fatalf("balance expected reset to 50000, got %d", saved.BalanceCents)
	}
}

func TestSaveCashBookValidation(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)

	_, err := planner.SaveCashBook(context.Background(), CashBookInput{Name: "  ", Type: core.AccountBank})
	if !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	_, err = planner.SaveCashBook(context.Background(), CashBookInput{ID: "nope", Name: "X", Type: core.AccountBank})
	if !errors.Is(err, core.ErrCashBookNotFound) {
		t.Fatalf("expected ErrCashBookNotFound, got %v", err)
	}
}

func TestDeleteExpenseGroup(t *testing.T) {
	store := seedStore(t)
	planner := NewPlanner(store)
	rec := newReconcilerOver(t, store)
	ctx := context.Background()

	if _, err := rec.CreateExpense(ctx, CreateExpenseInput{
		Label:       "snack",
		AmountCents: 250,
		GroupID:     "g1",
		CashBookID:  "b2",
		Date:        core.NewDate(2025, 2, 9),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := planner.DeleteExpenseGroup(ctx, "g1"); !errors.Is(err, core.ErrGroupInUse) {
		t.Fatalf("expected ErrGroupInUse, got %v", err)
	}
	if err := planner.DeleteExpenseGroup(ctx, "g3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.GetGroup(ctx, "g3"); !errors.Is(err, core.ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound after delete, got %v", err)
	}
}

func newReconcilerOver(t *testing.T, store *memory.Store) *Reconciler {
	t.Helper()
	rec := NewReconciler(store, nil)
	rec.now = func() time.Time {
		return time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	}
	return rec
}

package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Aggregator is the read path: dashboard summaries and report rows computed
// from reconciled state. It holds no mutation logic and never writes to the
// store.
type Aggregator struct {
	store ledger.Reader
	now   func() time.Time
}

func NewAggregator(store ledger.Reader) *Aggregator {
	return &Aggregator{store: store, now: time.Now}
}

// quickLinks is static dashboard navigation metadata.
var quickLinks = []core.QuickLink{
	{Label: "Add expense", Path: "/expenses"},
	{Label: "Monthly plan", Path: "/plans/current"},
	{Label: "Cash books", Path: "/cashbooks"},
	{Label: "Planned vs actual", Path: "/reports/planned-vs-actual"},
}

// GetExpenses lists expenses matching the filter.
func (a *Aggregator) GetExpenses(ctx context.Context, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	return a.store.ListExpenses(ctx, filter)
}

// GetCurrentPlan returns the plan dashboards treat as current, or
// core.ErrPlanNotFound when no plans exist.
func (a *Aggregator) GetCurrentPlan(ctx context.Context) (core.MonthlyPlan, error) {
	plans, err := a.store.ListPlans(ctx)
	if err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("list plans: %w", err)
	}
	current := CurrentPlan(plans, core.DateOf(a.now()))
	if current == nil {
		return core.MonthlyPlan{}, core.ErrPlanNotFound
	}
	return *current, nil
}

// GetPlanHistory returns all plans sorted by month, most recent first. The
// display order is independent of the resolver's storage-order scan.
func (a *Aggregator) GetPlanHistory(ctx context.Context) ([]core.MonthlyPlan, error) {
	plans, err := a.store.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].Month > plans[j].Month
	})
	return plans, nil
}

// GetSummary builds the dashboard aggregate for the current plan: planned
// and actual totals, total spent across the ledger, cash on hand, and the
// top three groups by actual spend (ties keep input order).
func (a *Aggregator) GetSummary(ctx context.Context) (core.Summary, error) {
	summary := core.Summary{QuickLinks: quickLinks}

	plans, err := a.store.ListPlans(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list plans: %w", err)
	}
	if current := CurrentPlan(plans, core.DateOf(a.now())); current != nil {
		summary.PlanMonth = current.Month
		for _, b := range current.Budgets {
			summary.PlannedCents += b.PlannedCents
			summary.ActualCents += b.ActualCents
		}
		summary.TopGroups, err = a.topGroups(ctx, current.Budgets, 3)
		if err != nil {
			return core.Summary{}, err
		}
	}

	expenses, err := a.store.ListExpenses(ctx, ledger.ExpenseFilter{})
	if err != nil {
		return core.Summary{}, fmt.Errorf("list expenses: %w", err)
	}
	for _, e := range expenses {
		if e.Type == core.EntryExpense {
			summary.TotalSpentCents += e.AmountCents
		}
	}

	books, err := a.store.ListCashBooks(ctx)
	if err != nil {
		return core.Summary{}, fmt.Errorf("list cash books: %w", err)
	}
	for _, b := range books {
		summary.CashOnHandCents += b.BalanceCents
	}

	return summary, nil
}

func (a *Aggregator) topGroups(ctx context.Context, budgets []core.Budget, n int) ([]core.GroupSpend, error) {
	ranked := append([]core.Budget(nil), budgets...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ActualCents > ranked[j].ActualCents
	})

	var out []core.GroupSpend
	for _, b := range ranked {
		if len(out) == n || b.ActualCents <= 0 {
			break
		}
		spend := core.GroupSpend{GroupID: b.GroupID, ActualCents: b.ActualCents}
		if group, err := a.store.GetGroup(ctx, b.GroupID); err == nil {
			spend.Name = group.Name
		}
		out = append(out, spend)
	}
	return out, nil
}

// GetPlannedVsActual returns one row per budget entry in the current plan.
func (a *Aggregator) GetPlannedVsActual(ctx context.Context) ([]core.PlannedVsActualRow, error) {
	current, err := a.GetCurrentPlan(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]core.PlannedVsActualRow, 0, len(current.Budgets))
	for _, b := range current.Budgets {
		row := core.PlannedVsActualRow{
			GroupID:      b.GroupID,
			PlannedCents: b.PlannedCents,
			ActualCents:  b.ActualCents,
		}
		if group, err := a.store.GetGroup(ctx, b.GroupID); err == nil {
			row.GroupName = group.Name
		}
		rows = append(rows, row)
	}
	return rows, nil
}

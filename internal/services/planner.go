package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// Planner handles the user-edited side of the ledger: plan metadata and
// planned targets, cash-book metadata and opening values, expense groups.
// It never touches a derived actual; those belong to the Reconciler.
type Planner struct {
	store ledger.Store
	newID func() string
}

func NewPlanner(store ledger.Store) *Planner {
	return &Planner{store: store, newID: uuid.NewString}
}

// BudgetInput is one planned target in a plan save.
type BudgetInput struct {
	GroupID      string
	PlannedCents int64
}

// PlanInput upserts a monthly plan keyed by its month.
type PlanInput struct {
	Month              core.MonthKey
	CycleStart         *core.Date
	CycleEnd           *core.Date
	Locked             bool
	Currency           string
	SavingsTargetCents int64
	Budgets            []BudgetInput
}

// SaveMonthlyPlan upserts plan metadata and planned values. Existing actuals
// are preserved for groups that already have budget rows: a plan save can
// never overwrite reconciliation-owned state. Editing a locked plan requires
// unlocking it in the same save.
func (p *Planner) SaveMonthlyPlan(ctx context.Context, input PlanInput) (core.MonthlyPlan, error) {
	var saved core.MonthlyPlan
	err := p.store.Update(ctx, func(tx ledger.Tx) error {
		existing, err := tx.GetPlanByMonth(ctx, input.Month)
		switch {
		case err == nil:
			if existing.Locked && input.Locked {
				return core.ErrPlanLocked
			}
		case errors.Is(err, core.ErrPlanNotFound):
			existing = core.MonthlyPlan{ID: p.newID(), Month: input.Month}
		default:
			return fmt.Errorf("load plan %s: %w", input.Month, err)
		}

		next := core.MonthlyPlan{
			ID:                 existing.ID,
			Month:              input.Month,
			CycleStart:         input.CycleStart,
			CycleEnd:           input.CycleEnd,
			Locked:             input.Locked,
			Currency:           input.Currency,
			SavingsTargetCents: input.SavingsTargetCents,
		}
		for _, b := range input.Budgets {
			row := core.Budget{GroupID: b.GroupID, PlannedCents: b.PlannedCents}
			if prev := existing.BudgetFor(b.GroupID); prev != nil {
				row.ActualCents = prev.ActualCents
			}
			next.Budgets = append(next.Budgets, row)
		}
		// Rows dropped from the payload but carrying a reconciled actual
		// are kept, or the actual would be silently lost.
		for _, prev := range existing.Budgets {
			if next.BudgetFor(prev.GroupID) == nil && prev.ActualCents > 0 {
				next.Budgets = append(next.Budgets, core.Budget{
					GroupID:     prev.GroupID,
					ActualCents: prev.ActualCents,
				})
			}
		}
		if err := next.Validate(); err != nil {
			return err
		}

		saved = next
		return tx.PutPlan(ctx, next)
	})
	if err != nil {
		return core.MonthlyPlan{}, err
	}

	slog.InfoContext(ctx, "Monthly plan saved",
		applog.FieldOperation, applog.OpSave,
		applog.FieldPlanMonth, saved.Month.String())
	return saved, nil
}

// CashBookInput upserts a cash book. A non-nil OpeningCents replaces the
// stored balance as a fresh opening value; it is never applied as a delta
// and never recorded as a transaction.
type CashBookInput struct {
	ID           string
	Name         string
	Type         core.AccountType
	MaskedNumber string
	Currency     string
	Notes        string
	OpeningCents *int64
}

// SaveCashBook upserts cash-book metadata.
func (p *Planner) SaveCashBook(ctx context.Context, input CashBookInput) (core.CashBook, error) {
	var saved core.CashBook
	err := p.store.Update(ctx, func(tx ledger.Tx) error {
		var book core.CashBook
		if input.ID != "" {
			existing, err := tx.GetCashBook(ctx, input.ID)
			if err != nil {
				return err
			}
			book = existing
		} else {
			book = core.CashBook{ID: p.newID()}
		}

		book.Name = input.Name
		book.Type = input.Type
		book.MaskedNumber = input.MaskedNumber
		book.Currency = input.Currency
		book.Notes = input.Notes
		if input.OpeningCents != nil {
			book.BalanceCents = *input.OpeningCents
		}
		if err := book.Validate(); err != nil {
			return err
		}

		saved = book
		return tx.PutCashBook(ctx, book)
	})
	if err != nil {
		return core.CashBook{}, err
	}

	slog.InfoContext(ctx, "Cash book saved",
		applog.FieldOperation, applog.OpSave,
		applog.FieldCashBookID, saved.ID)
	return saved, nil
}

// GroupInput upserts an expense group.
type GroupInput struct {
	ID                 string
	Name               string
	Description        string
	Color              string
	DefaultBudgetCents int64
}

// SaveExpenseGroup upserts group display metadata.
func (p *Planner) SaveExpenseGroup(ctx context.Context, input GroupInput) (core.ExpenseGroup, error) {
	group := core.ExpenseGroup{
		ID:                 input.ID,
		Name:               input.Name,
		Description:        input.Description,
		Color:              input.Color,
		DefaultBudgetCents: input.DefaultBudgetCents,
	}
	if group.ID == "" {
		group.ID = p.newID()
	}
	if err := group.Validate(); err != nil {
		return core.ExpenseGroup{}, err
	}

	err := p.store.Update(ctx, func(tx ledger.Tx) error {
		if input.ID != "" {
			if _, err := tx.GetGroup(ctx, input.ID); err != nil {
				return err
			}
		}
		return tx.PutGroup(ctx, group)
	})
	if err != nil {
		return core.ExpenseGroup{}, err
	}
	return group, nil
}

// DeleteExpenseGroup removes a group. Groups still referenced by expenses
// cannot be deleted.
func (p *Planner) DeleteExpenseGroup(ctx context.Context, id string) error {
	return p.store.Update(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetGroup(ctx, id); err != nil {
			return err
		}
		n, err := tx.CountExpensesByGroup(ctx, id)
		if err != nil {
			return fmt.Errorf("count expenses for group %s: %w", id, err)
		}
		if n > 0 {
			return core.ErrGroupInUse
		}
		return tx.DeleteGroup(ctx, id)
	})
}

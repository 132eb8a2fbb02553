package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// EventPublisher receives a notification after every committed
// reconciliation. Publishing is best-effort: a failure is logged and never
// un-commits the operation.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, op string, expenseID string, planMonth core.MonthKey) error
}

// Reconciler is the single writer for cash-book balances, plan actuals and
// expense plan attribution. Every operation runs as one atomic store update:
// either the expense row, the plan-actual delta and the cash-book delta all
// commit, or none do.
type Reconciler struct {
	store  ledger.Store
	events EventPublisher
	now    func() time.Time
	newID  func() string
}

// NewReconciler creates a reconciler over the given store. events may be nil.
func NewReconciler(store ledger.Store, events EventPublisher) *Reconciler {
	return &Reconciler{
		store:  store,
		events: events,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// CreateExpenseInput carries the fields of a new expense. PlanMonth is an
// optional attribution hint; when empty the current plan's month is used as
// the hint for cycle resolution.
type CreateExpenseInput struct {
	Label       string
	AmountCents int64
	Type        core.EntryType
	GroupID     string
	CashBookID  string
	Date        core.Date
	Note        string
	Tags        []string
	PlanMonth   core.MonthKey
}

// CreateExpense validates the input, resolves the owning plan and commits
// the expense together with its plan-actual and cash-book deltas.
func (r *Reconciler) CreateExpense(ctx context.Context, input CreateExpenseInput) (core.Expense, error) {
	entryType := input.Type
	if entryType == "" {
		entryType = core.EntryExpense
	}

	expense := core.Expense{
		ID:          r.newID(),
		Label:       input.Label,
		AmountCents: input.AmountCents,
		Type:        entryType,
		GroupID:     input.GroupID,
		CashBookID:  input.CashBookID,
		Date:        input.Date,
		Note:        input.Note,
		Tags:        append([]string(nil), input.Tags...),
		CreatedAt:   r.now().UTC(),
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	if input.PlanMonth != "" {
		if err := input.PlanMonth.Validate(); err != nil {
			return core.Expense{}, err
		}
	}

	err := r.store.Update(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetGroup(ctx, expense.GroupID); err != nil {
			return err
		}
		if _, err := tx.GetCashBook(ctx, expense.CashBookID); err != nil {
			return err
		}

		plans, err := tx.ListPlans(ctx)
		if err != nil {
			return fmt.Errorf("list plans: %w", err)
		}

		hint := input.PlanMonth
		if hint == "" {
			if current := CurrentPlan(plans, core.DateOf(r.now())); current != nil {
				hint = current.Month
			}
		}
		plan, month := ResolvePlan(plans, expense.Date, hint)
		expense.PlanMonth = month

		if err := tx.PutExpense(ctx, expense); err != nil {
			return fmt.Errorf("put expense: %w", err)
		}
		if plan != nil {
			if err := applyPlanDelta(ctx, tx, plan.Month, expense.GroupID, actualDelta(expense)); err != nil {
				return err
			}
		}
		return adjustCashBook(ctx, tx, expense.CashBookID, expense.SignedCents())
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense reconciled",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldExpenseID, expense.ID,
		applog.FieldAmountCents, expense.AmountCents,
		applog.FieldGroupID, expense.GroupID,
		applog.FieldCashBookID, expense.CashBookID,
		applog.FieldPlanMonth, expense.PlanMonth.String())

	r.publish(ctx, applog.OpCreate, expense.ID, expense.PlanMonth)
	return expense, nil
}

// UpdateExpense merges the patch over the stored expense, re-resolves the
// owning plan, and atomically reverses the previous deltas before applying
// the new ones. When the previous and new (plan, group) pairs coincide the
// reversal-then-reapply nets to the amount difference.
func (r *Reconciler) UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	if patch.PlanMonth != nil && *patch.PlanMonth != "" {
		if err := patch.PlanMonth.Validate(); err != nil {
			return core.Expense{}, err
		}
	}

	var updated core.Expense
	err := r.store.Update(ctx, func(tx ledger.Tx) error {
		prev, err := tx.GetExpense(ctx, id)
		if err != nil {
			return err
		}

		next := patch.ApplyTo(prev)
		if err := next.Validate(); err != nil {
			return err
		}
		if _, err := tx.GetGroup(ctx, next.GroupID); err != nil {
			return err
		}
		if _, err := tx.GetCashBook(ctx, next.CashBookID); err != nil {
			return err
		}

		plans, err := tx.ListPlans(ctx)
		if err != nil {
			return fmt.Errorf("list plans: %w", err)
		}

		hint := patch.HintOrPrevious(prev)
		if hint == "" {
			if current := CurrentPlan(plans, core.DateOf(r.now())); current != nil {
				hint = current.Month
			}
		}
		plan, month := ResolvePlan(plans, next.Date, hint)
		next.PlanMonth = month

		if err := tx.PutExpense(ctx, next); err != nil {
			return fmt.Errorf("put expense: %w", err)
		}

		// Reverse the previous plan-actual delta, then apply the new one.
		// Both halves clamp the actual at zero.
		if prev.PlanMonth != "" {
			if err := applyPlanDelta(ctx, tx, prev.PlanMonth, prev.GroupID, -actualDelta(prev)); err != nil {
				return err
			}
		}
		if plan != nil {
			if err := applyPlanDelta(ctx, tx, plan.Month, next.GroupID, actualDelta(next)); err != nil {
				return err
			}
		}

		// Reverse the previous cash-book delta and apply the new one; a
		// move between books touches both.
		updated = next
		if prev.CashBookID == next.CashBookID {
			return adjustCashBook(ctx, tx, next.CashBookID, next.SignedCents()-prev.SignedCents())
		}
		if err := adjustCashBook(ctx, tx, prev.CashBookID, -prev.SignedCents()); err != nil {
			return err
		}
		return adjustCashBook(ctx, tx, next.CashBookID, next.SignedCents())
	})
	if err != nil {
		return core.Expense{}, err
	}

	slog.InfoContext(ctx, "Expense reconciled",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldExpenseID, id,
		applog.FieldPlanMonth, updated.PlanMonth.String())

	r.publish(ctx, applog.OpUpdate, id, updated.PlanMonth)
	return updated, nil
}

// DeleteExpense reverses the expense's plan-actual and cash-book deltas and
// removes the row, atomically.
func (r *Reconciler) DeleteExpense(ctx context.Context, id string) error {
	var month core.MonthKey
	err := r.store.Update(ctx, func(tx ledger.Tx) error {
		prev, err := tx.GetExpense(ctx, id)
		if err != nil {
			return err
		}
		month = prev.PlanMonth

		if err := tx.DeleteExpense(ctx, id); err != nil {
			return err
		}
		if prev.PlanMonth != "" {
			if err := applyPlanDelta(ctx, tx, prev.PlanMonth, prev.GroupID, -actualDelta(prev)); err != nil {
				return err
			}
		}
		return adjustCashBook(ctx, tx, prev.CashBookID, -prev.SignedCents())
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Expense reconciled",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldExpenseID, id)

	r.publish(ctx, applog.OpDelete, id, month)
	return nil
}

func (r *Reconciler) publish(ctx context.Context, op, expenseID string, month core.MonthKey) {
	if r.events == nil {
		return
	}
	if err := r.events.PublishLedgerEvent(ctx, op, expenseID, month); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			applog.FieldOperation, op,
			applog.FieldExpenseID, expenseID,
			applog.FieldError, err)
	}
}

// actualDelta is the contribution of an entry to its (plan, group) actual:
// outflows add, income entries subtract.
func actualDelta(e core.Expense) int64 {
	return -e.SignedCents()
}

// applyPlanDelta adjusts the actual of the (plan, group) budget row by
// delta, clamping at zero. A positive delta against a plan with no row for
// the group creates one with planned = 0; negative or zero deltas never
// create rows. A month that names no stored plan is a no-op: the attribution
// outlived the plan.
func applyPlanDelta(ctx context.Context, tx ledger.Tx, month core.MonthKey, groupID string, delta int64) error {
	plan, err := tx.GetPlanByMonth(ctx, month)
	if err != nil {
		if errors.Is(err, core.ErrPlanNotFound) {
			return nil
		}
		return fmt.Errorf("load plan %s: %w", month, err)
	}

	if row := plan.BudgetFor(groupID); row != nil {
		row.ActualCents = core.ClampNonNegative(row.ActualCents + delta)
	} else if delta > 0 {
		plan.Budgets = append(plan.Budgets, core.Budget{GroupID: groupID, ActualCents: delta})
	} else {
		return nil
	}

	if err := tx.PutPlan(ctx, plan); err != nil {
		return fmt.Errorf("put plan %s: %w", month, err)
	}
	return nil
}

// adjustCashBook applies a signed balance delta and recomputes the book's
// last activity from its expenses. Must run after the expense row write so
// the recompute sees the final state.
func adjustCashBook(ctx context.Context, tx ledger.Tx, bookID string, delta int64) error {
	book, err := tx.GetCashBook(ctx, bookID)
	if err != nil {
		return err
	}
	book.BalanceCents += delta

	latest, ok, err := tx.LatestExpense(ctx, bookID)
	if err != nil {
		return fmt.Errorf("latest expense for %s: %w", bookID, err)
	}
	if ok {
		book.LastActivity = &core.LastActivity{
			Date:  latest.Date,
			Label: latest.Label,
			Cents: latest.SignedCents(),
		}
	} else {
		book.LastActivity = nil
	}

	if err := tx.PutCashBook(ctx, book); err != nil {
		return fmt.Errorf("put cash book %s: %w", bookID, err)
	}
	return nil
}

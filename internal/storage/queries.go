package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so the same query helpers
// serve plain reads and transactional reads.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const dateLayout = "2006-01-02"

// Expenses.

const expenseColumns = `id, label, amount_cents, entry_type, group_id, cash_book_id, date, note, tags, created_at, plan_month`

func scanExpense(scan func(dest ...any) error) (core.Expense, error) {
	var (
		e         core.Expense
		dateStr   string
		tagsJSON  string
		createdAt string
	)
	err := scan(&e.ID, &e.Label, &e.AmountCents, &e.Type, &e.GroupID, &e.CashBookID,
		&dateStr, &e.Note, &tagsJSON, &createdAt, &e.PlanMonth)
	if err != nil {
		return core.Expense{}, err
	}

	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = d

	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
		return core.Expense{}, fmt.Errorf("parse tags: %w", err)
	}
	return e, nil
}

func getExpense(ctx context.Context, q dbtx, id string) (core.Expense, error) {
	row := q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func listExpenses(ctx context.Context, q dbtx, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1`
	var args []any
	if filter.From != nil {
		query += ` AND date >= ?`
		args = append(args, filter.From.Format(dateLayout))
	}
	if filter.To != nil {
		query += ` AND date <= ?`
		args = append(args, filter.To.Format(dateLayout))
	}
	if filter.GroupID != "" {
		query += ` AND group_id = ?`
		args = append(args, filter.GroupID)
	}
	if filter.CashBookID != "" {
		query += ` AND cash_book_id = ?`
		args = append(args, filter.CashBookID)
	}
	query += ` ORDER BY date ASC, created_at ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		// Substring search over label/note/tags shares the filter
		// predicate with the memory store.
		if filter.Matches(e) {
			out = append(out, e)
		}
	}
	return out, rows.Err()
}

func latestExpense(ctx context.Context, q dbtx, cashBookID string) (core.Expense, bool, error) {
	row := q.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses
		WHERE cash_book_id = ? ORDER BY date DESC, created_at DESC LIMIT 1`, cashBookID)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("latest expense: %w", err)
	}
	return e, true, nil
}

func countExpensesByGroup(ctx context.Context, q dbtx, groupID string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses WHERE group_id = ?`, groupID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses by group: %w", err)
	}
	return n, nil
}

func putExpense(ctx context.Context, q dbtx, e core.Expense) error {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = q.ExecContext(ctx, `INSERT INTO expenses
		(id, label, amount_cents, entry_type, group_id, cash_book_id, date, note, tags, created_at, plan_month)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label = excluded.label,
			amount_cents = excluded.amount_cents,
			entry_type = excluded.entry_type,
			group_id = excluded.group_id,
			cash_book_id = excluded.cash_book_id,
			date = excluded.date,
			note = excluded.note,
			tags = excluded.tags,
			plan_month = excluded.plan_month`,
		e.ID, e.Label, e.AmountCents, string(e.Type), e.GroupID, e.CashBookID,
		e.Date.Format(dateLayout), e.Note, string(tagsJSON),
		e.CreatedAt.UTC().Format(time.RFC3339Nano), string(e.PlanMonth))
	if err != nil {
		return fmt.Errorf("put expense: %w", err)
	}
	return nil
}

func deleteExpense(ctx context.Context, q dbtx, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrExpenseNotFound
	}
	return nil
}

// Cash books.

const cashBookColumns = `id, name, type, masked_number, currency, notes, balance_cents,
	last_activity_date, last_activity_label, last_activity_cents`

func scanCashBook(scan func(dest ...any) error) (core.CashBook, error) {
	var (
		b       core.CashBook
		laDate  sql.NullString
		laLabel sql.NullString
		laCents sql.NullInt64
	)
	err := scan(&b.ID, &b.Name, &b.Type, &b.MaskedNumber, &b.Currency, &b.Notes,
		&b.BalanceCents, &laDate, &laLabel, &laCents)
	if err != nil {
		return core.CashBook{}, err
	}
	if laDate.Valid {
		d, err := core.ParseDate(laDate.String)
		if err != nil {
			return core.CashBook{}, err
		}
		b.LastActivity = &core.LastActivity{
			Date:  d,
			Label: laLabel.String,
			Cents: laCents.Int64,
		}
	}
	return b, nil
}

func getCashBook(ctx context.Context, q dbtx, id string) (core.CashBook, error) {
	row := q.QueryRowContext(ctx, `SELECT `+cashBookColumns+` FROM cash_books WHERE id = ?`, id)
	b, err := scanCashBook(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CashBook{}, core.ErrCashBookNotFound
	}
	if err != nil {
		return core.CashBook{}, fmt.Errorf("get cash book: %w", err)
	}
	return b, nil
}

func listCashBooks(ctx context.Context, q dbtx) ([]core.CashBook, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+cashBookColumns+` FROM cash_books ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list cash books: %w", err)
	}
	defer rows.Close()

	var out []core.CashBook
	for rows.Next() {
		b, err := scanCashBook(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan cash book: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func putCashBook(ctx context.Context, q dbtx, b core.CashBook) error {
	var laDate, laLabel any
	var laCents any
	if b.LastActivity != nil {
		laDate = b.LastActivity.Date.Format(dateLayout)
		laLabel = b.LastActivity.Label
		laCents = b.LastActivity.Cents
	}
	_, err := q.ExecContext(ctx, `INSERT INTO cash_books
		(id, name, type, masked_number, currency, notes, balance_cents,
		 last_activity_date, last_activity_label, last_activity_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			type = excluded.type,
			masked_number = excluded.masked_number,
			currency = excluded.currency,
			notes = excluded.notes,
			balance_cents = excluded.balance_cents,
			last_activity_date = excluded.last_activity_date,
			last_activity_label = excluded.last_activity_label,
			last_activity_cents = excluded.last_activity_cents`,
		b.ID, b.Name, string(b.Type), b.MaskedNumber, b.Currency, b.Notes,
		b.BalanceCents, laDate, laLabel, laCents)
	if err != nil {
		return fmt.Errorf("put cash book: %w", err)
	}
	return nil
}

// Expense groups.

func getGroup(ctx context.Context, q dbtx, id string) (core.ExpenseGroup, error) {
	var g core.ExpenseGroup
	err := q.QueryRowContext(ctx, `SELECT id, name, description, color, default_budget_cents
		FROM expense_groups WHERE id = ?`, id).
		Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.DefaultBudgetCents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseGroup{}, core.ErrGroupNotFound
	}
	if err != nil {
		return core.ExpenseGroup{}, fmt.Errorf("get group: %w", err)
	}
	return g, nil
}

func listGroups(ctx context.Context, q dbtx) ([]core.ExpenseGroup, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, name, description, color, default_budget_cents
		FROM expense_groups ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseGroup
	for rows.Next() {
		var g core.ExpenseGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Color, &g.DefaultBudgetCents); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func putGroup(ctx context.Context, q dbtx, g core.ExpenseGroup) error {
	_, err := q.ExecContext(ctx, `INSERT INTO expense_groups
		(id, name, description, color, default_budget_cents)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			color = excluded.color,
			default_budget_cents = excluded.default_budget_cents`,
		g.ID, g.Name, g.Description, g.Color, g.DefaultBudgetCents)
	if err != nil {
		return fmt.Errorf("put group: %w", err)
	}
	return nil
}

func deleteGroup(ctx context.Context, q dbtx, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM expense_groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrGroupNotFound
	}
	return nil
}

// Monthly plans.

func scanPlan(scan func(dest ...any) error) (core.MonthlyPlan, error) {
	var (
		p          core.MonthlyPlan
		cycleStart sql.NullString
		cycleEnd   sql.NullString
		locked     int64
	)
	err := scan(&p.ID, &p.Month, &cycleStart, &cycleEnd, &locked, &p.Currency, &p.SavingsTargetCents)
	if err != nil {
		return core.MonthlyPlan{}, err
	}
	p.Locked = locked != 0
	if cycleStart.Valid {
		d, err := core.ParseDate(cycleStart.String)
		if err != nil {
			return core.MonthlyPlan{}, err
		}
		p.CycleStart = &d
	}
	if cycleEnd.Valid {
		d, err := core.ParseDate(cycleEnd.String)
		if err != nil {
			return core.MonthlyPlan{}, err
		}
		p.CycleEnd = &d
	}
	return p, nil
}

func loadBudgets(ctx context.Context, q dbtx, planID string) ([]core.Budget, error) {
	rows, err := q.QueryContext(ctx, `SELECT group_id, planned_cents, actual_cents
		FROM plan_budgets WHERE plan_id = ? ORDER BY position`, planID)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.GroupID, &b.PlannedCents, &b.ActualCents); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func getPlanByMonth(ctx context.Context, q dbtx, month core.MonthKey) (core.MonthlyPlan, error) {
	row := q.QueryRowContext(ctx, `SELECT id, month, cycle_start, cycle_end, locked, currency, savings_target_cents
		FROM monthly_plans WHERE month = ?`, string(month))
	p, err := scanPlan(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyPlan{}, core.ErrPlanNotFound
	}
	if err != nil {
		return core.MonthlyPlan{}, fmt.Errorf("get plan: %w", err)
	}
	if p.Budgets, err = loadBudgets(ctx, q, p.ID); err != nil {
		return core.MonthlyPlan{}, err
	}
	return p, nil
}

func listPlans(ctx context.Context, q dbtx) ([]core.MonthlyPlan, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, month, cycle_start, cycle_end, locked, currency, savings_target_cents
		FROM monthly_plans ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyPlan
	for rows.Next() {
		p, err := scanPlan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Budgets, err = loadBudgets(ctx, q, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func putPlan(ctx context.Context, q dbtx, p core.MonthlyPlan) error {
	var cycleStart, cycleEnd any
	if p.CycleStart != nil {
		cycleStart = p.CycleStart.Format(dateLayout)
	}
	if p.CycleEnd != nil {
		cycleEnd = p.CycleEnd.Format(dateLayout)
	}
	locked := 0
	if p.Locked {
		locked = 1
	}

	_, err := q.ExecContext(ctx, `INSERT INTO monthly_plans
		(id, month, cycle_start, cycle_end, locked, currency, savings_target_cents)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			month = excluded.month,
			cycle_start = excluded.cycle_start,
			cycle_end = excluded.cycle_end,
			locked = excluded.locked,
			currency = excluded.currency,
			savings_target_cents = excluded.savings_target_cents`,
		p.ID, string(p.Month), cycleStart, cycleEnd, locked, p.Currency, p.SavingsTargetCents)
	if err != nil {
		return fmt.Errorf("put plan: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM plan_budgets WHERE plan_id = ?`, p.ID); err != nil {
		return fmt.Errorf("clear plan budgets: %w", err)
	}
	for i, b := range p.Budgets {
		_, err := q.ExecContext(ctx, `INSERT INTO plan_budgets
			(plan_id, group_id, planned_cents, actual_cents, position)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, b.GroupID, b.PlannedCents, b.ActualCents, i)
		if err != nil {
			return fmt.Errorf("put plan budget: %w", err)
		}
	}
	return nil
}

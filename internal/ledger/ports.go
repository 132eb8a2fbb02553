// Package ledger defines the ports of the durable ledger store: the read
// side, and a transactional write scope that makes a reconciliation's
// multi-record mutation all-or-nothing. Implementations live in
// internal/storage (SQLite) and internal/ledger/memory.
package ledger

import (
	"context"
	"strings"

	"bilancio/internal/core"
)

// ExpenseFilter narrows ListExpenses. Zero fields match everything.
type ExpenseFilter struct {
	From       *core.Date
	To         *core.Date
	GroupID    string
	CashBookID string
	// Search is a case-insensitive substring match over label, note and tags.
	Search string
}

// Matches reports whether an expense passes the filter. Both store
// implementations share this predicate so filtering semantics never diverge.
func (f ExpenseFilter) Matches(e core.Expense) bool {
	if f.From != nil && e.Date.BeforeDay(*f.From) {
		return false
	}
	if f.To != nil && e.Date.AfterDay(*f.To) {
		return false
	}
	if f.GroupID != "" && e.GroupID != f.GroupID {
		return false
	}
	if f.CashBookID != "" && e.CashBookID != f.CashBookID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.Label), needle) &&
			!strings.Contains(strings.ToLower(e.Note), needle) &&
			!tagsContain(e.Tags, needle) {
			return false
		}
	}
	return true
}

func tagsContain(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

// Reader is the read side of the store. Reads tolerate eventual consistency
// with in-flight writes but never observe a half-committed reconciliation.
type Reader interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]core.Expense, error)

	GetCashBook(ctx context.Context, id string) (core.CashBook, error)
	ListCashBooks(ctx context.Context) ([]core.CashBook, error)

	GetGroup(ctx context.Context, id string) (core.ExpenseGroup, error)
	ListGroups(ctx context.Context) ([]core.ExpenseGroup, error)

	GetPlanByMonth(ctx context.Context, month core.MonthKey) (core.MonthlyPlan, error)
	// ListPlans returns plans in storage order (insertion order).
	ListPlans(ctx context.Context) ([]core.MonthlyPlan, error)
}

// Tx is the mutation scope handed to an Update callback. Reads through a Tx
// observe the transaction's own uncommitted writes.
type Tx interface {
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	GetCashBook(ctx context.Context, id string) (core.CashBook, error)
	GetGroup(ctx context.Context, id string) (core.ExpenseGroup, error)
	GetPlanByMonth(ctx context.Context, month core.MonthKey) (core.MonthlyPlan, error)
	ListPlans(ctx context.Context) ([]core.MonthlyPlan, error)

	// LatestExpense returns the most recent expense of a cash book ordered
	// by (date desc, createdAt desc), or ok=false when the book has none.
	LatestExpense(ctx context.Context, cashBookID string) (e core.Expense, ok bool, err error)

	// CountExpensesByGroup reports how many expenses reference a group.
	CountExpensesByGroup(ctx context.Context, groupID string) (int64, error)

	PutExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	PutCashBook(ctx context.Context, b core.CashBook) error
	PutGroup(ctx context.Context, g core.ExpenseGroup) error
	DeleteGroup(ctx context.Context, id string) error
	PutPlan(ctx context.Context, p core.MonthlyPlan) error
}

// Store is the full ledger port. Update runs fn inside one serializable
// transaction: if fn returns an error, nothing it wrote is kept; concurrent
// Updates serialize so no reconciliation is ever lost or interleaved.
type Store interface {
	Reader

	Update(ctx context.Context, fn func(tx Tx) error) error

	ExportSnapshot(ctx context.Context) (core.Snapshot, error)
	ImportSnapshot(ctx context.Context, snap core.Snapshot) error

	Close() error
}

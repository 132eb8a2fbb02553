// Package memory provides an in-memory ledger store. It is the default
// backend when no SQLite path is configured and the store used by unit
// tests. Update runs against a deep copy of the dataset and swaps it in on
// success, so a failed callback leaves no trace and readers never observe a
// partial reconciliation.
package memory

import (
	"context"
	"sort"
	"sync"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

type dataset struct {
	cashBooks []core.CashBook
	groups    []core.ExpenseGroup
	plans     []core.MonthlyPlan
	expenses  []core.Expense
}

// Store is an in-memory ledger.Store.
type Store struct {
	mu   sync.RWMutex
	data dataset
}

var _ ledger.Store = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

func (d dataset) clone() dataset {
	out := dataset{
		cashBooks: make([]core.CashBook, len(d.cashBooks)),
		groups:    append([]core.ExpenseGroup(nil), d.groups...),
		plans:     make([]core.MonthlyPlan, len(d.plans)),
		expenses:  make([]core.Expense, len(d.expenses)),
	}
	for i, b := range d.cashBooks {
		out.cashBooks[i] = cloneCashBook(b)
	}
	for i, p := range d.plans {
		out.plans[i] = clonePlan(p)
	}
	for i, e := range d.expenses {
		out.expenses[i] = cloneExpense(e)
	}
	return out
}

func cloneCashBook(b core.CashBook) core.CashBook {
	if b.LastActivity != nil {
		la := *b.LastActivity
		b.LastActivity = &la
	}
	return b
}

func clonePlan(p core.MonthlyPlan) core.MonthlyPlan {
	if p.CycleStart != nil {
		d := *p.CycleStart
		p.CycleStart = &d
	}
	if p.CycleEnd != nil {
		d := *p.CycleEnd
		p.CycleEnd = &d
	}
	p.Budgets = append([]core.Budget(nil), p.Budgets...)
	return p
}

func cloneExpense(e core.Expense) core.Expense {
	e.Tags = append([]string(nil), e.Tags...)
	return e
}

// Update runs fn against a deep copy of the dataset under the write lock.
// The copy replaces the live dataset only when fn succeeds.
func (s *Store) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	if err := fn(&memTx{data: &staged}); err != nil {
		return err
	}
	s.data = staged
	return nil
}

func (s *Store) Close() error { return nil }

// Reads.

func (s *Store) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&memTx{data: &s.data}).GetExpense(ctx, id)
}

func (s *Store) ListExpenses(ctx context.Context, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Expense
	for _, e := range s.data.expenses {
		if filter.Matches(e) {
			out = append(out, cloneExpense(e))
		}
	}
	return out, nil
}

func (s *Store) GetCashBook(ctx context.Context, id string) (core.CashBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&memTx{data: &s.data}).GetCashBook(ctx, id)
}

func (s *Store) ListCashBooks(ctx context.Context) ([]core.CashBook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.CashBook, len(s.data.cashBooks))
	for i, b := range s.data.cashBooks {
		out[i] = cloneCashBook(b)
	}
	return out, nil
}

func (s *Store) GetGroup(ctx context.Context, id string) (core.ExpenseGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&memTx{data: &s.data}).GetGroup(ctx, id)
}

func (s *Store) ListGroups(ctx context.Context) ([]core.ExpenseGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.ExpenseGroup(nil), s.data.groups...), nil
}

func (s *Store) GetPlanByMonth(ctx context.Context, month core.MonthKey) (core.MonthlyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return (&memTx{data: &s.data}).GetPlanByMonth(ctx, month)
}

func (s *Store) ListPlans(ctx context.Context) ([]core.MonthlyPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.MonthlyPlan, len(s.data.plans))
	for i, p := range s.data.plans {
		out[i] = clonePlan(p)
	}
	return out, nil
}

func (s *Store) ExportSnapshot(ctx context.Context) (core.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.data.clone()
	return core.Snapshot{
		CashBooks: d.cashBooks,
		Groups:    d.groups,
		Plans:     d.plans,
		Expenses:  d.expenses,
	}, nil
}

func (s *Store) ImportSnapshot(ctx context.Context, snap core.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	incoming := dataset{
		cashBooks: snap.CashBooks,
		groups:    snap.Groups,
		plans:     snap.Plans,
		expenses:  snap.Expenses,
	}
	s.data = incoming.clone()
	return nil
}

// memTx mutates a staged dataset in place. Atomicity comes from the
// copy-and-swap in Update, not from the tx itself.
type memTx struct {
	data *dataset
}

var _ ledger.Tx = (*memTx)(nil)

func (t *memTx) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	for _, e := range t.data.expenses {
		if e.ID == id {
			return cloneExpense(e), nil
		}
	}
	return core.Expense{}, core.ErrExpenseNotFound
}

func (t *memTx) GetCashBook(ctx context.Context, id string) (core.CashBook, error) {
	for _, b := range t.data.cashBooks {
		if b.ID == id {
			return cloneCashBook(b), nil
		}
	}
	return core.CashBook{}, core.ErrCashBookNotFound
}

func (t *memTx) GetGroup(ctx context.Context, id string) (core.ExpenseGroup, error) {
	for _, g := range t.data.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return core.ExpenseGroup{}, core.ErrGroupNotFound
}

func (t *memTx) GetPlanByMonth(ctx context.Context, month core.MonthKey) (core.MonthlyPlan, error) {
	for _, p := range t.data.plans {
		if p.Month == month {
			return clonePlan(p), nil
		}
	}
	return core.MonthlyPlan{}, core.ErrPlanNotFound
}

func (t *memTx) ListPlans(ctx context.Context) ([]core.MonthlyPlan, error) {
	out := make([]core.MonthlyPlan, len(t.data.plans))
	for i, p := range t.data.plans {
		out[i] = clonePlan(p)
	}
	return out, nil
}

func (t *memTx) LatestExpense(ctx context.Context, cashBookID string) (core.Expense, bool, error) {
	var candidates []core.Expense
	for _, e := range t.data.expenses {
		if e.CashBookID == cashBookID {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return core.Expense{}, false, nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].Date.Equal(candidates[j].Date.Time) {
			return candidates[i].Date.AfterDay(candidates[j].Date)
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return cloneExpense(candidates[0]), true, nil
}

func (t *memTx) CountExpensesByGroup(ctx context.Context, groupID string) (int64, error) {
	var n int64
	for _, e := range t.data.expenses {
		if e.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

func (t *memTx) PutExpense(ctx context.Context, e core.Expense) error {
	e = cloneExpense(e)
	for i := range t.data.expenses {
		if t.data.expenses[i].ID == e.ID {
			t.data.expenses[i] = e
			return nil
		}
	}
	t.data.expenses = append(t.data.expenses, e)
	return nil
}

func (t *memTx) DeleteExpense(ctx context.Context, id string) error {
	for i := range t.data.expenses {
		if t.data.expenses[i].ID == id {
			t.data.expenses = append(t.data.expenses[:i], t.data.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrExpenseNotFound
}

func (t *memTx) PutCashBook(ctx context.Context, b core.CashBook) error {
	b = cloneCashBook(b)
	for i := range t.data.cashBooks {
		if t.data.cashBooks[i].ID == b.ID {
			t.data.cashBooks[i] = b
			return nil
		}
	}
	t.data.cashBooks = append(t.data.cashBooks, b)
	return nil
}

func (t *memTx) PutGroup(ctx context.Context, g core.ExpenseGroup) error {
	for i := range t.data.groups {
		if t.data.groups[i].ID == g.ID {
			t.data.groups[i] = g
			return nil
		}
	}
	t.data.groups = append(t.data.groups, g)
	return nil
}

func (t *memTx) DeleteGroup(ctx context.Context, id string) error {
	for i := range t.data.groups {
		if t.data.groups[i].ID == id {
			t.data.groups = append(t.data.groups[:i], t.data.groups[i+1:]...)
			return nil
		}
	}
	return core.ErrGroupNotFound
}

func (t *memTx) PutPlan(ctx context.Context, p core.MonthlyPlan) error {
	p = clonePlan(p)
	for i := range t.data.plans {
		if t.data.plans[i].ID == p.ID || t.data.plans[i].Month == p.Month {
			t.data.plans[i] = p
			return nil
		}
	}
	t.data.plans = append(t.data.plans, p)
	return nil
}

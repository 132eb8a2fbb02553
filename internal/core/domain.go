package core

import (
	"errors"
	"strings"
	"time"
)

const (
	AccountBank    AccountType = "bank"
	AccountCash    AccountType = "cash"
	AccountWallet  AccountType = "wallet"
	AccountDigital AccountType = "digital"
)

const (
	EntryExpense EntryType = "expense"
	EntryIncome  EntryType = "income"
)

type (
	AccountType string
	EntryType   string

	// LastActivity is the most recent expense touching a cash book,
	// recomputed by reconciliation after every write.
	LastActivity struct {
		Date  Date
		Label string
		Cents int64 // signed: negative for outflows
	}

	// CashBook is a tracked account with a running balance. BalanceCents is
	// reconciliation-owned: a direct edit through SaveCashBook is a fresh
	// opening value, never a transaction.
	CashBook struct {
		ID           string
		Name         string
		Type         AccountType
		MaskedNumber string
		Currency     string
		Notes        string
		BalanceCents int64
		LastActivity *LastActivity
	}

	// ExpenseGroup is a spending category. DefaultBudgetCents is
	// informational only and never drives reconciliation.
	ExpenseGroup struct {
		ID                 string
		Name               string
		Description        string
		Color              string
		DefaultBudgetCents int64
	}

	// Budget is one (plan, group) row. PlannedCents is user-set;
	// ActualCents is derived by reconciliation and clamped at zero.
	Budget struct {
		GroupID      string
		PlannedCents int64
		ActualCents  int64
	}

	// MonthlyPlan is a budgeting cycle keyed by month. When CycleStart and
	// CycleEnd are both set they override the calendar month as the cycle
	// window.
	MonthlyPlan struct {
		ID                 string
		Month              MonthKey
		CycleStart         *Date
		CycleEnd           *Date
		Locked             bool
		Currency           string
		SavingsTargetCents int64
		Budgets            []Budget
	}

	// Expense is a ledger entry. PlanMonth is the persisted resolved
	// attribution from its last reconciliation, not recomputed on read.
	Expense struct {
		ID          string
		Label       string
		AmountCents int64
		Type        EntryType
		GroupID     string
		CashBookID  string
		Date        Date
		Note        string
		Tags        []string
		CreatedAt   time.Time
		PlanMonth   MonthKey
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidMonthKey = errors.New("invalid month key")
	ErrEmptyLabel      = errors.New("empty label")
	ErrEmptyName       = errors.New("empty name")
	ErrMissingGroup    = errors.New("missing expense group")
	ErrMissingCashBook = errors.New("missing cash book")

	ErrExpenseNotFound  = errors.New("expense not found")
	ErrPlanNotFound     = errors.New("monthly plan not found")
	ErrCashBookNotFound = errors.New("cash book not found")
	ErrGroupNotFound    = errors.New("expense group not found")

	ErrPlanLocked = errors.New("monthly plan is locked")
	ErrGroupInUse = errors.New("expense group is referenced by expenses")

	// ErrConflict marks a reconciliation aborted by a concurrent
	// conflicting write. The whole operation rolled back; callers may
	// retry it as a unit.
	ErrConflict = errors.New("reconciliation conflict")
)

// Window returns the inclusive cycle window of the plan: the explicit
// start/end pair when both are set, otherwise the calendar month.
func (p MonthlyPlan) Window() (Date, Date) {
	if p.CycleStart != nil && p.CycleEnd != nil {
		return *p.CycleStart, *p.CycleEnd
	}
	return p.Month.First(), p.Month.Last()
}

// Contains reports whether d falls inside the plan's cycle window.
func (p MonthlyPlan) Contains(d Date) bool {
	start, end := p.Window()
	return d.Within(start, end)
}

// BudgetFor returns the budget row for a group, or nil.
func (p *MonthlyPlan) BudgetFor(groupID string) *Budget {
	for i := range p.Budgets {
		if p.Budgets[i].GroupID == groupID {
			return &p.Budgets[i]
		}
	}
	return nil
}

func (b CashBook) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	switch b.Type {
	case AccountBank, AccountCash, AccountWallet, AccountDigital:
	default:
		return errors.New("invalid account type")
	}
	return nil
}

func (g ExpenseGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (p MonthlyPlan) Validate() error {
	if err := p.Month.Validate(); err != nil {
		return err
	}
	if (p.CycleStart == nil) != (p.CycleEnd == nil) {
		return errors.New("cycle start and end must be set together")
	}
	if p.CycleStart != nil && p.CycleEnd.BeforeDay(*p.CycleStart) {
		return errors.New("cycle end before cycle start")
	}
	seen := make(map[string]bool, len(p.Budgets))
	for _, b := range p.Budgets {
		if b.GroupID == "" {
			return ErrMissingGroup
		}
		if seen[b.GroupID] {
			return errors.New("duplicate budget row for group " + b.GroupID)
		}
		seen[b.GroupID] = true
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Label) == "" {
		return ErrEmptyLabel
	}
	if len(e.Label) > 200 {
		return errors.New("label too long (max 200 characters)")
	}
	if e.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	switch e.Type {
	case EntryExpense, EntryIncome:
	default:
		return errors.New("invalid entry type")
	}
	if e.GroupID == "" {
		return ErrMissingGroup
	}
	if e.CashBookID == "" {
		return ErrMissingCashBook
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	return nil
}

// SignedCents returns the balance impact of the expense: negative for
// outflows, positive for income entries.
func (e Expense) SignedCents() int64 {
	if e.Type == EntryIncome {
		return e.AmountCents
	}
	return -e.AmountCents
}

package http

import (
	"time"

	"bilancio/internal/core"
)

// Response DTOs. Monetary values are always integer minor units plus a
// formatted string for display.

type expenseView struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	AmountCents int64    `json:"amountCents"`
	Amount      string   `json:"amount"`
	EntryType   string   `json:"entryType"`
	GroupID     string   `json:"groupId"`
	CashBookID  string   `json:"cashBookId"`
	Date        string   `json:"date"`
	Note        string   `json:"note,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	PlanMonth   string   `json:"planMonth,omitempty"`
}

func toExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:          e.ID,
		Label:       e.Label,
		AmountCents: e.AmountCents,
		Amount:      core.FormatCents(e.AmountCents),
		EntryType:   string(e.Type),
		GroupID:     e.GroupID,
		CashBookID:  e.CashBookID,
		Date:        e.Date.String(),
		Note:        e.Note,
		Tags:        e.Tags,
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		PlanMonth:   e.PlanMonth.String(),
	}
}

func toExpenseViews(expenses []core.Expense) []expenseView {
	views := make([]expenseView, 0, len(expenses))
	for _, e := range expenses {
		views = append(views, toExpenseView(e))
	}
	return views
}

type lastActivityView struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Cents int64  `json:"cents"`
}

type cashBookView struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	MaskedNumber string            `json:"maskedNumber,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	Notes        string            `json:"notes,omitempty"`
	BalanceCents int64             `json:"balanceCents"`
	Balance      string            `json:"balance"`
	LastActivity *lastActivityView `json:"lastActivity,omitempty"`
}

func toCashBookView(b core.CashBook) cashBookView {
	view := cashBookView{
		ID:           b.ID,
		Name:         b.Name,
		Type:         string(b.Type),
		MaskedNumber: b.MaskedNumber,
		Currency:     b.Currency,
		Notes:        b.Notes,
		BalanceCents: b.BalanceCents,
		Balance:      core.FormatCents(b.BalanceCents),
	}
	if b.LastActivity != nil {
		view.LastActivity = &lastActivityView{
			Date:  b.LastActivity.Date.String(),
			Label: b.LastActivity.Label,
			Cents: b.LastActivity.Cents,
		}
	}
	return view
}

type groupView struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Color              string `json:"color,omitempty"`
	DefaultBudgetCents int64  `json:"defaultBudgetCents,omitempty"`
}

func toGroupView(g core.ExpenseGroup) groupView {
	return groupView{
		ID:                 g.ID,
		Name:               g.Name,
		Description:        g.Description,
		Color:              g.Color,
		DefaultBudgetCents: g.DefaultBudgetCents,
	}
}

type budgetView struct {
	GroupID      string `json:"groupId"`
	PlannedCents int64  `json:"plannedCents"`
	ActualCents  int64  `json:"actualCents"`
}

type planView struct {
	ID                 string       `json:"id"`
	Month              string       `json:"month"`
	CycleStart         string       `json:"cycleStart,omitempty"`
	CycleEnd           string       `json:"cycleEnd,omitempty"`
	Locked             bool         `json:"locked"`
	Currency           string       `json:"currency,omitempty"`
	SavingsTargetCents int64        `json:"savingsTargetCents,omitempty"`
	Budgets            []budgetView `json:"budgets"`
}

func toPlanView(p core.MonthlyPlan) planView {
	view := planView{
		ID:                 p.ID,
		Month:              p.Month.String(),
		Locked:             p.Locked,
		Currency:           p.Currency,
		SavingsTargetCents: p.SavingsTargetCents,
		Budgets:            make([]budgetView, 0, len(p.Budgets)),
	}
	if p.CycleStart != nil {
		view.CycleStart = p.CycleStart.String()
	}
	if p.CycleEnd != nil {
		view.CycleEnd = p.CycleEnd.String()
	}
	for _, b := range p.Budgets {
		view.Budgets = append(view.Budgets, budgetView{
			GroupID:      b.GroupID,
			PlannedCents: b.PlannedCents,
			ActualCents:  b.ActualCents,
		})
	}
	return view
}

type groupSpendView struct {
	GroupID     string `json:"groupId"`
	Name        string `json:"name"`
	ActualCents int64  `json:"actualCents"`
}

type quickLinkView struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type summaryView struct {
	PlanMonth       string           `json:"planMonth,omitempty"`
	PlannedCents    int64            `json:"plannedCents"`
	ActualCents     int64            `json:"actualCents"`
	TotalSpentCents int64            `json:"totalSpentCents"`
	TotalSpent      string           `json:"totalSpent"`
	CashOnHandCents int64            `json:"cashOnHandCents"`
	CashOnHand      string           `json:"cashOnHand"`
	TopGroups       []groupSpendView `json:"topGroups"`
	QuickLinks      []quickLinkView  `json:"quickLinks"`
}

func toSummaryView(s core.Summary) summaryView {
	view := summaryView{
		PlanMonth:       s.PlanMonth.String(),
		PlannedCents:    s.PlannedCents,
		ActualCents:     s.ActualCents,
		TotalSpentCents: s.TotalSpentCents,
		TotalSpent:      core.FormatCents(s.TotalSpentCents),
		CashOnHandCents: s.CashOnHandCents,
		CashOnHand:      core.FormatCents(s.CashOnHandCents),
		TopGroups:       make([]groupSpendView, 0, len(s.TopGroups)),
		QuickLinks:      make([]quickLinkView, 0, len(s.QuickLinks)),
	}
	for _, g := range s.TopGroups {
		view.TopGroups = append(view.TopGroups, groupSpendView(g))
	}
	for _, q := range s.QuickLinks {
		view.QuickLinks = append(view.QuickLinks, quickLinkView(q))
	}
	return view
}

type plannedVsActualView struct {
	GroupID      string `json:"groupId"`
	GroupName    string `json:"groupName"`
	PlannedCents int64  `json:"plannedCents"`
	ActualCents  int64  `json:"actualCents"`
}

func toPlannedVsActualViews(rows []core.PlannedVsActualRow) []plannedVsActualView {
	views := make([]plannedVsActualView, 0, len(rows))
	for _, r := range rows {
		views = append(views, plannedVsActualView(r))
	}
	return views
}

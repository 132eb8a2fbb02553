package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/services"
)

// Request DTOs. Expense amounts arrive as decimal strings ("25.50", comma
// accepted); monetary configuration values (planned targets, opening
// balances) arrive as integer minor units.

const maxBodyBytes = 1 << 20 // 1MB

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: parse body: %v", errBadRequest, err)
	}
	return nil
}

type expenseCreateRequest struct {
	Label      string   `json:"label"`
	Amount     string   `json:"amount"`
	EntryType  string   `json:"entryType,omitempty"`
	GroupID    string   `json:"groupId"`
	CashBookID string   `json:"cashBookId"`
	Date       string   `json:"date"`
	Note       string   `json:"note,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	PlanMonth  string   `json:"planMonth,omitempty"`
}

func (req expenseCreateRequest) toInput() (services.CreateExpenseInput, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return services.CreateExpenseInput{}, err
	}
	date, err := core.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return services.CreateExpenseInput{}, core.ErrInvalidDate
	}
	return services.CreateExpenseInput{
		Label:       strings.TrimSpace(req.Label),
		AmountCents: cents,
		Type:        core.EntryType(req.EntryType),
		GroupID:     req.GroupID,
		CashBookID:  req.CashBookID,
		Date:        date,
		Note:        req.Note,
		Tags:        req.Tags,
		PlanMonth:   core.MonthKey(req.PlanMonth),
	}, nil
}

type expensePatchRequest struct {
	Label      *string   `json:"label,omitempty"`
	Amount     *string   `json:"amount,omitempty"`
	EntryType  *string   `json:"entryType,omitempty"`
	GroupID    *string   `json:"groupId,omitempty"`
	CashBookID *string   `json:"cashBookId,omitempty"`
	Date       *string   `json:"date,omitempty"`
	Note       *string   `json:"note,omitempty"`
	Tags       *[]string `json:"tags,omitempty"`
	PlanMonth  *string   `json:"planMonth,omitempty"`
}

func (req expensePatchRequest) toPatch() (core.ExpensePatch, error) {
	var patch core.ExpensePatch
	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		patch.Label = &label
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			return core.ExpensePatch{}, err
		}
		patch.AmountCents = &cents
	}
	if req.EntryType != nil {
		t := core.EntryType(*req.EntryType)
		patch.Type = &t
	}
	if req.GroupID != nil {
		patch.GroupID = req.GroupID
	}
	if req.CashBookID != nil {
		patch.CashBookID = req.CashBookID
	}
	if req.Date != nil {
		date, err := core.ParseDate(strings.TrimSpace(*req.Date))
		if err != nil {
			return core.ExpensePatch{}, core.ErrInvalidDate
		}
		patch.Date = &date
	}
	if req.Note != nil {
		patch.Note = req.Note
	}
	if req.Tags != nil {
		patch.Tags = req.Tags
	}
	if req.PlanMonth != nil {
		month := core.MonthKey(*req.PlanMonth)
		patch.PlanMonth = &month
	}
	return patch, nil
}

type budgetSaveRequest struct {
	GroupID      string `json:"groupId"`
	PlannedCents int64  `json:"plannedCents"`
}

type planSaveRequest struct {
	Month              string              `json:"month"`
	CycleStart         *string             `json:"cycleStart,omitempty"`
	CycleEnd           *string             `json:"cycleEnd,omitempty"`
	Locked             bool                `json:"locked,omitempty"`
	Currency           string              `json:"currency,omitempty"`
	SavingsTargetCents int64               `json:"savingsTargetCents,omitempty"`
	Budgets            []budgetSaveRequest `json:"budgets,omitempty"`
}

func (req planSaveRequest) toInput() (services.PlanInput, error) {
	month, err := core.ParseMonthKey(strings.TrimSpace(req.Month))
	if err != nil {
		return services.PlanInput{}, err
	}
	input := services.PlanInput{
		Month:              month,
		Locked:             req.Locked,
		Currency:           req.Currency,
		SavingsTargetCents: req.SavingsTargetCents,
	}
	if req.CycleStart != nil {
		d, err := core.ParseDate(*req.CycleStart)
		if err != nil {
			return services.PlanInput{}, core.ErrInvalidDate
		}
		input.CycleStart = &d
	}
	if req.CycleEnd != nil {
		d, err := core.ParseDate(*req.CycleEnd)
		if err != nil {
			return services.PlanInput{}, core.ErrInvalidDate
		}
		input.CycleEnd = &d
	}
	for _, b := range req.Budgets {
		input.Budgets = append(input.Budgets, services.BudgetInput{
			GroupID:      b.GroupID,
			PlannedCents: b.PlannedCents,
		})
	}
	return input, nil
}

type cashBookSaveRequest struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	MaskedNumber string `json:"maskedNumber,omitempty"`
	Currency     string `json:"currency,omitempty"`
	Notes        string `json:"notes,omitempty"`
	// OpeningCents, when present, replaces the stored balance as a fresh
	// opening value.
	OpeningCents *int64 `json:"openingCents,omitempty"`
}

func (req cashBookSaveRequest) toInput() services.CashBookInput {
	return services.CashBookInput{
		ID:           req.ID,
		Name:         strings.TrimSpace(req.Name),
		Type:         core.AccountType(req.Type),
		MaskedNumber: req.MaskedNumber,
		Currency:     req.Currency,
		Notes:        req.Notes,
		OpeningCents: req.OpeningCents,
	}
}

type groupSaveRequest struct {
	ID                 string `json:"id,omitempty"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	Color              string `json:"color,omitempty"`
	DefaultBudgetCents int64  `json:"defaultBudgetCents,omitempty"`
}

func (req groupSaveRequest) toInput() services.GroupInput {
	return services.GroupInput{
		ID:                 req.ID,
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		Color:              req.Color,
		DefaultBudgetCents: req.DefaultBudgetCents,
	}
}

// parseExpenseFilter builds a ledger filter from list query parameters:
// from, to (YYYY-MM-DD), groupId, cashBookId, q.
func parseExpenseFilter(query url.Values) (ledger.ExpenseFilter, error) {
	var filter ledger.ExpenseFilter
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return ledger.ExpenseFilter{}, core.ErrInvalidDate
		}
		filter.From = &d
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return ledger.ExpenseFilter{}, core.ErrInvalidDate
		}
		filter.To = &d
	}
	filter.GroupID = strings.TrimSpace(query.Get("groupId"))
	filter.CashBookID = strings.TrimSpace(query.Get("cashBookId"))
	filter.Search = strings.TrimSpace(query.Get("q"))
	return filter, nil
}

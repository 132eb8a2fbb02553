package core

// ExpensePatch is a partial update for an expense. Every field is optional;
// ApplyTo spells the merge rule out per field: patch value when set,
// otherwise the previous value.
type ExpensePatch struct {
	Label       *string
	AmountCents *int64
	Type        *EntryType
	GroupID     *string
	CashBookID  *string
	Date        *Date
	Note        *string
	Tags        *[]string
	PlanMonth   *MonthKey
}

// ApplyTo merges the patch over prev and returns the merged expense.
// Identity fields (ID, CreatedAt) are always retained from prev.
func (p ExpensePatch) ApplyTo(prev Expense) Expense {
	next := prev
	if p.Label != nil {
		next.Label = *p.Label
	}
	if p.AmountCents != nil {
		next.AmountCents = *p.AmountCents
	}
	if p.Type != nil {
		next.Type = *p.Type
	}
	if p.GroupID != nil {
		next.GroupID = *p.GroupID
	}
	if p.CashBookID != nil {
		next.CashBookID = *p.CashBookID
	}
	if p.Date != nil {
		next.Date = *p.Date
	}
	if p.Note != nil {
		next.Note = *p.Note
	}
	if p.Tags != nil {
		next.Tags = append([]string(nil), (*p.Tags)...)
	}
	// PlanMonth is not merged here: attribution is re-resolved by
	// reconciliation using the patch hint, the previous attribution and
	// the current plan, in that order.
	return next
}

// HintOrPrevious returns the plan hint for re-resolution:
// patch.PlanMonth when set, else the previous attribution when present.
func (p ExpensePatch) HintOrPrevious(prev Expense) MonthKey {
	if p.PlanMonth != nil {
		return *p.PlanMonth
	}
	return prev.PlanMonth
}

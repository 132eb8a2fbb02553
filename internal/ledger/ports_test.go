package ledger

import (
	"testing"

	"bilancio/internal/core"
)

func TestExpenseFilterMatches(t *testing.T) {
	e := core.Expense{
		ID:         "e1",
		Label:      "Weekly Shop",
		GroupID:    "g1",
		CashBookID: "b1",
		Date:       core.NewDate(2025, 2, 10),
		Note:       "farmers market",
		Tags:       []string{"food", "Cash"},
	}

	from := core.NewDate(2025, 2, 1)
	to := core.NewDate(2025, 2, 28)
	after := core.NewDate(2025, 2, 11)

	cases := []struct {
		name   string
		filter ExpenseFilter
		want   bool
	}{
		{"empty filter", ExpenseFilter{}, true},
		{"date range", ExpenseFilter{From: &from, To: &to}, true},
		{"from boundary", ExpenseFilter{From: &e.Date}, true},
		{"to boundary", ExpenseFilter{To: &e.Date}, true},
		{"from after", ExpenseFilter{From: &after}, false},
		{"group match", ExpenseFilter{GroupID: "g1"}, true},
		{"group mismatch", ExpenseFilter{GroupID: "g2"}, false},
		{"book match", ExpenseFilter{CashBookID: "b1"}, true},
		{"book mismatch", ExpenseFilter{CashBookID: "b2"}, false},
		{"label search case-insensitive", ExpenseFilter{Search: "weekly"}, true},
		{"note search", ExpenseFilter{Search: "FARMERS"}, true},
		{"tag search", ExpenseFilter{Search: "cash"}, true},
		{"no match", ExpenseFilter{Search: "fuel"}, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Matches(e); got != tc.want {
			t.Fatalf("%s: got %v, expected %v", tc.name, got, tc.want)
		}
	}
}

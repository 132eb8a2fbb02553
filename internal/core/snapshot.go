package core

// Snapshot is the full-dataset export shape: the four record sets that make
// up the ledger, keyed by their stable identifiers. Import of a snapshot must
// round-trip losslessly regardless of the backing store.
type Snapshot struct {
	CashBooks []CashBook     `json:"cashBooks"`
	Groups    []ExpenseGroup `json:"expenseGroups"`
	Plans     []MonthlyPlan  `json:"monthlyPlans"`
	Expenses  []Expense      `json:"expenses"`
}

// Package mirror defines the outbound port for mirroring reconciled
// expenses to an external spreadsheet. Mirroring is driven by ledger events
// and is eventually consistent; it never participates in the reconciliation
// transaction.
package mirror

import (
	"context"

	"bilancio/internal/core"
)

// Row is one mirrored expense, denormalized for spreadsheet display.
type Row struct {
	ExpenseID    string
	Date         core.Date
	Label        string
	AmountCents  int64
	GroupName    string
	CashBookName string
	PlanMonth    core.MonthKey
}

// Writer is the mirror destination.
type Writer interface {
	// UpsertRow writes the row, replacing any existing row for the same
	// expense id.
	UpsertRow(ctx context.Context, row Row) error

	// DeleteRow removes the row for an expense id. Unknown ids are a no-op.
	DeleteRow(ctx context.Context, expenseID string) error
}

// Package worker consumes ledger events and keeps the external mirror in
// step with reconciled state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/mirror"
)

// MirrorWorker handles ledger event messages by fetching the reconciled
// expense from the store and writing it to the mirror destination.
type MirrorWorker struct {
	store  ledger.Reader
	writer mirror.Writer
}

func NewMirrorWorker(store ledger.Reader, writer mirror.Writer) *MirrorWorker {
	return &MirrorWorker{store: store, writer: writer}
}

// HandleEvent processes one ledger event. Delete events drop the mirrored
// row; create/update events re-read the expense and upsert it. An expense
// that vanished between event and handling is treated as deleted.
func (w *MirrorWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	if msg.Op == "delete" {
		if err := w.writer.DeleteRow(ctx, msg.ExpenseID); err != nil {
			return fmt.Errorf("delete mirrored row: %w", err)
		}
		return nil
	}

	expense, err := w.store.GetExpense(ctx, msg.ExpenseID)
	if err != nil {
		if errors.Is(err, core.ErrExpenseNotFound) {
			slog.WarnContext(ctx, "Expense gone before mirroring, dropping row",
				"expense_id", msg.ExpenseID, "op", msg.Op)
			return w.writer.DeleteRow(ctx, msg.ExpenseID)
		}
		return fmt.Errorf("load expense %s: %w", msg.ExpenseID, err)
	}

	row := mirror.Row{
		ExpenseID:   expense.ID,
		Date:        expense.Date,
		Label:       expense.Label,
		AmountCents: expense.AmountCents,
		PlanMonth:   expense.PlanMonth,
	}
	if group, err := w.store.GetGroup(ctx, expense.GroupID); err == nil {
		row.GroupName = group.Name
	}
	if book, err := w.store.GetCashBook(ctx, expense.CashBookID); err == nil {
		row.CashBookName = book.Name
	}

	if err := w.writer.UpsertRow(ctx, row); err != nil {
		return fmt.Errorf("mirror expense %s: %w", expense.ID, err)
	}
	return nil
}

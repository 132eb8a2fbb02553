package worker

import (
	"context"
	"testing"

	"bilancio/internal/amqp"
	"bilancio/internal/core"
	"bilancio/internal/ledger"
	"bilancio/internal/ledger/memory"
	memmirror "bilancio/internal/mirror/memory"
)

func seedLedger(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	err := store.Update(ctx, func(tx ledger.Tx) error {
		if err := tx.PutCashBook(ctx, core.CashBook{ID: "b1", Name: "Checking", Type: core.AccountBank}); err != nil {
			return err
		}
		if err := tx.PutGroup(ctx, core.ExpenseGroup{ID: "g1", Name: "Groceries"}); err != nil {
			return err
		}
		return tx.PutExpense(ctx, core.Expense{
			ID:          "e1",
			Label:       "weekly shop",
			AmountCents: 2550,
			Type:        core.EntryExpense,
			GroupID:     "g1",
			CashBookID:  "b1",
			Date:        core.NewDate(2025, 2, 10),
			PlanMonth:   "2025-02",
		})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func TestHandleEventUpsertsRow(t *testing.T) {
	store := seedLedger(t)
	dst := memmirror.NewMirror()
	w := NewMirrorWorker(store, dst)

	msg := &amqp.LedgerEventMessage{Op: "create", ExpenseID: "e1", PlanMonth: "2025-02"}
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	row, ok := dst.Row("e1")
	if !ok {
		t.Fatal("expected mirrored row")
	}
	if row.Label != "weekly shop" || row.AmountCents != 2550 || row.PlanMonth != "2025-02" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.GroupName != "Groceries" || row.CashBookName != "Checking" {
		t.Fatalf("names not enriched: %+v", row)
	}
}

func TestHandleEventDelete(t *testing.T) {
	store := seedLedger(t)
	dst := memmirror.NewMirror()
	w := NewMirrorWorker(store, dst)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, &amqp.LedgerEventMessage{Op: "create", ExpenseID: "e1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := w.HandleEvent(ctx, &amqp.LedgerEventMessage{Op: "delete", ExpenseID: "e1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if dst.Len() != 0 {
		t.Fatalf("expected empty mirror, got %d rows", dst.Len())
	}
}

func TestHandleEventVanishedExpenseDropsRow(t *testing.T) {
	store := seedLedger(t)
	dst := memmirror.NewMirror()
	w := NewMirrorWorker(store, dst)
	ctx := context.Background()

	if err := w.HandleEvent(ctx, &amqp.LedgerEventMessage{Op: "create", ExpenseID: "e1"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	err := store.Update(ctx, func(tx ledger.Tx) error {
		return tx.DeleteExpense(ctx, "e1")
	})
	if err != nil {
		t.Fatalf("delete expense: %v", err)
	}

	// An update event for a row that no longer exists clears the mirror.
	if err := w.HandleEvent(ctx, &amqp.LedgerEventMessage{Op: "update", ExpenseID: "e1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if _, ok := dst.Row("e1"); ok {
		t.Fatal("expected row dropped")
	}
}

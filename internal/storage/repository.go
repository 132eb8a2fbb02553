// Package storage implements the ledger store on SQLite. It provides the
// transactional scope that makes a reconciliation's three-way mutation
// all-or-nothing: each Update runs in a serializable transaction under a
// store-level write lock, so concurrent writes to the same cash book or
// (plan, group) pair serialize instead of losing updates.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
	applog "bilancio/internal/log"
)

// SQLiteRepository is the durable ledger.Store.
type SQLiteRepository struct {
	db *sql.DB

	// writeMu serializes Update calls. SQLite allows one writer at a time
	// anyway; taking the lock up front turns driver-level busy errors into
	// orderly queueing.
	writeMu sync.Mutex
}

var _ ledger.Store = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// runs pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Update runs fn inside one serializable transaction. Any error from fn or
// from the commit rolls everything back; driver-level lock contention
// surfaces as core.ErrConflict so callers can retry the whole operation.
func (r *SQLiteRepository) Update(ctx context.Context, fn func(tx ledger.Tx) error) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return wrapConflict(fmt.Errorf("begin transaction: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&sqliteTx{tx: sqlTx}); err != nil {
		return wrapConflict(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return wrapConflict(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// wrapConflict maps SQLite lock contention onto the reconciliation conflict
// sentinel. Everything else passes through untouched.
func wrapConflict(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", core.ErrConflict, err)
	}
	return err
}

// Read side. Plain queries outside the write lock; readers see either the
// full pre-write or full post-write state, never a partial reconciliation.

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return getExpense(ctx, r.db, id)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, filter ledger.ExpenseFilter) ([]core.Expense, error) {
	return listExpenses(ctx, r.db, filter)
}

func (r *SQLiteRepository) GetCashBook(ctx context.Context, id string) (core.CashBook, error) {
	return getCashBook(ctx, r.db, id)
}

func (r *SQLiteRepository) ListCashBooks(ctx context.Context) ([]core.CashBook, error) {
	return listCashBooks(ctx, r.db)
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, id string) (core.ExpenseGroup, error) {
	return getGroup(ctx, r.db, id)
}

func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]core.ExpenseGroup, error) {
	return listGroups(ctx, r.db)
}

func (r *SQLiteRepository) GetPlanByMonth(ctx context.Context, month core.MonthKey) (core.MonthlyPlan, error) {
	return getPlanByMonth(ctx, r.db, month)
}

func (r *SQLiteRepository) ListPlans(ctx context.Context) ([]core.MonthlyPlan, error) {
	return listPlans(ctx, r.db)
}

// ExportSnapshot reads the four record sets in one transaction so the
// snapshot is internally consistent.
func (r *SQLiteRepository) ExportSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("begin snapshot read: %w", err)
	}
	defer sqlTx.Rollback()

	if snap.CashBooks, err = listCashBooks(ctx, sqlTx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Groups, err = listGroups(ctx, sqlTx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Plans, err = listPlans(ctx, sqlTx); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Expenses, err = listExpenses(ctx, sqlTx, ledger.ExpenseFilter{}); err != nil {
		return core.Snapshot{}, err
	}

	slog.InfoContext(ctx, "Snapshot exported",
		applog.FieldOperation, applog.OpSnapshot,
		"cash_books", len(snap.CashBooks),
		"groups", len(snap.Groups),
		"plans", len(snap.Plans),
		"expenses", len(snap.Expenses))
	return snap, nil
}

// ImportSnapshot replaces the entire dataset with the snapshot, atomically.
func (r *SQLiteRepository) ImportSnapshot(ctx context.Context, snap core.Snapshot) error {
	return r.Update(ctx, func(tx ledger.Tx) error {
		st := tx.(*sqliteTx)
		for _, table := range []string{"expenses", "plan_budgets", "monthly_plans", "expense_groups", "cash_books"} {
			if _, err := st.tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		for _, b := range snap.CashBooks {
			if err := putCashBook(ctx, st.tx, b); err != nil {
				return err
			}
		}
		for _, g := range snap.Groups {
			if err := putGroup(ctx, st.tx, g); err != nil {
				return err
			}
		}
		for _, p := range snap.Plans {
			if err := putPlan(ctx, st.tx, p); err != nil {
				return err
			}
		}
		for _, e := range snap.Expenses {
			if err := putExpense(ctx, st.tx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// sqliteTx adapts *sql.Tx to the ledger.Tx port.
type sqliteTx struct {
	tx *sql.Tx
}

var _ ledger.Tx = (*sqliteTx)(nil)

func (t *sqliteTx) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return getExpense(ctx, t.tx, id)
}

func (t *sqliteTx) GetCashBook(ctx context.Context, id string) (core.CashBook, error) {
	return getCashBook(ctx, t.tx, id)
}

func (t *sqliteTx) GetGroup(ctx context.Context, id string) (core.ExpenseGroup, error) {
	return getGroup(ctx, t.tx, id)
}

func (t *sqliteTx) GetPlanByMonth(ctx context.Context, month core.MonthKey) (core.MonthlyPlan, error) {
	return getPlanByMonth(ctx, t.tx, month)
}

func (t *sqliteTx) ListPlans(ctx context.Context) ([]core.MonthlyPlan, error) {
	return listPlans(ctx, t.tx)
}

func (t *sqliteTx) LatestExpense(ctx context.Context, cashBookID string) (core.Expense, bool, error) {
	return latestExpense(ctx, t.tx, cashBookID)
}

func (t *sqliteTx) CountExpensesByGroup(ctx context.Context, groupID string) (int64, error) {
	return countExpensesByGroup(ctx, t.tx, groupID)
}

func (t *sqliteTx) PutExpense(ctx context.Context, e core.Expense) error {
	return putExpense(ctx, t.tx, e)
}

func (t *sqliteTx) DeleteExpense(ctx context.Context, id string) error {
	return deleteExpense(ctx, t.tx, id)
}

func (t *sqliteTx) PutCashBook(ctx context.Context, b core.CashBook) error {
	return putCashBook(ctx, t.tx, b)
}

func (t *sqliteTx) PutGroup(ctx context.Context, g core.ExpenseGroup) error {
	return putGroup(ctx, t.tx, g)
}

func (t *sqliteTx) DeleteGroup(ctx context.Context, id string) error {
	return deleteGroup(ctx, t.tx, id)
}

func (t *sqliteTx) PutPlan(ctx context.Context, p core.MonthlyPlan) error {
	return putPlan(ctx, t.tx, p)
}

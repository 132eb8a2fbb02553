// Package memory is an in-memory mirror destination used in tests and as
// the default when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"bilancio/internal/mirror"
)

// Mirror stores mirrored rows keyed by expense id.
type Mirror struct {
	mu   sync.RWMutex
	rows map[string]mirror.Row
}

var _ mirror.Writer = (*Mirror)(nil)

func NewMirror() *Mirror {
	return &Mirror{rows: make(map[string]mirror.Row)}
}

func (m *Mirror) UpsertRow(ctx context.Context, row mirror.Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.ExpenseID] = row
	return nil
}

func (m *Mirror) DeleteRow(ctx context.Context, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, expenseID)
	return nil
}

// Row returns the mirrored row for an expense id, if present.
func (m *Mirror) Row(expenseID string) (mirror.Row, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[expenseID]
	return row, ok
}

// Len reports the number of mirrored rows.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

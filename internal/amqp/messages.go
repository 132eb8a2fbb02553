package amqp

import (
	"encoding/json"
	"time"

	"bilancio/internal/core"
)

// LedgerEventMessage notifies downstream consumers that a reconciliation
// committed. It carries only the expense id and operation; consumers fetch
// the reconciled state from the store.
type LedgerEventMessage struct {
	Op        string        `json:"op"` // create, update or delete
	ExpenseID string        `json:"expenseId"`
	PlanMonth core.MonthKey `json:"planMonth,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewLedgerEventMessage creates a ledger event message stamped with now.
func NewLedgerEventMessage(op, expenseID string, planMonth core.MonthKey) *LedgerEventMessage {
	return &LedgerEventMessage{
		Op:        op,
		ExpenseID: expenseID,
		PlanMonth: planMonth,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

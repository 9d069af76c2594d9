package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Ledger operations carried by LedgerEvent.Op.
const (
	OpCreate  = "create"
	OpUpdate  = "update"
	OpDelete  = "delete"
	OpExclude = "exclude"
	OpInclude = "include"
	OpLock    = "lock"
	OpUnlock  = "unlock"
	OpBudget  = "budget"
)

// LedgerEvent announces that something changed in a month. It carries only
// identifiers; consumers re-read the store for the current state.
type LedgerEvent struct {
	Month     string    `json:"month"`
	Kind      string    `json:"kind,omitempty"`
	ID        string    `json:"id,omitempty"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(month, kind, id, op string) *LedgerEvent {
	return &LedgerEvent{
		Month:     month,
		Kind:      kind,
		ID:        id,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes an event and rejects one without a month.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Month == "" {
		return nil, fmt.Errorf("ledger event without month")
	}
	return &msg, nil
}

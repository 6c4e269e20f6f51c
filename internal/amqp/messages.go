package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeKind names the entity a change message refers to.
type ChangeKind string

const (
	ChangeProfile     ChangeKind = "profile"
	ChangeCustomer    ChangeKind = "customer"
	ChangeTransaction ChangeKind = "transaction"
	ChangeIncome      ChangeKind = "income"
)

// ChangeMessage is the lightweight sync notification published after every
// local write. It carries identifiers only; the worker re-reads the current
// row from SQLite, so a burst of edits to one entity collapses to the final
// state no matter the delivery order.
type ChangeMessage struct {
	Kind      ChangeKind `json:"kind"`
	OwnerID   string     `json:"ownerId"`
	Customer  string     `json:"customer,omitempty"`
	Date      string     `json:"date,omitempty"`
	EntityID  string     `json:"entityId,omitempty"`
	Deleted   bool       `json:"deleted,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewChangeMessage(kind ChangeKind, ownerID string) *ChangeMessage {
	return &ChangeMessage{Kind: kind, OwnerID: ownerID, Timestamp: time.Now()}
}

func (m *ChangeMessage) Validate() error {
	switch m.Kind {
	case ChangeProfile, ChangeCustomer, ChangeTransaction, ChangeIncome:
	default:
		return fmt.Errorf("unknown change kind %q", m.Kind)
	}
	if m.OwnerID == "" {
		return fmt.Errorf("change message missing owner id")
	}
	return nil
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

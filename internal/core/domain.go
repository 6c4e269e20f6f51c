package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// TxnAdd records credit given to a customer and increases the due balance.
	TxnAdd TxnType = "add"
	// TxnPay records a payment received and decreases the due balance.
	TxnPay TxnType = "pay"
)

type (
	TxnType string

	// Transaction is a single signed ledger entry owned by a customer.
	// Field names and the add/pay type values are the persisted wire format
	// of the hosted record store and must not change.
	Transaction struct {
		Type   TxnType `json:"type"`
		Amount Amount  `json:"amount"`
		Date   string  `json:"date"` // ISO-8601 timestamp
	}

	// IncomeEntry is a daily cash income record, independent of any customer.
	IncomeEntry struct {
		Amount      Amount `json:"amount"`
		Description string `json:"description"`
		Timestamp   string `json:"timestamp"` // ISO-8601 timestamp
	}

	// Customer groups the credit ledger of one customer. The customer's name
	// doubles as its record key, so it is unique within an owner.
	Customer struct {
		Name         string                 `json:"name"`
		Phone        string                 `json:"phone"`
		Transactions map[string]Transaction `json:"transactions,omitempty"`
	}

	// Profile is the owner's account record written at signup.
	Profile struct {
		Name      string `json:"name"`
		Email     string `json:"email"`
		CreatedAt string `json:"createdAt,omitempty"`
	}

	// Snapshot is the complete state of one owner's subtree as delivered by
	// the record store on every change. All derived summaries are recomputed
	// from a Snapshot; nothing derived is ever persisted.
	Snapshot struct {
		Name        string                            `json:"name,omitempty"`
		Email       string                            `json:"email,omitempty"`
		CreatedAt   string                            `json:"createdAt,omitempty"`
		Customers   map[string]Customer               `json:"customers,omitempty"`
		DailyIncome map[string]map[string]IncomeEntry `json:"dailyIncome,omitempty"`
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidDate         = errors.New("invalid date")
	ErrEmptyName           = errors.New("empty customer name")
	ErrEmptyPhone          = errors.New("empty phone number")
	ErrDuplicateCustomer   = errors.New("customer already exists")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrIncomeNotFound      = errors.New("income entry not found")
)

// EventTime returns the transaction's event timestamp. Transactions carry it
// in the date field, income entries in the timestamp field; the aggregator
// treats both uniformly through this accessor.
func (t Transaction) EventTime() string { return t.Date }

// EventTime returns the entry's event timestamp.
func (e IncomeEntry) EventTime() string { return e.Timestamp }

func (t TxnType) Valid() bool {
	return t == TxnAdd || t == TxnPay
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(t.Date) < len("2006-01-02") {
		return ErrInvalidDate
	}
	return nil
}

func (e IncomeEntry) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if len(e.Timestamp) < len("2006-01-02") {
		return ErrInvalidDate
	}
	return nil
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("customer name too long (max 100 characters)")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return ErrEmptyPhone
	}
	return nil
}

// DateKey reduces an ISO-8601 timestamp to its YYYY-MM-DD calendar date.
func DateKey(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}

// MonthKey reduces an ISO-8601 timestamp or date key to its YYYY-MM month.
func MonthKey(ts string) string {
	if len(ts) < 7 {
		return ts
	}
	return ts[:7]
}

// Timestamp formats t in the store's wire form (UTC, RFC3339).
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

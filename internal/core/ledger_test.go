package core

import (
	"testing"
)

func txn(typ TxnType, units int64, date string) Transaction {
	return Transaction{Type: typ, Amount: NewAmount(units), Date: date}
}

func TestBalanceEmpty(t *testing.T) {
	if got := Balance(nil); !got.IsZero() {
		t.Fatalf("balance of nil set = %s, want 0", got)
	}
	if got := Balance(map[string]Transaction{}); !got.IsZero() {
		t.Fatalf("balance of empty set = %s, want 0", got)
	}
}

func TestBalanceSignConvention(t *testing.T) {
	txns := map[string]Transaction{
		"a": txn(TxnAdd, 500, "2024-01-01T08:00:00Z"),
		"b": txn(TxnPay, 200, "2024-01-02T08:00:00Z"),
	}
	if got := Balance(txns); !got.Equal(NewAmount(300)) {
		t.Fatalf("balance = %s, want 300", got)
	}

	// Overpayment flips the sign: the owner owes the customer.
	txns["c"] = txn(TxnPay, 400, "2024-01-03T08:00:00Z")
	if got := Balance(txns); !got.Equal(NewAmount(-100)) {
		t.Fatalf("balance = %s, want -100", got)
	}
}

func TestBalanceOrderInsensitive(t *testing.T) {
	// Same multiset of transactions under different keys; map iteration
	// order varies between runs, and the fold must not care.
	a := map[string]Transaction{
		"k1": txn(TxnAdd, 1000, "2024-01-05T10:00:00Z"),
		"k2": txn(TxnPay, 400, "2024-01-10T10:00:00Z"),
		"k3": txn(TxnAdd, 200, "2024-02-01T10:00:00Z"),
	}
	b := map[string]Transaction{
		"z9": txn(TxnAdd, 200, "2024-02-01T10:00:00Z"),
		"a0": txn(TxnPay, 400, "2024-01-10T10:00:00Z"),
		"m5": txn(TxnAdd, 1000, "2024-01-05T10:00:00Z"),
	}
	if ba, bb := Balance(a), Balance(b); !ba.Equal(bb) {
		t.Fatalf("balance depends on keys/order: %s vs %s", ba, bb)
	}
	if got := Balance(a); !got.Equal(NewAmount(800)) {
		t.Fatalf("balance = %s, want 800", got)
	}
}

func TestRunningLedger(t *testing.T) {
	txns := map[string]Transaction{
		"t1": txn(TxnAdd, 1000, "2024-01-05T10:00:00Z"),
		"t2": txn(TxnPay, 400, "2024-01-10T10:00:00Z"),
		"t3": txn(TxnAdd, 200, "2024-02-01T10:00:00Z"),
	}
	rows := RunningLedger(txns)
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	// Newest first for display.
	if rows[0].ID != "t3" || rows[1].ID != "t2" || rows[2].ID != "t1" {
		t.Fatalf("unexpected display order: %s, %s, %s", rows[0].ID, rows[1].ID, rows[2].ID)
	}

	// Running balances follow chronological application, so the top row
	// carries the current balance.
	wants := map[string]int64{"t1": 1000, "t2": 600, "t3": 800}
	for _, r := range rows {
		if want := NewAmount(wants[r.ID]); !r.Running.Equal(want) {
			t.Errorf("row %s running = %s, want %s", r.ID, r.Running, want)
		}
	}
	if !rows[0].Running.Equal(Balance(txns)) {
		t.Fatalf("top row running %s != balance %s", rows[0].Running, Balance(txns))
	}
}

func TestRunningLedgerTieBreak(t *testing.T) {
	// Identical timestamps: push-id order keeps the result deterministic.
	txns := map[string]Transaction{
		"b": txn(TxnAdd, 10, "2024-03-01T09:00:00Z"),
		"a": txn(TxnAdd, 5, "2024-03-01T09:00:00Z"),
	}
	rows := RunningLedger(txns)
	if rows[0].ID != "b" || rows[1].ID != "a" {
		t.Fatalf("tie-break order: got %s, %s", rows[0].ID, rows[1].ID)
	}
	if !rows[0].Running.Equal(NewAmount(15)) {
		t.Fatalf("final running = %s, want 15", rows[0].Running)
	}
}

func TestFilterLedger(t *testing.T) {
	txns := map[string]Transaction{
		"t1": txn(TxnAdd, 100, "2024-01-05T10:00:00Z"),
		"t2": txn(TxnPay, 50, "2024-01-06T10:00:00Z"),
	}
	rows := FilterLedger(RunningLedger(txns), "2024-01-05")
	if len(rows) != 1 || rows[0].ID != "t1" {
		t.Fatalf("filter kept wrong rows: %+v", rows)
	}
	// Running balance still reflects the full ledger position.
	if !rows[0].Running.Equal(NewAmount(100)) {
		t.Fatalf("filtered running = %s, want 100", rows[0].Running)
	}
	if got := FilterLedger(RunningLedger(txns), ""); len(got) != 2 {
		t.Fatalf("empty filter should keep all rows, got %d", len(got))
	}
}

func TestCustomerStats(t *testing.T) {
	c := Customer{
		Name:  "Karim",
		Phone: "017",
		Transactions: map[string]Transaction{
			"t1": txn(TxnAdd, 1000, "2024-01-05T10:00:00Z"),
			"t2": txn(TxnPay, 400, "2024-01-10T10:00:00Z"),
			"t3": txn(TxnAdd, 200, "2024-02-01T10:00:00Z"),
		},
	}
	s := CustomerStats(c)
	if s.TxnCount != 3 {
		t.Fatalf("count = %d, want 3", s.TxnCount)
	}
	if s.FirstDate != "2024-01-05" || s.LastDate != "2024-02-01" {
		t.Fatalf("first/last = %s/%s", s.FirstDate, s.LastDate)
	}

	empty := CustomerStats(Customer{Name: "New", Phone: "018"})
	if empty.TxnCount != 0 || empty.FirstDate != "" || empty.LastDate != "" {
		t.Fatalf("empty stats = %+v", empty)
	}
}

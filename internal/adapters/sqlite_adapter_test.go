package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"khata/internal/core"
	"khata/internal/services"
	"khata/internal/storage"
)

func newTestAdapter(t *testing.T) *SQLiteAdapter {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "khata.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewSQLiteAdapter(repo, services.NewLedgerService(repo, nil))
}

func TestWatchSeesSQLiteWrites(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	var seen []core.Snapshot
	unsub, err := a.Watch(ctx, "owner-1", func(snap core.Snapshot) {
		seen = append(seen, snap)
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 {
		t.Fatalf("expected initial delivery, got %d", len(seen))
	}

	if err := a.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatal(err)
	}
	if _, err := a.AddTransaction(ctx, "owner-1", "Karim", core.Transaction{
		Type: core.TxnAdd, Amount: core.NewAmount(500), Date: "2024-01-05T09:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 3 {
		t.Fatalf("deliveries = %d, want 3", len(seen))
	}
	last := seen[len(seen)-1]
	if got := core.Balance(last.Customers["Karim"].Transactions); !got.Equal(core.NewAmount(500)) {
		t.Fatalf("watched balance = %s, want 500", got)
	}

	unsub()
	if err := a.DeleteCustomer(ctx, "owner-1", "Karim"); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 3 {
		t.Fatalf("delivery after unsubscribe, count = %d", len(seen))
	}
}

func TestSnapshotShape(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.PutProfile(ctx, "owner-1", core.Profile{Name: "Boss", Email: "boss@example.com", CreatedAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatal(err)
	}
	if err := a.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatal(err)
	}
	txnID, err := a.AddTransaction(ctx, "owner-1", "Karim", core.Transaction{
		Type: core.TxnAdd, Amount: core.NewAmount(1000), Date: "2024-01-05T09:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	incomeID, err := a.AddIncome(ctx, "owner-1", "2024-01-10", core.IncomeEntry{
		Amount: core.NewAmount(30), Description: "Counter sales", Timestamp: "2024-01-10T18:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}

	snap, err := a.Snapshot(ctx, "owner-1")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Name != "Boss" || snap.Email != "boss@example.com" {
		t.Fatalf("profile = %s <%s>", snap.Name, snap.Email)
	}
	txn := snap.Customers["Karim"].Transactions[txnID]
	if txn.Type != core.TxnAdd || !txn.Amount.Equal(core.NewAmount(1000)) || txn.Date != "2024-01-05T09:00:00Z" {
		t.Fatalf("transaction = %+v", txn)
	}
	entry := snap.DailyIncome["2024-01-10"][incomeID]
	if !entry.Amount.Equal(core.NewAmount(30)) || entry.Description != "Counter sales" {
		t.Fatalf("income entry = %+v", entry)
	}
}

func TestDecimalAmountsSurviveStorage(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	if err := a.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatal(err)
	}
	amount, err := core.ParseAmount("12.34")
	if err != nil {
		t.Fatal(err)
	}
	id, err := a.AddTransaction(ctx, "owner-1", "Karim", core.Transaction{
		Type: core.TxnPay, Amount: amount, Date: "2024-01-05T09:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	snap, _ := a.Snapshot(ctx, "owner-1")
	if got := snap.Customers["Karim"].Transactions[id].Amount; !got.Equal(amount) {
		t.Fatalf("amount = %s, want 12.34", got)
	}
}

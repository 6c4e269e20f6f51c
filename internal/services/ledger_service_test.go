package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/storage"
)

type capturingPublisher struct {
	messages []*amqp.ChangeMessage
	err      error
}

func (p *capturingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func newTestService(t *testing.T, pub ChangePublisher) *LedgerService {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "khata.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewLedgerService(repo, pub)
}

func TestCreateCustomerPublishesChange(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if err := svc.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatal(err)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Kind != amqp.ChangeCustomer || msg.OwnerID != "owner-1" || msg.Customer != "Karim" {
		t.Fatalf("message = %+v", msg)
	}

	if err := svc.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "999"}); !errors.Is(err, core.ErrDuplicateCustomer) {
		t.Fatalf("duplicate: got %v", err)
	}
	if len(pub.messages) != 1 {
		t.Fatal("failed write must not publish")
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if err := svc.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatal(err)
	}
	id, err := svc.AddTransaction(ctx, "owner-1", "Karim", core.Transaction{
		Type: core.TxnAdd, Amount: core.NewAmount(500), Date: "2024-01-05T09:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	if err := svc.UpdateTransaction(ctx, "owner-1", "Karim", id, core.NewAmount(600), core.TxnPay); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTransaction(ctx, "owner-1", "Karim", id); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteTransaction(ctx, "owner-1", "Karim", id); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("double delete: got %v", err)
	}

	// create customer + add + update + delete
	if len(pub.messages) != 4 {
		t.Fatalf("published %d messages, want 4", len(pub.messages))
	}
	last := pub.messages[3]
	if last.Kind != amqp.ChangeTransaction || !last.Deleted || last.EntityID != id {
		t.Fatalf("delete message = %+v", last)
	}
}

func TestIncomeRoundTrip(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	id, err := svc.AddIncome(ctx, "owner-1", "2024-01-10", core.IncomeEntry{
		Amount: core.NewAmount(30), Description: "Counter sales", Timestamp: "2024-01-10T18:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.UpdateIncome(ctx, "owner-1", "2024-01-10", id, core.IncomeEntry{
		Amount: core.NewAmount(45), Description: "Counter sales", Timestamp: "2024-01-10T18:00:00Z",
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteIncome(ctx, "owner-1", "2024-01-10", id); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteIncome(ctx, "owner-1", "2024-01-10", id); !errors.Is(err, core.ErrIncomeNotFound) {
		t.Fatalf("double delete: got %v", err)
	}
	if len(pub.messages) != 3 {
		t.Fatalf("published %d messages, want 3", len(pub.messages))
	}
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if err := svc.CreateCustomer(ctx, "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatalf("local write must survive a dead broker, got %v", err)
	}
}

func TestNilPublisher(t *testing.T) {
	svc := newTestService(t, nil)
	if err := svc.CreateCustomer(context.Background(), "owner-1", core.Customer{Name: "Karim", Phone: "01711"}); err != nil {
		t.Fatal(err)
	}
}

func TestValidationShortCircuits(t *testing.T) {
	pub := &capturingPublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if err := svc.CreateCustomer(ctx, "owner-1", core.Customer{Name: "", Phone: "1"}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("got %v", err)
	}
	if _, err := svc.AddTransaction(ctx, "owner-1", "Karim", core.Transaction{Type: "loan", Amount: core.NewAmount(1), Date: "2024-01-05T09:00:00Z"}); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("got %v", err)
	}
	if len(pub.messages) != 0 {
		t.Fatal("invalid input must not publish")
	}
}

// Package services orchestrates ledger writes for the sqlite backend:
// SQLite is the source of truth, a change message per write drives the sync
// worker that mirrors rows to the hosted record store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/storage"
)

// ChangePublisher is the slice of the AMQP client the service needs.
type ChangePublisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

type LedgerService struct {
	storage   *storage.Repository
	publisher ChangePublisher
}

func NewLedgerService(storage *storage.Repository, publisher ChangePublisher) *LedgerService {
	return &LedgerService{storage: storage, publisher: publisher}
}

func (s *LedgerService) PutProfile(ctx context.Context, ownerID string, p core.Profile) error {
	if err := s.storage.PutProfile(ctx, ownerID, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	s.publish(ctx, &amqp.ChangeMessage{Kind: amqp.ChangeProfile, OwnerID: ownerID})
	return nil
}

func (s *LedgerService) CreateCustomer(ctx context.Context, ownerID string, c core.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.storage.CreateCustomer(ctx, ownerID, c); err != nil {
		return err
	}
	s.publish(ctx, &amqp.ChangeMessage{Kind: amqp.ChangeCustomer, OwnerID: ownerID, Customer: c.Name})
	return nil
}

func (s *LedgerService) DeleteCustomer(ctx context.Context, ownerID, name string) error {
	if err := s.storage.DeleteCustomer(ctx, ownerID, name); err != nil {
		return err
	}
	s.publish(ctx, &amqp.ChangeMessage{Kind: amqp.ChangeCustomer, OwnerID: ownerID, Customer: name, Deleted: true})
	return nil
}

func (s *LedgerService) AddTransaction(ctx context.Context, ownerID, customer string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	id := NewEntryID()
	if err := s.storage.InsertTransaction(ctx, ownerID, customer, id, t); err != nil {
		return "", err
	}
	s.publish(ctx, &amqp.ChangeMessage{
		Kind: amqp.ChangeTransaction, OwnerID: ownerID, Customer: customer, EntityID: id,
	})
	return id, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID, customer, txnID string, amount core.Amount, typ core.TxnType) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if !typ.Valid() {
		return core.ErrInvalidType
	}
	if err := s.storage.UpdateTransaction(ctx, ownerID, customer, txnID, amount, typ); err != nil {
		return err
	}
	s.publish(ctx, &amqp.ChangeMessage{
		Kind: amqp.ChangeTransaction, OwnerID: ownerID, Customer: customer, EntityID: txnID,
	})
	return nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, customer, txnID string) error {
	if err := s.storage.DeleteTransaction(ctx, ownerID, customer, txnID); err != nil {
		return err
	}
	s.publish(ctx, &amqp.ChangeMessage{
		Kind: amqp.ChangeTransaction, OwnerID: ownerID, Customer: customer, EntityID: txnID, Deleted: true,
	})
	return nil
}

func (s *LedgerService) AddIncome(ctx context.Context, ownerID, date string, e core.IncomeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	id := NewEntryID()
	if err := s.storage.InsertIncome(ctx, ownerID, date, id, e); err != nil {
		return "", err
	}
	s.publish(ctx, &amqp.ChangeMessage{
		Kind: amqp.ChangeIncome, OwnerID: ownerID, Date: date, EntityID: id,
	})
	return id, nil
}

func (s *LedgerService) UpdateIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.storage.UpdateIncome(ctx, ownerID, date, id, e); err != nil {
		return err
	}
	s.publish(ctx, &amqp.ChangeMessage{
		Kind: amqp.ChangeIncome, OwnerID: ownerID, Date: date, EntityID: id,
	})
	return nil
}

func (s *LedgerService) DeleteIncome(ctx context.Context, ownerID, date, id string) error {
	if err := s.storage.DeleteIncome(ctx, ownerID, date, id); err != nil {
		return err
	}
	s.publish(ctx, &amqp.ChangeMessage{
		Kind: amqp.ChangeIncome, OwnerID: ownerID, Date: date, EntityID: id, Deleted: true,
	})
	return nil
}

// publish sends the change notification without failing the request: the
// local write already succeeded and the periodic reconciliation pass catches
// anything a lost message would have synced.
func (s *LedgerService) publish(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to publish change message",
			"kind", msg.Kind,
			"owner_id", msg.OwnerID,
			"entity_id", msg.EntityID,
			"error", err)
	}
}

// NewEntryID mints a push-style entity key.
func NewEntryID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

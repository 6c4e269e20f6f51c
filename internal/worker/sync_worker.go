// Package worker mirrors the local SQLite ledger to the hosted record store.
// Change messages drive entity-level writes; a periodic reconciliation pass
// replays each owner's full subtree to cover lost messages.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/storage"
)

// Mirror is the slice of the hosted store client the worker writes through.
type Mirror interface {
	PutProfile(ctx context.Context, ownerID string, p core.Profile) error
	UpsertCustomer(ctx context.Context, ownerID string, c core.Customer) error
	RemoveCustomer(ctx context.Context, ownerID, name string) error
	SetTransaction(ctx context.Context, ownerID, customer, id string, t core.Transaction) error
	RemoveTransaction(ctx context.Context, ownerID, customer, id string) error
	SetIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error
	RemoveIncome(ctx context.Context, ownerID, date, id string) error
	SetSnapshot(ctx context.Context, ownerID string, snap core.Snapshot) error
}

type SyncWorker struct {
	storage *storage.Repository
	mirror  Mirror
}

func NewSyncWorker(storage *storage.Repository, mirror Mirror) *SyncWorker {
	return &SyncWorker{storage: storage, mirror: mirror}
}

// HandleChange applies one change message to the hosted store. The message
// carries identifiers only; the current row is re-read from SQLite, so stale
// or reordered deliveries still converge on the local state.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "processing change message",
		"kind", msg.Kind,
		"owner_id", msg.OwnerID,
		"entity_id", msg.EntityID,
		"deleted", msg.Deleted)

	switch msg.Kind {
	case amqp.ChangeProfile:
		return w.syncProfile(ctx, msg)
	case amqp.ChangeCustomer:
		return w.syncCustomer(ctx, msg)
	case amqp.ChangeTransaction:
		return w.syncTransaction(ctx, msg)
	case amqp.ChangeIncome:
		return w.syncIncome(ctx, msg)
	default:
		// Unknown kinds are dropped, not requeued forever.
		slog.WarnContext(ctx, "dropping change message of unknown kind", "kind", msg.Kind)
		return nil
	}
}

func (w *SyncWorker) syncProfile(ctx context.Context, msg *amqp.ChangeMessage) error {
	snap, err := w.storage.Snapshot(ctx, msg.OwnerID)
	if err != nil {
		return fmt.Errorf("read owner: %w", err)
	}
	p := core.Profile{Name: snap.Name, Email: snap.Email, CreatedAt: snap.CreatedAt}
	if err := w.mirror.PutProfile(ctx, msg.OwnerID, p); err != nil {
		return fmt.Errorf("mirror profile: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncCustomer(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Deleted {
		if err := w.mirror.RemoveCustomer(ctx, msg.OwnerID, msg.Customer); err != nil {
			return fmt.Errorf("mirror customer delete: %w", err)
		}
		return nil
	}
	c, err := w.storage.Customer(ctx, msg.OwnerID, msg.Customer)
	if errors.Is(err, core.ErrCustomerNotFound) {
		// Deleted locally after the message was published; the delete
		// message behind us wins.
		return nil
	}
	if err != nil {
		return fmt.Errorf("read customer: %w", err)
	}
	if err := w.mirror.UpsertCustomer(ctx, msg.OwnerID, c); err != nil {
		return fmt.Errorf("mirror customer: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncTransaction(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Deleted {
		if err := w.mirror.RemoveTransaction(ctx, msg.OwnerID, msg.Customer, msg.EntityID); err != nil {
			return fmt.Errorf("mirror transaction delete: %w", err)
		}
		return nil
	}
	t, err := w.storage.Transaction(ctx, msg.OwnerID, msg.Customer, msg.EntityID)
	if errors.Is(err, core.ErrTransactionNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read transaction: %w", err)
	}
	if err := w.mirror.SetTransaction(ctx, msg.OwnerID, msg.Customer, msg.EntityID, t); err != nil {
		return fmt.Errorf("mirror transaction: %w", err)
	}
	return nil
}

func (w *SyncWorker) syncIncome(ctx context.Context, msg *amqp.ChangeMessage) error {
	if msg.Deleted {
		if err := w.mirror.RemoveIncome(ctx, msg.OwnerID, msg.Date, msg.EntityID); err != nil {
			return fmt.Errorf("mirror income delete: %w", err)
		}
		return nil
	}
	e, err := w.storage.Income(ctx, msg.OwnerID, msg.Date, msg.EntityID)
	if errors.Is(err, core.ErrIncomeNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read income entry: %w", err)
	}
	if err := w.mirror.SetIncome(ctx, msg.OwnerID, msg.Date, msg.EntityID, e); err != nil {
		return fmt.Errorf("mirror income entry: %w", err)
	}
	return nil
}

// RunReconciliation replays every owner's full subtree to the hosted store at
// the given interval until ctx is done. SQLite is the source of truth for
// this backend, so the hosted copy is replaced wholesale.
func (w *SyncWorker) RunReconciliation(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if err := w.ReconcileAll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.ErrorContext(ctx, "reconciliation pass failed", "error", err)
		}
	}
}

// ReconcileAll mirrors the current subtree of every known owner.
func (w *SyncWorker) ReconcileAll(ctx context.Context) error {
	owners, err := w.storage.Owners(ctx)
	if err != nil {
		return fmt.Errorf("list owners: %w", err)
	}
	for _, ownerID := range owners {
		snap, err := w.storage.Snapshot(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("snapshot owner %s: %w", ownerID, err)
		}
		if err := w.mirror.SetSnapshot(ctx, ownerID, snap); err != nil {
			return fmt.Errorf("mirror owner %s: %w", ownerID, err)
		}
		slog.InfoContext(ctx, "reconciled owner subtree",
			"owner_id", ownerID,
			"customers", len(snap.Customers))
	}
	return nil
}

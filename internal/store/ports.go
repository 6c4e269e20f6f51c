// Package store defines the outbound ports for the owner-scoped record
// store. The hosted backend (Firebase Realtime Database), the local SQLite
// backend and the in-memory backend all satisfy these interfaces.
package store

import (
	"context"

	"khata/internal/core"
)

// Unsubscribe releases a snapshot subscription. Safe to call more than once.
type Unsubscribe func()

type (
	// SnapshotWatcher delivers the owner's full subtree on every change.
	// The callback receives a fresh snapshot (never shared mutable state);
	// an owner with no data yields the zero snapshot. The subscription is
	// scoped: callers must invoke the returned Unsubscribe on teardown.
	SnapshotWatcher interface {
		Watch(ctx context.Context, ownerID string, fn func(core.Snapshot)) (Unsubscribe, error)
	}

	// SnapshotReader performs a one-shot read of the owner subtree.
	SnapshotReader interface {
		Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error)
	}

	// OwnerWriter creates or updates the owner's profile record.
	OwnerWriter interface {
		PutProfile(ctx context.Context, ownerID string, p core.Profile) error
	}

	// CustomerWriter mutates the per-customer credit ledger. CreateCustomer
	// returns core.ErrDuplicateCustomer on a name collision; deleting a
	// customer cascades to all of its transactions.
	CustomerWriter interface {
		CreateCustomer(ctx context.Context, ownerID string, c core.Customer) error
		DeleteCustomer(ctx context.Context, ownerID, name string) error
		AddTransaction(ctx context.Context, ownerID, customer string, t core.Transaction) (id string, err error)
		UpdateTransaction(ctx context.Context, ownerID, customer, txnID string, amount core.Amount, typ core.TxnType) error
		DeleteTransaction(ctx context.Context, ownerID, customer, txnID string) error
	}

	// IncomeWriter mutates the daily-income stream, keyed by YYYY-MM-DD.
	IncomeWriter interface {
		AddIncome(ctx context.Context, ownerID, date string, e core.IncomeEntry) (id string, err error)
		UpdateIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error
		DeleteIncome(ctx context.Context, ownerID, date, id string) error
	}
)

// Package adapters bridges the sqlite backend onto the record store ports so
// the HTTP layer works unchanged against SQLite + AMQP instead of the hosted
// store. Watch is served from in-process notifications: every write through
// this adapter reloads the owner snapshot and fans it out.
package adapters

import (
	"context"
	"sync"

	"khata/internal/core"
	"khata/internal/services"
	"khata/internal/storage"
	"khata/internal/store"
)

type SQLiteAdapter struct {
	storage *storage.Repository
	service *services.LedgerService

	mu       sync.Mutex
	watchers map[string]map[int64]func(core.Snapshot)
	nextSub  int64
}

var (
	_ store.SnapshotWatcher = (*SQLiteAdapter)(nil)
	_ store.SnapshotReader  = (*SQLiteAdapter)(nil)
	_ store.OwnerWriter     = (*SQLiteAdapter)(nil)
	_ store.CustomerWriter  = (*SQLiteAdapter)(nil)
	_ store.IncomeWriter    = (*SQLiteAdapter)(nil)
)

func NewSQLiteAdapter(storage *storage.Repository, service *services.LedgerService) *SQLiteAdapter {
	return &SQLiteAdapter{
		storage:  storage,
		service:  service,
		watchers: map[string]map[int64]func(core.Snapshot){},
	}
}

func (a *SQLiteAdapter) Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error) {
	return a.storage.Snapshot(ctx, ownerID)
}

func (a *SQLiteAdapter) Watch(ctx context.Context, ownerID string, fn func(core.Snapshot)) (store.Unsubscribe, error) {
	snap, err := a.storage.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.watchers[ownerID] == nil {
		a.watchers[ownerID] = map[int64]func(core.Snapshot){}
	}
	a.nextSub++
	id := a.nextSub
	a.watchers[ownerID][id] = fn
	a.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.watchers[ownerID], id)
			a.mu.Unlock()
		})
	}, nil
}

func (a *SQLiteAdapter) PutProfile(ctx context.Context, ownerID string, p core.Profile) error {
	if err := a.service.PutProfile(ctx, ownerID, p); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) CreateCustomer(ctx context.Context, ownerID string, c core.Customer) error {
	if err := a.service.CreateCustomer(ctx, ownerID, c); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) DeleteCustomer(ctx context.Context, ownerID, name string) error {
	if err := a.service.DeleteCustomer(ctx, ownerID, name); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) AddTransaction(ctx context.Context, ownerID, customer string, t core.Transaction) (string, error) {
	id, err := a.service.AddTransaction(ctx, ownerID, customer, t)
	if err != nil {
		return "", err
	}
	a.notify(ctx, ownerID)
	return id, nil
}

func (a *SQLiteAdapter) UpdateTransaction(ctx context.Context, ownerID, customer, txnID string, amount core.Amount, typ core.TxnType) error {
	if err := a.service.UpdateTransaction(ctx, ownerID, customer, txnID, amount, typ); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) DeleteTransaction(ctx context.Context, ownerID, customer, txnID string) error {
	if err := a.service.DeleteTransaction(ctx, ownerID, customer, txnID); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) AddIncome(ctx context.Context, ownerID, date string, e core.IncomeEntry) (string, error) {
	id, err := a.service.AddIncome(ctx, ownerID, date, e)
	if err != nil {
		return "", err
	}
	a.notify(ctx, ownerID)
	return id, nil
}

func (a *SQLiteAdapter) UpdateIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	if err := a.service.UpdateIncome(ctx, ownerID, date, id, e); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) DeleteIncome(ctx context.Context, ownerID, date, id string) error {
	if err := a.service.DeleteIncome(ctx, ownerID, date, id); err != nil {
		return err
	}
	a.notify(ctx, ownerID)
	return nil
}

func (a *SQLiteAdapter) notify(ctx context.Context, ownerID string) {
	a.mu.Lock()
	fns := make([]func(core.Snapshot), 0, len(a.watchers[ownerID]))
	for _, fn := range a.watchers[ownerID] {
		fns = append(fns, fn)
	}
	a.mu.Unlock()
	if len(fns) == 0 {
		return
	}

	snap, err := a.storage.Snapshot(ctx, ownerID)
	if err != nil {
		// Watchers keep their previous view; the next successful write
		// delivers a fresh one.
		return
	}
	for _, fn := range fns {
		fn(snap)
	}
}

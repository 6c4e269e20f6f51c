// Package memory implements the record store ports in process memory.
// It is the default backend for local development and the test double for
// everything that consumes snapshots; unlike a stub it honors the push
// contract, notifying every watcher with a fresh snapshot after each write.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"khata/internal/core"
	"khata/internal/store"
)

type Store struct {
	mu       sync.Mutex
	owners   map[string]*core.Snapshot
	watchers map[string]map[int64]func(core.Snapshot)
	nextSub  int64
}

var (
	_ store.SnapshotWatcher = (*Store)(nil)
	_ store.SnapshotReader  = (*Store)(nil)
	_ store.OwnerWriter     = (*Store)(nil)
	_ store.CustomerWriter  = (*Store)(nil)
	_ store.IncomeWriter    = (*Store)(nil)
)

func New() *Store {
	return &Store{
		owners:   map[string]*core.Snapshot{},
		watchers: map[string]map[int64]func(core.Snapshot){},
	}
}

// Watch registers fn and immediately delivers the current snapshot, matching
// the hosted store's behavior of firing the callback on registration.
func (s *Store) Watch(_ context.Context, ownerID string, fn func(core.Snapshot)) (store.Unsubscribe, error) {
	s.mu.Lock()
	if s.watchers[ownerID] == nil {
		s.watchers[ownerID] = map[int64]func(core.Snapshot){}
	}
	s.nextSub++
	id := s.nextSub
	s.watchers[ownerID][id] = fn
	snap := s.copySnapshot(ownerID)
	s.mu.Unlock()

	fn(snap)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers[ownerID], id)
			s.mu.Unlock()
		})
	}, nil
}

func (s *Store) Snapshot(_ context.Context, ownerID string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copySnapshot(ownerID), nil
}

func (s *Store) PutProfile(_ context.Context, ownerID string, p core.Profile) error {
	s.mu.Lock()
	o := s.owner(ownerID)
	o.Name = p.Name
	o.Email = p.Email
	o.CreatedAt = p.CreatedAt
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

func (s *Store) CreateCustomer(_ context.Context, ownerID string, c core.Customer) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	o := s.owner(ownerID)
	if o.Customers == nil {
		o.Customers = map[string]core.Customer{}
	}
	if _, exists := o.Customers[c.Name]; exists {
		s.mu.Unlock()
		return core.ErrDuplicateCustomer
	}
	if c.Transactions == nil {
		c.Transactions = map[string]core.Transaction{}
	}
	o.Customers[c.Name] = c
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, ownerID, name string) error {
	s.mu.Lock()
	o := s.owner(ownerID)
	if _, exists := o.Customers[name]; !exists {
		s.mu.Unlock()
		return core.ErrCustomerNotFound
	}
	delete(o.Customers, name)
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

func (s *Store) AddTransaction(_ context.Context, ownerID, customer string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	o := s.owner(ownerID)
	c, exists := o.Customers[customer]
	if !exists {
		s.mu.Unlock()
		return "", core.ErrCustomerNotFound
	}
	if c.Transactions == nil {
		c.Transactions = map[string]core.Transaction{}
		o.Customers[customer] = c
	}
	id := newKey()
	c.Transactions[id] = t
	s.mu.Unlock()
	s.notify(ownerID)
	return id, nil
}

func (s *Store) UpdateTransaction(_ context.Context, ownerID, customer, txnID string, amount core.Amount, typ core.TxnType) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if !typ.Valid() {
		return core.ErrInvalidType
	}
	s.mu.Lock()
	o := s.owner(ownerID)
	c, exists := o.Customers[customer]
	if !exists {
		s.mu.Unlock()
		return core.ErrCustomerNotFound
	}
	t, exists := c.Transactions[txnID]
	if !exists {
		s.mu.Unlock()
		return core.ErrTransactionNotFound
	}
	t.Amount = amount
	t.Type = typ
	c.Transactions[txnID] = t
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, customer, txnID string) error {
	s.mu.Lock()
	o := s.owner(ownerID)
	c, exists := o.Customers[customer]
	if !exists {
		s.mu.Unlock()
		return core.ErrCustomerNotFound
	}
	if _, exists := c.Transactions[txnID]; !exists {
		s.mu.Unlock()
		return core.ErrTransactionNotFound
	}
	delete(c.Transactions, txnID)
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

func (s *Store) AddIncome(_ context.Context, ownerID, date string, e core.IncomeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	o := s.owner(ownerID)
	if o.DailyIncome == nil {
		o.DailyIncome = map[string]map[string]core.IncomeEntry{}
	}
	if o.DailyIncome[date] == nil {
		o.DailyIncome[date] = map[string]core.IncomeEntry{}
	}
	id := newKey()
	o.DailyIncome[date][id] = e
	s.mu.Unlock()
	s.notify(ownerID)
	return id, nil
}

func (s *Store) UpdateIncome(_ context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	o := s.owner(ownerID)
	entries := o.DailyIncome[date]
	if _, exists := entries[id]; !exists {
		s.mu.Unlock()
		return core.ErrIncomeNotFound
	}
	entries[id] = e
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, ownerID, date, id string) error {
	s.mu.Lock()
	o := s.owner(ownerID)
	entries := o.DailyIncome[date]
	if _, exists := entries[id]; !exists {
		s.mu.Unlock()
		return core.ErrIncomeNotFound
	}
	delete(entries, id)
	if len(entries) == 0 {
		delete(o.DailyIncome, date)
	}
	s.mu.Unlock()
	s.notify(ownerID)
	return nil
}

// owner returns the mutable subtree for ownerID, creating it lazily.
// Callers must hold s.mu.
func (s *Store) owner(ownerID string) *core.Snapshot {
	o, ok := s.owners[ownerID]
	if !ok {
		o = &core.Snapshot{}
		s.owners[ownerID] = o
	}
	return o
}

// copySnapshot deep-copies the owner subtree so watchers and readers never
// observe later mutations. Callers must hold s.mu.
func (s *Store) copySnapshot(ownerID string) core.Snapshot {
	o, ok := s.owners[ownerID]
	if !ok {
		return core.Snapshot{}
	}
	snap := core.Snapshot{
		Name:      o.Name,
		Email:     o.Email,
		CreatedAt: o.CreatedAt,
	}
	if len(o.Customers) > 0 {
		snap.Customers = make(map[string]core.Customer, len(o.Customers))
		for name, c := range o.Customers {
			cc := c
			cc.Transactions = make(map[string]core.Transaction, len(c.Transactions))
			for id, t := range c.Transactions {
				cc.Transactions[id] = t
			}
			snap.Customers[name] = cc
		}
	}
	if len(o.DailyIncome) > 0 {
		snap.DailyIncome = make(map[string]map[string]core.IncomeEntry, len(o.DailyIncome))
		for date, entries := range o.DailyIncome {
			day := make(map[string]core.IncomeEntry, len(entries))
			for id, e := range entries {
				day[id] = e
			}
			snap.DailyIncome[date] = day
		}
	}
	return snap
}

func (s *Store) notify(ownerID string) {
	s.mu.Lock()
	fns := make([]func(core.Snapshot), 0, len(s.watchers[ownerID]))
	for _, fn := range s.watchers[ownerID] {
		fns = append(fns, fn)
	}
	snap := s.copySnapshot(ownerID)
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func newKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Package storage is the local SQLite copy of the ledger. It is the write
// path for the sqlite backend; the sync worker mirrors its rows to the hosted
// record store afterwards.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"khata/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) PutProfile(ctx context.Context, ownerID string, p core.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO owners (id, name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		ownerID, p.Name, p.Email, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert owner: %w", err)
	}
	return nil
}

func (r *Repository) CreateCustomer(ctx context.Context, ownerID string, c core.Customer) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO customers (owner_id, name, phone)
		VALUES (?, ?, ?)
		ON CONFLICT (owner_id, name) DO NOTHING`,
		ownerID, c.Name, c.Phone)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrDuplicateCustomer
	}
	return nil
}

// DeleteCustomer removes the customer row and its transactions in one
// transaction so a crash never leaves orphaned ledger entries.
func (r *Repository) DeleteCustomer(ctx context.Context, ownerID, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM customers WHERE owner_id = ? AND name = ?`, ownerID, name)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrCustomerNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE owner_id = ? AND customer_name = ?`, ownerID, name); err != nil {
		return fmt.Errorf("delete customer transactions: %w", err)
	}
	return tx.Commit()
}

func (r *Repository) InsertTransaction(ctx context.Context, ownerID, customer, id string, t core.Transaction) error {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM customers WHERE owner_id = ? AND name = ?`, ownerID, customer).Scan(&one)
	if err == sql.ErrNoRows {
		return core.ErrCustomerNotFound
	}
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, customer_name, type, amount, date)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, customer, string(t.Type), t.Amount.String(), t.Date)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, ownerID, customer, id string, amount core.Amount, typ core.TxnType) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET amount = ?, type = ?
		WHERE id = ? AND owner_id = ? AND customer_name = ?`,
		amount.String(), string(typ), id, ownerID, customer)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, ownerID, customer, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ? AND customer_name = ?`,
		id, ownerID, customer)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (r *Repository) InsertIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_income (id, owner_id, date, amount, description, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, ownerID, date, e.Amount.String(), e.Description, e.Timestamp)
	if err != nil {
		return fmt.Errorf("insert income entry: %w", err)
	}
	return nil
}

func (r *Repository) UpdateIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE daily_income SET amount = ?, description = ?, timestamp = ?
		WHERE id = ? AND owner_id = ? AND date = ?`,
		e.Amount.String(), e.Description, e.Timestamp, id, ownerID, date)
	if err != nil {
		return fmt.Errorf("update income entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrIncomeNotFound
	}
	return nil
}

func (r *Repository) DeleteIncome(ctx context.Context, ownerID, date, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM daily_income WHERE id = ? AND owner_id = ? AND date = ?`,
		id, ownerID, date)
	if err != nil {
		return fmt.Errorf("delete income entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrIncomeNotFound
	}
	return nil
}

// Snapshot reassembles the owner's full subtree from the relational rows,
// shaped exactly like the hosted store delivers it.
func (r *Repository) Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error) {
	var snap core.Snapshot

	err := r.db.QueryRowContext(ctx,
		`SELECT name, email, created_at FROM owners WHERE id = ?`, ownerID).
		Scan(&snap.Name, &snap.Email, &snap.CreatedAt)
	if err != nil && err != sql.ErrNoRows {
		return core.Snapshot{}, fmt.Errorf("read owner: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, phone FROM customers WHERE owner_id = ?`, ownerID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read customers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c core.Customer
		if err := rows.Scan(&c.Name, &c.Phone); err != nil {
			return core.Snapshot{}, fmt.Errorf("scan customer: %w", err)
		}
		c.Transactions = map[string]core.Transaction{}
		if snap.Customers == nil {
			snap.Customers = map[string]core.Customer{}
		}
		snap.Customers[c.Name] = c
	}
	if err := rows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("iterate customers: %w", err)
	}

	txnRows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_name, type, amount, date FROM transactions WHERE owner_id = ?`, ownerID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read transactions: %w", err)
	}
	defer txnRows.Close()
	for txnRows.Next() {
		var id, customer, typ, amount string
		var t core.Transaction
		if err := txnRows.Scan(&id, &customer, &typ, &amount, &t.Date); err != nil {
			return core.Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		a, err := core.ParseAmount(amount)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("transaction %s amount %q: %w", id, amount, err)
		}
		t.Type = core.TxnType(typ)
		t.Amount = a
		if c, ok := snap.Customers[customer]; ok {
			c.Transactions[id] = t
		}
	}
	if err := txnRows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}

	incRows, err := r.db.QueryContext(ctx,
		`SELECT id, date, amount, description, timestamp FROM daily_income WHERE owner_id = ?`, ownerID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read daily income: %w", err)
	}
	defer incRows.Close()
	for incRows.Next() {
		var id, date, amount string
		var e core.IncomeEntry
		if err := incRows.Scan(&id, &date, &amount, &e.Description, &e.Timestamp); err != nil {
			return core.Snapshot{}, fmt.Errorf("scan income entry: %w", err)
		}
		a, err := core.ParseAmount(amount)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("income entry %s amount %q: %w", id, amount, err)
		}
		e.Amount = a
		if snap.DailyIncome == nil {
			snap.DailyIncome = map[string]map[string]core.IncomeEntry{}
		}
		if snap.DailyIncome[date] == nil {
			snap.DailyIncome[date] = map[string]core.IncomeEntry{}
		}
		snap.DailyIncome[date][id] = e
	}
	if err := incRows.Err(); err != nil {
		return core.Snapshot{}, fmt.Errorf("iterate daily income: %w", err)
	}

	return snap, nil
}

// Transaction reads one ledger entry, for the sync worker's change handler.
func (r *Repository) Transaction(ctx context.Context, ownerID, customer, id string) (core.Transaction, error) {
	var typ, amount string
	var t core.Transaction
	err := r.db.QueryRowContext(ctx,
		`SELECT type, amount, date FROM transactions WHERE id = ? AND owner_id = ? AND customer_name = ?`,
		id, ownerID, customer).Scan(&typ, &amount, &t.Date)
	if err == sql.ErrNoRows {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("read transaction: %w", err)
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s amount %q: %w", id, amount, err)
	}
	t.Type = core.TxnType(typ)
	t.Amount = a
	return t, nil
}

// Customer reads one customer row without its transactions.
func (r *Repository) Customer(ctx context.Context, ownerID, name string) (core.Customer, error) {
	var c core.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT name, phone FROM customers WHERE owner_id = ? AND name = ?`,
		ownerID, name).Scan(&c.Name, &c.Phone)
	if err == sql.ErrNoRows {
		return core.Customer{}, core.ErrCustomerNotFound
	}
	if err != nil {
		return core.Customer{}, fmt.Errorf("read customer: %w", err)
	}
	return c, nil
}

// Income reads one income entry, for the sync worker's change handler.
func (r *Repository) Income(ctx context.Context, ownerID, date, id string) (core.IncomeEntry, error) {
	var amount string
	var e core.IncomeEntry
	err := r.db.QueryRowContext(ctx,
		`SELECT amount, description, timestamp FROM daily_income WHERE id = ? AND owner_id = ? AND date = ?`,
		id, ownerID, date).Scan(&amount, &e.Description, &e.Timestamp)
	if err == sql.ErrNoRows {
		return core.IncomeEntry{}, core.ErrIncomeNotFound
	}
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("read income entry: %w", err)
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("income entry %s amount %q: %w", id, amount, err)
	}
	e.Amount = a
	return e, nil
}

// Owners lists every owner id with local data, for periodic reconciliation.
func (r *Repository) Owners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM owners
		UNION SELECT DISTINCT owner_id FROM customers
		UNION SELECT DISTINCT owner_id FROM daily_income`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

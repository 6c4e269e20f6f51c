// Package firebase adapts the hosted Realtime Database to the record store
// ports. The Admin SDK has no streaming listener, so Watch polls the owner
// subtree and fans out only when the payload actually changed.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	fb "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"khata/internal/core"
	"khata/internal/store"
)

const defaultPollInterval = 3 * time.Second

type Client struct {
	db           *db.Client
	auth         *fbauth.Client
	pollInterval time.Duration
}

var (
	_ store.SnapshotWatcher = (*Client)(nil)
	_ store.SnapshotReader  = (*Client)(nil)
	_ store.OwnerWriter     = (*Client)(nil)
	_ store.CustomerWriter  = (*Client)(nil)
	_ store.IncomeWriter    = (*Client)(nil)
)

// Config carries the project settings resolved by the config package.
type Config struct {
	CredentialsFile string
	CredentialsJSON string
	DatabaseURL     string
	ProjectID       string
	PollInterval    time.Duration
}

// New initializes the Admin SDK app plus its database and auth clients.
// Credentials come from an explicit file or inline JSON; with neither set the
// SDK falls back to Application Default Credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, errors.New("missing database URL")
	}

	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := fb.NewApp(ctx, &fb.Config{
		DatabaseURL: cfg.DatabaseURL,
		ProjectID:   cfg.ProjectID,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	dbc, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase database client: %w", err)
	}
	authc, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth client: %w", err)
	}

	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Client{db: dbc, auth: authc, pollInterval: poll}, nil
}

// Auth exposes the auth client for ID-token verification.
func (c *Client) Auth() *fbauth.Client { return c.auth }

func (c *Client) ownerRef(ownerID string) *db.Ref {
	return c.db.NewRef("owners/" + ownerID)
}

func (c *Client) Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error) {
	var snap core.Snapshot
	if err := c.ownerRef(ownerID).Get(ctx, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("read owner subtree: %w", err)
	}
	return snap, nil
}

// Watch polls the owner subtree at the configured interval and invokes fn
// whenever the marshaled payload differs from the previous one. The first
// delivery happens immediately, like the hosted listener's registration
// callback. Poll errors are logged and retried, not surfaced.
func (c *Client) Watch(ctx context.Context, ownerID string, fn func(core.Snapshot)) (store.Unsubscribe, error) {
	snap, err := c.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	fingerprint, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("fingerprint snapshot: %w", err)
	}
	fn(snap)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			next, err := c.Snapshot(ctx, ownerID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.WarnContext(ctx, "owner subtree poll failed", "owner_id", ownerID, "error", err)
				continue
			}
			nextPrint, err := json.Marshal(next)
			if err != nil {
				slog.WarnContext(ctx, "owner subtree fingerprint failed", "owner_id", ownerID, "error", err)
				continue
			}
			if bytes.Equal(nextPrint, fingerprint) {
				continue
			}
			fingerprint = nextPrint
			fn(next)
		}
	}()
	return store.Unsubscribe(cancel), nil
}

func (c *Client) PutProfile(ctx context.Context, ownerID string, p core.Profile) error {
	fields := map[string]interface{}{
		"name":  p.Name,
		"email": p.Email,
	}
	if p.CreatedAt != "" {
		fields["createdAt"] = p.CreatedAt
	}
	// Update, not Set: a profile write must never clobber customers or income.
	if err := c.ownerRef(ownerID).Update(ctx, fields); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func (c *Client) CreateCustomer(ctx context.Context, ownerID string, cust core.Customer) error {
	if err := cust.Validate(); err != nil {
		return err
	}
	ref := c.ownerRef(ownerID).Child("customers").Child(cust.Name)
	var existing interface{}
	if err := ref.Get(ctx, &existing); err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if existing != nil {
		return core.ErrDuplicateCustomer
	}
	if err := ref.Set(ctx, cust); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (c *Client) DeleteCustomer(ctx context.Context, ownerID, name string) error {
	ref := c.ownerRef(ownerID).Child("customers").Child(name)
	var existing interface{}
	if err := ref.Get(ctx, &existing); err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if existing == nil {
		return core.ErrCustomerNotFound
	}
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

func (c *Client) AddTransaction(ctx context.Context, ownerID, customer string, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	custRef := c.ownerRef(ownerID).Child("customers").Child(customer)
	var existing interface{}
	if err := custRef.Get(ctx, &existing); err != nil {
		return "", fmt.Errorf("check customer: %w", err)
	}
	if existing == nil {
		return "", core.ErrCustomerNotFound
	}
	ref, err := custRef.Child("transactions").Push(ctx, t)
	if err != nil {
		return "", fmt.Errorf("push transaction: %w", err)
	}
	return ref.Key, nil
}

func (c *Client) UpdateTransaction(ctx context.Context, ownerID, customer, txnID string, amount core.Amount, typ core.TxnType) error {
	if !amount.IsPositive() {
		return core.ErrInvalidAmount
	}
	if !typ.Valid() {
		return core.ErrInvalidType
	}
	ref := c.ownerRef(ownerID).Child("customers").Child(customer).Child("transactions").Child(txnID)
	var existing core.Transaction
	if err := ref.Get(ctx, &existing); err != nil {
		return fmt.Errorf("check transaction: %w", err)
	}
	if existing.Date == "" {
		return core.ErrTransactionNotFound
	}
	// Amount and type only; the original date stays so edits never move the
	// entry across report buckets.
	if err := ref.Update(ctx, map[string]interface{}{
		"amount": amount,
		"type":   typ,
	}); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (c *Client) DeleteTransaction(ctx context.Context, ownerID, customer, txnID string) error {
	ref := c.ownerRef(ownerID).Child("customers").Child(customer).Child("transactions").Child(txnID)
	var existing core.Transaction
	if err := ref.Get(ctx, &existing); err != nil {
		return fmt.Errorf("check transaction: %w", err)
	}
	if existing.Date == "" {
		return core.ErrTransactionNotFound
	}
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (c *Client) AddIncome(ctx context.Context, ownerID, date string, e core.IncomeEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	ref, err := c.ownerRef(ownerID).Child("dailyIncome").Child(date).Push(ctx, e)
	if err != nil {
		return "", fmt.Errorf("push income entry: %w", err)
	}
	return ref.Key, nil
}

func (c *Client) UpdateIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	ref := c.ownerRef(ownerID).Child("dailyIncome").Child(date).Child(id)
	var existing core.IncomeEntry
	if err := ref.Get(ctx, &existing); err != nil {
		return fmt.Errorf("check income entry: %w", err)
	}
	if existing.Timestamp == "" {
		return core.ErrIncomeNotFound
	}
	if err := ref.Set(ctx, e); err != nil {
		return fmt.Errorf("update income entry: %w", err)
	}
	return nil
}

func (c *Client) DeleteIncome(ctx context.Context, ownerID, date, id string) error {
	ref := c.ownerRef(ownerID).Child("dailyIncome").Child(date).Child(id)
	var existing core.IncomeEntry
	if err := ref.Get(ctx, &existing); err != nil {
		return fmt.Errorf("check income entry: %w", err)
	}
	if existing.Timestamp == "" {
		return core.ErrIncomeNotFound
	}
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("delete income entry: %w", err)
	}
	return nil
}

package firebase

import (
	"context"
	"fmt"

	"khata/internal/core"
)

// Mirror write methods used by the sync worker. Unlike the push-id writers
// above, these address entities by their existing keys so the hosted subtree
// converges on the local SQLite state.

// UpsertCustomer writes name and phone without touching the transactions
// child node.
func (c *Client) UpsertCustomer(ctx context.Context, ownerID string, cust core.Customer) error {
	err := c.ownerRef(ownerID).Child("customers").Child(cust.Name).Update(ctx, map[string]interface{}{
		"name":  cust.Name,
		"phone": cust.Phone,
	})
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

func (c *Client) SetTransaction(ctx context.Context, ownerID, customer, id string, t core.Transaction) error {
	ref := c.ownerRef(ownerID).Child("customers").Child(customer).Child("transactions").Child(id)
	if err := ref.Set(ctx, t); err != nil {
		return fmt.Errorf("set transaction: %w", err)
	}
	return nil
}

func (c *Client) SetIncome(ctx context.Context, ownerID, date, id string, e core.IncomeEntry) error {
	ref := c.ownerRef(ownerID).Child("dailyIncome").Child(date).Child(id)
	if err := ref.Set(ctx, e); err != nil {
		return fmt.Errorf("set income entry: %w", err)
	}
	return nil
}

// SetSnapshot replaces the owner's entire subtree, the reconciliation path.
func (c *Client) SetSnapshot(ctx context.Context, ownerID string, snap core.Snapshot) error {
	if err := c.ownerRef(ownerID).Set(ctx, snap); err != nil {
		return fmt.Errorf("set owner subtree: %w", err)
	}
	return nil
}

func (c *Client) RemoveCustomer(ctx context.Context, ownerID, name string) error {
	if err := c.ownerRef(ownerID).Child("customers").Child(name).Delete(ctx); err != nil {
		return fmt.Errorf("remove customer: %w", err)
	}
	return nil
}

func (c *Client) RemoveTransaction(ctx context.Context, ownerID, customer, id string) error {
	ref := c.ownerRef(ownerID).Child("customers").Child(customer).Child("transactions").Child(id)
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("remove transaction: %w", err)
	}
	return nil
}

func (c *Client) RemoveIncome(ctx context.Context, ownerID, date, id string) error {
	ref := c.ownerRef(ownerID).Child("dailyIncome").Child(date).Child(id)
	if err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("remove income entry: %w", err)
	}
	return nil
}

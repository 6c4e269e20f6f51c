package core

import "sort"

// LedgerRow is one line of a customer's displayed ledger: the transaction
// plus the balance outstanding after it was applied.
type LedgerRow struct {
	ID string
	Transaction
	Running Amount
}

// Stats summarizes a customer's activity for the directory views.
type Stats struct {
	TxnCount  int
	FirstDate string // date key of the oldest transaction, "" if none
	LastDate  string // date key of the newest transaction, "" if none
}

// Balance folds a customer's transactions into the outstanding due amount.
// Positive means the customer owes the owner, negative means the owner owes
// the customer. The fold is a sum of signed amounts, so iteration order is
// irrelevant and an empty or nil set yields zero.
func Balance(txns map[string]Transaction) Amount {
	total := Zero
	for _, t := range txns {
		switch t.Type {
		case TxnAdd:
			total = total.Add(t.Amount)
		case TxnPay:
			total = total.Sub(t.Amount)
		}
	}
	return total
}

// RunningLedger returns the customer's transactions newest-first, each row
// carrying the balance after that transaction in chronological order. The
// running sum is accumulated oldest-first and the rows reversed afterwards,
// so the top row always shows the customer's current balance.
func RunningLedger(txns map[string]Transaction) []LedgerRow {
	rows := make([]LedgerRow, 0, len(txns))
	for id, t := range txns {
		rows = append(rows, LedgerRow{ID: id, Transaction: t})
	}
	// Chronological ascending; push ids break ties deterministically.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].ID < rows[j].ID
	})

	running := Zero
	for i := range rows {
		if rows[i].Type == TxnAdd {
			running = running.Add(rows[i].Amount)
		} else {
			running = running.Sub(rows[i].Amount)
		}
		rows[i].Running = running
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}

// FilterLedger keeps only the rows whose event date starts with the given
// YYYY-MM-DD prefix. Running balances are preserved from the full ledger.
func FilterLedger(rows []LedgerRow, date string) []LedgerRow {
	if date == "" {
		return rows
	}
	out := make([]LedgerRow, 0, len(rows))
	for _, r := range rows {
		if DateKey(r.Date) == date {
			out = append(out, r)
		}
	}
	return out
}

// CustomerStats derives directory-card figures for one customer.
func CustomerStats(c Customer) Stats {
	s := Stats{TxnCount: len(c.Transactions)}
	for _, t := range c.Transactions {
		d := DateKey(t.Date)
		if s.FirstDate == "" || d < s.FirstDate {
			s.FirstDate = d
		}
		if d > s.LastDate {
			s.LastDate = d
		}
	}
	return s
}

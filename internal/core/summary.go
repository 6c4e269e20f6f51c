package core

import (
	"sort"
	"time"
)

type (
	// EventKind discriminates the two event streams that feed a summary.
	EventKind string

	// Event is one contributing entry in a day's or month's activity,
	// flattened for the detail views.
	Event struct {
		Kind        EventKind
		Customer    string  // customer name, transaction events only
		Phone       string  // customer phone, transaction events only
		Description string  // income events only
		Type        TxnType // transaction events only
		Amount      Amount
		Time        string // full event timestamp
	}

	// DailySummary aggregates one calendar day of activity across every
	// customer plus the daily-income stream.
	DailySummary struct {
		Date     string // YYYY-MM-DD
		Received Amount // payments from customers
		Added    Amount // credit given
		Income   Amount // daily cash income
		Txns     int    // contributing events
		Net      Amount // received + income - added
		Events   []Event
	}

	// MonthlySummary is the same aggregation over a calendar month.
	MonthlySummary struct {
		Month    string // YYYY-MM
		Received Amount
		Added    Amount
		Income   Amount
		Txns     int
		Net      Amount
	}

	// Totals are the all-time figures for the reports screen.
	Totals struct {
		Received    Amount // sum of all payments
		DueGiven    Amount // sum of all credit given
		DailyIncome Amount // sum of all income entries
		OverallNet  Amount // received + dailyIncome - dueGiven
		DueAll      Amount // sum of per-customer balances
	}
)

const (
	EventTransaction EventKind = "transaction"
	EventIncome      EventKind = "income"
)

// DailySummaries buckets every transaction and income entry by calendar day
// and returns one summary per day with activity, newest day first. Bucketing
// uses the first 10 characters of each event's own time field, so the two
// streams' differing field names never leak into the aggregation.
func DailySummaries(s Snapshot) []DailySummary {
	buckets := map[string]*DailySummary{}
	bucket := func(day string) *DailySummary {
		b, ok := buckets[day]
		if !ok {
			b = &DailySummary{Date: day}
			buckets[day] = b
		}
		return b
	}

	for _, cust := range s.Customers {
		for _, t := range cust.Transactions {
			b := bucket(DateKey(t.EventTime()))
			switch t.Type {
			case TxnPay:
				b.Received = b.Received.Add(t.Amount)
			case TxnAdd:
				b.Added = b.Added.Add(t.Amount)
			}
			b.Txns++
			b.Events = append(b.Events, Event{
				Kind:     EventTransaction,
				Customer: cust.Name,
				Phone:    cust.Phone,
				Type:     t.Type,
				Amount:   t.Amount,
				Time:     t.EventTime(),
			})
		}
	}
	for _, entries := range s.DailyIncome {
		for _, e := range entries {
			b := bucket(DateKey(e.EventTime()))
			b.Income = b.Income.Add(e.Amount)
			b.Txns++
			b.Events = append(b.Events, Event{
				Kind:        EventIncome,
				Description: e.Description,
				Amount:      e.Amount,
				Time:        e.EventTime(),
			})
		}
	}

	out := make([]DailySummary, 0, len(buckets))
	for _, b := range buckets {
		b.Net = b.Received.Add(b.Income).Sub(b.Added)
		sort.Slice(b.Events, func(i, j int) bool { return b.Events[i].Time > b.Events[j].Time })
		out = append(out, *b)
	}
	// Lexicographic descending on YYYY-MM-DD is chronological descending.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

// MonthlySummaries aggregates by calendar month (first 7 characters of the
// event time), newest month first.
func MonthlySummaries(s Snapshot) []MonthlySummary {
	buckets := map[string]*MonthlySummary{}
	bucket := func(month string) *MonthlySummary {
		b, ok := buckets[month]
		if !ok {
			b = &MonthlySummary{Month: month}
			buckets[month] = b
		}
		return b
	}

	for _, cust := range s.Customers {
		for _, t := range cust.Transactions {
			b := bucket(MonthKey(t.EventTime()))
			switch t.Type {
			case TxnPay:
				b.Received = b.Received.Add(t.Amount)
			case TxnAdd:
				b.Added = b.Added.Add(t.Amount)
			}
			b.Txns++
		}
	}
	for _, entries := range s.DailyIncome {
		for _, e := range entries {
			b := bucket(MonthKey(e.EventTime()))
			b.Income = b.Income.Add(e.Amount)
			b.Txns++
		}
	}

	out := make([]MonthlySummary, 0, len(buckets))
	for _, b := range buckets {
		b.Net = b.Received.Add(b.Income).Sub(b.Added)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month > out[j].Month })
	return out
}

// MonthSummary returns the summary for one YYYY-MM month, zero-valued when
// the month has no activity.
func MonthSummary(s Snapshot, month string) MonthlySummary {
	for _, m := range MonthlySummaries(s) {
		if m.Month == month {
			return m
		}
	}
	return MonthlySummary{Month: month}
}

// ComputeTotals derives the all-time figures. DueAll is computed per customer
// and then summed, so customers without transactions contribute exactly zero.
func ComputeTotals(s Snapshot) Totals {
	var t Totals
	for _, cust := range s.Customers {
		for _, txn := range cust.Transactions {
			switch txn.Type {
			case TxnPay:
				t.Received = t.Received.Add(txn.Amount)
			case TxnAdd:
				t.DueGiven = t.DueGiven.Add(txn.Amount)
			}
		}
		t.DueAll = t.DueAll.Add(Balance(cust.Transactions))
	}
	for _, entries := range s.DailyIncome {
		for _, e := range entries {
			t.DailyIncome = t.DailyIncome.Add(e.Amount)
		}
	}
	t.OverallNet = t.Received.Add(t.DailyIncome).Sub(t.DueGiven)
	return t
}

// AvailableMonths lists every distinct YYYY-MM with activity, newest first.
func AvailableMonths(s Snapshot) []string {
	seen := map[string]struct{}{}
	for _, cust := range s.Customers {
		for _, t := range cust.Transactions {
			seen[MonthKey(t.EventTime())] = struct{}{}
		}
	}
	for _, entries := range s.DailyIncome {
		for _, e := range entries {
			seen[MonthKey(e.EventTime())] = struct{}{}
		}
	}
	months := make([]string, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// DefaultMonth picks the month a report should open on: the current calendar
// month when it has activity, otherwise the most recent available month.
// Returns "" when there is no activity at all.
func DefaultMonth(months []string, now time.Time) string {
	if len(months) == 0 {
		return ""
	}
	current := now.UTC().Format("2006-01")
	for _, m := range months {
		if m == current {
			return m
		}
	}
	return months[0]
}

// CountOn counts customer transactions dated on the given YYYY-MM-DD day,
// the dashboard's "today's transactions" figure.
func CountOn(s Snapshot, date string) int {
	n := 0
	for _, cust := range s.Customers {
		for _, t := range cust.Transactions {
			if DateKey(t.EventTime()) == date {
				n++
			}
		}
	}
	return n
}

package core

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// amountCmp compares Amounts by value so 300 and 300.00 are equal.
var amountCmp = cmp.Comparer(func(a, b Amount) bool { return a.Equal(b) })

func income(units int64, desc, ts string) IncomeEntry {
	return IncomeEntry{Amount: NewAmount(units), Description: desc, Timestamp: ts}
}

func testSnapshot() Snapshot {
	return Snapshot{
		Name: "Boss",
		Customers: map[string]Customer{
			"Karim": {
				Name:  "Karim",
				Phone: "01711",
				Transactions: map[string]Transaction{
					"t1": txn(TxnAdd, 1000, "2024-01-05T09:00:00Z"),
					"t2": txn(TxnPay, 400, "2024-01-10T09:00:00Z"),
					"t3": txn(TxnAdd, 200, "2024-02-01T09:00:00Z"),
				},
			},
			"Rahim": {Name: "Rahim", Phone: "01822"}, // no transactions
		},
		DailyIncome: map[string]map[string]IncomeEntry{
			"2024-01-10": {
				"e1": income(30, "Counter sales", "2024-01-10T18:00:00Z"),
			},
		},
	}
}

func TestDailySummariesSameDay(t *testing.T) {
	// Payment of 100 and credit of 40 on one date, plus income of 30:
	// net = 100 + 30 - 40 = 90 and three contributing events.
	s := Snapshot{
		Customers: map[string]Customer{
			"A": {Name: "A", Phone: "1", Transactions: map[string]Transaction{
				"p": txn(TxnPay, 100, "2024-05-02T10:00:00Z"),
				"a": txn(TxnAdd, 40, "2024-05-02T11:00:00Z"),
			}},
		},
		DailyIncome: map[string]map[string]IncomeEntry{
			"2024-05-02": {"e": income(30, "sales", "2024-05-02T19:00:00Z")},
		},
	}
	days := DailySummaries(s)
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}
	want := DailySummary{
		Date:     "2024-05-02",
		Received: NewAmount(100),
		Added:    NewAmount(40),
		Income:   NewAmount(30),
		Txns:     3,
		Net:      NewAmount(90),
	}
	got := days[0]
	if len(got.Events) != 3 {
		t.Fatalf("got %d events, want 3", len(got.Events))
	}
	if diff := cmp.Diff(want, got, amountCmp, cmpopts.IgnoreFields(DailySummary{}, "Events")); diff != "" {
		t.Fatalf("daily summary mismatch (-want +got):\n%s", diff)
	}
	// Events come newest-first for the detail modal.
	if got.Events[0].Kind != EventIncome {
		t.Fatalf("newest event should be the income entry, got %v", got.Events[0].Kind)
	}
}

func TestDailySummariesOrdering(t *testing.T) {
	days := DailySummaries(testSnapshot())
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	for i := 1; i < len(days); i++ {
		if days[i-1].Date <= days[i].Date {
			t.Fatalf("days not descending: %s before %s", days[i-1].Date, days[i].Date)
		}
	}
	if days[0].Date != "2024-02-01" || days[2].Date != "2024-01-05" {
		t.Fatalf("unexpected day range: %s .. %s", days[0].Date, days[2].Date)
	}
}

func TestMonthlySummariesBucketing(t *testing.T) {
	// First and last day of May share a bucket; June 1st does not.
	s := Snapshot{
		Customers: map[string]Customer{
			"A": {Name: "A", Phone: "1", Transactions: map[string]Transaction{
				"m1": txn(TxnAdd, 10, "2024-05-01T00:00:00Z"),
				"m2": txn(TxnAdd, 20, "2024-05-31T23:59:59Z"),
				"m3": txn(TxnAdd, 40, "2024-06-01T00:00:00Z"),
			}},
		},
	}
	months := MonthlySummaries(s)
	if len(months) != 2 {
		t.Fatalf("got %d months, want 2", len(months))
	}
	if months[0].Month != "2024-06" || months[1].Month != "2024-05" {
		t.Fatalf("month order: %s, %s", months[0].Month, months[1].Month)
	}
	if !months[1].Added.Equal(NewAmount(30)) {
		t.Fatalf("2024-05 added = %s, want 30", months[1].Added)
	}
}

func TestMonthlySummaryUniformTimeFields(t *testing.T) {
	// Transactions carry "date", income entries carry "timestamp"; both
	// must land in the same month bucket.
	s := Snapshot{
		Customers: map[string]Customer{
			"A": {Name: "A", Phone: "1", Transactions: map[string]Transaction{
				"p": txn(TxnPay, 400, "2024-01-10T09:00:00Z"),
			}},
		},
		DailyIncome: map[string]map[string]IncomeEntry{
			"2024-01-15": {"e": income(50, "sales", "2024-01-15T12:00:00Z")},
		},
	}
	m := MonthSummary(s, "2024-01")
	if !m.Received.Equal(NewAmount(400)) || !m.Income.Equal(NewAmount(50)) {
		t.Fatalf("month 2024-01 = %+v", m)
	}
	if m.Txns != 2 {
		t.Fatalf("txns = %d, want 2", m.Txns)
	}
}

func TestKarimScenario(t *testing.T) {
	s := testSnapshot()

	if got := Balance(s.Customers["Karim"].Transactions); !got.Equal(NewAmount(800)) {
		t.Fatalf("Karim balance = %s, want 800", got)
	}

	days := DailySummaries(s)
	byDate := map[string]DailySummary{}
	for _, d := range days {
		byDate[d.Date] = d
	}
	if d := byDate["2024-01-05"]; !d.Added.Equal(NewAmount(1000)) {
		t.Fatalf("Jan 5 added = %s, want 1000", d.Added)
	}
	if d := byDate["2024-01-10"]; !d.Received.Equal(NewAmount(400)) {
		t.Fatalf("Jan 10 received = %s, want 400", d.Received)
	}

	jan := MonthSummary(s, "2024-01")
	if !jan.Added.Equal(NewAmount(1000)) || !jan.Received.Equal(NewAmount(400)) {
		t.Fatalf("2024-01 = %+v", jan)
	}
	// net includes the 30 income entry: 400 + 30 - 1000.
	if !jan.Net.Equal(NewAmount(-570)) {
		t.Fatalf("2024-01 net = %s, want -570", jan.Net)
	}

	feb := MonthSummary(s, "2024-02")
	if !feb.Added.Equal(NewAmount(200)) || !feb.Net.Equal(NewAmount(-200)) {
		t.Fatalf("2024-02 = %+v", feb)
	}
}

func TestKarimScenarioWithoutIncome(t *testing.T) {
	// Same ledger with no income entries: January net is pure
	// transactions, 400 - 1000.
	s := testSnapshot()
	s.DailyIncome = nil

	jan := MonthSummary(s, "2024-01")
	if !jan.Income.IsZero() {
		t.Fatalf("2024-01 income = %s, want 0", jan.Income)
	}
	if !jan.Net.Equal(NewAmount(-600)) {
		t.Fatalf("2024-01 net = %s, want -600", jan.Net)
	}

	days := DailySummaries(s)
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	for _, d := range days {
		if !d.Income.IsZero() {
			t.Fatalf("%s income = %s, want 0", d.Date, d.Income)
		}
	}
}

func TestTotalsAccountingIdentity(t *testing.T) {
	s := testSnapshot()
	tot := ComputeTotals(s)

	if !tot.Received.Equal(NewAmount(400)) {
		t.Fatalf("received = %s", tot.Received)
	}
	if !tot.DueGiven.Equal(NewAmount(1200)) {
		t.Fatalf("dueGiven = %s", tot.DueGiven)
	}
	if !tot.DailyIncome.Equal(NewAmount(30)) {
		t.Fatalf("dailyIncome = %s", tot.DailyIncome)
	}

	// overallNet = received + dailyIncome - dueGiven, exactly.
	want := tot.Received.Add(tot.DailyIncome).Sub(tot.DueGiven)
	if !tot.OverallNet.Equal(want) {
		t.Fatalf("overallNet = %s, want %s", tot.OverallNet, want)
	}

	// DueAll tolerates Rahim's empty ledger.
	if !tot.DueAll.Equal(NewAmount(800)) {
		t.Fatalf("dueAll = %s, want 800", tot.DueAll)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	s := testSnapshot()
	first := DailySummaries(s)
	second := DailySummaries(s)
	if diff := cmp.Diff(first, second, amountCmp); diff != "" {
		t.Fatalf("recompute differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(ComputeTotals(s), ComputeTotals(s), amountCmp); diff != "" {
		t.Fatalf("totals recompute differs:\n%s", diff)
	}
}

func TestEmptySnapshot(t *testing.T) {
	var s Snapshot
	if got := DailySummaries(s); len(got) != 0 {
		t.Fatalf("expected no daily summaries, got %d", len(got))
	}
	if got := MonthlySummaries(s); len(got) != 0 {
		t.Fatalf("expected no monthly summaries, got %d", len(got))
	}
	tot := ComputeTotals(s)
	if !tot.Received.IsZero() || !tot.DueGiven.IsZero() || !tot.DailyIncome.IsZero() ||
		!tot.OverallNet.IsZero() || !tot.DueAll.IsZero() {
		t.Fatalf("totals not all zero: %+v", tot)
	}
	if months := AvailableMonths(s); len(months) != 0 {
		t.Fatalf("expected no months, got %v", months)
	}
}

func TestAvailableMonthsAndDefault(t *testing.T) {
	s := testSnapshot()
	months := AvailableMonths(s)
	want := []string{"2024-02", "2024-01"}
	if diff := cmp.Diff(want, months); diff != "" {
		t.Fatalf("months mismatch (-want +got):\n%s", diff)
	}

	// Current month present: it wins.
	feb := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	if got := DefaultMonth(months, feb); got != "2024-02" {
		t.Fatalf("default = %s, want 2024-02", got)
	}
	// Current month absent: most recent available wins.
	later := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	if got := DefaultMonth(months, later); got != "2024-02" {
		t.Fatalf("default = %s, want 2024-02", got)
	}
	if got := DefaultMonth(nil, later); got != "" {
		t.Fatalf("default of no months = %q, want empty", got)
	}
}

func TestCountOn(t *testing.T) {
	s := testSnapshot()
	if got := CountOn(s, "2024-01-05"); got != 1 {
		t.Fatalf("count = %d, want 1", got)
	}
	if got := CountOn(s, "2024-03-01"); got != 0 {
		t.Fatalf("count = %d, want 0", got)
	}
}

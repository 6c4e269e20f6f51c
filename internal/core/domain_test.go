package core

import (
	"errors"
	"testing"
)

func TestTransactionValidate(t *testing.T) {
	good := txn(TxnAdd, 100, "2024-01-05T09:00:00Z")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		t    Transaction
		want error
	}{
		{"bad type", Transaction{Type: "loan", Amount: NewAmount(1), Date: "2024-01-05T09:00:00Z"}, ErrInvalidType},
		{"zero amount", Transaction{Type: TxnAdd, Date: "2024-01-05T09:00:00Z"}, ErrInvalidAmount},
		{"negative amount", Transaction{Type: TxnPay, Amount: NewAmount(-5), Date: "2024-01-05T09:00:00Z"}, ErrInvalidAmount},
		{"short date", Transaction{Type: TxnAdd, Amount: NewAmount(1), Date: "2024"}, ErrInvalidDate},
	}
	for _, tc := range cases {
		if err := tc.t.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestIncomeEntryValidate(t *testing.T) {
	good := income(30, "sales", "2024-01-10T18:00:00Z")
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (IncomeEntry{Timestamp: "2024-01-10T18:00:00Z"}).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("expected ErrInvalidAmount for zero amount")
	}
	if err := (IncomeEntry{Amount: NewAmount(1)}).Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatal("expected ErrInvalidDate for missing timestamp")
	}
}

func TestCustomerValidate(t *testing.T) {
	if err := (Customer{Name: "Karim", Phone: "01711"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Customer{Phone: "01711"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatal("expected ErrEmptyName")
	}
	if err := (Customer{Name: "  ", Phone: "01711"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatal("expected ErrEmptyName for whitespace name")
	}
	if err := (Customer{Name: "Karim"}).Validate(); !errors.Is(err, ErrEmptyPhone) {
		t.Fatal("expected ErrEmptyPhone")
	}
}

func TestDateAndMonthKeys(t *testing.T) {
	if got := DateKey("2024-05-02T10:00:00Z"); got != "2024-05-02" {
		t.Fatalf("DateKey = %s", got)
	}
	if got := MonthKey("2024-05-02T10:00:00Z"); got != "2024-05" {
		t.Fatalf("MonthKey = %s", got)
	}
	// Degenerate inputs pass through untouched.
	if got := DateKey("2024"); got != "2024" {
		t.Fatalf("short DateKey = %s", got)
	}
	if got := MonthKey("20"); got != "20" {
		t.Fatalf("short MonthKey = %s", got)
	}
}

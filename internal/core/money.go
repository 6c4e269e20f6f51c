// Package core implements the ledger engine: balances, running ledgers and
// daily/monthly aggregation over an owner's snapshot. Everything in this
// package is a pure function of its inputs.
//
// This file holds the fixed-precision amount type and its parsing rules.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-precision monetary value. It wraps a decimal so that
// sums over thousands of entries never accumulate floating-point drift.
//
// On the wire it is a plain JSON number, matching the records the hosted
// store already holds; unmarshaling accepts both numbers and strings.
type Amount struct {
	decimal.Decimal
}

// Zero is the additive identity for Amount.
var Zero = Amount{}

// NewAmount builds an Amount from whole currency units.
func NewAmount(units int64) Amount {
	return Amount{decimal.NewFromInt(units)}
}

// MarshalJSON emits the amount as an unquoted number for store compatibility.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

// UnmarshalJSON accepts both raw JSON numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.Decimal.UnmarshalJSON(data)
}

func (a Amount) Add(b Amount) Amount { return Amount{a.Decimal.Add(b.Decimal)} }
func (a Amount) Sub(b Amount) Amount { return Amount{a.Decimal.Sub(b.Decimal)} }

func (a Amount) IsPositive() bool { return a.Decimal.IsPositive() }
func (a Amount) IsNegative() bool { return a.Decimal.IsNegative() }
func (a Amount) IsZero() bool     { return a.Decimal.IsZero() }

// Equal reports value equality regardless of internal exponent, so 300 and
// 300.00 compare equal.
func (a Amount) Equal(b Amount) bool { return a.Decimal.Equal(b.Decimal) }

func (a Amount) String() string { return a.Decimal.String() }

// ParseAmount parses a user-supplied amount. It accepts both dot and comma
// decimal separators and rejects anything non-numeric, zero or negative:
// invalid amounts are stopped here, before any write reaches the store.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return Zero, ErrInvalidAmount
	}
	return Amount{d}, nil
}

package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"500", "500", true},
		{"12.34", "12.34", true},
		{"12,34", "12.34", true},
		{" 2.50 ", "2.5", true},
		{"0.01", "0.01", true},
		{"0", "", false},
		{"-1", "", false},
		{"+5", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"  ", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestAmountJSONWireForm(t *testing.T) {
	// The store holds amounts as JSON numbers; marshaling must not quote.
	a, err := ParseAmount("12.5")
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "12.5" {
		t.Fatalf("marshaled %s, want 12.5", b)
	}

	// Unmarshaling accepts both numbers and legacy quoted strings.
	var fromNumber, fromString Amount
	if err := json.Unmarshal([]byte(`250`), &fromNumber); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"250"`), &fromString); err != nil {
		t.Fatal(err)
	}
	if !fromNumber.Equal(fromString) || !fromNumber.Equal(NewAmount(250)) {
		t.Fatalf("number %s vs string %s", fromNumber, fromString)
	}
}

func TestAmountArithmetic(t *testing.T) {
	a := NewAmount(100)
	b := NewAmount(40)
	if got := a.Sub(b); !got.Equal(NewAmount(60)) {
		t.Fatalf("100-40 = %s", got)
	}
	if got := Zero.Add(a); !got.Equal(a) {
		t.Fatalf("0+100 = %s", got)
	}
	if !NewAmount(-5).IsNegative() || NewAmount(5).IsNegative() {
		t.Fatal("sign checks failed")
	}
}

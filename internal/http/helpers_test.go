package http

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"khata/internal/core"
)

func TestFormatTaka(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0", "৳0"},
		{"1250.5", "৳1250.5"},
		{"-300", "-৳300"},
	}
	for _, tc := range cases {
		a, err := core.ParseAmount(tc.in)
		if err != nil {
			t.Fatalf("ParseAmount(%q): %v", tc.in, err)
		}
		if got := formatTaka(a); got != tc.want {
			t.Errorf("formatTaka(%s) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimestampForDay(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 5, 9, 0, time.UTC)

	got := timestampForDay("2026-08-01", now)
	if core.DateKey(got) != "2026-08-01" {
		t.Fatalf("day key = %q, want 2026-08-01", core.DateKey(got))
	}
	if !strings.Contains(got, "14:05:09") {
		t.Fatalf("expected clock time carried over, got %q", got)
	}

	// Missing or malformed day falls back to now
	if core.DateKey(timestampForDay("", now)) != "2026-08-29" {
		t.Fatal("empty day should mean today")
	}
	if core.DateKey(timestampForDay("not-a-date", now)) != "2026-08-29" {
		t.Fatal("malformed day should mean today")
	}
}

func TestParseDateParam(t *testing.T) {
	v := url.Values{"date": {"2026-08-01"}}
	if got := parseDateParam(v, "date"); got != "2026-08-01" {
		t.Fatalf("parseDateParam = %q", got)
	}

	today := core.DateKey(core.Timestamp(time.Now()))
	if got := parseDateParam(url.Values{"date": {"31-12-2026"}}, "date"); got != today {
		t.Fatalf("malformed date = %q, want today %q", got, today)
	}
}

func TestParseMonthParam(t *testing.T) {
	if got := parseMonthParam(url.Values{"month": {"2026-08"}}, "month"); got != "2026-08" {
		t.Fatalf("parseMonthParam = %q", got)
	}
	if got := parseMonthParam(url.Values{}, "month"); got != "" {
		t.Fatalf("missing month = %q, want empty", got)
	}
	if got := parseMonthParam(url.Values{"month": {"2026-13"}}, "month"); got != "" {
		t.Fatalf("invalid month = %q, want empty", got)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Karim\x00 Store "); got != "Karim Store" {
		t.Fatalf("sanitizeInput = %q", got)
	}
}

func TestDateLabels(t *testing.T) {
	if got := dateLabel("2026-08-29"); got != "29 Aug 2026" {
		t.Fatalf("dateLabel = %q", got)
	}
	if got := monthLabel("2026-08"); got != "August 2026" {
		t.Fatalf("monthLabel = %q", got)
	}
	// Malformed keys pass through untouched
	if got := dateLabel("garbage"); got != "garbage" {
		t.Fatalf("dateLabel(garbage) = %q", got)
	}
	if got := timeLabel("2026-08-29T14:05:09Z"); got != "14:05" {
		t.Fatalf("timeLabel = %q", got)
	}
}

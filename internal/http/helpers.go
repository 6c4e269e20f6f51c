package http

import (
	"html/template"
	"strings"
	"time"

	"khata/internal/core"
)

// formatTaka formats an amount as a Taka currency string (e.g. "৳1250.50").
func formatTaka(a core.Amount) string {
	if a.IsNegative() {
		return "-৳" + a.Decimal.Neg().String()
	}
	return "৳" + a.String()
}

// monthLabel turns a YYYY-MM key into a human label ("August 2026").
func monthLabel(month string) string {
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return month
	}
	return t.Format("January 2006")
}

// dateLabel turns a YYYY-MM-DD key into a human label ("29 Aug 2026").
func dateLabel(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("02 Jan 2006")
}

// timeLabel renders the clock part of an ISO timestamp ("14:05"), or the
// date itself when the value carries no time component.
func timeLabel(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return core.DateKey(ts)
	}
	return t.Format("15:04")
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"taka":       formatTaka,
		"monthLabel": monthLabel,
		"dateLabel":  dateLabel,
		"timeLabel":  timeLabel,
		"dateKey":    core.DateKey,
	}
}

// timestampForDay builds the stored event timestamp for a chosen calendar
// day: the given YYYY-MM-DD with the current clock time attached, so the
// entry lands in the day the user picked while backdated entries still sort
// in entry order within that day. An empty or malformed day means now.
func timestampForDay(day string, now time.Time) string {
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		return core.Timestamp(now)
	}
	now = now.UTC()
	return core.Timestamp(time.Date(d.Year(), d.Month(), d.Day(),
		now.Hour(), now.Minute(), now.Second(), 0, time.UTC))
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"khata/internal/core"
)

type reportsData struct {
	Months   []string
	Selected string
	Month    core.MonthlySummary
	Days     []core.DailySummary
	Totals   core.Totals
}

// handleReports serves the monthly report: the selected month's summary, its
// daily breakdown and the all-time totals. Without a ?month= parameter the
// report opens on the current month when it has activity, otherwise on the
// most recent month that does.
func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	snap, err := s.hub.Snapshot(r.Context(), id.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "snapshot read failed", "owner_id", id.UID, "error", err)
		InternalServerError("Could not load reports").Write(w)
		return
	}

	months := core.AvailableMonths(snap)
	selected := parseMonthParam(r.URL.Query(), "month")
	if selected == "" {
		selected = core.DefaultMonth(months, time.Now())
	}

	var days []core.DailySummary
	for _, d := range core.DailySummaries(snap) {
		if core.MonthKey(d.Date) == selected {
			days = append(days, d)
		}
	}

	name := "reports.html"
	if r.Header.Get("HX-Request") == "true" {
		name = "report_month.html"
	}
	s.render(w, r, name, reportsData{
		Months:   months,
		Selected: selected,
		Month:    core.MonthSummary(snap, selected),
		Days:     days,
		Totals:   core.ComputeTotals(snap),
	})
}

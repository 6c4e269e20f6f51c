package http

import (
	"log/slog"
	"net/http"
	"time"

	"khata/internal/core"
)

const recentDays = 7

type dashboardData struct {
	OwnerName     string
	Totals        core.Totals
	CustomerCount int
	TodayCount    int
	Today         string
	Recent        []core.DailySummary
}

// handleDashboard renders the landing page: all-time totals, today's
// transaction count and the most recent days of activity.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
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
		InternalServerError("Could not load your data").Write(w)
		return
	}

	today := core.DateKey(core.Timestamp(time.Now()))
	recent := core.DailySummaries(snap)
	if len(recent) > recentDays {
		recent = recent[:recentDays]
	}

	s.render(w, r, "dashboard.html", dashboardData{
		OwnerName:     snap.Name,
		Totals:        core.ComputeTotals(snap),
		CustomerCount: len(snap.Customers),
		TodayCount:    core.CountOn(snap, today),
		Today:         today,
		Recent:        recent,
	})
}

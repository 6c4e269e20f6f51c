package http

import (
	"log/slog"
	"net/http"

	"khata/internal/core"
)

type dailyData struct {
	Days []core.DailySummary
}

type dailyDetailData struct {
	Summary core.DailySummary
}

// handleDaily serves the day-by-day activity page, newest day first.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
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
		InternalServerError("Could not load daily activity").Write(w)
		return
	}

	name := "daily.html"
	if r.Header.Get("HX-Request") == "true" {
		name = "daily_list.html"
	}
	s.render(w, r, name, dailyData{Days: core.DailySummaries(snap)})
}

// handleDailyDetail serves the expanded event list for one day as a fragment.
func (s *Server) handleDailyDetail(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	date := parseDateParam(r.URL.Query(), "date")

	snap, err := s.hub.Snapshot(r.Context(), id.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "snapshot read failed", "owner_id", id.UID, "error", err)
		InternalServerError("Could not load the day").Write(w)
		return
	}

	summary := core.DailySummary{Date: date}
	for _, d := range core.DailySummaries(snap) {
		if d.Date == date {
			summary = d
			break
		}
	}
	s.render(w, r, "daily_detail.html", dailyDetailData{Summary: summary})
}

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"khata/internal/core"
)

type incomeRow struct {
	ID string
	core.IncomeEntry
}

type incomeDay struct {
	Date    string
	Total   core.Amount
	Entries []incomeRow
}

type incomeData struct {
	Today string
	Days  []incomeDay
}

// handleIncome serves the daily cash income page and records new entries.
func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.incomePage(w, r)
	case http.MethodPost:
		s.createIncome(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) incomePage(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	snap, err := s.hub.Snapshot(r.Context(), id.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "snapshot read failed", "owner_id", id.UID, "error", err)
		InternalServerError("Could not load income").Write(w)
		return
	}

	days := make([]incomeDay, 0, len(snap.DailyIncome))
	for date, entries := range snap.DailyIncome {
		day := incomeDay{Date: date}
		for entryID, e := range entries {
			day.Total = day.Total.Add(e.Amount)
			day.Entries = append(day.Entries, incomeRow{ID: entryID, IncomeEntry: e})
		}
		sort.Slice(day.Entries, func(i, j int) bool {
			return day.Entries[i].Timestamp > day.Entries[j].Timestamp
		})
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date > days[j].Date })

	name := "income.html"
	if r.Header.Get("HX-Request") == "true" {
		name = "income_list.html"
	}
	s.render(w, r, name, incomeData{
		Today: core.DateKey(core.Timestamp(time.Now())),
		Days:  days,
	})
}

func (s *Server) createIncome(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	parser := NewRequestBodyParser(r)
	amount, err := parseAmountField(parser.Get("amount"))
	if err != nil {
		BadRequestError("Enter a valid positive amount").Write(w)
		return
	}

	// The entry's timestamp is synthesized from the chosen day so that the
	// day key it is stored under and the day its timestamp reduces to can
	// never disagree.
	ts := timestampForDay(parser.Get("date"), time.Now())
	entry := core.IncomeEntry{
		Amount:      amount,
		Description: parser.Get("description"),
		Timestamp:   ts,
	}
	if err := entry.Validate(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	date := core.DateKey(ts)

	entryID, err := s.income.AddIncome(r.Context(), id.UID, date, entry)
	if err != nil {
		slog.ErrorContext(r.Context(), "add income failed", "owner_id", id.UID, "date", date, "error", err)
		InternalServerError("Could not save the income entry").Write(w)
		return
	}
	slog.InfoContext(r.Context(), "income recorded",
		"owner_id", id.UID, "date", date, "entry_id", entryID)

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerIncomeSaved(date).
		TriggerFormReset().
		TriggerSuccessNotification("Income saved").
		Write(w)
}

// handleIncomeByID updates or deletes one income entry. The day key in the
// path scopes the lookup; an edit keeps the entry on its original day.
func (s *Server) handleIncomeByID(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	date := r.PathValue("date")
	entryID := r.PathValue("id")

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		parser := NewRequestBodyParser(r)
		amount, err := parseAmountField(parser.Get("amount"))
		if err != nil {
			BadRequestError("Enter a valid positive amount").Write(w)
			return
		}
		entry := core.IncomeEntry{
			Amount:      amount,
			Description: parser.Get("description"),
			Timestamp:   timestampForDay(date, time.Now()),
		}
		if err := s.income.UpdateIncome(r.Context(), id.UID, date, entryID, entry); err != nil {
			if errors.Is(err, core.ErrIncomeNotFound) {
				NotFoundError("Income entry not found").Write(w)
				return
			}
			slog.ErrorContext(r.Context(), "update income failed",
				"owner_id", id.UID, "date", date, "entry_id", entryID, "error", err)
			InternalServerError("Could not update the income entry").Write(w)
			return
		}
		NewHTMXResponse().
			TriggerIncomeSaved(date).
			TriggerSuccessNotification("Income updated").
			Write(w)

	case http.MethodDelete:
		if err := s.income.DeleteIncome(r.Context(), id.UID, date, entryID); err != nil {
			if errors.Is(err, core.ErrIncomeNotFound) {
				NotFoundError("Income entry not found").Write(w)
				return
			}
			slog.ErrorContext(r.Context(), "delete income failed",
				"owner_id", id.UID, "date", date, "entry_id", entryID, "error", err)
			InternalServerError("Could not delete the income entry").Write(w)
			return
		}
		NewHTMXResponse().
			TriggerIncomeDeleted(date).
			TriggerSuccessNotification("Income deleted").
			Write(w)

	default:
		MethodNotAllowedError("PUT, POST, DELETE").Write(w)
	}
}

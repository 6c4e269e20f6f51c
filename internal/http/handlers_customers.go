package http

import (
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"khata/internal/core"
)

type customerCard struct {
	core.Customer
	Balance core.Amount
	Stats   core.Stats
}

type customersData struct {
	Customers []customerCard
	DueAll    core.Amount
}

type customerDetailData struct {
	Customer core.Customer
	Balance  core.Amount
	Stats    core.Stats
	Ledger   []core.LedgerRow
	Filter   string // YYYY-MM-DD, "" when showing the full ledger
}

// handleCustomers serves the customer directory and creates new customers.
func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.customersPage(w, r)
	case http.MethodPost:
		s.createCustomer(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) customersPage(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	snap, err := s.hub.Snapshot(r.Context(), id.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "snapshot read failed", "owner_id", id.UID, "error", err)
		InternalServerError("Could not load customers").Write(w)
		return
	}

	cards := make([]customerCard, 0, len(snap.Customers))
	var dueAll core.Amount
	for _, c := range snap.Customers {
		bal := core.Balance(c.Transactions)
		dueAll = dueAll.Add(bal)
		cards = append(cards, customerCard{Customer: c, Balance: bal, Stats: core.CustomerStats(c)})
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })

	name := "customers.html"
	if r.Header.Get("HX-Request") == "true" {
		name = "customer_list.html"
	}
	s.render(w, r, name, customersData{Customers: cards, DueAll: dueAll})
}

func (s *Server) createCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	parser := NewRequestBodyParser(r)
	c := core.Customer{
		Name:  parser.Get("name"),
		Phone: parser.Get("phone"),
	}
	if err := c.Validate(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.customers.CreateCustomer(r.Context(), id.UID, c); err != nil {
		if errors.Is(err, core.ErrDuplicateCustomer) {
			ConflictError("A customer with this name already exists").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "create customer failed", "owner_id", id.UID, "customer", c.Name, "error", err)
		InternalServerError("Could not create the customer").Write(w)
		return
	}

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerCustomerCreated(c.Name).
		TriggerFormReset().
		TriggerSuccessNotification("Customer added").
		Write(w)
}

// handleCustomerDetail serves one customer's running ledger and deletes the
// customer together with all of their transactions.
func (s *Server) handleCustomerDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	name := r.PathValue("name")

	switch r.Method {
	case http.MethodGet:
		snap, err := s.hub.Snapshot(r.Context(), id.UID)
		if err != nil {
			slog.ErrorContext(r.Context(), "snapshot read failed", "owner_id", id.UID, "error", err)
			InternalServerError("Could not load the customer").Write(w)
			return
		}
		c, exists := snap.Customers[name]
		if !exists {
			NotFoundError("Customer not found").Write(w)
			return
		}

		ledger := core.RunningLedger(c.Transactions)
		filter := ""
		if v := r.URL.Query().Get("date"); v != "" {
			filter = parseDateParam(r.URL.Query(), "date")
			ledger = core.FilterLedger(ledger, filter)
		}

		tmpl := "customer_detail.html"
		if r.Header.Get("HX-Request") == "true" {
			tmpl = "customer_ledger.html"
		}
		s.render(w, r, tmpl, customerDetailData{
			Customer: c,
			Balance:  core.Balance(c.Transactions),
			Stats:    core.CustomerStats(c),
			Ledger:   ledger,
			Filter:   filter,
		})

	case http.MethodDelete:
		if err := s.customers.DeleteCustomer(r.Context(), id.UID, name); err != nil {
			if errors.Is(err, core.ErrCustomerNotFound) {
				NotFoundError("Customer not found").Write(w)
				return
			}
			slog.ErrorContext(r.Context(), "delete customer failed", "owner_id", id.UID, "customer", name, "error", err)
			InternalServerError("Could not delete the customer").Write(w)
			return
		}
		NewHTMXResponse().
			TriggerCustomerDeleted(name).
			TriggerSuccessNotification("Customer deleted").
			Header("HX-Redirect", "/customers").
			Write(w)

	default:
		MethodNotAllowedError("GET, DELETE").Write(w)
	}
}

// handleTransactions records a new add or pay entry on a customer's ledger.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	name := r.PathValue("name")

	parser := NewRequestBodyParser(r)
	amount, err := parseAmountField(parser.Get("amount"))
	if err != nil {
		BadRequestError("Enter a valid positive amount").Write(w)
		return
	}
	txn := core.Transaction{
		Type:   core.TxnType(parser.Get("type")),
		Amount: amount,
		Date:   timestampForDay(parser.Get("date"), time.Now()),
	}
	if err := txn.Validate(); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	txnID, err := s.customers.AddTransaction(r.Context(), id.UID, name, txn)
	if err != nil {
		if errors.Is(err, core.ErrCustomerNotFound) {
			NotFoundError("Customer not found").Write(w)
			return
		}
		slog.ErrorContext(r.Context(), "add transaction failed", "owner_id", id.UID, "customer", name, "error", err)
		InternalServerError("Could not save the transaction").Write(w)
		return
	}
	slog.InfoContext(r.Context(), "transaction recorded",
		"owner_id", id.UID, "customer", name, "txn_id", txnID, "type", txn.Type)

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerTransactionSaved(name).
		TriggerFormReset().
		TriggerSuccessNotification("Transaction saved").
		Write(w)
}

// handleTransactionByID updates or deletes a single ledger entry. Updates
// change amount and type only; the original date stays so an edit never
// moves the entry across report buckets.
func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	name := r.PathValue("name")
	txnID := r.PathValue("id")

	switch r.Method {
	case http.MethodPut, http.MethodPost:
		parser := NewRequestBodyParser(r)
		amount, err := parseAmountField(parser.Get("amount"))
		if err != nil {
			BadRequestError("Enter a valid positive amount").Write(w)
			return
		}
		typ := core.TxnType(parser.Get("type"))
		if !typ.Valid() {
			BadRequestError("Transaction type must be add or pay").Write(w)
			return
		}
		if err := s.customers.UpdateTransaction(r.Context(), id.UID, name, txnID, amount, typ); err != nil {
			if errors.Is(err, core.ErrTransactionNotFound) || errors.Is(err, core.ErrCustomerNotFound) {
				NotFoundError("Transaction not found").Write(w)
				return
			}
			slog.ErrorContext(r.Context(), "update transaction failed",
				"owner_id", id.UID, "customer", name, "txn_id", txnID, "error", err)
			InternalServerError("Could not update the transaction").Write(w)
			return
		}
		NewHTMXResponse().
			TriggerTransactionSaved(name).
			TriggerSuccessNotification("Transaction updated").
			Write(w)

	case http.MethodDelete:
		if err := s.customers.DeleteTransaction(r.Context(), id.UID, name, txnID); err != nil {
			if errors.Is(err, core.ErrTransactionNotFound) || errors.Is(err, core.ErrCustomerNotFound) {
				NotFoundError("Transaction not found").Write(w)
				return
			}
			slog.ErrorContext(r.Context(), "delete transaction failed",
				"owner_id", id.UID, "customer", name, "txn_id", txnID, "error", err)
			InternalServerError("Could not delete the transaction").Write(w)
			return
		}
		NewHTMXResponse().
			TriggerTransactionDeleted(name).
			TriggerSuccessNotification("Transaction deleted").
			Write(w)

	default:
		MethodNotAllowedError("PUT, POST, DELETE").Write(w)
	}
}

// handleStatementCSV exports a customer's ledger as a statement download,
// oldest entry first with the running balance per row.
func (s *Server) handleStatementCSV(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	id, ok := identityFromContext(r.Context())
	if !ok {
		s.redirectToLogin(w, r)
		return
	}
	name := r.PathValue("name")

	snap, err := s.hub.Snapshot(r.Context(), id.UID)
	if err != nil {
		slog.ErrorContext(r.Context(), "snapshot read failed", "owner_id", id.UID, "error", err)
		InternalServerError("Could not load the statement").Write(w)
		return
	}
	c, exists := snap.Customers[name]
	if !exists {
		NotFoundError("Customer not found").Write(w)
		return
	}

	rows := core.RunningLedger(c.Transactions)
	// RunningLedger is newest-first for display; a statement reads top-down
	// in time order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="statement-`+name+`.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "type", "amount", "balance"})
	for _, row := range rows {
		_ = cw.Write([]string{
			core.DateKey(row.Date),
			string(row.Type),
			row.Amount.String(),
			row.Running.String(),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "csv write failed", "owner_id", id.UID, "customer", name, "error", err)
	}
}

package http

import (
	"errors"
	"net/http"

	"github.com/Romario114/Site-financeiro/internal/core"
	"github.com/Romario114/Site-financeiro/internal/store"
)

type entryPayload struct {
	ID     string `json:"id,omitempty"`
	Date   string `json:"date,omitempty"`
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

type entryView struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	Label           string `json:"label"`
	Amount          int64  `json:"amount"`
	AmountFormatted string `json:"amountFormatted"`
}

func toEntryView(e core.LedgerEntry) entryView {
	return entryView{
		ID:              e.ID,
		Date:            e.Date.String(),
		Label:           e.Label,
		Amount:          e.Amount.Cents,
		AmountFormatted: core.FormatBRL(e.Amount.Cents),
	}
}

func toEntryViews(entries []core.LedgerEntry) []entryView {
	views := make([]entryView, len(entries))
	for i, e := range entries {
		views[i] = toEntryView(e)
	}
	return views
}

// ledgerOps binds the handler to one side of the ledger so incomes and
// expenses share the same handler body.
type ledgerOps struct {
	list   func() []core.LedgerEntry
	add    func(r *http.Request, date core.Date, label string, amount core.Money) (core.LedgerEntry, error)
	edit   func(r *http.Request, id string, date core.Date, label string, amount core.Money) (core.LedgerEntry, error)
	remove func(r *http.Request, id string) error
}

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	s.handleEntries(w, r, ledgerOps{
		list: s.ledger.Incomes,
		add: func(r *http.Request, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
			return s.ledger.AddIncome(r.Context(), date, label, amount)
		},
		edit: func(r *http.Request, id string, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
			return s.ledger.EditIncome(r.Context(), id, date, label, amount)
		},
		remove: func(r *http.Request, id string) error {
			return s.ledger.RemoveIncome(r.Context(), id)
		},
	})
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.handleEntries(w, r, ledgerOps{
		list: s.ledger.Expenses,
		add: func(r *http.Request, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
			return s.ledger.AddExpense(r.Context(), date, label, amount)
		},
		edit: func(r *http.Request, id string, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
			return s.ledger.EditExpense(r.Context(), id, date, label, amount)
		},
		remove: func(r *http.Request, id string) error {
			return s.ledger.RemoveExpense(r.Context(), id)
		},
	})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request, ops ledgerOps) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"entries": toEntryViews(ops.list())})
	case http.MethodPost:
		s.handleAddEntry(w, r, ops)
	case http.MethodPut:
		s.handleEditEntry(w, r, ops)
	case http.MethodDelete:
		s.handleRemoveEntry(w, r, ops)
	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func parseEntryPayload(r *http.Request) (entryPayload, core.Date, core.Money, error) {
	var payload entryPayload
	if err := decodeBody(r, &payload); err != nil {
		return entryPayload{}, core.Date{}, core.Money{}, err
	}
	date, err := parseDate(payload.Date)
	if err != nil {
		return entryPayload{}, core.Date{}, core.Money{}, err
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		return entryPayload{}, core.Date{}, core.Money{}, err
	}
	return payload, date, amount, nil
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request, ops ledgerOps) {
	payload, date, amount, err := parseEntryPayload(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	e, err := ops.add(r, date, sanitizeInput(payload.Label), amount)
	if err != nil && !store.IsPersistenceWarning(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondEntry(w, http.StatusCreated, e, err)
}

func (s *Server) handleEditEntry(w http.ResponseWriter, r *http.Request, ops ledgerOps) {
	payload, date, amount, err := parseEntryPayload(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if payload.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	e, err := ops.edit(r, payload.ID, date, sanitizeInput(payload.Label), amount)
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
		return
	case err != nil && !store.IsPersistenceWarning(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondEntry(w, http.StatusOK, e, err)
}

func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request, ops ledgerOps) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := ops.remove(r, payload.ID); err != nil && !store.IsPersistenceWarning(err) {
		writeError(w, http.StatusInternalServerError, "remove failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respondEntry(w http.ResponseWriter, status int, e core.LedgerEntry, err error) {
	body := map[string]any{"entry": toEntryView(e)}
	if err != nil {
		body["warning"] = "saved in memory only: durable write failed"
	}
	writeJSON(w, status, body)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	totals := s.ledger.Totals()
	writeJSON(w, http.StatusOK, map[string]any{
		"incomeTotal":           totals.IncomeTotal.Cents,
		"expenseTotal":          totals.ExpenseTotal.Cents,
		"balance":               totals.Balance.Cents,
		"incomeTotalFormatted":  core.FormatBRL(totals.IncomeTotal.Cents),
		"expenseTotalFormatted": core.FormatBRL(totals.ExpenseTotal.Cents),
		"balanceFormatted":      core.FormatBRL(totals.Balance.Cents),
		"balanceState":          string(core.ClassifyBalance(totals)),
	})
}

package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Romario114/Site-financeiro/internal/core"
	"github.com/Romario114/Site-financeiro/internal/store"
)

// debtPayload carries the create/update form fields. Amounts arrive as
// decimal strings ("1234,56" or "1234.56"); ids travel in the body, never
// in the path.
type debtPayload struct {
	ID           string `json:"id,omitempty"`
	Name         string `json:"name"`
	Amount       string `json:"amount"`
	Installments int    `json:"installments"`
	Kind         string `json:"kind"`
	StartDate    string `json:"startDate,omitempty"`
	Description  string `json:"description,omitempty"`
}

// debtView is the read model: stored fields plus the derived values the UI
// renders, recomputed on every response.
type debtView struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	TotalAmount          int64     `json:"totalAmount"`
	TotalAmountFormatted string    `json:"totalAmountFormatted"`
	TotalInstallments    int       `json:"totalInstallments"`
	PaidInstallments     int       `json:"paidInstallments"`
	InstallmentAmount    int64     `json:"installmentAmount"`
	PaidAmount           int64     `json:"paidAmount"`
	Kind                 string    `json:"kind"`
	KindLabel            string    `json:"kindLabel"`
	StartDate            string    `json:"startDate"`
	Description          string    `json:"description,omitempty"`
	Settled              bool      `json:"settled"`
	Progress             int       `json:"progress"`
	CreatedAt            time.Time `json:"createdAt"`
}

func toDebtView(d core.Debt) debtView {
	return debtView{
		ID:                   d.ID,
		Name:                 d.Name,
		TotalAmount:          d.TotalAmount.Cents,
		TotalAmountFormatted: core.FormatBRL(d.TotalAmount.Cents),
		TotalInstallments:    d.TotalInstallments,
		PaidInstallments:     d.PaidInstallments,
		InstallmentAmount:    d.InstallmentAmount().Cents,
		PaidAmount:           d.PaidAmount().Cents,
		Kind:                 d.Kind.String(),
		KindLabel:            d.Kind.Label(),
		StartDate:            d.StartDate.String(),
		Description:          d.Description,
		Settled:              d.Settled,
		Progress:             d.Progress(),
		CreatedAt:            d.CreatedAt,
	}
}

func (p debtPayload) toInput() (store.DebtInput, error) {
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return store.DebtInput{}, err
	}
	startDate, err := parseDate(p.StartDate)
	if err != nil {
		return store.DebtInput{}, err
	}
	return store.DebtInput{
		Name:              sanitizeInput(p.Name),
		TotalAmount:       amount,
		TotalInstallments: p.Installments,
		Kind:              core.DebtKind(p.Kind),
		StartDate:         startDate,
		Description:       sanitizeInput(p.Description),
	}, nil
}

// respondDebt writes a debt response, downgrading a failed durable write to
// a warning field since the mutation itself has been applied.
func respondDebt(w http.ResponseWriter, status int, d core.Debt, err error) {
	body := map[string]any{"debt": toDebtView(d)}
	if err != nil {
		body["warning"] = "saved in memory only: durable write failed"
	}
	writeJSON(w, status, body)
}

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListDebts(w, r)
	case http.MethodPost:
		s.handleCreateDebt(w, r)
	case http.MethodPut:
		s.handleUpdateDebt(w, r)
	case http.MethodDelete:
		s.handleDeleteDebt(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	status := store.StatusFilter(r.URL.Query().Get("status"))
	if status == "" {
		status = store.StatusAll
	}
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, "status must be one of all, active, settled")
		return
	}

	debts := s.debts.List(r.URL.Query().Get("filter"), status)
	views := make([]debtView, len(debts))
	for i, d := range debts {
		views[i] = toDebtView(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"debts": views})
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var payload debtPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := payload.toInput()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	d, err := s.debts.Create(r.Context(), in)
	if err != nil && !store.IsPersistenceWarning(err) {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondDebt(w, http.StatusCreated, d, err)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	var payload debtPayload
	if err := decodeBody(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	in, err := payload.toInput()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	d, err := s.debts.Update(r.Context(), payload.ID, in)
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "debt not found")
		return
	case err != nil && !store.IsPersistenceWarning(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondDebt(w, http.StatusOK, d, err)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	// Missing ids delete nothing and still succeed.
	if err := s.debts.Delete(r.Context(), payload.ID); err != nil && !store.IsPersistenceWarning(err) {
		slog.ErrorContext(r.Context(), "Delete debt failed", "id", payload.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDebtSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sum := s.debts.Summary()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":                sum.Count,
		"totalAmount":          sum.TotalAmount.Cents,
		"totalAmountFormatted": core.FormatBRL(sum.TotalAmount.Cents),
		"settledCount":         sum.SettledCount,
		"averageProgress":      sum.AverageProgress,
	})
}

func (s *Server) handlePayInstallment(w http.ResponseWriter, r *http.Request) {
	s.handleDebtAction(w, r, func(req *http.Request, id string) (core.Debt, error) {
		d, _, err := s.debts.PayInstallment(req.Context(), id)
		return d, err
	})
}

func (s *Server) handleMarkSettled(w http.ResponseWriter, r *http.Request) {
	s.handleDebtAction(w, r, func(req *http.Request, id string) (core.Debt, error) {
		return s.debts.MarkSettled(req.Context(), id)
	})
}

func (s *Server) handleReactivate(w http.ResponseWriter, r *http.Request) {
	s.handleDebtAction(w, r, func(req *http.Request, id string) (core.Debt, error) {
		return s.debts.Reactivate(req.Context(), id)
	})
}

func (s *Server) handleDebtAction(w http.ResponseWriter, r *http.Request, action func(*http.Request, string) (core.Debt, error)) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var payload struct {
		ID string `json:"id"`
	}
	if err := decodeBody(r, &payload); err != nil || payload.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	d, err := action(r, payload.ID)
	if err != nil && !store.IsPersistenceWarning(err) {
		slog.ErrorContext(r.Context(), "Debt action failed", "id", payload.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "action failed")
		return
	}
	// The store treats unknown ids as a no-op; the API still tells the
	// caller nothing was there.
	if d.ID == "" {
		writeError(w, http.StatusNotFound, "debt not found")
		return
	}
	respondDebt(w, http.StatusOK, d, err)
}

package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Romario114/Site-financeiro/internal/core"
)

// Collections are persisted as JSON arrays of flat records. Amounts are
// stored as integer cents, dates as YYYY-MM-DD.
type (
	debtRecord struct {
		ID                string    `json:"id"`
		Name              string    `json:"name"`
		TotalAmount       int64     `json:"totalAmount"`
		TotalInstallments int       `json:"totalInstallments"`
		PaidInstallments  int       `json:"paidInstallments"`
		Kind              string    `json:"kind"`
		StartDate         string    `json:"startDate"`
		Description       string    `json:"description,omitempty"`
		Settled           bool      `json:"settled"`
		CreatedAt         time.Time `json:"createdAt"`
	}

	entryRecord struct {
		ID     string `json:"id"`
		Date   string `json:"date"`
		Label  string `json:"label"`
		Amount int64  `json:"amount"`
	}
)

func encodeDebts(debts []core.Debt) ([]byte, error) {
	records := make([]debtRecord, len(debts))
	for i, d := range debts {
		records[i] = debtRecord{
			ID:                d.ID,
			Name:              d.Name,
			TotalAmount:       d.TotalAmount.Cents,
			TotalInstallments: d.TotalInstallments,
			PaidInstallments:  d.PaidInstallments,
			Kind:              string(d.Kind),
			StartDate:         d.StartDate.String(),
			Description:       d.Description,
			Settled:           d.Settled,
			CreatedAt:         d.CreatedAt,
		}
	}
	return json.Marshal(records)
}

// decodeDebts parses a persisted debt collection. The durable store is not
// validated on write by anyone else, so paid counts are clamped back into
// [0, total] here rather than trusted.
func decodeDebts(data []byte) ([]core.Debt, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []debtRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode debts: %w", err)
	}
	debts := make([]core.Debt, 0, len(records))
	for _, r := range records {
		startDate, err := core.ParseDate(r.StartDate)
		if err != nil {
			startDate = core.Date{}
		}
		paid := r.PaidInstallments
		if paid < 0 {
			paid = 0
		}
		if r.TotalInstallments > 0 && paid > r.TotalInstallments {
			paid = r.TotalInstallments
		}
		debts = append(debts, core.Debt{
			ID:                r.ID,
			Name:              r.Name,
			TotalAmount:       core.Money{Cents: r.TotalAmount},
			TotalInstallments: r.TotalInstallments,
			PaidInstallments:  paid,
			Kind:              core.DebtKind(r.Kind),
			StartDate:         startDate,
			Description:       r.Description,
			Settled:           r.Settled,
			CreatedAt:         r.CreatedAt,
		})
	}
	return debts, nil
}

func encodeEntries(entries []core.LedgerEntry) ([]byte, error) {
	records := make([]entryRecord, len(entries))
	for i, e := range entries {
		records[i] = entryRecord{
			ID:     e.ID,
			Date:   e.Date.String(),
			Label:  e.Label,
			Amount: e.Amount.Cents,
		}
	}
	return json.Marshal(records)
}

func decodeEntries(data []byte) ([]core.LedgerEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var records []entryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	entries := make([]core.LedgerEntry, 0, len(records))
	for _, r := range records {
		date, err := core.ParseDate(r.Date)
		if err != nil {
			date = core.Date{}
		}
		entries = append(entries, core.LedgerEntry{
			ID:     r.ID,
			Date:   date,
			Label:  r.Label,
			Amount: core.Money{Cents: r.Amount},
		})
	}
	return entries, nil
}

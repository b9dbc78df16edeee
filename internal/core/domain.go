package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Consortium DebtKind = "consortium"
	Loan       DebtKind = "loan"
	Financing  DebtKind = "financing"
	Other      DebtKind = "other"
)

type (
	DebtKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Debt is a long-term installment obligation. TotalAmount and
	// TotalInstallments are fixed by the form; PaidInstallments only moves
	// through PayInstallment/MarkSettled on the store.
	Debt struct {
		ID                string
		Name              string
		TotalAmount       Money
		TotalInstallments int
		PaidInstallments  int
		Kind              DebtKind
		StartDate         Date
		Description       string
		Settled           bool
		CreatedAt         time.Time
	}

	// LedgerEntry is a single income or expense row. The ID is assigned at
	// add time so callers can address rows without relying on list position.
	LedgerEntry struct {
		ID     string
		Date   Date
		Label  string
		Amount Money
	}
)

var (
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyLabel          = errors.New("empty label")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidInstallments = errors.New("invalid installment count")
	ErrInvalidKind         = errors.New("invalid debt kind")
	ErrNotFound            = errors.New("not found")
)

// PersistenceError reports a failed durable write. The in-memory mutation it
// followed remains authoritative for the session; callers surface it as a
// warning rather than rolling back.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist collection: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewDate creates a new Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// String renders the date in the stored YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (k DebtKind) IsValid() bool {
	switch k {
	case Consortium, Loan, Financing, Other:
		return true
	default:
		return false
	}
}

func (k DebtKind) String() string {
	return string(k)
}

// Label returns the display name for the kind.
func (k DebtKind) Label() string {
	switch k {
	case Consortium:
		return "Consórcio"
	case Loan:
		return "Empréstimo"
	case Financing:
		return "Financiamento"
	default:
		return "Outro"
	}
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (d Debt) Validate() error {
	if len(strings.TrimSpace(d.Name)) == 0 {
		return ErrEmptyName
	}
	if err := d.TotalAmount.Validate(); err != nil {
		return err
	}
	if d.TotalInstallments <= 0 {
		return ErrInvalidInstallments
	}
	if !d.Kind.IsValid() {
		return ErrInvalidKind
	}
	if err := d.StartDate.Validate(); err != nil {
		return err
	}
	return nil
}

// Progress returns the rounded percentage of installments paid. A record
// loaded from storage with a non-positive installment count reports 0.
func (d Debt) Progress() int {
	if d.TotalInstallments <= 0 {
		return 0
	}
	paid := int64(d.PaidInstallments)
	total := int64(d.TotalInstallments)
	return int((paid*100 + total/2) / total)
}

// InstallmentAmount is the per-installment value, recomputed on demand and
// never persisted.
func (d Debt) InstallmentAmount() Money {
	if d.TotalInstallments <= 0 {
		return Money{}
	}
	n := int64(d.TotalInstallments)
	return Money{Cents: (d.TotalAmount.Cents + n/2) / n}
}

// PaidAmount is the value paid so far, derived from the installment amount.
func (d Debt) PaidAmount() Money {
	return Money{Cents: d.InstallmentAmount().Cents * int64(d.PaidInstallments)}
}

func (e LedgerEntry) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Label)) == 0 {
		return ErrEmptyLabel
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

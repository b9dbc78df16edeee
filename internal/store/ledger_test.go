package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Romario114/Site-financeiro/internal/core"
	"github.com/Romario114/Site-financeiro/internal/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(context.Background(), storage.NewMemoryKV(), nil)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	return l
}

func mustAddIncome(t *testing.T, l *Ledger, label string, cents int64) core.LedgerEntry {
	t.Helper()
	e, err := l.AddIncome(context.Background(), core.NewDate(2026, 8, 1), label, core.Money{Cents: cents})
	if err != nil {
		t.Fatalf("AddIncome(%s) error = %v", label, err)
	}
	return e
}

func mustAddExpense(t *testing.T, l *Ledger, label string, cents int64) core.LedgerEntry {
	t.Helper()
	e, err := l.AddExpense(context.Background(), core.NewDate(2026, 8, 2), label, core.Money{Cents: cents})
	if err != nil {
		t.Fatalf("AddExpense(%s) error = %v", label, err)
	}
	return e
}

func TestLedgerAddValidation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.AddIncome(ctx, core.NewDate(2026, 8, 1), "  ", core.Money{Cents: 100}); !errors.Is(err, core.ErrEmptyLabel) {
		t.Errorf("AddIncome(blank label) error = %v, want ErrEmptyLabel", err)
	}
	if _, err := l.AddExpense(ctx, core.NewDate(2026, 8, 1), "Luz", core.Money{Cents: 0}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("AddExpense(zero amount) error = %v, want ErrInvalidAmount", err)
	}
	if _, err := l.AddExpense(ctx, core.NewDate(2026, 8, 1), "Luz", core.Money{Cents: -500}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("AddExpense(negative amount) error = %v, want ErrInvalidAmount", err)
	}
	if len(l.Incomes()) != 0 || len(l.Expenses()) != 0 {
		t.Error("rejected entries must not land in the ledger")
	}
}

func TestLedgerTotalsAndBalanceState(t *testing.T) {
	l := newTestLedger(t)

	mustAddIncome(t, l, "Salario", 10000)
	mustAddIncome(t, l, "Freela", 5000)
	mustAddExpense(t, l, "Mercado", 3000)

	got := l.Totals()
	if got.IncomeTotal.Cents != 15000 || got.ExpenseTotal.Cents != 3000 || got.Balance.Cents != 12000 {
		t.Errorf("Totals() = %+v, want income 15000 expense 3000 balance 12000", got)
	}
	if state := l.BalanceState(); state != core.BalanceNormal {
		t.Errorf("BalanceState() = %s, want normal", state)
	}
}

func TestLedgerBalanceStates(t *testing.T) {
	tests := []struct {
		name    string
		income  int64
		expense int64
		want    core.BalanceState
	}{
		{"healthy", 15000, 3000, core.BalanceNormal},
		{"under a fifth of income", 10000, 9500, core.BalanceLow},
		{"exactly a fifth of income", 10000, 8000, core.BalanceNormal},
		{"spent it all", 10000, 10000, core.BalanceNegative},
		{"overspent", 10000, 11000, core.BalanceNegative},
		{"empty ledger", 0, 0, core.BalanceNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			if tt.income > 0 {
				mustAddIncome(t, l, "Renda", tt.income)
			}
			if tt.expense > 0 {
				mustAddExpense(t, l, "Gasto", tt.expense)
			}
			if got := l.BalanceState(); got != tt.want {
				t.Errorf("BalanceState() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLedgerRemoveAt(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	mustAddIncome(t, l, "Primeiro", 100)
	keep := mustAddIncome(t, l, "Segundo", 200)

	if err := l.RemoveIncomeAt(ctx, 0); err != nil {
		t.Fatalf("RemoveIncomeAt() error = %v", err)
	}
	incomes := l.Incomes()
	if len(incomes) != 1 || incomes[0].ID != keep.ID {
		t.Errorf("after remove, incomes = %v, want only %s", incomes, keep.Label)
	}

	// Out-of-range indexes are silently ignored.
	if err := l.RemoveIncomeAt(ctx, 5); err != nil {
		t.Errorf("RemoveIncomeAt(out of range) error = %v, want nil", err)
	}
	if err := l.RemoveExpenseAt(ctx, -1); err != nil {
		t.Errorf("RemoveExpenseAt(-1) error = %v, want nil", err)
	}
	if len(l.Incomes()) != 1 {
		t.Error("out-of-range remove changed the ledger")
	}
}

func TestLedgerEditAt(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	orig := mustAddExpense(t, l, "Internet", 9990)

	e, err := l.EditExpenseAt(ctx, 0, core.NewDate(2026, 9, 1), "Internet fibra", core.Money{Cents: 12990})
	if err != nil {
		t.Fatalf("EditExpenseAt() error = %v", err)
	}
	if e.ID != orig.ID {
		t.Errorf("edit changed id from %s to %s", orig.ID, e.ID)
	}
	if e.Label != "Internet fibra" || e.Amount.Cents != 12990 {
		t.Errorf("EditExpenseAt() = %+v, want new label and amount", e)
	}

	if _, err := l.EditExpenseAt(ctx, 3, core.NewDate(2026, 9, 1), "X", core.Money{Cents: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("EditExpenseAt(out of range) error = %v, want ErrNotFound", err)
	}
}

func TestLedgerEditAbortsOnInvalidFields(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	mustAddIncome(t, l, "Salario", 10000)

	if _, err := l.EditIncomeAt(ctx, 0, core.NewDate(2026, 9, 1), "Salario", core.Money{Cents: -1}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("EditIncomeAt(negative) error = %v, want ErrInvalidAmount", err)
	}

	// The whole edit aborts: the prior record stays untouched.
	got := l.Incomes()[0]
	if got.Label != "Salario" || got.Amount.Cents != 10000 {
		t.Errorf("aborted edit mutated the entry: %+v", got)
	}
}

func TestLedgerByID(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	a := mustAddExpense(t, l, "Agua", 5000)
	b := mustAddExpense(t, l, "Luz", 7000)

	e, err := l.EditExpense(ctx, b.ID, core.NewDate(2026, 8, 10), "Luz", core.Money{Cents: 7500})
	if err != nil {
		t.Fatalf("EditExpense() error = %v", err)
	}
	if e.Amount.Cents != 7500 {
		t.Errorf("EditExpense() amount = %d, want 7500", e.Amount.Cents)
	}

	if err := l.RemoveExpense(ctx, a.ID); err != nil {
		t.Fatalf("RemoveExpense() error = %v", err)
	}
	expenses := l.Expenses()
	if len(expenses) != 1 || expenses[0].ID != b.ID {
		t.Errorf("after remove by id, expenses = %v", expenses)
	}

	if err := l.RemoveExpense(ctx, "nope"); err != nil {
		t.Errorf("RemoveExpense(missing id) error = %v, want nil", err)
	}
	if _, err := l.EditExpense(ctx, "nope", core.NewDate(2026, 8, 10), "X", core.Money{Cents: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("EditExpense(missing id) error = %v, want ErrNotFound", err)
	}
}

func TestLedgerReload(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()

	l1, err := NewLedger(ctx, kv, nil)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}
	mustAddIncome(t, l1, "Salario", 10000)
	mustAddExpense(t, l1, "Mercado", 3000)

	l2, err := NewLedger(ctx, kv, nil)
	if err != nil {
		t.Fatalf("NewLedger() reload error = %v", err)
	}
	if got := l2.Totals(); got.Balance.Cents != 7000 {
		t.Errorf("reloaded Totals().Balance = %d, want 7000", got.Balance.Cents)
	}
}

func TestLedgerPersistenceWarning(t *testing.T) {
	ctx := context.Background()
	l, err := NewLedger(ctx, brokenKV{}, nil)
	if err != nil {
		t.Fatalf("NewLedger() error = %v", err)
	}

	e, err := l.AddIncome(ctx, core.NewDate(2026, 8, 1), "Salario", core.Money{Cents: 10000})
	if err == nil {
		t.Fatal("AddIncome() with failing store returned nil error")
	}
	if !IsPersistenceWarning(err) {
		t.Errorf("AddIncome() error = %v, want a persistence warning", err)
	}
	incomes := l.Incomes()
	if len(incomes) != 1 || incomes[0].ID != e.ID {
		t.Error("ledger lost the mutation after a failed persist")
	}
}

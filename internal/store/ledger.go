package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/Romario114/Site-financeiro/internal/core"
	"github.com/Romario114/Site-financeiro/internal/storage"
)

// Ledger owns the income and expense lists. The two lists share one lock and
// persist under separate collection keys; totals always span both.
type Ledger struct {
	mu     sync.Mutex
	kv     storage.KV
	events EventPublisher

	incomes  []core.LedgerEntry
	expenses []core.LedgerEntry

	newID func() string
}

// NewLedger loads both persisted collections and returns a ready ledger.
// events may be nil when change publishing is disabled.
func NewLedger(ctx context.Context, kv storage.KV, events EventPublisher) (*Ledger, error) {
	incomes, err := loadEntries(ctx, kv, storage.IncomesKey)
	if err != nil {
		return nil, err
	}
	expenses, err := loadEntries(ctx, kv, storage.ExpensesKey)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Ledger loaded", "incomes", len(incomes), "expenses", len(expenses))

	return &Ledger{
		kv:       kv,
		events:   events,
		incomes:  incomes,
		expenses: expenses,
		newID:    uuid.NewString,
	}, nil
}

func loadEntries(ctx context.Context, kv storage.KV, key string) ([]core.LedgerEntry, error) {
	data, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return nil, nil
	}
	entries, err := decodeEntries(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return entries, nil
}

// AddIncome validates and appends an income entry.
func (l *Ledger) AddIncome(ctx context.Context, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(ctx, &l.incomes, storage.IncomesKey, date, label, amount)
}

// AddExpense validates and appends an expense entry.
func (l *Ledger) AddExpense(ctx context.Context, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.add(ctx, &l.expenses, storage.ExpensesKey, date, label, amount)
}

// RemoveIncomeAt removes the income at the given position. Out-of-range
// indexes are a silent no-op.
func (l *Ledger) RemoveIncomeAt(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeAt(ctx, &l.incomes, storage.IncomesKey, index)
}

// RemoveExpenseAt removes the expense at the given position. Out-of-range
// indexes are a silent no-op.
func (l *Ledger) RemoveExpenseAt(ctx context.Context, index int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeAt(ctx, &l.expenses, storage.ExpensesKey, index)
}

// EditIncomeAt replaces the income at the given position. Invalid fields
// abort the whole edit and keep the prior record.
func (l *Ledger) EditIncomeAt(ctx context.Context, index int, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.editAt(ctx, &l.incomes, storage.IncomesKey, index, date, label, amount)
}

// EditExpenseAt replaces the expense at the given position. Invalid fields
// abort the whole edit and keep the prior record.
func (l *Ledger) EditExpenseAt(ctx context.Context, index int, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.editAt(ctx, &l.expenses, storage.ExpensesKey, index, date, label, amount)
}

// RemoveIncome removes an income by its stable id, the position-safe form
// used by the HTTP shell.
func (l *Ledger) RemoveIncome(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeAt(ctx, &l.incomes, storage.IncomesKey, indexOfEntry(l.incomes, id))
}

// RemoveExpense removes an expense by its stable id.
func (l *Ledger) RemoveExpense(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeAt(ctx, &l.expenses, storage.ExpensesKey, indexOfEntry(l.expenses, id))
}

// EditIncome replaces an income addressed by its stable id.
func (l *Ledger) EditIncome(ctx context.Context, id string, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := indexOfEntry(l.incomes, id)
	if idx < 0 {
		return core.LedgerEntry{}, fmt.Errorf("income %s: %w", id, core.ErrNotFound)
	}
	return l.editAt(ctx, &l.incomes, storage.IncomesKey, idx, date, label, amount)
}

// EditExpense replaces an expense addressed by its stable id.
func (l *Ledger) EditExpense(ctx context.Context, id string, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	idx := indexOfEntry(l.expenses, id)
	if idx < 0 {
		return core.LedgerEntry{}, fmt.Errorf("expense %s: %w", id, core.ErrNotFound)
	}
	return l.editAt(ctx, &l.expenses, storage.ExpensesKey, idx, date, label, amount)
}

// Incomes returns a copy of the income list in insertion order.
func (l *Ledger) Incomes() []core.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.LedgerEntry(nil), l.incomes...)
}

// Expenses returns a copy of the expense list in insertion order.
func (l *Ledger) Expenses() []core.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.LedgerEntry(nil), l.expenses...)
}

// Totals recomputes the aggregate from current state on every call.
func (l *Ledger) Totals() core.LedgerTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	var t core.LedgerTotals
	for _, e := range l.incomes {
		t.IncomeTotal.Cents += e.Amount.Cents
	}
	for _, e := range l.expenses {
		t.ExpenseTotal.Cents += e.Amount.Cents
	}
	t.Balance.Cents = t.IncomeTotal.Cents - t.ExpenseTotal.Cents
	return t
}

// BalanceState classifies the current balance. Never cached: the rule is a
// pure function of whatever the ledger holds right now.
func (l *Ledger) BalanceState() core.BalanceState {
	return core.ClassifyBalance(l.Totals())
}

// add, removeAt and editAt expect the caller to hold l.mu.
func (l *Ledger) add(ctx context.Context, list *[]core.LedgerEntry, key string, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	e := core.LedgerEntry{
		ID:     l.newID(),
		Date:   date,
		Label:  strings.TrimSpace(label),
		Amount: amount,
	}
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	*list = append(*list, e)
	err := l.persist(ctx, *list, key)
	l.publish(ctx, key, "add", e.ID)

	slog.InfoContext(ctx, "Ledger entry added",
		"collection", key,
		"id", e.ID,
		"label", e.Label,
		"amount_cents", e.Amount.Cents)

	return e, err
}

func (l *Ledger) removeAt(ctx context.Context, list *[]core.LedgerEntry, key string, index int) error {
	if index < 0 || index >= len(*list) {
		return nil
	}
	id := (*list)[index].ID

	*list = append((*list)[:index], (*list)[index+1:]...)
	err := l.persist(ctx, *list, key)
	l.publish(ctx, key, "remove", id)

	slog.InfoContext(ctx, "Ledger entry removed", "collection", key, "id", id)

	return err
}

func (l *Ledger) editAt(ctx context.Context, list *[]core.LedgerEntry, key string, index int, date core.Date, label string, amount core.Money) (core.LedgerEntry, error) {
	if index < 0 || index >= len(*list) {
		return core.LedgerEntry{}, fmt.Errorf("%s[%d]: %w", key, index, core.ErrNotFound)
	}

	e := core.LedgerEntry{
		ID:     (*list)[index].ID,
		Date:   date,
		Label:  strings.TrimSpace(label),
		Amount: amount,
	}
	// No partial replace: an invalid field keeps the prior record intact.
	if err := e.Validate(); err != nil {
		return core.LedgerEntry{}, err
	}

	(*list)[index] = e
	err := l.persist(ctx, *list, key)
	l.publish(ctx, key, "edit", e.ID)

	slog.InfoContext(ctx, "Ledger entry edited", "collection", key, "id", e.ID)

	return e, err
}

func (l *Ledger) persist(ctx context.Context, list []core.LedgerEntry, key string) error {
	data, err := encodeEntries(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.kv.Put(ctx, key, data); err != nil {
		slog.WarnContext(ctx, "Ledger persist failed, in-memory state kept", "collection", key, "error", err)
		return &core.PersistenceError{Err: err}
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, collection, action, ref string) {
	if l.events == nil {
		return
	}
	if err := l.events.PublishChange(ctx, collection, action, ref); err != nil {
		slog.WarnContext(ctx, "Change event publish failed",
			"collection", collection,
			"action", action,
			"ref", ref,
			"error", err)
	}
}

func indexOfEntry(list []core.LedgerEntry, id string) int {
	for i, e := range list {
		if e.ID == id {
			return i
		}
	}
	return -1
}

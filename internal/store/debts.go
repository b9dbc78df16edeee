// Package store owns the in-memory collections and all mutation of them.
// Every command validates fully before mutating, then mutates and persists
// as one logical step; a failed durable write leaves the in-memory state
// authoritative and is surfaced to the caller as a warning.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Romario114/Site-financeiro/internal/core"
	"github.com/Romario114/Site-financeiro/internal/storage"
)

const (
	StatusAll     StatusFilter = "all"
	StatusActive  StatusFilter = "active"
	StatusSettled StatusFilter = "settled"
)

// StatusFilter selects debts by settled state in List.
type StatusFilter string

func (f StatusFilter) IsValid() bool {
	switch f {
	case StatusAll, StatusActive, StatusSettled:
		return true
	default:
		return false
	}
}

// DebtInput carries the form fields for create and update. Paid installments
// and the settled flag are never part of the input; they only move through
// PayInstallment, MarkSettled and Reactivate.
type DebtInput struct {
	Name              string
	TotalAmount       core.Money
	TotalInstallments int
	Kind              core.DebtKind
	StartDate         core.Date
	Description       string
}

// DebtStore owns the debt collection. Public operations run under a single
// lock to preserve the single-writer invariant when called from concurrent
// handlers.
type DebtStore struct {
	mu     sync.Mutex
	kv     storage.KV
	events EventPublisher

	debts []core.Debt

	now   func() time.Time
	newID func() string
}

// NewDebtStore loads the persisted collection and returns a ready store.
// events may be nil when change publishing is disabled.
func NewDebtStore(ctx context.Context, kv storage.KV, events EventPublisher) (*DebtStore, error) {
	data, ok, err := kv.Get(ctx, storage.DebtsKey)
	if err != nil {
		return nil, fmt.Errorf("load debts: %w", err)
	}
	var debts []core.Debt
	if ok {
		debts, err = decodeDebts(data)
		if err != nil {
			return nil, fmt.Errorf("load debts: %w", err)
		}
	}

	slog.InfoContext(ctx, "Debt store loaded", "count", len(debts))

	return &DebtStore{
		kv:     kv,
		events: events,
		debts:  debts,
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Create validates the input and appends a new debt with zero paid
// installments. The start date defaults to today when the form omits it.
func (s *DebtStore) Create(ctx context.Context, in DebtInput) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	startDate := in.StartDate
	if startDate.IsZero() {
		now := s.now()
		startDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}

	d := core.Debt{
		ID:                s.newID(),
		Name:              strings.TrimSpace(in.Name),
		TotalAmount:       in.TotalAmount,
		TotalInstallments: in.TotalInstallments,
		PaidInstallments:  0,
		Kind:              in.Kind,
		StartDate:         startDate,
		Description:       strings.TrimSpace(in.Description),
		Settled:           false,
		CreatedAt:         s.now(),
	}
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}

	s.debts = append(s.debts, d)
	err := s.persist(ctx)
	s.publish(ctx, storage.DebtsKey, "create", d.ID)

	slog.InfoContext(ctx, "Debt created",
		"id", d.ID,
		"name", d.Name,
		"total_cents", d.TotalAmount.Cents,
		"installments", d.TotalInstallments,
		"kind", d.Kind.String())

	return d, err
}

// Update merges the input into an existing debt. The stored id, creation
// time, paid count and settled flag are preserved; the edit form never
// supplies them. A shrunken installment count clamps the paid count so the
// progress invariant keeps holding.
func (s *DebtStore) Update(ctx context.Context, id string, in DebtInput) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Debt{}, fmt.Errorf("debt %s: %w", id, core.ErrNotFound)
	}
	prev := s.debts[idx]

	d := prev
	d.Name = strings.TrimSpace(in.Name)
	d.TotalAmount = in.TotalAmount
	d.TotalInstallments = in.TotalInstallments
	d.Kind = in.Kind
	d.Description = strings.TrimSpace(in.Description)
	if !in.StartDate.IsZero() {
		d.StartDate = in.StartDate
	}
	if d.PaidInstallments > d.TotalInstallments {
		d.PaidInstallments = d.TotalInstallments
	}
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}

	s.debts[idx] = d
	err := s.persist(ctx)
	s.publish(ctx, storage.DebtsKey, "update", d.ID)

	slog.InfoContext(ctx, "Debt updated", "id", d.ID, "name", d.Name)

	return d, err
}

// Delete removes the debt. A missing id is a silent no-op; confirmation is
// the presentation layer's concern.
func (s *DebtStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil
	}

	s.debts = append(s.debts[:idx], s.debts[idx+1:]...)
	err := s.persist(ctx)
	s.publish(ctx, storage.DebtsKey, "delete", id)

	slog.InfoContext(ctx, "Debt deleted", "id", id)

	return err
}

// PayInstallment records one paid installment and returns the updated debt
// and its progress percentage for caller feedback. Missing or settled debts
// are a no-op, as is a reactivated debt already at its installment cap.
func (s *DebtStore) PayInstallment(ctx context.Context, id string) (core.Debt, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Debt{}, 0, nil
	}
	d := s.debts[idx]
	if d.Settled || d.PaidInstallments >= d.TotalInstallments {
		return d, d.Progress(), nil
	}

	d.PaidInstallments++
	if d.PaidInstallments == d.TotalInstallments {
		d.Settled = true
	}
	s.debts[idx] = d

	err := s.persist(ctx)
	s.publish(ctx, storage.DebtsKey, "pay", d.ID)

	slog.InfoContext(ctx, "Installment paid",
		"id", d.ID,
		"paid", d.PaidInstallments,
		"total", d.TotalInstallments,
		"settled", d.Settled)

	return d, d.Progress(), err
}

// MarkSettled forces the debt into the settled state, paying out all
// remaining installments at once. Missing ids are a silent no-op.
func (s *DebtStore) MarkSettled(ctx context.Context, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Debt{}, nil
	}
	d := s.debts[idx]
	d.Settled = true
	d.PaidInstallments = d.TotalInstallments
	s.debts[idx] = d

	err := s.persist(ctx)
	s.publish(ctx, storage.DebtsKey, "settle", d.ID)

	slog.InfoContext(ctx, "Debt marked settled", "id", d.ID)

	return d, err
}

// Reactivate clears the settled flag without touching the paid count, which
// can legally leave paid == total with settled == false.
func (s *DebtStore) Reactivate(ctx context.Context, id string) (core.Debt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Debt{}, nil
	}
	d := s.debts[idx]
	d.Settled = false
	s.debts[idx] = d

	err := s.persist(ctx)
	s.publish(ctx, storage.DebtsKey, "reactivate", d.ID)

	slog.InfoContext(ctx, "Debt reactivated", "id", d.ID)

	return d, err
}

// List returns a filtered, sorted view of the collection without mutating
// it. Unsettled debts come first, then progress descending; ties keep their
// stored relative order.
func (s *DebtStore) List(filterText string, status StatusFilter) []core.Debt {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(filterText))

	out := make([]core.Debt, 0, len(s.debts))
	for _, d := range s.debts {
		if needle != "" && !strings.Contains(strings.ToLower(d.Name), needle) {
			continue
		}
		switch status {
		case StatusActive:
			if d.Settled {
				continue
			}
		case StatusSettled:
			if !d.Settled {
				continue
			}
		}
		out = append(out, d)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Settled != out[j].Settled {
			return !out[i].Settled
		}
		return out[i].Progress() > out[j].Progress()
	})

	return out
}

// Summary aggregates the whole collection: record count, sum of face
// values, settled count and the rounded mean progress (0 when empty).
func (s *DebtStore) Summary() core.DebtSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := core.DebtSummary{Count: len(s.debts)}
	var progressTotal int64
	for _, d := range s.debts {
		sum.TotalAmount.Cents += d.TotalAmount.Cents
		if d.Settled {
			sum.SettledCount++
		}
		progressTotal += int64(d.Progress())
	}
	if sum.Count > 0 {
		n := int64(sum.Count)
		sum.AverageProgress = int((progressTotal + n/2) / n)
	}
	return sum
}

func (s *DebtStore) indexOf(id string) int {
	for i, d := range s.debts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

func (s *DebtStore) persist(ctx context.Context) error {
	data, err := encodeDebts(s.debts)
	if err != nil {
		return fmt.Errorf("encode debts: %w", err)
	}
	if err := s.kv.Put(ctx, storage.DebtsKey, data); err != nil {
		slog.WarnContext(ctx, "Debt collection persist failed, in-memory state kept", "error", err)
		return &core.PersistenceError{Err: err}
	}
	return nil
}

func (s *DebtStore) publish(ctx context.Context, collection, action, ref string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishChange(ctx, collection, action, ref); err != nil {
		slog.WarnContext(ctx, "Change event publish failed",
			"collection", collection,
			"action", action,
			"ref", ref,
			"error", err)
	}
}

// IsPersistenceWarning reports whether err is a persistence failure that
// followed an applied mutation.
func IsPersistenceWarning(err error) bool {
	var pe *core.PersistenceError
	return errors.As(err, &pe)
}

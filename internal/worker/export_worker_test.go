package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Romario114/Site-financeiro/internal/amqp"
	"github.com/Romario114/Site-financeiro/internal/storage"
)

func TestExportCollection(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	payload := []byte(`[{"id":"d1","name":"Carro"}]`)
	if err := kv.Put(ctx, storage.DebtsKey, payload); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	dir := t.TempDir()
	w := NewExportWorker(kv, dir)

	if err := w.ExportCollection(ctx, storage.DebtsKey); err != nil {
		t.Fatalf("ExportCollection() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "debts.json"))
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("snapshot = %s, want %s", got, payload)
	}
}

func TestExportCollectionAbsentKey(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	w := NewExportWorker(storage.NewMemoryKV(), dir)

	if err := w.ExportCollection(ctx, storage.IncomesKey); err != nil {
		t.Fatalf("ExportCollection() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "incomes.json"))
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("absent collection exported as %s, want []", got)
	}
}

func TestHandleChange(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	kv.Put(ctx, storage.ExpensesKey, []byte(`[{"id":"e1"}]`))

	dir := t.TempDir()
	w := NewExportWorker(kv, dir)

	msg := amqp.NewChangeMessage(storage.ExpensesKey, "add", "e1")
	if err := w.HandleChange(ctx, msg); err != nil {
		t.Fatalf("HandleChange() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "expenses.json")); err != nil {
		t.Errorf("HandleChange() wrote no snapshot: %v", err)
	}
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	kv.Put(ctx, storage.DebtsKey, []byte(`[]`))

	dir := t.TempDir()
	w := NewExportWorker(kv, dir)

	if err := w.ExportAll(ctx); err != nil {
		t.Fatalf("ExportAll() error = %v", err)
	}
	for _, name := range []string{"debts.json", "incomes.json", "expenses.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing snapshot %s: %v", name, err)
		}
	}
}

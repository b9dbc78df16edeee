package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Romario114/Site-financeiro/internal/amqp"
	"github.com/Romario114/Site-financeiro/internal/storage"
)

// ExportWorker mirrors persisted collections into plain JSON snapshot files,
// one per collection, so backups stay readable without the database.
type ExportWorker struct {
	kv        storage.KV
	exportDir string
}

func NewExportWorker(kv storage.KV, exportDir string) *ExportWorker {
	return &ExportWorker{
		kv:        kv,
		exportDir: exportDir,
	}
}

// HandleChange processes a single change message by re-exporting the
// collection it names. The message carries no payload; storage is the
// source of truth.
func (w *ExportWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"collection", msg.Collection,
		"action", msg.Action,
		"ref", msg.Ref)

	return w.ExportCollection(ctx, msg.Collection)
}

// ExportCollection writes one collection's current payload to
// <exportDir>/<collection>.json. An absent collection exports as an empty
// array. The write goes through a temp file so readers never see a partial
// snapshot.
func (w *ExportWorker) ExportCollection(ctx context.Context, collection string) error {
	data, ok, err := w.kv.Get(ctx, collection)
	if err != nil {
		return fmt.Errorf("read collection %s: %w", collection, err)
	}
	if !ok || len(data) == 0 {
		data = []byte("[]")
	}

	if err := os.MkdirAll(w.exportDir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}

	target := filepath.Join(w.exportDir, collection+".json")
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot %s: %w", target, err)
	}

	slog.InfoContext(ctx, "Collection exported",
		"collection", collection,
		"file", target,
		"bytes", len(data))

	return nil
}

// ExportAll snapshots every known collection. Used for the periodic full
// export so snapshots recover even when individual change messages were
// lost.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	for _, collection := range []string{storage.DebtsKey, storage.IncomesKey, storage.ExpensesKey} {
		if err := w.ExportCollection(ctx, collection); err != nil {
			return err
		}
	}
	return nil
}

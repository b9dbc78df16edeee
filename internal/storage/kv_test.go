package storage

import (
	"context"
	"testing"
)

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	// Absent key means empty collection, not an error.
	if _, ok, err := kv.Get(ctx, DebtsKey); err != nil || ok {
		t.Fatalf("absent key: ok=%v err=%v", ok, err)
	}

	if err := kv.Put(ctx, DebtsKey, []byte(`[{"id":"1"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := kv.Get(ctx, DebtsKey)
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(v) != `[{"id":"1"}]` {
		t.Fatalf("unexpected payload %q", v)
	}

	// Full rewrite per mutation: a second Put replaces the payload.
	if err := kv.Put(ctx, DebtsKey, []byte(`[]`)); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	v, _, _ = kv.Get(ctx, DebtsKey)
	if string(v) != `[]` {
		t.Fatalf("expected rewritten payload, got %q", v)
	}

	// The returned slice is a copy; mutating it must not leak into the store.
	v[0] = 'x'
	v2, _, _ := kv.Get(ctx, DebtsKey)
	if string(v2) != `[]` {
		t.Fatalf("stored payload mutated through returned slice")
	}
}

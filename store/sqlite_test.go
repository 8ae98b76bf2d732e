package store

import (
	"context"
	"reflect"
	"testing"

	"github.com/hazyhaar/ctxserve/dbopen"
	"github.com/hazyhaar/ctxserve/document"

	_ "modernc.org/sqlite"
)

func TestSQLitePersister_RoundTrip(t *testing.T) {
	// WHAT: The SQLite mirror is lossless, including weights and tiers.
	// WHY: Round-trip fidelity is the persistence collaborator's contract.
	ctx := context.Background()
	db := dbopen.OpenMemory(t)
	p, err := NewSQLitePersister(db)
	if err != nil {
		t.Fatalf("NewSQLitePersister: %v", err)
	}

	doc := testDoc("a", "Alpha", "alpha body")
	doc.Sections[0].Tier = document.TierHigh
	doc.Sections[0].ImportanceScore = 3.2
	doc.Weights = map[string]float64{"Alpha": 1.6}
	in := map[string]*document.Document{"a": doc}

	if err := p.Save(ctx, in); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(in["a"], out["a"]) {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in["a"], out["a"])
	}
}

func TestSQLitePersister_SnapshotReplaces(t *testing.T) {
	// WHAT: Each Save replaces the previous snapshot entirely.
	// WHY: The persister receives the full collection, not a delta.
	ctx := context.Background()
	db := dbopen.OpenMemory(t)
	p, err := NewSQLitePersister(db)
	if err != nil {
		t.Fatalf("NewSQLitePersister: %v", err)
	}

	p.Save(ctx, map[string]*document.Document{
		"a": testDoc("a", "A", "x"),
		"b": testDoc("b", "B", "y"),
	})
	p.Save(ctx, map[string]*document.Document{
		"a": testDoc("a", "A", "x"),
	})

	out, err := p.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 1 {
		t.Errorf("snapshot size = %d, want 1", len(out))
	}
	if _, ok := out["b"]; ok {
		t.Error("deleted document survived the snapshot replace")
	}
}

func TestStore_SQLiteBacked(t *testing.T) {
	// WHAT: A store mirrored to SQLite reloads its documents on restart.
	ctx := context.Background()
	db := dbopen.OpenMemory(t)
	p, err := NewSQLitePersister(db)
	if err != nil {
		t.Fatalf("NewSQLitePersister: %v", err)
	}

	s1 := newStore(t, WithPersister(p))
	if err := s1.Add(ctx, testDoc("a", "Alpha", "body")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	s2 := newStore(t, WithPersister(p))
	if _, err := s2.Get("a"); err != nil {
		t.Errorf("Get after reload: %v", err)
	}
}

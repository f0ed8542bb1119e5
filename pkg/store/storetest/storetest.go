// Package storetest keeps test suites against storedefs.Store.
package storetest

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"src.weft.sh/pkg/store/storedefs"
)

// TestSnapshots tests the snapshot functionality of a Store.
func TestSnapshots(t *testing.T, store storedefs.Store) {
	startSeq, err := store.NextSnapshotSeq()
	if startSeq != 1 || err != nil {
		t.Errorf("store.NextSnapshotSeq() -> (%v, %v), want (1, nil)", startSeq, err)
	}

	docs := []map[string]any{
		{"title": "first"},
		{"title": "second", "items": []any{"a", "b"}},
		{"title": "third", "nested": map[string]any{"x": "y"}},
	}
	names := []string{"main", "other", "main"}
	for i, doc := range docs {
		wantSeq := startSeq + i
		seq, err := store.AddSnapshot(names[i], doc)
		if seq != wantSeq || err != nil {
			t.Errorf("store.AddSnapshot(...) -> (%v, %v), want (%v, nil)", seq, err, wantSeq)
		}
	}

	endSeq, err := store.NextSnapshotSeq()
	wantEndSeq := startSeq + len(docs)
	if endSeq != wantEndSeq || err != nil {
		t.Errorf("store.NextSnapshotSeq() -> (%v, %v), want (%v, nil)", endSeq, err, wantEndSeq)
	}

	for i, doc := range docs {
		seq := i + startSeq
		snap, err := store.Snapshot(seq)
		if err != nil {
			t.Errorf("store.Snapshot(%v) -> error %v", seq, err)
			continue
		}
		if snap.Name != names[i] || snap.Seq != seq {
			t.Errorf("store.Snapshot(%v) -> (name %q, seq %v), want (%q, %v)", seq, snap.Name, snap.Seq, names[i], seq)
		}
		if diff := cmp.Diff(doc, snap.Doc); diff != "" {
			t.Errorf("store.Snapshot(%v) doc (-want +got):\n%s", seq, diff)
		}
	}

	last, err := store.LastSnapshot("main")
	if err != nil || last.Seq != startSeq+2 {
		t.Errorf("store.LastSnapshot(main) -> (seq %v, %v), want (%v, nil)", last.Seq, err, startSeq+2)
	}
	_, err = store.LastSnapshot("missing")
	if err != storedefs.ErrNoSnapshot {
		t.Errorf("store.LastSnapshot(missing) -> error %v, want %v", err, storedefs.ErrNoSnapshot)
	}

	snaps, err := store.Snapshots(startSeq, startSeq+2)
	if err != nil || len(snaps) != 2 || snaps[0].Seq != startSeq || snaps[1].Seq != startSeq+1 {
		t.Errorf("store.Snapshots(%v, %v) -> (%v, %v), want 2 snapshots", startSeq, startSeq+2, snaps, err)
	}

	if err := store.DelSnapshot(startSeq + 1); err != nil {
		t.Errorf("store.DelSnapshot(...) -> %v, want nil", err)
	}
	_, err = store.Snapshot(startSeq + 1)
	if err != storedefs.ErrNoSnapshot {
		t.Errorf("store.Snapshot(deleted) -> error %v, want %v", err, storedefs.ErrNoSnapshot)
	}
}

// TestMeta tests the meta functionality of a Store.
func TestMeta(t *testing.T, store storedefs.Store) {
	key := "tab"
	value := "0.2"

	if _, err := store.Meta(key); err != storedefs.ErrNoMeta {
		t.Error("want ErrNoMeta, got", err)
	}

	if err := store.SetMeta(key, value); err != nil {
		t.Error("want no error, got", err)
	}

	if v, err := store.Meta(key); v != value || err != nil {
		t.Errorf("store.Meta(%q) -> (%q, %v), want (%q, nil)", key, v, err, value)
	}

	if err := store.DelMeta(key); err != nil {
		t.Error("want no error, got", err)
	}

	if _, err := store.Meta(key); err != storedefs.ErrNoMeta {
		t.Error("want ErrNoMeta, got", err)
	}
}

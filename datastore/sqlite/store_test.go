/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/suparena/recordengine/datastore"
	"github.com/suparena/recordengine/datastore/sqlite"
	recerrors "github.com/suparena/recordengine/errors"
	"github.com/suparena/recordengine/storagemodels"
)

func newTestStore(t *testing.T, indexes int) (*sqlite.DB, *sqlite.Store) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := db.Store(context.Background(), "people", indexes)
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	return db, s
}

func rec(pk, k1, data string) *datastore.Record {
	r := datastore.NewRecord(2)
	r.SetKey(0, []byte(pk))
	r.SetKey(1, []byte(k1))
	r.Data = []byte(data)
	return r
}

func insert(t *testing.T, s *sqlite.Store, recs ...*datastore.Record) {
	t.Helper()
	ctx := context.Background()
	h, err := s.Open(ctx, datastore.ReadWrite)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer h.Close()
	for _, r := range recs {
		if err := h.Write(ctx, r); err != nil {
			t.Fatalf("Write %s failed: %v", r.KeyString(), err)
		}
	}
}

func scan(t *testing.T, s *sqlite.Store, index int, from *storagemodels.Position, mode datastore.PositionMode) []string {
	t.Helper()
	var pks []string
	_, err := datastore.Scan(context.Background(), s, index, from, mode, func(r *datastore.Record) (bool, error) {
		pks = append(pks, string(r.PrimaryKey()))
		return true, nil
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return pks
}

func TestSQLiteOrderedIndices(t *testing.T) {
	_, s := newTestStore(t, 2)
	insert(t, s, rec("c", "x", "3"), rec("a", "y", "1"), rec("b", "x", "2"), rec("d", "", "4"))

	tests := []struct {
		name  string
		index int
		from  *storagemodels.Position
		mode  datastore.PositionMode
		want  string
	}{
		{"Primary", 0, nil, datastore.First, "[a b c d]"},
		{"PrimaryAfter", 0, &storagemodels.Position{Key: []byte("b")}, datastore.After, "[c d]"},
		{"PrimaryAtOrAfter", 0, &storagemodels.Position{Key: []byte("b")}, datastore.AtOrAfter, "[b c d]"},
		{"Secondary", 1, nil, datastore.First, "[d b c a]"},
		{"SecondaryAfterRow", 1, &storagemodels.Position{Index: 1, Key: []byte("x"), Pk: []byte("b")}, datastore.After, "[c a]"},
		{"SecondaryAfterKey", 1, &storagemodels.Position{Index: 1, Key: []byte("x")}, datastore.After, "[a]"},
		{"SecondaryAtOrAfterKey", 1, &storagemodels.Position{Index: 1, Key: []byte("x")}, datastore.AtOrAfter, "[b c a]"},
		{"PastEnd", 0, &storagemodels.Position{Key: []byte("z")}, datastore.AtOrAfter, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scan(t, s, tt.index, tt.from, tt.mode)
			if fmtList(got) != tt.want {
				t.Fatalf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestSQLiteFreshness(t *testing.T) {
	ctx := context.Background()
	_, s := newTestStore(t, 2)

	v0, err := s.Freshness(ctx)
	if err != nil {
		t.Fatalf("Freshness failed: %v", err)
	}
	insert(t, s, rec("a", "x", "1"))
	v1, _ := s.Freshness(ctx)
	if v0 == v1 {
		t.Fatal("freshness unchanged after insert")
	}

	h, _ := s.Open(ctx, datastore.ReadWrite)
	defer h.Close()
	locked, err := h.ReadLock(ctx, rec("a", "", ""))
	if err != nil || locked == nil {
		t.Fatalf("ReadLock: rec=%v err=%v", locked, err)
	}
	locked.Data = []byte("2")
	if err := h.Rewrite(ctx, locked); err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	v2, _ := s.Freshness(ctx)
	if v2 == v1 {
		t.Fatal("freshness unchanged after rewrite")
	}

	got, err := h.Read(ctx, rec("a", "", ""))
	if err != nil || string(got.Data) != "2" {
		t.Fatalf("Read after rewrite: %v %v", got, err)
	}
}

func TestSQLiteWrites(t *testing.T) {
	ctx := context.Background()
	_, s := newTestStore(t, 2)
	insert(t, s, rec("a", "x", "1"))

	t.Run("Duplicate", func(t *testing.T) {
		h, _ := s.Open(ctx, datastore.ReadWrite)
		defer h.Close()
		if err := h.Write(ctx, rec("a", "x", "1")); !recerrors.IsAlreadyExists(err) {
			t.Fatalf("expected already exists, got %v", err)
		}
	})

	t.Run("ReadOnly", func(t *testing.T) {
		h, _ := s.Open(ctx, datastore.ReadOnly)
		defer h.Close()
		if err := h.Write(ctx, rec("b", "x", "1")); !errors.Is(err, recerrors.ErrReadOnly) {
			t.Fatalf("expected read-only error, got %v", err)
		}
	})

	t.Run("AbsentReadLock", func(t *testing.T) {
		h, _ := s.Open(ctx, datastore.ReadWrite)
		defer h.Close()
		r, err := h.ReadLock(ctx, rec("nope", "", ""))
		if err != nil || r != nil {
			t.Fatalf("expected nil record, got %v %v", r, err)
		}
		// the lock transaction is released, so a plain write still works
		if err := h.Write(ctx, rec("b", "x", "2")); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	})

	t.Run("DeleteRequiresLock", func(t *testing.T) {
		h, _ := s.Open(ctx, datastore.ReadWrite)
		defer h.Close()
		if err := h.Delete(ctx, rec("a", "", "")); !recerrors.IsStoreError(err) {
			t.Fatalf("expected store error, got %v", err)
		}
		locked, _ := h.ReadLock(ctx, rec("a", "", ""))
		if err := h.Delete(ctx, locked); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if r, _ := h.Read(ctx, rec("a", "", "")); r != nil {
			t.Fatal("record still present after delete")
		}
	})

	t.Run("CloseRollsBack", func(t *testing.T) {
		h, _ := s.Open(ctx, datastore.ReadWrite)
		if _, err := h.ReadLock(ctx, rec("b", "", "")); err != nil {
			t.Fatalf("ReadLock failed: %v", err)
		}
		if err := h.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		h2, _ := s.Open(ctx, datastore.ReadWrite)
		defer h2.Close()
		if r, err := h2.ReadLock(ctx, rec("b", "", "")); err != nil || r == nil {
			t.Fatalf("expected lock to be free, got %v %v", r, err)
		}
	})
}

func TestSQLiteStoreValidation(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestStore(t, 2)

	if _, err := db.Store(ctx, "bad name;", 1); !recerrors.IsArgumentError(err) {
		t.Fatalf("expected argument error for bad name, got %v", err)
	}
	if _, err := db.Store(ctx, "people", 3); !recerrors.IsArgumentError(err) {
		t.Fatalf("expected argument error for index mismatch, got %v", err)
	}
	if _, err := db.Store(ctx, "people", 2); err != nil {
		t.Fatalf("reopening store failed: %v", err)
	}
}

func fmtList(s []string) string {
	out := "["
	for i, v := range s {
		if i > 0 {
			out += " "
		}
		out += v
	}
	return out + "]"
}

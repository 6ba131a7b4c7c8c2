package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := Record{EntityType: "pipeline", ID: "p-1", Data: map[string]interface{}{"stage": "analyzing"}}
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Get(ctx, "pipeline", "p-1", "")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Data["stage"] != "analyzing" {
		t.Fatalf("got %+v", got)
	}

	// The store hands out copies; mutating a result must not leak back.
	got.Data["stage"] = "training"
	again, _ := s.Get(ctx, "pipeline", "p-1", "")
	if again.Data["stage"] != "analyzing" {
		t.Fatal("stored record was mutated through a returned copy")
	}

	rec.Data["stage"] = "completed"
	if err := s.Update(ctx, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.Get(ctx, "pipeline", "p-1", "")
	if got.Data["stage"] != "completed" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.Delete(ctx, "pipeline", "p-1", ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "pipeline", "p-1", ""); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestMemoryStoreListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"c", "a", "b"} {
		if err := s.Create(ctx, Record{EntityType: "decision", ID: id, Subfolder: "proj-1"}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}
	s.Create(ctx, Record{EntityType: "decision", ID: "x", Subfolder: "proj-2"})
	s.Create(ctx, Record{EntityType: "pipeline", ID: "p", Subfolder: "proj-1"})

	records, err := s.List(ctx, "decision", "proj-1", nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	// Insertion order, not key order.
	for i, want := range []string{"c", "a", "b"} {
		if records[i].ID != want {
			t.Fatalf("records[%d] = %s, want %s", i, records[i].ID, want)
		}
	}

	filtered, err := s.List(ctx, "decision", "proj-1", func(r Record) bool { return r.ID != "a" })
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("filter not applied, got %d records", len(filtered))
	}

	all, err := s.List(ctx, "decision", "", nil)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("empty subfolder must match every subfolder, got %d", len(all))
	}
}

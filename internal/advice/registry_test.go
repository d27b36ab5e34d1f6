package advice

import (
	"errors"
	"testing"

	"github.com/dshills/redline/internal/doc"
)

func newRegistry(t *testing.T, content string, cfg Config) (*doc.Document, *Registry) {
	t.Helper()
	d := doc.New(content)
	r := NewRegistry(d, cfg)
	d.Observe(r)
	return d, r
}

func TestAddAndGet(t *testing.T) {
	_, r := newRegistry(t, "Hello world", Config{})

	id, err := r.Add(Record{Range: doc.NewRange(0, 5), Message: "greeting", Author: "alice"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	rec, ok := r.Get(id)
	if !ok {
		t.Fatal("record not found")
	}
	if rec.Status != Open || !rec.Anchored {
		t.Errorf("expected open anchored record, got %v", rec)
	}
	if rec.Message != "greeting" {
		t.Errorf("expected message 'greeting', got %q", rec.Message)
	}
}

func TestAddRejectsBadRange(t *testing.T) {
	_, r := newRegistry(t, "short", Config{})

	tests := []doc.Range{
		doc.NewRange(3, 1),   // start > end
		doc.NewRange(-1, 2),  // negative start
		doc.NewRange(0, 100), // beyond document bounds
	}
	for _, rg := range tests {
		if _, err := r.Add(Record{Range: rg}); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("range %s: expected ErrInvalidRange, got %v", rg, err)
		}
	}
	if len(r.List()) != 0 {
		t.Error("failed add must not create a record")
	}
}

func TestSetActiveID(t *testing.T) {
	var activations []string
	_, r := newRegistry(t, "Hello world", Config{
		OnActivated: func(id string) { activations = append(activations, id) },
	})

	id, err := r.Add(Record{Range: doc.NewRange(0, 5)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := r.SetActiveID(id); err != nil {
		t.Fatalf("SetActiveID failed: %v", err)
	}
	if r.ActiveID() != id {
		t.Errorf("expected active id %s, got %s", id, r.ActiveID())
	}

	// Unknown id is rejected and leaves the active id unchanged.
	if err := r.SetActiveID("never-added"); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
	if r.ActiveID() != id {
		t.Errorf("failed SetActiveID changed active id to %s", r.ActiveID())
	}

	// Clearing works and fires once.
	if err := r.SetActiveID(""); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if err := r.SetActiveID(""); err != nil {
		t.Fatalf("repeat clear failed: %v", err)
	}
	if len(activations) != 2 {
		t.Errorf("expected 2 activation callbacks (set, clear), got %d: %v", len(activations), activations)
	}
}

func TestRemoveClearsActive(t *testing.T) {
	_, r := newRegistry(t, "Hello world", Config{})

	id, _ := r.Add(Record{Range: doc.NewRange(0, 5)})
	if err := r.SetActiveID(id); err != nil {
		t.Fatalf("SetActiveID failed: %v", err)
	}
	if err := r.Remove(id); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if r.ActiveID() != "" {
		t.Errorf("expected active id cleared, got %s", r.ActiveID())
	}
	if err := r.Remove(id); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord for double remove, got %v", err)
	}
}

func TestRemapAcrossEdits(t *testing.T) {
	d, r := newRegistry(t, "Hello world", Config{})

	id, _ := r.Add(Record{Range: doc.NewRange(6, 11)}) // "world"

	if _, err := d.Insert(0, ">> "); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	rec, _ := r.Get(id)
	if rec.Range != doc.NewRange(9, 14) {
		t.Errorf("expected range [9:14) after shift, got %s", rec.Range)
	}
}

func TestAnchorInvalidation(t *testing.T) {
	var resolved []Record
	d, r := newRegistry(t, "Hello world", Config{
		OnResolved: func(rec Record) { resolved = append(resolved, rec) },
	})

	id, _ := r.Add(Record{Range: doc.NewRange(0, 5)})
	if err := r.SetActiveID(id); err != nil {
		t.Fatalf("SetActiveID failed: %v", err)
	}

	// Delete the whole document content.
	if _, err := d.Delete(doc.NewRange(0, 11)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	rec, ok := r.Get(id)
	if !ok {
		t.Fatal("record should be retained for audit")
	}
	if rec.Status != Resolved {
		t.Errorf("expected Resolved, got %v", rec.Status)
	}
	if rec.Anchored || rec.Range != (doc.Range{}) {
		t.Errorf("expected cleared range, got %v", rec.Range)
	}
	if r.ActiveID() != "" {
		t.Errorf("expected active id cleared, got %s", r.ActiveID())
	}
	if len(resolved) != 1 {
		t.Errorf("expected 1 resolved callback, got %d", len(resolved))
	}
	if len(r.Open()) != 0 {
		t.Error("unanchored record must not be rendered")
	}
}

func TestResolveKeepsAnchor(t *testing.T) {
	_, r := newRegistry(t, "Hello world", Config{})

	id, _ := r.Add(Record{Range: doc.NewRange(0, 5)})
	if err := r.Resolve(id); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	rec, _ := r.Get(id)
	if !rec.Anchored {
		t.Error("manually resolved advice keeps its anchor")
	}
	if err := r.Resolve("ghost"); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestListOrder(t *testing.T) {
	d, r := newRegistry(t, "abcdefghij", Config{})

	idB, _ := r.Add(Record{Range: doc.NewRange(5, 7)})
	idA, _ := r.Add(Record{Range: doc.NewRange(1, 3)})

	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].ID != idA || list[1].ID != idB {
		t.Error("expected position order")
	}

	// Invalidate the first; it sorts after anchored records.
	if _, err := d.Delete(doc.NewRange(0, 4)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	list = r.List()
	if list[0].ID != idB || list[1].ID != idA {
		t.Error("unanchored records should sort last")
	}
}

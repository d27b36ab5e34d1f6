package track

import (
	"errors"
	"testing"

	"github.com/dshills/redline/internal/doc"
	"github.com/dshills/redline/internal/textdiff"
)

// replaceScript builds the script for typing over a selection: the old
// content struck out, the new content inserted.
func replaceScript(old, new string) textdiff.Script {
	var s textdiff.Script
	if old != "" {
		s = append(s, textdiff.Op{Kind: textdiff.Delete, Text: old, N: len(old)})
	}
	if new != "" {
		s = append(s, textdiff.Op{Kind: textdiff.Insert, Text: new, N: len(new)})
	}
	return s
}

func newTracked(t *testing.T, content string) (*doc.Document, *Store) {
	t.Helper()
	d := doc.New(content)
	s := NewStore(d, Config{Enabled: true})
	d.Observe(s)
	return d, s
}

func TestRecordMutationReplace(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	// Select "world", type "everyone".
	created, err := s.RecordMutation(6, replaceScript("world", "everyone"), "alice")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 records, got %d", len(created))
	}

	var del, ins Record
	for _, rec := range created {
		switch rec.Kind {
		case Deletion:
			del = rec
		case Insertion:
			ins = rec
		}
	}
	if del.RemovedContent != "world" {
		t.Errorf("expected removed content 'world', got %q", del.RemovedContent)
	}
	if ins.InsertedContent != "everyone" {
		t.Errorf("expected inserted content 'everyone', got %q", ins.InsertedContent)
	}

	// Deletion is visual-only: both spans are in the content stream.
	if got := d.Text(); got != "Hello worldeveryone" {
		t.Errorf("expected struck+inserted content, got %q", got)
	}

	marks := s.Marks()
	if len(marks) != 2 {
		t.Fatalf("expected 2 marks, got %d", len(marks))
	}
	if marks[0].Kind != Deletion || marks[1].Kind != Insertion {
		t.Errorf("unexpected mark kinds: %v, %v", marks[0].Kind, marks[1].Kind)
	}
}

func TestRejectAllRestoresOriginal(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	if _, err := s.RecordMutation(6, replaceScript("world", "everyone"), "alice"); err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	if err := s.RejectAll(); err != nil {
		t.Fatalf("RejectAll failed: %v", err)
	}
	if got := d.Text(); got != "Hello world" {
		t.Errorf("expected original content restored, got %q", got)
	}
	if len(s.Pending()) != 0 {
		t.Errorf("expected no pending records after RejectAll")
	}
}

func TestAcceptAllAppliesProposal(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	if _, err := s.RecordMutation(6, replaceScript("world", "everyone"), "alice"); err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	if err := s.AcceptAll(); err != nil {
		t.Fatalf("AcceptAll failed: %v", err)
	}
	if got := d.Text(); got != "Hello everyone" {
		t.Errorf("expected 'Hello everyone', got %q", got)
	}
}

func TestRejectInsertionRoundTrip(t *testing.T) {
	d, s := newTracked(t, "abc")
	before := d.Text()

	created, err := s.RecordMutation(3, replaceScript("", "XYZ"), "bob")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	if d.Text() != "abcXYZ" {
		t.Fatalf("insertion not applied: %q", d.Text())
	}
	if err := s.Reject(created[0].ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got := d.Text(); got != before {
		t.Errorf("expected %q after reject, got %q", before, got)
	}
}

func TestAcceptDeletionIrreversible(t *testing.T) {
	d, s := newTracked(t, "abcdef")

	created, err := s.RecordMutation(1, replaceScript("bcd", ""), "bob")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	// Content still present before accept.
	if d.Text() != "abcdef" {
		t.Fatalf("deletion should be visual-only, got %q", d.Text())
	}

	id := created[0].ID
	if err := s.Accept(id); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if got := d.Text(); got != "aef" {
		t.Errorf("expected 'aef' after accepting deletion, got %q", got)
	}

	// Accept then reject is invalid.
	if err := s.Reject(id); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestRejectDeletionRestoresContent(t *testing.T) {
	d, s := newTracked(t, "abcdef")

	created, err := s.RecordMutation(1, replaceScript("bcd", ""), "bob")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	if err := s.Reject(created[0].ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if got := d.Text(); got != "abcdef" {
		t.Errorf("expected 'abcdef', got %q", got)
	}
}

func TestUnknownRecord(t *testing.T) {
	_, s := newTracked(t, "abc")

	if err := s.Accept("no-such-id"); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
	if err := s.Reject("no-such-id"); !errors.Is(err, ErrUnknownRecord) {
		t.Errorf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestDisabledPassthrough(t *testing.T) {
	d := doc.New("abc")
	s := NewStore(d, Config{})
	d.Observe(s)

	if s.Enabled() {
		t.Error("tracking should default to disabled")
	}
	if _, err := s.RecordMutation(0, replaceScript("", "x"), "x"); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
	if len(s.Pending()) != 0 {
		t.Error("no records should exist while disabled")
	}
}

func TestRemapAcrossForeignEdit(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	created, err := s.RecordMutation(6, replaceScript("", "brave "), "alice")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	rec := created[0]

	// A foreign insertion before the record shifts its anchor.
	if _, err := d.Insert(0, ">> "); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	got, ok := s.Get(rec.ID)
	if !ok {
		t.Fatal("record vanished after foreign edit")
	}
	want := rec.Range.Shift(3)
	if got.Range != want {
		t.Errorf("expected range %s after shift, got %s", want, got.Range)
	}

	// Rejecting still removes exactly the inserted content.
	if err := s.Reject(rec.ID); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if text := d.Text(); text != ">> Hello world" {
		t.Errorf("expected '>> Hello world', got %q", text)
	}
}

func TestForeignWipeDiscardsDeletionRecord(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	var resolved []Record
	s.cfg.OnResolved = func(r Record) { resolved = append(resolved, r) }

	created, err := s.RecordMutation(6, replaceScript("world", ""), "alice")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}

	// A foreign edit deletes the struck span entirely.
	if _, err := d.Delete(doc.NewRange(5, 11)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok := s.Get(created[0].ID); ok {
		if rec, _ := s.Get(created[0].ID); rec.Status == Pending {
			t.Error("deletion record should be force-resolved after foreign wipe")
		}
	}
	if len(resolved) != 1 {
		t.Errorf("expected 1 resolved notification, got %d", len(resolved))
	}
}

func TestMappingConflictOnDamagedPayload(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	created, err := s.RecordMutation(6, replaceScript("world", ""), "alice")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}

	// A foreign edit chews off part of the struck span.
	if _, err := d.Delete(doc.NewRange(9, 11)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	rec, ok := s.Get(created[0].ID)
	if ok && rec.Status == Pending {
		// Partial damage may surface at accept time instead.
		if err := s.Accept(created[0].ID); !errors.Is(err, ErrMappingConflict) {
			t.Errorf("expected ErrMappingConflict, got %v", err)
		}
	}
}

func TestFormatChangeLifecycle(t *testing.T) {
	d, s := newTracked(t, "Hello world")

	rec, err := s.RecordFormatChange(doc.NewRange(0, 5), "carol")
	if err != nil {
		t.Fatalf("RecordFormatChange failed: %v", err)
	}
	if err := s.Accept(rec.ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if d.Text() != "Hello world" {
		t.Error("format change must not alter content")
	}
}

func TestCallbacksFireOncePerTransition(t *testing.T) {
	d := doc.New("abc")
	var createdN, resolvedN int
	s := NewStore(d, Config{
		Enabled:    true,
		OnCreated:  func(Record) { createdN++ },
		OnResolved: func(Record) { resolvedN++ },
	})
	d.Observe(s)

	created, err := s.RecordMutation(0, replaceScript("", "zz"), "a")
	if err != nil {
		t.Fatalf("RecordMutation failed: %v", err)
	}
	if createdN != 1 {
		t.Errorf("expected 1 created callback, got %d", createdN)
	}
	if err := s.Accept(created[0].ID); err != nil {
		t.Fatalf("Accept failed: %v", err)
	}
	if resolvedN != 1 {
		t.Errorf("expected 1 resolved callback, got %d", resolvedN)
	}
}

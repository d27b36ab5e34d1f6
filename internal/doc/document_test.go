package doc

import (
	"errors"
	"testing"
)

func TestRange(t *testing.T) {
	r := NewRange(3, 8)

	if r.Len() != 5 {
		t.Errorf("expected len 5, got %d", r.Len())
	}
	if r.IsEmpty() {
		t.Error("range should not be empty")
	}
	if !r.Contains(3) || r.Contains(8) {
		t.Error("range should be start-inclusive, end-exclusive")
	}
	if !r.Overlaps(NewRange(7, 10)) {
		t.Error("ranges [3:8) and [7:10) should overlap")
	}
	if r.Overlaps(NewRange(8, 10)) {
		t.Error("ranges [3:8) and [8:10) should not overlap")
	}
	if !NewRange(4, 4).IsEmpty() {
		t.Error("zero-width range should be empty")
	}
	if NewRange(5, 2).IsValid() {
		t.Error("range with Start > End should be invalid")
	}
}

func TestDocumentReplace(t *testing.T) {
	d := New("Hello world")

	tx, err := d.Replace(NewRange(6, 11), "everyone")
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if got := d.Text(); got != "Hello everyone" {
		t.Errorf("expected 'Hello everyone', got %q", got)
	}
	if len(tx.Regions) != 1 {
		t.Fatalf("expected 1 region, got %d", len(tx.Regions))
	}
	if rg := tx.Regions[0]; rg.OldRange != NewRange(6, 11) || rg.NewLen != 8 {
		t.Errorf("unexpected region %s", rg)
	}
	if tx.Delta() != 3 {
		t.Errorf("expected delta 3, got %d", tx.Delta())
	}
}

func TestDocumentInsertDelete(t *testing.T) {
	d := New("abc")

	if _, err := d.Insert(3, "def"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if got := d.Text(); got != "abcdef" {
		t.Errorf("expected 'abcdef', got %q", got)
	}

	if _, err := d.Delete(NewRange(1, 5)); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := d.Text(); got != "af" {
		t.Errorf("expected 'af', got %q", got)
	}
}

func TestDocumentBounds(t *testing.T) {
	d := New("abc")

	if _, err := d.Replace(NewRange(2, 10), "x"); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
	if _, err := d.Replace(NewRange(5, 2), "x"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
	if d.Text() != "abc" {
		t.Error("failed edit must not modify content")
	}
}

func TestDocumentApplyMultiRegion(t *testing.T) {
	d := New("one two three")

	// Replace "one" and "three" in a single transaction.
	tx, err := d.Apply(
		[]Region{
			{OldRange: NewRange(0, 3), NewLen: 4},
			{OldRange: NewRange(8, 13), NewLen: 4},
		},
		[]string{"won!", "tree"},
	)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got := d.Text(); got != "won! two tree" {
		t.Errorf("expected 'won! two tree', got %q", got)
	}
	if len(tx.Regions) != 2 {
		t.Errorf("expected 2 regions, got %d", len(tx.Regions))
	}
}

func TestDocumentApplyRejectsOverlap(t *testing.T) {
	d := New("abcdef")

	_, err := d.Apply(
		[]Region{
			{OldRange: NewRange(0, 4), NewLen: 1},
			{OldRange: NewRange(2, 6), NewLen: 1},
		},
		[]string{"x", "y"},
	)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange for overlapping regions, got %v", err)
	}
}

type recordingObserver struct {
	transactions []Transaction
}

func (o *recordingObserver) OnTransaction(_ *Document, tx Transaction) {
	o.transactions = append(o.transactions, tx)
}

func TestObserverOrder(t *testing.T) {
	d := New("")
	var order []int
	first := observerFunc(func() { order = append(order, 1) })
	second := observerFunc(func() { order = append(order, 2) })
	d.Observe(first)
	d.Observe(second)

	if _, err := d.Insert(0, "x"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("observers not invoked in registration order: %v", order)
	}
}

type observerFunc func()

func (f observerFunc) OnTransaction(*Document, Transaction) { f() }

func TestObserverSeesRevisions(t *testing.T) {
	d := New("abc")
	rec := &recordingObserver{}
	d.Observe(rec)

	d.Insert(0, "x")
	d.Delete(NewRange(0, 1))

	if len(rec.transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(rec.transactions))
	}
	if rec.transactions[0].Revision != 1 || rec.transactions[1].Revision != 2 {
		t.Errorf("unexpected revisions %d, %d",
			rec.transactions[0].Revision, rec.transactions[1].Revision)
	}
}

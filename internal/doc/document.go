package doc

import (
	"fmt"
	"sync"
)

// Observer receives every applied transaction, in registration order.
// Observers are invoked synchronously on the mutating goroutine after
// the edit has been applied; they may issue further document mutations
// (which produce their own transactions) but must not block.
type Observer interface {
	OnTransaction(d *Document, tx Transaction)
}

// Document is the editing surface: the single source of truth that all
// overlays annotate. Content is addressed by byte offsets into the
// flattened text stream. Every mutation is described to observers as a
// Transaction of ordered, non-overlapping replaced regions.
//
// All mutations are expected to arrive through one serialized pipeline;
// the internal lock protects content reads from other goroutines but is
// never held while observers run, so observers may mutate the document
// reentrantly.
type Document struct {
	mu        sync.RWMutex
	content   []byte
	rev       RevisionID
	observers []Observer
}

// New creates a document with the given initial content.
func New(initial string) *Document {
	return &Document{content: []byte(initial)}
}

// Observe appends an observer to the notification list.
// Observers are notified in registration order.
func (d *Document) Observe(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}

// Len returns the current content length.
func (d *Document) Len() Offset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Offset(len(d.content))
}

// Revision returns the current revision.
func (d *Document) Revision() RevisionID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.rev
}

// Text returns the full document content.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return string(d.content)
}

// Slice returns the content covered by a range.
func (d *Document) Slice(r Range) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !r.IsValid() || r.Start < 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidRange, r)
	}
	if r.End > Offset(len(d.content)) {
		return "", fmt.Errorf("%w: %s in [0:%d)", ErrOutOfBounds, r, len(d.content))
	}
	return string(d.content[r.Start:r.End]), nil
}

// Insert inserts text at the given position.
func (d *Document) Insert(at Offset, text string) (Transaction, error) {
	return d.Replace(Range{Start: at, End: at}, text)
}

// Delete removes the content covered by a range.
func (d *Document) Delete(r Range) (Transaction, error) {
	return d.Replace(r, "")
}

// Replace substitutes the content at r with text, producing a
// single-region transaction and notifying every observer.
func (d *Document) Replace(r Range, text string) (Transaction, error) {
	return d.Apply([]Region{{OldRange: r, NewLen: Offset(len(text))}}, []string{text})
}

// Apply performs a multi-region edit atomically. Regions must be
// position-ordered and non-overlapping, with coordinates in the current
// (pre-edit) document state; texts supplies the replacement content per
// region. A single transaction describing every region is delivered to
// observers after all regions are applied.
func (d *Document) Apply(regions []Region, texts []string) (Transaction, error) {
	if len(regions) != len(texts) {
		return Transaction{}, fmt.Errorf("%w: %d regions, %d texts", ErrInvalidRange, len(regions), len(texts))
	}

	d.mu.Lock()
	tx := Transaction{Regions: regions}
	if err := tx.Validate(); err != nil {
		d.mu.Unlock()
		return Transaction{}, err
	}
	if n := len(regions); n > 0 && regions[n-1].OldRange.End > Offset(len(d.content)) {
		d.mu.Unlock()
		return Transaction{}, fmt.Errorf("%w: %s in [0:%d)", ErrOutOfBounds, regions[n-1].OldRange, len(d.content))
	}
	for i, rg := range regions {
		if rg.NewLen != Offset(len(texts[i])) {
			d.mu.Unlock()
			return Transaction{}, fmt.Errorf("%w: region %s text length %d", ErrInvalidRange, rg, len(texts[i]))
		}
	}

	// Apply high-to-low so earlier regions keep their coordinates.
	for i := len(regions) - 1; i >= 0; i-- {
		rg := regions[i].OldRange
		next := make([]byte, 0, len(d.content)+len(texts[i])-int(rg.Len()))
		next = append(next, d.content[:rg.Start]...)
		next = append(next, texts[i]...)
		next = append(next, d.content[rg.End:]...)
		d.content = next
	}
	d.rev++
	tx.Revision = d.rev
	observers := d.observers
	d.mu.Unlock()

	for _, o := range observers {
		o.OnTransaction(d, tx)
	}
	return tx, nil
}

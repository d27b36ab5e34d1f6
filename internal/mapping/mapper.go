// Package mapping translates document ranges across mutations.
// It is the leaf dependency every overlay uses to keep its anchors
// valid while the document changes underneath them.
package mapping

import (
	"fmt"

	"github.com/dshills/redline/internal/doc"
)

// Kind classifies the outcome of mapping a range through a transaction.
type Kind uint8

const (
	// Unaffected means the mutation occurred entirely outside the range;
	// the range is unchanged.
	Unaffected Kind = iota

	// Valid means the range survived, possibly shifted or resized.
	Valid

	// ShrunkToPoint means the range's content was fully replaced or
	// deleted. Callers decide whether that invalidates the anchor.
	ShrunkToPoint
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Unaffected:
		return "unaffected"
	case Valid:
		return "valid"
	case ShrunkToPoint:
		return "shrunk-to-point"
	default:
		return "unknown"
	}
}

// Mapped is the result of mapping a range through a transaction.
type Mapped struct {
	Kind  Kind
	Range doc.Range  // Result range for Unaffected and Valid
	Point doc.Offset // Collapse position for ShrunkToPoint
}

// String returns a human-readable representation of the result.
func (m Mapped) String() string {
	if m.Kind == ShrunkToPoint {
		return fmt.Sprintf("%s@%d", m.Kind, m.Point)
	}
	return fmt.Sprintf("%s%s", m.Kind, m.Range)
}

// Map translates r across a single transaction. All transaction region
// coordinates and r refer to the same pre-mutation document state;
// the result is in post-mutation coordinates.
//
// Regions are processed in the order the transaction produced them
// (position-ordered, non-overlapping by construction). Non-overlapping
// regions shift endpoints by their length delta. A region entirely
// containing r collapses it to a point at the region's start. A region
// overlapping only one boundary clamps that boundary to the region's
// post-edit boundary on the surviving side.
//
// Map is a pure function and is idempotent on a no-op transaction.
func Map(r doc.Range, tx doc.Transaction) Mapped {
	start, end := r.Start, r.End
	var shift doc.Offset // accumulated delta of regions before the current point
	touched := false

	for _, rg := range tx.Regions {
		o := rg.OldRange
		delta := rg.Delta()

		// Full containment collapses the anchor. Pure insertions
		// (empty old range) never swallow content, and a zero-width
		// anchor sitting exactly on a region boundary shifts instead.
		contained := o.Len() > 0 && o.Start <= r.Start && r.End <= o.End
		if contained && (r.Len() > 0 || (r.Start > o.Start && r.Start < o.End)) {
			return Mapped{Kind: ShrunkToPoint, Point: o.Start + shift}
		}

		switch {
		case o.End <= r.Start:
			// Entirely before: both endpoints shift.
			start += delta
			end += delta
			touched = touched || delta != 0

		case o.Start >= r.End:
			// Entirely after: nothing to do, and no later region
			// can affect the anchor either.

		case o.Start < r.Start:
			// Overlaps the left boundary only: the surviving tail
			// begins after the replacement content.
			start = o.Start + rg.NewLen + shift
			end += delta
			touched = true

		case o.End > r.End:
			// Overlaps the right boundary only: the surviving head
			// ends where the replacement begins.
			end = o.Start + shift
			touched = true

		default:
			// Region strictly inside the anchor: the anchor absorbs
			// the length change.
			end += delta
			touched = touched || delta != 0
		}

		shift += delta
	}

	out := doc.Range{Start: start, End: end}
	if !touched && out == r {
		return Mapped{Kind: Unaffected, Range: out}
	}
	return Mapped{Kind: Valid, Range: out}
}

package doc

import "fmt"

// RevisionID uniquely identifies a document revision.
// Each applied transaction produces a new revision.
type RevisionID uint64

// Region describes a single replaced span within a transaction:
// the content at OldRange (in pre-mutation coordinates) was replaced
// by NewLen units of new content.
type Region struct {
	OldRange Range  // Replaced span in pre-mutation coordinates
	NewLen   Offset // Length of the replacement content
}

// Delta returns the change in document length caused by this region.
func (rg Region) Delta() Offset {
	return rg.NewLen - rg.OldRange.Len()
}

// String returns a human-readable representation of the region.
func (rg Region) String() string {
	return fmt.Sprintf("%s->%d", rg.OldRange, rg.NewLen)
}

// Transaction describes one applied document mutation as an ordered,
// non-overlapping sequence of replaced regions. All region coordinates
// refer to the document state BEFORE the mutation. A transaction is the
// contract the document supplies to every observer on every edit; no
// mutation counts as applied until its transaction has been delivered.
type Transaction struct {
	Regions  []Region
	Revision RevisionID
}

// Validate checks that regions are well-formed, position-ordered,
// and non-overlapping.
func (tx Transaction) Validate() error {
	var prev Offset = -1
	for _, rg := range tx.Regions {
		if !rg.OldRange.IsValid() || rg.OldRange.Start < 0 || rg.NewLen < 0 {
			return fmt.Errorf("%w: region %s", ErrInvalidRange, rg)
		}
		if rg.OldRange.Start < prev {
			return fmt.Errorf("%w: region %s out of order", ErrInvalidRange, rg)
		}
		prev = rg.OldRange.End
	}
	return nil
}

// Delta returns the net change in document length.
func (tx Transaction) Delta() Offset {
	var d Offset
	for _, rg := range tx.Regions {
		d += rg.Delta()
	}
	return d
}

// IsNoOp returns true if the transaction changes nothing.
func (tx Transaction) IsNoOp() bool {
	for _, rg := range tx.Regions {
		if rg.OldRange.Len() != 0 || rg.NewLen != 0 {
			return false
		}
	}
	return true
}

package track

import (
	"fmt"
	"time"

	"github.com/dshills/redline/internal/doc"
)

// Kind categorizes a change record.
type Kind uint8

const (
	// Insertion proposes added content.
	Insertion Kind = iota

	// Deletion proposes removed content. The struck-through content
	// stays in the document until the record is accepted.
	Deletion

	// FormatChange proposes a formatting change over a range.
	FormatChange
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Insertion:
		return "insertion"
	case Deletion:
		return "deletion"
	case FormatChange:
		return "format-change"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a change record.
// The only transitions are Pending -> Accepted and Pending -> Rejected;
// both are terminal.
type Status uint8

const (
	// Pending means the proposal awaits review.
	Pending Status = iota

	// Accepted means the proposal was applied. Terminal.
	Accepted

	// Rejected means the proposal was reverted. Terminal.
	Rejected
)

// String returns a human-readable representation of the status.
func (st Status) String() string {
	switch st {
	case Pending:
		return "pending"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Record is a single tracked change anchored to a document range.
// RemovedContent is captured once at creation and never remapped; it is
// the only source of truth for restoring a rejected deletion.
type Record struct {
	ID              string
	Kind            Kind
	Range           doc.Range
	InsertedContent string
	RemovedContent  string
	Author          string
	CreatedAt       time.Time
	Status          Status
}

// String returns a human-readable representation of the record.
func (r Record) String() string {
	return fmt.Sprintf("%s %s %s by %s (%s)", r.ID[:8], r.Kind, r.Range, r.Author, r.Status)
}

// Mark is a visual annotation identifying the span owned by a pending
// change record. The rendering surface pulls marks to re-annotate the
// document after every mutation.
type Mark struct {
	RecordID string
	Kind     Kind
	Range    doc.Range
}

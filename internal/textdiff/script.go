// Package textdiff computes minimal edit scripts between two content
// snapshots. Content is compared at grapheme-cluster granularity so a
// script never splits a multi-byte glyph.
package textdiff

import (
	"fmt"
	"strings"

	"github.com/rivo/uniseg"
)

// OpKind indicates the type of a script operation.
type OpKind uint8

const (
	// Retain keeps a span of the old content unchanged.
	Retain OpKind = iota

	// Insert adds new content.
	Insert

	// Delete removes a span of the old content.
	Delete
)

// String returns a human-readable representation of the op kind.
func (k OpKind) String() string {
	switch k {
	case Retain:
		return "retain"
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is a single operation in an edit script. Text carries the covered
// content; N is its length in grapheme clusters.
type Op struct {
	Kind OpKind
	Text string
	N    int
}

// String returns a human-readable representation of the op.
func (op Op) String() string {
	return fmt.Sprintf("%s(%d, %q)", op.Kind, op.N, op.Text)
}

// Script is an ordered sequence of operations transforming one content
// snapshot into another.
type Script []Op

// Apply transforms old into the new content the script encodes.
// Retain and Delete ops are verified against old; a mismatch returns
// ErrScriptMismatch.
func (s Script) Apply(old string) (string, error) {
	var out strings.Builder
	pos := 0
	for _, op := range s {
		switch op.Kind {
		case Retain, Delete:
			if !strings.HasPrefix(old[pos:], op.Text) {
				return "", fmt.Errorf("%w: %s at byte %d", ErrScriptMismatch, op, pos)
			}
			if op.Kind == Retain {
				out.WriteString(op.Text)
			}
			pos += len(op.Text)
		case Insert:
			out.WriteString(op.Text)
		}
	}
	if pos != len(old) {
		return "", fmt.Errorf("%w: script covers %d of %d bytes", ErrScriptMismatch, pos, len(old))
	}
	return out.String(), nil
}

// IsIdentity returns true if the script contains no Insert or Delete ops.
func (s Script) IsIdentity() bool {
	for _, op := range s {
		if op.Kind != Retain {
			return false
		}
	}
	return true
}

// Stats returns the number of inserted and deleted grapheme clusters.
func (s Script) Stats() (inserted, deleted int) {
	for _, op := range s {
		switch op.Kind {
		case Insert:
			inserted += op.N
		case Delete:
			deleted += op.N
		}
	}
	return inserted, deleted
}

// graphemes splits s into grapheme clusters.
func graphemes(s string) []string {
	if s == "" {
		return nil
	}
	units := make([]string, 0, len(s))
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		units = append(units, gr.Str())
	}
	return units
}

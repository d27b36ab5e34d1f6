package doc

import "errors"

// Document errors.
var (
	// ErrInvalidRange indicates a malformed range (Start > End or negative).
	ErrInvalidRange = errors.New("doc: invalid range")

	// ErrOutOfBounds indicates a position beyond the document length.
	ErrOutOfBounds = errors.New("doc: position out of bounds")
)

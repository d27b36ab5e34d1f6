package track

import "errors"

// Track-change errors.
var (
	// ErrUnknownRecord indicates an operation referenced a record id
	// that is not in the store.
	ErrUnknownRecord = errors.New("track: unknown record")

	// ErrAlreadyResolved indicates accept or reject was called on a
	// record that is no longer pending.
	ErrAlreadyResolved = errors.New("track: record already resolved")

	// ErrMappingConflict indicates a mutation overlapped a deletion
	// record's captured content in a way that cannot be unambiguously
	// remapped. The record is forcibly resolved, never silently
	// corrupted.
	ErrMappingConflict = errors.New("track: mapping conflict")

	// ErrDisabled indicates the store was asked to record while
	// tracking is disabled.
	ErrDisabled = errors.New("track: tracking disabled")
)

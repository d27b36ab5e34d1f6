package advice

import "errors"

// Advice errors.
var (
	// ErrUnknownRecord indicates an operation referenced an advice id
	// that is not in the registry.
	ErrUnknownRecord = errors.New("advice: unknown record")

	// ErrInvalidRange indicates a malformed or out-of-bounds anchor.
	ErrInvalidRange = errors.New("advice: invalid range")
)

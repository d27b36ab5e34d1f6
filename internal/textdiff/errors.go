package textdiff

import "errors"

// Diff errors.
var (
	// ErrScriptMismatch indicates a script was applied to content it
	// was not computed from.
	ErrScriptMismatch = errors.New("textdiff: script does not match content")
)

package completion

import "errors"

// Completion errors. Provider failures degrade to "no suggestion
// available"; editing continues unaffected.
var (
	// ErrProviderTimeout indicates the provider did not answer within
	// the configured window.
	ErrProviderTimeout = errors.New("completion: provider timeout")

	// ErrProviderError indicates the provider failed.
	ErrProviderError = errors.New("completion: provider error")

	// ErrNoSuggestion indicates there is no ghost text to accept.
	ErrNoSuggestion = errors.New("completion: no suggestion available")
)

package command

import "errors"

// Command dispatch errors.
var (
	// ErrUnknownCommand indicates no handler is registered for the
	// command id.
	ErrUnknownCommand = errors.New("command: unknown command")

	// ErrDuplicateCommand indicates a command id was registered twice.
	ErrDuplicateCommand = errors.New("command: duplicate command")
)

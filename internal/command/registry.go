// Package command implements the command dispatch layer: a table of
// registered handlers and trigger detection for the slash menu.
package command

import (
	"fmt"
	"sort"

	"github.com/dshills/redline/internal/doc"
)

// Context carries everything a handler needs to act on the document.
// Apply is the serialized mutation entry point supplied by the session;
// handlers mutate the document exclusively through it.
type Context struct {
	// At is the position where the trigger fired.
	At doc.Offset

	// Query is the text typed after the trigger prefix.
	Query string

	// Apply replaces [start, end) with text through the session's
	// mutation pipeline.
	Apply func(start, end doc.Offset, text string) error
}

// Handler executes a command against the editor context.
type Handler func(ctx *Context) error

// Registry maps command ids to handlers. The table is populated at
// startup; no runtime re-registration is required.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds a handler for a command id.
func (r *Registry) Register(id string, h Handler) error {
	if _, ok := r.handlers[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, id)
	}
	r.handlers[id] = h
	return nil
}

// Get returns the handler for a command id.
func (r *Registry) Get(id string) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// Has returns true if a handler is registered for the id.
func (r *Registry) Has(id string) bool {
	_, ok := r.handlers[id]
	return ok
}

// List returns all registered command ids, sorted.
func (r *Registry) List() []string {
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

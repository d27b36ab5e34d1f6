// Package debounce provides a cancellable quiet-period timer with a
// generation token. Both the save path and the inline-completion path
// use it: each trigger supersedes the previous one, and late results
// are checked against the generation they were issued with so stale
// work is dropped instead of applied.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one callback after a
// quiet window. Safe for concurrent use.
type Debouncer struct {
	mu    sync.Mutex
	quiet time.Duration
	timer *time.Timer
	gen   uint64
}

// New creates a debouncer with the given quiet window.
func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Trigger schedules fn to run after the quiet window, superseding any
// previously scheduled callback. It returns the generation token fn is
// issued under; fn receives the same token. Work started by fn should
// re-check the token with Valid before applying its result.
func (b *Debouncer) Trigger(fn func(gen uint64)) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = time.AfterFunc(b.quiet, func() {
		if b.Valid(gen) {
			fn(gen)
		}
	})
	return gen
}

// Cancel discards any pending callback and invalidates all outstanding
// generations.
func (b *Debouncer) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

// Valid reports whether gen is still the newest generation.
func (b *Debouncer) Valid(gen uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return gen == b.gen
}

// Generation returns the current generation token.
func (b *Debouncer) Generation() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen
}

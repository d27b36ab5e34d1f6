// Package completion manages AI-suggested inline completions: debounced
// requests to a pluggable provider, ghost text rendering state, and the
// generation counter that keeps stale responses from ever touching the
// document.
package completion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dshills/redline/internal/debounce"
	"github.com/dshills/redline/internal/doc"
)

var log = commonlog.GetLogger("redline.completion")

// Request is the context handed to a provider.
type Request struct {
	// Preceding is the document content before the cursor.
	Preceding string

	// At is the cursor position the completion would be inserted at.
	At doc.Offset
}

// Provider produces a completion for the given context. Implementations
// must honor ctx cancellation and deadlines.
type Provider interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Ghost is non-committed suggestion text shown inline pending user
// action. It carries the generation it was issued under.
type Ghost struct {
	Text       string
	At         doc.Offset
	Generation uint64
}

// Config holds the manager's construction-time settings.
type Config struct {
	// Provider supplies completions. A nil provider disables the
	// manager; transactions pass through untouched.
	Provider Provider

	// Debounce is the idle period after typing stops before a request
	// is issued.
	Debounce time.Duration

	// Timeout bounds each provider call.
	Timeout time.Duration

	// OnSuggestion fires when ghost text becomes available.
	OnSuggestion func(Ghost)

	// OnDismiss fires when ghost text is discarded without being
	// accepted.
	OnDismiss func()
}

// DefaultDebounce is the idle window before a completion request.
const DefaultDebounce = 500 * time.Millisecond

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 10 * time.Second

// Manager owns the inline-completion lifecycle for one document.
// Mutation notifications arrive through the serialized pipeline;
// provider responses arrive on their own goroutines and rejoin through
// the manager's lock after a generation check.
type Manager struct {
	mu      sync.Mutex
	d       *doc.Document
	cfg     Config
	deb     *debounce.Debouncer
	ghost   *Ghost
	commit  func(at doc.Offset, text string) error
	suspend bool
}

// NewManager creates a completion manager over the given document.
// commit is the session's serialized mutation entry point used when a
// suggestion is accepted.
func NewManager(d *doc.Document, cfg Config, commit func(at doc.Offset, text string) error) *Manager {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Manager{
		d:      d,
		cfg:    cfg,
		deb:    debounce.New(cfg.Debounce),
		commit: commit,
	}
}

// OnTransaction reacts to every document mutation: any keystroke
// discards pending ghost text, invalidates in-flight requests, and
// re-arms the debounce window for a fresh request at the new cursor
// position. Implements doc.Observer.
func (m *Manager) OnTransaction(d *doc.Document, tx doc.Transaction) {
	if m.cfg.Provider == nil {
		return
	}

	m.mu.Lock()
	m.dropGhostLocked()
	if m.suspend {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	at := cursorAfter(tx)
	m.deb.Trigger(func(gen uint64) {
		m.request(gen, at)
	})
}

// request runs one provider call off the pipeline. The result rejoins
// under the manager's lock and is dropped if its generation went stale
// while it was in flight.
func (m *Manager) request(gen uint64, at doc.Offset) {
	preceding, err := m.d.Slice(doc.NewRange(0, at))
	if err != nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Timeout)
		defer cancel()

		text, err := m.cfg.Provider.Complete(ctx, Request{Preceding: preceding, At: at})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %s", ErrProviderTimeout, err.Error())
			} else {
				err = fmt.Errorf("%w: %s", ErrProviderError, err.Error())
			}
			log.Infof("no suggestion: %s", err.Error())
			if m.cfg.OnDismiss != nil {
				m.cfg.OnDismiss()
			}
			return
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if !m.deb.Valid(gen) || text == "" {
			// Superseded by a newer keystroke; drop it.
			return
		}
		g := Ghost{Text: text, At: at, Generation: gen}
		m.ghost = &g
		if m.cfg.OnSuggestion != nil {
			m.cfg.OnSuggestion(g)
		}
	}()
}

// Ghost returns the current ghost text, if any.
func (m *Manager) Ghost() (Ghost, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ghost == nil {
		return Ghost{}, false
	}
	return *m.ghost, true
}

// Accept commits the ghost text as a normal insertion through the
// session pipeline, subject to track-change if enabled.
func (m *Manager) Accept() error {
	m.mu.Lock()
	g := m.ghost
	m.ghost = nil
	// The commit below produces a transaction; don't chase it with a
	// fresh completion request.
	m.suspend = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.suspend = false
		m.mu.Unlock()
	}()

	if g == nil {
		return ErrNoSuggestion
	}
	return m.commit(g.At, g.Text)
}

// Dismiss discards the ghost text and any in-flight request.
func (m *Manager) Dismiss() {
	m.deb.Cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropGhostLocked()
}

// Close cancels pending work.
func (m *Manager) Close() {
	m.Dismiss()
}

func (m *Manager) dropGhostLocked() {
	if m.ghost != nil {
		m.ghost = nil
		if m.cfg.OnDismiss != nil {
			m.cfg.OnDismiss()
		}
	}
}

// cursorAfter derives the post-mutation cursor position: the end of the
// last replaced region in post-mutation coordinates.
func cursorAfter(tx doc.Transaction) doc.Offset {
	var shift doc.Offset
	var at doc.Offset
	for _, rg := range tx.Regions {
		at = rg.OldRange.Start + shift + rg.NewLen
		shift += rg.Delta()
	}
	return at
}

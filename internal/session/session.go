// Package session wires the document, the track-change store, the
// advice registry, command dispatch, inline completion, and the
// debounced save hook into one facade. The session mutex is the single
// serialized mutation pipeline: every edit enters through it, and the
// annotation stores are only ever touched while it is held.
package session

import (
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/dshills/redline/internal/advice"
	"github.com/dshills/redline/internal/command"
	"github.com/dshills/redline/internal/completion"
	"github.com/dshills/redline/internal/debounce"
	"github.com/dshills/redline/internal/doc"
	"github.com/dshills/redline/internal/textdiff"
	"github.com/dshills/redline/internal/track"
)

var log = commonlog.GetLogger("redline.session")

// DefaultSaveQuiet is the idle window before a save fires.
const DefaultSaveQuiet = 2 * time.Second

// Config holds the session's construction-time settings and outward
// callbacks.
type Config struct {
	// Author is attached to every change record created by this
	// session.
	Author string

	// TrackChanges is the initial tracking state. Defaults to off:
	// edits apply directly with no records created.
	TrackChanges bool

	// CommandPrefix triggers the command menu. Zero means '/'.
	CommandPrefix rune

	// Provider supplies inline completions. Nil disables completion.
	Provider completion.Provider

	// CompletionDebounce and CompletionTimeout tune the completion
	// manager; zero values use its defaults.
	CompletionDebounce time.Duration
	CompletionTimeout  time.Duration

	// Save receives a full content snapshot after each quiet window.
	// Nil disables the save hook. Save runs off the pipeline; the
	// session does not wait for it.
	Save func(snapshot string) error

	// SaveQuiet is the idle window before Save fires. Zero means
	// DefaultSaveQuiet.
	SaveQuiet time.Duration

	// MaxDiffUnits caps the diff search for Rewrite. Zero uses the
	// textdiff default.
	MaxDiffUnits int

	// Annotation callbacks, forwarded from the stores.
	OnRecordCreated   func(track.Record)
	OnRecordResolved  func(track.Record)
	OnAdviceAdded     func(advice.Record)
	OnAdviceResolved  func(advice.Record)
	OnAdviceActivated func(id string)

	// Completion callbacks, forwarded from the manager.
	OnSuggestion func(completion.Ghost)
	OnDismiss    func()
}

// Session is the per-document editing facade. One session per open
// document; sessions share nothing, so concurrent editors stay
// isolated.
type Session struct {
	mu sync.Mutex

	cfg      Config
	d        *doc.Document
	track    *track.Store
	advice   *advice.Registry
	commands *command.Registry
	dispatch *command.Dispatcher
	compl    *completion.Manager
	saveDeb  *debounce.Debouncer

	cursor doc.Offset
}

// observerFunc adapts a function to doc.Observer.
type observerFunc func(d *doc.Document, tx doc.Transaction)

func (f observerFunc) OnTransaction(d *doc.Document, tx doc.Transaction) { f(d, tx) }

// New creates a session over the given initial content.
func New(initial string, cfg Config) *Session {
	if cfg.SaveQuiet <= 0 {
		cfg.SaveQuiet = DefaultSaveQuiet
	}

	s := &Session{
		cfg:      cfg,
		d:        doc.New(initial),
		commands: command.NewRegistry(),
		saveDeb:  debounce.New(cfg.SaveQuiet),
	}

	s.track = track.NewStore(s.d, track.Config{
		Enabled:    cfg.TrackChanges,
		OnCreated:  cfg.OnRecordCreated,
		OnResolved: cfg.OnRecordResolved,
	})
	s.advice = advice.NewRegistry(s.d, advice.Config{
		OnActivated: cfg.OnAdviceActivated,
		OnAdded:     cfg.OnAdviceAdded,
		OnResolved:  cfg.OnAdviceResolved,
	})
	s.dispatch = command.NewDispatcher(s.commands, cfg.CommandPrefix)
	s.compl = completion.NewManager(s.d, completion.Config{
		Provider:     cfg.Provider,
		Debounce:     cfg.CompletionDebounce,
		Timeout:      cfg.CompletionTimeout,
		OnSuggestion: cfg.OnSuggestion,
		OnDismiss:    cfg.OnDismiss,
	}, s.commitCompletion)

	s.d.Observe(s.track)
	s.d.Observe(s.advice)
	s.d.Observe(s.compl)
	if cfg.Save != nil {
		s.d.Observe(observerFunc(func(*doc.Document, doc.Transaction) {
			s.saveDeb.Trigger(func(uint64) { s.save() })
		}))
	}
	return s
}

// Close cancels pending debounced work.
func (s *Session) Close() {
	s.compl.Close()
	s.saveDeb.Cancel()
}

// Text returns the full document content.
func (s *Session) Text() string { return s.d.Text() }

// Len returns the current content length.
func (s *Session) Len() doc.Offset { return s.d.Len() }

// Revision returns the current document revision.
func (s *Session) Revision() doc.RevisionID { return s.d.Revision() }

// Slice returns the content covered by a range.
func (s *Session) Slice(r doc.Range) (string, error) { return s.d.Slice(r) }

// SetCursor moves the caret. The position is clamped to the document.
func (s *Session) SetCursor(at doc.Offset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if at < 0 {
		at = 0
	}
	if n := s.d.Len(); at > n {
		at = n
	}
	s.cursor = at
}

// Cursor returns the caret position.
func (s *Session) Cursor() doc.Offset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Insert types text at the given position. With tracking enabled the
// text enters the document as a pending Insertion record.
func (s *Session) Insert(at doc.Offset, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(doc.Range{Start: at, End: at}, text)
}

// Delete removes the content covered by a range. With tracking enabled
// the content stays in place, struck through by a pending Deletion
// record, until the record is accepted.
func (s *Session) Delete(r doc.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(r, "")
}

// Replace substitutes the selection with text. With tracking enabled
// this produces one Deletion record over the old content and one
// Insertion record for the new content after it.
func (s *Session) Replace(r doc.Range, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(r, text)
}

// Rewrite substitutes the selection with text using a minimal diff, so
// unchanged spans produce no records. Useful when the replacement is a
// revision of the old content rather than fresh text.
func (s *Session) Rewrite(r doc.Range, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.track.Enabled() {
		_, err := s.d.Replace(r, text)
		if err == nil {
			s.cursor = r.Start + doc.Offset(len(text))
		}
		return err
	}

	old, err := s.d.Slice(r)
	if err != nil {
		return err
	}
	opts := textdiff.DefaultOptions()
	if s.cfg.MaxDiffUnits > 0 {
		opts.MaxUnits = s.cfg.MaxDiffUnits
	}
	script := textdiff.Diff(old, text, opts)
	if script.IsIdentity() {
		return nil
	}
	_, err = s.track.RecordMutation(r.Start, script, s.cfg.Author)
	if err == nil {
		s.cursor = s.d.Len()
		if r.End+doc.Offset(len(text)) < s.cursor {
			s.cursor = r.End + doc.Offset(len(text))
		}
	}
	return err
}

// editLocked is the single mutation entry point: every edit, whether
// typed, dispatched from a command, or committed from a completion,
// lands here.
func (s *Session) editLocked(r doc.Range, text string) error {
	if !s.track.Enabled() {
		_, err := s.d.Replace(r, text)
		if err == nil {
			s.cursor = r.Start + doc.Offset(len(text))
		}
		return err
	}

	var script textdiff.Script
	if !r.IsEmpty() {
		old, err := s.d.Slice(r)
		if err != nil {
			return err
		}
		script = append(script, textdiff.Op{Kind: textdiff.Delete, Text: old})
	}
	if text != "" {
		script = append(script, textdiff.Op{Kind: textdiff.Insert, Text: text})
	}
	if len(script) == 0 {
		return nil
	}

	_, err := s.track.RecordMutation(r.Start, script, s.cfg.Author)
	if err == nil {
		// Struck content stays in the stream, so the caret lands
		// after it and the inserted text.
		s.cursor = r.End + doc.Offset(len(text))
	}
	return err
}

// ProposeFormat records a formatting proposal over a range. The
// formatting itself lives on the rendering surface; accept and reject
// only transition the record.
func (s *Session) ProposeFormat(r doc.Range) (track.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.RecordFormatChange(r, s.cfg.Author)
}

// SetTracking toggles track-change recording.
func (s *Session) SetTracking(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track.SetEnabled(enabled)
}

// Tracking reports whether track-change recording is on.
func (s *Session) Tracking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Enabled()
}

// PendingChanges returns all pending change records in position order.
func (s *Session) PendingChanges() []track.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Pending()
}

// ChangeMarks returns the visual annotations for pending records.
func (s *Session) ChangeMarks() []track.Mark {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Marks()
}

// AcceptChange applies a pending change record.
func (s *Session) AcceptChange(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Accept(id)
}

// RejectChange reverts a pending change record.
func (s *Session) RejectChange(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.Reject(id)
}

// AcceptAllChanges applies every pending record in position order.
func (s *Session) AcceptAllChanges() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.AcceptAll()
}

// RejectAllChanges reverts every pending record in position order.
func (s *Session) RejectAllChanges() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track.RejectAll()
}

// AddAdvice anchors a comment to a range and returns its id.
func (s *Session) AddAdvice(r doc.Range, message string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.Add(advice.Record{Range: r, Message: message, Author: s.cfg.Author})
}

// SetActiveAdvice marks the advice with the given id as active; an
// empty id clears the active advice.
func (s *Session) SetActiveAdvice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.SetActiveID(id)
}

// ActiveAdvice returns the active advice id, or "" if none.
func (s *Session) ActiveAdvice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.ActiveID()
}

// ResolveAdvice marks an advice record as addressed.
func (s *Session) ResolveAdvice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.Resolve(id)
}

// RemoveAdvice deletes an advice record.
func (s *Session) RemoveAdvice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.Remove(id)
}

// Advice returns every advice record, anchored first in position order.
func (s *Session) Advice() []advice.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.List()
}

// OpenAdvice returns every open, anchored advice record in position
// order.
func (s *Session) OpenAdvice() []advice.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice.Open()
}

// RegisterCommand adds a handler for a command id.
func (s *Session) RegisterCommand(id string, h command.Handler) error {
	return s.commands.Register(id, h)
}

// CheckCommandTrigger inspects the token under the cursor and opens or
// closes the command menu. It returns true while the menu is open.
func (s *Session) CheckCommandTrigger() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch.CheckTrigger(s.d.Text(), s.cursor)
}

// CommandMenu returns the menu state: whether it is open, the ids
// matching the typed query, and the query itself.
func (s *Session) CommandMenu() (open bool, matching []string, query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch.MenuOpen(), s.dispatch.Matching(), s.dispatch.MenuQuery()
}

// RunCommand dispatches a command against the current menu state. The
// trigger token is handed to the handler, which edits the document
// through the session pipeline. The menu closes afterward regardless
// of outcome.
func (s *Session) RunCommand(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := &command.Context{
		At:    s.dispatch.MenuAt(),
		Query: s.dispatch.MenuQuery(),
		Apply: func(start, end doc.Offset, text string) error {
			return s.editLocked(doc.Range{Start: start, End: end}, text)
		},
	}
	return s.dispatch.Dispatch(id, ctx)
}

// CompletionGhost returns the current inline suggestion, if any.
func (s *Session) CompletionGhost() (completion.Ghost, bool) {
	return s.compl.Ghost()
}

// AcceptCompletion commits the ghost text as a normal insertion,
// tracked if tracking is enabled.
func (s *Session) AcceptCompletion() error {
	return s.compl.Accept()
}

// DismissCompletion discards the ghost text and any in-flight request.
func (s *Session) DismissCompletion() {
	s.compl.Dismiss()
}

// commitCompletion is the completion manager's mutation entry point.
func (s *Session) commitCompletion(at doc.Offset, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editLocked(doc.Range{Start: at, End: at}, text)
}

// SaveNow flushes the debounced save and writes a snapshot
// immediately.
func (s *Session) SaveNow() error {
	s.saveDeb.Cancel()
	if s.cfg.Save == nil {
		return nil
	}
	return s.cfg.Save(s.d.Text())
}

// save is the debounced save callback. Failures are logged, not
// surfaced; the next quiet window retries with a fresh snapshot.
func (s *Session) save() {
	if err := s.cfg.Save(s.d.Text()); err != nil {
		log.Errorf("save failed: %s", err.Error())
	}
}

// Package track implements the track-change store: reversible,
// acceptable/rejectable change records anchored to document ranges.
package track

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dshills/redline/internal/doc"
	"github.com/dshills/redline/internal/mapping"
	"github.com/dshills/redline/internal/textdiff"
)

var log = commonlog.GetLogger("redline.track")

// Config holds the store's construction-time settings and outward
// callbacks. Callbacks fire once per state transition and must not call
// back into the store.
type Config struct {
	// Enabled is the initial tracking state. Tracking defaults to
	// disabled: mutations pass through untouched until enabled.
	Enabled bool

	// OnCreated fires when a record is created.
	OnCreated func(Record)

	// OnResolved fires when a record reaches a terminal status.
	OnResolved func(Record)
}

// Store holds every change record for one document. It is not safe for
// concurrent use: all calls, including the observer hook, must arrive
// through the document's single serialized mutation pipeline.
type Store struct {
	d       *doc.Document
	cfg     Config
	enabled bool
	records map[string]*Record

	// selfID marks the record whose own accept/reject mutation is in
	// flight, so remapping leaves it intact.
	selfID string
}

// NewStore creates a store over the given document. The caller is
// responsible for registering the store as a document observer.
func NewStore(d *doc.Document, cfg Config) *Store {
	return &Store{
		d:       d,
		cfg:     cfg,
		enabled: cfg.Enabled,
		records: make(map[string]*Record),
	}
}

// SetEnabled toggles tracking. While disabled, mutations pass through
// with no records created.
func (s *Store) SetEnabled(enabled bool) { s.enabled = enabled }

// Enabled reports whether tracking is on.
func (s *Store) Enabled() bool { return s.enabled }

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (Record, bool) {
	rec, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Pending returns copies of all pending records in position order.
func (s *Store) Pending() []Record {
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		if rec.Status == Pending {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start < out[j].Range.Start })
	return out
}

// Marks returns the visual annotations for every pending record, in
// position order.
func (s *Store) Marks() []Mark {
	pending := s.Pending()
	marks := make([]Mark, len(pending))
	for i, rec := range pending {
		marks[i] = Mark{RecordID: rec.ID, Kind: rec.Kind, Range: rec.Range}
	}
	return marks
}

// RecordMutation applies a diff script at the given position as tracked
// proposals. Insert spans are written into the document and recorded as
// Insertion records. Delete spans are NOT removed from the content
// stream: the text stays in place, struck through by a Deletion mark,
// until the record is accepted. Returns the created records.
func (s *Store) RecordMutation(at doc.Offset, script textdiff.Script, author string) ([]Record, error) {
	if !s.enabled {
		return nil, ErrDisabled
	}

	var created []Record
	pos := at
	for _, op := range script {
		switch op.Kind {
		case textdiff.Retain:
			pos += doc.Offset(len(op.Text))

		case textdiff.Delete:
			span := doc.Range{Start: pos, End: pos + doc.Offset(len(op.Text))}
			if got, err := s.d.Slice(span); err != nil || got != op.Text {
				return created, fmt.Errorf("%w: delete span %s", textdiff.ErrScriptMismatch, span)
			}
			rec := s.create(Deletion, span, "", op.Text, author)
			created = append(created, *rec)
			pos = span.End

		case textdiff.Insert:
			if _, err := s.d.Insert(pos, op.Text); err != nil {
				return created, err
			}
			span := doc.Range{Start: pos, End: pos + doc.Offset(len(op.Text))}
			rec := s.create(Insertion, span, op.Text, "", author)
			created = append(created, *rec)
			pos = span.End
		}
	}
	return created, nil
}

// RecordFormatChange records a formatting proposal over a range.
// Accept and reject only transition status; reverting the formatting
// itself is the rendering surface's job.
func (s *Store) RecordFormatChange(r doc.Range, author string) (Record, error) {
	if !s.enabled {
		return Record{}, ErrDisabled
	}
	if !r.IsValid() || r.Start < 0 || r.End > s.d.Len() {
		return Record{}, fmt.Errorf("%w: %s", doc.ErrInvalidRange, r)
	}
	rec := s.create(FormatChange, r, "", "", author)
	return *rec, nil
}

// create builds, stores, and announces a record.
func (s *Store) create(kind Kind, r doc.Range, inserted, removed, author string) *Record {
	rec := &Record{
		ID:              uuid.NewString(),
		Kind:            kind,
		Range:           r,
		InsertedContent: inserted,
		RemovedContent:  removed,
		Author:          author,
		CreatedAt:       time.Now(),
		Status:          Pending,
	}
	s.records[rec.ID] = rec
	if s.cfg.OnCreated != nil {
		s.cfg.OnCreated(*rec)
	}
	return rec
}

// Accept applies a pending proposal. For an Insertion the content stays
// and only the mark goes away; for a Deletion the struck content is
// actually removed from the document now.
func (s *Store) Accept(id string) error {
	rec, err := s.pending(id)
	if err != nil {
		return err
	}

	switch rec.Kind {
	case Insertion, FormatChange:
		// Content is already in its accepted form.

	case Deletion:
		if err := s.verifyPayload(rec); err != nil {
			return err
		}
		s.selfID = rec.ID
		_, derr := s.d.Delete(rec.Range)
		s.selfID = ""
		if derr != nil {
			return derr
		}
		rec.Range = doc.Range{Start: rec.Range.Start, End: rec.Range.Start}
	}

	s.resolve(rec, Accepted)
	return nil
}

// Reject reverts a pending proposal. For an Insertion the inserted
// content comes out of the document; for a Deletion the captured
// content is restored at the record's current mapped position.
func (s *Store) Reject(id string) error {
	rec, err := s.pending(id)
	if err != nil {
		return err
	}

	switch rec.Kind {
	case FormatChange:
		// Status transition only.

	case Insertion:
		s.selfID = rec.ID
		_, derr := s.d.Delete(rec.Range)
		s.selfID = ""
		if derr != nil {
			return derr
		}
		rec.Range = doc.Range{Start: rec.Range.Start, End: rec.Range.Start}

	case Deletion:
		got, serr := s.d.Slice(rec.Range)
		if serr != nil || got != rec.RemovedContent {
			// The struck span no longer carries the captured
			// content; put the payload back in its place.
			s.selfID = rec.ID
			_, rerr := s.d.Replace(rec.Range, rec.RemovedContent)
			s.selfID = ""
			if rerr != nil {
				return rerr
			}
			rec.Range = doc.Range{
				Start: rec.Range.Start,
				End:   rec.Range.Start + doc.Offset(len(rec.RemovedContent)),
			}
		}
	}

	s.resolve(rec, Rejected)
	return nil
}

// AcceptAll accepts every pending record in position order, low to
// high, so offset shifts from earlier operations are reflected before
// later ones. Resolved records are flushed afterward.
func (s *Store) AcceptAll() error {
	return s.resolveAll(s.Accept)
}

// RejectAll rejects every pending record in position order, then
// flushes resolved records.
func (s *Store) RejectAll() error {
	return s.resolveAll(s.Reject)
}

func (s *Store) resolveAll(op func(string) error) error {
	var firstErr error
	for _, rec := range s.Pending() {
		// Earlier operations may have force-resolved this record.
		if cur, ok := s.records[rec.ID]; !ok || cur.Status != Pending {
			continue
		}
		if err := op(rec.ID); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.Flush()
	return firstErr
}

// Flush removes records that reached a terminal status.
func (s *Store) Flush() {
	for id, rec := range s.records {
		if rec.Status != Pending {
			delete(s.records, id)
		}
	}
}

// OnTransaction remaps every pending record through the mutation.
// Implements doc.Observer.
func (s *Store) OnTransaction(_ *doc.Document, tx doc.Transaction) {
	for _, rec := range s.records {
		if rec.Status != Pending || rec.ID == s.selfID {
			continue
		}
		mapped := mapping.Map(rec.Range, tx)
		switch mapped.Kind {
		case mapping.Unaffected:

		case mapping.Valid:
			rec.Range = mapped.Range
			if rec.Kind == Deletion && rec.Range.Len() != doc.Offset(len(rec.RemovedContent)) {
				log.Warningf("deletion record %s overlapped by foreign edit, discarding", rec.ID)
				s.resolve(rec, Rejected)
			}

		case mapping.ShrunkToPoint:
			rec.Range = doc.Range{Start: mapped.Point, End: mapped.Point}
			if rec.Kind == Deletion {
				log.Warningf("deletion record %s erased by foreign edit, discarding", rec.ID)
			}
			s.resolve(rec, Rejected)
		}
	}
}

// pending looks up a record and enforces the state machine.
func (s *Store) pending(id string) (*Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if rec.Status != Pending {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyResolved, id, rec.Status)
	}
	return rec, nil
}

// verifyPayload checks that a Deletion record's struck span still holds
// the captured content. On mismatch the record is forcibly resolved.
func (s *Store) verifyPayload(rec *Record) error {
	got, err := s.d.Slice(rec.Range)
	if err != nil || got != rec.RemovedContent {
		log.Warningf("deletion record %s no longer matches its payload, discarding", rec.ID)
		s.resolve(rec, Rejected)
		return fmt.Errorf("%w: record %s", ErrMappingConflict, rec.ID)
	}
	return nil
}

// resolve moves a record to a terminal status and announces it.
func (s *Store) resolve(rec *Record, status Status) {
	rec.Status = status
	if s.cfg.OnResolved != nil {
		s.cfg.OnResolved(*rec)
	}
}

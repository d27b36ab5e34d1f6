// Package advice implements the range-anchored comment registry.
// A registry is scoped to one editor session: it is constructed per open
// document and passed by handle to everything that needs it, never held
// as a process-wide singleton, so concurrent editor instances stay
// isolated.
package advice

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dshills/redline/internal/doc"
	"github.com/dshills/redline/internal/mapping"
)

var log = commonlog.GetLogger("redline.advice")

// Status is the lifecycle state of an advice record.
type Status uint8

const (
	// Open means the advice is live and anchored.
	Open Status = iota

	// Resolved means the advice was addressed or its anchor was
	// invalidated. Resolved records are retained for audit but not
	// rendered.
	Resolved
)

// String returns a human-readable representation of the status.
func (st Status) String() string {
	switch st {
	case Open:
		return "open"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Record is a single advice annotation.
// Anchored is false once the anchoring content was fully deleted; the
// record then has a cleared range and is never rendered again.
type Record struct {
	ID        string
	Range     doc.Range
	Anchored  bool
	Message   string
	Author    string
	Status    Status
	CreatedAt time.Time
}

// String returns a human-readable representation of the record.
func (r Record) String() string {
	anchor := r.Range.String()
	if !r.Anchored {
		anchor = "unanchored"
	}
	return fmt.Sprintf("%s %s by %s (%s)", r.ID[:8], anchor, r.Author, r.Status)
}

// Config holds the registry's outward callbacks. Each fires once per
// state transition; consumers are responsible for re-rendering.
// Callbacks must not call back into the registry.
type Config struct {
	// OnActivated fires when the active advice changes. An empty id
	// means the active advice was cleared.
	OnActivated func(id string)

	// OnAdded fires when a record is added.
	OnAdded func(Record)

	// OnResolved fires when a record transitions to Resolved.
	OnResolved func(Record)
}

// Registry holds every advice record for one document and tracks the
// single active annotation. It is not safe for concurrent use: all
// calls, including the observer hook, must arrive through the
// document's serialized mutation pipeline.
type Registry struct {
	d        *doc.Document
	cfg      Config
	records  map[string]*Record
	activeID string
}

// NewRegistry creates a registry over the given document. The caller is
// responsible for registering it as a document observer.
func NewRegistry(d *doc.Document, cfg Config) *Registry {
	return &Registry{
		d:       d,
		cfg:     cfg,
		records: make(map[string]*Record),
	}
}

// Add inserts an advice record, assigning an id if absent, and returns
// the id. The range must be well-formed and inside the current document
// bounds.
func (r *Registry) Add(rec Record) (string, error) {
	if !rec.Range.IsValid() || rec.Range.Start < 0 || rec.Range.End > r.d.Len() {
		return "", fmt.Errorf("%w: %s in [0:%d)", ErrInvalidRange, rec.Range, r.d.Len())
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Anchored = true
	rec.Status = Open
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	r.records[rec.ID] = &rec
	if r.cfg.OnAdded != nil {
		r.cfg.OnAdded(rec)
	}
	return rec.ID, nil
}

// SetActiveID marks the advice with the given id as active; an empty id
// clears the active advice. Setting an id not present in the registry
// is rejected and leaves the active id unchanged.
func (r *Registry) SetActiveID(id string) error {
	if id != "" {
		if _, ok := r.records[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
		}
	}
	if id == r.activeID {
		return nil
	}
	r.activeID = id
	if r.cfg.OnActivated != nil {
		r.cfg.OnActivated(id)
	}
	return nil
}

// ActiveID returns the currently active advice id, or "" if none.
func (r *Registry) ActiveID() string { return r.activeID }

// Remove deletes an advice record. Removing the active record clears
// the active id.
func (r *Registry) Remove(id string) error {
	if _, ok := r.records[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	delete(r.records, id)
	if id == r.activeID {
		r.activeID = ""
		if r.cfg.OnActivated != nil {
			r.cfg.OnActivated("")
		}
	}
	return nil
}

// Resolve marks an advice record as addressed. The record keeps its
// anchor and stays in the registry for audit.
func (r *Registry) Resolve(id string) error {
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecord, id)
	}
	if rec.Status == Resolved {
		return nil
	}
	rec.Status = Resolved
	if r.cfg.OnResolved != nil {
		r.cfg.OnResolved(*rec)
	}
	return nil
}

// Get returns a copy of the record with the given id.
func (r *Registry) Get(id string) (Record, bool) {
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// List returns copies of every record: anchored records first in
// position order, then unanchored records by creation time.
func (r *Registry) List() []Record {
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Anchored != out[j].Anchored {
			return out[i].Anchored
		}
		if out[i].Anchored {
			return out[i].Range.Start < out[j].Range.Start
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Open returns copies of every open, anchored record in position order.
func (r *Registry) Open() []Record {
	var out []Record
	for _, rec := range r.records {
		if rec.Status == Open && rec.Anchored {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start < out[j].Range.Start })
	return out
}

// OnTransaction remaps every anchored record through the mutation.
// A record whose anchoring content was fully deleted becomes Resolved
// with a cleared range; if it was active, the active id is cleared.
// Implements doc.Observer.
func (r *Registry) OnTransaction(_ *doc.Document, tx doc.Transaction) {
	for _, rec := range r.records {
		if !rec.Anchored {
			continue
		}
		mapped := mapping.Map(rec.Range, tx)
		switch mapped.Kind {
		case mapping.Unaffected:

		case mapping.Valid:
			rec.Range = mapped.Range

		case mapping.ShrunkToPoint:
			log.Debugf("advice %s lost its anchor, resolving", rec.ID)
			rec.Anchored = false
			rec.Range = doc.Range{}
			rec.Status = Resolved
			if rec.ID == r.activeID {
				r.activeID = ""
				if r.cfg.OnActivated != nil {
					r.cfg.OnActivated("")
				}
			}
			if r.cfg.OnResolved != nil {
				r.cfg.OnResolved(*rec)
			}
		}
	}
}

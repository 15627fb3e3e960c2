// Package draft keeps in-progress check-in payloads durable. Saves are debounced per owner,
// drafts expire at the end of the local day they were saved, and storage failures degrade
// to an in-memory copy instead of blocking the form.
package draft

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/checkin/internal/constants"
	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/models"
	"github.com/julianstephens/checkin/internal/storage"
	"github.com/julianstephens/checkin/internal/utils"
)

// ErrPersistence wraps every storage failure surfaced by the store.
var ErrPersistence = errors.New("draft persistence failed")

// Options configures a Store. Zero values select the defaults.
type Options struct {
	Clock    debounce.Clock
	Delay    time.Duration
	Location *time.Location
}

// StatusFunc receives save status transitions.
type StatusFunc func(ownerKey string, status constants.SaveStatus)

// Store persists drafts through a storage.DraftStorage.
type Store struct {
	storage storage.DraftStorage
	clock   debounce.Clock
	delay   time.Duration
	loc     *time.Location

	mu       sync.Mutex
	owners   map[string]*owner
	onStatus StatusFunc
	closed   bool
}

type owner struct {
	key       string
	debouncer *debounce.Debouncer
	writeMu   sync.Mutex // serializes storage writes and deletes for this owner

	// guarded by Store.mu
	latest   models.Payload
	latestAt time.Time
	pending  bool
	status   constants.SaveStatus
	fallback *models.Draft
}

// New creates a Store over backend.
func New(backend storage.DraftStorage, opts Options) *Store {
	if opts.Clock == nil {
		opts.Clock = debounce.RealClock{}
	}
	if opts.Delay <= 0 {
		opts.Delay = constants.DefaultAutosaveDelay
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Store{
		storage: backend,
		clock:   opts.Clock,
		delay:   opts.Delay,
		loc:     opts.Location,
		owners:  make(map[string]*owner),
	}
}

// OnStatus registers fn to be called on every status change.
func (s *Store) OnStatus(fn StatusFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStatus = fn
}

// Load returns the draft of ownerKey when it was saved on the current local day, reporting
// true. Otherwise it returns a fresh payload seeded from initial and deletes any stale draft.
func (s *Store) Load(ownerKey string, initial models.Payload) (models.Payload, bool) {
	now := s.clock.Now()

	s.mu.Lock()
	o := s.ownerLocked(ownerKey)
	if o.pending {
		if utils.SameLocalDay(o.latestAt, now, s.loc) {
			p := o.latest.Clone()
			s.mu.Unlock()
			return p, true
		}
		logger.Debug("Discarding stale unsaved draft", "owner", ownerKey, "edited_at", o.latestAt)
		o.pending = false
		o.latest = models.Payload{}
		s.mu.Unlock()
		o.debouncer.Cancel()
		s.setStatus(o, constants.SaveStatusSaved)
		s.mu.Lock()
	}
	if fb := o.fallback; fb != nil {
		if utils.SameLocalDay(fb.LastSavedAt, now, s.loc) {
			p := fb.Payload.Clone()
			s.mu.Unlock()
			return p, true
		}
		o.fallback = nil
	}
	s.mu.Unlock()

	d, err := s.storage.GetDraft(ownerKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return initial.Clone(), false
	case err != nil:
		logger.Error("Failed to read draft, starting from initial data", "owner", ownerKey, "error", err)
		s.setStatus(o, constants.SaveStatusUnsaved)
		return initial.Clone(), false
	}

	if !utils.SameLocalDay(d.LastSavedAt, now, s.loc) {
		logger.Debug("Discarding stale draft", "owner", ownerKey, "last_saved_at", d.LastSavedAt)
		o.writeMu.Lock()
		if err := s.storage.DeleteDraft(ownerKey); err != nil {
			logger.Warn("Failed to delete stale draft", "owner", ownerKey, "error", err)
		}
		o.writeMu.Unlock()
		return initial.Clone(), false
	}

	return d.Payload.Clone(), true
}

// Save records payload as the latest state of ownerKey and schedules a debounced write.
// Rapid calls coalesce into one write carrying the last payload.
func (s *Store) Save(ownerKey string, payload models.Payload) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		logger.Debug("Ignoring draft save after close", "owner", ownerKey)
		return
	}
	o := s.ownerLocked(ownerKey)
	o.latest = payload.Clone()
	o.latestAt = s.clock.Now()
	o.pending = true
	s.mu.Unlock()

	s.setStatus(o, constants.SaveStatusPending)
	o.debouncer.Schedule()
}

// Flush writes a pending save of ownerKey immediately. A draft held in memory after a
// failed write is retried.
func (s *Store) Flush(ownerKey string) error {
	s.mu.Lock()
	o, ok := s.owners[ownerKey]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	o.debouncer.Cancel()
	return s.write(o)
}

// Clear cancels any pending save of ownerKey and removes its persisted draft.
func (s *Store) Clear(ownerKey string) error {
	s.mu.Lock()
	o := s.ownerLocked(ownerKey)
	s.mu.Unlock()

	o.debouncer.Cancel()

	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	s.mu.Lock()
	o.pending = false
	o.latest = models.Payload{}
	o.fallback = nil
	s.mu.Unlock()

	if err := s.storage.DeleteDraft(ownerKey); err != nil {
		logger.Error("Failed to clear draft", "owner", ownerKey, "error", err)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.setStatus(o, constants.SaveStatusSaved)
	return nil
}

// Cancel drops the pending write of ownerKey without writing. The unsaved payload stays in
// memory and is returned by a later Load on the same local day.
func (s *Store) Cancel(ownerKey string) {
	s.mu.Lock()
	o, ok := s.owners[ownerKey]
	s.mu.Unlock()
	if ok {
		o.debouncer.Cancel()
	}
}

// Close cancels every pending save without writing. Later saves are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	owners := make([]*owner, 0, len(s.owners))
	for _, o := range s.owners {
		owners = append(owners, o)
	}
	s.mu.Unlock()

	for _, o := range owners {
		o.debouncer.Cancel()
	}
}

// Status returns the save status of ownerKey.
func (s *Store) Status(ownerKey string) constants.SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.owners[ownerKey]; ok {
		return o.status
	}
	return constants.SaveStatusSaved
}

func (s *Store) ownerLocked(ownerKey string) *owner {
	if o, ok := s.owners[ownerKey]; ok {
		return o
	}
	o := &owner{key: ownerKey, status: constants.SaveStatusSaved}
	o.debouncer = debounce.New(s.clock, s.delay, func() {
		// Failures are already logged and reflected in the status.
		_ = s.write(o)
	})
	s.owners[ownerKey] = o
	return o
}

func (s *Store) write(o *owner) error {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	s.mu.Lock()
	var payload models.Payload
	switch {
	case o.pending:
		payload = o.latest
	case o.fallback != nil:
		// retry a write that failed earlier
		payload = o.fallback.Payload
	default:
		s.mu.Unlock()
		return nil
	}
	d := models.Draft{OwnerKey: o.key, Payload: payload, LastSavedAt: s.clock.Now()}
	o.pending = false
	s.mu.Unlock()

	err := s.storage.SaveDraft(d)

	s.mu.Lock()
	if err != nil {
		o.fallback = &d
	} else {
		o.fallback = nil
	}
	stillPending := o.pending
	s.mu.Unlock()

	if err != nil {
		logger.Error("Failed to save draft, keeping it in memory", "owner", o.key, "error", err)
		s.setStatus(o, constants.SaveStatusUnsaved)
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !stillPending {
		s.setStatus(o, constants.SaveStatusSaved)
	}
	return nil
}

func (s *Store) setStatus(o *owner, status constants.SaveStatus) {
	s.mu.Lock()
	changed := o.status != status
	o.status = status
	cb := s.onStatus
	s.mu.Unlock()

	if changed && cb != nil {
		cb(o.key, status)
	}
}

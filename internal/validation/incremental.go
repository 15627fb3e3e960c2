package validation

import (
	"slices"
	"sync"
	"time"

	"github.com/julianstephens/checkin/internal/debounce"
	"github.com/julianstephens/checkin/internal/logger"
	"github.com/julianstephens/checkin/internal/models"
)

// Incremental re-validates only the groups touched since the last run, debounced. The
// payload is read when the debouncer fires, so a burst of edits is checked once against
// the latest state.
type Incremental struct {
	engine    *Engine
	payload   func() models.Payload
	debouncer *debounce.Debouncer

	mu       sync.Mutex
	dirty    map[Group]bool
	result   Result
	onChange func(Result)
}

// NewIncremental creates an incremental validator. payload must return the current form
// state and must not call back into the validator.
func NewIncremental(engine *Engine, clock debounce.Clock, delay time.Duration, payload func() models.Payload) *Incremental {
	in := &Incremental{
		engine:  engine,
		payload: payload,
		dirty:   map[Group]bool{},
		result:  Result{},
	}
	in.debouncer = debounce.New(clock, delay, in.run)
	return in
}

// OnChange registers fn to receive a snapshot of the aggregate result after every run.
func (in *Incremental) OnChange(fn func(Result)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.onChange = fn
}

// Touch marks groups as edited and re-arms the debouncer.
func (in *Incremental) Touch(groups ...Group) {
	in.mu.Lock()
	for _, g := range groups {
		in.dirty[g] = true
	}
	in.mu.Unlock()
	in.debouncer.Schedule()
}

// Flush runs a pending validation immediately.
func (in *Incremental) Flush() bool {
	return in.debouncer.Flush()
}

// Cancel drops a pending validation. Touched groups stay dirty.
func (in *Incremental) Cancel() {
	in.debouncer.Cancel()
}

// Pending reports whether a validation run is armed.
func (in *Incremental) Pending() bool {
	return in.debouncer.Pending()
}

// Result returns a snapshot of the aggregate errors.
func (in *Incremental) Result() Result {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.result.Clone()
}

// Replace overwrites the aggregate with a full result, such as one from ValidateAll, and
// clears the dirty set.
func (in *Incremental) Replace(r Result) {
	in.mu.Lock()
	in.result = r.Clone()
	in.dirty = map[Group]bool{}
	cb := in.onChange
	snapshot := in.result.Clone()
	in.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

func (in *Incremental) run() {
	in.mu.Lock()
	groups := make([]Group, 0, len(in.dirty))
	for _, g := range Groups {
		if in.dirty[g] {
			groups = append(groups, g)
		}
	}
	for g := range in.dirty {
		if !slices.Contains(Groups, g) {
			groups = append(groups, g)
		}
	}
	in.dirty = map[Group]bool{}
	in.mu.Unlock()

	if len(groups) == 0 {
		return
	}

	p := in.payload()
	found := make(map[Group][]FieldError, len(groups))
	for _, g := range groups {
		found[g] = in.engine.ValidateGroup(g, p)
	}

	in.mu.Lock()
	for g, errs := range found {
		in.result.Set(g, errs)
	}
	cb := in.onChange
	snapshot := in.result.Clone()
	in.mu.Unlock()

	logger.Debug("Incremental validation ran", "groups", groups, "errors", snapshot.Count())
	if cb != nil {
		cb(snapshot)
	}
}

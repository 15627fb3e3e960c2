package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Schedule calls into a single call of fn, delay after the
// last one. The last Schedule always wins: an earlier pending fire is cancelled.
type Debouncer struct {
	mu    sync.Mutex
	clock Clock
	delay time.Duration
	fn    func()
	timer Timer
	gen   uint64 // bumped on every Schedule/Cancel so a superseded real timer fires as a no-op
}

// New creates a Debouncer that calls fn delay after the most recent Schedule.
func New(clock Clock, delay time.Duration, fn func()) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{clock: clock, delay: delay, fn: fn}
}

// Schedule cancels any pending call and arms a new one.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending call, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopLocked()
}

// Flush cancels the pending call and runs fn immediately if one was pending.
// It reports whether fn ran.
func (d *Debouncer) Flush() bool {
	if !d.Cancel() {
		return false
	}
	d.fn()
	return true
}

// Pending reports whether a call is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) stopLocked() bool {
	d.gen++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	// fn runs without the lock held so it may Schedule again.
	d.fn()
}

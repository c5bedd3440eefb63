package syncclient

import (
	"sync"
	"time"
)

// DebounceState is Idle or PendingFlush.
type DebounceState int

const (
	Idle DebounceState = iota
	PendingFlush
)

func (s DebounceState) String() string {
	if s == PendingFlush {
		return "pending"
	}
	return "idle"
}

// Debouncer runs flush once after delay without a new Trigger. Flushes never
// overlap. Every method is safe to call from inside flush.
type Debouncer struct {
	delay time.Duration
	flush func()

	mu      sync.Mutex
	state   DebounceState
	timer   *time.Timer
	seq     uint64
	stopped bool

	flushMu sync.Mutex
}

func NewDebouncer(delay time.Duration, flush func()) *Debouncer {
	return &Debouncer{delay: delay, flush: flush}
}

// Trigger moves to PendingFlush and restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.seq++
	seq := d.seq
	d.state = PendingFlush
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Cancel drops a pending flush.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.resetLocked()
	d.mu.Unlock()
}

// FlushNow runs a pending flush synchronously and reports whether it did.
// It also waits for a flush already in progress.
func (d *Debouncer) FlushNow() bool {
	d.mu.Lock()
	pending := d.state == PendingFlush && !d.stopped
	if pending {
		d.resetLocked()
	}
	d.mu.Unlock()

	d.flushMu.Lock()
	defer d.flushMu.Unlock()
	if pending {
		d.flush()
	}
	return pending
}

// Stop cancels any pending flush, waits for a running one and ignores
// later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.resetLocked()
	d.mu.Unlock()

	d.flushMu.Lock()
	defer d.flushMu.Unlock()
}

func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || d.state != PendingFlush || d.seq != seq {
		d.mu.Unlock()
		return
	}
	d.state = Idle
	d.timer = nil
	d.mu.Unlock()

	d.flushMu.Lock()
	defer d.flushMu.Unlock()
	d.flush()
}

func (d *Debouncer) resetLocked() {
	d.seq++
	d.state = Idle
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

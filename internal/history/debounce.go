package history

import (
	"sync"
	"time"

	"github.com/example/studio/internal/editstate"
)

// DefaultWindow is the quiet period before a debounced state is committed.
const DefaultWindow = 400 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. It exists so tests can drive time by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall-clock Clock.
var SystemClock Clock = systemClock{}

// Debouncer holds at most one pending state. Every Schedule replaces the
// pending state and restarts the single timer; when the window passes
// without another Schedule, onExpire runs once. The owner collects the
// state with Take, so a commit racing with an explicit flush happens once.
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	clock    Clock
	onExpire func()

	pending *editstate.State
	timer   Timer
	gen     uint64
}

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// WithClock replaces the wall clock.
func WithClock(c Clock) DebounceOption { return func(d *Debouncer) { d.clock = c } }

// NewDebouncer returns a debouncer with the given window. A non-positive
// window selects DefaultWindow.
func NewDebouncer(window time.Duration, onExpire func(), opts ...DebounceOption) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	d := &Debouncer{window: window, clock: SystemClock, onExpire: onExpire}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Window returns the configured quiet period.
func (d *Debouncer) Window() time.Duration { return d.window }

// Schedule replaces the pending state with s and restarts the timer.
func (d *Debouncer) Schedule(s editstate.State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := s.Clone()
	d.pending = &st
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.window, func() { d.expire(gen) })
}

func (d *Debouncer) expire(gen uint64) {
	d.mu.Lock()
	live := gen == d.gen && d.pending != nil
	d.mu.Unlock()
	if live && d.onExpire != nil {
		d.onExpire()
	}
}

// Take removes and returns the pending state, stopping the timer.
func (d *Debouncer) Take() (editstate.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return editstate.State{}, false
	}
	s := *d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	return s, true
}

// Cancel drops the pending state without committing it.
func (d *Debouncer) Cancel() {
	d.Take()
}

// Pending reports whether a state is waiting for the window to pass.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Flush commits the pending state, if any, to h.
func (d *Debouncer) Flush(h *History) bool {
	s, ok := d.Take()
	if ok {
		h.Commit(s)
	}
	return ok
}

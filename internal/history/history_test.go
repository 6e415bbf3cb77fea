package history

import (
	"sort"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/example/studio/internal/editstate"
)

func stateWithBrightness(v float64) editstate.State {
	s := editstate.Initial()
	s.Adjustments.Brightness = v
	return s
}

func TestUndoRedoBounds(t *testing.T) {
	h := New(editstate.Initial(), 0)
	if _, moved := h.Undo(); moved {
		t.Fatalf("undo on fresh history moved the cursor")
	}
	h.Commit(stateWithBrightness(110))
	if !h.CanUndo() || h.CanRedo() {
		t.Fatalf("unexpected flags after commit")
	}
	s, moved := h.Undo()
	if !moved || s.Adjustments.Brightness != 100 {
		t.Fatalf("undo returned %+v moved=%v", s.Adjustments, moved)
	}
	s, moved = h.Redo()
	if !moved || s.Adjustments.Brightness != 110 {
		t.Fatalf("redo returned %+v moved=%v", s.Adjustments, moved)
	}
	if _, moved := h.Redo(); moved {
		t.Fatalf("redo past the tail moved the cursor")
	}
}

func TestCommitAfterUndoDiscardsRedoBranch(t *testing.T) {
	h := New(editstate.Initial(), 0)
	h.Commit(stateWithBrightness(110))
	h.Commit(stateWithBrightness(120))
	h.Undo()
	h.Commit(stateWithBrightness(130))
	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	if _, moved := h.Redo(); moved {
		t.Fatalf("redo after truncation should be a no-op")
	}
	if got := h.Current().Adjustments.Brightness; got != 130 {
		t.Fatalf("current brightness = %v, want 130", got)
	}
}

func TestLimitDropsOldest(t *testing.T) {
	h := New(stateWithBrightness(0), 3)
	for i := 1; i <= 5; i++ {
		h.Commit(stateWithBrightness(float64(i)))
	}
	if h.Len() != 3 || h.Index() != 2 {
		t.Fatalf("len=%d index=%d", h.Len(), h.Index())
	}
	h.Undo()
	h.Undo()
	if got := h.Current().Adjustments.Brightness; got != 3 {
		t.Fatalf("oldest kept = %v, want 3", got)
	}
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	h := New(editstate.Initial(), 0)
	s := editstate.Initial().AppendText(editstate.Text{ID: "a", Text: "x", Size: 10})
	h.Commit(s)
	s.Texts[0].Text = "mutated"
	if got := h.Current().Texts[0].Text; got != "x" {
		t.Fatalf("history entry aliased caller state: %q", got)
	}
}

// Property: for N commits followed by M <= N undos, the current state is
// the one committed at step N-M.
func TestUndoReturnsEarlierCommit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 30).Draw(t, "n")
		m := rapid.IntRange(0, n).Draw(t, "m")
		h := New(stateWithBrightness(0), 1000)
		for i := 1; i <= n; i++ {
			h.Commit(stateWithBrightness(float64(i)))
		}
		for i := 0; i < m; i++ {
			h.Undo()
		}
		if got := h.Current().Adjustments.Brightness; got != float64(n-m) {
			t.Fatalf("after %d commits and %d undos brightness = %v, want %d", n, m, got, n-m)
		}
		if h.Index() < 0 || h.Index() > h.Len()-1 {
			t.Fatalf("index %d out of [0,%d]", h.Index(), h.Len()-1)
		}
	})
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && t.at <= c.now {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

func newDebounced(clock *fakeClock) (*History, *Debouncer) {
	h := New(editstate.Initial(), 0)
	var d *Debouncer
	d = NewDebouncer(DefaultWindow, func() { d.Flush(h) }, WithClock(clock))
	return h, d
}

func TestDebounceCoalescesBurst(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		clock := &fakeClock{}
		h, d := newDebounced(clock)
		k := rapid.IntRange(1, 50).Draw(t, "k")
		for i := 1; i <= k; i++ {
			d.Schedule(stateWithBrightness(float64(100 + i)))
			clock.Advance(DefaultWindow / 10)
		}
		if h.Len() != 1 {
			t.Fatalf("commit happened inside the window")
		}
		clock.Advance(DefaultWindow)
		if h.Len() != 2 {
			t.Fatalf("len = %d, want 2", h.Len())
		}
		if got := h.Current().Adjustments.Brightness; got != float64(100+k) {
			t.Fatalf("committed brightness %v, want %d", got, 100+k)
		}
	})
}

func TestDebounceFlushPreventsLateCommit(t *testing.T) {
	clock := &fakeClock{}
	h, d := newDebounced(clock)
	d.Schedule(stateWithBrightness(150))
	if !d.Flush(h) {
		t.Fatalf("expected pending state to flush")
	}
	clock.Advance(time.Second)
	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2", h.Len())
	}
}

func TestDebounceCancel(t *testing.T) {
	clock := &fakeClock{}
	h, d := newDebounced(clock)
	d.Schedule(stateWithBrightness(150))
	d.Cancel()
	clock.Advance(time.Second)
	if h.Len() != 1 || d.Pending() {
		t.Fatalf("cancelled state was committed")
	}
}

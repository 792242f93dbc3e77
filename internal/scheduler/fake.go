package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Scheduler and clock for tests. Callbacks run
// synchronously on the goroutine calling Advance or Fire.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	f       *Fake
	seq     int
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

// NewFake creates a fake starting at now.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc implements Scheduler.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{f: f, seq: f.seq, at: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// Stop implements Timer.
func (t *fakeTimer) Stop() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Pending returns the number of armed timers.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// Advance moves the clock forward and fires every timer that became due, in
// deadline order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	due := f.collect(func(t *fakeTimer) bool { return !t.at.After(f.now) })
	f.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// FireAll fires every armed timer regardless of deadline without moving the clock.
func (f *Fake) FireAll() {
	f.mu.Lock()
	due := f.collect(func(*fakeTimer) bool { return true })
	f.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// Capture returns the callbacks of armed timers without firing or stopping them,
// so a test can run one after the timer has been cancelled.
func (f *Fake) Capture() []func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]func(), 0)
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			out = append(out, t.fn)
		}
	}
	return out
}

func (f *Fake) collect(pred func(*fakeTimer) bool) []*fakeTimer {
	due := make([]*fakeTimer, 0)
	for _, t := range f.timers {
		if !t.stopped && !t.fired && pred(t) {
			t.fired = true
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due
}

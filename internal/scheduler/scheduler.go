// Package scheduler provides the one-shot timers that drive mulligan, turn,
// matchmaking and accept deadlines.
package scheduler

import (
	"sync"
	"time"

	"github.com/RussellLuo/timingwheel"
)

const (
	defaultTick      = 100 * time.Millisecond
	defaultWheelSize = 512
)

// Timer is a handle to a scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the call stopped the timer.
	Stop() bool
}

// Scheduler runs callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Option configures a Wheel.
type Option func(*Wheel)

// WithTick sets the wheel precision.
func WithTick(d time.Duration) Option {
	return func(w *Wheel) {
		if d > 0 {
			w.tick = d
		}
	}
}

// WithWheelSize sets the number of wheel slots.
func WithWheelSize(size int64) Option {
	return func(w *Wheel) {
		if size > 0 {
			w.size = size
		}
	}
}

// Wheel is a Scheduler backed by a hierarchical timing wheel.
type Wheel struct {
	tick time.Duration
	size int64
	tw   *timingwheel.TimingWheel
	once sync.Once
}

// NewWheel creates a stopped wheel. Call Start before scheduling.
func NewWheel(opts ...Option) *Wheel {
	w := &Wheel{tick: defaultTick, size: defaultWheelSize}
	for _, opt := range opts {
		opt(w)
	}
	w.tw = timingwheel.NewTimingWheel(w.tick, w.size)
	return w
}

// Start begins ticking.
func (w *Wheel) Start() {
	w.tw.Start()
}

// Stop halts the wheel. Pending callbacks never run.
func (w *Wheel) Stop() {
	w.once.Do(w.tw.Stop)
}

// AfterFunc schedules f on its own goroutine after d.
func (w *Wheel) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return w.tw.AfterFunc(d, f)
}

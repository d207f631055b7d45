package clock

import (
	"sync"
	"time"
)

// Submitter queues a task on the host task queue.
type Submitter interface {
	Submit(task func()) error
}

// TimerFrames fires frame callbacks every Interval through a Submitter,
// the headless stand-in for a display's animation frames.
type TimerFrames struct {
	Queue    Submitter
	Interval time.Duration
}

// RequestFrame implements FrameScheduler.
func (t *TimerFrames) RequestFrame(fn func(now time.Time)) {
	time.AfterFunc(t.Interval, func() {
		// a terminated queue drops the frame, which ends the loop
		_ = t.Queue.Submit(func() { fn(time.Now()) })
	})
}

// ManualFrames holds requested callbacks until Fire is called.
type ManualFrames struct {
	pending []func(time.Time)
	mu      sync.Mutex
}

// RequestFrame implements FrameScheduler.
func (m *ManualFrames) RequestFrame(fn func(now time.Time)) {
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

// Pending returns the number of requested frames not yet fired.
func (m *ManualFrames) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Fire runs every callback requested so far with now and reports how
// many ran. Callbacks requested while firing wait for the next Fire.
func (m *ManualFrames) Fire(now time.Time) int {
	m.mu.Lock()
	fns := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

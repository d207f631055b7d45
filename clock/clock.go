// Package clock runs the fixed-timestep simulation loop.
//
// Each animation frame measures the real time elapsed since the previous
// frame, clamps it to MaxDelta, adds it to an accumulator and drains the
// accumulator in FixedStep increments, calling Update once per increment.
// Render then receives alpha = accumulator/FixedStep in [0, 1) so the
// module can interpolate between the last two simulation states.
//
// Time is kept in time.Duration (integer nanoseconds) so that repeated
// subtraction of the step never drifts.
package clock

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wippyai/wasm-playhost/errors"
)

// Stepper receives simulation and render callbacks.
type Stepper interface {
	Update(simTime, step time.Duration)
	Render(alpha float64)
}

// FrameScheduler requests a single callback at the next animation frame.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time))
}

// Config holds the stepping parameters.
type Config struct {
	FixedStep time.Duration
	MaxDelta  time.Duration
}

// SecondsToDuration converts seconds as passed by the module.
func SecondsToDuration(s float64) time.Duration {
	if s <= 0 || math.IsNaN(s) {
		return 0
	}
	if s > math.MaxInt64/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(s * float64(time.Second))
}

// State is the clock lifecycle state.
type State int32

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StepResult describes one frame.
type StepResult struct {
	Updates int
	Alpha   float64
}

// Stats is a snapshot safe to read from any goroutine.
type Stats struct {
	SimTime   time.Duration
	Frames    uint64
	Updates   uint64
	LastAlpha float64
	State     State
}

// Clock is the simulation state machine. Step and the frame callbacks
// run on the host task queue; Stop and Stats may be called from anywhere.
type Clock struct {
	stepper     Stepper
	frames      FrameScheduler
	previous    time.Time
	cfg         Config
	simTime     time.Duration
	accumulator time.Duration
	stats       Stats
	state       atomic.Int32
	mu          sync.Mutex
}

// New creates an idle clock.
func New(cfg Config, stepper Stepper) (*Clock, error) {
	if cfg.FixedStep <= 0 {
		return nil, errors.InvalidInput(errors.PhaseClock, "fixed step must be > 0")
	}
	if cfg.MaxDelta <= 0 {
		return nil, errors.InvalidInput(errors.PhaseClock, "max delta must be > 0")
	}
	if stepper == nil {
		return nil, errors.InvalidInput(errors.PhaseClock, "stepper is required")
	}
	return &Clock{cfg: cfg, stepper: stepper}, nil
}

// Config returns the stepping parameters.
func (c *Clock) Config() Config { return c.cfg }

// State returns the lifecycle state.
func (c *Clock) State() State { return State(c.state.Load()) }

// Start anchors the clock at now and requests the first frame. A stopped
// clock cannot be restarted.
func (c *Clock) Start(frames FrameScheduler, now time.Time) error {
	if !c.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return errors.InvalidState(errors.PhaseClock, "clock is "+c.State().String())
	}
	c.frames = frames
	c.previous = now
	if frames != nil {
		frames.RequestFrame(c.frame)
	}
	return nil
}

// Stop ends the loop permanently. The frame in progress, if any, finishes;
// no further frame is requested.
func (c *Clock) Stop() {
	c.state.Store(int32(Stopped))
}

func (c *Clock) frame(now time.Time) {
	if c.State() != Running {
		return
	}
	c.Step(now)
	if c.State() == Running {
		c.frames.RequestFrame(c.frame)
	}
}

// Step advances the simulation to now. Negative elapsed time counts as
// zero; elapsed time above MaxDelta is clamped, so a long stall costs at
// most MaxDelta/FixedStep updates.
func (c *Clock) Step(now time.Time) StepResult {
	delta := now.Sub(c.previous)
	c.previous = now
	if delta < 0 {
		delta = 0
	}
	if delta > c.cfg.MaxDelta {
		delta = c.cfg.MaxDelta
	}
	c.accumulator += delta

	updates := 0
	for c.accumulator >= c.cfg.FixedStep {
		c.stepper.Update(c.simTime, c.cfg.FixedStep)
		c.simTime += c.cfg.FixedStep
		c.accumulator -= c.cfg.FixedStep
		updates++
	}

	alpha := float64(c.accumulator) / float64(c.cfg.FixedStep)
	c.stepper.Render(alpha)

	c.mu.Lock()
	c.stats.SimTime = c.simTime
	c.stats.Frames++
	c.stats.Updates += uint64(updates)
	c.stats.LastAlpha = alpha
	c.mu.Unlock()

	return StepResult{Updates: updates, Alpha: alpha}
}

// Stats returns a snapshot of the counters.
func (c *Clock) Stats() Stats {
	c.mu.Lock()
	s := c.stats
	c.mu.Unlock()
	s.State = c.State()
	return s
}

package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-playhost/bridge"
)

type recorder struct {
	updates []time.Duration
	alphas  []float64
	onUpd   func()
}

func (r *recorder) Update(simTime, step time.Duration) {
	r.updates = append(r.updates, simTime)
	if r.onUpd != nil {
		r.onUpd()
	}
}

func (r *recorder) Render(alpha float64) { r.alphas = append(r.alphas, alpha) }

func newClock(t *testing.T, r *recorder) *Clock {
	t.Helper()
	c, err := New(Config{
		FixedStep: SecondsToDuration(1.0 / 60),
		MaxDelta:  SecondsToDuration(0.25),
	}, r)
	require.NoError(t, err)
	return c
}

func TestStepCountsUpdates(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	t0 := time.Unix(1000, 0)
	require.NoError(t, c.Start(nil, t0))

	total := 0
	now := t0
	for i := 0; i < 3; i++ {
		now = now.Add(200 * time.Millisecond)
		total += c.Step(now).Updates
	}

	assert.Equal(t, 36, total)
	assert.Len(t, r.alphas, 3, "render once per frame")
}

func TestStepClampsLongStall(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	t0 := time.Unix(0, 0)
	require.NoError(t, c.Start(nil, t0))

	res := c.Step(t0.Add(10 * time.Second))

	step := c.Config().FixedStep
	want := int(c.Config().MaxDelta / step)
	assert.Equal(t, 15, want)
	assert.Equal(t, want, res.Updates)
	assert.Equal(t, time.Duration(want)*step, c.Stats().SimTime)
}

func TestUpdateReceivesMonotonicSimTime(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	t0 := time.Unix(0, 0)
	require.NoError(t, c.Start(nil, t0))

	c.Step(t0.Add(100 * time.Millisecond))
	c.Step(t0.Add(150 * time.Millisecond))

	step := c.Config().FixedStep
	for i, st := range r.updates {
		assert.Equal(t, time.Duration(i)*step, st)
	}
}

func TestAlphaRange(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	t0 := time.Unix(0, 0)
	require.NoError(t, c.Start(nil, t0))

	now := t0
	for i := 1; i < 200; i++ {
		now = now.Add(time.Duration(i%37) * time.Millisecond)
		res := c.Step(now)
		assert.GreaterOrEqual(t, res.Alpha, 0.0)
		assert.Less(t, res.Alpha, 1.0)
		assert.LessOrEqual(t, res.Updates, int(c.Config().MaxDelta/c.Config().FixedStep)+1)
	}
}

func TestNegativeDeltaIsZero(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	t0 := time.Unix(100, 0)
	require.NoError(t, c.Start(nil, t0))

	res := c.Step(t0.Add(-time.Second))
	assert.Equal(t, 0, res.Updates)
	assert.Equal(t, 0.0, res.Alpha)
}

func TestFrameLoopAndStop(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	frames := &ManualFrames{}
	t0 := time.Unix(0, 0)

	require.NoError(t, c.Start(frames, t0))
	assert.Equal(t, 1, frames.Pending())

	frames.Fire(t0.Add(20 * time.Millisecond))
	assert.Equal(t, 1, frames.Pending(), "running clock requests the next frame")

	c.Stop()
	assert.Equal(t, Stopped, c.State())
	frames.Fire(t0.Add(40 * time.Millisecond))
	assert.Equal(t, 0, frames.Pending(), "stopped clock does not request frames")
	assert.Len(t, r.alphas, 1, "frame after stop does not render")

	assert.Error(t, c.Start(frames, t0), "stop is permanent")
}

func TestStopInsideUpdateFinishesFrame(t *testing.T) {
	r := &recorder{}
	c := newClock(t, r)
	r.onUpd = c.Stop
	frames := &ManualFrames{}
	t0 := time.Unix(0, 0)

	require.NoError(t, c.Start(frames, t0))
	frames.Fire(t0.Add(50 * time.Millisecond))

	assert.Equal(t, 3, len(r.updates), "current frame completes")
	assert.Len(t, r.alphas, 1)
	assert.Equal(t, 0, frames.Pending())
}

func TestStartTwice(t *testing.T) {
	c := newClock(t, &recorder{})
	require.NoError(t, c.Start(nil, time.Now()))
	assert.Error(t, c.Start(nil, time.Now()))
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{FixedStep: 0, MaxDelta: time.Second}, &recorder{})
	assert.Error(t, err)
	_, err = New(Config{FixedStep: time.Millisecond, MaxDelta: 0}, &recorder{})
	assert.Error(t, err)
	_, err = New(Config{FixedStep: time.Millisecond, MaxDelta: time.Second}, nil)
	assert.Error(t, err)
}

func TestSecondsToDuration(t *testing.T) {
	assert.Equal(t, 250*time.Millisecond, SecondsToDuration(0.25))
	assert.Equal(t, time.Duration(16666666), SecondsToDuration(1.0/60))
	assert.Equal(t, time.Duration(0), SecondsToDuration(-1))
	assert.Equal(t, time.Duration(0), SecondsToDuration(math.NaN()))
	assert.Equal(t, time.Duration(math.MaxInt64), SecondsToDuration(math.Inf(1)))
}

func TestTimerFrames(t *testing.T) {
	q := &bridge.Queue{}
	frames := &TimerFrames{Queue: q, Interval: time.Millisecond}

	fired := make(chan time.Time, 1)
	frames.RequestFrame(func(now time.Time) { fired <- now })

	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)
	q.Drain()
	select {
	case <-fired:
	default:
		t.Fatal("frame callback not delivered through the queue")
	}
}

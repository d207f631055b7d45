package bridge

import (
	"context"
	stderrors "errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/wasm-playhost/errors"
)

func begin(b *Bridge) *Future {
	return b.Begin(context.Background(), "test", nil)
}

func TestSlotsLowestFreeFirst(t *testing.T) {
	q := &Queue{}
	b := New(q)

	f0, f1, f2 := begin(b), begin(b), begin(b)
	assert.Equal(t, []uint32{0, 1, 2}, []uint32{f0.Slot(), f1.Slot(), f2.Slot()})

	require.NoError(t, b.Resolve(1, nil))
	require.NoError(t, b.Resolve(0, nil))

	assert.Equal(t, uint32(0), begin(b).Slot(), "lowest free slot first")
	assert.Equal(t, uint32(1), begin(b).Slot())
	assert.Equal(t, uint32(3), begin(b).Slot(), "sequence continues when free list is empty")
}

func TestDeliveryIsNeverSynchronous(t *testing.T) {
	q := &Queue{}
	b := New(q)

	var got []string
	f := b.Begin(context.Background(), "sync", func(_ context.Context, slot uint32) {
		require.NoError(t, b.Resolve(slot, "early"))
	})
	f.Then(func(v any) { got = append(got, v.(string)) }, nil)

	assert.Empty(t, got, "continuation ran inside Begin")
	assert.False(t, b.IsPending(f.Slot()), "slot recycled at settlement")

	q.Drain()
	assert.Equal(t, []string{"early"}, got)
}

func TestSettlesExactlyOnce(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	q := &Queue{}
	b := New(q, WithLogger(zap.New(core)))

	resolved, rejected := 0, 0
	f := begin(b).Then(func(any) { resolved++ }, func(error) { rejected++ })

	require.NoError(t, b.Resolve(f.Slot(), 1))
	err := b.Resolve(f.Slot(), 2)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrDoubleSettlement))

	err = b.Reject(f.Slot(), stderrors.New("late"))
	assert.True(t, stderrors.Is(err, errors.ErrDoubleSettlement))

	q.Drain()
	assert.Equal(t, 1, resolved)
	assert.Equal(t, 0, rejected)

	v, rerr := f.Result()
	assert.Equal(t, 1, v)
	assert.NoError(t, rerr)

	assert.Equal(t, 2, logs.Len(), "each double settlement is logged")
}

func TestSettleUnknownSlot(t *testing.T) {
	b := New(&Queue{})
	err := b.Resolve(42, nil)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindDoubleSettlement, e.Kind)
	assert.Equal(t, uint32(42), e.Value)
}

func TestReject(t *testing.T) {
	q := &Queue{}
	b := New(q)

	var got error
	f := begin(b).Then(func(any) { t.Error("resolve called") }, func(err error) { got = err })
	require.NoError(t, b.Reject(f.Slot(), errors.NotFound(errors.PhaseFetch, "asset", "a.png")))
	q.Drain()

	require.Error(t, got)
	assert.Equal(t, errors.ReasonNotFound, errors.ReasonOf(got))

	f2 := begin(b)
	require.NoError(t, b.Reject(f2.Slot(), nil))
	q.Drain()
	_, err := f2.Result()
	assert.True(t, stderrors.Is(err, errors.ErrOperationFailed))
}

func TestThenAfterSettlementRunsOnScheduler(t *testing.T) {
	q := &Queue{}
	b := New(q)

	f := begin(b)
	require.NoError(t, b.Resolve(f.Slot(), "v"))
	q.Drain()

	called := false
	f.Then(func(any) { called = true }, nil)
	assert.False(t, called, "late Then must not run inline")
	q.Drain()
	assert.True(t, called)
}

func TestAwait(t *testing.T) {
	q := &Queue{}
	b := New(q)

	f := begin(b)
	require.NoError(t, b.Resolve(f.Slot(), []byte("data")))
	q.Drain()

	data, err := Await[[]byte](context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	_, err = Await[string](context.Background(), f)
	assert.True(t, stderrors.Is(err, &errors.Error{Kind: errors.KindInvalidData}))

	pending := begin(b)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = Await[[]byte](ctx, pending)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, b.IsPending(pending.Slot()), "cancellation does not settle")
}

func TestOnIdle(t *testing.T) {
	q := &Queue{}
	b := New(q)

	idle := 0
	b.OnIdle(func() { idle++ })

	f1, f2 := begin(b), begin(b)
	require.NoError(t, b.Resolve(f1.Slot(), nil))
	q.Drain()
	assert.Equal(t, 0, idle)

	require.NoError(t, b.Resolve(f2.Slot(), nil))
	q.Drain()
	assert.Equal(t, 1, idle)
	assert.Equal(t, 0, b.Pending())

	begun, settled := b.Stats()
	assert.Equal(t, uint64(2), begun)
	assert.Equal(t, uint64(2), settled)
}

// Random begin/settle sequences: no two pending operations share a slot,
// and a fresh slot is always the lowest one not in use.
func TestSlotInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	q := &Queue{}
	b := New(q)
	live := map[uint32]bool{}

	for i := 0; i < 1000; i++ {
		if len(live) > 0 && rng.Intn(2) == 0 {
			for s := range live {
				require.NoError(t, b.Resolve(s, nil))
				delete(live, s)
				break
			}
			continue
		}

		f := begin(b)
		require.False(t, live[f.Slot()], "slot %d issued twice", f.Slot())
		for s := uint32(0); s < f.Slot(); s++ {
			require.True(t, live[s], "slot %d issued while %d was free", f.Slot(), s)
		}
		live[f.Slot()] = true
	}
	q.Drain()
	assert.Equal(t, len(live), b.Pending())
}

type failingScheduler struct{}

func (failingScheduler) Submit(func()) error { return eventloop.ErrLoopTerminated }

func TestTerminatedSchedulerDeliversInline(t *testing.T) {
	b := New(failingScheduler{})
	f := begin(b)
	require.NoError(t, b.Resolve(f.Slot(), 7))

	select {
	case <-f.Done():
	default:
		t.Fatal("future stranded after scheduler failure")
	}
}

func TestEventLoopDelivery(t *testing.T) {
	loop, err := eventloop.New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(ctx) }()

	b := New(FromLoop(loop))

	const n = 32
	futures := make([]*Future, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		futures[i] = b.Begin(ctx, "work", func(_ context.Context, slot uint32) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(time.Millisecond)
				_ = b.Resolve(slot, int(slot)*2)
			}()
		})
	}
	wg.Wait()

	for _, f := range futures {
		waitCtx, stop := context.WithTimeout(ctx, 5*time.Second)
		v, err := Await[int](waitCtx, f)
		stop()
		require.NoError(t, err)
		assert.Equal(t, int(f.Slot())*2, v)
	}
	assert.Equal(t, 0, b.Pending())
}

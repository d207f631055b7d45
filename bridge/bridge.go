package bridge

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/tracing"
)

// Bridge correlates asynchronous host operations with small integer slots
// the module can hold. A slot is live from Begin until the operation
// settles; it is then immediately available for reuse, lowest id first.
type Bridge struct {
	sched   Scheduler
	logger  *zap.Logger
	pending map[uint32]*Future
	free    slotHeap
	idle    []func()
	next    uint32
	begun   atomic.Uint64
	settled atomic.Uint64
	mu      sync.Mutex
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger overrides the package logger for one bridge.
func WithLogger(l *zap.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New creates a bridge that delivers continuations through sched.
func New(sched Scheduler, opts ...Option) *Bridge {
	b := &Bridge{
		sched:   sched,
		logger:  Logger(),
		pending: make(map[uint32]*Future),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Begin registers a new pending operation and calls start with its slot.
// start runs synchronously and usually hands the slot to the module or to
// a worker goroutine. The returned future never completes inside Begin,
// even if start settles the slot before returning.
func (b *Bridge) Begin(ctx context.Context, name string, start func(ctx context.Context, slot uint32)) *Future {
	b.mu.Lock()
	var slot uint32
	if b.free.Len() > 0 {
		slot = heap.Pop(&b.free).(uint32)
	} else {
		slot = b.next
		b.next++
	}
	ctx, span := tracing.StartSpan(ctx, "bridge."+name,
		trace.WithAttributes(tracing.StringAttr("op", name), tracing.IntAttr("slot", int(slot))))
	f := newFuture(b, slot, name, span)
	b.pending[slot] = f
	b.mu.Unlock()

	b.begun.Add(1)
	b.logger.Debug("operation begun", zap.String("op", name), zap.Uint32("slot", slot))

	if start != nil {
		start(ctx, slot)
	}
	return f
}

// Resolve settles slot with value. It may be called from any goroutine.
// A slot without a pending operation yields a DoubleSettlement error and
// nothing is delivered.
func (b *Bridge) Resolve(slot uint32, value any) error {
	return b.settle(slot, value, nil)
}

// Reject settles slot with err. A nil err is replaced by an
// OperationFailed error with an unknown reason.
func (b *Bridge) Reject(slot uint32, err error) error {
	if err == nil {
		err = errors.OperationFailed(errors.PhaseBridge, errors.ReasonUnknown, nil)
	}
	return b.settle(slot, nil, err)
}

func (b *Bridge) settle(slot uint32, value any, cause error) error {
	b.mu.Lock()
	f, ok := b.pending[slot]
	if !ok {
		b.mu.Unlock()
		err := errors.DoubleSettlement(slot)
		b.logger.Error("settlement without pending operation",
			zap.Uint32("slot", slot), zap.Error(err))
		return err
	}
	delete(b.pending, slot)
	heap.Push(&b.free, slot)
	b.mu.Unlock()

	b.settled.Add(1)
	if cause != nil {
		tracing.RecordError(f.span, cause)
		b.logger.Debug("operation rejected", zap.String("op", f.name), zap.Uint32("slot", slot), zap.Error(cause))
	} else {
		tracing.SetOK(f.span)
		b.logger.Debug("operation resolved", zap.String("op", f.name), zap.Uint32("slot", slot))
	}
	f.span.End()

	b.submit(func() {
		f.complete(value, cause)
		b.maybeIdle()
	})
	return nil
}

func (b *Bridge) submit(task func()) {
	if err := b.sched.Submit(task); err != nil {
		// The queue is gone; run inline so waiters are not stranded.
		b.logger.Warn("scheduler rejected task, running inline", zap.Error(err))
		task()
	}
}

func (b *Bridge) maybeIdle() {
	b.mu.Lock()
	if len(b.pending) != 0 {
		b.mu.Unlock()
		return
	}
	hooks := append([]func(){}, b.idle...)
	b.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// OnIdle registers fn to run on the scheduler each time a delivery leaves
// no operation pending.
func (b *Bridge) OnIdle(fn func()) {
	b.mu.Lock()
	b.idle = append(b.idle, fn)
	b.mu.Unlock()
}

// Pending returns the number of operations that have not settled.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// IsPending reports whether slot has an operation in flight.
func (b *Bridge) IsPending(slot uint32) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.pending[slot]
	return ok
}

// Stats reports how many operations were begun and settled.
func (b *Bridge) Stats() (begun, settled uint64) {
	return b.begun.Load(), b.settled.Load()
}

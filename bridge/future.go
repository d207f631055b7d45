package bridge

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/wippyai/wasm-playhost/errors"
)

// Future is the host-side handle on a pending operation. It completes
// exactly once, on the bridge's scheduler.
type Future struct {
	value     any
	err       error
	b         *Bridge
	span      trace.Span
	done      chan struct{}
	name      string
	callbacks []callback
	slot      uint32
	mu        sync.Mutex
	settled   bool
}

type callback struct {
	onResolve func(any)
	onReject  func(error)
}

func newFuture(b *Bridge, slot uint32, name string, span trace.Span) *Future {
	return &Future{
		b:    b,
		slot: slot,
		name: name,
		span: span,
		done: make(chan struct{}),
	}
}

// Slot returns the slot the operation was registered under. The id may
// belong to a different operation once this one has settled.
func (f *Future) Slot() uint32 { return f.slot }

// Name returns the operation name given to Begin.
func (f *Future) Name() string { return f.name }

// Done is closed when the future completes.
func (f *Future) Done() <-chan struct{} { return f.done }

// Result returns the settled value and error. Before completion both are
// nil.
func (f *Future) Result() (any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Then registers continuations. Exactly one of them runs, on the
// scheduler, never inside Then itself. Either may be nil.
func (f *Future) Then(onResolve func(any), onReject func(error)) *Future {
	cb := callback{onResolve: onResolve, onReject: onReject}

	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, cb)
		f.mu.Unlock()
		return f
	}
	v, err := f.value, f.err
	f.mu.Unlock()

	f.b.submit(func() { cb.invoke(v, err) })
	return f
}

func (f *Future) complete(v any, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value, f.err = v, err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb.invoke(v, err)
	}
}

func (cb callback) invoke(v any, err error) {
	if err != nil {
		if cb.onReject != nil {
			cb.onReject(err)
		}
		return
	}
	if cb.onResolve != nil {
		cb.onResolve(v)
	}
}

// Await blocks until f completes or ctx is done and returns the value as
// T. It must not be called from the scheduler's own goroutine, which is
// the one that completes futures.
func Await[T any](ctx context.Context, f *Future) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-f.done:
	}

	v, err := f.Result()
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, errors.InvalidData(errors.PhaseBridge, []string{f.name},
			fmt.Sprintf("settled with %T, want %T", v, zero))
	}
	return t, nil
}

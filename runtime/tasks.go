package runtime

import (
	"context"

	"go.uber.org/zap"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/memory"
)

// Guest exports that resume the module after an asynchronous operation.
const (
	exportOnResolve = "on_resolve"
	exportOnReject  = "on_reject"
)

// tasks runs module-initiated operations on worker goroutines and
// resumes the module on the loop.
type tasks struct {
	p *Platform
}

var _ playhost.Tasks = (*tasks)(nil)

// Start registers the operation with the bridge and returns its slot.
// work runs on a worker once a worker token is free; its outcome is
// queued on the loop and delivered by resume.
func (t *tasks) Start(ctx context.Context, name string, work func(ctx context.Context) (playhost.Completion, error)) uint32 {
	p := t.p
	f := p.bridge.Begin(ctx, name, func(ctx context.Context, slot uint32) {
		p.workers.Add(1)
		go func() {
			defer p.workers.Done()
			var (
				c   playhost.Completion
				err error
			)
			if err = p.sem.Acquire(ctx, 1); err == nil {
				c, err = work(ctx)
				p.sem.Release(1)
			}
			if serr := p.loop.Submit(func() { p.resume(ctx, slot, c, err) }); serr != nil {
				p.logger.Debug("completion dropped, loop terminated",
					zap.String("op", name), zap.Uint32("slot", slot), zap.Error(serr))
			}
		}()
	})
	return f.Slot()
}

// resume delivers the outcome of slot to the module and then settles it
// with the bridge. The module sees the result before the slot can be
// issued again, so a slot id is never resumed for an operation it did
// not start.
func (p *Platform) resume(ctx context.Context, slot uint32, c playhost.Completion, err error) {
	if !p.bridge.IsPending(slot) {
		_ = p.bridge.Resolve(slot, nil) // logged as a double settlement
		return
	}
	if p.mod == nil || p.stopped.Load() {
		p.settle(slot, c.Data, err)
		return
	}

	if err == nil && c.Apply != nil {
		if mem := p.mod.Memory(); mem != nil {
			err = c.Apply(mem)
		} else {
			err = &errors.MissingExport{Name: "memory", Kind: "memory"}
		}
	}

	var ptr uint32
	n := uint32(len(c.Data))
	if err == nil && n > 0 {
		ptr, err = p.copyIn(ctx, c.Data)
	}

	if err != nil {
		code := p.errnos.For(err)
		p.logger.Debug("operation rejected",
			zap.Uint32("slot", slot), zap.Uint32("errno", code), zap.Error(err))
		p.callGuest(ctx, exportOnReject, uint64(slot), uint64(code))
	} else {
		p.callGuest(ctx, exportOnResolve, uint64(slot), uint64(ptr), uint64(n))
	}
	p.settle(slot, c.Data, err)
}

func (p *Platform) settle(slot uint32, data []byte, err error) {
	if err != nil {
		_ = p.bridge.Reject(slot, err)
		return
	}
	_ = p.bridge.Resolve(slot, data)
}

// copyIn allocates a module buffer for data and copies it in. A zero
// pointer from alloc is an out-of-memory failure.
func (p *Platform) copyIn(ctx context.Context, data []byte) (uint32, error) {
	alloc := p.mod.Allocator(ctx)
	if alloc == nil {
		return 0, errors.OperationFailed(errors.PhaseRuntime, errors.ReasonOutOfMemory,
			&errors.MissingExport{Name: "alloc", Kind: "function"})
	}
	n := uint32(len(data))
	ptr, err := alloc.Alloc(n)
	if err != nil {
		return 0, err
	}
	if ptr == 0 {
		return 0, errors.OutOfMemory(errors.PhaseRuntime, n)
	}
	// alloc may have grown memory; take a fresh view.
	if err := p.mod.Memory().Write(ptr, data); err != nil {
		return 0, err
	}
	return ptr, nil
}

// callGuest calls an optional export. A missing export is logged; a trap
// ends the session.
func (p *Platform) callGuest(ctx context.Context, name string, params ...uint64) {
	called, err := p.mod.CallOptional(ctx, name, params...)
	if err != nil {
		p.fail(errors.Wrap(errors.PhaseRuntime, errors.KindOperationFailed, err, name))
		return
	}
	if !called {
		p.logger.Warn("module does not export resume entry", zap.String("export", name))
	}
}

// readBytes is the copy used for resolve_promise payloads.
func readBytes(m playhost.Memory, ptr, n uint32) []byte {
	b, err := memory.ReadBytes(m, ptr, n)
	if err != nil {
		panic(err)
	}
	return b
}

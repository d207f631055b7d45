package runtime

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/clock"
	"github.com/wippyai/wasm-playhost/memory"
)

// Namespace is the import module of the platform functions. The file
// and fetch imports share it.
const Namespace = "playhost"

// maxLogLine bounds the guest log buffer between flushes.
const maxLogLine = 64 << 10

func mem(mod api.Module) playhost.Memory { return memory.Wrap(mod.Memory()) }

// Register returns the platform imports keyed by name.
func (p *Platform) Register() map[string]any {
	return map[string]any{
		"run":  p.StartLoop,
		"quit": p.Quit,
		"log_write": func(_ context.Context, mod api.Module, ptr, n uint32) {
			p.LogWrite(mem(mod), ptr, n)
		},
		"log_flush": p.LogFlush,
		"resolve_promise": func(_ context.Context, mod api.Module, slot, ptr, n uint32) {
			p.ResolvePromise(mem(mod), slot, ptr, n)
		},
		"reject_promise": p.RejectPromise,
		"random_bytes": func(_ context.Context, mod api.Module, ptr, n uint32) {
			p.RandomBytes(mem(mod), ptr, n)
		},
		"now_f64":        p.NowF64,
		"getScreenW":     p.ScreenWidth,
		"getScreenH":     p.ScreenHeight,
		"surface_create": p.CreateSurface,
		"surface_get_size": func(_ context.Context, mod api.Module, h, wPtr, hPtr uint32) {
			p.SurfaceSize(mem(mod), h, wPtr, hPtr)
		},
		"surface_make_current": p.MakeSurfaceCurrent,
		"surface_destroy":      p.DestroySurface,
	}
}

// StartLoop is the run import: it schedules the module's asynchronous init
// and starts the simulation clock once init resolves. maxDelta and
// tickDelta are in seconds. Only the first call has an effect.
func (p *Platform) StartLoop(maxDelta, tickDelta float64) {
	cfg := clock.Config{
		FixedStep: clock.SecondsToDuration(tickDelta),
		MaxDelta:  clock.SecondsToDuration(maxDelta),
	}
	if !p.runCalled.CompareAndSwap(false, true) {
		p.logger.Warn("run called more than once")
		return
	}
	// The module is still on the stack; init starts from a fresh task.
	if err := p.loop.Submit(func() { p.beginInit(cfg) }); err != nil {
		p.logger.Error("schedule init", zap.Error(err))
	}
}

// Quit stops the clock. Operations in flight still settle; the session
// ends once none are pending.
func (p *Platform) Quit() {
	if !p.quitting.CompareAndSwap(false, true) {
		return
	}
	p.logger.Info("module requested quit")
	if c := p.clock.Load(); c != nil {
		c.Stop()
	}
	if p.bridge.Pending() == 0 {
		p.shutdown(nil)
	}
}

// LogWrite appends to the guest log line.
func (p *Platform) LogWrite(m playhost.Memory, ptr, n uint32) {
	s, err := memory.ReadString(m, ptr, n)
	if err != nil {
		panic(err)
	}
	if p.logBuf.Len()+len(s) > maxLogLine {
		p.LogFlush()
	}
	p.logBuf.WriteString(s)
}

// LogFlush emits the buffered guest log line.
func (p *Platform) LogFlush() {
	p.guest.Info(p.logBuf.String())
	p.logBuf.Reset()
	p.logLines.Add(1)
}

// ResolvePromise settles a host-initiated operation with the bytes at
// (ptr, n).
func (p *Platform) ResolvePromise(m playhost.Memory, slot, ptr, n uint32) {
	_ = p.bridge.Resolve(slot, readBytes(m, ptr, n))
}

// RejectPromise settles a host-initiated operation with the module's
// error code, named through the module's error-name exports.
func (p *Platform) RejectPromise(ctx context.Context, slot, errno uint32) {
	_ = p.bridge.Reject(slot, p.mod.ModuleError(ctx, errno))
}

// RandomBytes fills (ptr, n) with cryptographic randomness.
func (p *Platform) RandomBytes(m playhost.Memory, ptr, n uint32) {
	if _, err := memory.Span(m, ptr, n, 1); err != nil {
		panic(err)
	}
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	if err := m.Write(ptr, buf); err != nil {
		panic(err)
	}
}

// NowF64 returns wall-clock time in milliseconds since the Unix epoch.
func (p *Platform) NowF64() float64 {
	return float64(p.now().UnixNano()) / float64(time.Millisecond)
}

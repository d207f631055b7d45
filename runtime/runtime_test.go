package runtime

import (
	"context"
	"encoding/binary"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/fetch"
	"github.com/wippyai/wasm-playhost/input"
	"github.com/wippyai/wasm-playhost/internal/wasmtest"
	"github.com/wippyai/wasm-playhost/memory"
	"github.com/wippyai/wasm-playhost/storage"
)

// Guest memory layout shared by the test modules.
const (
	addrUpdates    = 0
	addrRenders    = 4
	addrResSlot    = 8
	addrResPtr     = 12
	addrResLen     = 16
	addrRejSlot    = 20
	addrRejErrno   = 24
	addrFetchSlot  = 28
	addrHeap       = 32
	addrReadSlot   = 36
	addrScreenW    = 40
	addrKey        = 44
	addrScancode   = 48
	addrTextLen    = 52
	addrPathHello  = 100
	addrPathSave   = 140
	addrLogMsg     = 180
	addrNotFound   = 200
	addrTextBuffer = 300
	addrScancodeA  = 400
	heapStart      = 1024
)

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// guest describes which optional behaviours a generated module has.
type guest struct {
	io       bool // fetch and file_read from on_init
	keyQuit  bool // render quits once a key arrived instead of after updates
	trapStep bool // update traps
}

func (g guest) build() []byte {
	const (
		I32 = wasmtest.I32
		F64 = wasmtest.F64
	)
	b := wasmtest.New()
	fnRun := b.Import(Namespace, "run", wasmtest.Sig(F64, F64))
	fnQuit := b.Import(Namespace, "quit", wasmtest.Sig())
	fnFetch := b.Import(Namespace, "fetch", wasmtest.Sig(I32, I32).Returns(I32))
	fnResolve := b.Import(Namespace, "resolve_promise", wasmtest.Sig(I32, I32, I32))
	fnLogWrite := b.Import(Namespace, "log_write", wasmtest.Sig(I32, I32))
	fnLogFlush := b.Import(Namespace, "log_flush", wasmtest.Sig())
	fnFileRead := b.Import(Namespace, "file_read", wasmtest.Sig(I32, I32).Returns(I32))
	fnScreenW := b.Import(Namespace, "getScreenW", wasmtest.Sig().Returns(I32))

	b.Memory(1)
	b.Data(addrHeap, le32(heapStart))
	b.Data(addrPathHello, []byte("hello.txt"))
	b.Data(addrPathSave, []byte("slot1.sav"))
	b.Data(addrLogMsg, []byte("boot"))
	b.Data(addrNotFound, le32(7))
	b.Data(addrScancodeA, []byte{10, 0})
	b.Global(globalErrnoFileNotFound, addrNotFound)
	b.Global(globalTextInputBuff, addrTextBuffer)
	b.Global("SCANCODE_A", addrScancodeA)

	b.Export("main", b.Func(wasmtest.Sig(), nil,
		wasmtest.I32Const(addrLogMsg), wasmtest.I32Const(4), wasmtest.Call(fnLogWrite),
		wasmtest.Call(fnLogFlush),
		wasmtest.F64Const(0.25), wasmtest.F64Const(0.001), wasmtest.Call(fnRun),
	))

	var initBody [][]byte
	if g.io {
		initBody = append(initBody,
			wasmtest.I32Const(addrFetchSlot),
			wasmtest.I32Const(addrPathHello), wasmtest.I32Const(9), wasmtest.Call(fnFetch),
			wasmtest.I32Store(0),
			wasmtest.I32Const(addrReadSlot),
			wasmtest.I32Const(addrPathSave), wasmtest.I32Const(9), wasmtest.Call(fnFileRead),
			wasmtest.I32Store(0),
		)
	}
	initBody = append(initBody,
		wasmtest.I32Const(addrScreenW), wasmtest.Call(fnScreenW), wasmtest.I32Store(0),
		wasmtest.LocalGet(0), wasmtest.I32Const(0), wasmtest.I32Const(0), wasmtest.Call(fnResolve),
	)
	b.Export("on_init", b.Func(wasmtest.Sig(I32), nil, initBody...))

	update := [][]byte{wasmtest.Increment(addrUpdates)}
	if g.trapStep {
		update = [][]byte{wasmtest.Unreachable()}
	}
	b.Export("update", b.Func(wasmtest.Sig(F64, F64), nil, update...))

	quitWhen := [][]byte{
		wasmtest.I32Const(addrUpdates), wasmtest.I32Load(0), wasmtest.I32Const(3), wasmtest.I32GeU(),
	}
	if g.keyQuit {
		quitWhen = [][]byte{
			wasmtest.I32Const(addrKey), wasmtest.I32Load(0), wasmtest.I32Eqz(), wasmtest.I32Eqz(),
		}
	}
	render := append([][]byte{wasmtest.Increment(addrRenders)}, quitWhen...)
	render = append(render, wasmtest.If(), wasmtest.Call(fnQuit), wasmtest.End())
	b.Export("render", b.Func(wasmtest.Sig(F64), nil, render...))

	// alloc bumps the heap pointer and returns its old value.
	b.Export("alloc", b.Func(wasmtest.Sig(I32).Returns(I32), nil,
		wasmtest.I32Const(addrHeap),
		wasmtest.I32Const(addrHeap), wasmtest.I32Load(0), wasmtest.LocalGet(0), wasmtest.I32Add(),
		wasmtest.I32Store(0),
		wasmtest.I32Const(addrHeap), wasmtest.I32Load(0), wasmtest.LocalGet(0), wasmtest.I32Sub(),
	))

	b.Export("on_resolve", b.Func(wasmtest.Sig(I32, I32, I32), nil,
		wasmtest.I32Const(addrResSlot), wasmtest.LocalGet(0), wasmtest.I32Store(0),
		wasmtest.I32Const(addrResPtr), wasmtest.LocalGet(1), wasmtest.I32Store(0),
		wasmtest.I32Const(addrResLen), wasmtest.LocalGet(2), wasmtest.I32Store(0),
	))
	b.Export("on_reject", b.Func(wasmtest.Sig(I32, I32), nil,
		wasmtest.I32Const(addrRejSlot), wasmtest.LocalGet(0), wasmtest.I32Store(0),
		wasmtest.I32Const(addrRejErrno), wasmtest.LocalGet(1), wasmtest.I32Store(0),
	))
	b.Export("on_key_down", b.Func(wasmtest.Sig(I32, I32), nil,
		wasmtest.I32Const(addrScancode), wasmtest.LocalGet(1), wasmtest.I32Store(0),
		wasmtest.I32Const(addrKey), wasmtest.LocalGet(0), wasmtest.I32Store(0),
	))
	b.Export("on_text_input", b.Func(wasmtest.Sig(I32), nil,
		wasmtest.I32Const(addrTextLen), wasmtest.LocalGet(0), wasmtest.I32Store(0),
	))
	return b.Bytes()
}

func newTestPlatform(t *testing.T, opts ...Option) *Platform {
	t.Helper()
	cfg := config.Defaults()
	cfg.Engine.WASI = false
	cfg.Display.FrameRate = 1000

	store, err := storage.OpenDir(t.TempDir())
	require.NoError(t, err)
	assets := fstest.MapFS{"hello.txt": {Data: []byte("hi there")}}

	opts = append([]Option{WithStore(store), WithFetcher(fetch.New(assets))}, opts...)
	p, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func runWithTimeout(t *testing.T, p *Platform) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := p.Run(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "session did not end")
	return err
}

func readU32(t *testing.T, m *memory.Wrapper, addr uint32) uint32 {
	t.Helper()
	v, err := m.ReadU32(addr)
	require.NoError(t, err)
	return v
}

func TestPlatform_Session(t *testing.T) {
	p := newTestPlatform(t)
	require.NoError(t, p.Load(context.Background(), guest{io: true}.build(), "game"))

	require.NoError(t, runWithTimeout(t, p))

	m := p.mod.Memory()
	assert.GreaterOrEqual(t, readU32(t, m, addrUpdates), uint32(3))
	assert.GreaterOrEqual(t, readU32(t, m, addrRenders), uint32(1))
	assert.Equal(t, uint32(800), readU32(t, m, addrScreenW))

	fetchSlot := readU32(t, m, addrFetchSlot)
	readSlot := readU32(t, m, addrReadSlot)
	assert.NotEqual(t, fetchSlot, readSlot)

	// fetch resolved through alloc and on_resolve
	assert.Equal(t, fetchSlot, readU32(t, m, addrResSlot))
	ptr := readU32(t, m, addrResPtr)
	assert.Equal(t, uint32(heapStart), ptr)
	require.Equal(t, uint32(8), readU32(t, m, addrResLen))
	body, err := m.Read(ptr, 8)
	require.NoError(t, err)
	assert.Equal(t, "hi there", string(body))

	// the missing save rejected with the module's own code
	assert.Equal(t, readSlot, readU32(t, m, addrRejSlot))
	assert.Equal(t, uint32(7), readU32(t, m, addrRejErrno))

	s := p.Stats()
	assert.Equal(t, p.ID(), s.Session)
	assert.Equal(t, 0, s.Pending)
	assert.Equal(t, uint64(3), s.Begun)
	assert.Equal(t, s.Begun, s.Settled)
	assert.Equal(t, uint64(1), s.LogLines)
	assert.False(t, s.Running)
}

func TestPlatform_KeyInput(t *testing.T) {
	p := newTestPlatform(t)
	require.NoError(t, p.Load(context.Background(), guest{keyQuit: true}.build(), "game"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		return p.Stats().Clock.Frames > 0
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, p.KeyDown(input.Event{Key: "a", Code: "KeyA"}))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("session did not end after key input")
	}

	m := p.mod.Memory()
	assert.Equal(t, uint32('a'), readU32(t, m, addrKey))
	assert.Equal(t, uint32(10), readU32(t, m, addrScancode), "SCANCODE_A override")
	assert.Equal(t, uint32(1), readU32(t, m, addrTextLen))
	text, err := memory.ReadCString(m, addrTextBuffer, 32)
	require.NoError(t, err)
	assert.Equal(t, "a", text)
}

func TestPlatform_TrapFailsSession(t *testing.T) {
	p := newTestPlatform(t)
	require.NoError(t, p.Load(context.Background(), guest{trapStep: true}.build(), "game"))

	err := runWithTimeout(t, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update")
}

func TestPlatform_EntryWithoutRun(t *testing.T) {
	b := wasmtest.New()
	b.Memory(1)
	b.Export("main", b.Func(wasmtest.Sig(), nil, wasmtest.Increment(addrUpdates)))

	p := newTestPlatform(t)
	require.NoError(t, p.Load(context.Background(), b.Bytes(), "plain"))
	require.NoError(t, runWithTimeout(t, p))
	assert.Equal(t, uint32(1), readU32(t, p.mod.Memory(), addrUpdates))
}

func TestPlatform_RunWithoutLoad(t *testing.T) {
	p := newTestPlatform(t)
	err := p.Run(context.Background())
	var perr *errors.Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, errors.KindNotInitialized, perr.Kind)
}

func TestPlatform_LoadRequiresMemory(t *testing.T) {
	b := wasmtest.New()
	b.Export("main", b.Func(wasmtest.Sig(), nil))

	p := newTestPlatform(t)
	err := p.Load(context.Background(), b.Bytes(), "nomem")
	var missing *errors.MissingExport
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "memory", missing.Name)
}

func TestPlatform_Surfaces(t *testing.T) {
	p := newTestPlatform(t)
	m := memory.NewBytes(64)

	assert.Equal(t, uint32(800), p.ScreenWidth())

	h := p.CreateSurface(320, 200)
	assert.Equal(t, uint32(4), h)
	assert.Equal(t, 1, p.Surfaces())

	p.SurfaceSize(m, h, 8, 0)
	w, err := m.ReadU32(8)
	require.NoError(t, err)
	assert.Equal(t, uint32(320), w)
	hgt, err := m.ReadU32(12)
	require.NoError(t, err)
	assert.Zero(t, hgt, "zero height pointer is skipped")

	p.MakeSurfaceCurrent(h)
	assert.Equal(t, uint32(320), p.ScreenWidth())
	assert.Equal(t, uint32(200), p.ScreenHeight())

	p.DestroySurface(h)
	assert.Equal(t, uint32(800), p.ScreenWidth(), "display is current again")
	assert.Equal(t, 0, p.Surfaces())

	assert.Panics(t, func() { p.DestroySurface(h) })
	assert.Panics(t, func() { p.MakeSurfaceCurrent(99) })
	assert.NotEqual(t, h, p.CreateSurface(1, 1), "retired ids are not reused")
}

func TestPlatform_NowF64(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_123)
	p := newTestPlatform(t, WithClock(func() time.Time { return fixed }))
	assert.Equal(t, float64(1_700_000_000_123), p.NowF64())
}

func TestPlatform_LogFlushesLongLines(t *testing.T) {
	p := newTestPlatform(t)
	line := make([]byte, maxLogLine)
	for i := range line {
		line[i] = 'x'
	}
	m := memory.NewBytes(uint32(len(line)))
	require.NoError(t, m.Write(0, line))

	p.LogWrite(m, 0, uint32(len(line)))
	assert.Zero(t, p.logLines.Load())
	p.LogWrite(m, 0, 1)
	assert.Equal(t, uint64(1), p.logLines.Load())
	assert.Equal(t, 1, p.logBuf.Len())
}

func TestPlatform_RandomBytesOutOfRange(t *testing.T) {
	p := newTestPlatform(t)
	m := memory.NewBytes(64)

	p.RandomBytes(m, 16, 32)
	assert.Panics(t, func() { p.RandomBytes(m, 16, 0xFFFFFFFF) })
}

func TestErrnos_For(t *testing.T) {
	e := Errnos{OutOfMemory: 10, FileNotFound: 20, Unknown: 30}

	assert.Equal(t, uint32(20), e.For(storage.ErrNotFound))
	assert.Equal(t, uint32(20), e.For(errors.NotFound(errors.PhaseFetch, "asset", "x.png")))
	assert.Equal(t, uint32(10), e.For(errors.OutOfMemory(errors.PhaseRuntime, 16)))
	assert.Equal(t, uint32(30), e.For(errors.InvalidInput(errors.PhaseRuntime, "bad")))
}

func TestSessionID(t *testing.T) {
	now := time.Now()
	a, b := newSessionID(now), newSessionID(now)
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
}

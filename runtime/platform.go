package runtime

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	eventloop "github.com/joeycumines/go-eventloop"
	"github.com/oklog/ulid/v2"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wippyai/wasm-playhost/audio"
	"github.com/wippyai/wasm-playhost/bridge"
	"github.com/wippyai/wasm-playhost/clock"
	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/engine"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/fetch"
	"github.com/wippyai/wasm-playhost/gpu"
	"github.com/wippyai/wasm-playhost/input"
	"github.com/wippyai/wasm-playhost/resource"
	"github.com/wippyai/wasm-playhost/storage"
)

// Option configures a Platform.
type Option func(*Platform)

// WithDevice sets the GPU device of the display. The default records
// calls without rendering.
func WithDevice(d gpu.Device) Option {
	return func(p *Platform) { p.device = d }
}

// WithDeviceFactory sets how devices for module-created surfaces are made.
func WithDeviceFactory(f DeviceFactory) Option {
	return func(p *Platform) { p.devices = f }
}

// WithAudioEngine sets the audio backend. The default builds the graph
// silently.
func WithAudioEngine(e audio.Engine) Option {
	return func(p *Platform) { p.audioEngine = e }
}

// WithStore sets the file store instead of opening the configured one.
// The platform closes it.
func WithStore(s storage.Store) Option {
	return func(p *Platform) { p.store = s }
}

// WithFetcher sets the fetcher instead of building one from the assets
// configuration.
func WithFetcher(f *fetch.Fetcher) Option {
	return func(p *Platform) { p.fetcher = f }
}

// WithFrames sets the animation frame source. The default fires at the
// configured display frame rate.
func WithFrames(f clock.FrameScheduler) Option {
	return func(p *Platform) { p.frames = f }
}

// WithLogger overrides the package logger for one platform.
func WithLogger(l *zap.Logger) Option {
	return func(p *Platform) { p.logger = l }
}

// WithClock overrides the wall clock used for frames and now_f64.
func WithClock(now func() time.Time) Option {
	return func(p *Platform) { p.now = now }
}

// Platform hosts one guest module: it owns the event loop every module
// call runs on, the completion bridge, the simulation clock and the
// capability hosts the module imports.
type Platform struct {
	cfg         *config.Config
	engine      *engine.Engine
	loop        *eventloop.Loop
	bridge      *bridge.Bridge
	clock       atomic.Pointer[clock.Clock]
	frames      clock.FrameScheduler
	mod         *engine.Module
	gpu         *gpu.Host
	audio       *audio.Host
	audioEngine audio.Engine
	files       *storage.Host
	store       storage.Store
	fetch       *fetch.Host
	fetcher     *fetch.Fetcher
	input       *input.Translator
	device      gpu.Device
	devices     DeviceFactory
	display     *Surface
	surfaces    *resource.Registry[*Surface]
	sem         *semaphore.Weighted
	errnos      Errnos
	logger      *zap.Logger
	guest       *zap.Logger
	now         func() time.Time
	ctx         context.Context
	cancel      context.CancelFunc
	err         error
	id          string
	logBuf      strings.Builder
	workers     sync.WaitGroup
	textBufSize uint32
	current     uint32
	snapshot    atomic.Pointer[Stats]
	logLines    atomic.Uint64
	runCalled   atomic.Bool
	quitting    atomic.Bool
	stopped     atomic.Bool
	errMu       sync.Mutex
	closeOnce   sync.Once
}

// New creates a platform and registers its imports with a fresh engine.
// A nil cfg uses config.Defaults().
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Platform, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	p := &Platform{
		cfg:         cfg,
		logger:      Logger(),
		now:         time.Now,
		errnos:      DefaultErrnos,
		textBufSize: cfg.Input.TextBufferSize,
		id:          newSessionID(time.Now()),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(zap.String("session", p.id))
	p.guest = p.logger.Named("guest")

	if p.textBufSize == 0 {
		p.textBufSize = input.DefaultTextBufferSize
	}
	if p.device == nil {
		p.device = gpu.NewRecorder()
	}
	if p.devices == nil {
		p.devices = func(_, _ uint32) gpu.Device { return gpu.NewRecorder() }
	}
	if p.audioEngine == nil {
		p.audioEngine = audio.NewNullEngine()
	}
	if p.fetcher == nil {
		p.fetcher = fetch.FromConfig(cfg.Assets)
	}
	if p.store == nil {
		store, err := storage.Open(cfg.Storage)
		if err != nil {
			return nil, err
		}
		p.store = store
	}
	workers := cfg.Engine.Workers
	if workers <= 0 {
		workers = 1
	}
	p.sem = semaphore.NewWeighted(int64(workers))

	loop, err := eventloop.New()
	if err != nil {
		_ = p.store.Close()
		return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidState, err, "create event loop")
	}
	p.loop = loop
	if p.frames == nil {
		p.frames = &clock.TimerFrames{Queue: loop, Interval: cfg.Display.FrameInterval()}
	}
	p.bridge = bridge.New(bridge.FromLoop(loop), bridge.WithLogger(p.logger))
	p.bridge.OnIdle(func() {
		if p.quitting.Load() {
			p.shutdown(nil)
		}
	})

	t := &tasks{p: p}
	p.gpu = gpu.NewHost(p.device, gpu.WithHostLogger(p.logger))
	p.audio = audio.NewHost(p.audioEngine, t, p.fetcher.Fetch, audio.WithHostLogger(p.logger))
	p.files = storage.NewHost(p.store, t)
	p.fetch = fetch.NewHost(p.fetcher, t)
	p.display = &Surface{Device: p.device, Width: cfg.Display.Width, Height: cfg.Display.Height}
	p.surfaces = resource.New[*Surface](
		resource.WithName("surface"),
		resource.WithPolicy(resource.Retire),
		resource.WithReserved(reservedSurfaces))

	eng, err := engine.NewWithConfig(ctx, engine.FromConfig(cfg.Engine))
	if err != nil {
		_ = p.store.Close()
		_ = loop.Close()
		return nil, err
	}
	p.engine = eng

	hosts := eng.Hosts()
	for _, reg := range []error{
		hosts.RegisterHost(p.gpu),
		hosts.RegisterHost(p.audio),
		hosts.RegisterInto(Namespace, p),
		hosts.RegisterInto(Namespace, p.files),
		hosts.RegisterInto(Namespace, p.fetch),
	} {
		if reg != nil {
			_ = p.Close(ctx)
			return nil, reg
		}
	}
	return p, nil
}

func newSessionID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}

// ID returns the session id attached to every log line.
func (p *Platform) ID() string { return p.id }

// Engine returns the WebAssembly engine.
func (p *Platform) Engine() *engine.Engine { return p.engine }

// GPU returns the webgl2 host.
func (p *Platform) GPU() *gpu.Host { return p.gpu }

// Audio returns the audio host.
func (p *Platform) Audio() *audio.Host { return p.audio }

// Load instantiates the guest. Start functions run here, before the loop
// starts, so anything they schedule waits for Run.
func (p *Platform) Load(ctx context.Context, bin []byte, name string) error {
	if p.mod != nil {
		return errors.InvalidState(errors.PhaseLoad, "module already loaded")
	}
	mod, err := p.engine.Instantiate(ctx, bin, name)
	if err != nil {
		return err
	}
	if mod.Memory() == nil {
		_ = mod.Close(ctx)
		return &errors.MissingExport{Name: "memory", Kind: "memory"}
	}
	p.mod = mod
	p.errnos = LoadErrnos(mod)

	codes := input.LoadModuleCodes(mod.GlobalU16)
	p.input = input.NewTranslator(moduleSink{p: p},
		input.WithCodes(codes),
		input.WithTextBufferSize(int(p.textBufSize)))

	p.logger.Info("module loaded",
		zap.String("name", name),
		zap.Int("key_codes", codes.Len()),
		zap.Uint32("errno_unknown", p.errnos.Unknown))
	return nil
}

// Run calls the configured entry export on the loop and blocks until the
// module quits, a module call traps, or ctx is done. A module that never
// calls run and has nothing pending ends the session after its entry
// returns.
func (p *Platform) Run(ctx context.Context) error {
	if p.mod == nil {
		return errors.NotInitialized(errors.PhaseRuntime, "module")
	}
	p.ctx, p.cancel = context.WithCancel(ctx)
	defer p.cancel()

	entry := p.cfg.Engine.Entry
	if err := p.loop.Submit(func() { p.callEntry(entry) }); err != nil {
		return errors.Wrap(errors.PhaseRuntime, errors.KindInvalidState, err, "schedule entry")
	}

	err := p.loop.Run(p.ctx)
	p.stopped.Store(true)
	if c := p.clock.Load(); c != nil {
		c.Stop()
	}

	if ferr := p.failure(); ferr != nil {
		return ferr
	}
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return err
	}
	return ctx.Err()
}

func (p *Platform) callEntry(entry string) {
	if entry != "" {
		called, err := p.mod.CallOptional(p.ctx, entry)
		if err != nil {
			p.fail(errors.Wrap(errors.PhaseRuntime, errors.KindOperationFailed, err, entry))
			return
		}
		if !called {
			p.logger.Debug("entry export not found", zap.String("entry", entry))
		}
	}
	p.refreshSnapshot()
	if !p.runCalled.Load() && p.bridge.Pending() == 0 {
		p.logger.Info("module returned without starting the loop")
		p.shutdown(nil)
	}
}

// beginInit runs the module's on_init as a host-initiated operation and
// starts the clock when the module resolves it.
func (p *Platform) beginInit(cfg clock.Config) {
	c, err := clock.New(cfg, stepper{p: p})
	if err != nil {
		p.fail(err)
		return
	}
	f := p.bridge.Begin(p.ctx, "init", func(ctx context.Context, slot uint32) {
		called, err := p.mod.CallOptional(ctx, "on_init", uint64(slot))
		switch {
		case err != nil:
			_ = p.bridge.Reject(slot, err)
		case !called:
			_ = p.bridge.Resolve(slot, nil)
		}
	})
	f.Then(func(any) {
		if p.quitting.Load() {
			return
		}
		p.clock.Store(c)
		if err := c.Start(p.frames, p.now()); err != nil {
			p.fail(err)
			return
		}
		p.logger.Info("simulation started",
			zap.Duration("fixed_step", cfg.FixedStep),
			zap.Duration("max_delta", cfg.MaxDelta))
	}, func(err error) {
		p.fail(errors.Wrap(errors.PhaseRuntime, errors.KindOperationFailed, err, "init"))
	})
}

// stepper forwards clock callbacks to the module.
type stepper struct {
	p *Platform
}

func (s stepper) Update(simTime, step time.Duration) {
	s.p.callFrame("update", simTime.Seconds(), step.Seconds())
}

func (s stepper) Render(alpha float64) {
	s.p.callFrame("render", alpha)
	s.p.refreshSnapshot()
}

func (p *Platform) callFrame(name string, args ...float64) {
	if p.stopped.Load() {
		return
	}
	params := make([]uint64, len(args))
	for i, a := range args {
		params[i] = api.EncodeF64(a)
	}
	if _, err := p.mod.Call(p.ctx, name, params...); err != nil {
		p.fail(errors.Wrap(errors.PhaseClock, errors.KindOperationFailed, err, name))
	}
}

// fail records the first fatal error and ends the session.
func (p *Platform) fail(err error) {
	p.errMu.Lock()
	if p.err == nil {
		p.err = err
	}
	p.errMu.Unlock()
	p.logger.Error("session failed", zap.Error(err))
	p.shutdown(err)
}

func (p *Platform) failure() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

// shutdown stops the clock and terminates the loop once queued tasks
// drain. It is safe to call from the loop.
func (p *Platform) shutdown(err error) {
	if !p.stopped.CompareAndSwap(false, true) {
		return
	}
	if c := p.clock.Load(); c != nil {
		c.Stop()
	}
	p.logger.Debug("shutting down", zap.Error(err))
	go func() {
		_ = p.loop.Shutdown(context.Background())
	}()
}

// Close releases everything the platform owns. It waits for worker
// goroutines, so call it after Run returns.
func (p *Platform) Close(ctx context.Context) error {
	var errs []error
	p.closeOnce.Do(func() {
		p.stopped.Store(true)
		if p.cancel != nil {
			p.cancel()
		}
		p.workers.Wait()
		if p.loop != nil {
			_ = p.loop.Close()
		}
		if p.gpu != nil {
			errs = append(errs, p.gpu.Close())
		}
		if p.audio != nil {
			errs = append(errs, p.audio.Close())
		}
		if p.surfaces != nil {
			errs = append(errs, p.surfaces.Close())
		}
		if p.store != nil {
			errs = append(errs, p.store.Close())
		}
		if p.engine != nil {
			errs = append(errs, p.engine.Close(ctx))
		}
	})
	return stderrors.Join(errs...)
}

// Do runs fn on the loop with the module and waits for it. It is meant
// for tools and tests that need to inspect module state.
func (p *Platform) Do(ctx context.Context, fn func(mod *engine.Module)) error {
	done := make(chan struct{})
	if err := p.loop.Submit(func() {
		defer close(done)
		fn(p.mod)
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package engine

import (
	"context"
	"crypto/rand"
	"io"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/errors"
)

// Config configures the WebAssembly runtime.
type Config struct {
	// MemoryLimitPages caps module memory in 64 KiB pages. 0 keeps the
	// wazero default of 65536 pages.
	MemoryLimitPages uint32
	// WASI instantiates wasi_snapshot_preview1 before the module.
	WASI bool
	// Stdout and Stderr receive WASI output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// FromConfig maps the engine section of the host configuration.
func FromConfig(c config.EngineConfig) *Config {
	return &Config{MemoryLimitPages: c.MemoryLimitPages, WASI: c.WASI}
}

// Engine owns one wazero runtime and the host functions bound into it.
type Engine struct {
	runtime wazero.Runtime
	hosts   *HostRegistry
	cfg     Config
	bound   bool
	mu      sync.Mutex
}

// New creates an engine with default settings.
func New(ctx context.Context) (*Engine, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates an engine. A nil cfg uses defaults.
func NewWithConfig(ctx context.Context, cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	rc := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	r := wazero.NewRuntimeWithConfig(ctx, rc)

	if cfg.WASI {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			_ = r.Close(ctx)
			return nil, errors.Wrap(errors.PhaseHost, errors.KindInstantiation, err, "instantiate WASI")
		}
	}

	Logger().Debug("engine created",
		zap.Uint32("memory_limit_pages", cfg.MemoryLimitPages),
		zap.Bool("wasi", cfg.WASI))

	return &Engine{
		runtime: r,
		hosts:   NewHostRegistry(),
		cfg:     *cfg,
	}, nil
}

// Runtime returns the underlying wazero runtime.
func (e *Engine) Runtime() wazero.Runtime { return e.runtime }

// Hosts returns the registry whose functions are bound on the first
// instantiation.
func (e *Engine) Hosts() *HostRegistry { return e.hosts }

// Compile validates and compiles a module binary.
func (e *Engine) Compile(ctx context.Context, bin []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}
	return compiled, nil
}

// Instantiate compiles bin, binds the registered host functions if that
// has not happened yet, and instantiates the module under name. The
// reactor and command start functions, _initialize and _start, run when
// exported.
func (e *Engine) Instantiate(ctx context.Context, bin []byte, name string) (*Module, error) {
	compiled, err := e.Compile(ctx, bin)
	if err != nil {
		return nil, err
	}
	if err := e.bind(ctx); err != nil {
		return nil, err
	}

	mc := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize", "_start").
		WithRandSource(rand.Reader).
		WithSysWalltime().
		WithSysNanotime()
	if e.cfg.Stdout != nil {
		mc = mc.WithStdout(e.cfg.Stdout)
	}
	if e.cfg.Stderr != nil {
		mc = mc.WithStderr(e.cfg.Stderr)
	}

	mod, err := e.runtime.InstantiateModule(ctx, compiled, mc)
	if err != nil {
		return nil, errors.Instantiation(err)
	}

	Logger().Debug("module instantiated",
		zap.String("name", name),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return newModule(mod), nil
}

func (e *Engine) bind(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bound {
		return nil
	}
	if err := e.hosts.Bind(ctx, e.runtime); err != nil {
		return err
	}
	e.bound = true
	return nil
}

// Close releases the runtime and every module instantiated in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

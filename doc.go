// Package playhost runs a sandboxed WebAssembly game module and bridges it
// to host subsystems: rendering, audio, file persistence, network fetch,
// keyboard input and a fixed-timestep simulation clock.
//
// The module never sees host objects. Every resource it manipulates is
// addressed through small integer handles that the host allocates, tracks
// and reclaims, and every value crosses the boundary as integers, floats,
// or (pointer, length) pairs into the module's linear memory.
//
// # Architecture Overview
//
//	playhost/            Root package with Memory and Allocator interfaces
//	├── runtime/         Platform: event loop, playhost imports, guest exports
//	├── engine/          wazero compile, host-module binding, instantiation
//	├── bridge/          Slot-keyed asynchronous completion with futures
//	├── clock/           Fixed-timestep simulation with render interpolation
//	├── input/           Key and scancode translation, text input, focus
//	├── memory/          Linear memory adapters and string/array marshaling
//	├── resource/        Per-category handle registries
//	├── gpu/             webgl2 import forwarders over a Device
//	├── audio/           audio import forwarders over an Engine
//	├── storage/         File persistence (directory or SQLite)
//	├── fetch/           HTTP and asset fetching
//	├── config/          YAML configuration
//	├── tracing/         OpenTelemetry setup
//	├── errors/          Structured error types
//	└── cmd/run/         Headless runner and terminal player
//
// # Quick Start
//
//	cfg := config.Defaults()
//	p, err := runtime.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close(ctx)
//
//	if err := p.Load(ctx, wasmBytes, "game"); err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run returns after the module calls quit and every in-flight operation
// has settled, or when ctx is cancelled.
package playhost

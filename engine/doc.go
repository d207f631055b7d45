// Package engine runs guest modules on wazero.
//
// An Engine owns one wazero runtime. Host functions are collected in its
// HostRegistry, one import module per namespace, and bound into the
// runtime the first time a module is instantiated:
//
//	eng, _ := engine.NewWithConfig(ctx, &engine.Config{WASI: true})
//	_ = eng.Hosts().RegisterHost(gpuHost)             // "webgl2"
//	_ = eng.Hosts().RegisterInto("playhost", storage) // shared namespace
//	mod, err := eng.Instantiate(ctx, bin, "game")
//
// Registered values are plain Go functions. wazero derives the import
// signature from the parameter list, so a host method such as
//
//	func (h *Host) Viewport(x, y int32, w, h uint32)
//
// can be registered directly, while functions that touch linear memory
// take (context.Context, api.Module, ...) and re-wrap mod.Memory() on
// every call.
//
// # Module conventions
//
// Module wraps the instance with the lookups the host relies on:
// exported i32 globals that hold the address of a constant
// (GlobalU32, GlobalU16) and error names served by the
// error_name_ptr/error_name_len exports (ErrorName). Module is not safe
// for concurrent use; all calls happen on the host event loop.
package engine

package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
	"github.com/wippyai/wasm-playhost/memory"
)

// Export names with fixed meaning.
const (
	ExportMemory       = "memory"
	ExportAlloc        = "alloc"
	ExportErrorNamePtr = "error_name_ptr"
	ExportErrorNameLen = "error_name_len"
)

// Module is an instantiated guest.
type Module struct {
	mod   api.Module
	funcs map[string]api.Function
}

func newModule(mod api.Module) *Module {
	return &Module{mod: mod, funcs: make(map[string]api.Function)}
}

// Wrap adopts an api.Module instantiated elsewhere.
func Wrap(mod api.Module) *Module { return newModule(mod) }

// Name returns the instance name.
func (m *Module) Name() string { return m.mod.Name() }

// API returns the underlying wazero module.
func (m *Module) API() api.Module { return m.mod }

// Memory returns a fresh view of linear memory, or nil when the module
// exports none. Views must not be kept across calls into the module.
func (m *Module) Memory() *memory.Wrapper {
	return memory.Wrap(m.mod.Memory())
}

// Function returns the exported function name, or nil.
func (m *Module) Function(name string) api.Function {
	if fn, ok := m.funcs[name]; ok {
		return fn
	}
	fn := m.mod.ExportedFunction(name)
	if fn != nil {
		m.funcs[name] = fn
	}
	return fn
}

// Has reports whether name is an exported function.
func (m *Module) Has(name string) bool { return m.Function(name) != nil }

// Call invokes an exported function. A missing export is a
// *errors.MissingExport.
func (m *Module) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := m.Function(name)
	if fn == nil {
		return nil, &errors.MissingExport{Name: name, Kind: "function"}
	}
	return fn.Call(ctx, params...)
}

// CallOptional invokes name when exported and reports whether it was.
func (m *Module) CallOptional(ctx context.Context, name string, params ...uint64) (bool, error) {
	fn := m.Function(name)
	if fn == nil {
		return false, nil
	}
	_, err := fn.Call(ctx, params...)
	return true, err
}

// Allocator returns the module's alloc export as an allocator bound to
// ctx, or nil when the module has none.
func (m *Module) Allocator(ctx context.Context) playhost.Allocator {
	return memory.WrapAllocator(ctx, m.Function(ExportAlloc))
}

// GlobalAddress returns the value of an exported i32 global, which by
// convention holds the address of a constant in linear memory.
func (m *Module) GlobalAddress(name string) (uint32, bool) {
	g := m.mod.ExportedGlobal(name)
	if g == nil || g.Type() != api.ValueTypeI32 {
		return 0, false
	}
	return api.DecodeU32(g.Get()), true
}

// GlobalU32 reads the u32 constant the exported global name points at.
func (m *Module) GlobalU32(name string) (uint32, bool) {
	addr, ok := m.GlobalAddress(name)
	if !ok {
		return 0, false
	}
	mem := m.Memory()
	if mem == nil {
		return 0, false
	}
	v, err := mem.ReadU32(addr)
	return v, err == nil
}

// GlobalU16 reads the u16 constant the exported global name points at.
// Enumeration tags such as KEYCODE_* and SCANCODE_* use this width.
func (m *Module) GlobalU16(name string) (uint32, bool) {
	addr, ok := m.GlobalAddress(name)
	if !ok {
		return 0, false
	}
	mem := m.Memory()
	if mem == nil {
		return 0, false
	}
	v, err := mem.ReadU16(addr)
	return uint32(v), err == nil
}

// ErrorName asks the module for the name of its error code. It returns
// an empty string when the module does not export the name functions or
// the lookup fails.
func (m *Module) ErrorName(ctx context.Context, code uint32) string {
	ptrFn, lenFn := m.Function(ExportErrorNamePtr), m.Function(ExportErrorNameLen)
	if ptrFn == nil || lenFn == nil {
		return ""
	}
	ptr, err := ptrFn.Call(ctx, uint64(code))
	if err != nil || len(ptr) == 0 {
		return ""
	}
	n, err := lenFn.Call(ctx, uint64(code))
	if err != nil || len(n) == 0 {
		return ""
	}
	mem := m.Memory()
	if mem == nil {
		return ""
	}
	name, err := memory.ReadString(mem, uint32(ptr[0]), uint32(n[0]))
	if err != nil {
		return ""
	}
	return name
}

// ModuleError builds the error for code with its name resolved.
func (m *Module) ModuleError(ctx context.Context, code uint32) *errors.ModuleError {
	return &errors.ModuleError{Code: code, Name: m.ErrorName(ctx, code)}
}

// Close closes the instance.
func (m *Module) Close(ctx context.Context) error {
	return m.mod.Close(ctx)
}

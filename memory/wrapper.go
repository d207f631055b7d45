package memory

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
)

// Wrap wraps a wazero api.Memory to implement playhost.Memory.
func Wrap(mem api.Memory) *Wrapper {
	if mem == nil {
		return nil
	}
	return &Wrapper{Mem: mem}
}

// WrapAllocator wraps the module's exported alloc function.
func WrapAllocator(ctx context.Context, fn api.Function) playhost.Allocator {
	if fn == nil {
		return nil
	}
	return &AllocatorWrapper{Ctx: ctx, Fn: fn}
}

// Wrapper adapts wazero api.Memory to the playhost.Memory interface.
type Wrapper struct {
	Mem api.Memory
}

var (
	_ playhost.Memory      = (*Wrapper)(nil)
	_ playhost.MemorySizer = (*Wrapper)(nil)
)

func (m *Wrapper) oob(offset, length uint32) error {
	return errors.OutOfBounds(errors.PhaseMemory, offset, length, m.Mem.Size())
}

// Size returns the current memory size in bytes.
func (m *Wrapper) Size() uint32 {
	return m.Mem.Size()
}

// Read copies length bytes starting at offset.
func (m *Wrapper) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.Mem.Read(offset, length)
	if !ok {
		return nil, m.oob(offset, length)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write writes bytes to memory.
func (m *Wrapper) Write(offset uint32, data []byte) error {
	if !m.Mem.Write(offset, data) {
		return m.oob(offset, uint32(len(data)))
	}
	return nil
}

// ReadU8 reads an unsigned 8-bit value.
func (m *Wrapper) ReadU8(offset uint32) (uint8, error) {
	v, ok := m.Mem.ReadByte(offset)
	if !ok {
		return 0, m.oob(offset, 1)
	}
	return v, nil
}

// ReadU16 reads an unsigned 16-bit little-endian value.
func (m *Wrapper) ReadU16(offset uint32) (uint16, error) {
	v, ok := m.Mem.ReadUint16Le(offset)
	if !ok {
		return 0, m.oob(offset, 2)
	}
	return v, nil
}

// ReadU32 reads an unsigned 32-bit little-endian value.
func (m *Wrapper) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.Mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.oob(offset, 4)
	}
	return v, nil
}

// ReadU64 reads an unsigned 64-bit little-endian value.
func (m *Wrapper) ReadU64(offset uint32) (uint64, error) {
	v, ok := m.Mem.ReadUint64Le(offset)
	if !ok {
		return 0, m.oob(offset, 8)
	}
	return v, nil
}

// ReadF32 reads a little-endian IEEE 754 float32.
func (m *Wrapper) ReadF32(offset uint32) (float32, error) {
	v, ok := m.Mem.ReadFloat32Le(offset)
	if !ok {
		return 0, m.oob(offset, 4)
	}
	return v, nil
}

// ReadF64 reads a little-endian IEEE 754 float64.
func (m *Wrapper) ReadF64(offset uint32) (float64, error) {
	v, ok := m.Mem.ReadFloat64Le(offset)
	if !ok {
		return 0, m.oob(offset, 8)
	}
	return v, nil
}

// WriteU8 writes an unsigned 8-bit value.
func (m *Wrapper) WriteU8(offset uint32, value uint8) error {
	if !m.Mem.WriteByte(offset, value) {
		return m.oob(offset, 1)
	}
	return nil
}

// WriteU16 writes an unsigned 16-bit little-endian value.
func (m *Wrapper) WriteU16(offset uint32, value uint16) error {
	if !m.Mem.WriteUint16Le(offset, value) {
		return m.oob(offset, 2)
	}
	return nil
}

// WriteU32 writes an unsigned 32-bit little-endian value.
func (m *Wrapper) WriteU32(offset uint32, value uint32) error {
	if !m.Mem.WriteUint32Le(offset, value) {
		return m.oob(offset, 4)
	}
	return nil
}

// WriteU64 writes an unsigned 64-bit little-endian value.
func (m *Wrapper) WriteU64(offset uint32, value uint64) error {
	if !m.Mem.WriteUint64Le(offset, value) {
		return m.oob(offset, 8)
	}
	return nil
}

// WriteF32 writes a little-endian IEEE 754 float32.
func (m *Wrapper) WriteF32(offset uint32, value float32) error {
	if !m.Mem.WriteFloat32Le(offset, value) {
		return m.oob(offset, 4)
	}
	return nil
}

// WriteF64 writes a little-endian IEEE 754 float64.
func (m *Wrapper) WriteF64(offset uint32, value float64) error {
	if !m.Mem.WriteFloat64Le(offset, value) {
		return m.oob(offset, 8)
	}
	return nil
}

// AllocatorWrapper adapts the module's alloc(size) -> ptr export to
// playhost.Allocator.
type AllocatorWrapper struct {
	Ctx context.Context
	Fn  api.Function
}

// Alloc asks the module for size bytes. A zero pointer is returned as is;
// callers decide whether that is an out-of-memory condition.
func (a *AllocatorWrapper) Alloc(size uint32) (uint32, error) {
	results, err := a.Fn.Call(a.Ctx, uint64(size))
	if err != nil {
		return 0, fmt.Errorf("allocation failed: %w", err)
	}
	if len(results) == 0 {
		return 0, fmt.Errorf("allocation returned no result")
	}
	return uint32(results[0]), nil
}

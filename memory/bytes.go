package memory

import (
	"encoding/binary"
	"math"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
)

// PageSize is the WebAssembly page size in bytes.
const PageSize = 65536

// Bytes is a slice-backed linear memory. Grow replaces the backing array,
// which is exactly the hazard host code has to tolerate with real module
// memory, so tests exercise the same re-resolution discipline.
type Bytes struct {
	buf []byte
}

var (
	_ playhost.Memory      = (*Bytes)(nil)
	_ playhost.MemorySizer = (*Bytes)(nil)
)

// NewBytes creates a zeroed memory of the given size.
func NewBytes(size uint32) *Bytes {
	return &Bytes{buf: make([]byte, size)}
}

// Grow extends memory by delta pages and returns the previous page count.
func (m *Bytes) Grow(delta uint32) uint32 {
	prev := uint32(len(m.buf)) / PageSize
	next := make([]byte, len(m.buf)+int(delta)*PageSize)
	copy(next, m.buf)
	m.buf = next
	return prev
}

// Size returns the memory size in bytes.
func (m *Bytes) Size() uint32 {
	return uint32(len(m.buf))
}

func (m *Bytes) span(offset, length uint32) ([]byte, error) {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.buf)) {
		return nil, errors.OutOfBounds(errors.PhaseMemory, offset, length, uint32(len(m.buf)))
	}
	return m.buf[offset:end], nil
}

func (m *Bytes) Read(offset, length uint32) ([]byte, error) {
	b, err := m.span(offset, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Bytes) Write(offset uint32, data []byte) error {
	b, err := m.span(offset, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(b, data)
	return nil
}

func (m *Bytes) ReadU8(offset uint32) (uint8, error) {
	b, err := m.span(offset, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Bytes) ReadU16(offset uint32) (uint16, error) {
	b, err := m.span(offset, 2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *Bytes) ReadU32(offset uint32) (uint32, error) {
	b, err := m.span(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Bytes) ReadU64(offset uint32) (uint64, error) {
	b, err := m.span(offset, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Bytes) ReadF32(offset uint32) (float32, error) {
	v, err := m.ReadU32(offset)
	return math.Float32frombits(v), err
}

func (m *Bytes) ReadF64(offset uint32) (float64, error) {
	v, err := m.ReadU64(offset)
	return math.Float64frombits(v), err
}

func (m *Bytes) WriteU8(offset uint32, value uint8) error {
	b, err := m.span(offset, 1)
	if err != nil {
		return err
	}
	b[0] = value
	return nil
}

func (m *Bytes) WriteU16(offset uint32, value uint16) error {
	b, err := m.span(offset, 2)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b, value)
	return nil
}

func (m *Bytes) WriteU32(offset uint32, value uint32) error {
	b, err := m.span(offset, 4)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b, value)
	return nil
}

func (m *Bytes) WriteU64(offset uint32, value uint64) error {
	b, err := m.span(offset, 8)
	if err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b, value)
	return nil
}

func (m *Bytes) WriteF32(offset uint32, value float32) error {
	return m.WriteU32(offset, math.Float32bits(value))
}

func (m *Bytes) WriteF64(offset uint32, value float64) error {
	return m.WriteU64(offset, math.Float64bits(value))
}

// BumpAllocator hands out consecutive 8-byte aligned buffers from a
// fixed region of a memory. It reports out-of-memory with a zero
// pointer, like a module allocator.
type BumpAllocator struct {
	Next  uint32
	Limit uint32
}

// Alloc implements playhost.Allocator.
func (a *BumpAllocator) Alloc(size uint32) (uint32, error) {
	ptr := (a.Next + 7) &^ 7
	if ptr == 0 || uint64(ptr)+uint64(size) > uint64(a.Limit) {
		return 0, nil
	}
	a.Next = ptr + size
	return ptr, nil
}

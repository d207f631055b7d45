package memory

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"

	playhost "github.com/wippyai/wasm-playhost"
	"github.com/wippyai/wasm-playhost/errors"
)

// ReadBytes copies length bytes at ptr.
func ReadBytes(m playhost.Memory, ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	return m.Read(ptr, length)
}

// ReadString decodes length bytes at ptr as UTF-8. Invalid sequences are
// replaced with U+FFFD rather than rejected, matching how browsers decode
// module strings.
func ReadString(m playhost.Memory, ptr, length uint32) (string, error) {
	if length == 0 {
		return "", nil
	}
	b, err := m.Read(ptr, length)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return string(bytes.ToValidUTF8(b, []byte("\uFFFD"))), nil
	}
	return string(b), nil
}

// ReadCString reads a NUL-terminated string at ptr, scanning at most max
// bytes. A string without a terminator inside max bytes is an error.
func ReadCString(m playhost.Memory, ptr, max uint32) (string, error) {
	for i := uint32(0); i < max; i++ {
		c, err := m.ReadU8(ptr + i)
		if err != nil {
			return "", err
		}
		if c == 0 {
			return ReadString(m, ptr, i)
		}
	}
	return "", errors.InvalidData(errors.PhaseMemory, nil, "string is not NUL-terminated")
}

// ReadStrings gathers count strings described by parallel arrays of
// pointers and lengths (u32 each).
func ReadStrings(m playhost.Memory, ptrsPtr, lensPtr, count uint32) ([]string, error) {
	ptrs, err := ReadU32s(m, ptrsPtr, count)
	if err != nil {
		return nil, err
	}
	lens, err := ReadU32s(m, lensPtr, count)
	if err != nil {
		return nil, err
	}
	out := make([]string, count)
	for i := range out {
		out[i], err = ReadString(m, ptrs[i], lens[i])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteCString writes s into a buffer of capacity bytes at ptr. The text is
// truncated to capacity-1 bytes and always NUL-terminated. When lenOutPtr
// is non-zero the number of bytes written (excluding the terminator) is
// stored there as u32. A zero capacity writes nothing.
func WriteCString(m playhost.Memory, ptr, capacity, lenOutPtr uint32, s string) (uint32, error) {
	if capacity == 0 {
		if lenOutPtr != 0 {
			return 0, m.WriteU32(lenOutPtr, 0)
		}
		return 0, nil
	}
	n := uint32(len(s))
	if n > capacity-1 {
		n = capacity - 1
	}
	buf := make([]byte, n+1)
	copy(buf, s[:n])
	if err := m.Write(ptr, buf); err != nil {
		return 0, err
	}
	if lenOutPtr != 0 {
		if err := m.WriteU32(lenOutPtr, n); err != nil {
			return 0, err
		}
	}
	return n, nil
}

// Span returns the byte length of count elements of elemSize bytes at
// ptr. It fails with OutOfBounds when the length does not fit in u32 or,
// for memories that report their size, when the range ends past it.
func Span(m playhost.Memory, ptr, count, elemSize uint32) (uint32, error) {
	n := uint64(count) * uint64(elemSize)
	limit := uint64(math.MaxUint32) + 1
	if s, ok := m.(playhost.MemorySizer); ok {
		limit = uint64(s.Size())
	}
	if n > math.MaxUint32 || uint64(ptr)+n > limit {
		size := uint32(min(limit, math.MaxUint32))
		return 0, errors.OutOfBounds(errors.PhaseMemory, ptr, uint32(min(n, math.MaxUint32)), size)
	}
	return uint32(n), nil
}

func readWords(m playhost.Memory, ptr, count uint32) ([]byte, error) {
	n, err := Span(m, ptr, count, 4)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return m.Read(ptr, n)
}

// ReadU32s reads count little-endian u32 values.
func ReadU32s(m playhost.Memory, ptr, count uint32) ([]uint32, error) {
	b, err := readWords(m, ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, count)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out, nil
}

// WriteU32s writes values as consecutive little-endian u32. Nothing is
// written when the range does not fit.
func WriteU32s(m playhost.Memory, ptr uint32, values []uint32) error {
	if len(values) > math.MaxUint32/4 {
		return errors.OutOfBounds(errors.PhaseMemory, ptr, math.MaxUint32, 0)
	}
	if _, err := Span(m, ptr, uint32(len(values)), 4); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(values)*4)
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return m.Write(ptr, buf)
}

// ReadF32s reads count little-endian float32 values.
func ReadF32s(m playhost.Memory, ptr, count uint32) ([]float32, error) {
	b, err := readWords(m, ptr, count)
	if err != nil {
		return nil, err
	}
	out := make([]float32, count)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// ReadI32 reads a signed 32-bit value.
func ReadI32(m playhost.Memory, ptr uint32) (int32, error) {
	v, err := m.ReadU32(ptr)
	return int32(v), err
}

// WriteI32 writes a signed 32-bit value, skipping a zero pointer.
func WriteI32(m playhost.Memory, ptr uint32, v int32) error {
	if ptr == 0 {
		return nil
	}
	return m.WriteU32(ptr, uint32(v))
}

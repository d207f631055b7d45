package wasmtest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// writer accumulates WebAssembly binary encodings.
type writer struct {
	buf bytes.Buffer
}

func (w *writer) byte(b byte) { w.buf.WriteByte(b) }

func (w *writer) raw(b []byte) { w.buf.Write(b) }

// u32 writes an unsigned LEB128 value.
func (w *writer) u32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if v == 0 {
			return
		}
	}
}

// s32 writes a signed LEB128 value.
func (w *writer) s32(v int32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		w.buf.WriteByte(b)
		if done {
			return
		}
	}
}

func (w *writer) name(s string) {
	w.u32(uint32(len(s)))
	w.buf.WriteString(s)
}

func (w *writer) vec(b []byte) {
	w.u32(uint32(len(b)))
	w.buf.Write(b)
}

func (w *writer) section(id byte, body *writer) {
	w.byte(id)
	w.vec(body.buf.Bytes())
}

func (w *writer) bytes() []byte { return w.buf.Bytes() }

func uleb(v uint32) []byte {
	var w writer
	w.u32(v)
	return w.bytes()
}

func sleb(v int32) []byte {
	var w writer
	w.s32(v)
	return w.bytes()
}

func f32le(v float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
	return b[:]
}

func f64le(v float64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	return b[:]
}

package wasmtest

const (
	opUnreachable = 0x00
	opIf          = 0x04
	opElse        = 0x05
	opEnd         = 0x0b
	opReturn      = 0x0f
	opCall        = 0x10
	opDrop        = 0x1a
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opI32Load     = 0x28
	opF64Load     = 0x2b
	opI32Load8U   = 0x2d
	opI32Store    = 0x36
	opF64Store    = 0x39
	opI32Store8   = 0x3a
	opI32Const    = 0x41
	opF32Const    = 0x43
	opF64Const    = 0x44
	opI32Eqz      = 0x45
	opI32GeU      = 0x4f
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
)

func op(code byte, imm ...[]byte) []byte {
	out := []byte{code}
	for _, b := range imm {
		out = append(out, b...)
	}
	return out
}

func memarg(align, offset uint32) []byte {
	return append(uleb(align), uleb(offset)...)
}

func Unreachable() []byte          { return op(opUnreachable) }
func Return() []byte               { return op(opReturn) }
func Drop() []byte                 { return op(opDrop) }
func Call(fn uint32) []byte        { return op(opCall, uleb(fn)) }
func LocalGet(idx uint32) []byte   { return op(opLocalGet, uleb(idx)) }
func LocalSet(idx uint32) []byte   { return op(opLocalSet, uleb(idx)) }
func GlobalGet(idx uint32) []byte  { return op(opGlobalGet, uleb(idx)) }
func I32Const(v int32) []byte      { return op(opI32Const, sleb(v)) }
func F32Const(v float32) []byte    { return op(opF32Const, f32le(v)) }
func F64Const(v float64) []byte    { return op(opF64Const, f64le(v)) }
func I32Eqz() []byte               { return op(opI32Eqz) }
func I32GeU() []byte               { return op(opI32GeU) }
func I32Add() []byte               { return op(opI32Add) }
func I32Sub() []byte               { return op(opI32Sub) }
func I32Load(offset uint32) []byte { return op(opI32Load, memarg(2, offset)) }
func F64Load(offset uint32) []byte { return op(opF64Load, memarg(3, offset)) }

// I32Load8U loads one byte, zero-extended.
func I32Load8U(offset uint32) []byte { return op(opI32Load8U, memarg(0, offset)) }

// I32Store pops value and address; offset is added to the address.
func I32Store(offset uint32) []byte  { return op(opI32Store, memarg(2, offset)) }
func F64Store(offset uint32) []byte  { return op(opF64Store, memarg(3, offset)) }
func I32Store8(offset uint32) []byte { return op(opI32Store8, memarg(0, offset)) }

// If opens a block without results; close it with End.
func If() []byte   { return op(opIf, []byte{0x40}) }
func Else() []byte { return op(opElse) }
func End() []byte  { return op(opEnd) }

// Store32 writes the constant v at the absolute address addr.
func Store32(addr uint32, v int32) []byte {
	return concat(I32Const(int32(addr)), I32Const(v), I32Store(0))
}

// Increment adds one to the i32 at addr.
func Increment(addr uint32) []byte {
	return concat(I32Const(int32(addr)), I32Const(int32(addr)), I32Load(0), I32Const(1), I32Add(), I32Store(0))
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

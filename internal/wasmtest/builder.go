// Package wasmtest assembles small core WebAssembly modules for tests.
//
// The builder covers exactly what guest fixtures need: function imports,
// one exported memory, immutable i32 globals, active data segments and
// exported functions with hand-written bodies.
//
//	b := wasmtest.New()
//	run := b.Import("playhost", "run", wasmtest.Sig(wasmtest.F64, wasmtest.F64))
//	b.Memory(1)
//	b.Export("main", b.Func(wasmtest.Sig(), nil,
//		wasmtest.F64Const(0.25), wasmtest.F64Const(0.01), wasmtest.Call(run)))
//	bin := b.Bytes()
package wasmtest

import "fmt"

// ValType is a core value type.
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
	F32 ValType = 0x7d
	F64 ValType = 0x7c
)

const (
	secType     = 1
	secImport   = 2
	secFunction = 3
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secCode     = 10
	secData     = 11

	kindFunc   = 0x00
	kindMemory = 0x02
	kindGlobal = 0x03
)

// Signature is a function type.
type Signature struct {
	Params  []ValType
	Results []ValType
}

// Sig builds a signature without results.
func Sig(params ...ValType) Signature { return Signature{Params: params} }

// Returns adds results to s.
func (s Signature) Returns(results ...ValType) Signature {
	s.Results = results
	return s
}

func (s Signature) key() string { return fmt.Sprintf("%v>%v", s.Params, s.Results) }

type importFunc struct {
	module, name string
	typ          uint32
}

type function struct {
	typ    uint32
	locals []ValType
	body   []byte
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type global struct {
	value int32
}

type segment struct {
	offset uint32
	data   []byte
}

// Builder accumulates module sections.
type Builder struct {
	types    []Signature
	typeIdx  map[string]uint32
	imports  []importFunc
	funcs    []function
	globals  []global
	exports  []export
	data     []segment
	memPages uint32
	hasMem   bool
}

// New returns an empty builder.
func New() *Builder {
	return &Builder{typeIdx: make(map[string]uint32)}
}

func (b *Builder) typeOf(s Signature) uint32 {
	if idx, ok := b.typeIdx[s.key()]; ok {
		return idx
	}
	idx := uint32(len(b.types))
	b.types = append(b.types, s)
	b.typeIdx[s.key()] = idx
	return idx
}

// Import declares a function import and returns its function index.
// All imports must be declared before the first Func.
func (b *Builder) Import(module, name string, sig Signature) uint32 {
	if len(b.funcs) > 0 {
		panic("wasmtest: Import after Func shifts function indices")
	}
	b.imports = append(b.imports, importFunc{module: module, name: name, typ: b.typeOf(sig)})
	return uint32(len(b.imports) - 1)
}

// Func defines a function and returns its index. The terminating end
// opcode is appended.
func (b *Builder) Func(sig Signature, locals []ValType, code ...[]byte) uint32 {
	var body []byte
	for _, c := range code {
		body = append(body, c...)
	}
	body = append(body, opEnd)
	b.funcs = append(b.funcs, function{typ: b.typeOf(sig), locals: locals, body: body})
	return uint32(len(b.imports) + len(b.funcs) - 1)
}

// Export exports function idx as name.
func (b *Builder) Export(name string, idx uint32) {
	b.exports = append(b.exports, export{name: name, kind: kindFunc, idx: idx})
}

// Memory declares the module memory with the given page count and
// exports it as "memory".
func (b *Builder) Memory(pages uint32) {
	b.hasMem = true
	b.memPages = pages
	b.exports = append(b.exports, export{name: "memory", kind: kindMemory})
}

// Global exports an immutable i32 global.
func (b *Builder) Global(name string, value int32) {
	b.globals = append(b.globals, global{value: value})
	b.exports = append(b.exports, export{name: name, kind: kindGlobal, idx: uint32(len(b.globals) - 1)})
}

// Data places bytes at offset when the module is instantiated.
func (b *Builder) Data(offset uint32, data []byte) {
	b.data = append(b.data, segment{offset: offset, data: data})
}

// Bytes encodes the module.
func (b *Builder) Bytes() []byte {
	var w writer
	w.raw([]byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00})

	if len(b.types) > 0 {
		var sec writer
		sec.u32(uint32(len(b.types)))
		for _, t := range b.types {
			sec.byte(0x60)
			sec.u32(uint32(len(t.Params)))
			for _, p := range t.Params {
				sec.byte(byte(p))
			}
			sec.u32(uint32(len(t.Results)))
			for _, r := range t.Results {
				sec.byte(byte(r))
			}
		}
		w.section(secType, &sec)
	}

	if len(b.imports) > 0 {
		var sec writer
		sec.u32(uint32(len(b.imports)))
		for _, imp := range b.imports {
			sec.name(imp.module)
			sec.name(imp.name)
			sec.byte(kindFunc)
			sec.u32(imp.typ)
		}
		w.section(secImport, &sec)
	}

	if len(b.funcs) > 0 {
		var sec writer
		sec.u32(uint32(len(b.funcs)))
		for _, f := range b.funcs {
			sec.u32(f.typ)
		}
		w.section(secFunction, &sec)
	}

	if b.hasMem {
		var sec writer
		sec.u32(1)
		sec.byte(0x00)
		sec.u32(b.memPages)
		w.section(secMemory, &sec)
	}

	if len(b.globals) > 0 {
		var sec writer
		sec.u32(uint32(len(b.globals)))
		for _, g := range b.globals {
			sec.byte(byte(I32))
			sec.byte(0x00)
			sec.byte(opI32Const)
			sec.s32(g.value)
			sec.byte(opEnd)
		}
		w.section(secGlobal, &sec)
	}

	if len(b.exports) > 0 {
		var sec writer
		sec.u32(uint32(len(b.exports)))
		for _, e := range b.exports {
			sec.name(e.name)
			sec.byte(e.kind)
			sec.u32(e.idx)
		}
		w.section(secExport, &sec)
	}

	if len(b.funcs) > 0 {
		var sec writer
		sec.u32(uint32(len(b.funcs)))
		for _, f := range b.funcs {
			var fn writer
			fn.u32(uint32(len(f.locals)))
			for _, l := range f.locals {
				fn.u32(1)
				fn.byte(byte(l))
			}
			fn.raw(f.body)
			sec.vec(fn.bytes())
		}
		w.section(secCode, &sec)
	}

	if len(b.data) > 0 {
		var sec writer
		sec.u32(uint32(len(b.data)))
		for _, d := range b.data {
			sec.u32(0)
			sec.byte(opI32Const)
			sec.s32(int32(d.offset))
			sec.byte(opEnd)
			sec.vec(d.data)
		}
		w.section(secData, &sec)
	}

	return w.bytes()
}

// Package wasm models a WebAssembly binary module and its encoding.
//
// Only the sections the Luma compiler emits are supported: Type (1),
// Function (3), Memory (5), Export (7), and Code (10). Encode produces a
// byte-exact binary and Decode reverses it, validating the magic number,
// version, and section ordering.
package wasm

import "github.com/lumalang/luma/op"

// ValType is a WASM value type byte.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
	F32 ValType = 0x7D
	F64 ValType = 0x7C
)

// BlockVoid is the block type byte for a block producing no value.
const BlockVoid byte = 0x40

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	}
	return "invalid"
}

// IsValid reports whether v is one of the four value types.
func (v ValType) IsValid() bool {
	return v == I32 || v == I64 || v == F32 || v == F64
}

// FuncType is a function signature: parameter types and result types.
// The version 1 binary format allows at most one result.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (f FuncType) Equal(other FuncType) bool {
	if len(f.Params) != len(other.Params) || len(f.Results) != len(other.Results) {
		return false
	}
	for i, p := range f.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range f.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// Function is one entry in the function and code sections. Locals lists the
// declared locals beyond the parameters. Body holds the instruction bytes
// without the final end opcode, which Encode appends.
type Function struct {
	TypeIndex uint32
	Locals    []ValType
	Body      []byte
}

// Memory declares the module's linear memory limits, in 64 KiB pages.
type Memory struct {
	Min    uint32
	Max    uint32
	HasMax bool
}

// Export kinds. Only functions and memories are exported.
const (
	KindFunc   byte = 0x00
	KindMemory byte = 0x02
)

// Export makes a function or memory visible to the host by name.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// Module is a complete WASM module.
type Module struct {
	Types   []FuncType
	Funcs   []Function
	Memory  *Memory
	Exports []Export
}

// AddType interns a signature in the type section, returning the index of
// an existing identical entry when there is one.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, existing := range m.Types {
		if existing.Equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// ExportedFunc looks up an exported function by name and returns its
// function index.
func (m *Module) ExportedFunc(name string) (uint32, bool) {
	for _, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Name == name {
			return exp.Index, true
		}
	}
	return 0, false
}

// Type returns the signature of the function at the given index.
func (m *Module) Type(funcIndex uint32) (FuncType, bool) {
	if int(funcIndex) >= len(m.Funcs) {
		return FuncType{}, false
	}
	typeIndex := m.Funcs[funcIndex].TypeIndex
	if int(typeIndex) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[typeIndex], true
}

// Section identifiers.
const (
	sectionType     byte = 1
	sectionFunction byte = 3
	sectionMemory   byte = 5
	sectionExport   byte = 7
	sectionCode     byte = 10
)

var magic = []byte{0x00, 0x61, 0x73, 0x6D} // "\0asm"
var version = []byte{0x01, 0x00, 0x00, 0x00}

const funcTypeTag byte = 0x60

// Encode serializes the module to the WASM binary format.
func (m *Module) Encode() []byte {
	out := append([]byte{}, magic...)
	out = append(out, version...)

	if len(m.Types) > 0 {
		out = appendSection(out, sectionType, m.encodeTypes())
	}
	if len(m.Funcs) > 0 {
		out = appendSection(out, sectionFunction, m.encodeFuncDecls())
	}
	if m.Memory != nil {
		out = appendSection(out, sectionMemory, m.encodeMemory())
	}
	if len(m.Exports) > 0 {
		out = appendSection(out, sectionExport, m.encodeExports())
	}
	if len(m.Funcs) > 0 {
		out = appendSection(out, sectionCode, m.encodeCode())
	}
	return out
}

func appendSection(dst []byte, id byte, content []byte) []byte {
	dst = append(dst, id)
	dst = AppendUleb128(dst, uint64(len(content)))
	return append(dst, content...)
}

func (m *Module) encodeTypes() []byte {
	var out []byte
	out = AppendUleb128(out, uint64(len(m.Types)))
	for _, ft := range m.Types {
		out = append(out, funcTypeTag)
		out = AppendUleb128(out, uint64(len(ft.Params)))
		for _, p := range ft.Params {
			out = append(out, byte(p))
		}
		out = AppendUleb128(out, uint64(len(ft.Results)))
		for _, r := range ft.Results {
			out = append(out, byte(r))
		}
	}
	return out
}

func (m *Module) encodeFuncDecls() []byte {
	var out []byte
	out = AppendUleb128(out, uint64(len(m.Funcs)))
	for _, fn := range m.Funcs {
		out = AppendUleb128(out, uint64(fn.TypeIndex))
	}
	return out
}

func (m *Module) encodeMemory() []byte {
	var out []byte
	out = AppendUleb128(out, 1) // one memory
	if m.Memory.HasMax {
		out = append(out, 0x01)
		out = AppendUleb128(out, uint64(m.Memory.Min))
		out = AppendUleb128(out, uint64(m.Memory.Max))
	} else {
		out = append(out, 0x00)
		out = AppendUleb128(out, uint64(m.Memory.Min))
	}
	return out
}

func (m *Module) encodeExports() []byte {
	var out []byte
	out = AppendUleb128(out, uint64(len(m.Exports)))
	for _, exp := range m.Exports {
		out = AppendUleb128(out, uint64(len(exp.Name)))
		out = append(out, exp.Name...)
		out = append(out, exp.Kind)
		out = AppendUleb128(out, uint64(exp.Index))
	}
	return out
}

func (m *Module) encodeCode() []byte {
	var out []byte
	out = AppendUleb128(out, uint64(len(m.Funcs)))
	for _, fn := range m.Funcs {
		body := encodeFuncBody(fn)
		out = AppendUleb128(out, uint64(len(body)))
		out = append(out, body...)
	}
	return out
}

// encodeFuncBody renders one code entry: run-length compressed locals
// followed by the instructions and the terminating end opcode.
func encodeFuncBody(fn Function) []byte {
	type localRun struct {
		count uint32
		typ   ValType
	}
	var runs []localRun
	for _, local := range fn.Locals {
		if len(runs) > 0 && runs[len(runs)-1].typ == local {
			runs[len(runs)-1].count++
			continue
		}
		runs = append(runs, localRun{count: 1, typ: local})
	}

	var out []byte
	out = AppendUleb128(out, uint64(len(runs)))
	for _, run := range runs {
		out = AppendUleb128(out, uint64(run.count))
		out = append(out, byte(run.typ))
	}
	out = append(out, fn.Body...)
	out = append(out, byte(op.End))
	return out
}

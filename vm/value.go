package vm

import (
	"fmt"
	"math"

	"github.com/lumalang/luma/wasm"
)

// Value is one slot on the interpreter's operand stack. The bits are kept
// raw and reinterpreted according to the type tag.
type Value struct {
	typ  wasm.ValType
	bits uint64
}

// Void is the absence of a value, returned by functions with no result.
var Void = Value{}

// I32 boxes an i32 value.
func I32(v int32) Value { return Value{typ: wasm.I32, bits: uint64(uint32(v))} }

// I64 boxes an i64 value.
func I64(v int64) Value { return Value{typ: wasm.I64, bits: uint64(v)} }

// F32 boxes an f32 value.
func F32(v float32) Value { return Value{typ: wasm.F32, bits: uint64(math.Float32bits(v))} }

// F64 boxes an f64 value.
func F64(v float64) Value { return Value{typ: wasm.F64, bits: math.Float64bits(v)} }

// Bool boxes a boolean as its i32 representation.
func Bool(v bool) Value {
	if v {
		return I32(1)
	}
	return I32(0)
}

// Type returns the value's type tag. Void values have an invalid type.
func (v Value) Type() wasm.ValType { return v.typ }

// IsVoid reports whether this is the absence of a value.
func (v Value) IsVoid() bool { return v.typ == 0 }

func (v Value) AsI32() int32   { return int32(uint32(v.bits)) }
func (v Value) AsI64() int64   { return int64(v.bits) }
func (v Value) AsF32() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) AsF64() float64 { return math.Float64frombits(v.bits) }

// AsBool interprets the value's i32 representation as a boolean.
func (v Value) AsBool() bool { return v.bits != 0 }

func (v Value) String() string {
	switch v.typ {
	case wasm.I32:
		return fmt.Sprintf("%d", v.AsI32())
	case wasm.I64:
		return fmt.Sprintf("%d", v.AsI64())
	case wasm.F32:
		return fmt.Sprintf("%g", v.AsF32())
	case wasm.F64:
		return fmt.Sprintf("%g", v.AsF64())
	}
	return "void"
}

// zeroValue returns the zero of a given type, used to initialize locals.
func zeroValue(t wasm.ValType) Value {
	return Value{typ: t}
}

// Package types defines the Luma type system: the primitive numeric types,
// bool, string, and the composite array, function, and pointer types, along
// with the numeric widening rules used by the type checker.
package types

import (
	"fmt"
	"strings"
)

// Kind enumerates the type constructors.
type Kind int

const (
	InvalidKind Kind = iota
	I32Kind
	I64Kind
	F32Kind
	F64Kind
	BoolKind
	StringKind
	NullKind
	ArrayKind
	FunctionKind
	PointerKind
)

// Type describes a Luma type. Primitive types are shared singletons; use the
// package-level variables (I32, F64, ...) rather than constructing them.
type Type struct {
	Kind Kind

	// Elem is the element type for arrays and the pointee for pointers.
	Elem *Type

	// Params and Result describe a function signature.
	Params []*Type
	Result *Type
}

// Shared singletons for the primitive types.
var (
	Invalid = &Type{Kind: InvalidKind}
	I32     = &Type{Kind: I32Kind}
	I64     = &Type{Kind: I64Kind}
	F32     = &Type{Kind: F32Kind}
	F64     = &Type{Kind: F64Kind}
	Bool    = &Type{Kind: BoolKind}
	String  = &Type{Kind: StringKind}
	Null    = &Type{Kind: NullKind}
)

// Array returns an array type with the given element type.
func Array(elem *Type) *Type {
	return &Type{Kind: ArrayKind, Elem: elem}
}

// Pointer returns a pointer type with the given pointee.
func Pointer(pointee *Type) *Type {
	return &Type{Kind: PointerKind, Elem: pointee}
}

// Function returns a function type with the given parameters and result.
// A nil result indicates a function that returns nothing.
func Function(params []*Type, result *Type) *Type {
	return &Type{Kind: FunctionKind, Params: params, Result: result}
}

// primitivesByName resolves source-level type names.
var primitivesByName = map[string]*Type{
	"i32":    I32,
	"i64":    I64,
	"f32":    F32,
	"f64":    F64,
	"bool":   Bool,
	"string": String,
}

// Lookup resolves a primitive type name such as "i32". The second return
// value is false if the name does not denote a type.
func Lookup(name string) (*Type, bool) {
	t, ok := primitivesByName[name]
	return t, ok
}

// String returns the source-level spelling of the type.
func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case I32Kind:
		return "i32"
	case I64Kind:
		return "i64"
	case F32Kind:
		return "f32"
	case F64Kind:
		return "f64"
	case BoolKind:
		return "bool"
	case StringKind:
		return "string"
	case NullKind:
		return "null"
	case ArrayKind:
		return fmt.Sprintf("array<%s>", t.Elem)
	case PointerKind:
		return fmt.Sprintf("ptr<%s>", t.Elem)
	case FunctionKind:
		var params []string
		for _, p := range t.Params {
			params = append(params, p.String())
		}
		return fmt.Sprintf("func(%s) -> %s", strings.Join(params, ", "), t.Result)
	}
	return "invalid"
}

// Equal reports whether two types are structurally identical.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ArrayKind, PointerKind:
		return Equal(a.Elem, b.Elem)
	case FunctionKind:
		if len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return Equal(a.Result, b.Result)
	}
	return true
}

// Size returns the size of a value of this type in bytes within linear
// memory. Bools occupy 4 bytes (they are represented as i32), and strings,
// arrays, and pointers are 4-byte addresses.
func (t *Type) Size() int {
	switch t.Kind {
	case I32Kind, F32Kind, BoolKind:
		return 4
	case I64Kind, F64Kind:
		return 8
	case StringKind, ArrayKind, PointerKind:
		return 4
	}
	return 0
}

// Align returns the required alignment in bytes for a value of this type.
// Every type here is naturally aligned, so alignment equals size.
func (t *Type) Align() int {
	return t.Size()
}

// IsNumeric reports whether the type participates in arithmetic.
func (t *Type) IsNumeric() bool {
	switch t.Kind {
	case I32Kind, I64Kind, F32Kind, F64Kind:
		return true
	}
	return false
}

// IsInteger reports whether the type is an integer type.
func (t *Type) IsInteger() bool {
	return t.Kind == I32Kind || t.Kind == I64Kind
}

// IsFloat reports whether the type is a floating point type.
func (t *Type) IsFloat() bool {
	return t.Kind == F32Kind || t.Kind == F64Kind
}

// widenRank orders the numeric types from least to most general.
var widenRank = map[Kind]int{
	I32Kind: 0,
	I64Kind: 1,
	F32Kind: 2,
	F64Kind: 3,
}

// Widen returns the more general of two numeric types, following the
// widening order i32 -> i64 -> f32 -> f64. The second return value is false
// if either type is not numeric.
func Widen(a, b *Type) (*Type, bool) {
	ra, ok := widenRank[a.Kind]
	if !ok {
		return Invalid, false
	}
	rb, ok := widenRank[b.Kind]
	if !ok {
		return Invalid, false
	}
	if ra >= rb {
		return a, true
	}
	return b, true
}

// Widens reports whether a value of type `from` may be implicitly widened
// to type `to` by inserting a conversion: i32 -> i64, integer -> float, and
// f32 -> f64 all widen.
func Widens(from, to *Type) bool {
	rf, ok := widenRank[from.Kind]
	if !ok {
		return false
	}
	rt, ok := widenRank[to.Kind]
	if !ok {
		return false
	}
	return rf <= rt
}

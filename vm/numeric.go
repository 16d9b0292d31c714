package vm

import (
	"github.com/lumalang/luma/mem"
	"github.com/lumalang/luma/op"
)

// execNumeric handles the pure stack-to-stack opcodes: arithmetic,
// comparison, bitwise, and conversion. It reports false for opcodes it
// does not know.
func (f *frame) execNumeric(code op.Code) (bool, error) {
	switch code {

	// i32 arithmetic
	case op.I32Add:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a + b))
	case op.I32Sub:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a - b))
	case op.I32Mul:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a * b))
	case op.I32DivS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		if b == 0 {
			return true, mem.NewTrap(mem.DivisionByZero, "integer division by zero")
		}
		f.push(I32(a / b))
	case op.I32RemS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		if b == 0 {
			return true, mem.NewTrap(mem.DivisionByZero, "integer modulo by zero")
		}
		f.push(I32(a % b))
	case op.I32And:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a & b))
	case op.I32Or:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a | b))
	case op.I32Xor:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a ^ b))
	case op.I32Shl:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a << (uint32(b) % 32)))
	case op.I32ShrS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(I32(a >> (uint32(b) % 32)))

	// i64 arithmetic
	case op.I64Add:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a + b))
	case op.I64Sub:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a - b))
	case op.I64Mul:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a * b))
	case op.I64DivS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		if b == 0 {
			return true, mem.NewTrap(mem.DivisionByZero, "integer division by zero")
		}
		f.push(I64(a / b))
	case op.I64RemS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		if b == 0 {
			return true, mem.NewTrap(mem.DivisionByZero, "integer modulo by zero")
		}
		f.push(I64(a % b))
	case op.I64And:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a & b))
	case op.I64Or:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a | b))
	case op.I64Xor:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a ^ b))
	case op.I64Shl:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a << (uint64(b) % 64)))
	case op.I64ShrS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(I64(a >> (uint64(b) % 64)))

	// f32 arithmetic
	case op.F32Neg:
		f.push(F32(-f.pop().AsF32()))
	case op.F32Add:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(F32(a + b))
	case op.F32Sub:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(F32(a - b))
	case op.F32Mul:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(F32(a * b))
	case op.F32Div:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(F32(a / b)) // IEEE 754: Inf or NaN, never a trap
	// f64 arithmetic
	case op.F64Neg:
		f.push(F64(-f.pop().AsF64()))
	case op.F64Add:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(F64(a + b))
	case op.F64Sub:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(F64(a - b))
	case op.F64Mul:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(F64(a * b))
	case op.F64Div:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(F64(a / b))

	// i32 comparison
	case op.I32Eqz:
		f.push(Bool(f.pop().AsI32() == 0))
	case op.I32Eq:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(Bool(a == b))
	case op.I32Ne:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(Bool(a != b))
	case op.I32LtS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(Bool(a < b))
	case op.I32LeS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(Bool(a <= b))
	case op.I32GtS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(Bool(a > b))
	case op.I32GeS:
		b, a := f.pop().AsI32(), f.pop().AsI32()
		f.push(Bool(a >= b))

	// i64 comparison
	case op.I64Eqz:
		f.push(Bool(f.pop().AsI64() == 0))
	case op.I64Eq:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(Bool(a == b))
	case op.I64Ne:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(Bool(a != b))
	case op.I64LtS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(Bool(a < b))
	case op.I64LeS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(Bool(a <= b))
	case op.I64GtS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(Bool(a > b))
	case op.I64GeS:
		b, a := f.pop().AsI64(), f.pop().AsI64()
		f.push(Bool(a >= b))

	// f32 comparison
	case op.F32Eq:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(Bool(a == b))
	case op.F32Ne:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(Bool(a != b))
	case op.F32Lt:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(Bool(a < b))
	case op.F32Le:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(Bool(a <= b))
	case op.F32Gt:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(Bool(a > b))
	case op.F32Ge:
		b, a := f.pop().AsF32(), f.pop().AsF32()
		f.push(Bool(a >= b))

	// f64 comparison
	case op.F64Eq:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(Bool(a == b))
	case op.F64Ne:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(Bool(a != b))
	case op.F64Lt:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(Bool(a < b))
	case op.F64Le:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(Bool(a <= b))
	case op.F64Gt:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(Bool(a > b))
	case op.F64Ge:
		b, a := f.pop().AsF64(), f.pop().AsF64()
		f.push(Bool(a >= b))

	// conversions
	case op.I32WrapI64:
		f.push(I32(int32(f.pop().AsI64())))
	case op.I64ExtendI32S:
		f.push(I64(int64(f.pop().AsI32())))
	case op.F32ConvertI32S:
		f.push(F32(float32(f.pop().AsI32())))
	case op.F32ConvertI64S:
		f.push(F32(float32(f.pop().AsI64())))
	case op.F64ConvertI32S:
		f.push(F64(float64(f.pop().AsI32())))
	case op.F64ConvertI64S:
		f.push(F64(float64(f.pop().AsI64())))
	case op.F32DemoteF64:
		f.push(F32(float32(f.pop().AsF64())))
	case op.F64PromoteF32:
		f.push(F64(float64(f.pop().AsF32())))

	default:
		return false, nil
	}
	return true, nil
}

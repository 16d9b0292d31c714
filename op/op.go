// Package op defines the WASM opcodes emitted by the Luma code generator
// and executed by the virtual machine.
package op

// Code is a one-byte WASM opcode.
type Code byte

const (
	// Control flow
	Unreachable Code = 0x00
	Nop         Code = 0x01
	Block       Code = 0x02
	Loop        Code = 0x03
	If          Code = 0x04
	Else        Code = 0x05
	End         Code = 0x0B
	Br          Code = 0x0C
	BrIf        Code = 0x0D
	Return      Code = 0x0F
	Call        Code = 0x10

	// Parametric
	Drop   Code = 0x1A
	Select Code = 0x1B

	// Variables
	LocalGet Code = 0x20
	LocalSet Code = 0x21
	LocalTee Code = 0x22

	// Memory
	I32Load    Code = 0x28
	I64Load    Code = 0x29
	F32Load    Code = 0x2A
	F64Load    Code = 0x2B
	I32Store   Code = 0x36
	I64Store   Code = 0x37
	F32Store   Code = 0x38
	F64Store   Code = 0x39
	MemorySize Code = 0x3F
	MemoryGrow Code = 0x40

	// Constants
	I32Const Code = 0x41
	I64Const Code = 0x42
	F32Const Code = 0x43
	F64Const Code = 0x44

	// i32 comparison
	I32Eqz Code = 0x45
	I32Eq  Code = 0x46
	I32Ne  Code = 0x47
	I32LtS Code = 0x48
	I32GtS Code = 0x4A
	I32LeS Code = 0x4C
	I32GeS Code = 0x4E

	// i64 comparison
	I64Eqz Code = 0x50
	I64Eq  Code = 0x51
	I64Ne  Code = 0x52
	I64LtS Code = 0x53
	I64GtS Code = 0x55
	I64LeS Code = 0x57
	I64GeS Code = 0x59

	// f32 comparison
	F32Eq Code = 0x5B
	F32Ne Code = 0x5C
	F32Lt Code = 0x5D
	F32Gt Code = 0x5E
	F32Le Code = 0x5F
	F32Ge Code = 0x60

	// f64 comparison
	F64Eq Code = 0x61
	F64Ne Code = 0x62
	F64Lt Code = 0x63
	F64Gt Code = 0x64
	F64Le Code = 0x65
	F64Ge Code = 0x66

	// i32 arithmetic
	I32Add  Code = 0x6A
	I32Sub  Code = 0x6B
	I32Mul  Code = 0x6C
	I32DivS Code = 0x6D
	I32RemS Code = 0x6F
	I32And  Code = 0x71
	I32Or   Code = 0x72
	I32Xor  Code = 0x73
	I32Shl  Code = 0x74
	I32ShrS Code = 0x75

	// i64 arithmetic
	I64Add  Code = 0x7C
	I64Sub  Code = 0x7D
	I64Mul  Code = 0x7E
	I64DivS Code = 0x7F
	I64RemS Code = 0x81
	I64And  Code = 0x83
	I64Or   Code = 0x84
	I64Xor  Code = 0x85
	I64Shl  Code = 0x86
	I64ShrS Code = 0x87

	// f32 arithmetic
	F32Neg Code = 0x8C
	F32Add Code = 0x92
	F32Sub Code = 0x93
	F32Mul Code = 0x94
	F32Div Code = 0x95

	// f64 arithmetic
	F64Neg Code = 0x9A
	F64Add Code = 0xA0
	F64Sub Code = 0xA1
	F64Mul Code = 0xA2
	F64Div Code = 0xA3

	// Conversions
	I32WrapI64     Code = 0xA7
	I64ExtendI32S  Code = 0xAC
	F32ConvertI32S Code = 0xB2
	F32ConvertI64S Code = 0xB4
	F64ConvertI32S Code = 0xB7
	F64ConvertI64S Code = 0xB9
	F32DemoteF64   Code = 0xB6
	F64PromoteF32  Code = 0xBB
)

// Immediate describes the encoding of an opcode's immediate operand.
type Immediate int

const (
	ImmNone      Immediate = iota // no immediate
	ImmI32                        // signed LEB128 i32 constant
	ImmI64                        // signed LEB128 i64 constant
	ImmF32                        // 4-byte little-endian IEEE 754
	ImmF64                        // 8-byte little-endian IEEE 754
	ImmIndex                      // unsigned LEB128 local, function, or label index
	ImmBlockType                  // single byte block type
	ImmMemArg                     // unsigned LEB128 alignment and offset pair
	ImmReserved                   // single zero byte (memory.size, memory.grow)
)

// Info describes an opcode for the disassembler and the interpreter's
// decoder.
type Info struct {
	Code      Code
	Name      string
	Immediate Immediate
}

var infos [256]Info

func init() {
	ops := []Info{
		{Unreachable, "unreachable", ImmNone},
		{Nop, "nop", ImmNone},
		{Block, "block", ImmBlockType},
		{Loop, "loop", ImmBlockType},
		{If, "if", ImmBlockType},
		{Else, "else", ImmNone},
		{End, "end", ImmNone},
		{Br, "br", ImmIndex},
		{BrIf, "br_if", ImmIndex},
		{Return, "return", ImmNone},
		{Call, "call", ImmIndex},
		{Drop, "drop", ImmNone},
		{Select, "select", ImmNone},
		{LocalGet, "local.get", ImmIndex},
		{LocalSet, "local.set", ImmIndex},
		{LocalTee, "local.tee", ImmIndex},
		{I32Load, "i32.load", ImmMemArg},
		{I64Load, "i64.load", ImmMemArg},
		{F32Load, "f32.load", ImmMemArg},
		{F64Load, "f64.load", ImmMemArg},
		{I32Store, "i32.store", ImmMemArg},
		{I64Store, "i64.store", ImmMemArg},
		{F32Store, "f32.store", ImmMemArg},
		{F64Store, "f64.store", ImmMemArg},
		{MemorySize, "memory.size", ImmReserved},
		{MemoryGrow, "memory.grow", ImmReserved},
		{I32Const, "i32.const", ImmI32},
		{I64Const, "i64.const", ImmI64},
		{F32Const, "f32.const", ImmF32},
		{F64Const, "f64.const", ImmF64},
		{I32Eqz, "i32.eqz", ImmNone},
		{I32Eq, "i32.eq", ImmNone},
		{I32Ne, "i32.ne", ImmNone},
		{I32LtS, "i32.lt_s", ImmNone},
		{I32GtS, "i32.gt_s", ImmNone},
		{I32LeS, "i32.le_s", ImmNone},
		{I32GeS, "i32.ge_s", ImmNone},
		{I64Eqz, "i64.eqz", ImmNone},
		{I64Eq, "i64.eq", ImmNone},
		{I64Ne, "i64.ne", ImmNone},
		{I64LtS, "i64.lt_s", ImmNone},
		{I64GtS, "i64.gt_s", ImmNone},
		{I64LeS, "i64.le_s", ImmNone},
		{I64GeS, "i64.ge_s", ImmNone},
		{F32Eq, "f32.eq", ImmNone},
		{F32Ne, "f32.ne", ImmNone},
		{F32Lt, "f32.lt", ImmNone},
		{F32Gt, "f32.gt", ImmNone},
		{F32Le, "f32.le", ImmNone},
		{F32Ge, "f32.ge", ImmNone},
		{F64Eq, "f64.eq", ImmNone},
		{F64Ne, "f64.ne", ImmNone},
		{F64Lt, "f64.lt", ImmNone},
		{F64Gt, "f64.gt", ImmNone},
		{F64Le, "f64.le", ImmNone},
		{F64Ge, "f64.ge", ImmNone},
		{I32Add, "i32.add", ImmNone},
		{I32Sub, "i32.sub", ImmNone},
		{I32Mul, "i32.mul", ImmNone},
		{I32DivS, "i32.div_s", ImmNone},
		{I32RemS, "i32.rem_s", ImmNone},
		{I32And, "i32.and", ImmNone},
		{I32Or, "i32.or", ImmNone},
		{I32Xor, "i32.xor", ImmNone},
		{I32Shl, "i32.shl", ImmNone},
		{I32ShrS, "i32.shr_s", ImmNone},
		{I64Add, "i64.add", ImmNone},
		{I64Sub, "i64.sub", ImmNone},
		{I64Mul, "i64.mul", ImmNone},
		{I64DivS, "i64.div_s", ImmNone},
		{I64RemS, "i64.rem_s", ImmNone},
		{I64And, "i64.and", ImmNone},
		{I64Or, "i64.or", ImmNone},
		{I64Xor, "i64.xor", ImmNone},
		{I64Shl, "i64.shl", ImmNone},
		{I64ShrS, "i64.shr_s", ImmNone},
		{F32Neg, "f32.neg", ImmNone},
		{F32Add, "f32.add", ImmNone},
		{F32Sub, "f32.sub", ImmNone},
		{F32Mul, "f32.mul", ImmNone},
		{F32Div, "f32.div", ImmNone},
		{F64Neg, "f64.neg", ImmNone},
		{F64Add, "f64.add", ImmNone},
		{F64Sub, "f64.sub", ImmNone},
		{F64Mul, "f64.mul", ImmNone},
		{F64Div, "f64.div", ImmNone},
		{I32WrapI64, "i32.wrap_i64", ImmNone},
		{I64ExtendI32S, "i64.extend_i32_s", ImmNone},
		{F32ConvertI32S, "f32.convert_i32_s", ImmNone},
		{F32ConvertI64S, "f32.convert_i64_s", ImmNone},
		{F64ConvertI32S, "f64.convert_i32_s", ImmNone},
		{F64ConvertI64S, "f64.convert_i64_s", ImmNone},
		{F32DemoteF64, "f32.demote_f64", ImmNone},
		{F64PromoteF32, "f64.promote_f32", ImmNone},
	}
	for _, o := range ops {
		infos[o.Code] = o
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes
// return a zero Info whose Name is empty.
func GetInfo(code Code) Info {
	return infos[code]
}

// IsValid reports whether the opcode is one the generator can emit.
func (c Code) IsValid() bool {
	return infos[c].Name != ""
}

// String returns the WASM text-format mnemonic for the opcode.
func (c Code) String() string {
	if name := infos[c].Name; name != "" {
		return name
	}
	return "unknown"
}

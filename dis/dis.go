// Package dis supports analysis of compiled modules by disassembling
// their code into the WASM text-format mnemonics defined in the op
// package.
package dis

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/lumalang/luma/internal/table"
	"github.com/lumalang/luma/op"
	"github.com/lumalang/luma/wasm"
)

// Instruction represents a single decoded instruction and its operands.
type Instruction struct {
	Offset     int
	Opcode     op.Code
	Name       string
	Operands   []string
	Annotation string
	Depth      int
}

// Disassemble returns a parsed representation of one function's code.
// The module provides names for call targets and block result types.
func Disassemble(module *wasm.Module, index uint32) ([]Instruction, error) {
	if int(index) >= len(module.Funcs) {
		return nil, fmt.Errorf("no function at index %d", index)
	}
	body := module.Funcs[index].Body
	var instructions []Instruction
	var depth int
	pos := 0
	for pos < len(body) {
		offset := pos
		code := op.Code(body[pos])
		pos++
		info := op.GetInfo(code)
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode 0x%02x at offset %d", byte(code), offset)
		}

		in := Instruction{Offset: offset, Opcode: code, Name: info.Name, Depth: depth}
		switch code {
		case op.End:
			if depth > 0 {
				depth--
			}
			in.Depth = depth
		case op.Else:
			in.Depth = depth - 1
		}

		var err error
		switch info.Immediate {
		case op.ImmNone:

		case op.ImmIndex:
			var v uint64
			var n int
			v, n, err = wasm.ReadUleb128(body[pos:])
			pos += n
			in.Operands = append(in.Operands, fmt.Sprintf("%d", v))
			if code == op.Call {
				in.Annotation = funcName(module, uint32(v))
			}

		case op.ImmI32, op.ImmI64:
			var v int64
			var n int
			v, n, err = wasm.ReadSleb128(body[pos:])
			pos += n
			in.Operands = append(in.Operands, fmt.Sprintf("%d", v))

		case op.ImmF32:
			if pos+4 > len(body) {
				err = io.ErrUnexpectedEOF
				break
			}
			bits := uint32(body[pos]) | uint32(body[pos+1])<<8 |
				uint32(body[pos+2])<<16 | uint32(body[pos+3])<<24
			pos += 4
			in.Operands = append(in.Operands, fmt.Sprintf("%g", math.Float32frombits(bits)))

		case op.ImmF64:
			if pos+8 > len(body) {
				err = io.ErrUnexpectedEOF
				break
			}
			var bits uint64
			for i := 0; i < 8; i++ {
				bits |= uint64(body[pos+i]) << (8 * i)
			}
			pos += 8
			in.Operands = append(in.Operands, fmt.Sprintf("%g", math.Float64frombits(bits)))

		case op.ImmBlockType:
			if pos >= len(body) {
				err = io.ErrUnexpectedEOF
				break
			}
			bt := body[pos]
			pos++
			if bt != wasm.BlockVoid {
				in.Annotation = wasm.ValType(bt).String()
			}
			depth++

		case op.ImmReserved:
			if pos >= len(body) {
				err = io.ErrUnexpectedEOF
				break
			}
			pos++

		case op.ImmMemArg:
			var align, offs uint64
			var n int
			align, n, err = wasm.ReadUleb128(body[pos:])
			pos += n
			if err == nil {
				offs, n, err = wasm.ReadUleb128(body[pos:])
				pos += n
			}
			in.Operands = append(in.Operands,
				fmt.Sprintf("align=%d", align), fmt.Sprintf("offset=%d", offs))
		}
		if err != nil {
			return nil, fmt.Errorf("truncated immediate at offset %d", offset)
		}
		instructions = append(instructions, in)
	}
	return instructions, nil
}

// funcName resolves a call target to an exported name, falling back to the
// bare index.
func funcName(module *wasm.Module, index uint32) string {
	for _, exp := range module.Exports {
		if exp.Kind == wasm.KindFunc && exp.Index == index {
			return exp.Name
		}
	}
	return fmt.Sprintf("func[%d]", index)
}

var (
	boldText   = color.New(color.Bold)
	cyanText   = color.New(color.FgCyan)
	yellowText = color.New(color.FgYellow)
)

// Print writes a string representation of the given instructions to the
// given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var rows [][]string
	for _, in := range instructions {
		indent := strings.Repeat("  ", in.Depth)
		operands := strings.Join(in.Operands, ", ")
		rows = append(rows, []string{
			fmt.Sprintf("%d", in.Offset),
			indent + boldText.Sprint(in.Name),
			yellowText.Sprint(operands),
			cyanText.Sprint(in.Annotation),
		})
	}
	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(rows).
		Render()
}

// PrintModule disassembles and prints every function in the module.
func PrintModule(module *wasm.Module, writer io.Writer) error {
	for i := range module.Funcs {
		index := uint32(i)
		sig, _ := module.Type(index)
		fmt.Fprintf(writer, "%s %s\n", funcName(module, index), signature(sig))
		instructions, err := Disassemble(module, index)
		if err != nil {
			return err
		}
		Print(instructions, writer)
		if i < len(module.Funcs)-1 {
			fmt.Fprintln(writer)
		}
	}
	return nil
}

func signature(sig wasm.FuncType) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = p.String()
	}
	out := "(" + strings.Join(params, ", ") + ")"
	if len(sig.Results) > 0 {
		out += " -> " + sig.Results[0].String()
	}
	return out
}

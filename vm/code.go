package vm

import (
	"fmt"

	"github.com/lumalang/luma/op"
	"github.com/lumalang/luma/wasm"
)

// instr is one decoded instruction. Structured instructions carry their
// nested bodies, so execution never has to scan for matching end opcodes.
type instr struct {
	code      op.Code
	imm       uint64  // index or integer constant, raw bits
	blockType byte    // block, loop, if
	body      []instr // block, loop, if (then arm)
	elseBody  []instr // if
}

// function is one decoded function: its signature, local layout, and body.
type function struct {
	sig    wasm.FuncType
	locals []wasm.ValType // declared locals beyond the parameters
	body   []instr
}

// decodeFunctions validates and pre-parses every function body in the
// module into an instruction tree.
func decodeFunctions(m *wasm.Module) ([]function, error) {
	out := make([]function, len(m.Funcs))
	for i, fn := range m.Funcs {
		sig, ok := m.Type(uint32(i))
		if !ok {
			return nil, fmt.Errorf("function %d: invalid type index %d", i, fn.TypeIndex)
		}
		r := &reader{buf: fn.Body}
		body, terminator, err := parseInstrs(r)
		if err != nil {
			return nil, fmt.Errorf("function %d: %w", i, err)
		}
		if terminator != op.End || r.len() > 0 {
			return nil, fmt.Errorf("function %d: malformed body", i)
		}
		out[i] = function{sig: sig, locals: fn.Locals, body: body}
	}
	return out, nil
}

// parseInstrs decodes instructions until the end or else opcode that closes
// the current block, returning which of the two it was.
func parseInstrs(r *reader) ([]instr, op.Code, error) {
	var out []instr
	for {
		if r.len() == 0 {
			// An empty function body parses as zero instructions closed by
			// the end the encoder strips.
			return out, op.End, nil
		}
		b, err := r.byte()
		if err != nil {
			return nil, 0, err
		}
		code := op.Code(b)
		switch code {
		case op.End, op.Else:
			return out, code, nil
		case op.Block, op.Loop, op.If:
			in, err := parseBlock(r, code)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, in)
		default:
			in, err := parsePlain(r, code)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, in)
		}
	}
}

func parseBlock(r *reader, code op.Code) (instr, error) {
	blockType, err := r.byte()
	if err != nil {
		return instr{}, err
	}
	if blockType != wasm.BlockVoid && !wasm.ValType(blockType).IsValid() {
		return instr{}, fmt.Errorf("bad block type 0x%02x", blockType)
	}
	body, terminator, err := parseInstrs(r)
	if err != nil {
		return instr{}, err
	}
	in := instr{code: code, blockType: blockType, body: body}
	if terminator == op.Else {
		if code != op.If {
			return instr{}, fmt.Errorf("else outside of if")
		}
		elseBody, terminator, err := parseInstrs(r)
		if err != nil {
			return instr{}, err
		}
		if terminator != op.End {
			return instr{}, fmt.Errorf("unterminated else")
		}
		in.elseBody = elseBody
	}
	return in, nil
}

func parsePlain(r *reader, code op.Code) (instr, error) {
	info := op.GetInfo(code)
	if info.Name == "" {
		return instr{}, fmt.Errorf("unknown opcode 0x%02x", byte(code))
	}
	in := instr{code: code}
	switch info.Immediate {
	case op.ImmNone:
	case op.ImmIndex:
		v, err := r.uint()
		if err != nil {
			return instr{}, err
		}
		in.imm = v
	case op.ImmI32:
		v, err := r.sint()
		if err != nil {
			return instr{}, err
		}
		in.imm = uint64(uint32(int32(v)))
	case op.ImmI64:
		v, err := r.sint()
		if err != nil {
			return instr{}, err
		}
		in.imm = uint64(v)
	case op.ImmF32:
		v, err := r.take(4)
		if err != nil {
			return instr{}, err
		}
		in.imm = uint64(uint32(v[0]) | uint32(v[1])<<8 | uint32(v[2])<<16 | uint32(v[3])<<24)
	case op.ImmF64:
		v, err := r.take(8)
		if err != nil {
			return instr{}, err
		}
		var bits uint64
		for i := 0; i < 8; i++ {
			bits |= uint64(v[i]) << (8 * i)
		}
		in.imm = bits
	case op.ImmReserved:
		if _, err := r.byte(); err != nil {
			return instr{}, err
		}
	case op.ImmMemArg:
		if _, err := r.uint(); err != nil { // alignment hint
			return instr{}, err
		}
		offset, err := r.uint()
		if err != nil {
			return instr{}, err
		}
		in.imm = offset
	default:
		return instr{}, fmt.Errorf("opcode %s not decodable", code)
	}
	return in, nil
}

// reader is a cursor over instruction bytes.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) len() int { return len(r.buf) - r.pos }

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("unexpected end of code")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) uint() (uint64, error) {
	v, n, err := wasm.ReadUleb128(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

func (r *reader) sint() (int64, error) {
	v, n, err := wasm.ReadSleb128(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if r.len() < n {
		return nil, fmt.Errorf("unexpected end of code")
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

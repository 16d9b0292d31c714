package compiler

import (
	"encoding/binary"
	"math"

	"github.com/lumalang/luma/op"
	"github.com/lumalang/luma/wasm"
)

// emitter accumulates the instruction bytes of one function body.
type emitter struct {
	buf []byte

	// depth counts currently open structured frames (block, loop, if).
	// Branch label indexes are computed relative to it.
	depth int
}

func (e *emitter) op(code op.Code) {
	e.buf = append(e.buf, byte(code))
}

// opIndex emits an opcode with an unsigned index immediate (local.get,
// call, br, and friends).
func (e *emitter) opIndex(code op.Code, index uint32) {
	e.buf = append(e.buf, byte(code))
	e.buf = wasm.AppendUleb128(e.buf, uint64(index))
}

func (e *emitter) i32Const(v int32) {
	e.buf = append(e.buf, byte(op.I32Const))
	e.buf = wasm.AppendSleb128(e.buf, int64(v))
}

func (e *emitter) i64Const(v int64) {
	e.buf = append(e.buf, byte(op.I64Const))
	e.buf = wasm.AppendSleb128(e.buf, v)
}

func (e *emitter) f32Const(v float32) {
	e.buf = append(e.buf, byte(op.F32Const))
	e.buf = binary.LittleEndian.AppendUint32(e.buf, math.Float32bits(v))
}

func (e *emitter) f64Const(v float64) {
	e.buf = append(e.buf, byte(op.F64Const))
	e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v))
}

// openBlock emits block, loop, or if with the given block type and returns
// the frame level of the new block, used later to compute branch labels.
func (e *emitter) openBlock(code op.Code, blockType byte) int {
	e.buf = append(e.buf, byte(code), blockType)
	e.depth++
	return e.depth
}

func (e *emitter) closeBlock() {
	e.op(op.End)
	e.depth--
}

// elseBranch switches an open if frame to its else arm.
func (e *emitter) elseBranch() {
	e.op(op.Else)
}

// br emits a branch to the frame at the given level. The label index is the
// number of frames between the current position and the target.
func (e *emitter) br(level int) {
	e.opIndex(op.Br, uint32(e.depth-level))
}

func (e *emitter) brIf(level int) {
	e.opIndex(op.BrIf, uint32(e.depth-level))
}

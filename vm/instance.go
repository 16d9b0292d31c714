package vm

import (
	"context"
	"fmt"
	"math"

	"github.com/gofrs/uuid"
	"github.com/lumalang/luma/mem"
	"github.com/lumalang/luma/op"
	"github.com/lumalang/luma/wasm"
	"github.com/rs/zerolog"
)

// InstanceOption is a configuration function for an Instance.
type InstanceOption func(*Instance)

// WithLogger attaches a logger; invocations and traps are logged at debug
// level.
func WithLogger(logger zerolog.Logger) InstanceOption {
	return func(i *Instance) {
		i.logger = logger
	}
}

// Instance is one instantiation of a module: its own linear memory, its own
// frontier, its own execution state. Instances of the same module share
// nothing.
type Instance struct {
	id     uuid.UUID
	module *wasm.Module
	funcs  []function
	memory *mem.Memory
	logger zerolog.Logger
	halted bool
}

// NewInstance validates and instantiates a module. The instance's memory is
// committed to the module's declared minimum and capped at its declared
// maximum.
func NewInstance(module *wasm.Module, options ...InstanceOption) (*Instance, error) {
	funcs, err := decodeFunctions(module)
	if err != nil {
		return nil, err
	}

	memOpts := []mem.Option{}
	min := uint32(1)
	if module.Memory != nil {
		if module.Memory.Min > 0 {
			min = module.Memory.Min
		}
		if module.Memory.HasMax {
			memOpts = append(memOpts, mem.WithMaxPages(module.Memory.Max))
		}
	}
	memory := mem.New(memOpts...)
	if min > 1 {
		if memory.Grow(min-1) < 0 {
			return nil, fmt.Errorf("declared minimum of %d pages exceeds the maximum", min)
		}
	}

	inst := &Instance{
		id:     uuid.Must(uuid.NewV4()),
		module: module,
		funcs:  funcs,
		memory: memory,
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(inst)
	}
	return inst, nil
}

// ID returns the unique identifier of this instance.
func (i *Instance) ID() uuid.UUID { return i.id }

// Memory returns the instance's linear memory.
func (i *Instance) Memory() *mem.Memory { return i.memory }

// Halted reports whether a previous invocation trapped. A halted instance
// refuses further invocations.
func (i *Instance) Halted() bool { return i.halted }

// Invoke calls an exported function by name. Arguments are checked against
// the function's signature. A trap halts the instance permanently.
func (i *Instance) Invoke(ctx context.Context, name string, args ...Value) (Value, error) {
	if i.halted {
		return Void, fmt.Errorf("instance is halted after a trap")
	}
	index, ok := i.module.ExportedFunc(name)
	if !ok {
		return Void, fmt.Errorf("no exported function %q", name)
	}
	fn := i.funcs[index]
	if len(args) != len(fn.sig.Params) {
		return Void, fmt.Errorf("function %q takes %d arguments, got %d",
			name, len(fn.sig.Params), len(args))
	}
	for j, arg := range args {
		if arg.Type() != fn.sig.Params[j] {
			return Void, fmt.Errorf("argument %d of %q must be %s, got %s",
				j, name, fn.sig.Params[j], arg.Type())
		}
	}

	i.logger.Debug().
		Str("instance_id", i.id.String()).
		Str("function", name).
		Int("args", len(args)).
		Msg("invoke")

	result, err := i.call(ctx, index, args)
	if err != nil {
		if _, isTrap := mem.AsTrap(err); isTrap {
			i.halted = true
			i.logger.Debug().
				Str("instance_id", i.id.String()).
				Err(err).
				Msg("trap")
		}
		return Void, err
	}
	return result, nil
}

// call runs one function to completion and returns its result, or Void for
// a function with no result type.
func (i *Instance) call(ctx context.Context, index uint32, args []Value) (Value, error) {
	fn := i.funcs[index]
	locals := make([]Value, 0, len(args)+len(fn.locals))
	locals = append(locals, args...)
	for _, t := range fn.locals {
		locals = append(locals, zeroValue(t))
	}

	frame := &frame{inst: i, locals: locals}
	_, err := frame.exec(ctx, fn.body)
	if err != nil {
		return Void, err
	}
	if len(fn.sig.Results) == 0 {
		return Void, nil
	}
	if len(frame.stack) == 0 {
		// Control fell off the end of a function with a result type. The
		// checker guarantees a return on every path, so treat it as zero.
		return zeroValue(fn.sig.Results[0]), nil
	}
	return frame.pop(), nil
}

// frame is the execution state of one function activation.
type frame struct {
	inst   *Instance
	locals []Value
	stack  []Value
}

func (f *frame) push(v Value) {
	f.stack = append(f.stack, v)
}

func (f *frame) pop() Value {
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

// branch signals destined for an enclosing structured frame.
const (
	branchNone   = -1 // fall through
	branchReturn = -2 // unwind the whole function
)

// exec runs one instruction sequence. The returned int is branchNone for
// normal completion, branchReturn for a function return, or the number of
// block frames still to unwind for a br.
func (f *frame) exec(ctx context.Context, body []instr) (int, error) {
	for _, in := range body {
		switch in.code {
		case op.Nop:

		case op.Unreachable:
			return 0, mem.NewTrap(mem.InvalidArgument, "unreachable executed")

		case op.Block:
			b, err := f.exec(ctx, in.body)
			if err != nil {
				return 0, err
			}
			if b == branchReturn {
				return branchReturn, nil
			}
			if b > 0 {
				return b - 1, nil
			}
			// A branch to this block (0) falls out of it.

		case op.Loop:
			for {
				if err := ctx.Err(); err != nil {
					return 0, err
				}
				b, err := f.exec(ctx, in.body)
				if err != nil {
					return 0, err
				}
				if b == branchReturn {
					return branchReturn, nil
				}
				if b == 0 {
					continue // a branch to a loop restarts it
				}
				if b > 0 {
					return b - 1, nil
				}
				break // fell off the end of the loop body
			}

		case op.If:
			cond := f.pop()
			body := in.body
			if !cond.AsBool() {
				body = in.elseBody
			}
			b, err := f.exec(ctx, body)
			if err != nil {
				return 0, err
			}
			if b == branchReturn {
				return branchReturn, nil
			}
			if b > 0 {
				return b - 1, nil
			}

		case op.Br:
			return int(in.imm), nil

		case op.BrIf:
			if f.pop().AsBool() {
				return int(in.imm), nil
			}

		case op.Return:
			return branchReturn, nil

		case op.Call:
			if err := f.call(ctx, uint32(in.imm)); err != nil {
				return 0, err
			}

		case op.Drop:
			f.pop()

		case op.Select:
			cond := f.pop()
			b := f.pop()
			a := f.pop()
			if cond.AsBool() {
				f.push(a)
			} else {
				f.push(b)
			}

		case op.LocalGet:
			f.push(f.locals[in.imm])
		case op.LocalSet:
			f.locals[in.imm] = f.pop()
		case op.LocalTee:
			f.locals[in.imm] = f.stack[len(f.stack)-1]

		case op.I32Const:
			f.push(I32(int32(uint32(in.imm))))
		case op.I64Const:
			f.push(I64(int64(in.imm)))
		case op.F32Const:
			f.push(F32(math.Float32frombits(uint32(in.imm))))
		case op.F64Const:
			f.push(F64(math.Float64frombits(in.imm)))

		case op.MemorySize:
			f.push(I32(int32(f.inst.memory.Pages())))
		case op.MemoryGrow:
			pages := f.pop().AsI32()
			f.push(I32(f.inst.memory.Grow(uint32(pages))))

		case op.I32Load, op.I64Load, op.F32Load, op.F64Load:
			if err := f.load(in); err != nil {
				return 0, err
			}
		case op.I32Store, op.I64Store, op.F32Store, op.F64Store:
			if err := f.store(in); err != nil {
				return 0, err
			}

		default:
			done, err := f.execNumeric(in.code)
			if err != nil {
				return 0, err
			}
			if !done {
				return 0, fmt.Errorf("unsupported opcode %s", in.code)
			}
		}
	}
	return branchNone, nil
}

func (f *frame) call(ctx context.Context, index uint32) error {
	if int(index) >= len(f.inst.funcs) {
		return fmt.Errorf("call to invalid function index %d", index)
	}
	fn := f.inst.funcs[index]
	args := make([]Value, len(fn.sig.Params))
	for j := len(args) - 1; j >= 0; j-- {
		args[j] = f.pop()
	}
	result, err := f.inst.call(ctx, index, args)
	if err != nil {
		return err
	}
	if len(fn.sig.Results) > 0 {
		f.push(result)
	}
	return nil
}

func (f *frame) load(in instr) error {
	addr := uint32(f.pop().AsI32()) + uint32(in.imm)
	switch in.code {
	case op.I32Load:
		v, err := f.inst.memory.Load32(addr)
		if err != nil {
			return err
		}
		f.push(I32(int32(v)))
	case op.I64Load:
		v, err := f.inst.memory.Load64(addr)
		if err != nil {
			return err
		}
		f.push(I64(int64(v)))
	case op.F32Load:
		v, err := f.inst.memory.Load32(addr)
		if err != nil {
			return err
		}
		f.push(F32(math.Float32frombits(v)))
	case op.F64Load:
		v, err := f.inst.memory.Load64(addr)
		if err != nil {
			return err
		}
		f.push(F64(math.Float64frombits(v)))
	}
	return nil
}

func (f *frame) store(in instr) error {
	value := f.pop()
	addr := uint32(f.pop().AsI32()) + uint32(in.imm)
	switch in.code {
	case op.I32Store:
		return f.inst.memory.Store32(addr, uint32(value.AsI32()))
	case op.I64Store:
		return f.inst.memory.Store64(addr, uint64(value.AsI64()))
	case op.F32Store:
		return f.inst.memory.Store32(addr, math.Float32bits(value.AsF32()))
	case op.F64Store:
		return f.inst.memory.Store64(addr, math.Float64bits(value.AsF64()))
	}
	return nil
}

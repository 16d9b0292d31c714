package vm

import (
	"context"
	"testing"
	"time"

	"github.com/lumalang/luma/checker"
	"github.com/lumalang/luma/compiler"
	"github.com/lumalang/luma/mem"
	"github.com/lumalang/luma/op"
	"github.com/lumalang/luma/parser"
	"github.com/lumalang/luma/wasm"
	"github.com/stretchr/testify/require"
)

func instance(t *testing.T, input string) *Instance {
	t.Helper()
	program, err := parser.Parse(context.Background(), input)
	require.Nil(t, err)
	require.Nil(t, checker.Check(program))
	module, err := compiler.Compile(program)
	require.Nil(t, err)
	inst, err := NewInstance(module)
	require.Nil(t, err)
	return inst
}

func TestInvokeAdd(t *testing.T) {
	inst := instance(t, "func add(a: i32, b: i32) -> i32 { return a + b; }")
	result, err := inst.Invoke(context.Background(), "add", I32(2), I32(3))
	require.Nil(t, err)
	require.Equal(t, int32(5), result.AsI32())
}

func TestInvokeVoid(t *testing.T) {
	inst := instance(t, "func noop() { }")
	result, err := inst.Invoke(context.Background(), "noop")
	require.Nil(t, err)
	require.True(t, result.IsVoid())
}

func TestArgumentChecking(t *testing.T) {
	inst := instance(t, "func add(a: i32, b: i32) -> i32 { return a + b; }")
	ctx := context.Background()

	_, err := inst.Invoke(ctx, "add", I32(1))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "takes 2 arguments")

	_, err = inst.Invoke(ctx, "add", I32(1), I64(2))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "must be i32")

	_, err = inst.Invoke(ctx, "missing")
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "no exported function")
}

func TestWhileLoop(t *testing.T) {
	inst := instance(t, `
		func sum(n: i32) -> i32 {
			let total = 0;
			let i = 0;
			while (i < n) {
				total += i;
				i += 1;
			}
			return total;
		}
	`)
	result, err := inst.Invoke(context.Background(), "sum", I32(10))
	require.Nil(t, err)
	require.Equal(t, int32(45), result.AsI32())
}

func TestForLoopWithBreakContinue(t *testing.T) {
	// Sum the odd numbers below 10, stopping at 7.
	inst := instance(t, `
		func f() -> i32 {
			let total = 0;
			for (let i = 0; i < 10; i += 1) {
				if (i % 2 == 0) { continue; }
				if (i > 7) { break; }
				total += i;
			}
			return total;
		}
	`)
	result, err := inst.Invoke(context.Background(), "f")
	require.Nil(t, err)
	require.Equal(t, int32(1+3+5+7), result.AsI32())
}

func TestRecursion(t *testing.T) {
	inst := instance(t, `
		func fib(n: i32) -> i32 {
			if (n < 2) { return n; }
			return fib(n - 1) + fib(n - 2);
		}
	`)
	result, err := inst.Invoke(context.Background(), "fib", I32(10))
	require.Nil(t, err)
	require.Equal(t, int32(55), result.AsI32())
}

// b != 0 guards the division, so short-circuit evaluation must skip the
// right operand entirely.
func TestShortCircuit(t *testing.T) {
	inst := instance(t, `
		func safe(a: i32, b: i32) -> i32 {
			if (b != 0 && a / b > 0) { return a / b; }
			return 0;
		}
	`)
	result, err := inst.Invoke(context.Background(), "safe", I32(10), I32(0))
	require.Nil(t, err)
	require.Equal(t, int32(0), result.AsI32())
	require.False(t, inst.Halted())

	result, err = inst.Invoke(context.Background(), "safe", I32(10), I32(2))
	require.Nil(t, err)
	require.Equal(t, int32(5), result.AsI32())
}

func TestDivisionByZeroTrap(t *testing.T) {
	inst := instance(t, "func div(a: i32, b: i32) -> i32 { return a / b; }")
	_, err := inst.Invoke(context.Background(), "div", I32(1), I32(0))
	require.NotNil(t, err)
	trap, ok := mem.AsTrap(err)
	require.True(t, ok)
	require.Equal(t, mem.DivisionByZero, trap.Code)

	// The instance is halted permanently.
	require.True(t, inst.Halted())
	_, err = inst.Invoke(context.Background(), "div", I32(4), I32(2))
	require.NotNil(t, err)
	require.Contains(t, err.Error(), "halted")
}

func TestInt64Arithmetic(t *testing.T) {
	inst := instance(t, `
		func f() -> i64 {
			let x: i64 = 2147483647;
			return x + x;
		}
	`)
	result, err := inst.Invoke(context.Background(), "f")
	require.Nil(t, err)
	require.Equal(t, int64(4294967294), result.AsI64())
}

func TestInt32Wraps(t *testing.T) {
	inst := instance(t, "func f(x: i32) -> i32 { return x + 1; }")
	result, err := inst.Invoke(context.Background(), "f", I32(2147483647))
	require.Nil(t, err)
	require.Equal(t, int32(-2147483648), result.AsI32())
}

func TestFloatArithmetic(t *testing.T) {
	inst := instance(t, "func f(a: f64, b: f64) -> f64 { return a * b + 0.5; }")
	result, err := inst.Invoke(context.Background(), "f", F64(2.0), F64(3.25))
	require.Nil(t, err)
	require.Equal(t, 7.0, result.AsF64())
}

func TestWideningAtRuntime(t *testing.T) {
	inst := instance(t, "func f(a: i32, b: f64) -> f64 { return a + b; }")
	result, err := inst.Invoke(context.Background(), "f", I32(2), F64(0.25))
	require.Nil(t, err)
	require.Equal(t, 2.25, result.AsF64())
}

func TestBooleans(t *testing.T) {
	inst := instance(t, "func xor(a: bool, b: bool) -> bool { return a != b; }")
	result, err := inst.Invoke(context.Background(), "xor", Bool(true), Bool(false))
	require.Nil(t, err)
	require.True(t, result.AsBool())
}

func TestInstanceIsolation(t *testing.T) {
	program, err := parser.Parse(context.Background(), "func f() -> i32 { return 1; }")
	require.Nil(t, err)
	require.Nil(t, checker.Check(program))
	module, err := compiler.Compile(program)
	require.Nil(t, err)

	a, err := NewInstance(module)
	require.Nil(t, err)
	b, err := NewInstance(module)
	require.Nil(t, err)

	require.NotEqual(t, a.ID(), b.ID())
	require.NotSame(t, a.Memory(), b.Memory())

	// An allocation failure in one instance does not affect its sibling.
	_, err = a.Memory().Alloc(mem.PageSize * 100)
	require.NotNil(t, err)
	_, err = b.Invoke(context.Background(), "f")
	require.Nil(t, err)
}

func TestContextCancellation(t *testing.T) {
	inst := instance(t, "func spin() { while (true) { } }")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := inst.Invoke(ctx, "spin")
	require.NotNil(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// Memory instructions have no source-language surface, so exercise them
// with a hand-assembled module.
func TestMemoryInstructions(t *testing.T) {
	m := &wasm.Module{}
	typeIndex := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.I32}})

	var body []byte
	body = append(body, byte(op.I32Const))
	body = wasm.AppendSleb128(body, 8)
	body = append(body, byte(op.I32Const))
	body = wasm.AppendSleb128(body, 42)
	body = append(body, byte(op.I32Store), 0x02, 0x00) // align, offset
	body = append(body, byte(op.I32Const))
	body = wasm.AppendSleb128(body, 8)
	body = append(body, byte(op.I32Load), 0x02, 0x00)
	body = append(body, byte(op.Return))

	m.Funcs = append(m.Funcs, wasm.Function{TypeIndex: typeIndex, Body: body})
	m.Memory = &wasm.Memory{Min: 1, Max: 2, HasMax: true}
	m.Exports = append(m.Exports, wasm.Export{Name: "roundtrip", Kind: wasm.KindFunc, Index: 0})

	inst, err := NewInstance(m)
	require.Nil(t, err)
	result, err := inst.Invoke(context.Background(), "roundtrip")
	require.Nil(t, err)
	require.Equal(t, int32(42), result.AsI32())
}

func TestMemoryTraps(t *testing.T) {
	m := &wasm.Module{}
	typeIndex := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.I32}})

	var body []byte
	body = append(body, byte(op.I32Const))
	body = wasm.AppendSleb128(body, 0)
	body = append(body, byte(op.I32Load), 0x02, 0x00)
	body = append(body, byte(op.Return))

	m.Funcs = append(m.Funcs, wasm.Function{TypeIndex: typeIndex, Body: body})
	m.Memory = &wasm.Memory{Min: 1, Max: 2, HasMax: true}
	m.Exports = append(m.Exports, wasm.Export{Name: "deref", Kind: wasm.KindFunc, Index: 0})

	inst, err := NewInstance(m)
	require.Nil(t, err)
	_, err = inst.Invoke(context.Background(), "deref")
	require.NotNil(t, err)
	trap, ok := mem.AsTrap(err)
	require.True(t, ok)
	require.Equal(t, mem.NullDereference, trap.Code)
	require.True(t, inst.Halted())
}

func TestEval(t *testing.T) {
	source := `
		func add(a: i32, b: i32) -> i32 { return a + b; }
		func main() -> i32 { return add(2, 3); }
	`
	result, err := Eval(context.Background(), source)
	require.Nil(t, err)
	require.Equal(t, int32(5), result.AsI32())
}

func TestEvalCompileError(t *testing.T) {
	_, err := Eval(context.Background(), "func main() -> i32 { return x; }")
	require.NotNil(t, err)
}

func TestValueFormatting(t *testing.T) {
	require.Equal(t, "42", I32(42).String())
	require.Equal(t, "-7", I64(-7).String())
	require.Equal(t, "1.5", F64(1.5).String())
	require.Equal(t, "void", Void.String())
}

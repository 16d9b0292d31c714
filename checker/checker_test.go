package checker

import (
	"context"
	"testing"

	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/parser"
	"github.com/lumalang/luma/types"
	"github.com/stretchr/testify/require"
)

func check(t *testing.T, input string) (*ast.Program, error) {
	t.Helper()
	program, err := parser.Parse(context.Background(), input)
	require.Nil(t, err)
	return program, Check(program, WithSource(input))
}

func TestWellTyped(t *testing.T) {
	inputs := []string{
		"func add(a: i32, b: i32) -> i32 { return a + b; }",
		"func f() -> f64 { return 1.5 * 2.0; }",
		"func f() -> bool { return 1 < 2 && 3 != 4; }",
		"func f() -> i32 { let x = 5; x += 2; return x; }",
		"func f() -> i32 { let x = 1; if (x == 1) { return 1; } return 0; }",
		"func f() -> i32 { let n = 0; while (n < 10) { n += 1; } return n; }",
		"func f() -> i32 { let s = 0; for (let i = 0; i < 5; i += 1) { s += i; } return s; }",
		"func f() -> i64 { let x: i64 = 5; return x; }",
		"func f() -> f32 { let x: f32 = 1; return x; }",
		"func g() -> i32 { return h(); } func h() -> i32 { return 1; }",
		"func f() -> i32 { let x = 2; let y = ~x << 1; return y; }",
	}
	for _, input := range inputs {
		_, err := check(t, input)
		require.Nil(t, err, "input: %s", input)
	}
}

// A float literal takes on the float type of its context instead of the f64
// default, so f32 locations accept literal initializers.
func TestFloatLiteralAdoption(t *testing.T) {
	program, err := check(t, "func f() -> f32 { let x: f32 = 0.5; return x; }")
	require.Nil(t, err)

	fn := program.Funcs()[0]
	lit := fn.Body.Stmts[0].(*ast.Let).Value.(*ast.Float)
	require.Equal(t, types.F32, lit.Type())
}

func TestNumericWidening(t *testing.T) {
	input := "func f(a: i32, b: i64, c: f32, d: f64) -> f64 { return a + b + c + d; }"
	program, err := check(t, input)
	require.Nil(t, err)

	ret := program.Funcs()[0].Body.Stmts[0].(*ast.Return)
	// ((a + b) + c) + d widens stepwise: i64, f32, f64.
	outer := ret.Value.(*ast.Infix)
	require.Equal(t, types.F64, outer.Type())
	mid := outer.Left.(*ast.Infix)
	require.Equal(t, types.F32, mid.Type())
	inner := mid.Left.(*ast.Infix)
	require.Equal(t, types.I64, inner.Type())
}

func TestTypeMismatch(t *testing.T) {
	tests := []struct {
		input string
		code  errors.ErrorCode
	}{
		{"func f() -> i32 { return true + 1; }", errors.E3001},
		{"func f() -> bool { return 1 && 2; }", errors.E3001},
		{"func f() -> i32 { let x: i32 = 1.5; return x; }", errors.E3001},
		{"func f() -> i32 { let x = 1; let y = 2.5; x = y; return x; }", errors.E3001},
		{"func f() -> i32 { return 1.5 % 2.0; }", errors.E3001},
		{"func f() -> i32 { return 1.5 << 1; }", errors.E3001},
		{"func f() { let s = \"hi\"; let n = s + 1; }", errors.E3001},
	}
	for _, tt := range tests {
		_, err := check(t, tt.input)
		require.NotNil(t, err, "input: %s", tt.input)
		diags := errors.Diagnostics(err)
		require.NotEmpty(t, diags, "input: %s", tt.input)
		require.Equal(t, tt.code, diags[0].Code, "input: %s", tt.input)
	}
}

func TestUndefined(t *testing.T) {
	_, err := check(t, "func f() -> i32 { return nope; }")
	require.NotNil(t, err)
	diags := errors.Diagnostics(err)
	require.Len(t, diags, 1)
	require.Equal(t, errors.E3002, diags[0].Code)
	require.Contains(t, diags[0].Message, `"nope"`)
}

func TestUndefinedFunction(t *testing.T) {
	_, err := check(t, "func f() -> i32 { return g(1); }")
	require.NotNil(t, err)
	require.Equal(t, errors.E3002, errors.Diagnostics(err)[0].Code)
}

func TestArity(t *testing.T) {
	_, err := check(t, "func add(a: i32, b: i32) -> i32 { return a + b; } func f() -> i32 { return add(1); }")
	require.NotNil(t, err)
	diags := errors.Diagnostics(err)
	require.Equal(t, errors.E3003, diags[0].Code)
}

func TestArgumentTypes(t *testing.T) {
	_, err := check(t, "func half(x: f64) -> f64 { return x / 2.0; } func f() -> f64 { return half(true); }")
	require.NotNil(t, err)
	require.Equal(t, errors.E3001, errors.Diagnostics(err)[0].Code)

	// Integer literals widen to the parameter type.
	_, err = check(t, "func half(x: f64) -> f64 { return x / 2.0; } func f() -> f64 { return half(3); }")
	require.Nil(t, err)
}

func TestConditionMustBeBool(t *testing.T) {
	_, err := check(t, "func f() -> i32 { if (1) { return 1; } return 0; }")
	require.NotNil(t, err)
	diags := errors.Diagnostics(err)
	require.Equal(t, errors.E3001, diags[0].Code)
	require.Contains(t, diags[0].Message, "if condition must be bool")

	_, err = check(t, "func f() { while (0) { } }")
	require.NotNil(t, err)
}

func TestShadowing(t *testing.T) {
	// Shadowing an outer scope is allowed.
	_, err := check(t, "func f() -> i32 { let x = 1; { let x = 2.5; } return x; }")
	require.Nil(t, err)

	// Redeclaring in the same scope is not.
	_, err = check(t, "func f() { let x = 1; let x = 2; }")
	require.NotNil(t, err)
	require.Equal(t, errors.E3005, errors.Diagnostics(err)[0].Code)
}

func TestScopeExit(t *testing.T) {
	// A block-scoped variable is gone after the block ends.
	_, err := check(t, "func f() -> i32 { { let x = 1; } return x; }")
	require.NotNil(t, err)
	require.Equal(t, errors.E3002, errors.Diagnostics(err)[0].Code)
}

func TestReturnChecks(t *testing.T) {
	_, err := check(t, "func f() -> i32 { return; }")
	require.NotNil(t, err)

	_, err = check(t, "func f() { return 1; }")
	require.NotNil(t, err)

	_, err = check(t, "func f() -> i64 { return 5; }")
	require.Nil(t, err) // literal widens

	_, err = check(t, "func f(x: i32) -> i64 { return x; }")
	require.NotNil(t, err) // non-literal does not
}

func TestBreakOutsideLoop(t *testing.T) {
	_, err := check(t, "func f() { break; }")
	require.NotNil(t, err)
	require.Equal(t, errors.E3004, errors.Diagnostics(err)[0].Code)
}

func TestDuplicateFunction(t *testing.T) {
	_, err := check(t, "func f() { } func f() { }")
	require.NotNil(t, err)
	require.Equal(t, errors.E3005, errors.Diagnostics(err)[0].Code)
}

// All discoverable errors are collected in one pass.
func TestMultipleErrors(t *testing.T) {
	input := `func f() -> i32 {
	let a = missing1;
	let b = missing2;
	return true;
}`
	_, err := check(t, input)
	require.NotNil(t, err)
	diags := errors.Diagnostics(err)
	require.Len(t, diags, 3)
	require.Equal(t, errors.E3002, diags[0].Code)
	require.Equal(t, errors.E3002, diags[1].Code)
	require.Equal(t, errors.E3001, diags[2].Code)
}

func TestAnnotations(t *testing.T) {
	program, err := check(t, "func add(a: i32, b: i32) -> i32 { return a + b; }")
	require.Nil(t, err)
	fn := program.Funcs()[0]
	require.Equal(t, "func(i32, i32) -> i32", fn.Sig.String())
	ret := fn.Body.Stmts[0].(*ast.Return)
	require.Equal(t, types.I32, ret.Value.Type())
}

package dis

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/lumalang/luma/checker"
	"github.com/lumalang/luma/compiler"
	"github.com/lumalang/luma/parser"
	"github.com/lumalang/luma/wasm"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, input string) *wasm.Module {
	t.Helper()
	program, err := parser.Parse(context.Background(), input)
	require.Nil(t, err)
	require.Nil(t, checker.Check(program))
	module, err := compiler.Compile(program)
	require.Nil(t, err)
	return module
}

func TestFunctionDisassembly(t *testing.T) {
	// Disable colors for consistent test output
	color.NoColor = true
	defer func() { color.NoColor = false }()

	module := compile(t, "func f(x: i32) -> i32 { return x + 1; }")
	instructions, err := Disassemble(module, 0)
	require.Nil(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)

	expected := strings.TrimSpace(`
+--------+-----------+----------+------+
| OFFSET |  OPCODE   | OPERANDS | INFO |
+--------+-----------+----------+------+
|      0 | local.get |        0 |      |
|      2 | i32.const |        1 |      |
|      4 | i32.add   |          |      |
|      5 | return    |          |      |
+--------+-----------+----------+------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestCallAnnotation(t *testing.T) {
	module := compile(t, `
		func one() -> i32 { return 1; }
		func f() -> i32 { return one(); }
	`)
	instructions, err := Disassemble(module, 1)
	require.Nil(t, err)

	var call *Instruction
	for i := range instructions {
		if instructions[i].Name == "call" {
			call = &instructions[i]
		}
	}
	require.NotNil(t, call)
	require.Equal(t, []string{"0"}, call.Operands)
	require.Equal(t, "one", call.Annotation)
}

func TestBlockDepth(t *testing.T) {
	module := compile(t, "func f(x: i32) -> i32 { if (x > 0) { return 1; } return 0; }")
	instructions, err := Disassemble(module, 0)
	require.Nil(t, err)

	type entry struct {
		name  string
		depth int
	}
	var got []entry
	for _, in := range instructions {
		got = append(got, entry{in.Name, in.Depth})
	}
	require.Equal(t, []entry{
		{"local.get", 0},
		{"i32.const", 0},
		{"i32.gt_s", 0},
		{"if", 0},
		{"i32.const", 1},
		{"return", 1},
		{"end", 0},
		{"i32.const", 0},
		{"return", 0},
	}, got)
}

func TestBlockTypeAnnotation(t *testing.T) {
	module := compile(t, "func f(a: bool, b: bool) -> bool { return a && b; }")
	instructions, err := Disassemble(module, 0)
	require.Nil(t, err)

	var found bool
	for _, in := range instructions {
		if in.Name == "if" {
			require.Equal(t, "i32", in.Annotation)
			found = true
		}
	}
	require.True(t, found)
}

func TestFloatOperands(t *testing.T) {
	module := compile(t, "func f() -> f64 { let x = 1.5; return x; }")
	instructions, err := Disassemble(module, 0)
	require.Nil(t, err)
	require.Equal(t, "f64.const", instructions[0].Name)
	require.Equal(t, []string{"1.5"}, instructions[0].Operands)
}

func TestInvalidFunctionIndex(t *testing.T) {
	module := compile(t, "func f() { }")
	_, err := Disassemble(module, 5)
	require.NotNil(t, err)
}

func TestPrintModule(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	module := compile(t, `
		func add(a: i32, b: i32) -> i32 { return a + b; }
		func main() -> i32 { return add(2, 3); }
	`)
	var buf bytes.Buffer
	require.Nil(t, PrintModule(module, &buf))
	out := buf.String()
	require.Contains(t, out, "add (i32, i32) -> i32")
	require.Contains(t, out, "main () -> i32")
	require.Contains(t, out, "call")
}

package ast

import (
	"testing"

	"github.com/lumalang/luma/token"
	"github.com/lumalang/luma/types"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	x := &Infix{
		Left:  &Int{Literal: "2", Value: 2},
		Op:    token.PLUS,
		Right: &Int{Literal: "3", Value: 3},
	}
	require.Equal(t, "(2 + 3)", x.String())

	let := &Let{
		Name:     &Ident{Name: "x"},
		TypeName: "i32",
		Value:    x,
	}
	require.Equal(t, "let x: i32 = (2 + 3);", let.String())

	ret := &Return{Value: &Ident{Name: "x"}}
	require.Equal(t, "return x;", ret.String())
}

func TestFuncString(t *testing.T) {
	fn := &Func{
		Name: &Ident{Name: "add"},
		Params: []*Param{
			{Name: &Ident{Name: "a"}, TypeName: "i32"},
			{Name: &Ident{Name: "b"}, TypeName: "i32"},
		},
		ReturnName: "i32",
		Body: &Block{
			Stmts: []Stmt{
				&Return{Value: &Infix{
					Left:  &Ident{Name: "a"},
					Op:    token.PLUS,
					Right: &Ident{Name: "b"},
				}},
			},
		},
	}
	require.Equal(t, "func add(a: i32, b: i32) -> i32 { return (a + b); }", fn.String())
}

func TestTypeAnnotation(t *testing.T) {
	x := &Int{Literal: "1", Value: 1}
	require.Nil(t, x.Type())
	x.SetType(types.I32)
	require.Equal(t, types.I32, x.Type())
}

func TestPositions(t *testing.T) {
	pos := token.Position{Line: 2, Column: 4}
	ident := &Ident{NamePos: pos, Name: "count"}
	require.Equal(t, pos, ident.Pos())
	require.Equal(t, pos.Advance(5), ident.End())
}

func TestInspect(t *testing.T) {
	tree := &If{
		Condition: &Bool{Value: true},
		Then: &Block{Stmts: []Stmt{
			&ExprStmt{Expr: &Assign{
				Name:  &Ident{Name: "x"},
				Op:    token.ASSIGN,
				Value: &Int{Literal: "1", Value: 1},
			}},
		}},
	}
	var count int
	Inspect(tree, func(n Node) bool {
		count++
		return true
	})
	// if, condition, block, expr stmt, assign, ident, int
	require.Equal(t, 7, count)
}

package ast

import (
	"fmt"
	"strings"

	"github.com/lumalang/luma/token"
)

// Ident is an expression node that refers to a variable or function by name.
type Ident struct {
	typeInfo
	NamePos token.Position // position of the identifier
	Name    string         // the identifier text
}

func (x *Ident) exprNode() {}

func (x *Ident) Pos() token.Position { return x.NamePos }
func (x *Ident) End() token.Position { return x.NamePos.Advance(len(x.Name)) }

func (x *Ident) String() string { return x.Name }

// NewIdent creates an Ident from an IDENT token.
func NewIdent(tok token.Token) *Ident {
	return &Ident{NamePos: tok.StartPosition, Name: tok.Literal}
}

// Prefix is an expression node for a unary operator applied to an operand,
// e.g. -x, !ok, ~bits.
type Prefix struct {
	typeInfo
	OpPos   token.Position // position of the operator
	Op      token.Type     // one of - ! ~
	Operand Expr
}

func (x *Prefix) exprNode() {}

func (x *Prefix) Pos() token.Position { return x.OpPos }
func (x *Prefix) End() token.Position { return x.Operand.End() }

func (x *Prefix) String() string {
	return fmt.Sprintf("(%s%s)", x.Op, x.Operand)
}

// Infix is an expression node for a binary operator with two operands.
type Infix struct {
	typeInfo
	Left  Expr
	OpPos token.Position // position of the operator
	Op    token.Type
	Right Expr
}

func (x *Infix) exprNode() {}

func (x *Infix) Pos() token.Position { return x.Left.Pos() }
func (x *Infix) End() token.Position { return x.Right.End() }

func (x *Infix) String() string {
	return fmt.Sprintf("(%s %s %s)", x.Left, x.Op, x.Right)
}

// Assign is an expression node that stores a value into a named variable.
// Op is ASSIGN for plain assignment or a compound form such as PLUS_EQUALS.
type Assign struct {
	typeInfo
	Name  *Ident
	OpPos token.Position
	Op    token.Type
	Value Expr
}

func (x *Assign) exprNode() {}

func (x *Assign) Pos() token.Position { return x.Name.Pos() }
func (x *Assign) End() token.Position { return x.Value.End() }

func (x *Assign) String() string {
	return fmt.Sprintf("%s %s %s", x.Name, x.Op, x.Value)
}

// Call is an expression node for a function call.
type Call struct {
	typeInfo
	Fn     *Ident // the callee
	Lparen token.Position
	Args   []Expr
	Rparen token.Position
}

func (x *Call) exprNode() {}

func (x *Call) Pos() token.Position { return x.Fn.Pos() }
func (x *Call) End() token.Position { return x.Rparen.Advance(1) }

func (x *Call) String() string {
	args := make([]string, 0, len(x.Args))
	for _, a := range x.Args {
		args = append(args, a.String())
	}
	return fmt.Sprintf("%s(%s)", x.Fn, strings.Join(args, ", "))
}

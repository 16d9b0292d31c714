// Package ast defines the abstract syntax tree representation of Luma code.
//
// The tree is a tagged variant: one struct per node kind, matched
// exhaustively by every consumer. Nodes are owned exclusively by the tree
// that contains them; passes that rewrite the tree build new nodes rather
// than mutating shared fragments.
package ast

import (
	"github.com/lumalang/luma/token"
	"github.com/lumalang/luma/types"
)

// Node represents a portion of the syntax tree. All nodes have position
// information indicating where they appear in the source code.
type Node interface {
	// Pos returns the position of the first character belonging to the node.
	Pos() token.Position

	// End returns the position of the first character immediately after the node.
	End() token.Position

	// String returns a human friendly representation of the Node. This should
	// be similar to the original source code, but not necessarily identical.
	String() string
}

// Stmt represents a statement node. Statements cause side effects but
// do not evaluate to a value.
type Stmt interface {
	Node
	stmtNode()
}

// Expr represents an expression node. Expressions evaluate to a value and
// may be embedded within other expressions. After type checking, every
// expression carries the type assigned to it.
type Expr interface {
	Node
	exprNode()

	// Type returns the type annotation set by the checker, or nil before
	// type checking has run.
	Type() *types.Type

	// SetType records the checker's type annotation on the node.
	SetType(*types.Type)
}

// typeInfo holds the checker's type annotation. Every expression node
// embeds it.
type typeInfo struct {
	typ *types.Type
}

func (t *typeInfo) Type() *types.Type       { return t.typ }
func (t *typeInfo) SetType(typ *types.Type) { t.typ = typ }

// Program is the root node: an ordered sequence of top-level statements,
// typically function declarations.
type Program struct {
	Stmts []Stmt
}

func (p *Program) Pos() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[0].Pos()
	}
	return token.NoPos
}

func (p *Program) End() token.Position {
	if len(p.Stmts) > 0 {
		return p.Stmts[len(p.Stmts)-1].End()
	}
	return token.NoPos
}

func (p *Program) String() string {
	var out string
	for i, stmt := range p.Stmts {
		if i > 0 {
			out += "\n"
		}
		out += stmt.String()
	}
	return out
}

// Funcs returns the top-level function declarations in declaration order.
func (p *Program) Funcs() []*Func {
	var funcs []*Func
	for _, stmt := range p.Stmts {
		if fn, ok := stmt.(*Func); ok {
			funcs = append(funcs, fn)
		}
	}
	return funcs
}

// BadExpr represents an expression containing syntax errors. It is used by
// the parser to continue parsing after an error, allowing subsequent errors
// to be detected without giving up.
type BadExpr struct {
	typeInfo
	From token.Position // start of bad expression
	To   token.Position // end of bad expression
}

func (x *BadExpr) exprNode() {}

func (x *BadExpr) Pos() token.Position { return x.From }
func (x *BadExpr) End() token.Position { return x.To }
func (x *BadExpr) String() string      { return "<bad expression>" }

// BadStmt represents a statement containing syntax errors.
type BadStmt struct {
	From token.Position // start of bad statement
	To   token.Position // end of bad statement
}

func (x *BadStmt) stmtNode() {}

func (x *BadStmt) Pos() token.Position { return x.From }
func (x *BadStmt) End() token.Position { return x.To }
func (x *BadStmt) String() string      { return "<bad statement>" }

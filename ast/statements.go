package ast

import (
	"fmt"
	"strings"

	"github.com/lumalang/luma/token"
	"github.com/lumalang/luma/types"
)

// Let is a statement node declaring a new variable in the current scope,
// e.g. "let x: i32 = 5;". The declared type is optional; when absent it is
// inferred from the initializer.
type Let struct {
	LetPos   token.Position // position of the "let" keyword
	Name     *Ident
	TypeName string         // declared type name, or "" when inferred
	TypePos  token.Position // position of the type name, if present
	Value    Expr
}

func (s *Let) stmtNode() {}

func (s *Let) Pos() token.Position { return s.LetPos }
func (s *Let) End() token.Position { return s.Value.End() }

func (s *Let) String() string {
	if s.TypeName != "" {
		return fmt.Sprintf("let %s: %s = %s;", s.Name, s.TypeName, s.Value)
	}
	return fmt.Sprintf("let %s = %s;", s.Name, s.Value)
}

// Return is a statement node that exits the enclosing function, optionally
// yielding a value.
type Return struct {
	ReturnPos token.Position
	Value     Expr // nil for a bare "return;"
}

func (s *Return) stmtNode() {}

func (s *Return) Pos() token.Position { return s.ReturnPos }
func (s *Return) End() token.Position {
	if s.Value != nil {
		return s.Value.End()
	}
	return s.ReturnPos.Advance(6) // len("return")
}

func (s *Return) String() string {
	if s.Value != nil {
		return fmt.Sprintf("return %s;", s.Value)
	}
	return "return;"
}

// Block is a brace-delimited sequence of statements with its own scope.
type Block struct {
	Lbrace token.Position
	Stmts  []Stmt
	Rbrace token.Position
}

func (s *Block) stmtNode() {}

func (s *Block) Pos() token.Position { return s.Lbrace }
func (s *Block) End() token.Position { return s.Rbrace.Advance(1) }

func (s *Block) String() string {
	var b strings.Builder
	b.WriteString("{ ")
	for i, stmt := range s.Stmts {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(stmt.String())
	}
	b.WriteString(" }")
	return b.String()
}

// If is a conditional statement with an optional else branch. The else
// branch is either a Block or another If (for "else if" chains).
type If struct {
	IfPos     token.Position
	Condition Expr
	Then      *Block
	Else      Stmt // *Block, *If, or nil
}

func (s *If) stmtNode() {}

func (s *If) Pos() token.Position { return s.IfPos }
func (s *If) End() token.Position {
	if s.Else != nil {
		return s.Else.End()
	}
	return s.Then.End()
}

func (s *If) String() string {
	if s.Else != nil {
		return fmt.Sprintf("if (%s) %s else %s", s.Condition, s.Then, s.Else)
	}
	return fmt.Sprintf("if (%s) %s", s.Condition, s.Then)
}

// While is a loop statement that runs its body while the condition holds.
type While struct {
	WhilePos  token.Position
	Condition Expr
	Body      *Block
}

func (s *While) stmtNode() {}

func (s *While) Pos() token.Position { return s.WhilePos }
func (s *While) End() token.Position { return s.Body.End() }

func (s *While) String() string {
	return fmt.Sprintf("while (%s) %s", s.Condition, s.Body)
}

// For is a C-style loop: "for (init; cond; post) { body }". Each of the
// three clauses may be omitted.
type For struct {
	ForPos token.Position
	Init   Stmt // *Let or *ExprStmt, or nil
	Cond   Expr // nil means loop forever
	Post   Expr // nil when omitted
	Body   *Block
}

func (s *For) stmtNode() {}

func (s *For) Pos() token.Position { return s.ForPos }
func (s *For) End() token.Position { return s.Body.End() }

func (s *For) String() string {
	init, cond, post := "", "", ""
	if s.Init != nil {
		init = strings.TrimSuffix(s.Init.String(), ";")
	}
	if s.Cond != nil {
		cond = s.Cond.String()
	}
	if s.Post != nil {
		post = s.Post.String()
	}
	return fmt.Sprintf("for (%s; %s; %s) %s", init, cond, post, s.Body)
}

// Break is a statement node that exits the innermost enclosing loop.
type Break struct {
	BreakPos token.Position
}

func (s *Break) stmtNode() {}

func (s *Break) Pos() token.Position { return s.BreakPos }
func (s *Break) End() token.Position { return s.BreakPos.Advance(5) } // len("break")
func (s *Break) String() string      { return "break;" }

// Continue is a statement node that jumps to the next iteration of the
// innermost enclosing loop.
type Continue struct {
	ContinuePos token.Position
}

func (s *Continue) stmtNode() {}

func (s *Continue) Pos() token.Position { return s.ContinuePos }
func (s *Continue) End() token.Position { return s.ContinuePos.Advance(8) } // len("continue")
func (s *Continue) String() string      { return "continue;" }

// ExprStmt wraps an expression used in statement position, such as an
// assignment or a call whose value is discarded.
type ExprStmt struct {
	Expr Expr
}

func (s *ExprStmt) stmtNode() {}

func (s *ExprStmt) Pos() token.Position { return s.Expr.Pos() }
func (s *ExprStmt) End() token.Position { return s.Expr.End() }
func (s *ExprStmt) String() string      { return s.Expr.String() + ";" }

// Param is a function parameter: a name with a declared type.
type Param struct {
	Name     *Ident
	TypeName string
	TypePos  token.Position
}

func (p *Param) String() string {
	return fmt.Sprintf("%s: %s", p.Name, p.TypeName)
}

// Func is a named function declaration. The resolved signature is filled in
// by the type checker.
type Func struct {
	FuncPos    token.Position
	Name       *Ident
	Params     []*Param
	ReturnName string         // declared return type name, or "" for none
	ReturnPos  token.Position // position of the return type, if present
	Body       *Block

	// Sig is the resolved function type, set by the checker.
	Sig *types.Type
}

func (s *Func) stmtNode() {}

func (s *Func) Pos() token.Position { return s.FuncPos }
func (s *Func) End() token.Position { return s.Body.End() }

func (s *Func) String() string {
	params := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		params = append(params, p.String())
	}
	ret := ""
	if s.ReturnName != "" {
		ret = " -> " + s.ReturnName
	}
	return fmt.Sprintf("func %s(%s)%s %s", s.Name, strings.Join(params, ", "), ret, s.Body)
}

package ast

import (
	"fmt"

	"github.com/lumalang/luma/token"
)

// Int is an expression node that holds an integer literal.
type Int struct {
	typeInfo
	ValuePos token.Position // position of the literal
	Literal  string         // the literal text (e.g. "42", "0x2a", "0b1010")
	Value    int64          // the parsed value
}

func (x *Int) exprNode() {}

func (x *Int) Pos() token.Position { return x.ValuePos }
func (x *Int) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Int) String() string { return x.Literal }

// Float is an expression node that holds a floating point literal.
type Float struct {
	typeInfo
	ValuePos token.Position // position of the literal
	Literal  string         // the literal text
	Value    float64        // the parsed value
}

func (x *Float) exprNode() {}

func (x *Float) Pos() token.Position { return x.ValuePos }
func (x *Float) End() token.Position { return x.ValuePos.Advance(len(x.Literal)) }

func (x *Float) String() string { return x.Literal }

// Bool is an expression node that holds a boolean literal.
type Bool struct {
	typeInfo
	ValuePos token.Position // position of "true" or "false"
	Value    bool           // the boolean value
}

func (x *Bool) exprNode() {}

func (x *Bool) Pos() token.Position { return x.ValuePos }
func (x *Bool) End() token.Position { return x.ValuePos.Advance(len(x.String())) }

func (x *Bool) String() string {
	if x.Value {
		return "true"
	}
	return "false"
}

// Null is an expression node that holds a null literal.
type Null struct {
	typeInfo
	NullPos token.Position // position of the "null" keyword
}

func (x *Null) exprNode() {}

func (x *Null) Pos() token.Position { return x.NullPos }
func (x *Null) End() token.Position { return x.NullPos.Advance(4) } // len("null")

func (x *Null) String() string { return "null" }

// String is an expression node that holds a string literal.
type String struct {
	typeInfo
	ValuePos token.Position // position of the opening quote
	Value    string         // the unquoted, unescaped string value
	RawLen   int            // byte length of the literal including quotes
}

func (x *String) exprNode() {}

func (x *String) Pos() token.Position { return x.ValuePos }
func (x *String) End() token.Position { return x.ValuePos.Advance(x.RawLen) }

func (x *String) String() string { return fmt.Sprintf("%q", x.Value) }

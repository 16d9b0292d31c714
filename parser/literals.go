package parser

import (
	"strconv"
	"strings"

	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/token"
)

// parseInt parses an integer literal in decimal, hex (0x), or binary (0b)
// form. The lexer has already validated the shape, so the only failure mode
// left is overflow.
func (p *Parser) parseInt() ast.Expr {
	tok := p.curToken
	literal := tok.Literal
	digits := literal
	base := 10
	if strings.HasPrefix(literal, "0x") || strings.HasPrefix(literal, "0X") {
		base = 16
		digits = literal[2:]
	} else if strings.HasPrefix(literal, "0b") || strings.HasPrefix(literal, "0B") {
		base = 2
		digits = literal[2:]
	}
	value, err := strconv.ParseInt(digits, base, 64)
	if err != nil {
		p.errorf(errors.E1003, tok, "integer literal %q out of range", literal)
		return &ast.BadExpr{From: tok.StartPosition, To: tok.EndPosition}
	}
	return &ast.Int{ValuePos: tok.StartPosition, Literal: literal, Value: value}
}

// parseFloat parses a floating point literal.
func (p *Parser) parseFloat() ast.Expr {
	tok := p.curToken
	value, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errorf(errors.E1003, tok, "float literal %q out of range", tok.Literal)
		return &ast.BadExpr{From: tok.StartPosition, To: tok.EndPosition}
	}
	return &ast.Float{ValuePos: tok.StartPosition, Literal: tok.Literal, Value: value}
}

// parseString parses a string literal. The token literal already holds the
// unescaped value.
func (p *Parser) parseString() ast.Expr {
	tok := p.curToken
	return &ast.String{
		ValuePos: tok.StartPosition,
		Value:    tok.Literal,
		RawLen:   tok.EndPosition.Char - tok.StartPosition.Char,
	}
}

// parseBoolean parses a true or false literal.
func (p *Parser) parseBoolean() ast.Expr {
	return &ast.Bool{
		ValuePos: p.curToken.StartPosition,
		Value:    p.curToken.Type == token.TRUE,
	}
}

// parseNull parses the null literal.
func (p *Parser) parseNull() ast.Expr {
	return &ast.Null{NullPos: p.curToken.StartPosition}
}

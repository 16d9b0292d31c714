package parser

import (
	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/token"
)

// parseExpr implements precedence climbing: it parses a prefix expression
// and then folds in infix operators as long as their precedence is higher
// than the given minimum.
func (p *Parser) parseExpr(precedence int) ast.Expr {
	if !p.enterExpr() {
		defer p.leaveExpr()
		return &ast.BadExpr{From: p.curToken.StartPosition, To: p.curToken.EndPosition}
	}
	defer p.leaveExpr()

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.errorf(errors.E2001, p.curToken, "unexpected token %s", describe(p.curToken))
		return &ast.BadExpr{From: p.curToken.StartPosition, To: p.curToken.EndPosition}
	}
	left := prefix()

	for precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}
	return left
}

// parsePrefixExpr parses a unary operator expression: -x, !x, or ~x.
func (p *Parser) parsePrefixExpr() ast.Expr {
	expr := &ast.Prefix{
		OpPos: p.curToken.StartPosition,
		Op:    p.curToken.Type,
	}
	p.nextToken()
	expr.Operand = p.parseExpr(PREFIX)
	return expr
}

// parseInfixExpr parses a binary operator expression. Left associative
// operators parse their right side at the operator's own precedence;
// right associative operators (power) parse at one level lower so that
// a ** b ** c groups as a ** (b ** c).
func (p *Parser) parseInfixExpr(left ast.Expr) ast.Expr {
	expr := &ast.Infix{
		Left:  left,
		OpPos: p.curToken.StartPosition,
		Op:    p.curToken.Type,
	}
	precedence := p.curPrecedence()
	if rightAssociative[expr.Op] {
		precedence--
	}
	p.nextToken()
	expr.Right = p.parseExpr(precedence)
	return expr
}

// parseAssign parses an assignment expression, plain or compound. Only an
// identifier may appear on the left.
func (p *Parser) parseAssign(left ast.Expr) ast.Expr {
	opTok := p.curToken
	name, ok := left.(*ast.Ident)
	if !ok {
		p.errorf(errors.E2005, opTok, "invalid assignment target %q", left.String())
		return &ast.BadExpr{From: left.Pos(), To: p.curToken.EndPosition}
	}
	expr := &ast.Assign{
		Name:  name,
		OpPos: opTok.StartPosition,
		Op:    opTok.Type,
	}
	// Assignment is right associative: a = b = c parses as a = (b = c).
	p.nextToken()
	expr.Value = p.parseExpr(ASSIGN - 1)
	return expr
}

// parseCall parses a function call. The callee must be an identifier.
func (p *Parser) parseCall(fn ast.Expr) ast.Expr {
	lparen := p.curToken.StartPosition
	ident, ok := fn.(*ast.Ident)
	if !ok {
		p.errorf(errors.E2003, p.curToken, "%q is not callable", fn.String())
		return &ast.BadExpr{From: fn.Pos(), To: p.curToken.EndPosition}
	}
	call := &ast.Call{Fn: ident, Lparen: lparen}
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
		call.Rparen = p.curToken.StartPosition
		return call
	}
	p.nextToken()
	call.Args = append(call.Args, p.parseExpr(LOWEST))
	for p.peekToken.Type == token.COMMA {
		p.nextToken()
		p.nextToken()
		call.Args = append(call.Args, p.parseExpr(LOWEST))
	}
	if !p.expectPeek(token.RPAREN) {
		return &ast.BadExpr{From: fn.Pos(), To: p.curToken.EndPosition}
	}
	call.Rparen = p.curToken.StartPosition
	return call
}

// parseIdent parses an identifier reference.
func (p *Parser) parseIdent() ast.Expr {
	return ast.NewIdent(p.curToken)
}

// parseGroupedExpr parses a parenthesized expression.
func (p *Parser) parseGroupedExpr() ast.Expr {
	p.nextToken()
	expr := p.parseExpr(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return &ast.BadExpr{From: expr.Pos(), To: p.curToken.EndPosition}
	}
	return expr
}

// illegalToken is reached when the lexer emitted an ILLEGAL token. The lexer
// already recorded the diagnostic, so no second error is added here.
func (p *Parser) illegalToken() ast.Expr {
	return &ast.BadExpr{From: p.curToken.StartPosition, To: p.curToken.EndPosition}
}

// unexpectedEOF is reached when an expression is cut short by end of input.
func (p *Parser) unexpectedEOF() ast.Expr {
	p.errorf(errors.E2001, p.curToken, "unexpected end of input")
	return &ast.BadExpr{From: p.curToken.StartPosition, To: p.curToken.EndPosition}
}

package parser

import (
	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/token"
)

// parseStatement parses a single statement. The parser is left positioned on
// the final token of the statement (usually a semicolon or closing brace).
// Returns nil when the statement could not be parsed; a diagnostic has been
// recorded in that case.
func (p *Parser) parseStatement() ast.Stmt {
	// The typed returns are unwrapped through asStmt so that a failed parse
	// yields an untyped nil interface.
	switch p.curToken.Type {
	case token.FUNC:
		return asStmt(p.parseFunc())
	case token.LET:
		return asStmt(p.parseLet())
	case token.RETURN:
		return asStmt(p.parseReturn())
	case token.IF:
		return asStmt(p.parseIf())
	case token.WHILE:
		return asStmt(p.parseWhile())
	case token.FOR:
		return asStmt(p.parseFor())
	case token.BREAK:
		return asStmt(p.parseBreak())
	case token.CONTINUE:
		return asStmt(p.parseContinue())
	case token.LBRACE:
		return asStmt(p.parseBlock())
	case token.SEMICOLON:
		// Empty statement; nothing to record.
		return nil
	default:
		return p.parseExprStatement()
	}
}

// asStmt converts a concrete statement pointer to the Stmt interface,
// mapping a nil pointer to a nil interface value.
func asStmt[T ast.Stmt](stmt T) ast.Stmt {
	var zero T
	if any(stmt) == any(zero) {
		return nil
	}
	return stmt
}

// parseFunc parses a function declaration:
//
//	func name(a: i32, b: i32) -> i32 { ... }
func (p *Parser) parseFunc() *ast.Func {
	fn := &ast.Func{FuncPos: p.curToken.StartPosition}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	fn.Name = ast.NewIdent(p.curToken)
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if p.peekToken.Type != token.RPAREN {
		for {
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			param := &ast.Param{Name: ast.NewIdent(p.curToken)}
			if !p.expectPeek(token.COLON) {
				return nil
			}
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			param.TypeName = p.curToken.Literal
			param.TypePos = p.curToken.StartPosition
			fn.Params = append(fn.Params, param)
			if p.peekToken.Type != token.COMMA {
				break
			}
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if p.peekToken.Type == token.ARROW {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		fn.ReturnName = p.curToken.Literal
		fn.ReturnPos = p.curToken.StartPosition
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	fn.Body = p.parseBlock()
	return fn
}

// parseLet parses a variable declaration with an optional declared type:
//
//	let x = expr;
//	let x: i32 = expr;
func (p *Parser) parseLet() *ast.Let {
	stmt := &ast.Let{LetPos: p.curToken.StartPosition}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = ast.NewIdent(p.curToken)
	if p.peekToken.Type == token.COLON {
		p.nextToken()
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		stmt.TypeName = p.curToken.Literal
		stmt.TypePos = p.curToken.StartPosition
	}
	if !p.expectPeek(token.ASSIGN) {
		return nil
	}
	p.nextToken()
	errCount := len(p.diags)
	stmt.Value = p.parseExpr(LOWEST)
	if len(p.diags) > errCount {
		// The expression already produced a diagnostic; reporting the
		// missing semicolon too would just cascade.
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseReturn parses a return statement with an optional value.
func (p *Parser) parseReturn() *ast.Return {
	stmt := &ast.Return{ReturnPos: p.curToken.StartPosition}
	if p.peekToken.Type == token.SEMICOLON {
		p.nextToken()
		return stmt
	}
	p.nextToken()
	errCount := len(p.diags)
	stmt.Value = p.parseExpr(LOWEST)
	if len(p.diags) > errCount {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseIf parses a conditional with an optional else branch, which may be
// another if for "else if" chains.
func (p *Parser) parseIf() *ast.If {
	stmt := &ast.If{IfPos: p.curToken.StartPosition}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpr(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Then = p.parseBlock()
	if p.peekToken.Type == token.ELSE {
		p.nextToken()
		switch p.peekToken.Type {
		case token.IF:
			p.nextToken()
			if alt := p.parseIf(); alt != nil {
				stmt.Else = alt
			}
		case token.LBRACE:
			p.nextToken()
			stmt.Else = p.parseBlock()
		default:
			p.errorf(errors.E2002, p.peekToken, `expected "{" or "if" after "else", found %s`,
				describe(p.peekToken))
			return nil
		}
	}
	return stmt
}

// parseWhile parses a while loop.
func (p *Parser) parseWhile() *ast.While {
	stmt := &ast.While{WhilePos: p.curToken.StartPosition}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpr(LOWEST)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

// parseFor parses a C-style for loop. Any of the three header clauses may
// be empty: for (;;) { ... } loops forever.
func (p *Parser) parseFor() *ast.For {
	stmt := &ast.For{ForPos: p.curToken.StartPosition}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}

	// Init clause, ending on its semicolon.
	switch p.peekToken.Type {
	case token.SEMICOLON:
		p.nextToken()
	case token.LET:
		p.nextToken()
		init := p.parseLet()
		if init == nil {
			return nil
		}
		stmt.Init = init
	default:
		p.nextToken()
		errCount := len(p.diags)
		expr := p.parseExpr(LOWEST)
		if len(p.diags) > errCount {
			return nil
		}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
		stmt.Init = &ast.ExprStmt{Expr: expr}
	}

	// Condition clause.
	if p.peekToken.Type == token.SEMICOLON {
		p.nextToken()
	} else {
		p.nextToken()
		errCount := len(p.diags)
		stmt.Cond = p.parseExpr(LOWEST)
		if len(p.diags) > errCount {
			return nil
		}
		if !p.expectPeek(token.SEMICOLON) {
			return nil
		}
	}

	// Post clause.
	if p.peekToken.Type == token.RPAREN {
		p.nextToken()
	} else {
		p.nextToken()
		errCount := len(p.diags)
		stmt.Post = p.parseExpr(LOWEST)
		if len(p.diags) > errCount {
			return nil
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlock()
	return stmt
}

// parseBreak parses a break statement.
func (p *Parser) parseBreak() *ast.Break {
	stmt := &ast.Break{BreakPos: p.curToken.StartPosition}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseContinue parses a continue statement.
func (p *Parser) parseContinue() *ast.Continue {
	stmt := &ast.Continue{ContinuePos: p.curToken.StartPosition}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return stmt
}

// parseBlock parses a brace-delimited statement list. On entry the current
// token is the opening brace; on exit it is the closing brace. Statement
// errors inside the block are recovered at statement boundaries so the rest
// of the block is still parsed.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Lbrace: p.curToken.StartPosition}
	p.nextToken()
	for p.curToken.Type != token.RBRACE && p.curToken.Type != token.EOF {
		if p.tooManyErrors() {
			break
		}
		errCount := len(p.diags)
		before := p.curToken.StartPosition.Char
		stmt := p.parseStatement()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if stmt == nil && len(p.diags) > errCount {
			p.synchronize()
			if p.curToken.StartPosition.Char == before && p.curToken.Type != token.EOF &&
				p.curToken.Type != token.RBRACE {
				p.nextToken()
			}
		} else {
			p.nextToken()
		}
	}
	if p.curToken.Type != token.RBRACE {
		p.errorf(errors.E2002, p.curToken, `expected "}", found %s`, describe(p.curToken))
		return block
	}
	block.Rbrace = p.curToken.StartPosition
	return block
}

// parseExprStatement parses an expression in statement position, such as an
// assignment or a call whose result is discarded.
func (p *Parser) parseExprStatement() ast.Stmt {
	errCount := len(p.diags)
	expr := p.parseExpr(LOWEST)
	if len(p.diags) > errCount {
		return nil
	}
	if !p.expectPeek(token.SEMICOLON) {
		return nil
	}
	return &ast.ExprStmt{Expr: expr}
}

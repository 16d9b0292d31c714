// Package parser is used to generate the abstract syntax tree (AST) for a
// program.
//
// A parser is created by calling New() with a lexer as input. The parser
// should then be used only once, by calling parser.Parse() to produce the
// AST. When a statement fails to parse, the parser records a diagnostic,
// skips ahead to the next statement boundary, and continues, so a single
// pass reports as many errors as possible.
package parser

import (
	"context"

	"github.com/lumalang/luma/ast"
	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/lexer"
	"github.com/lumalang/luma/token"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// Parse the provided input as Luma source code and return the AST. This is a
// shorthand way to create a Lexer and Parser and then call Parse on that.
func Parse(ctx context.Context, input string, options ...Option) (*ast.Program, error) {
	l := lexer.New(input)
	p := New(l, options...)
	if p.filename != "" {
		l.SetFilename(p.filename)
	}
	return p.Parse(ctx)
}

// Option is a configuration function for a Parser.
type Option func(*Parser)

// WithFilename sets the file name used in positions and diagnostics.
func WithFilename(filename string) Option {
	return func(p *Parser) {
		p.filename = filename
	}
}

// WithMaxDepth sets the maximum nesting depth for the parser.
// This prevents stack overflow on deeply nested input.
// The default is 500.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// DefaultMaxDepth is the default maximum nesting depth for parsing.
const DefaultMaxDepth = 500

// MaxErrors is the maximum number of errors to collect before stopping.
const MaxErrors = 10

// Parser object
type Parser struct {
	// the Context supplied in the Parse() call
	ctx context.Context

	// l is our lexer
	l *lexer.Lexer

	// prevToken holds the previous token, which we already processed.
	prevToken token.Token

	// curToken holds the current token from the lexer.
	curToken token.Token

	// peekToken holds the next token from the lexer.
	peekToken token.Token

	// diagnostics collected during parsing, including lexer diagnostics
	diags []*errors.Diagnostic

	// stmtErrorCount tracks the error count at the start of the current
	// statement, so inner methods can detect whether an error was added
	// while parsing it.
	stmtErrorCount int

	// prefixParseFns holds a map of parsing methods for prefix-based syntax.
	prefixParseFns map[token.Type]prefixParseFn

	// infixParseFns holds a map of parsing methods for infix-based syntax.
	infixParseFns map[token.Type]infixParseFn

	// The filename of the input
	filename string

	// Current recursion depth
	depth int

	// Maximum allowed recursion depth
	maxDepth int
}

// New returns a Parser for the program provided by the given Lexer.
func New(l *lexer.Lexer, options ...Option) *Parser {
	p := &Parser{
		l:              l,
		prefixParseFns: map[token.Type]prefixParseFn{},
		infixParseFns:  map[token.Type]infixParseFn{},
		maxDepth:       DefaultMaxDepth,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.filename == "" {
		p.filename = l.Filename()
	}

	// Prime the token pump
	p.nextToken() // makes curToken=<empty>, peekToken=token[0]
	p.nextToken() // makes curToken=token[0], peekToken=token[1]

	// Register prefix-functions
	p.registerPrefix(token.INT, p.parseInt)
	p.registerPrefix(token.FLOAT, p.parseFloat)
	p.registerPrefix(token.STRING, p.parseString)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.NULL, p.parseNull)
	p.registerPrefix(token.IDENT, p.parseIdent)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpr)
	p.registerPrefix(token.MINUS, p.parsePrefixExpr)
	p.registerPrefix(token.BANG, p.parsePrefixExpr)
	p.registerPrefix(token.TILDE, p.parsePrefixExpr)
	p.registerPrefix(token.ILLEGAL, p.illegalToken)
	p.registerPrefix(token.EOF, p.unexpectedEOF)

	// Register infix functions
	p.registerInfix(token.PLUS, p.parseInfixExpr)
	p.registerInfix(token.MINUS, p.parseInfixExpr)
	p.registerInfix(token.ASTERISK, p.parseInfixExpr)
	p.registerInfix(token.SLASH, p.parseInfixExpr)
	p.registerInfix(token.MOD, p.parseInfixExpr)
	p.registerInfix(token.POW, p.parseInfixExpr)
	p.registerInfix(token.EQ, p.parseInfixExpr)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpr)
	p.registerInfix(token.LT, p.parseInfixExpr)
	p.registerInfix(token.LT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.GT, p.parseInfixExpr)
	p.registerInfix(token.GT_EQUALS, p.parseInfixExpr)
	p.registerInfix(token.LT_LT, p.parseInfixExpr)
	p.registerInfix(token.GT_GT, p.parseInfixExpr)
	p.registerInfix(token.AMPERSAND, p.parseInfixExpr)
	p.registerInfix(token.PIPE, p.parseInfixExpr)
	p.registerInfix(token.CARET, p.parseInfixExpr)
	p.registerInfix(token.AND, p.parseInfixExpr)
	p.registerInfix(token.OR, p.parseInfixExpr)
	p.registerInfix(token.ASSIGN, p.parseAssign)
	p.registerInfix(token.PLUS_EQUALS, p.parseAssign)
	p.registerInfix(token.MINUS_EQUALS, p.parseAssign)
	p.registerInfix(token.ASTERISK_EQUALS, p.parseAssign)
	p.registerInfix(token.SLASH_EQUALS, p.parseAssign)
	p.registerInfix(token.MOD_EQUALS, p.parseAssign)
	p.registerInfix(token.AMPERSAND_EQUALS, p.parseAssign)
	p.registerInfix(token.PIPE_EQUALS, p.parseAssign)
	p.registerInfix(token.CARET_EQUALS, p.parseAssign)
	p.registerInfix(token.LT_LT_EQUALS, p.parseAssign)
	p.registerInfix(token.GT_GT_EQUALS, p.parseAssign)
	p.registerInfix(token.LPAREN, p.parseCall)

	return p
}

// nextToken moves to the next token from the lexer, updating all of
// prevToken, curToken, and peekToken. Lexer errors become parser
// diagnostics; the ILLEGAL token they produce is handled by illegalToken.
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	var err error
	p.peekToken, err = p.l.Next()
	if err != nil {
		if d, ok := err.(*errors.Diagnostic); ok {
			p.diags = append(p.diags, d)
		}
	}
}

// Parse the program that is provided via the lexer.
// Returns the AST and any errors encountered. If there are errors, the AST
// may be partial (containing only successfully parsed statements).
func (p *Parser) Parse(ctx context.Context) (*ast.Program, error) {
	p.ctx = ctx
	var statements []ast.Stmt
	for p.curToken.Type != token.EOF {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if p.tooManyErrors() {
			break
		}
		p.stmtErrorCount = len(p.diags)
		before := p.curToken.StartPosition.Char
		stmt := p.parseStatement()
		if stmt != nil {
			statements = append(statements, stmt)
		}
		if stmt == nil && p.hadNewError() {
			p.synchronize()
			// Guarantee forward progress even when synchronize stops at the
			// offending token.
			if p.curToken.StartPosition.Char == before && p.curToken.Type != token.EOF {
				p.nextToken()
			}
		} else {
			// A statement that parsed, even one that recovered internally,
			// ends on its own final token.
			p.nextToken()
		}
	}
	program := &ast.Program{Stmts: statements}
	if len(p.diags) > 0 {
		return program, errors.Combine(p.diags)
	}
	return program, nil
}

// registerPrefix registers a function for handling a prefix-based expression.
func (p *Parser) registerPrefix(tokenType token.Type, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers a function for handling an infix-based expression.
func (p *Parser) registerInfix(tokenType token.Type, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// hadNewError returns true if an error was added during the current statement.
func (p *Parser) hadNewError() bool {
	return len(p.diags) > p.stmtErrorCount
}

// tooManyErrors returns true if the error limit has been reached.
func (p *Parser) tooManyErrors() bool {
	return len(p.diags) >= MaxErrors
}

// synchronize skips tokens until a statement boundary, so that parsing can
// resume and further errors can be reported. The boundary is a semicolon
// (consumed), a closing brace (left for the enclosing block), or a token
// that begins a statement.
func (p *Parser) synchronize() {
	for p.curToken.Type != token.EOF {
		if p.curToken.Type == token.SEMICOLON {
			p.nextToken()
			return
		}
		if p.curToken.Type == token.RBRACE {
			return
		}
		switch p.peekToken.Type {
		case token.FUNC, token.LET, token.RETURN, token.IF, token.WHILE,
			token.FOR, token.BREAK, token.CONTINUE:
			p.nextToken()
			return
		}
		p.nextToken()
	}
}

// errorf records a diagnostic at the given token.
func (p *Parser) errorf(code errors.ErrorCode, tok token.Token, format string, args ...any) {
	d := errors.NewAt(code, errors.SourceLocation{
		Filename: p.filename,
		Line:     tok.StartPosition.LineNumber(),
		Column:   tok.StartPosition.ColumnNumber(),
		Source:   p.l.GetLineText(tok),
	}, format, args...)
	if tok.EndPosition.Column > tok.StartPosition.Column {
		d.EndColumn = tok.EndPosition.ColumnNumber()
	}
	p.diags = append(p.diags, d)
}

// describe returns a printable description of a token for error messages.
func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.INT, token.FLOAT, token.IDENT:
		return `"` + tok.Literal + `"`
	case token.STRING:
		return "string literal"
	default:
		return `"` + string(tok.Type) + `"`
	}
}

// expectPeek validates that the next token is of the expected type, and
// advances to it. On mismatch it records a missing-token diagnostic and
// stays put.
func (p *Parser) expectPeek(expected token.Type) bool {
	if p.peekToken.Type == expected {
		p.nextToken()
		return true
	}
	p.errorf(errors.E2002, p.peekToken, "expected %q, found %s",
		string(expected), describe(p.peekToken))
	return false
}

// enterExpr increments the nesting depth, reporting an error when the
// maximum depth is exceeded.
func (p *Parser) enterExpr() bool {
	p.depth++
	if p.depth > p.maxDepth {
		p.errorf(errors.E2004, p.curToken, "expression nesting exceeds %d levels", p.maxDepth)
		return false
	}
	return true
}

func (p *Parser) leaveExpr() {
	p.depth--
}

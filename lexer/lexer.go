// Package lexer turns Luma source text into a stream of tokens.
//
// The lexer is error tolerant: when it hits something it cannot tokenize it
// records a diagnostic, emits an ILLEGAL token, and keeps scanning, so a
// single pass can surface every lexical problem in the input.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lumalang/luma/errors"
	"github.com/lumalang/luma/token"
)

// Lexer scans an input string and produces tokens via Next.
type Lexer struct {
	// input is the entire source text being scanned.
	input string

	// position is the byte offset of ch within input.
	position int

	// readPosition is the byte offset of the rune after ch.
	readPosition int

	// ch is the current rune, or 0 at end of input.
	ch rune

	// line is the current 0-indexed line number.
	line int

	// column is the current 0-indexed column number.
	column int

	// lineStart is the byte offset of the start of the current line.
	lineStart int

	// filename is an optional name used in positions and diagnostics.
	filename string

	// diags holds every lexical error found so far.
	diags []*errors.Diagnostic
}

// New returns a Lexer for the given input string.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// SetFilename sets the file name used in token positions and diagnostics.
func (l *Lexer) SetFilename(filename string) {
	l.filename = filename
}

// Filename returns the file name associated with the input, if any.
func (l *Lexer) Filename() string {
	return l.filename
}

// Errors returns every diagnostic recorded so far, in source order.
func (l *Lexer) Errors() []*errors.Diagnostic {
	return l.diags
}

// Reset rewinds the lexer to the beginning of the input so the token
// sequence can be scanned again.
func (l *Lexer) Reset() {
	l.position = 0
	l.readPosition = 0
	l.line = 0
	l.column = 0
	l.lineStart = 0
	l.diags = nil
	l.ch = 0
	l.readChar()
}

// Tokenize scans the entire input and returns all tokens including the
// trailing EOF token. The returned error combines every diagnostic found.
func (l *Lexer) Tokenize() ([]token.Token, error) {
	var toks []token.Token
	for {
		tok, _ := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks, errors.Combine(l.diags)
}

// GetLineText returns the text of the line that the given token starts on,
// without the trailing newline. Used for error message source context.
func (l *Lexer) GetLineText(tok token.Token) string {
	start := tok.StartPosition.LineStart
	if start < 0 || start > len(l.input) {
		return ""
	}
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		return l.input[start:]
	}
	return l.input[start : start+end]
}

// Next returns the next token from the input. When a lexical error occurs,
// the returned token has type ILLEGAL and the error is the recorded
// diagnostic; scanning may continue afterwards.
func (l *Lexer) Next() (token.Token, error) {
	l.skipWhitespaceAndComments()

	pos := l.currentPosition()

	switch {
	case l.ch == 0:
		return l.makeToken(token.EOF, "", pos), nil
	case isDigit(l.ch):
		return l.readNumber(pos)
	case isIdentStart(l.ch):
		return l.readIdentifier(pos), nil
	case l.ch == '"':
		return l.readString(pos)
	}

	if tok, ok := l.readOperator(pos); ok {
		return tok, nil
	}

	diag := l.errorf(errors.E1001, pos, l.position+utf8.RuneLen(l.ch),
		"invalid character %q", l.ch)
	illegal := l.makeToken(token.ILLEGAL, string(l.ch), pos)
	l.readChar()
	return illegal, diag
}

// readChar advances to the next rune in the input.
func (l *Lexer) readChar() {
	// Account for the rune being stepped over. At priming time ch is zero
	// and the column stays at 0 for the first rune.
	if l.ch == '\n' {
		l.line++
		l.column = 0
		l.lineStart = l.readPosition
	} else if l.ch != 0 {
		l.column++
	}
	if l.readPosition >= len(l.input) {
		l.position = l.readPosition
		l.ch = 0
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.position = l.readPosition
	l.readPosition += size
	l.ch = r
}

// peekChar returns the rune after the current one without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// peekChar2 returns the rune two positions ahead without advancing.
func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	if l.readPosition+size >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition+size:])
	return r
}

func (l *Lexer) currentPosition() token.Position {
	return token.Position{
		Char:      l.position,
		LineStart: l.lineStart,
		Line:      l.line,
		Column:    l.column,
		File:      l.filename,
	}
}

func (l *Lexer) makeToken(typ token.Type, literal string, start token.Position) token.Token {
	return token.Token{
		Type:          typ,
		Literal:       literal,
		StartPosition: start,
		EndPosition:   l.currentPosition(),
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

// readIdentifier scans an identifier or keyword.
func (l *Lexer) readIdentifier(pos token.Position) token.Token {
	start := l.position
	for isIdentPart(l.ch) {
		l.readChar()
	}
	literal := l.input[start:l.position]
	return l.makeToken(token.LookupIdentifier(literal), literal, pos)
}

// readNumber scans an integer or float literal. Supported forms are decimal
// integers, 0x hex, 0b binary, and floats with an optional e/E exponent.
func (l *Lexer) readNumber(pos token.Position) (token.Token, error) {
	start := l.position

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar() // 0
		l.readChar() // x
		digits := 0
		for isHexDigit(l.ch) {
			digits++
			l.readChar()
		}
		literal := l.input[start:l.position]
		if digits == 0 || isIdentPart(l.ch) {
			return l.badNumber(pos, start)
		}
		return l.makeToken(token.INT, literal, pos), nil
	}

	if l.ch == '0' && (l.peekChar() == 'b' || l.peekChar() == 'B') {
		l.readChar() // 0
		l.readChar() // b
		digits := 0
		for l.ch == '0' || l.ch == '1' {
			digits++
			l.readChar()
		}
		literal := l.input[start:l.position]
		if digits == 0 || isIdentPart(l.ch) || isDigit(l.ch) {
			return l.badNumber(pos, start)
		}
		return l.makeToken(token.INT, literal, pos), nil
	}

	isFloat := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekChar2())) {
			isFloat = true
			l.readChar() // e
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		} else {
			// "1e" or "1e+" with no digits following
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			return l.badNumber(pos, start)
		}
	}

	// A number may not run directly into an identifier or a second decimal
	// point: "1.2.3" and "123abc" are malformed.
	if isIdentPart(l.ch) || (l.ch == '.' && isDigit(l.peekChar())) {
		return l.badNumber(pos, start)
	}

	literal := l.input[start:l.position]
	if isFloat {
		return l.makeToken(token.FLOAT, literal, pos), nil
	}
	return l.makeToken(token.INT, literal, pos), nil
}

// badNumber consumes the remainder of a malformed numeric literal, records a
// diagnostic, and returns an ILLEGAL token covering the whole literal.
func (l *Lexer) badNumber(pos token.Position, start int) (token.Token, error) {
	for isIdentPart(l.ch) || l.ch == '.' || isDigit(l.ch) {
		l.readChar()
	}
	literal := l.input[start:l.position]
	diag := l.errorf(errors.E1003, pos, l.position,
		"invalid number format %q", literal)
	return l.makeToken(token.ILLEGAL, literal, pos), diag
}

// readString scans a double-quoted string literal with escape sequences.
// The token literal holds the unescaped string contents.
func (l *Lexer) readString(pos token.Position) (token.Token, error) {
	var b strings.Builder
	l.readChar() // consume opening quote
	for {
		switch l.ch {
		case '"':
			l.readChar() // consume closing quote
			return l.makeToken(token.STRING, b.String(), pos), nil
		case 0, '\n':
			diag := l.errorf(errors.E1002, pos, l.position, "unterminated string literal")
			return l.makeToken(token.ILLEGAL, b.String(), pos), diag
		case '\\':
			escPos := l.currentPosition()
			l.readChar()
			switch l.ch {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case 0, '\n':
				diag := l.errorf(errors.E1002, pos, l.position, "unterminated string literal")
				return l.makeToken(token.ILLEGAL, b.String(), pos), diag
			default:
				// Record the bad escape but keep scanning the string so the
				// closing quote is still consumed.
				l.errorf(errors.E1004, escPos, l.position+utf8.RuneLen(l.ch),
					"invalid escape sequence \"\\%c\"", l.ch)
				b.WriteRune(l.ch)
			}
			l.readChar()
		default:
			b.WriteRune(l.ch)
			l.readChar()
		}
	}
}

// operators maps literal operator text to token types. Scanning tries the
// longest form first so that "<<=" wins over "<<" and "<<" over "<".
var operators = map[string]token.Type{
	"<<=": token.LT_LT_EQUALS,
	">>=": token.GT_GT_EQUALS,
	"**":  token.POW,
	"==":  token.EQ,
	"!=":  token.NOT_EQ,
	"<=":  token.LT_EQUALS,
	">=":  token.GT_EQUALS,
	"&&":  token.AND,
	"||":  token.OR,
	"+=":  token.PLUS_EQUALS,
	"-=":  token.MINUS_EQUALS,
	"*=":  token.ASTERISK_EQUALS,
	"/=":  token.SLASH_EQUALS,
	"%=":  token.MOD_EQUALS,
	"&=":  token.AMPERSAND_EQUALS,
	"|=":  token.PIPE_EQUALS,
	"^=":  token.CARET_EQUALS,
	"<<":  token.LT_LT,
	">>":  token.GT_GT,
	"->":  token.ARROW,
	"+":   token.PLUS,
	"-":   token.MINUS,
	"*":   token.ASTERISK,
	"/":   token.SLASH,
	"%":   token.MOD,
	"=":   token.ASSIGN,
	"<":   token.LT,
	">":   token.GT,
	"!":   token.BANG,
	"&":   token.AMPERSAND,
	"|":   token.PIPE,
	"^":   token.CARET,
	"~":   token.TILDE,
	"(":   token.LPAREN,
	")":   token.RPAREN,
	"{":   token.LBRACE,
	"}":   token.RBRACE,
	",":   token.COMMA,
	";":   token.SEMICOLON,
	":":   token.COLON,
}

// readOperator scans an operator or punctuation token using longest-match.
func (l *Lexer) readOperator(pos token.Position) (token.Token, bool) {
	three := string(l.ch) + string(l.peekChar()) + string(l.peekChar2())
	if typ, ok := operators[three]; ok {
		l.readChar()
		l.readChar()
		l.readChar()
		return l.makeToken(typ, three, pos), true
	}
	two := string(l.ch) + string(l.peekChar())
	if typ, ok := operators[two]; ok {
		l.readChar()
		l.readChar()
		return l.makeToken(typ, two, pos), true
	}
	one := string(l.ch)
	if typ, ok := operators[one]; ok {
		l.readChar()
		return l.makeToken(typ, one, pos), true
	}
	return token.Token{}, false
}

// errorf records a diagnostic spanning [pos, endChar) and returns it.
func (l *Lexer) errorf(code errors.ErrorCode, pos token.Position, endChar int, format string, args ...any) *errors.Diagnostic {
	d := errors.NewAt(code, errors.SourceLocation{
		Filename: l.filename,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   l.lineTextAt(pos),
	}, format, args...)
	d.EndColumn = pos.ColumnNumber() + (endChar - pos.Char)
	l.diags = append(l.diags, d)
	return d
}

func (l *Lexer) lineTextAt(pos token.Position) string {
	start := pos.LineStart
	if start < 0 || start > len(l.input) {
		return ""
	}
	end := strings.IndexByte(l.input[start:], '\n')
	if end < 0 {
		return l.input[start:]
	}
	return l.input[start : start+end]
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func isIdentStart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch)
}

func isIdentPart(ch rune) bool {
	return ch == '_' || unicode.IsLetter(ch) || unicode.IsDigit(ch)
}

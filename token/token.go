// Package token defines language keywords and tokens used when lexing source code.
package token

// Type describes the type of a token as a string.
type Type string

// Position points to a particular location in an input string.
type Position struct {
	Char      int    // byte offset within the file
	LineStart int    // byte offset of the start of the current line
	Line      int    // 0-indexed line number
	Column    int    // 0-indexed column number
	File      string // filename
}

// LineNumber returns the 1-indexed line number for this position in the input.
func (p Position) LineNumber() int {
	return p.Line + 1
}

// ColumnNumber returns the 1-indexed column number for this position in the input.
func (p Position) ColumnNumber() int {
	return p.Column + 1
}

// Advance returns a new Position advanced by n bytes.
// Used for computing End positions from a start position.
// Note: This assumes the advance does not cross line boundaries.
func (p Position) Advance(n int) Position {
	return Position{
		Char:      p.Char + n,
		LineStart: p.LineStart,
		Line:      p.Line,
		Column:    p.Column + n,
		File:      p.File,
	}
}

// IsValid returns true if this position has been set.
func (p Position) IsValid() bool {
	return p.File != "" || p.Line > 0 || p.Column > 0 || p.Char > 0
}

// NoPos is the zero value Position, representing an invalid/unset position.
var NoPos = Position{}

// Token represents one token lexed from the input source code.
type Token struct {
	Type          Type
	Literal       string
	StartPosition Position
	EndPosition   Position
}

// Token types
const (
	AMPERSAND        Type = "&"
	AMPERSAND_EQUALS Type = "&="
	AND              Type = "&&"
	ARROW            Type = "->"
	ASSIGN           Type = "="
	ASTERISK         Type = "*"
	ASTERISK_EQUALS  Type = "*="
	BANG             Type = "!"
	BREAK            Type = "BREAK"
	CARET            Type = "^"
	CARET_EQUALS     Type = "^="
	COLON            Type = ":"
	COMMA            Type = ","
	CONTINUE         Type = "CONTINUE"
	ELSE             Type = "ELSE"
	EOF              Type = "EOF"
	EQ               Type = "=="
	FALSE            Type = "FALSE"
	FLOAT            Type = "FLOAT"
	FOR              Type = "FOR"
	FUNC             Type = "FUNC"
	GT               Type = ">"
	GT_EQUALS        Type = ">="
	GT_GT            Type = ">>"
	GT_GT_EQUALS     Type = ">>="
	IDENT            Type = "IDENT"
	IF               Type = "IF"
	ILLEGAL          Type = "ILLEGAL"
	INT              Type = "INT"
	LBRACE           Type = "{"
	LET              Type = "LET"
	LPAREN           Type = "("
	LT               Type = "<"
	LT_EQUALS        Type = "<="
	LT_LT            Type = "<<"
	LT_LT_EQUALS     Type = "<<="
	MINUS            Type = "-"
	MINUS_EQUALS     Type = "-="
	MOD              Type = "%"
	MOD_EQUALS       Type = "%="
	NOT_EQ           Type = "!="
	NULL             Type = "NULL"
	OR               Type = "||"
	PIPE             Type = "|"
	PIPE_EQUALS      Type = "|="
	PLUS             Type = "+"
	PLUS_EQUALS      Type = "+="
	POW              Type = "**"
	RBRACE           Type = "}"
	RETURN           Type = "RETURN"
	RPAREN           Type = ")"
	SEMICOLON        Type = ";"
	SLASH            Type = "/"
	SLASH_EQUALS     Type = "/="
	STRING           Type = "STRING"
	TILDE            Type = "~"
	TRUE             Type = "TRUE"
	WHILE            Type = "WHILE"
)

// Reserved keywords
var keywords = map[string]Type{
	"break":    BREAK,
	"continue": CONTINUE,
	"else":     ELSE,
	"false":    FALSE,
	"for":      FOR,
	"func":     FUNC,
	"if":       IF,
	"let":      LET,
	"null":     NULL,
	"return":   RETURN,
	"true":     TRUE,
	"while":    WHILE,
}

// LookupIdentifier is used to determine whether an identifier is a keyword or not.
func LookupIdentifier(identifier string) Type {
	if tok, ok := keywords[identifier]; ok {
		return tok
	}
	return IDENT
}

// IsCompoundAssign returns true for compound assignment operator tokens
// such as += and <<=.
func IsCompoundAssign(t Type) bool {
	switch t {
	case PLUS_EQUALS, MINUS_EQUALS, ASTERISK_EQUALS, SLASH_EQUALS, MOD_EQUALS,
		AMPERSAND_EQUALS, PIPE_EQUALS, CARET_EQUALS, LT_LT_EQUALS, GT_GT_EQUALS:
		return true
	}
	return false
}

// BinaryOp returns the underlying binary operator for a compound assignment
// token: += yields +, <<= yields <<, and so on. The second return value is
// false if the token is not a compound assignment.
func BinaryOp(t Type) (Type, bool) {
	switch t {
	case PLUS_EQUALS:
		return PLUS, true
	case MINUS_EQUALS:
		return MINUS, true
	case ASTERISK_EQUALS:
		return ASTERISK, true
	case SLASH_EQUALS:
		return SLASH, true
	case MOD_EQUALS:
		return MOD, true
	case AMPERSAND_EQUALS:
		return AMPERSAND, true
	case PIPE_EQUALS:
		return PIPE, true
	case CARET_EQUALS:
		return CARET, true
	case LT_LT_EQUALS:
		return LT_LT, true
	case GT_GT_EQUALS:
		return GT_GT, true
	}
	return t, false
}

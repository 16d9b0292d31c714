package parser

import "github.com/lumalang/luma/token"

// Precedence order for operators, lowest to highest.
const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -= *= /= %= &= |= ^= <<= >>=
	OR          // ||
	AND         // &&
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	POWER       // **
	PREFIX      // -x !x ~x
	CALL        // f(x)
)

// precedences maps token types to their operator precedence.
var precedences = map[token.Type]int{
	token.ASSIGN:           ASSIGN,
	token.PLUS_EQUALS:      ASSIGN,
	token.MINUS_EQUALS:     ASSIGN,
	token.ASTERISK_EQUALS:  ASSIGN,
	token.SLASH_EQUALS:     ASSIGN,
	token.MOD_EQUALS:       ASSIGN,
	token.AMPERSAND_EQUALS: ASSIGN,
	token.PIPE_EQUALS:      ASSIGN,
	token.CARET_EQUALS:     ASSIGN,
	token.LT_LT_EQUALS:     ASSIGN,
	token.GT_GT_EQUALS:     ASSIGN,
	token.OR:               OR,
	token.AND:              AND,
	token.PIPE:             BITOR,
	token.CARET:            BITXOR,
	token.AMPERSAND:        BITAND,
	token.EQ:               EQUALS,
	token.NOT_EQ:           EQUALS,
	token.LT:               LESSGREATER,
	token.LT_EQUALS:        LESSGREATER,
	token.GT:               LESSGREATER,
	token.GT_EQUALS:        LESSGREATER,
	token.LT_LT:            SHIFT,
	token.GT_GT:            SHIFT,
	token.PLUS:             SUM,
	token.MINUS:            SUM,
	token.ASTERISK:         PRODUCT,
	token.SLASH:            PRODUCT,
	token.MOD:              PRODUCT,
	token.POW:              POWER,
	token.LPAREN:           CALL,
}

// rightAssociative marks the operators that bind right to left. Everything
// else is left associative.
var rightAssociative = map[token.Type]bool{
	token.ASSIGN:           true,
	token.PLUS_EQUALS:      true,
	token.MINUS_EQUALS:     true,
	token.ASTERISK_EQUALS:  true,
	token.SLASH_EQUALS:     true,
	token.MOD_EQUALS:       true,
	token.AMPERSAND_EQUALS: true,
	token.PIPE_EQUALS:      true,
	token.CARET_EQUALS:     true,
	token.LT_LT_EQUALS:     true,
	token.GT_GT_EQUALS:     true,
	token.POW:              true,
}

// peekPrecedence returns the precedence of the next token, or LOWEST if the
// next token is not an operator.
func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// curPrecedence returns the precedence of the current token, or LOWEST if
// the current token is not an operator.
func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Lex errors
//   - E2xxx: Parse errors
//   - E3xxx: Type errors
//   - E4xxx: Code generation errors
//   - E5xxx: Runtime errors
type ErrorCode string

const (
	// Lex errors (E1xxx)
	E1001 ErrorCode = "E1001" // Invalid character
	E1002 ErrorCode = "E1002" // Unterminated string literal
	E1003 ErrorCode = "E1003" // Invalid number format
	E1004 ErrorCode = "E1004" // Invalid escape sequence

	// Parse errors (E2xxx)
	E2001 ErrorCode = "E2001" // Unexpected token
	E2002 ErrorCode = "E2002" // Missing token
	E2003 ErrorCode = "E2003" // Invalid syntax
	E2004 ErrorCode = "E2004" // Maximum nesting depth exceeded
	E2005 ErrorCode = "E2005" // Invalid assignment target

	// Type errors (E3xxx)
	E3001 ErrorCode = "E3001" // Type mismatch
	E3002 ErrorCode = "E3002" // Undefined identifier
	E3003 ErrorCode = "E3003" // Wrong number of arguments
	E3004 ErrorCode = "E3004" // Invalid operand type
	E3005 ErrorCode = "E3005" // Duplicate declaration

	// Code generation errors (E4xxx)
	E4001 ErrorCode = "E4001" // Undefined variable
	E4002 ErrorCode = "E4002" // Invalid operation
	E4003 ErrorCode = "E4003" // Type conversion error

	// Runtime errors (E5xxx)
	E5001 ErrorCode = "E5001" // Out of bounds memory access
	E5002 ErrorCode = "E5002" // Misaligned memory access
	E5003 ErrorCode = "E5003" // Null dereference
	E5004 ErrorCode = "E5004" // Allocation failure
	E5005 ErrorCode = "E5005" // Division by zero
	E5006 ErrorCode = "E5006" // Index out of bounds
	E5007 ErrorCode = "E5007" // Invalid range
	E5008 ErrorCode = "E5008" // Invalid argument
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "invalid character",
	E1002: "unterminated string literal",
	E1003: "invalid number format",
	E1004: "invalid escape sequence",
	E2001: "unexpected token",
	E2002: "missing token",
	E2003: "invalid syntax",
	E2004: "maximum nesting depth exceeded",
	E2005: "invalid assignment target",
	E3001: "type mismatch",
	E3002: "undefined identifier",
	E3003: "wrong number of arguments",
	E3004: "invalid operand type",
	E3005: "duplicate declaration",
	E4001: "undefined variable",
	E4002: "invalid operation",
	E4003: "type conversion error",
	E5001: "out of bounds memory access",
	E5002: "misaligned memory access",
	E5003: "null dereference",
	E5004: "allocation failure",
	E5005: "division by zero",
	E5006: "index out of bounds",
	E5007: "invalid range",
	E5008: "invalid argument",
}

// Description returns the short description for an error code, or an empty
// string if the code is unknown.
func (c ErrorCode) Description() string {
	return codeDescriptions[c]
}

// Category returns the human readable category for an error code, for
// example "parse error" for E2xxx codes.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "error"
	}
	switch c[1] {
	case '1':
		return "lex error"
	case '2':
		return "parse error"
	case '3':
		return "type error"
	case '4':
		return "generator error"
	case '5':
		return "runtime error"
	}
	return "error"
}

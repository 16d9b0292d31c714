package mem

import (
	"fmt"

	"github.com/lumalang/luma/errors"
)

// Trap codes. Traps are unrecoverable run-time faults.
const (
	OutOfBounds       = errors.E5001
	Misalignment      = errors.E5002
	NullDereference   = errors.E5003
	AllocationFailure = errors.E5004
	DivisionByZero    = errors.E5005
	IndexOutOfBounds  = errors.E5006
	InvalidRange      = errors.E5007
	InvalidArgument   = errors.E5008
)

// Trap is a run-time fault. Execution does not continue past one.
type Trap struct {
	Code    errors.ErrorCode
	Message string
}

// NewTrap creates a trap with the given code and formatted message.
func NewTrap(code errors.ErrorCode, format string, args ...any) *Trap {
	return &Trap{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (t *Trap) Error() string {
	return fmt.Sprintf("%s: %s", t.Code.Category(), t.Message)
}

// AsTrap extracts a Trap from an error chain.
func AsTrap(err error) (*Trap, bool) {
	if t, ok := err.(*Trap); ok {
		return t, true
	}
	return nil, false
}

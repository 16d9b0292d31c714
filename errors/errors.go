// Package errors defines diagnostic types with error codes and source locations.
package errors

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/lumalang/luma/token"
)

// SourceLocation represents a position in source code.
type SourceLocation struct {
	Filename string
	Line     int    // 1-based line number
	Column   int    // 1-based column number
	Source   string // The line of source code
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", s.Filename, s.Line, s.Column)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// LocationFromPosition converts a lexer token position to a SourceLocation.
func LocationFromPosition(pos token.Position, sourceLine string) SourceLocation {
	return SourceLocation{
		Filename: pos.File,
		Line:     pos.LineNumber(),
		Column:   pos.ColumnNumber(),
		Source:   sourceLine,
	}
}

// Diagnostic is a single compile-time or run-time problem, carrying an error
// code, a message, and the source location where it was discovered.
type Diagnostic struct {
	Code      ErrorCode
	Message   string
	Location  SourceLocation
	EndColumn int    // for multi-character underlines (0 if unknown)
	Hint      string // "did you mean?" style suggestion
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Location.IsZero() {
		return fmt.Sprintf("%s: %s", d.Code.Category(), d.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Code.Category(), d.Message, d.Location)
}

// FriendlyErrorMessage returns the diagnostic rendered by the default
// (uncolored) formatter.
func (d *Diagnostic) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(d.ToFormatted())
}

// ToFormatted converts the diagnostic to a FormattedError for display.
func (d *Diagnostic) ToFormatted() *FormattedError {
	f := &FormattedError{
		Code:      d.Code,
		Kind:      d.Code.Category(),
		Message:   d.Message,
		Filename:  d.Location.Filename,
		Line:      d.Location.Line,
		Column:    d.Location.Column,
		EndColumn: d.EndColumn,
		Hint:      d.Hint,
	}
	if d.Location.Source != "" {
		f.SourceLines = []SourceLineEntry{
			{Number: d.Location.Line, Text: d.Location.Source, IsMain: true},
		}
	}
	return f
}

// New creates a Diagnostic with the given code and formatted message.
func New(code ErrorCode, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewAt creates a Diagnostic at the given location.
func NewAt(code ErrorCode, loc SourceLocation, format string, args ...any) *Diagnostic {
	return &Diagnostic{Code: code, Message: fmt.Sprintf(format, args...), Location: loc}
}

// Combine merges a list of diagnostics into a single error value. It returns
// nil when the list is empty, so callers can use it directly as a stage
// result. The returned error unwraps to every individual diagnostic.
func Combine(diags []*Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	var result *multierror.Error
	result = &multierror.Error{ErrorFormat: listFormat}
	for _, d := range diags {
		result = multierror.Append(result, d)
	}
	return result.ErrorOrNil()
}

// Diagnostics extracts the individual diagnostics from an error produced by
// Combine. A plain error yields an empty slice.
func Diagnostics(err error) []*Diagnostic {
	if err == nil {
		return nil
	}
	if d, ok := err.(*Diagnostic); ok {
		return []*Diagnostic{d}
	}
	var merr *multierror.Error
	if m, ok := err.(*multierror.Error); ok {
		merr = m
	} else {
		return nil
	}
	var out []*Diagnostic
	for _, e := range merr.Errors {
		if d, ok := e.(*Diagnostic); ok {
			out = append(out, d)
		}
	}
	return out
}

// listFormat renders combined diagnostics one per line, without the
// multierror bullet preamble.
func listFormat(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msg := fmt.Sprintf("%d errors occurred:", len(errs))
	for _, err := range errs {
		msg += "\n  " + err.Error()
	}
	return msg
}

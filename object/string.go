// Package object implements the host-side string runtime.
//
// Strings never enter compiled code; they live in the host and are backed
// by the same linear memory the compiled module uses. Small strings are
// stored inline in the handle itself (small string optimization); longer
// ones are allocated from linear memory with a NUL terminator. The
// representation is decided by length alone, so it is deterministic: a
// string of InlineCapacity bytes is always inline and one byte more is
// always on the heap.
//
// All operations are non-destructive. Anything that would modify a string
// returns a new instance, and Free is a no-op to match the memory model.
package object

import (
	"strings"

	"github.com/lumalang/luma/mem"
)

// InlineCapacity is the longest byte length stored inline in the handle.
const InlineCapacity = 23

// String is an immutable string value.
type String struct {
	m      *mem.Memory
	value  string
	addr   uint32 // heap address, 0 when inline
	inline [InlineCapacity]byte
}

// NewString creates a string. Values longer than InlineCapacity are written
// to linear memory with capacity length+1 (the extra byte is a NUL
// terminator); shorter values are stored inline and never touch memory.
func NewString(m *mem.Memory, value string) (*String, error) {
	s := &String{m: m, value: value}
	if len(value) <= InlineCapacity {
		copy(s.inline[:], value)
		return s, nil
	}
	addr, err := m.Alloc(uint32(len(value)) + 1)
	if err != nil {
		return nil, err
	}
	if err := m.WriteBytes(addr, append([]byte(value), 0)); err != nil {
		return nil, err
	}
	s.addr = addr
	return s, nil
}

// Value returns the string contents.
func (s *String) Value() string { return s.value }

// Length returns the length in bytes.
func (s *String) Length() int { return len(s.value) }

// IsInline reports whether the value is stored in the handle rather than in
// linear memory.
func (s *String) IsInline() bool { return s.addr == 0 }

// Addr returns the linear memory address of a heap string, or 0 for an
// inline one.
func (s *String) Addr() uint32 { return s.addr }

// Free releases nothing; strings stay valid for the life of the memory.
func (s *String) Free() {}

func (s *String) String() string { return s.value }

// CharAt returns the byte at the given index.
func (s *String) CharAt(index int) (byte, error) {
	if index < 0 || index >= len(s.value) {
		return 0, mem.NewTrap(mem.IndexOutOfBounds,
			"index %d out of bounds for string of length %d", index, len(s.value))
	}
	return s.value[index], nil
}

// Substring returns the bytes in [start, end) as a new string.
func (s *String) Substring(start, end int) (*String, error) {
	if start < 0 || end > len(s.value) || start > end {
		return nil, mem.NewTrap(mem.InvalidRange,
			"invalid range [%d, %d) for string of length %d", start, end, len(s.value))
	}
	return NewString(s.m, s.value[start:end])
}

// IndexOf returns the byte offset of the first occurrence of needle, or -1.
func (s *String) IndexOf(needle string) int {
	return strings.Index(s.value, needle)
}

// LastIndexOf returns the byte offset of the last occurrence of needle,
// or -1.
func (s *String) LastIndexOf(needle string) int {
	return strings.LastIndex(s.value, needle)
}

// Contains reports whether needle occurs in the string.
func (s *String) Contains(needle string) bool {
	return strings.Contains(s.value, needle)
}

// StartsWith reports whether the string begins with prefix.
func (s *String) StartsWith(prefix string) bool {
	return strings.HasPrefix(s.value, prefix)
}

// EndsWith reports whether the string ends with suffix.
func (s *String) EndsWith(suffix string) bool {
	return strings.HasSuffix(s.value, suffix)
}

// ToUpper returns a new string with ASCII letters upper-cased.
func (s *String) ToUpper() (*String, error) {
	return NewString(s.m, strings.ToUpper(s.value))
}

// ToLower returns a new string with ASCII letters lower-cased.
func (s *String) ToLower() (*String, error) {
	return NewString(s.m, strings.ToLower(s.value))
}

// Trim returns a new string with leading and trailing whitespace removed.
func (s *String) Trim() (*String, error) {
	return NewString(s.m, strings.TrimSpace(s.value))
}

// Split cuts the string around every occurrence of delim. An empty
// delimiter is an error.
func (s *String) Split(delim string) ([]*String, error) {
	if delim == "" {
		return nil, mem.NewTrap(mem.InvalidArgument, "split delimiter must not be empty")
	}
	parts := strings.Split(s.value, delim)
	out := make([]*String, 0, len(parts))
	for _, part := range parts {
		str, err := NewString(s.m, part)
		if err != nil {
			return nil, err
		}
		out = append(out, str)
	}
	return out, nil
}

// Replace substitutes every occurrence of old with new. An empty old is an
// error.
func (s *String) Replace(old, new string) (*String, error) {
	if old == "" {
		return nil, mem.NewTrap(mem.InvalidArgument, "replace target must not be empty")
	}
	return NewString(s.m, strings.ReplaceAll(s.value, old, new))
}

// Repeat concatenates count copies of the string.
func (s *String) Repeat(count int) (*String, error) {
	if count < 0 {
		return nil, mem.NewTrap(mem.InvalidArgument, "repeat count must not be negative")
	}
	return NewString(s.m, strings.Repeat(s.value, count))
}

// PadLeft prepends the pad byte until the string is width bytes long. A
// string already that long is returned unchanged in content.
func (s *String) PadLeft(width int, pad byte) (*String, error) {
	if n := width - len(s.value); n > 0 {
		return NewString(s.m, strings.Repeat(string(pad), n)+s.value)
	}
	return NewString(s.m, s.value)
}

// PadRight appends the pad byte until the string is width bytes long.
func (s *String) PadRight(width int, pad byte) (*String, error) {
	if n := width - len(s.value); n > 0 {
		return NewString(s.m, s.value+strings.Repeat(string(pad), n))
	}
	return NewString(s.m, s.value)
}

// Concat returns the concatenation of the two strings.
func (s *String) Concat(other *String) (*String, error) {
	return NewString(s.m, s.value+other.value)
}

// Equal reports whether the two strings have the same contents, regardless
// of representation.
func (s *String) Equal(other *String) bool {
	return s.value == other.value
}

package object

import (
	"strings"

	"github.com/lumalang/luma/mem"
)

// Builder assembles a string incrementally without allocating intermediate
// instances. The zero value is not usable; create one with NewBuilder.
type Builder struct {
	m *mem.Memory
	b strings.Builder
}

// NewBuilder creates a builder whose result will live in the given memory
// if it outgrows the inline representation.
func NewBuilder(m *mem.Memory) *Builder {
	return &Builder{m: m}
}

// WriteString appends a string fragment.
func (b *Builder) WriteString(s string) *Builder {
	b.b.WriteString(s)
	return b
}

// WriteByte appends a single byte.
func (b *Builder) WriteByte(c byte) error {
	return b.b.WriteByte(c)
}

// Write appends an existing string instance.
func (b *Builder) Write(s *String) *Builder {
	b.b.WriteString(s.Value())
	return b
}

// Len returns the number of bytes accumulated so far.
func (b *Builder) Len() int { return b.b.Len() }

// Build finalizes the accumulated bytes into a string instance. The builder
// may keep being used afterwards; later builds include the earlier bytes.
func (b *Builder) Build() (*String, error) {
	return NewString(b.m, b.b.String())
}

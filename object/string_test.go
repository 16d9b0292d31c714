package object

import (
	"strings"
	"testing"

	"github.com/lumalang/luma/mem"
	"github.com/stretchr/testify/require"
)

func newString(t *testing.T, value string) *String {
	t.Helper()
	s, err := NewString(mem.New(), value)
	require.Nil(t, err)
	return s
}

// The representation is decided by length alone: 23 bytes is the inline
// limit, 24 goes to the heap.
func TestRepresentationDeterminism(t *testing.T) {
	m := mem.New()

	inline, err := NewString(m, strings.Repeat("a", InlineCapacity))
	require.Nil(t, err)
	require.True(t, inline.IsInline())
	require.Equal(t, uint32(0), inline.Addr())

	heap, err := NewString(m, strings.Repeat("a", InlineCapacity+1))
	require.Nil(t, err)
	require.False(t, heap.IsInline())
	require.NotEqual(t, uint32(0), heap.Addr())
}

// An inline string allocates nothing from linear memory.
func TestInlineDoesNotAllocate(t *testing.T) {
	m := mem.New()
	before := m.Frontier()
	_, err := NewString(m, "short")
	require.Nil(t, err)
	require.Equal(t, before, m.Frontier())
}

// A heap string occupies length+1 bytes, NUL terminated, in linear memory.
func TestHeapLayout(t *testing.T) {
	m := mem.New()
	value := strings.Repeat("x", 30)
	s, err := NewString(m, value)
	require.Nil(t, err)

	data, err := m.ReadBytes(s.Addr(), uint32(len(value))+1)
	require.Nil(t, err)
	require.Equal(t, value, string(data[:len(value)]))
	require.Equal(t, byte(0), data[len(value)])
}

func TestHeapAllocationFailure(t *testing.T) {
	m := mem.New(mem.WithMaxPages(1))
	_, err := NewString(m, strings.Repeat("x", mem.PageSize))
	require.NotNil(t, err)
	trap, ok := mem.AsTrap(err)
	require.True(t, ok)
	require.Equal(t, mem.AllocationFailure, trap.Code)
}

func TestLength(t *testing.T) {
	require.Equal(t, 13, newString(t, "Hello, World!").Length())
	require.Equal(t, 0, newString(t, "").Length())
}

func TestCharAt(t *testing.T) {
	s := newString(t, "Hello, World!")
	c, err := s.CharAt(0)
	require.Nil(t, err)
	require.Equal(t, byte('H'), c)

	_, err = s.CharAt(13)
	trap, ok := mem.AsTrap(err)
	require.True(t, ok)
	require.Equal(t, mem.IndexOutOfBounds, trap.Code)

	_, err = s.CharAt(-1)
	require.NotNil(t, err)
}

func TestSubstring(t *testing.T) {
	s := newString(t, "Hello, World!")
	sub, err := s.Substring(7, 12)
	require.Nil(t, err)
	require.Equal(t, "World", sub.Value())

	// Full-range substring round-trips.
	whole, err := s.Substring(0, s.Length())
	require.Nil(t, err)
	require.True(t, s.Equal(whole))

	empty, err := s.Substring(5, 5)
	require.Nil(t, err)
	require.Equal(t, "", empty.Value())
}

func TestSubstringInvalidRange(t *testing.T) {
	s := newString(t, "hello")
	for _, r := range [][2]int{{3, 2}, {0, 6}, {-1, 3}} {
		_, err := s.Substring(r[0], r[1])
		trap, ok := mem.AsTrap(err)
		require.True(t, ok, "range: %v", r)
		require.Equal(t, mem.InvalidRange, trap.Code, "range: %v", r)
	}
}

func TestSearch(t *testing.T) {
	s := newString(t, "Hello, World!")
	require.Equal(t, 7, s.IndexOf("World"))
	require.Equal(t, -1, s.IndexOf("world"))
	require.Equal(t, 8, s.LastIndexOf("o"))
	require.True(t, s.Contains("lo, W"))
	require.False(t, s.Contains("xyz"))
	require.True(t, s.StartsWith("Hello"))
	require.False(t, s.StartsWith("World"))
	require.True(t, s.EndsWith("!"))
	require.False(t, s.EndsWith("?"))
}

func TestCaseMapping(t *testing.T) {
	s := newString(t, "Hello, World!")
	upper, err := s.ToUpper()
	require.Nil(t, err)
	require.Equal(t, "HELLO, WORLD!", upper.Value())

	lower, err := s.ToLower()
	require.Nil(t, err)
	require.Equal(t, "hello, world!", lower.Value())

	// The receiver is untouched.
	require.Equal(t, "Hello, World!", s.Value())
}

func TestTrim(t *testing.T) {
	trimmed, err := newString(t, "  \thello \n").Trim()
	require.Nil(t, err)
	require.Equal(t, "hello", trimmed.Value())
}

func TestSplit(t *testing.T) {
	parts, err := newString(t, "a,b,,c").Split(",")
	require.Nil(t, err)
	require.Len(t, parts, 4)
	require.Equal(t, "a", parts[0].Value())
	require.Equal(t, "b", parts[1].Value())
	require.Equal(t, "", parts[2].Value())
	require.Equal(t, "c", parts[3].Value())
}

func TestSplitEmptyDelimiter(t *testing.T) {
	_, err := newString(t, "abc").Split("")
	trap, ok := mem.AsTrap(err)
	require.True(t, ok)
	require.Equal(t, mem.InvalidArgument, trap.Code)
}

func TestReplace(t *testing.T) {
	s, err := newString(t, "one two two").Replace("two", "three")
	require.Nil(t, err)
	require.Equal(t, "one three three", s.Value())

	_, err = newString(t, "abc").Replace("", "x")
	trap, ok := mem.AsTrap(err)
	require.True(t, ok)
	require.Equal(t, mem.InvalidArgument, trap.Code)
}

func TestRepeat(t *testing.T) {
	s, err := newString(t, "ab").Repeat(3)
	require.Nil(t, err)
	require.Equal(t, "ababab", s.Value())

	empty, err := newString(t, "ab").Repeat(0)
	require.Nil(t, err)
	require.Equal(t, "", empty.Value())

	_, err = newString(t, "ab").Repeat(-1)
	require.NotNil(t, err)
}

func TestPad(t *testing.T) {
	left, err := newString(t, "42").PadLeft(5, '0')
	require.Nil(t, err)
	require.Equal(t, "00042", left.Value())

	right, err := newString(t, "42").PadRight(4, ' ')
	require.Nil(t, err)
	require.Equal(t, "42  ", right.Value())

	same, err := newString(t, "hello").PadLeft(3, '0')
	require.Nil(t, err)
	require.Equal(t, "hello", same.Value())
}

func TestConcat(t *testing.T) {
	m := mem.New()
	a, err := NewString(m, "Hello, ")
	require.Nil(t, err)
	b, err := NewString(m, "World!")
	require.Nil(t, err)

	c, err := a.Concat(b)
	require.Nil(t, err)
	require.Equal(t, "Hello, World!", c.Value())
	require.Equal(t, "Hello, ", a.Value())
}

// Concatenation growing past the inline limit moves to the heap.
func TestConcatCrossesInlineBoundary(t *testing.T) {
	m := mem.New()
	a, err := NewString(m, strings.Repeat("a", 20))
	require.Nil(t, err)
	b, err := NewString(m, "bbbb")
	require.Nil(t, err)

	c, err := a.Concat(b)
	require.Nil(t, err)
	require.Equal(t, 24, c.Length())
	require.False(t, c.IsInline())
}

func TestEqual(t *testing.T) {
	m := mem.New()
	long := strings.Repeat("a", 30)
	a, err := NewString(m, long)
	require.Nil(t, err)
	b, err := NewString(m, long)
	require.Nil(t, err)

	// Same contents, distinct heap allocations.
	require.True(t, a.Equal(b))
	require.NotEqual(t, a.Addr(), b.Addr())
	require.False(t, a.Equal(newString(t, "other")))
}

func TestFreeIsNoOp(t *testing.T) {
	s := newString(t, strings.Repeat("x", 30))
	s.Free()
	s.Free()
	require.Equal(t, strings.Repeat("x", 30), s.Value())
}

func TestBuilder(t *testing.T) {
	m := mem.New()
	b := NewBuilder(m)
	b.WriteString("Hello")
	require.Nil(t, b.WriteByte(','))
	b.WriteString(" ")
	w, err := NewString(m, "World!")
	require.Nil(t, err)
	b.Write(w)
	require.Equal(t, 13, b.Len())

	s, err := b.Build()
	require.Nil(t, err)
	require.Equal(t, "Hello, World!", s.Value())
}

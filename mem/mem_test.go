package mem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	m := New()
	require.Equal(t, uint32(PageSize), m.Size())
	require.Equal(t, uint32(1), m.Pages())
	require.Equal(t, uint32(8), m.Frontier())
}

func TestAllocAdvancesFrontier(t *testing.T) {
	m := New()
	a, err := m.Alloc(16)
	require.Nil(t, err)
	require.Equal(t, uint32(8), a)

	b, err := m.Alloc(16)
	require.Nil(t, err)
	require.Equal(t, uint32(24), b)
}

// Sizes round up to 8 bytes, so every address is 8-aligned.
func TestAllocAlignment(t *testing.T) {
	m := New()
	a, err := m.Alloc(1)
	require.Nil(t, err)
	b, err := m.Alloc(1)
	require.Nil(t, err)
	require.Equal(t, a+8, b)
	require.Equal(t, uint32(0), b%8)

	c, err := m.Alloc(13)
	require.Nil(t, err)
	d, err := m.Alloc(1)
	require.Nil(t, err)
	require.Equal(t, c+16, d)
}

func TestAllocNeverReturnsZero(t *testing.T) {
	m := New()
	for i := 0; i < 100; i++ {
		addr, err := m.Alloc(8)
		require.Nil(t, err)
		require.NotEqual(t, uint32(0), addr)
	}
}

func TestAllocGrowsByWholePages(t *testing.T) {
	m := New(WithMaxPages(4))
	// Fill most of the first page, then allocate across the boundary.
	_, err := m.Alloc(PageSize - 16)
	require.Nil(t, err)
	require.Equal(t, uint32(1), m.Pages())

	addr, err := m.Alloc(64)
	require.Nil(t, err)
	require.Equal(t, uint32(PageSize-8), addr)
	require.Equal(t, uint32(2), m.Pages())
}

func TestAllocZeroFilled(t *testing.T) {
	m := New(WithMaxPages(4))
	addr, err := m.Alloc(PageSize * 2)
	require.Nil(t, err)
	data, err := m.ReadBytes(addr, PageSize*2)
	require.Nil(t, err)
	for i, b := range data {
		require.Equal(t, byte(0), b, "offset %d", i)
	}
}

func TestAllocFailurePastMaxPages(t *testing.T) {
	m := New(WithMaxPages(2))
	_, err := m.Alloc(PageSize)
	require.Nil(t, err)

	before := m.Frontier()
	_, err = m.Alloc(PageSize * 2)
	require.NotNil(t, err)
	trap, ok := AsTrap(err)
	require.True(t, ok)
	require.Equal(t, AllocationFailure, trap.Code)

	// A failed allocation changes nothing.
	require.Equal(t, before, m.Frontier())
	require.Equal(t, uint32(2), m.Pages())
}

func TestFreeIsNoOp(t *testing.T) {
	m := New()
	a, err := m.Alloc(8)
	require.Nil(t, err)
	m.Free(a)
	m.Free(a) // double free is harmless

	b, err := m.Alloc(8)
	require.Nil(t, err)
	require.NotEqual(t, a, b, "freed memory is never reused")
}

func TestLoadStoreRoundTrip(t *testing.T) {
	m := New()
	require.Nil(t, m.Store32(8, 0xDEADBEEF))
	v32, err := m.Load32(8)
	require.Nil(t, err)
	require.Equal(t, uint32(0xDEADBEEF), v32)

	require.Nil(t, m.Store64(16, 0x0123456789ABCDEF))
	v64, err := m.Load64(16)
	require.Nil(t, err)
	require.Equal(t, uint64(0x0123456789ABCDEF), v64)
}

func TestLoadStoreLittleEndian(t *testing.T) {
	m := New()
	require.Nil(t, m.Store32(8, 0x01020304))
	data, err := m.ReadBytes(8, 4)
	require.Nil(t, err)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, data)
}

func TestNullDereference(t *testing.T) {
	m := New()
	_, err := m.Load32(0)
	trap, ok := AsTrap(err)
	require.True(t, ok)
	require.Equal(t, NullDereference, trap.Code)

	err = m.Store64(0, 1)
	trap, ok = AsTrap(err)
	require.True(t, ok)
	require.Equal(t, NullDereference, trap.Code)
}

// An access one byte past the committed size traps.
func TestOutOfBounds(t *testing.T) {
	m := New()
	_, err := m.Load32(m.Size() - 3)
	require.NotNil(t, err)
	trap, ok := AsTrap(err)
	require.True(t, ok)
	require.Equal(t, OutOfBounds, trap.Code)

	// The last fully in-bounds aligned address is fine.
	_, err = m.Load32(m.Size() - 4)
	require.Nil(t, err)
}

func TestMisalignment(t *testing.T) {
	m := New()
	_, err := m.Load32(10)
	trap, ok := AsTrap(err)
	require.True(t, ok)
	require.Equal(t, Misalignment, trap.Code)

	err = m.Store64(12, 1)
	trap, ok = AsTrap(err)
	require.True(t, ok)
	require.Equal(t, Misalignment, trap.Code)
}

func TestGrow(t *testing.T) {
	m := New(WithMaxPages(3))
	require.Equal(t, int32(1), m.Grow(1))
	require.Equal(t, uint32(2), m.Pages())
	require.Equal(t, int32(-1), m.Grow(2))
	require.Equal(t, uint32(2), m.Pages())
	require.Equal(t, int32(2), m.Grow(0))
}

func TestReadWriteBytes(t *testing.T) {
	m := New()
	require.Nil(t, m.WriteBytes(9, []byte("hello"))) // unaligned is fine for bytes
	data, err := m.ReadBytes(9, 5)
	require.Nil(t, err)
	require.Equal(t, []byte("hello"), data)

	err = m.WriteBytes(m.Size()-2, []byte("xyz"))
	require.NotNil(t, err)
	_, err = m.ReadBytes(m.Size()-2, 3)
	require.NotNil(t, err)
}

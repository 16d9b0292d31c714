// Package mem implements the linear memory model shared by the compiler's
// generated modules and the host runtime.
//
// Memory is page-granular and only ever grows. Allocation is a bump of the
// frontier pointer in 8-byte steps; deallocation is a permanent no-op, which
// trades reclamation for the elimination of use-after-free and double-free
// bugs. The frontier starts past address 0, so a zero address can never name
// a live allocation and dereferencing it is always a distinct trap.
package mem

import "fmt"

const (
	// PageSize is the WASM page granularity in bytes.
	PageSize = 65536

	// DefaultMaxPages caps memory at 1 MiB unless configured otherwise.
	DefaultMaxPages = 16

	// allocAlign is the allocation granularity. Every block size is rounded
	// up to a multiple of it, keeping all allocations 8-byte aligned.
	allocAlign = 8
)

// Option is a configuration function for a Memory.
type Option func(*Memory)

// WithMaxPages sets the page count beyond which growth fails.
func WithMaxPages(pages uint32) Option {
	return func(m *Memory) {
		if pages > 0 {
			m.maxPages = pages
		}
	}
}

// Memory is a growable byte array with a bump allocator.
type Memory struct {
	data     []byte
	maxPages uint32
	frontier uint32
}

// New creates a memory with one committed, zero-filled page. The frontier
// starts at 8 so that address 0 is never handed out.
func New(options ...Option) *Memory {
	m := &Memory{
		data:     make([]byte, PageSize),
		maxPages: DefaultMaxPages,
		frontier: allocAlign,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Size returns the committed size in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.data))
}

// Pages returns the committed size in pages.
func (m *Memory) Pages() uint32 {
	return uint32(len(m.data) / PageSize)
}

// MaxPages returns the configured page limit.
func (m *Memory) MaxPages() uint32 {
	return m.maxPages
}

// Frontier returns the address the next allocation will receive.
func (m *Memory) Frontier() uint32 {
	return m.frontier
}

// align rounds n up to the allocation granularity.
func align(n uint32) uint32 {
	return (n + allocAlign - 1) &^ (allocAlign - 1)
}

// Alloc reserves size bytes and returns their address. The block is rounded
// up to the allocation granularity and is zero-filled, since it only ever
// covers freshly committed or never-reused memory. If the request cannot be
// satisfied within the page limit, nothing is allocated and the memory is
// unchanged.
func (m *Memory) Alloc(size uint32) (uint32, error) {
	needed := align(size)
	if needed < size {
		return 0, NewTrap(AllocationFailure, "allocation of %d bytes overflows", size)
	}
	end := uint64(m.frontier) + uint64(needed)
	if end > uint64(len(m.data)) {
		pages := (end - uint64(len(m.data)) + PageSize - 1) / PageSize
		if uint64(m.Pages())+pages > uint64(m.maxPages) {
			return 0, NewTrap(AllocationFailure,
				"allocation of %d bytes exceeds the %d page limit", size, m.maxPages)
		}
		m.data = append(m.data, make([]byte, pages*PageSize)...)
	}
	addr := m.frontier
	m.frontier += needed
	return addr, nil
}

// Free releases nothing. Blocks stay allocated for the life of the memory.
func (m *Memory) Free(addr uint32) {}

// Grow commits additional pages, returning the previous page count, or -1
// if growth would exceed the page limit. This is the memory.grow
// instruction's contract.
func (m *Memory) Grow(pages uint32) int32 {
	current := m.Pages()
	if uint64(current)+uint64(pages) > uint64(m.maxPages) {
		return -1
	}
	m.data = append(m.data, make([]byte, uint64(pages)*PageSize)...)
	return int32(current)
}

// check validates an access of the given width at addr.
func (m *Memory) check(addr, width uint32) error {
	if addr == 0 {
		return NewTrap(NullDereference, "null pointer dereference")
	}
	if uint64(addr)+uint64(width) > uint64(len(m.data)) {
		return NewTrap(OutOfBounds,
			"address %d out of bounds for %d byte access (committed %d)", addr, width, len(m.data))
	}
	if width > 1 && addr%width != 0 {
		return NewTrap(Misalignment, "address %d is not aligned to %d bytes", addr, width)
	}
	return nil
}

// Load32 reads a 4-byte little-endian value.
func (m *Memory) Load32(addr uint32) (uint32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	return uint32(m.data[addr]) | uint32(m.data[addr+1])<<8 |
		uint32(m.data[addr+2])<<16 | uint32(m.data[addr+3])<<24, nil
}

// Load64 reads an 8-byte little-endian value.
func (m *Memory) Load64(addr uint32) (uint64, error) {
	if err := m.check(addr, 8); err != nil {
		return 0, err
	}
	var v uint64
	for i := uint32(0); i < 8; i++ {
		v |= uint64(m.data[addr+i]) << (8 * i)
	}
	return v, nil
}

// Store32 writes a 4-byte little-endian value.
func (m *Memory) Store32(addr uint32, v uint32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	m.data[addr] = byte(v)
	m.data[addr+1] = byte(v >> 8)
	m.data[addr+2] = byte(v >> 16)
	m.data[addr+3] = byte(v >> 24)
	return nil
}

// Store64 writes an 8-byte little-endian value.
func (m *Memory) Store64(addr uint32, v uint64) error {
	if err := m.check(addr, 8); err != nil {
		return err
	}
	for i := uint32(0); i < 8; i++ {
		m.data[addr+i] = byte(v >> (8 * i))
	}
	return nil
}

// ReadBytes copies n bytes starting at addr. Byte access has no alignment
// requirement.
func (m *Memory) ReadBytes(addr, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if addr == 0 {
		return nil, NewTrap(NullDereference, "null pointer dereference")
	}
	if uint64(addr)+uint64(n) > uint64(len(m.data)) {
		return nil, NewTrap(OutOfBounds,
			"address %d out of bounds for %d byte read (committed %d)", addr, n, len(m.data))
	}
	out := make([]byte, n)
	copy(out, m.data[addr:])
	return out, nil
}

// WriteBytes copies data into memory starting at addr.
func (m *Memory) WriteBytes(addr uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if addr == 0 {
		return NewTrap(NullDereference, "null pointer dereference")
	}
	if uint64(addr)+uint64(len(data)) > uint64(len(m.data)) {
		return NewTrap(OutOfBounds,
			"address %d out of bounds for %d byte write (committed %d)", addr, len(data), len(m.data))
	}
	copy(m.data[addr:], data)
	return nil
}

// String implements fmt.Stringer for debugging.
func (m *Memory) String() string {
	return fmt.Sprintf("mem.Memory(pages=%d max=%d frontier=%d)", m.Pages(), m.maxPages, m.frontier)
}

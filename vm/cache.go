package vm

import (
	"crypto/sha256"
	"sync"

	"github.com/lumalang/luma/wasm"
)

// Cache memoizes compiled modules by a hash of their source text, so
// repeated evaluation of the same source skips the compiler entirely.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	modules map[[sha256.Size]byte]*wasm.Module
	hits    uint64
	misses  uint64
}

// NewCache creates an empty module cache.
func NewCache() *Cache {
	return &Cache{modules: map[[sha256.Size]byte]*wasm.Module{}}
}

// Get looks up the module compiled from the given source.
func (c *Cache) Get(source string) (*wasm.Module, bool) {
	key := sha256.Sum256([]byte(source))
	c.mu.Lock()
	defer c.mu.Unlock()
	module, ok := c.modules[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return module, ok
}

// Put stores the module compiled from the given source.
func (c *Cache) Put(source string, module *wasm.Module) {
	key := sha256.Sum256([]byte(source))
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[key] = module
}

// Stats describes cache effectiveness.
type Stats struct {
	Size     int
	Hits     uint64
	Misses   uint64
	HitRatio float64
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Stats{Size: len(c.modules), Hits: c.hits, Misses: c.misses}
	if total := c.hits + c.misses; total > 0 {
		s.HitRatio = float64(c.hits) / float64(total)
	}
	return s
}

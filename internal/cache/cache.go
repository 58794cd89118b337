// Package cache implements the direct-mapped per-tile input cache from
// spec.md §3 and §4.6, grounded on original_source/core/cache.py.
package cache

// Cache is a direct-mapped, N-entry cache used exclusively for
// read-only input values during a tile command. There is no write
// policy: install always evicts whatever previously resided at the
// target slot.
type Cache struct {
	entries  []entry
	occupied []bool
}

type entry struct {
	addr    uint32
	content uint32
}

// New creates a Cache with n entries. n must be positive.
func New(n int) *Cache {
	if n <= 0 {
		panic("cache: entry count must be positive")
	}
	return &Cache{
		entries:  make([]entry, n),
		occupied: make([]bool, n),
	}
}

func (c *Cache) slot(addr uint32) int {
	return int(addr % uint32(len(c.entries)))
}

// Lookup returns (content, true) if addr's slot is occupied by exactly
// addr, or (0, false) otherwise.
func (c *Cache) Lookup(addr uint32) (uint32, bool) {
	i := c.slot(addr)
	if !c.occupied[i] || c.entries[i].addr != addr {
		return 0, false
	}
	return c.entries[i].content, true
}

// Install unconditionally replaces the resident of addr's slot.
func (c *Cache) Install(addr, content uint32) {
	i := c.slot(addr)
	c.entries[i] = entry{addr: addr, content: content}
	c.occupied[i] = true
}

// Clear invalidates every slot. Clearing an already-empty cache is a
// no-op, so repeated clears are idempotent.
func (c *Cache) Clear() {
	for i := range c.occupied {
		c.occupied[i] = false
	}
}

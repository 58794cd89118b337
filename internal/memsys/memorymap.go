package memsys

import (
	"fmt"
	"math"

	"github.com/sarchlab/nio/internal/alloc"
)

// MemoryMap tracks the base address each logical array has been mapped
// to, and moves float32 tensors to/from the simulated memory's integer
// cells via their IEEE-754 bit pattern, per spec.md §4.8.
type MemoryMap struct {
	allocator *alloc.BitmapAllocator
	memory    *Memory
	bases     map[interface{}]uint32
}

// NewMemoryMap constructs a MemoryMap backed by the given allocator and
// memory.
func NewMemoryMap(a *alloc.BitmapAllocator, m *Memory) *MemoryMap {
	return &MemoryMap{
		allocator: a,
		memory:    m,
		bases:     make(map[interface{}]uint32),
	}
}

// Map allocates backing storage for array (identified by any comparable
// key — typically a pointer to the FlexNode-owned tensor) of the given
// byte length, and returns its base address. Mapping the same key twice
// is a programming error and panics.
func (mm *MemoryMap) Map(key interface{}, byteLen uint32) (uint32, bool) {
	if _, exists := mm.bases[key]; exists {
		panic(fmt.Sprintf("memsys: array %v is already mapped", key))
	}
	base, ok := mm.allocator.Alloc(byteLen)
	if !ok {
		return 0, false
	}
	mm.bases[key] = base
	return base, true
}

// Unmap frees the storage associated with key. Unmapping an array that
// was never mapped is a programming error and panics.
func (mm *MemoryMap) Unmap(key interface{}) {
	base, ok := mm.bases[key]
	if !ok {
		panic(fmt.Sprintf("memsys: array %v is not mapped", key))
	}
	mm.allocator.Free(base)
	delete(mm.bases, key)
}

// Lookup returns the base address for a previously mapped array.
func (mm *MemoryMap) Lookup(key interface{}) (uint32, bool) {
	base, ok := mm.bases[key]
	return base, ok
}

// Sys2Mem writes each float32 in values into the memory starting at
// base, one word per element, encoded as its 32-bit IEEE-754 bit
// pattern so the memory array itself only ever stores integers.
func (mm *MemoryMap) Sys2Mem(base uint32, values []float32) {
	for i, v := range values {
		addr := base + uint32(i)*mm.memory.wordBytes
		mm.memory.Poke(addr, math.Float32bits(v))
	}
}

// Mem2Sys is the inverse of Sys2Mem: it reads count words starting at
// base and decodes each as a float32 bit pattern.
func (mm *MemoryMap) Mem2Sys(base uint32, count int) []float32 {
	out := make([]float32, count)
	for i := 0; i < count; i++ {
		addr := base + uint32(i)*mm.memory.wordBytes
		out[i] = math.Float32frombits(mm.memory.Peek(addr))
	}
	return out
}

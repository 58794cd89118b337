// Package clock provides the simulator's single global tick counter.
//
// Every device in the system reads the same Clock through a shared
// pointer (the immutable reference described in spec.md §3); only the
// top-level System advances it, once per simulated cycle.
package clock

// Clock is a monotonically increasing cycle counter. The zero value is
// ready to use and starts at cycle 0.
type Clock struct {
	cycle uint64
}

// New creates a Clock starting at cycle 0.
func New() *Clock {
	return &Clock{}
}

// Now returns the current cycle count without advancing it.
func (c *Clock) Now() uint64 {
	return c.cycle
}

// Tick advances the clock by exactly one cycle and returns the new
// value. Only the top-level driver (System) should call this.
func (c *Clock) Tick() uint64 {
	c.cycle++
	return c.cycle
}

// Package flexnode defines the FlexNode contract from spec.md §6 — the
// external interface by which a compiled neural-network operator
// allocates its tensors in simulated memory and emits the TileCmd
// stream that realizes it — plus the reference operators spec.md §6 and
// SPEC_FULL.md §4.9 require.
//
// Grounded on original_source/operators/arithemetic.py for the
// map/unmap/compile shape and the flatten-and-round-robin compilation
// strategy; extended per SPEC_FULL.md with the operators the Python
// distillation's retrieved excerpt didn't show in full (MatMul, Conv2D,
// Gemm, ReLU) but which spec.md §6 and the operator set in spec.md §3
// call for.
package flexnode

import (
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// FlexNode is implemented by every compiled operator. The core only
// ever sees the TileCmds Compile emits; attribute parsing and shape
// bookkeeping are each FlexNode's own responsibility.
type FlexNode interface {
	// OpName identifies the operator for diagnostics.
	OpName() string

	// Map allocates backing storage for every operand tensor and
	// transfers host data into simulated memory.
	Map(mm *memsys.MemoryMap)

	// Unmap pulls results back out of simulated memory and frees the
	// allocations Map made.
	Unmap(mm *memsys.MemoryMap)

	// Compile produces the TileCmd sequence that realizes this operator
	// across destinations, round-robin, with source as the reply
	// address for the resulting TileDone acks.
	Compile(source device.Handle, destinations []device.Handle) []*message.TileCmdMsg
}

// roundRobin returns destinations[i % len(destinations)], panicking on
// an empty destination list (a configuration error — compiling against
// no tiles is never valid).
func roundRobin(destinations []device.Handle, i int) device.Handle {
	if len(destinations) == 0 {
		panic("flexnode: compile called with no destination tiles")
	}
	return destinations[i%len(destinations)]
}


package flexnode

import (
	"math"

	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// ReLU realizes the ReLU reference operator (spec.md §6) as a per-
// element MAX against an inlined zero constant, so the core never needs
// a dedicated ReLU opcode: the MAX operator already in spec.md §3's
// operator set is sufficient.
type ReLU struct {
	in, out []float32

	inBase, outBase uint32
}

// NewReLU builds a ReLU FlexNode over in, writing to out (same length).
func NewReLU(in, out []float32) *ReLU {
	if len(in) != len(out) {
		panic("flexnode: ReLU input/output length mismatch")
	}
	return &ReLU{in: in, out: out}
}

func (r *ReLU) OpName() string { return "ReLU" }

func (r *ReLU) Map(mm *memsys.MemoryMap) {
	base, ok := mm.Map(&r.in, uint32(len(r.in))*4)
	if !ok {
		panic("flexnode: out of memory mapping ReLU input")
	}
	baseOut, ok := mm.Map(&r.out, uint32(len(r.out))*4)
	if !ok {
		panic("flexnode: out of memory mapping ReLU output")
	}
	r.inBase, r.outBase = base, baseOut
	mm.Sys2Mem(base, r.in)
}

func (r *ReLU) Unmap(mm *memsys.MemoryMap) {
	copy(r.out, mm.Mem2Sys(r.outBase, len(r.out)))
	mm.Unmap(&r.in)
	mm.Unmap(&r.out)
}

func (r *ReLU) Compile(source device.Handle, destinations []device.Handle) []*message.TileCmdMsg {
	zero := math.Float32bits(0)
	cmds := make([]*message.TileCmdMsg, len(r.in))
	for i := range r.in {
		op1Addr := r.inBase + uint32(i)*4
		resAddr := r.outBase + uint32(i)*4
		cmds[i] = message.NewBinaryTileCmd(source, roundRobin(destinations, i), message.MAX, message.Float32, resAddr).
			WithOp1Addr(op1Addr).WithOp2(zero)
	}
	return cmds
}

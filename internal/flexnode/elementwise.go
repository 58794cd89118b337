package flexnode

import (
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// ElementWise realizes ElementWise{Add,Sub,Mul,Div,Max,Min,Pow}: one
// TileCmd per output element, operands fetched from the mapped input
// tensors' flattened memory, round-robin across destination tiles.
// Grounded directly on original_source/operators/arithemetic.py's
// Arithmetic FlexNode.
type ElementWise struct {
	name      string
	operation message.Operator
	in1, in2  []float32
	out       []float32

	in1Base, in2Base, outBase uint32
}

// NewElementWise builds an ElementWise FlexNode. in1/in2/out must be
// equal length.
func NewElementWise(name string, op message.Operator, in1, in2, out []float32) *ElementWise {
	if len(in1) != len(in2) || len(in1) != len(out) {
		panic("flexnode: ElementWise operand/output length mismatch")
	}
	return &ElementWise{name: name, operation: op, in1: in1, in2: in2, out: out}
}

func (e *ElementWise) OpName() string { return e.name }

func (e *ElementWise) Map(mm *memsys.MemoryMap) {
	base1, ok := mm.Map(&e.in1, uint32(len(e.in1))*4)
	if !ok {
		panic("flexnode: out of memory mapping ElementWise input 1")
	}
	base2, ok := mm.Map(&e.in2, uint32(len(e.in2))*4)
	if !ok {
		panic("flexnode: out of memory mapping ElementWise input 2")
	}
	baseOut, ok := mm.Map(&e.out, uint32(len(e.out))*4)
	if !ok {
		panic("flexnode: out of memory mapping ElementWise output")
	}
	e.in1Base, e.in2Base, e.outBase = base1, base2, baseOut
	mm.Sys2Mem(base1, e.in1)
	mm.Sys2Mem(base2, e.in2)
}

func (e *ElementWise) Unmap(mm *memsys.MemoryMap) {
	copy(e.out, mm.Mem2Sys(e.outBase, len(e.out)))
	mm.Unmap(&e.in1)
	mm.Unmap(&e.in2)
	mm.Unmap(&e.out)
}

func (e *ElementWise) Compile(source device.Handle, destinations []device.Handle) []*message.TileCmdMsg {
	cmds := make([]*message.TileCmdMsg, len(e.in1))
	for i := range e.in1 {
		op1Addr := e.in1Base + uint32(i)*4
		op2Addr := e.in2Base + uint32(i)*4
		resAddr := e.outBase + uint32(i)*4
		cmd := message.NewBinaryTileCmd(source, roundRobin(destinations, i), e.operation, message.Float32, resAddr).
			WithOp1Addr(op1Addr).WithOp2Addr(op2Addr)
		cmds[i] = cmd
	}
	return cmds
}

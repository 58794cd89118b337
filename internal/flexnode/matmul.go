package flexnode

import (
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// MatMul realizes dense MxK * KxN matrix multiplication as one DOT
// TileCmd per output element, per spec.md §4.5's "DOT (used for
// MatMul/GeMM/Conv inner loops)" compilation rule: row_addrs walk A's
// i-th row, col_addrs walk B's j-th column.
type MatMul struct {
	m, k, n int
	a, b    []float32 // row-major, a: m*k, b: k*n
	out     []float32 // row-major, m*n

	aBase, bBase, outBase uint32
}

// NewMatMul builds a MatMul FlexNode for A (m×k) · B (k×n) → out (m×n),
// all row-major flattened.
func NewMatMul(m, k, n int, a, b, out []float32) *MatMul {
	if len(a) != m*k || len(b) != k*n || len(out) != m*n {
		panic("flexnode: MatMul operand shapes inconsistent with m,k,n")
	}
	return &MatMul{m: m, k: k, n: n, a: a, b: b, out: out}
}

func (mm2 *MatMul) OpName() string { return "MatMul" }

func (mm2 *MatMul) Map(mm *memsys.MemoryMap) {
	aBase, ok := mm.Map(&mm2.a, uint32(len(mm2.a))*4)
	if !ok {
		panic("flexnode: out of memory mapping MatMul operand A")
	}
	bBase, ok := mm.Map(&mm2.b, uint32(len(mm2.b))*4)
	if !ok {
		panic("flexnode: out of memory mapping MatMul operand B")
	}
	outBase, ok := mm.Map(&mm2.out, uint32(len(mm2.out))*4)
	if !ok {
		panic("flexnode: out of memory mapping MatMul output")
	}
	mm2.aBase, mm2.bBase, mm2.outBase = aBase, bBase, outBase
	mm.Sys2Mem(aBase, mm2.a)
	mm.Sys2Mem(bBase, mm2.b)
}

func (mm2 *MatMul) Unmap(mm *memsys.MemoryMap) {
	copy(mm2.out, mm.Mem2Sys(mm2.outBase, len(mm2.out)))
	mm.Unmap(&mm2.a)
	mm.Unmap(&mm2.b)
	mm.Unmap(&mm2.out)
}

func (mm2 *MatMul) Compile(source device.Handle, destinations []device.Handle) []*message.TileCmdMsg {
	cmds := make([]*message.TileCmdMsg, 0, mm2.m*mm2.n)
	which := 0
	for i := 0; i < mm2.m; i++ {
		rowAddrs := make([]uint32, mm2.k)
		for kk := 0; kk < mm2.k; kk++ {
			rowAddrs[kk] = mm2.aBase + uint32(i*mm2.k+kk)*4
		}
		for j := 0; j < mm2.n; j++ {
			colAddrs := make([]uint32, mm2.k)
			for kk := 0; kk < mm2.k; kk++ {
				colAddrs[kk] = mm2.bBase + uint32(kk*mm2.n+j)*4
			}
			resAddr := mm2.outBase + uint32(i*mm2.n+j)*4
			cmd := message.NewDotTileCmd(source, roundRobin(destinations, which), message.Float32, resAddr, rowAddrs, colAddrs)
			cmds = append(cmds, cmd)
			which++
		}
	}
	return cmds
}

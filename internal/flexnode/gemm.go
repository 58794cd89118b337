package flexnode

import (
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// Gemm realizes C = A·B + bias (bias broadcast along rows, one value
// per output column), reusing DOT's optional bias slot exactly as
// SPEC_FULL.md §4.9 describes for Conv2D's bias handling.
type Gemm struct {
	m, k, n int
	a, b    []float32
	bias    []float32 // length n
	out     []float32

	aBase, bBase, biasBase, outBase uint32
}

// NewGemm builds a Gemm FlexNode for A (m×k) · B (k×n) + bias (n) → out
// (m×n).
func NewGemm(m, k, n int, a, b, bias, out []float32) *Gemm {
	if len(a) != m*k || len(b) != k*n || len(bias) != n || len(out) != m*n {
		panic("flexnode: Gemm operand shapes inconsistent with m,k,n")
	}
	return &Gemm{m: m, k: k, n: n, a: a, b: b, bias: bias, out: out}
}

func (g *Gemm) OpName() string { return "Gemm" }

func (g *Gemm) Map(mm *memsys.MemoryMap) {
	aBase, ok := mm.Map(&g.a, uint32(len(g.a))*4)
	if !ok {
		panic("flexnode: out of memory mapping Gemm operand A")
	}
	bBase, ok := mm.Map(&g.b, uint32(len(g.b))*4)
	if !ok {
		panic("flexnode: out of memory mapping Gemm operand B")
	}
	biasBase, ok := mm.Map(&g.bias, uint32(len(g.bias))*4)
	if !ok {
		panic("flexnode: out of memory mapping Gemm bias")
	}
	outBase, ok := mm.Map(&g.out, uint32(len(g.out))*4)
	if !ok {
		panic("flexnode: out of memory mapping Gemm output")
	}
	g.aBase, g.bBase, g.biasBase, g.outBase = aBase, bBase, biasBase, outBase
	mm.Sys2Mem(aBase, g.a)
	mm.Sys2Mem(bBase, g.b)
	mm.Sys2Mem(biasBase, g.bias)
}

func (g *Gemm) Unmap(mm *memsys.MemoryMap) {
	copy(g.out, mm.Mem2Sys(g.outBase, len(g.out)))
	mm.Unmap(&g.a)
	mm.Unmap(&g.b)
	mm.Unmap(&g.bias)
	mm.Unmap(&g.out)
}

func (g *Gemm) Compile(source device.Handle, destinations []device.Handle) []*message.TileCmdMsg {
	cmds := make([]*message.TileCmdMsg, 0, g.m*g.n)
	which := 0
	for i := 0; i < g.m; i++ {
		rowAddrs := make([]uint32, g.k)
		for kk := 0; kk < g.k; kk++ {
			rowAddrs[kk] = g.aBase + uint32(i*g.k+kk)*4
		}
		for j := 0; j < g.n; j++ {
			colAddrs := make([]uint32, g.k)
			for kk := 0; kk < g.k; kk++ {
				colAddrs[kk] = g.bBase + uint32(kk*g.n+j)*4
			}
			resAddr := g.outBase + uint32(i*g.n+j)*4
			biasAddr := g.biasBase + uint32(j)*4
			cmd := message.NewDotTileCmd(source, roundRobin(destinations, which), message.Float32, resAddr, rowAddrs, colAddrs).
				WithBias(biasAddr)
			cmds = append(cmds, cmd)
			which++
		}
	}
	return cmds
}

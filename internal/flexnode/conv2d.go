package flexnode

import (
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// Conv2D realizes single-channel, stride-1, no-padding 2D convolution
// as one DOT TileCmd per output pixel: row_addrs walk the input patch
// under the kernel, col_addrs walk the (flattened) kernel weights in
// lockstep, and the optional bias — added per SPEC_FULL.md §4.9 — is
// a single scalar applied to every output pixel.
type Conv2D struct {
	inH, inW     int
	kH, kW       int
	in           []float32 // inH*inW, row-major
	kernel       []float32 // kH*kW, row-major
	bias         *float32  // nil if this convolution has no bias
	out          []float32 // outH*outW, row-major

	inBase, kernelBase, outBase uint32
	biasBase                    uint32
	hasBias                     bool
}

// NewConv2D builds a Conv2D FlexNode. bias may be nil.
func NewConv2D(inH, inW, kH, kW int, in, kernel []float32, bias *float32, out []float32) *Conv2D {
	outH, outW := inH-kH+1, inW-kW+1
	if outH <= 0 || outW <= 0 {
		panic("flexnode: Conv2D kernel larger than input")
	}
	if len(in) != inH*inW || len(kernel) != kH*kW || len(out) != outH*outW {
		panic("flexnode: Conv2D operand shapes inconsistent with dimensions")
	}
	return &Conv2D{inH: inH, inW: inW, kH: kH, kW: kW, in: in, kernel: kernel, bias: bias, out: out}
}

func (c *Conv2D) OpName() string { return "Conv2D" }

func (c *Conv2D) Map(mm *memsys.MemoryMap) {
	inBase, ok := mm.Map(&c.in, uint32(len(c.in))*4)
	if !ok {
		panic("flexnode: out of memory mapping Conv2D input")
	}
	kernelBase, ok := mm.Map(&c.kernel, uint32(len(c.kernel))*4)
	if !ok {
		panic("flexnode: out of memory mapping Conv2D kernel")
	}
	outBase, ok := mm.Map(&c.out, uint32(len(c.out))*4)
	if !ok {
		panic("flexnode: out of memory mapping Conv2D output")
	}
	c.inBase, c.kernelBase, c.outBase = inBase, kernelBase, outBase
	mm.Sys2Mem(inBase, c.in)
	mm.Sys2Mem(kernelBase, c.kernel)

	if c.bias != nil {
		biasSlice := []float32{*c.bias}
		biasBase, ok := mm.Map(&c.bias, 4)
		if !ok {
			panic("flexnode: out of memory mapping Conv2D bias")
		}
		c.biasBase = biasBase
		c.hasBias = true
		mm.Sys2Mem(biasBase, biasSlice)
	}
}

func (c *Conv2D) Unmap(mm *memsys.MemoryMap) {
	copy(c.out, mm.Mem2Sys(c.outBase, len(c.out)))
	mm.Unmap(&c.in)
	mm.Unmap(&c.kernel)
	mm.Unmap(&c.out)
	if c.hasBias {
		mm.Unmap(&c.bias)
	}
}

func (c *Conv2D) Compile(source device.Handle, destinations []device.Handle) []*message.TileCmdMsg {
	outH, outW := c.inH-c.kH+1, c.inW-c.kW+1
	cmds := make([]*message.TileCmdMsg, 0, outH*outW)
	which := 0
	for oy := 0; oy < outH; oy++ {
		for ox := 0; ox < outW; ox++ {
			patch := make([]uint32, 0, c.kH*c.kW)
			kernel := make([]uint32, 0, c.kH*c.kW)
			for ky := 0; ky < c.kH; ky++ {
				for kx := 0; kx < c.kW; kx++ {
					iy, ix := oy+ky, ox+kx
					patch = append(patch, c.inBase+uint32(iy*c.inW+ix)*4)
					kernel = append(kernel, c.kernelBase+uint32(ky*c.kW+kx)*4)
				}
			}
			resAddr := c.outBase + uint32(oy*outW+ox)*4
			cmd := message.NewDotTileCmd(source, roundRobin(destinations, which), message.Float32, resAddr, patch, kernel)
			if c.hasBias {
				cmd = cmd.WithBias(c.biasBase)
			}
			cmds = append(cmds, cmd)
			which++
		}
	}
	return cmds
}

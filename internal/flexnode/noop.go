package flexnode

import (
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
)

// NoOp realizes Reshape/Transpose/Squeeze: per spec.md §6 these are
// "no-op in the accelerator, realized by host-side tensor re-indexing"
// — the core never sees a TileCmd for them.
type NoOp struct {
	name string
}

// NewReshape, NewTranspose and NewSqueeze all produce the same no-op
// FlexNode, differing only in diagnostic name; the actual re-indexing
// is the host's responsibility and happens outside the core entirely.
func NewReshape() *NoOp   { return &NoOp{name: "Reshape"} }
func NewTranspose() *NoOp { return &NoOp{name: "Transpose"} }
func NewSqueeze() *NoOp   { return &NoOp{name: "Squeeze"} }

func (n *NoOp) OpName() string                  { return n.name }
func (n *NoOp) Map(*memsys.MemoryMap)            {}
func (n *NoOp) Unmap(*memsys.MemoryMap)          {}
func (n *NoOp) Compile(device.Handle, []device.Handle) []*message.TileCmdMsg {
	return nil
}

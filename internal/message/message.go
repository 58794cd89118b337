// Package message defines the simulator's wire format: a tagged union
// of Message kinds exchanged over a router.Router.
//
// spec.md §9 asks that the source's duck-typed, attribute-dictionary
// messages be re-architected as a tagged union with one variant per
// message kind, moving payload validation from runtime asserts to
// construction-site type-checking. We do that with a small Message
// interface and one concrete struct per Kind, mirroring the
// MsgMeta-embedding convention the teacher uses for its own wire
// messages (sarchlab-zeonica's cgra.MoveMsg embeds sim.MsgMeta and
// exposes it through a Meta() method).
package message

import (
	"github.com/rs/xid"
	"github.com/sarchlab/nio/internal/device"
)

// Kind identifies which of the eight message variants a Message is.
type Kind int

const (
	MemRead Kind = iota
	MemReadDone
	MemWrite
	MemWriteDone
	PECmd
	PEDone
	TileCmd
	TileDone
)

var kindNames = [...]string{
	"MemRead", "MemReadDone", "MemWrite", "MemWriteDone",
	"PECmd", "PEDone", "TileCmd", "TileDone",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "UnknownKind"
	}
	return kindNames[k]
}

// MsgMeta carries the fields common to every message kind: a correlation
// token, ordering index, endpoints, and the send/receive clock stamps
// applied by the router.
type MsgMeta struct {
	ID                 string
	SeqNum             int
	Source, Destination device.Handle
	SentClock           uint64
	RecvClock           uint64
}

func newMeta(src, dst device.Handle, seqNum int) MsgMeta {
	return MsgMeta{
		ID:          xid.New().String(),
		SeqNum:      seqNum,
		Source:      src,
		Destination: dst,
	}
}

// Message is implemented by every wire message variant.
type Message interface {
	Kind() Kind
	Meta() *MsgMeta
}

// MemReadMsg requests the contents at Addr.
type MemReadMsg struct {
	MsgMeta
	Addr uint32
}

func (m *MemReadMsg) Kind() Kind  { return MemRead }
func (m *MemReadMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewMemRead builds a MemRead request from src to dst.
func NewMemRead(src, dst device.Handle, seqNum int, addr uint32) *MemReadMsg {
	return &MemReadMsg{MsgMeta: newMeta(src, dst, seqNum), Addr: addr}
}

// MemReadDoneMsg carries the result of a prior MemReadMsg.
type MemReadDoneMsg struct {
	MsgMeta
	Addr    uint32
	Content uint32
}

func (m *MemReadDoneMsg) Kind() Kind  { return MemReadDone }
func (m *MemReadDoneMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewMemReadDone builds a MemReadDone reply, correlated to the request
// via src/dst/id/seqNum (id is copied from the originating request by
// the caller).
func NewMemReadDone(src, dst device.Handle, id string, seqNum int, addr, content uint32) *MemReadDoneMsg {
	msg := &MemReadDoneMsg{MsgMeta: newMeta(src, dst, seqNum), Addr: addr, Content: content}
	msg.MsgMeta.ID = id
	return msg
}

// MemWriteMsg requests that Content be stored at Addr.
type MemWriteMsg struct {
	MsgMeta
	Addr    uint32
	Content uint32
}

func (m *MemWriteMsg) Kind() Kind  { return MemWrite }
func (m *MemWriteMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewMemWrite builds a MemWrite request from src to dst.
func NewMemWrite(src, dst device.Handle, seqNum int, addr, content uint32) *MemWriteMsg {
	return &MemWriteMsg{MsgMeta: newMeta(src, dst, seqNum), Addr: addr, Content: content}
}

// MemWriteDoneMsg acknowledges a prior MemWriteMsg.
type MemWriteDoneMsg struct {
	MsgMeta
}

func (m *MemWriteDoneMsg) Kind() Kind  { return MemWriteDone }
func (m *MemWriteDoneMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewMemWriteDone builds a MemWriteDone reply, correlated by id/seqNum.
func NewMemWriteDone(src, dst device.Handle, id string, seqNum int) *MemWriteDoneMsg {
	msg := &MemWriteDoneMsg{MsgMeta: newMeta(src, dst, seqNum)}
	msg.MsgMeta.ID = id
	return msg
}

// PECmdMsg dispatches one arithmetic operation to a PE.
type PECmdMsg struct {
	MsgMeta
	Operation Operator
	DType     DType
	Op1, Op2  uint32
	Op3       *uint32
}

func (m *PECmdMsg) Kind() Kind  { return PECmd }
func (m *PECmdMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewPECmd builds a PECmd request from src to dst.
func NewPECmd(src, dst device.Handle, seqNum int, op Operator, dtype DType, op1, op2 uint32) *PECmdMsg {
	return &PECmdMsg{MsgMeta: newMeta(src, dst, seqNum), Operation: op, DType: dtype, Op1: op1, Op2: op2}
}

// WithOp3 sets the optional third operand and returns the same message,
// for chained construction at the call site.
func (m *PECmdMsg) WithOp3(op3 uint32) *PECmdMsg {
	m.Op3 = &op3
	return m
}

// PEDoneMsg carries the result of a prior PECmdMsg.
type PEDoneMsg struct {
	MsgMeta
	Result uint32
}

func (m *PEDoneMsg) Kind() Kind  { return PEDone }
func (m *PEDoneMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewPEDone builds a PEDone reply, correlated by id/seqNum.
func NewPEDone(src, dst device.Handle, id string, seqNum int, result uint32) *PEDoneMsg {
	msg := &PEDoneMsg{MsgMeta: newMeta(src, dst, seqNum), Result: result}
	msg.MsgMeta.ID = id
	return msg
}

// TileCmdMsg is a single atomic compute request targeting one tile. For
// DOT it carries RowAddrs/ColAddrs (and optional Bias); for binary
// elementwise operators it carries either an inline operand (Op1/Op2)
// or an address to fetch it from (Op1Addr/Op2Addr).
type TileCmdMsg struct {
	MsgMeta
	ResAddr   uint32
	Operation Operator
	DType     DType

	Op1, Op2         *uint32
	Op1Addr, Op2Addr *uint32

	RowAddrs, ColAddrs []uint32
	Bias               *uint32
}

func (m *TileCmdMsg) Kind() Kind  { return TileCmd }
func (m *TileCmdMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewBinaryTileCmd builds a TileCmd for one of the binary elementwise
// operators (ADD/SUB/MUL/DIV/MAX/MIN/POW).
func NewBinaryTileCmd(src, dst device.Handle, op Operator, dtype DType, resAddr uint32) *TileCmdMsg {
	return &TileCmdMsg{
		MsgMeta:   newMeta(src, dst, 0),
		ResAddr:   resAddr,
		Operation: op,
		DType:     dtype,
	}
}

// WithOp1Addr/WithOp2Addr/WithOp1/WithOp2 attach operand sources to a
// binary TileCmd. Exactly one of {addr, inline} should be set per
// operand; the tile's FETCH stage treats a non-nil Op as already known
// and a non-nil OpAddr as something to read from memory.
func (m *TileCmdMsg) WithOp1Addr(addr uint32) *TileCmdMsg { m.Op1Addr = &addr; return m }
func (m *TileCmdMsg) WithOp2Addr(addr uint32) *TileCmdMsg { m.Op2Addr = &addr; return m }
func (m *TileCmdMsg) WithOp1(v uint32) *TileCmdMsg        { m.Op1 = &v; return m }
func (m *TileCmdMsg) WithOp2(v uint32) *TileCmdMsg        { m.Op2 = &v; return m }

// NewDotTileCmd builds a TileCmd for the DOT operator (used to realize
// MatMul/Gemm/Conv2D inner loops).
func NewDotTileCmd(src, dst device.Handle, dtype DType, resAddr uint32, rowAddrs, colAddrs []uint32) *TileCmdMsg {
	return &TileCmdMsg{
		MsgMeta:   newMeta(src, dst, 0),
		ResAddr:   resAddr,
		Operation: DOT,
		DType:     dtype,
		RowAddrs:  rowAddrs,
		ColAddrs:  colAddrs,
	}
}

// WithBias attaches an optional bias address to a DOT TileCmd.
func (m *TileCmdMsg) WithBias(addr uint32) *TileCmdMsg { m.Bias = &addr; return m }

// TileDoneMsg acknowledges a completed TileCmdMsg.
type TileDoneMsg struct {
	MsgMeta
}

func (m *TileDoneMsg) Kind() Kind  { return TileDone }
func (m *TileDoneMsg) Meta() *MsgMeta { return &m.MsgMeta }

// NewTileDone builds a TileDone ack, correlated by id.
func NewTileDone(src, dst device.Handle, id string) *TileDoneMsg {
	msg := &TileDoneMsg{MsgMeta: newMeta(src, dst, 0)}
	msg.MsgMeta.ID = id
	return msg
}

// Package tile implements the Tile state machine from spec.md §4.5,
// grounded on original_source/core/tile.py and
// accelerators/nio/nio_tile.py for the FETCH compilation rules (binary
// elementwise vs. DOT) and the cache-first read discipline.
package tile

import (
	"fmt"

	"github.com/sarchlab/nio/internal/cache"
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/pe"
	"github.com/sarchlab/nio/internal/router"
)

type state int

const (
	stateIdle state = iota
	stateFetch
	stateSendReads
	stateDispatchToPE
	stateWriteBack
	stateSendAck
)

// operandKind identifies which slot of the in-flight TileCmd a
// MemReadDone's content belongs in once it arrives.
type operandKind int

const (
	kindOp1 operandKind = iota
	kindOp2
	kindRow
	kindCol
	kindBias
)

type pendingRead struct {
	addr  uint32
	kind  operandKind
	index int // row/col index; unused for op1/op2/bias
}

type peStep struct {
	operation message.Operator
	op1, op2  uint32
}

// Tile drives the per-tile-command sequence: FETCH, SEND_READS,
// DISPATCH_TO_PE, WRITE_BACK, SEND_ACK.
type Tile struct {
	device.Base // control-plane handle, registered on the tile-router

	tileRouter *router.Router // TileCmd/TileDone traffic
	dataRouter *router.Router // MemRead/MemWrite/PECmd traffic
	dataHandle device.Handle
	memHandle  device.Handle // destination for MemRead/MemWrite
	pe         *pe.PE

	cache *cache.Cache

	state state
	cur   *message.TileCmdMsg

	toSend      []pendingRead
	outstanding map[string]pendingRead
	remaining   int

	op1Value, op2Value         uint32
	rowValues, colValues       []uint32
	biasValue                  uint32
	haveBias                   bool

	peSteps   []peStep
	peStepPos int
	peOutID   string
	result    uint32

	writeMsgID string

	stalled     bool
	stallCycles uint64
}

// New constructs a Tile, registering its control handle on tileRouter
// and its data handle on dataRouter (the memory/PE router), targeting
// memHandle for MemRead/MemWrite traffic and driving the given PE.
func New(name string, tileRouter, dataRouter *router.Router, memHandle device.Handle, p *pe.PE, cacheEntries int) *Tile {
	h := tileRouter.AddConnection(name, 4)
	dh := dataRouter.AddConnection(name+".data", 8)
	return &Tile{
		Base:       device.NewBase(name, h),
		tileRouter: tileRouter,
		dataRouter: dataRouter,
		dataHandle: dh,
		memHandle:  memHandle,
		pe:         p,
		cache:      cache.New(cacheEntries),
	}
}

// StallCycles returns the number of ticks this tile spent unable to
// make forward progress because of back-pressure.
func (t *Tile) StallCycles() uint64 { return t.stallCycles }

// PEStallCycles returns the stall count of the PE this tile drives.
func (t *Tile) PEStallCycles() uint64 { return t.pe.StallCycles() }

// ClearCache invalidates the tile's input cache, for host-driven layer
// boundaries.
func (t *Tile) ClearCache() { t.cache.Clear() }

// Idle reports whether the tile is ready to accept a new TileCmd.
func (t *Tile) Idle() bool { return t.state == stateIdle }

// Process advances the tile (and the PE it drives) by one tick.
func (t *Tile) Process() {
	t.drainDataReplies()

	switch t.state {
	case stateIdle:
		t.tryFetchCmd()
	case stateFetch:
		t.compile()
		t.state = stateSendReads
	case stateSendReads:
		t.driveSendReads()
	case stateDispatchToPE:
		t.driveDispatch()
	case stateWriteBack:
		t.driveWriteBack()
	case stateSendAck:
		t.driveSendAck()
	}

	t.pe.Process()
}

func (t *Tile) tryFetchCmd() {
	msg, ok := t.tileRouter.Fetch(t.Handle())
	if !ok {
		return
	}
	cmd, ok := msg.(*message.TileCmdMsg)
	if !ok {
		panic(fmt.Sprintf("tile: unexpected message kind %s delivered to tile control port", msg.Kind()))
	}
	t.cur = cmd
	t.toSend = nil
	t.outstanding = make(map[string]pendingRead)
	t.remaining = 0
	t.op1Value, t.op2Value = 0, 0
	t.rowValues, t.colValues = nil, nil
	t.haveBias = false
	t.peSteps = nil
	t.peStepPos = 0
	t.state = stateFetch
}

// compile builds the read plan for the in-flight TileCmd, per spec.md
// §4.5: binary elementwise operators need at most two operands (inline
// or fetched); DOT reads all row_addrs then all col_addrs, optionally a
// bias. Cache hits resolve immediately; misses become queued MemReads.
func (t *Tile) compile() {
	cmd := t.cur
	if cmd.Operation == message.DOT {
		t.rowValues = make([]uint32, len(cmd.RowAddrs))
		t.colValues = make([]uint32, len(cmd.ColAddrs))
		for i, addr := range cmd.RowAddrs {
			t.resolveOrQueue(addr, kindRow, i)
		}
		for i, addr := range cmd.ColAddrs {
			t.resolveOrQueue(addr, kindCol, i)
		}
		if cmd.Bias != nil {
			t.resolveOrQueue(*cmd.Bias, kindBias, 0)
		}
		return
	}

	if cmd.Op1 != nil {
		t.op1Value = *cmd.Op1
	} else if cmd.Op1Addr != nil {
		t.resolveOrQueue(*cmd.Op1Addr, kindOp1, 0)
	}
	if cmd.Op2 != nil {
		t.op2Value = *cmd.Op2
	} else if cmd.Op2Addr != nil {
		t.resolveOrQueue(*cmd.Op2Addr, kindOp2, 0)
	}
}

func (t *Tile) resolveOrQueue(addr uint32, kind operandKind, index int) {
	if v, hit := t.cache.Lookup(addr); hit {
		t.store(kind, index, v)
		return
	}
	t.toSend = append(t.toSend, pendingRead{addr: addr, kind: kind, index: index})
	t.remaining++
}

func (t *Tile) store(kind operandKind, index int, v uint32) {
	switch kind {
	case kindOp1:
		t.op1Value = v
	case kindOp2:
		t.op2Value = v
	case kindRow:
		t.rowValues[index] = v
	case kindCol:
		t.colValues[index] = v
	case kindBias:
		t.biasValue = v
		t.haveBias = true
	}
}

// driveSendReads drains queued MemReads to the data router and advances
// once every read has been sent and every reply received.
func (t *Tile) driveSendReads() {
	for len(t.toSend) > 0 {
		task := t.toSend[0]
		req := message.NewMemRead(t.dataHandle, t.memHandle, 0, task.addr)
		if !t.dataRouter.Send(req) {
			t.stalled = true
			t.stallCycles++
			return
		}
		t.outstanding[req.Meta().ID] = task
		t.toSend = t.toSend[1:]
	}
	t.stalled = false
	if t.remaining == 0 {
		t.buildPESteps()
		t.state = stateDispatchToPE
	}
}

func (t *Tile) buildPESteps() {
	cmd := t.cur
	if cmd.Operation == message.DOT {
		for i := range t.rowValues {
			op := message.MAC
			if i == 0 {
				op = message.CMAC
			}
			t.peSteps = append(t.peSteps, peStep{operation: op, op1: t.rowValues[i], op2: t.colValues[i]})
		}
		if t.haveBias {
			t.peSteps = append(t.peSteps, peStep{operation: message.MAC, op1: t.biasValue, op2: floatOne(cmd.DType)})
		}
		return
	}
	t.peSteps = []peStep{{operation: cmd.Operation, op1: t.op1Value, op2: t.op2Value}}
}

func floatOne(dtype message.DType) uint32 {
	if dtype == message.Int32 {
		return 1
	}
	return 0x3F800000 // math.Float32bits(1.0)
}

// driveDispatch sends PECmds one at a time (preserving accumulator
// order) and advances once every PEDone has been received.
func (t *Tile) driveDispatch() {
	if t.peOutID == "" {
		if t.peStepPos >= len(t.peSteps) {
			t.state = stateWriteBack
			return
		}
		step := t.peSteps[t.peStepPos]
		req := message.NewPECmd(t.dataHandle, t.pe.Handle(), 0, step.operation, t.cur.DType, step.op1, step.op2)
		if !t.dataRouter.Send(req) {
			t.stalled = true
			t.stallCycles++
			return
		}
		t.stalled = false
		t.peOutID = req.Meta().ID
	}
}

func (t *Tile) driveWriteBack() {
	if t.writeMsgID == "" {
		req := message.NewMemWrite(t.dataHandle, t.memHandle, 0, t.cur.ResAddr, t.result)
		if !t.dataRouter.Send(req) {
			t.stalled = true
			t.stallCycles++
			return
		}
		t.stalled = false
		t.writeMsgID = req.Meta().ID
	}
}

func (t *Tile) driveSendAck() {
	ack := message.NewTileDone(t.Handle(), t.cur.Meta().Source, t.cur.Meta().ID)
	if !t.tileRouter.Send(ack) {
		t.stalled = true
		t.stallCycles++
		return
	}
	t.stalled = false
	t.cur = nil
	t.state = stateIdle
}

// drainDataReplies pulls every reply currently queued for this tile on
// the data router and routes it to the right bookkeeping, regardless of
// which state the tile is in — MemReadDone/PEDone/MemWriteDone can
// arrive on the tick after their request was sent, which may be before
// the tile's state machine has advanced to check for them.
func (t *Tile) drainDataReplies() {
	for {
		msg, ok := t.dataRouter.Fetch(t.dataHandle)
		if !ok {
			return
		}
		switch m := msg.(type) {
		case *message.MemReadDoneMsg:
			task, known := t.outstanding[m.Meta().ID]
			if !known {
				panic(fmt.Sprintf("tile: MemReadDone %s has no matching outstanding request", m.Meta().ID))
			}
			delete(t.outstanding, m.Meta().ID)
			t.cache.Install(m.Addr, m.Content)
			t.store(task.kind, task.index, m.Content)
			t.remaining--
		case *message.PEDoneMsg:
			if m.Meta().ID != t.peOutID {
				panic("tile: PEDone correlation mismatch")
			}
			t.result = m.Result
			t.peOutID = ""
			t.peStepPos++
		case *message.MemWriteDoneMsg:
			if m.Meta().ID != t.writeMsgID {
				panic("tile: MemWriteDone correlation mismatch")
			}
			t.writeMsgID = ""
			t.state = stateSendAck
		default:
			panic(fmt.Sprintf("tile: unexpected message kind %s on data port", msg.Kind()))
		}
	}
}

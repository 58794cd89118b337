// Package memsys implements the pipelined Memory and the MemoryMap
// from spec.md §3, §4.3 and §4.8.
//
// Grounded on original_source/accelerators/nio/nio_mem_piped.py (the
// two independent read/write pipelines sharing one fetch stage) and on
// the teacher's sim.Buffer-backed router for the queueing discipline;
// the stage-shift/commit logic here is original to this package since
// neither the teacher nor the rest of the pack models a pipelined
// memory controller directly.
package memsys

import (
	"fmt"

	"github.com/sarchlab/nio/internal/clock"
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/pipeline"
	"github.com/sarchlab/nio/internal/router"
	"github.com/sarchlab/nio/internal/trace"
)

// Memory is a linear array of word-sized cells reachable through a
// single router port, with independent read and write pipelines of
// configurable depth sharing one fetch stage.
type Memory struct {
	device.Base

	clock     *clock.Clock
	router    *router.Router
	wordBytes uint32
	cells     []uint32
	written   []bool

	depth      int
	readSlots  []pipeline.Slot
	writeSlots []pipeline.Slot

	stalled     bool
	stallCycles uint64

	trace *trace.Logger
}

// Config controls Memory construction.
type Config struct {
	Name      string
	NumCells  uint32
	WordBytes uint32 // defaults to 4 if zero
	Depth     int    // defaults to 2 if zero
	QueueCap  int    // router queue capacity for this device's handle
}

// New constructs a Memory and registers it on r.
func New(clk *clock.Clock, r *router.Router, cfg Config, tr *trace.Logger) *Memory {
	wordBytes := cfg.WordBytes
	if wordBytes == 0 {
		wordBytes = 4
	}
	depth := cfg.Depth
	if depth == 0 {
		depth = 2
	}
	if depth < 2 {
		panic(fmt.Sprintf("memsys: pipeline depth %d must be >= 2", depth))
	}
	queueCap := cfg.QueueCap
	if queueCap == 0 {
		queueCap = 16
	}

	h := r.AddConnection(cfg.Name, queueCap)
	return &Memory{
		Base:       device.NewBase(cfg.Name, h),
		clock:      clk,
		router:     r,
		wordBytes:  wordBytes,
		cells:      make([]uint32, cfg.NumCells),
		written:    make([]bool, cfg.NumCells),
		depth:      depth,
		readSlots:  make([]pipeline.Slot, depth),
		writeSlots: make([]pipeline.Slot, depth),
		trace:      tr,
	}
}

func (m *Memory) index(addr uint32) uint32 {
	return addr / m.wordBytes
}

// Peek returns the raw 32-bit content stored at addr. Reading an
// out-of-bounds or never-written address is a programming error and
// panics, per spec.md §3's "peek on uninitialized cell is an error".
func (m *Memory) Peek(addr uint32) uint32 {
	idx := m.index(addr)
	if idx >= uint32(len(m.cells)) {
		panic(fmt.Sprintf("memsys: read address 0x%08X out of bounds", addr))
	}
	if !m.written[idx] {
		panic(fmt.Sprintf("memsys: read of uninitialized address 0x%08X", addr))
	}
	if m.trace != nil {
		m.trace.MemoryAccess(addr, "read", m.clock.Now())
	}
	return m.cells[idx]
}

// Poke stores content at addr. An out-of-bounds address is a
// programming error and panics.
func (m *Memory) Poke(addr, content uint32) {
	idx := m.index(addr)
	if idx >= uint32(len(m.cells)) {
		panic(fmt.Sprintf("memsys: write address 0x%08X out of bounds", addr))
	}
	m.cells[idx] = content
	m.written[idx] = true
	if m.trace != nil {
		m.trace.MemoryAccess(addr, "write", m.clock.Now())
	}
}

// StallCycles returns the number of ticks the memory spent unable to
// deliver a completed read or write reply because of back-pressure.
func (m *Memory) StallCycles() uint64 { return m.stallCycles }

// Process advances the memory by one tick, per spec.md §4.3.
func (m *Memory) Process() {
	if m.stalled {
		rOK := m.tryCommitRead()
		wOK := m.tryCommitWrite()
		if rOK && wOK {
			m.stalled = false
		} else {
			m.stallCycles++
		}
		return
	}

	for i := m.depth - 1; i >= 1; i-- {
		m.readSlots[i] = m.readSlots[i-1]
		m.writeSlots[i] = m.writeSlots[i-1]
	}
	m.readSlots[0] = pipeline.Slot{}
	m.writeSlots[0] = pipeline.Slot{}

	if msg, ok := m.router.Fetch(m.Handle()); ok {
		switch mm := msg.(type) {
		case *message.MemReadMsg:
			m.readSlots[0].Put(mm)
		case *message.MemWriteMsg:
			m.writeSlots[0].Put(mm)
		default:
			panic(fmt.Sprintf("memsys: unexpected message kind %s delivered to memory", msg.Kind()))
		}
	}

	rOK := m.tryCommitRead()
	wOK := m.tryCommitWrite()
	if !rOK || !wOK {
		m.stalled = true
		m.stallCycles++
	}
}

func (m *Memory) tryCommitRead() bool {
	slot := &m.readSlots[m.depth-1]
	if slot.Empty() {
		return true
	}
	req := slot.Peek().(*message.MemReadMsg)
	content := m.Peek(req.Addr)
	reply := message.NewMemReadDone(m.Handle(), req.Meta().Source, req.Meta().ID, req.Meta().SeqNum, req.Addr, content)
	if !m.router.Send(reply) {
		return false
	}
	slot.Take()
	return true
}

func (m *Memory) tryCommitWrite() bool {
	slot := &m.writeSlots[m.depth-1]
	if slot.Empty() {
		return true
	}
	req := slot.Peek().(*message.MemWriteMsg)
	m.Poke(req.Addr, req.Content)
	reply := message.NewMemWriteDone(m.Handle(), req.Meta().Source, req.Meta().ID, req.Meta().SeqNum)
	if !m.router.Send(reply) {
		return false
	}
	slot.Take()
	return true
}

// Package system wires together the Clock, the two MessageRouters, the
// pipelined Memory, and a row-major grid of Tiles (each driving one
// PE), and drives the fixed per-cycle sweep from spec.md §4.1: tick,
// then memory.process(), then tile.process() in row-major order.
//
// Grounded on the teacher's sample drivers (samples/relu/main.go,
// samples/matrixmulti/main.go) for the shape of a top-level "build the
// device grid, then loop ticking it" driver, adapted to this system's
// two-router, host-push-TileCmd discipline instead of the teacher's
// mesh-routed VLIW program loader.
package system

import (
	"fmt"

	"github.com/sarchlab/nio/internal/alloc"
	"github.com/sarchlab/nio/internal/clock"
	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/pe"
	"github.com/sarchlab/nio/internal/router"
	"github.com/sarchlab/nio/internal/tile"
	"github.com/sarchlab/nio/internal/trace"
)

// Config describes the accelerator grid to build.
type Config struct {
	NumTileRows, NumTileCols int
	MemoryWords              uint32
	MemoryWordBytes          uint32
	MemoryPipelineDepth      int
	AllocatorGrain           uint32
	CacheEntries             int
	Trace                    *trace.Logger
}

// System is the top-level simulation driver.
type System struct {
	clock *clock.Clock

	tileRouter *router.Router // host <-> tiles: TileCmd/TileDone
	dataRouter *router.Router // memory/PE traffic

	memory    *memsys.Memory
	allocator *alloc.BitmapAllocator
	memoryMap *memsys.MemoryMap

	tiles      []*tile.Tile // row-major
	rows, cols int

	hostHandle device.Handle
	trace      *trace.Logger
}

// New builds a System per cfg: one Memory, one BitmapAllocator/MemoryMap
// over it, and a rows*cols grid of Tiles each driving its own PE.
func New(cfg Config) *System {
	if cfg.NumTileRows <= 0 || cfg.NumTileCols <= 0 {
		panic("system: tile grid dimensions must be positive")
	}

	clk := clock.New()
	tileRouter := router.New(clk.Now)
	dataRouter := router.New(clk.Now)

	wordBytes := cfg.MemoryWordBytes
	if wordBytes == 0 {
		wordBytes = 4
	}
	mem := memsys.New(clk, dataRouter, memsys.Config{
		Name:      "memory",
		NumCells:  cfg.MemoryWords,
		WordBytes: wordBytes,
		Depth:     cfg.MemoryPipelineDepth,
		QueueCap:  256,
	}, cfg.Trace)

	grain := cfg.AllocatorGrain
	if grain == 0 {
		grain = wordBytes
	}
	allocator := alloc.New(cfg.MemoryWords*wordBytes, grain)
	memoryMap := memsys.NewMemoryMap(allocator, mem)

	cacheEntries := cfg.CacheEntries
	if cacheEntries == 0 {
		cacheEntries = 64
	}

	hostHandle := tileRouter.AddConnection("host", 1024)

	tiles := make([]*tile.Tile, 0, cfg.NumTileRows*cfg.NumTileCols)
	for r := 0; r < cfg.NumTileRows; r++ {
		for c := 0; c < cfg.NumTileCols; c++ {
			name := fmt.Sprintf("tile[%d][%d]", r, c)
			p := pe.New(name+".pe", dataRouter)
			t := tile.New(name, tileRouter, dataRouter, mem.Handle(), p, cacheEntries)
			tiles = append(tiles, t)
		}
	}

	return &System{
		clock:      clk,
		tileRouter: tileRouter,
		dataRouter: dataRouter,
		memory:     mem,
		allocator:  allocator,
		memoryMap:  memoryMap,
		tiles:      tiles,
		rows:       cfg.NumTileRows,
		cols:       cfg.NumTileCols,
		hostHandle: hostHandle,
		trace:      cfg.Trace,
	}
}

// Clock returns the system's Clock.
func (s *System) Clock() *clock.Clock { return s.clock }

// MemoryMap returns the MemoryMap FlexNodes use to map/unmap tensors.
func (s *System) MemoryMap() *memsys.MemoryMap { return s.memoryMap }

// TileHandles returns every tile's control-plane handle, in row-major
// order, for FlexNode.compile's round-robin destination list.
func (s *System) TileHandles() []device.Handle {
	handles := make([]device.Handle, len(s.tiles))
	for i, t := range s.tiles {
		handles[i] = t.Handle()
	}
	return handles
}

// HostHandle returns the handle TileDone acknowledgements are replied
// to; FlexNode-emitted TileCmds should set this as their source.
func (s *System) HostHandle() device.Handle { return s.hostHandle }

// Submit enqueues a TileCmd on the tile-router. It returns false if the
// destination tile's queue is full (back-pressure; the caller should
// retry next tick).
func (s *System) Submit(cmd *message.TileCmdMsg) bool {
	return s.tileRouter.Send(cmd)
}

// DrainDone dequeues every TileDone currently waiting for the host.
func (s *System) DrainDone() []*message.TileDoneMsg {
	var out []*message.TileDoneMsg
	for {
		msg, ok := s.tileRouter.Fetch(s.hostHandle)
		if !ok {
			return out
		}
		done, ok := msg.(*message.TileDoneMsg)
		if !ok {
			panic(fmt.Sprintf("system: unexpected message kind %s delivered to host", msg.Kind()))
		}
		out = append(out, done)
	}
}

// ClearCaches invalidates every tile's input cache, for host-driven
// layer boundaries.
func (s *System) ClearCaches() {
	for _, t := range s.tiles {
		t.ClearCache()
	}
}

// AllIdle reports whether every tile is in IDLE state. The host loop in
// cmd/nio does not call it; it tracks completion by counting the
// TileDone acks returned by DrainDone.
func (s *System) AllIdle() bool {
	for _, t := range s.tiles {
		if !t.Idle() {
			return false
		}
	}
	return true
}

// Step advances the whole system by exactly one tick, in the fixed
// order spec.md §4.1 requires: tick the clock, process memory, then
// process tiles in row-major order (each of which also ticks the PE it
// drives).
func (s *System) Step() {
	s.clock.Tick()
	s.memory.Process()
	for _, t := range s.tiles {
		t.Process()
	}
}

// StallReport summarizes cycle and stall counts for the CLI/report
// layer.
type StallReport struct {
	TotalCycles  uint64
	MemoryStalls uint64
	TileStalls   uint64
	PEStalls     uint64
}

// Report collects the current cycle/stall counters across every device.
func (s *System) Report() StallReport {
	r := StallReport{
		TotalCycles:  s.clock.Now(),
		MemoryStalls: s.memory.StallCycles(),
	}
	for _, t := range s.tiles {
		r.TileStalls += t.StallCycles()
		r.PEStalls += t.PEStallCycles()
	}
	return r
}

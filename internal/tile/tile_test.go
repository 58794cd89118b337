package tile_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/clock"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/pe"
	"github.com/sarchlab/nio/internal/router"
	"github.com/sarchlab/nio/internal/tile"
)

func f32(v float32) uint32 { return math.Float32bits(v) }

var _ = Describe("Tile", func() {
	buildHarness := func() (*clock.Clock, *router.Router, *router.Router, *memsys.Memory, *tile.Tile) {
		clk := clock.New()
		tileRouter := router.New(clk.Now)
		dataRouter := router.New(clk.Now)
		mem := memsys.New(clk, dataRouter, memsys.Config{Name: "mem", NumCells: 256, Depth: 2, QueueCap: 64}, nil)
		p := pe.New("pe0", dataRouter)
		tl := tile.New("tile0", tileRouter, dataRouter, mem.Handle(), p, 8)
		return clk, tileRouter, dataRouter, mem, tl
	}

	step := func(clk *clock.Clock, mem *memsys.Memory, tl *tile.Tile) {
		clk.Tick()
		mem.Process()
		tl.Process()
	}

	It("executes a binary elementwise ADD TileCmd end to end", func() {
		clk, tileRouter, _, mem, tl := buildHarness()
		host := tileRouter.AddConnection("host", 4)

		mem.Poke(0, f32(1.5))
		mem.Poke(4, f32(2.5))

		cmd := message.NewBinaryTileCmd(host, tl.Handle(), message.ADD, message.Float32, 8).
			WithOp1Addr(0).WithOp2Addr(4)
		Expect(tileRouter.Send(cmd)).To(BeTrue())

		for i := 0; i < 40; i++ {
			step(clk, mem, tl)
			if tl.Idle() {
				break
			}
		}

		done, ok := tileRouter.Fetch(host)
		Expect(ok).To(BeTrue())
		Expect(done.Meta().ID).To(Equal(cmd.Meta().ID))
		Expect(math.Float32frombits(mem.Peek(8))).To(Equal(float32(4.0)))
	})

	It("serves a second read for the same address from cache rather than memory", func() {
		clk, tileRouter, _, mem, tl := buildHarness()
		host := tileRouter.AddConnection("host", 4)

		mem.Poke(0, f32(10))
		mem.Poke(4, f32(3))

		cmd1 := message.NewBinaryTileCmd(host, tl.Handle(), message.ADD, message.Float32, 100).
			WithOp1Addr(0).WithOp2Addr(4)
		tileRouter.Send(cmd1)
		for i := 0; i < 60; i++ {
			step(clk, mem, tl)
			if tl.Idle() {
				break
			}
		}
		tileRouter.Fetch(host)

		// Corrupt backing memory at addr 0 so a cache hit is the only
		// way the second command can still see the original value.
		mem.Poke(0, f32(999))

		cmd2 := message.NewBinaryTileCmd(host, tl.Handle(), message.ADD, message.Float32, 104).
			WithOp1Addr(0).WithOp2Addr(4)
		tileRouter.Send(cmd2)
		for i := 0; i < 60; i++ {
			step(clk, mem, tl)
			if tl.Idle() {
				break
			}
		}
		tileRouter.Fetch(host)

		Expect(math.Float32frombits(mem.Peek(104))).To(Equal(float32(13)))
	})
})

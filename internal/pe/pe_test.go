package pe_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/pe"
	"github.com/sarchlab/nio/internal/router"
)

func f32(v float32) uint32 { return math.Float32bits(v) }

var _ = Describe("PE", func() {
	It("computes ADD on float32 bit patterns across its 3 stages", func() {
		r := router.New(func() uint64 { return 0 })
		p := pe.New("pe0", r)
		src := r.AddConnection("src", 4)

		cmd := message.NewPECmd(src, p.Handle(), 0, message.ADD, message.Float32, f32(1.5), f32(2.5))
		Expect(r.Send(cmd)).To(BeTrue())

		p.Process() // IdleStage: fetch
		p.Process() // ExecStage: compute
		p.Process() // AcknStage: reply

		reply, ok := r.Fetch(src)
		Expect(ok).To(BeTrue())
		done := reply.(*message.PEDoneMsg)
		Expect(math.Float32frombits(done.Result)).To(Equal(float32(4.0)))
	})

	It("implements CMAC/MAC/CLEAR accumulator semantics", func() {
		r := router.New(func() uint64 { return 0 })
		p := pe.New("pe0", r)
		src := r.AddConnection("src", 4)

		run := func(op message.Operator, a, b float32) float32 {
			cmd := message.NewPECmd(src, p.Handle(), 0, op, message.Float32, f32(a), f32(b))
			r.Send(cmd)
			p.Process()
			p.Process()
			p.Process()
			reply, _ := r.Fetch(src)
			return math.Float32frombits(reply.(*message.PEDoneMsg).Result)
		}

		Expect(run(message.CMAC, 2, 3)).To(Equal(float32(6)))  // acc = 2*3
		Expect(run(message.MAC, 2, 2)).To(Equal(float32(10)))  // acc = 6 + 2*2
		Expect(run(message.CLEAR, 0, 0)).To(Equal(float32(0))) // acc reset
		Expect(run(message.MAC, 5, 1)).To(Equal(float32(5)))   // acc = 0 + 5*1
	})

	It("produces IEEE-754 division-by-zero results rather than erroring", func() {
		r := router.New(func() uint64 { return 0 })
		p := pe.New("pe0", r)
		src := r.AddConnection("src", 4)

		cmd := message.NewPECmd(src, p.Handle(), 0, message.DIV, message.Float32, f32(1.0), f32(0.0))
		r.Send(cmd)
		p.Process()
		p.Process()
		p.Process()
		reply, _ := r.Fetch(src)
		result := math.Float32frombits(reply.(*message.PEDoneMsg).Result)
		Expect(math.IsInf(float64(result), 1)).To(BeTrue())
	})

	It("stalls when the reply destination is full, and retries until it succeeds", func() {
		r := router.New(func() uint64 { return 0 })
		p := pe.New("pe0", r)
		src := r.AddConnection("src", 1) // capacity 1, pre-filled below

		blocker := r.AddConnection("blocker", 1)
		r.Send(message.NewMemRead(blocker, src, 0, 0)) // occupy src's one slot

		cmd := message.NewPECmd(src, p.Handle(), 0, message.ADD, message.Float32, f32(1), f32(1))
		r.Send(cmd)
		p.Process() // fetch
		p.Process() // exec
		p.Process() // ackn attempt: src is full, PE stalls
		Expect(p.StallCycles()).To(Equal(uint64(1)))

		r.Fetch(src) // drain the blocker message, freeing room
		p.Process()  // retry succeeds
		Expect(p.StallCycles()).To(Equal(uint64(1)))

		reply, ok := r.Fetch(src)
		Expect(ok).To(BeTrue())
		Expect(reply.(*message.PEDoneMsg)).NotTo(BeNil())
	})
})

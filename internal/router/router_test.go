package router_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/router"
)

var _ = Describe("Router", func() {
	var (
		now uint64
		r   *router.Router
	)

	BeforeEach(func() {
		now = 0
		r = router.New(func() uint64 { return now })
	})

	It("panics when registering the same name twice", func() {
		r.AddConnection("a", 4)
		Expect(func() { r.AddConnection("a", 4) }).To(Panic())
	})

	It("panics on send/fetch to an unregistered destination", func() {
		Expect(func() { r.Send(message.NewMemRead(1, 999, 0, 0)) }).To(Panic())
		Expect(func() { r.Fetch(999) }).To(Panic())
	})

	Context("back-pressure (spec scenario 5)", func() {
		It("capacity 1: first send succeeds, second fails, then one fetch frees room", func() {
			src := r.AddConnection("src", 4)
			dst := r.AddConnection("dst", 1)

			m1 := message.NewMemRead(src, dst, 0, 0x10)
			Expect(r.Send(m1)).To(BeTrue())

			m2 := message.NewMemRead(src, dst, 1, 0x20)
			Expect(r.Send(m2)).To(BeFalse())

			_, ok := r.Fetch(dst)
			Expect(ok).To(BeTrue())

			Expect(r.Send(m2)).To(BeTrue())
		})

		It("capacity k: first k sends succeed, the k+1-th fails", func() {
			src := r.AddConnection("src", 4)
			dst := r.AddConnection("dst", 3)

			for i := 0; i < 3; i++ {
				Expect(r.Send(message.NewMemRead(src, dst, i, uint32(i)))).To(BeTrue())
			}
			Expect(r.Send(message.NewMemRead(src, dst, 3, 3))).To(BeFalse())
		})
	})

	It("stamps recv_clock >= sent_clock for every fetched message", func() {
		src := r.AddConnection("src", 4)
		dst := r.AddConnection("dst", 4)

		now = 5
		m := message.NewMemRead(src, dst, 0, 0x10)
		Expect(r.Send(m)).To(BeTrue())

		now = 9
		got, ok := r.Fetch(dst)
		Expect(ok).To(BeTrue())
		Expect(got.Meta().RecvClock).To(BeNumerically(">=", got.Meta().SentClock))
		Expect(got.Meta().SentClock).To(Equal(uint64(5)))
		Expect(got.Meta().RecvClock).To(Equal(uint64(9)))
	})

	It("delivers FIFO per (source, destination) pair", func() {
		src := r.AddConnection("src", 4)
		dst := r.AddConnection("dst", 4)

		r.Send(message.NewMemRead(src, dst, 0, 1))
		r.Send(message.NewMemRead(src, dst, 1, 2))

		first, _ := r.Fetch(dst)
		second, _ := r.Fetch(dst)
		Expect(first.(*message.MemReadMsg).Addr).To(Equal(uint32(1)))
		Expect(second.(*message.MemReadMsg).Addr).To(Equal(uint32(2)))
	})
})

package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/pipeline"
)

var _ = Describe("Slot", func() {
	It("starts empty", func() {
		var s pipeline.Slot
		Expect(s.Empty()).To(BeTrue())
		Expect(s.Peek()).To(BeNil())
	})

	It("holds what it is Put and returns it unchanged from Peek", func() {
		var s pipeline.Slot
		m := message.NewMemRead(1, 2, 0, 0x10)
		s.Put(m)
		Expect(s.Empty()).To(BeFalse())
		Expect(s.Peek()).To(Equal(message.Message(m)))
	})

	It("clears on Take and returns the previous contents", func() {
		var s pipeline.Slot
		m := message.NewMemRead(1, 2, 0, 0x10)
		s.Put(m)
		taken := s.Take()
		Expect(taken).To(Equal(message.Message(m)))
		Expect(s.Empty()).To(BeTrue())
	})
})

// shiftStage moves whatever is in `in` into `out` each tick, stalling
// whenever `out` is already occupied (mirroring the back-pressure
// discipline Memory's pipelines use).
type shiftStage struct {
	in, out *pipeline.Slot
	stalled bool
}

func (s *shiftStage) Process() {
	if s.in.Empty() {
		s.stalled = false
		return
	}
	if !s.out.Empty() {
		s.stalled = true
		return
	}
	s.stalled = false
	s.out.Put(s.in.Take())
}

func (s *shiftStage) Stalled() bool { return s.stalled }

var _ = Describe("ProcessAll", func() {
	It("advances a chain of stages in reverse order within a single tick", func() {
		var a, b, c pipeline.Slot
		stages := []pipeline.Stage{
			&shiftStage{in: &a, out: &b},
			&shiftStage{in: &b, out: &c},
		}
		m := message.NewMemRead(1, 2, 0, 0x10)
		a.Put(m)

		pipeline.ProcessAll(stages)
		Expect(a.Empty()).To(BeTrue())
		Expect(b.Empty()).To(BeFalse())
		Expect(c.Empty()).To(BeTrue())

		pipeline.ProcessAll(stages)
		Expect(b.Empty()).To(BeTrue())
		Expect(c.Peek()).To(Equal(message.Message(m)))
	})

	It("would let a naive forward order double-advance a message in one tick", func() {
		// Demonstrates why ProcessAll walks stages back-to-front: processing
		// the upstream stage first would let the same message flow through
		// two stages in a single tick.
		var a, b, c pipeline.Slot
		m := message.NewMemRead(1, 2, 0, 0x10)
		a.Put(m)

		forward := []pipeline.Stage{
			&shiftStage{in: &a, out: &b},
			&shiftStage{in: &b, out: &c},
		}
		forward[0].Process()
		forward[1].Process()
		Expect(c.Peek()).To(Equal(message.Message(m)))
	})
})

var _ = Describe("AnyStalled", func() {
	It("reports false when no stage is stalled", func() {
		var a, b pipeline.Slot
		stages := []pipeline.Stage{&shiftStage{in: &a, out: &b}}
		Expect(pipeline.AnyStalled(stages)).To(BeFalse())
	})

	It("reports true when a downstream slot is occupied and blocking", func() {
		var a, b pipeline.Slot
		b.Put(message.NewMemRead(1, 2, 0, 0x20))
		a.Put(message.NewMemRead(1, 2, 0, 0x10))
		stage := &shiftStage{in: &a, out: &b}
		stage.Process()
		stages := []pipeline.Stage{stage}
		Expect(pipeline.AnyStalled(stages)).To(BeTrue())
	})
})

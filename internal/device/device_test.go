package device_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/device"
)

var _ = Describe("Base", func() {
	It("exposes the name and handle it was constructed with", func() {
		b := device.NewBase("mem", device.Handle(7))
		Expect(b.Name()).To(Equal("mem"))
		Expect(b.Handle()).To(Equal(device.Handle(7)))
	})

	It("accumulates stall cycles independently of other instances", func() {
		a := device.NewBase("a", 1)
		b := device.NewBase("b", 2)
		a.RecordStall()
		a.RecordStall()
		b.RecordStall()
		Expect(a.StallCycles()).To(Equal(uint64(2)))
		Expect(b.StallCycles()).To(Equal(uint64(1)))
	})

	It("starts with zero stall cycles", func() {
		b := device.NewBase("fresh", 3)
		Expect(b.StallCycles()).To(Equal(uint64(0)))
	})
})

package memsys_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/alloc"
	"github.com/sarchlab/nio/internal/clock"
	"github.com/sarchlab/nio/internal/memsys"
	"github.com/sarchlab/nio/internal/router"
)

var _ = Describe("MemoryMap", func() {
	It("round-trips a float32 vector through sys2mem/mem2sys", func() {
		clk := clock.New()
		r := router.New(clk.Now)
		mem := memsys.New(clk, r, memsys.Config{Name: "mem", NumCells: 64}, nil)
		a := alloc.New(256, 4)
		mm := memsys.NewMemoryMap(a, mem)

		values := []float32{1.5, -2.25, 0, 3.40282e+38}
		var key [1]byte
		base, ok := mm.Map(&key, uint32(len(values))*4)
		Expect(ok).To(BeTrue())

		mm.Sys2Mem(base, values)
		got := mm.Mem2Sys(base, len(values))
		Expect(got).To(Equal(values))
	})

	It("panics on double-map and on unmapping an unmapped array", func() {
		clk := clock.New()
		r := router.New(clk.Now)
		mem := memsys.New(clk, r, memsys.Config{Name: "mem", NumCells: 64}, nil)
		a := alloc.New(256, 4)
		mm := memsys.NewMemoryMap(a, mem)

		var key [1]byte
		_, ok := mm.Map(&key, 16)
		Expect(ok).To(BeTrue())
		Expect(func() { mm.Map(&key, 16) }).To(Panic())

		var other [1]byte
		Expect(func() { mm.Unmap(&other) }).To(Panic())
	})
})

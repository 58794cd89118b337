package trace_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/nio/internal/trace"
)

var _ = Describe("Logger", func() {
	It("writes a memory-access line in the 0xADDR (kind) cycle format", func() {
		var buf bytes.Buffer
		l := trace.New(&buf, nil)
		l.MemoryAccess(0x10, "read", 7)
		Expect(buf.String()).To(Equal("0x00000010 (read) 7\n"))
	})

	It("is a no-op when no writer was configured", func() {
		l := trace.New(nil, nil)
		Expect(func() { l.MemoryAccess(0x10, "write", 1) }).NotTo(Panic())
	})

	It("tolerates a nil *Logger for Trace/Waveform/MemoryAccess", func() {
		var l *trace.Logger
		Expect(func() {
			l.MemoryAccess(0, "read", 0)
			l.Trace("msg")
			l.Waveform("msg")
		}).NotTo(Panic())
	})
})

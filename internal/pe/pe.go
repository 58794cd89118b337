// Package pe implements the Processing Element: a 3-stage pipeline of
// IdleStage (fetch), ExecStage (arithmetic + accumulator) and AcknStage
// (reply), per spec.md §4.4. Grounded on original_source/core/pe.py and
// accelerators/nio/nio_pe.pipelined.py for the accumulator semantics;
// the stage machinery here is a finite-state realization of the same
// pipeline rather than a literal port, since spec.md further says at
// most one command occupies a PE at a time — there is never overlap to
// model as simultaneous stage slots.
package pe

import (
	"fmt"
	"math"

	"github.com/sarchlab/nio/internal/device"
	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/router"
)

type stage int

const (
	stageIdle stage = iota
	stageExec
	stageAckn
)

// PE is one processing element: a single accumulator register plus the
// idle/exec/ackn state machine that advances one PECmd at a time.
type PE struct {
	device.Base

	router *router.Router

	accumulator uint32 // current accumulator, as the active dtype's bit pattern
	cur         *message.PECmdMsg
	result      uint32
	stage       stage

	stalled     bool
	stallCycles uint64
}

// New constructs a PE and registers it on r with a one-entry queue,
// matching the "queue capacity = 1" rule of spec.md §4.4.
func New(name string, r *router.Router) *PE {
	h := r.AddConnection(name, 1)
	return &PE{Base: device.NewBase(name, h), router: r}
}

// StallCycles returns the number of ticks this PE spent unable to
// deliver a PEDone reply because of back-pressure.
func (p *PE) StallCycles() uint64 { return p.stallCycles }

// Process advances the PE by one tick.
func (p *PE) Process() {
	if p.stalled {
		p.tryAck()
		return
	}

	switch p.stage {
	case stageIdle:
		msg, ok := p.router.Fetch(p.Handle())
		if !ok {
			return
		}
		cmd, ok := msg.(*message.PECmdMsg)
		if !ok {
			panic(fmt.Sprintf("pe: unexpected message kind %s delivered to PE", msg.Kind()))
		}
		p.cur = cmd
		p.stage = stageExec
	case stageExec:
		p.result = p.exec(p.cur)
		p.stage = stageAckn
	case stageAckn:
		p.tryAck()
	}
}

func (p *PE) tryAck() {
	reply := message.NewPEDone(p.Handle(), p.cur.Meta().Source, p.cur.Meta().ID, p.cur.Meta().SeqNum, p.result)
	if p.router.Send(reply) {
		p.stalled = false
		p.cur = nil
		p.stage = stageIdle
		return
	}
	p.stalled = true
	p.stallCycles++
}

// exec performs cmd's operator on its operands, applying the
// accumulator semantics from spec.md §4.4: CLEAR zeroes the
// accumulator, CMAC initializes it to op1*op2, MAC adds to it, and
// every other operator is a pure function of its operands that leaves
// the accumulator untouched.
func (p *PE) exec(cmd *message.PECmdMsg) uint32 {
	switch cmd.Operation {
	case message.CLEAR:
		p.accumulator = encode(cmd.DType, 0)
		return p.accumulator
	case message.CMAC:
		p.accumulator = encode(cmd.DType, decode(cmd.DType, cmd.Op1)*decode(cmd.DType, cmd.Op2))
		return p.accumulator
	case message.MAC:
		acc := decode(cmd.DType, p.accumulator)
		acc += decode(cmd.DType, cmd.Op1) * decode(cmd.DType, cmd.Op2)
		p.accumulator = encode(cmd.DType, acc)
		return p.accumulator
	default:
		return encode(cmd.DType, pureOp(cmd.Operation, decode(cmd.DType, cmd.Op1), decode(cmd.DType, cmd.Op2)))
	}
}

// pureOp computes the operators that never touch the accumulator.
// Division by zero, overflow and NaN propagate per IEEE-754 rules, as
// spec.md §4.4 requires — Go's float64 arithmetic already does this, so
// no special-casing is needed here.
func pureOp(op message.Operator, a, b float64) float64 {
	switch op {
	case message.ADD:
		return a + b
	case message.SUB:
		return a - b
	case message.MUL:
		return a * b
	case message.DIV:
		return a / b
	case message.MAX:
		return math.Max(a, b)
	case message.MIN:
		return math.Min(a, b)
	case message.POW:
		return math.Pow(a, b)
	default:
		panic(fmt.Sprintf("pe: operator %s cannot be executed directly by a PE", op))
	}
}

// decode interprets a 32-bit payload according to dtype: as an
// IEEE-754 bit pattern, or as a plain signed integer.
func decode(dtype message.DType, bits uint32) float64 {
	switch dtype {
	case message.Float32:
		return float64(math.Float32frombits(bits))
	case message.Int32:
		return float64(int32(bits))
	default:
		panic(fmt.Sprintf("pe: unknown dtype %s", dtype))
	}
}

// encode is the inverse of decode.
func encode(dtype message.DType, v float64) uint32 {
	switch dtype {
	case message.Float32:
		return math.Float32bits(float32(v))
	case message.Int32:
		return uint32(int32(v))
	default:
		panic(fmt.Sprintf("pe: unknown dtype %s", dtype))
	}
}

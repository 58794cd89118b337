// Package pipeline provides Stage/Slot machinery for pipelines (spec.md
// §3 "PipelineStage"). Memory's read/write pipelines (§4.3) are built
// from Slot; the PE keeps its own stage state machine and does not use
// this package.
//
// A pipeline is a fixed ordered list of stages, each holding at most one
// in-flight message. Every tick, stages are processed from the last
// back to the first so that a stage can hand its slot's contents
// forward into the next stage's now-empty slot without clobbering work
// the next stage hasn't consumed yet.
package pipeline

import "github.com/sarchlab/nio/internal/message"

// Slot holds at most one in-flight message between two stages.
type Slot struct {
	msg message.Message
}

// Empty reports whether the slot holds nothing.
func (s *Slot) Empty() bool { return s.msg == nil }

// Peek returns the slot's contents without clearing it.
func (s *Slot) Peek() message.Message { return s.msg }

// Take removes and returns the slot's contents.
func (s *Slot) Take() message.Message {
	m := s.msg
	s.msg = nil
	return m
}

// Put fills the slot. Callers are responsible for only calling this on
// an empty slot; pipelines never overwrite in-flight work.
func (s *Slot) Put(m message.Message) { s.msg = m }

// Stage is one pipeline stage. An implementation typically reads from an
// input slot (filled by the previous stage, or externally for the first
// stage) and writes its result to an output slot (a terminal/commit
// stage has its own side-effecting completion logic instead); the
// interface itself only exposes Process and Stalled.
type Stage interface {
	// Process advances this stage by one tick: it may consume In, do
	// work, and produce into Out. Implementations decide for themselves
	// whether to stall (leave In occupied) based on downstream
	// back-pressure.
	Process()

	// Stalled reports whether this stage is currently held up waiting
	// on a downstream consumer, per the uniform stall definition in
	// spec.md §9: a stage is stalled when it has work to do but cannot
	// hand it off.
	Stalled() bool
}

// ProcessAll advances every stage in the pipeline by one tick, in
// reverse order: each stage runs after its successor, so a message it
// hands forward is not processed again until the next tick.
func ProcessAll(stages []Stage) {
	for i := len(stages) - 1; i >= 0; i-- {
		stages[i].Process()
	}
}

// AnyStalled reports whether any stage in the pipeline is stalled.
func AnyStalled(stages []Stage) bool {
	for _, s := range stages {
		if s.Stalled() {
			return true
		}
	}
	return false
}

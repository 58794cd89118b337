// Package router implements the MessageRouter described in spec.md §3
// and §4.2: a central switchboard of per-destination bounded FIFOs.
//
// Every simulated device registers once to obtain a stable
// device.Handle, then sends and fetches through the router rather than
// holding references to other devices directly. spec.md §9 calls out
// that the source keyed its routing table by Python object identity;
// here every destination is a small integer issued at registration, and
// each destination's queue is one of the teacher's own sim.Buffer
// instances (sarchlab-zeonica's core/port.go backs every Port with
// exactly this type), which already implements the bounded push/pop
// discipline spec.md asks for.
package router

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/nio/internal/message"
	"github.com/sarchlab/nio/internal/device"
)

// Router is the MessageRouter: a registry of named destinations, each
// backed by a bounded FIFO, plus the current simulation clock used to
// stamp sent/received messages.
type Router struct {
	now func() uint64

	names   map[string]device.Handle
	queues  map[device.Handle]sim.Buffer
	nextID  device.Handle
}

// New creates an empty Router. now is called to stamp SentClock and
// RecvClock on messages as they cross the router; System supplies its
// Clock.Now here.
func New(now func() uint64) *Router {
	return &Router{
		now:    now,
		names:  make(map[string]device.Handle),
		queues: make(map[device.Handle]sim.Buffer),
	}
}

// AddConnection registers a new destination with the given queue
// capacity and returns its handle. Registering the same name twice is a
// programming error and panics, matching spec.md §7's treatment of
// setup-time misuse.
func (r *Router) AddConnection(name string, capacity int) device.Handle {
	if _, exists := r.names[name]; exists {
		panic(fmt.Sprintf("router: connection %q already registered", name))
	}
	r.nextID++
	h := r.nextID
	r.names[name] = h
	r.queues[h] = sim.NewBuffer(name, capacity)
	return h
}

// Send enqueues msg on its destination's queue, stamping SentClock. It
// returns false (and leaves msg unqueued) if the destination's queue is
// full — the distinguished back-pressure return spec.md §7 requires
// rather than an exception. Sending to an unregistered destination is a
// programming error and panics.
func (r *Router) Send(msg message.Message) bool {
	dst := msg.Meta().Destination
	q, ok := r.queues[dst]
	if !ok {
		panic(fmt.Sprintf("router: send to unregistered destination %d", dst))
	}
	if !q.CanPush() {
		return false
	}
	msg.Meta().SentClock = r.now()
	q.Push(msg)
	return true
}

// Fetch pops the next message destined for h, if any. ok is false when
// the queue is empty; fetching from an unregistered destination is a
// programming error and panics.
func (r *Router) Fetch(h device.Handle) (msg message.Message, ok bool) {
	q, registered := r.queues[h]
	if !registered {
		panic(fmt.Sprintf("router: fetch from unregistered destination %d", h))
	}
	item := q.Peek()
	if item == nil {
		return nil, false
	}
	q.Pop()
	m := item.(message.Message)
	m.Meta().RecvClock = r.now()
	return m, true
}

// Peek returns the next message destined for h without dequeuing it.
func (r *Router) Peek(h device.Handle) (msg message.Message, ok bool) {
	q, registered := r.queues[h]
	if !registered {
		panic(fmt.Sprintf("router: peek at unregistered destination %d", h))
	}
	item := q.Peek()
	if item == nil {
		return nil, false
	}
	return item.(message.Message), true
}

// CanSend reports whether a message could currently be enqueued for h
// without blocking, letting callers check back-pressure ahead of
// building a message they might have to discard.
func (r *Router) CanSend(h device.Handle) bool {
	q, ok := r.queues[h]
	if !ok {
		panic(fmt.Sprintf("router: can-send check on unregistered destination %d", h))
	}
	return q.CanPush()
}

// NameOf returns the registered name for a handle, for diagnostics.
func (r *Router) NameOf(h device.Handle) string {
	for name, handle := range r.names {
		if handle == h {
			return name
		}
	}
	return "<unknown>"
}

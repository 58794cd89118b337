// Package device defines the identity primitives shared by every
// participant on a MessageRouter.
//
// spec.md §9 re-architects the source's object-identity/dictionary-keyed
// device references into stable integer handles issued by the router at
// registration; a device holds only its handle plus a borrow of the
// router it registered on, never a second router it never registered
// with.
package device

// Handle is an opaque, stable identifier for a device registered on a
// MessageRouter. The zero value never refers to a registered device.
type Handle uint64

// Base is embedded by the simulated components that participate in
// message passing (Memory, PE, Tile). It tracks the device's
// name (for diagnostics), its router handle, and the number of cycles
// during which it could not make forward progress because of
// back-pressure — the uniform stall definition from spec.md §9.
type Base struct {
	name        string
	handle      Handle
	stallCycles uint64
}

// NewBase constructs a Base for a device that has registered on a
// router and been given the supplied handle.
func NewBase(name string, h Handle) Base {
	return Base{name: name, handle: h}
}

// Name returns the device's diagnostic name.
func (b *Base) Name() string { return b.name }

// Handle returns the device's router handle.
func (b *Base) Handle() Handle { return b.handle }

// StallCycles returns the number of cycles this device spent unable to
// make forward progress due to back-pressure.
func (b *Base) StallCycles() uint64 { return b.stallCycles }

// RecordStall increments the stall counter by one cycle.
func (b *Base) RecordStall() { b.stallCycles++ }

// Package arch isolates everything the tracking engine must not know
// about CPU architectures. The core state machine is parameterized over
// the Capability interface; each supported architecture contributes one
// implementation that understands its exception-frame layout. The engine
// only ever sees the canonical RegisterSnapshot and opaque memory
// regions the capability produces.
package arch

import "reboottrack/common"

// Capability is the architecture contract consumed by the fault handler.
// A frame is the raw exception register block exactly as the CPU (or the
// platform's assembly shim) laid it out; the capability is the only code
// that interprets it.
type Capability interface {
	// Name identifies the architecture, e.g. "riscv" or "cortex-m".
	Name() string

	// FrameSize returns the expected raw exception frame size in bytes.
	FrameSize() int

	// Snapshot extracts the canonical pc/lr pair from a raw frame.
	// Returns ok == false when the frame is too short to decode; the
	// fault flow then records the reason without a snapshot rather than
	// guessing at garbage.
	Snapshot(frame []byte) (snap common.RegisterSnapshot, ok bool)

	// CoredumpRegions returns the architecture-mandated memory regions
	// to include in a coredump for the given frame. Platform regions
	// (stacks, heap, statics) are appended by the integrator, not here.
	CoredumpRegions(frame []byte) []common.MemoryRegion
}

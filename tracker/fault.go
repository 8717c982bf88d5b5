package tracker

import (
	"reboottrack/arch"
	"reboottrack/common"
	"reboottrack/coredump"
)

// FaultHandler is the composition point between the engine and the
// architecture/coredump collaborators. One instance is wired at init and
// invoked from the platform's exception vector with the raw frame.
//
// Everything here runs in fault context: no allocation beyond what the
// configured saver does, no logging, and every step tolerates a nested
// fault re-entering HandleFault (the engine's at-most-once guard makes
// the second entry a no-op for the recorded reason).
type FaultHandler struct {
	Engine *Engine
	Arch   arch.Capability

	// Saver persists coredumps. Nil means no coredump support; the
	// fault is still recorded.
	Saver coredump.Saver

	// ExtraRegions are platform memory spans (stacks, statics) appended
	// to the architecture regions in every coredump.
	ExtraRegions []common.MemoryRegion
}

// HandleFault records the fault reason with a register snapshot decoded
// from the raw exception frame, then attempts a coredump save. Returns
// whether a coredump was persisted. A save failure is reported to the
// engine as skipped and otherwise ignored - the device is about to
// reset and nothing must stand in the way.
func (h *FaultHandler) HandleFault(reason common.RebootReason, frame []byte) bool {
	if h.Engine == nil {
		return false
	}

	var regs *common.RegisterSnapshot
	if h.Arch != nil {
		if snap, ok := h.Arch.Snapshot(frame); ok {
			regs = &snap
		}
	}
	h.Engine.MarkResetImminent(reason, regs)

	// A nested fault keeps the first recorded reason; the coredump is
	// attributed to that reason, not to the reason of the re-entry.
	if stored := h.Engine.rec.StoredReason; stored != common.ReasonNotSet {
		reason = stored
	}

	if h.Saver == nil {
		h.Engine.MarkCoredumpSkipped()
		return false
	}

	h.Engine.MarkCoredumpPending()
	if err := h.Saver.Save(h.saveInfo(reason, frame)); err != nil {
		h.Engine.MarkCoredumpSkipped()
		return false
	}
	h.Engine.MarkCoredumpSaved()
	return true
}

// ComputeSaveSize returns the storage a coredump from this handler's
// configuration would need, using a zeroed template frame. Intended for
// capacity checks at init, long before any fault.
func (h *FaultHandler) ComputeSaveSize() int {
	var frame []byte
	if h.Arch != nil {
		frame = make([]byte, h.Arch.FrameSize())
	}
	return coredump.ComputeSaveSize(h.saveInfo(common.ReasonUnknownError, frame))
}

func (h *FaultHandler) saveInfo(reason common.RebootReason, frame []byte) coredump.SaveInfo {
	info := coredump.SaveInfo{
		TraceReason: reason,
		Regs:        frame,
	}
	if h.Arch != nil {
		info.Regions = h.Arch.CoredumpRegions(frame)
	}
	info.Regions = append(info.Regions, h.ExtraRegions...)
	return info
}

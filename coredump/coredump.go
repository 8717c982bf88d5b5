// Package coredump defines the coredump-save collaborator contract. The
// tracking engine forwards a trace reason, the raw exception register
// block and a list of opaque memory regions to a Saver; the actual
// coredump encoding and storage medium live behind the interface.
package coredump

import (
	"errors"

	"reboottrack/common"
)

// ErrSkipped is returned by savers that decline to persist a coredump.
// The fault flow treats any save error as "skipped" and carries on; a
// failed save must never stall a pending reset.
var ErrSkipped = errors.New("coredump: save skipped")

// SaveInfo is the material handed to a saver at fault time. All fields
// are borrowed from fault-context storage and must be copied by savers
// that retain them.
type SaveInfo struct {
	// TraceReason is the reason recorded for the fault.
	TraceReason common.RebootReason

	// Regs is the full raw exception register block, forwarded opaque.
	Regs []byte

	// Regions are the memory spans nominated for capture.
	Regions []common.MemoryRegion
}

// Saver persists a coredump. Save is called from fault context: it must
// be synchronous, bounded and must not depend on the scheduler.
type Saver interface {
	Save(info SaveInfo) error
}

// NoOpSaver is the default saver for integrations without coredump
// storage: every save is reported as skipped.
type NoOpSaver struct{}

func (NoOpSaver) Save(SaveInfo) error {
	return ErrSkipped
}

// MemorySaver keeps deep copies of saved coredumps in memory. Used by
// tests and by the simulator; the copies outlive the fault-context
// buffers they were captured from.
type MemorySaver struct {
	Saved []SaveInfo
}

func (s *MemorySaver) Save(info SaveInfo) error {
	cp := SaveInfo{
		TraceReason: info.TraceReason,
		Regs:        append([]byte(nil), info.Regs...),
	}
	for _, r := range info.Regions {
		cp.Regions = append(cp.Regions, common.MemoryRegion{
			Address: r.Address,
			Data:    append([]byte(nil), r.Data...),
		})
	}
	s.Saved = append(s.Saved, cp)
	return nil
}

// Container framing constants for ComputeSaveSize: a fixed header plus a
// per-region descriptor ahead of each payload.
const (
	headerSize       = 16
	regionHeaderSize = 12
)

// ComputeSaveSize returns the number of bytes a coredump built from info
// would occupy in the simple framed container: header, register block,
// then each region with its descriptor. Callers use it to check storage
// capacity before a fault ever happens, so the field values in info do
// not matter, only the sizes.
func ComputeSaveSize(info SaveInfo) int {
	size := headerSize + len(info.Regs)
	for _, r := range info.Regions {
		size += regionHeaderSize + len(r.Data)
	}
	return size
}

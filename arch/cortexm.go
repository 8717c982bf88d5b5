package arch

import (
	"encoding/binary"

	"reboottrack/common"
)

// CortexM decodes the 8-word frame the Cortex-M hardware stacks on
// exception entry: r0, r1, r2, r3, r12, lr, pc, xpsr, little-endian.
type CortexM struct {
	// SCBAddress, when non-zero, is the base of the System Control Block
	// to include in coredumps so offline analysis can read the fault
	// status registers. SCB must then hold the raw block contents.
	SCBAddress uint64
	SCB        []byte
}

const cortexmFrameWords = 8

// Word indices within the stacked frame.
const (
	cortexmLR = 5
	cortexmPC = 6
)

func (CortexM) Name() string {
	return "cortex-m"
}

func (CortexM) FrameSize() int {
	return cortexmFrameWords * 4
}

func (CortexM) Snapshot(frame []byte) (common.RegisterSnapshot, bool) {
	if len(frame) < (cortexmPC+1)*4 {
		return common.RegisterSnapshot{}, false
	}
	return common.RegisterSnapshot{
		PC: binary.LittleEndian.Uint32(frame[cortexmPC*4:]),
		LR: binary.LittleEndian.Uint32(frame[cortexmLR*4:]),
	}, true
}

func (c CortexM) CoredumpRegions(frame []byte) []common.MemoryRegion {
	if c.SCBAddress == 0 || len(c.SCB) == 0 {
		return nil
	}
	return []common.MemoryRegion{{Address: c.SCBAddress, Data: c.SCB}}
}

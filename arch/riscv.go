package arch

import (
	"encoding/binary"

	"reboottrack/common"
)

// RISCV decodes RV32 exception frames. The frame is 32 little-endian
// words pushed by the trap shim: mepc first, then x1-x31 in order.
type RISCV struct{}

const riscvFrameWords = 32

// Word indices within the frame.
const (
	riscvMEPC = 0 // interrupted pc
	riscvRA   = 1 // x1, return address
)

func (RISCV) Name() string {
	return "riscv"
}

func (RISCV) FrameSize() int {
	return riscvFrameWords * 4
}

func (RISCV) Snapshot(frame []byte) (common.RegisterSnapshot, bool) {
	if len(frame) < (riscvRA+1)*4 {
		return common.RegisterSnapshot{}, false
	}
	return common.RegisterSnapshot{
		PC: binary.LittleEndian.Uint32(frame[riscvMEPC*4:]),
		LR: binary.LittleEndian.Uint32(frame[riscvRA*4:]),
	}, true
}

// CoredumpRegions returns no architecture-mandated regions: on RISC-V
// everything interesting beyond the register block is platform memory.
func (RISCV) CoredumpRegions(frame []byte) []common.MemoryRegion {
	return nil
}

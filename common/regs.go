package common

import "fmt"

// RegisterSnapshot is the minimal execution context captured when a reset
// is marked imminent: the program counter and the link (return) address
// at the point the fault or intentional reboot was observed.
//
// The snapshot is copied by value into the persistent region. It must
// never be held by pointer past the fault handler - once the pending
// reset fires, the stack it was captured from no longer exists.
type RegisterSnapshot struct {
	PC uint32 // Program counter at the time of the fault
	LR uint32 // Link/return address at the time of the fault
}

func (s RegisterSnapshot) String() string {
	return fmt.Sprintf("pc=0x%08x lr=0x%08x", s.PC, s.LR)
}

// MemoryRegion is an opaque span of device memory nominated for coredump
// capture. The engine forwards regions to the coredump saver without
// interpreting their contents; only architecture- and platform-specific
// code knows what they hold.
type MemoryRegion struct {
	Address uint64 // Device address the data was read from
	Data    []byte // Raw bytes of the region
}

func (r MemoryRegion) String() string {
	return fmt.Sprintf("region@0x%08x len=%d", r.Address, len(r.Data))
}

// rebootsim drives the full capture/reconcile cycle in memory: one region
// buffer stands in for noinit RAM while simulated boots fault, reset and
// reconcile against it. Handy for eyeballing crash-loop accounting
// without a device.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"reboottrack/arch"
	"reboottrack/common"
	"reboottrack/coredump"
	"reboottrack/eventlog"
	"reboottrack/printer"
	"reboottrack/region"
	"reboottrack/tracker"
)

func main() {
	boots := flag.Int("boots", 5, "number of boot cycles to simulate")
	faultEvery := flag.Int("fault_every", 2, "inject a fault every Nth boot (0 disables)")
	reasonName := flag.String("reason", "HardFault", "reason for injected faults")
	archName := flag.String("arch", "riscv", "architecture capability: riscv or cortex-m")
	resetReg := flag.Uint64("reset_reg", 0x4, "raw reset register value reported each boot")

	flag.Parse()

	reason, ok := common.ReasonByName(*reasonName)
	if !ok {
		fmt.Printf("Error: unknown reason %q\n", *reasonName)
		os.Exit(1)
	}

	var archCap arch.Capability
	switch *archName {
	case "riscv":
		archCap = arch.RISCV{}
	case "cortex-m":
		archCap = arch.CortexM{}
	default:
		fmt.Printf("Error: unknown architecture %q\n", *archName)
		os.Exit(1)
	}

	// Noinit RAM stand-in: starts as garbage, survives every simulated
	// reset below.
	buf := make([]byte, region.Size)
	for i := range buf {
		buf[i] = 0xA5
	}

	saver := &coredump.MemorySaver{}
	sink := &eventlog.MemorySink{}

	for boot := 1; boot <= *boots; boot++ {
		eng := tracker.New()
		eng.Mapper = tracker.RegisterMapperFunc(func(raw uint32) common.RebootReason {
			if raw != 0 {
				return common.ReasonPowerOnReset
			}
			return common.ReasonUnknown
		})

		if err := eng.Boot(buf, &tracker.BootupInfo{ResetReasonReg: uint32(*resetReg)}); err != nil {
			fmt.Printf("Error: boot %d: %v\n", boot, err)
			os.Exit(1)
		}
		d, _ := eng.Decision()
		fmt.Printf("boot %d: reason=%s unexpected=%v crash_count=%d\n",
			boot, printer.ReasonString(d.Reason), d.Unexpected, d.CrashCount)

		if _, err := eng.Collect(sink); err != nil {
			fmt.Printf("Error: collect: %v\n", err)
			os.Exit(1)
		}

		if *faultEvery > 0 && boot%*faultEvery == 0 {
			frame := make([]byte, archCap.FrameSize())
			binary.LittleEndian.PutUint32(frame, 0x1000+uint32(boot))
			handler := &tracker.FaultHandler{Engine: eng, Arch: archCap, Saver: saver}
			saved := handler.HandleFault(reason, frame)
			fmt.Printf("        fault injected: %s coredump_saved=%v state=%s\n",
				printer.ReasonString(reason), saved, eng.State())
		}
		// Device "resets" here; buf carries over to the next loop turn.
	}

	fmt.Printf("\n%d events collected, %d coredumps saved, worst-case event size %d bytes\n",
		sink.Len(), len(saver.Saved), tracker.WorstCaseStorageSize())
}

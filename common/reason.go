package common

import (
	"fmt"
	"sync"
)

// RebootReason identifies why a device reset. The code space is
// partitioned by value: expected reasons live below 0x8000, unexpected
// reasons at 0x8000 and above. ReasonNotSet is reserved as the "never
// written" sentinel so it can be distinguished from Unknown (0), which is
// a real, reportable reason.
type RebootReason uint32

const (
	// ReasonUnknown means the device has no evidence about why it reset.
	// It counts toward the crash-loop counter.
	ReasonUnknown RebootReason = 0x0000

	// Expected reasons - normal operation.
	ReasonUserShutdown   RebootReason = 0x0001
	ReasonUserReset      RebootReason = 0x0002
	ReasonFirmwareUpdate RebootReason = 0x0003
	ReasonLowPower       RebootReason = 0x0004
	ReasonDebuggerHalted RebootReason = 0x0005
	ReasonButtonReset    RebootReason = 0x0006
	ReasonPowerOnReset   RebootReason = 0x0007
	ReasonSoftwareReset  RebootReason = 0x0008
	ReasonDeepSleep      RebootReason = 0x0009
	ReasonPinReset       RebootReason = 0x000A

	// Base for caller-defined expected reasons, see RegisterCustomReason.
	ReasonCustomExpectedBase RebootReason = 0x4000

	// ReasonUnknownError is a generic crash with no further detail. Like
	// ReasonUnknown it counts toward the crash-loop counter.
	ReasonUnknownError RebootReason = 0x8000

	// Unexpected reasons - faults.
	ReasonAssert              RebootReason = 0x8001
	ReasonBrownOutReset       RebootReason = 0x8002
	ReasonNMI                 RebootReason = 0x8003
	ReasonHardwareWatchdog    RebootReason = 0x8004
	ReasonSoftwareWatchdog    RebootReason = 0x8005
	ReasonClockFailure        RebootReason = 0x8006
	ReasonKernelPanic         RebootReason = 0x8007
	ReasonFirmwareUpdateError RebootReason = 0x8008
	ReasonOutOfMemory         RebootReason = 0x8009
	ReasonStackOverflow       RebootReason = 0x800A

	// CPU fault classes.
	ReasonHardFault  RebootReason = 0x9100
	ReasonMemFault   RebootReason = 0x9200
	ReasonBusFault   RebootReason = 0x9300
	ReasonUsageFault RebootReason = 0x9400

	// Base for caller-defined unexpected reasons.
	ReasonCustomUnexpectedBase RebootReason = 0xC000

	// ReasonNotSet marks an unwritten reason slot in the persistent
	// region. It is never a valid reason for a boot.
	ReasonNotSet RebootReason = 0xFFFFFFFF
)

// ReasonClass is the partition a reboot reason belongs to. Crash-loop
// and unexpected-reboot accounting is driven by the class, never by the
// numeric code.
type ReasonClass int

const (
	ClassUnset ReasonClass = iota
	ClassExpected
	ClassUnexpected
)

func (c ReasonClass) String() string {
	switch c {
	case ClassExpected:
		return "expected"
	case ClassUnexpected:
		return "unexpected"
	default:
		return "unset"
	}
}

// Class returns the partition for the reason. Every code maps to exactly
// one class: NotSet is unset, codes at 0x8000 and above are unexpected,
// the rest are expected - except Unknown, which is unexpected because a
// reboot with no evidence at all cannot be assumed benign.
func (r RebootReason) Class() ReasonClass {
	switch {
	case r == ReasonNotSet:
		return ClassUnset
	case r == ReasonUnknown:
		return ClassUnexpected
	case r < ReasonUnknownError:
		return ClassExpected
	default:
		return ClassUnexpected
	}
}

// CountsAsCrash reports whether a boot attributed to this reason
// increments the crash-loop counter. Any unexpected reason counts.
func (r RebootReason) CountsAsCrash() bool {
	return r.Class() == ClassUnexpected
}

var reasonNames = map[RebootReason]string{
	ReasonUnknown:             "Unknown",
	ReasonUserShutdown:        "UserShutdown",
	ReasonUserReset:           "UserReset",
	ReasonFirmwareUpdate:      "FirmwareUpdate",
	ReasonLowPower:            "LowPower",
	ReasonDebuggerHalted:      "DebuggerHalted",
	ReasonButtonReset:         "ButtonReset",
	ReasonPowerOnReset:        "PowerOnReset",
	ReasonSoftwareReset:       "SoftwareReset",
	ReasonDeepSleep:           "DeepSleep",
	ReasonPinReset:            "PinReset",
	ReasonUnknownError:        "UnknownError",
	ReasonAssert:              "Assert",
	ReasonBrownOutReset:       "BrownOutReset",
	ReasonNMI:                 "NMI",
	ReasonHardwareWatchdog:    "HardwareWatchdog",
	ReasonSoftwareWatchdog:    "SoftwareWatchdog",
	ReasonClockFailure:        "ClockFailure",
	ReasonKernelPanic:         "KernelPanic",
	ReasonFirmwareUpdateError: "FirmwareUpdateError",
	ReasonOutOfMemory:         "OutOfMemory",
	ReasonStackOverflow:       "StackOverflow",
	ReasonHardFault:           "HardFault",
	ReasonMemFault:            "MemFault",
	ReasonBusFault:            "BusFault",
	ReasonUsageFault:          "UsageFault",
	ReasonNotSet:              "NotSet",
}

var (
	customMu             sync.Mutex
	customNames          = map[RebootReason]string{}
	nextCustomExpected   = ReasonCustomExpectedBase
	nextCustomUnexpected = ReasonCustomUnexpectedBase
)

// RegisterCustomReason allocates a caller-defined reboot reason code from
// the expected or unexpected custom range and associates a name with it
// for display. Registration is intended for init-time use; codes are
// allocated sequentially within each range.
func RegisterCustomReason(name string, expected bool) (RebootReason, error) {
	customMu.Lock()
	defer customMu.Unlock()

	var code RebootReason
	if expected {
		if nextCustomExpected >= ReasonUnknownError {
			return ReasonNotSet, fmt.Errorf("custom expected reason range exhausted")
		}
		code = nextCustomExpected
		nextCustomExpected++
	} else {
		if nextCustomUnexpected >= ReasonNotSet {
			return ReasonNotSet, fmt.Errorf("custom unexpected reason range exhausted")
		}
		code = nextCustomUnexpected
		nextCustomUnexpected++
	}
	customNames[code] = name
	return code, nil
}

func (r RebootReason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	customMu.Lock()
	name, ok := customNames[r]
	customMu.Unlock()
	if ok {
		return name
	}
	return fmt.Sprintf("Reason(0x%04x)", uint32(r))
}

// ReasonByName resolves a reason name (built-in or registered custom) to
// its code. Lookup is by the exact display name, e.g. "HardFault".
func ReasonByName(name string) (RebootReason, bool) {
	for code, n := range reasonNames {
		if n == name {
			return code, true
		}
	}
	customMu.Lock()
	defer customMu.Unlock()
	for code, n := range customNames {
		if n == name {
			return code, true
		}
	}
	return ReasonNotSet, false
}

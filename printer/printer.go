// Package printer renders persistent records, boot decisions and reboot
// events as aligned, optionally colored text for the CLI tools. Reasons
// are colored by partition: expected green, unexpected red, unset yellow.
package printer

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"reboottrack/common"
	"reboottrack/eventlog"
	"reboottrack/region"
	"reboottrack/tracker"
)

var (
	expectedColor   = color.New(color.FgGreen)
	unexpectedColor = color.New(color.FgRed, color.Bold)
	unsetColor      = color.New(color.FgYellow)
)

// ReasonString renders a reason name colored by its partition.
func ReasonString(r common.RebootReason) string {
	switch r.Class() {
	case common.ClassExpected:
		return expectedColor.Sprint(r.String())
	case common.ClassUnexpected:
		return unexpectedColor.Sprint(r.String())
	default:
		return unsetColor.Sprint(r.String())
	}
}

// FormatRecord renders the decoded persistent region contents.
func FormatRecord(rec region.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "stored_reason:   %s\n", ReasonString(rec.StoredReason))
	if rec.StoredReason != common.ReasonNotSet {
		fmt.Fprintf(&b, "registers:       %s\n", rec.Regs)
		fmt.Fprintf(&b, "coredump_saved:  %v\n", rec.CoredumpSaved)
	}
	fmt.Fprintf(&b, "reg_reason:      %s\n", ReasonString(rec.RegReason))
	fmt.Fprintf(&b, "reset_reg_raw:   0x%08x\n", rec.ResetRegRaw)
	fmt.Fprintf(&b, "crash_count:     %d\n", rec.CrashCount)
	return b.String()
}

// FormatDecision renders a boot reconciliation outcome.
func FormatDecision(d tracker.BootDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "reboot_reason:   %s\n", ReasonString(d.Reason))
	fmt.Fprintf(&b, "unexpected:      %v\n", d.Unexpected)
	fmt.Fprintf(&b, "stored_reason:   %s\n", ReasonString(d.Sources.PriorStored))
	fmt.Fprintf(&b, "reg_reason:      %s\n", ReasonString(d.Sources.RegReason))
	fmt.Fprintf(&b, "reset_reg_raw:   0x%08x\n", d.ResetRegRaw)
	if d.HasRegs {
		fmt.Fprintf(&b, "registers:       %s\n", d.Regs)
	}
	fmt.Fprintf(&b, "coredump_saved:  %v\n", d.CoredumpSaved)
	fmt.Fprintf(&b, "crash_count:     %d\n", d.CrashCount)
	return b.String()
}

// FormatEventLine renders one reboot event as a single history line.
func FormatEventLine(seq int64, ev eventlog.RebootEvent) string {
	reason := ReasonString(ev.ReasonCode())
	line := fmt.Sprintf("#%-4d %-28s crash_count=%-4d reg=0x%08x", seq, reason, ev.CrashCount, ev.ResetRegRaw)
	if ev.PC != nil && ev.LR != nil {
		line += fmt.Sprintf(" pc=0x%08x lr=0x%08x", *ev.PC, *ev.LR)
	}
	if ev.CoredumpSaved {
		line += " coredump"
	}
	return line
}

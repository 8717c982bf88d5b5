package tracker

import (
	"fmt"

	"reboottrack/common"
	"reboottrack/eventlog"
)

// WorstCaseStorageSize returns a fixed upper bound on the serialized size
// of the event Collect produces, independent of current state. Callers
// can size sink buffers with it before booting the engine.
func WorstCaseStorageSize() int {
	return eventlog.WorstCaseEventSize()
}

// Collect serializes the current boot's reconciled record into the sink.
// It returns (false, nil) when there is nothing to collect - the record
// for this boot was already drained - which is a normal outcome, not an
// error. Sink failures are forwarded and leave the record collectible.
//
// Collection never clears the persistent record; the next boot's
// reconciliation supersedes it.
func (e *Engine) Collect(sink eventlog.Sink) (bool, error) {
	if !e.booted {
		return false, ErrNotBooted
	}
	if e.collected {
		return false, nil
	}

	d := e.decision
	ev := eventlog.RebootEvent{
		SchemaVersion: eventlog.EventSchemaVersion,
		Reason:        uint32(d.Reason),
		Unexpected:    d.Unexpected,
		CrashCount:    d.CrashCount,
		ResetRegRaw:   d.ResetRegRaw,
		CoredumpSaved: d.CoredumpSaved,
	}
	if d.HasRegs {
		pc, lr := d.Regs.PC, d.Regs.LR
		ev.PC = &pc
		ev.LR = &lr
	}

	data, err := ev.Marshal()
	if err != nil {
		return false, err
	}
	if err := sink.Append(data); err != nil {
		return false, fmt.Errorf("tracker: append reboot event: %w", err)
	}

	e.collected = true
	e.Log.Logf(common.SeverityDebug, "collected reboot event (%d bytes)", len(data))
	return true, nil
}

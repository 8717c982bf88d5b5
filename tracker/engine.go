// Package tracker implements the reboot-tracking engine: the boot-time
// reconciler that turns persisted evidence into an authoritative reboot
// reason, the fault-time state machine that records a reason at most once
// per boot, the crash-loop counter, and the collector that drains the
// reconciled record into event storage.
//
// One Engine instance owns one persistent region for one power-on
// session. Boot runs in task context exactly once; MarkResetImminent and
// MarkCoredumpSaved may run in fault/exception context and therefore
// never allocate, never log and never fail loudly. The two roles are
// never concurrent: the reconciler reads what the previous session's
// fault context wrote, separated by a reset.
package tracker

import (
	"errors"
	"fmt"

	"reboottrack/common"
	"reboottrack/region"
)

var (
	// ErrNotBooted is returned when an accessor is used before Boot.
	ErrNotBooted = errors.New("tracker: engine not booted")

	// ErrRegionSize is returned by Boot for a region of the wrong size.
	// This is a fatal misconfiguration, never silently truncated.
	ErrRegionSize = errors.New("tracker: region size mismatch")

	// ErrAlreadyBooted is returned if Boot is called twice in one session.
	ErrAlreadyBooted = errors.New("tracker: engine already booted")
)

// RegisterMapper classifies the raw value of the hardware reset-reason
// register into a reboot reason. The mapping is platform-specific and
// supplied by the integrator; the engine never interprets register bits
// itself.
type RegisterMapper interface {
	MapResetReason(raw uint32) common.RebootReason
}

// RegisterMapperFunc adapts a function to the RegisterMapper interface.
type RegisterMapperFunc func(raw uint32) common.RebootReason

func (f RegisterMapperFunc) MapResetReason(raw uint32) common.RebootReason {
	return f(raw)
}

// BootupInfo carries reset evidence the engine cannot observe directly,
// injected by the caller at boot.
type BootupInfo struct {
	// ResetReasonReg is the raw value of the always-on reset-reason
	// register, recorded for diagnostics and classified through the
	// engine's RegisterMapper.
	ResetReasonReg uint32

	// ResetReason, when not ReasonUnknown, is a pre-resolved reason from
	// an earlier boot stage (e.g. a bootloader that saw an external pin
	// reset). It takes precedence over the mapped register value but not
	// over a reason stored by the previous session.
	ResetReason common.RebootReason
}

// CaptureState is the fault-capture state machine position for the
// current boot.
type CaptureState int

const (
	// StateArmed - no fault recorded this boot.
	StateArmed CaptureState = iota
	// StateRecording - first fault observed, region write in progress.
	StateRecording
	// StateRecorded - reason and snapshot durably written.
	StateRecorded
	// StateCoredumpPending - a coredump save is being attempted.
	StateCoredumpPending
	// StateCoredumpSaved - a coredump was persisted for the fault.
	StateCoredumpSaved
	// StateCoredumpSkipped - no coredump was persisted for the fault.
	StateCoredumpSkipped
)

func (s CaptureState) String() string {
	switch s {
	case StateArmed:
		return "ARMED"
	case StateRecording:
		return "RECORDING"
	case StateRecorded:
		return "RECORDED"
	case StateCoredumpPending:
		return "COREDUMP_PENDING"
	case StateCoredumpSaved:
		return "COREDUMP_SAVED"
	case StateCoredumpSkipped:
		return "COREDUMP_SKIPPED"
	default:
		return "UNKNOWN"
	}
}

// BootReasons pairs the two reason sources the reconciler works from.
type BootReasons struct {
	// RegReason is the reason mapped from the reset register this boot.
	RegReason common.RebootReason
	// PriorStored is the reason the previous session recorded, or
	// ReasonNotSet.
	PriorStored common.RebootReason
}

// BootDecision is the reconciler's output for the current boot. It is
// recomputed from the persistent record each boot and never persisted
// itself.
type BootDecision struct {
	// Reason is the authoritative reason for this boot.
	Reason common.RebootReason
	// Unexpected reports whether Reason is in the unexpected partition.
	// A saved coredump is informational and never suppresses this.
	Unexpected bool
	// Sources holds the evidence Reason was derived from.
	Sources BootReasons
	// ResetRegRaw is the raw reset-register value from this boot.
	ResetRegRaw uint32
	// Regs is the snapshot stored with the prior session's reason.
	// Valid only when HasRegs is true.
	Regs    common.RegisterSnapshot
	HasRegs bool
	// CoredumpSaved reports that the prior session persisted a coredump.
	CoredumpSaved bool
	// CrashCount is the crash-loop counter after this boot's update.
	CrashCount uint32
}

// Engine is the reboot-tracking core. The zero value is usable after
// Boot; Log and Mapper may be assigned before Boot to opt in to logging
// and register classification.
type Engine struct {
	// Log receives reconciliation diagnostics. Defaults to no-op.
	// Fault-path methods never log.
	Log common.Logger

	// Mapper classifies raw reset-register values. When nil the register
	// contributes nothing to reconciliation.
	Mapper RegisterMapper

	buf       []byte
	rec       region.Record
	state     CaptureState
	decision  BootDecision
	booted    bool
	collected bool
}

// New returns an engine with the default no-op logger.
func New() *Engine {
	return &Engine{Log: common.NewNoOpLogger()}
}

// Boot binds the engine to its caller-provided persistent region and
// reconciles the previous session's evidence. It must be called exactly
// once per power cycle, before any fault can be marked.
//
// The region must be exactly region.Size bytes of memory excluded from
// zero-init; the engine never allocates or frees it. Garbage contents
// (first boot, power loss mid-write, layout change) are recovered as "no
// prior data". info may be nil when no boot-stage evidence exists.
func (e *Engine) Boot(buf []byte, info *BootupInfo) error {
	if e.booted {
		return ErrAlreadyBooted
	}
	if len(buf) != region.Size {
		return fmt.Errorf("%w: got %d, want %d", ErrRegionSize, len(buf), region.Size)
	}
	if e.Log == nil {
		e.Log = common.NewNoOpLogger()
	}

	prior, err := region.Decode(buf)
	if err != nil {
		return err
	}

	var raw uint32
	regReason := common.ReasonNotSet
	if info != nil {
		raw = info.ResetReasonReg
	}
	if e.Mapper != nil {
		regReason = e.Mapper.MapResetReason(raw)
	}
	if info != nil && info.ResetReason != common.ReasonUnknown {
		// A boot stage that resolved the reason itself outranks our own
		// register classification.
		regReason = info.ResetReason
	}

	reason := common.ReasonUnknown
	switch {
	case prior.StoredReason != common.ReasonNotSet:
		reason = prior.StoredReason
	case regReason != common.ReasonNotSet:
		reason = regReason
	}

	crashCount := prior.CrashCount
	if reason.CountsAsCrash() {
		crashCount++
	}

	e.decision = BootDecision{
		Reason:     reason,
		Unexpected: reason.Class() == common.ClassUnexpected,
		Sources: BootReasons{
			RegReason:   regReason,
			PriorStored: prior.StoredReason,
		},
		ResetRegRaw:   raw,
		Regs:          prior.Regs,
		HasRegs:       prior.StoredReason != common.ReasonNotSet,
		CoredumpSaved: prior.CoredumpSaved,
		CrashCount:    crashCount,
	}

	// Re-arm for the next fault: stored reason, snapshot and coredump
	// flag are cleared; the crash count and this boot's register
	// evidence are retained.
	e.buf = buf
	e.rec = region.Empty()
	e.rec.ResetRegRaw = raw
	e.rec.RegReason = regReason
	e.rec.CrashCount = crashCount
	if err := region.Encode(e.rec, e.buf); err != nil {
		return err
	}

	e.state = StateArmed
	e.booted = true
	e.collected = false

	e.Log.Logf(common.SeverityInfo, "reboot reason %s (stored=%s reg=%s) crash_count=%d",
		reason, prior.StoredReason, regReason, crashCount)
	return nil
}

// Booted reports whether Boot has completed for this session.
func (e *Engine) Booted() bool {
	return e.booted
}

// MarkResetImminent records that the device is about to reset and why.
// The first call of a session wins: later calls, including ones from
// nested faults taken while a fault is already being handled, are no-ops
// that preserve the original reason and snapshot. Safe to call from
// fault context; performs no allocation and returns nothing because a
// fault path has no one to report to.
//
// regs may be nil when no register state is available.
func (e *Engine) MarkResetImminent(reason common.RebootReason, regs *common.RegisterSnapshot) {
	if !e.booted {
		return
	}
	if e.rec.StoredReason != common.ReasonNotSet {
		// Already recorded this session. A single core services fault
		// handlers non-preemptively with respect to itself, so this
		// check alone is the reentrancy guard.
		return
	}
	if reason == common.ReasonNotSet {
		reason = common.ReasonUnknownError
	}

	e.state = StateRecording
	e.rec.StoredReason = reason
	if regs != nil {
		e.rec.Regs = *regs
	} else {
		e.rec.Regs = common.RegisterSnapshot{}
	}
	// Encode cannot fail here: the buffer size was validated at Boot.
	_ = region.Encode(e.rec, e.buf)
	e.state = StateRecorded
}

// MarkCoredumpPending notes that a coredump save attempt has started.
// Only meaningful after a reason has been recorded; informational state
// for introspection, nothing is persisted.
func (e *Engine) MarkCoredumpPending() {
	if e.state == StateRecorded {
		e.state = StateCoredumpPending
	}
}

// MarkCoredumpSaved flags that a coredump was persisted for the fault
// recorded this session. Idempotent: repeated calls leave the flag set.
// A no-op before a reason has been recorded.
func (e *Engine) MarkCoredumpSaved() {
	if !e.booted || e.rec.StoredReason == common.ReasonNotSet {
		return
	}
	if !e.rec.CoredumpSaved {
		e.rec.CoredumpSaved = true
		_ = region.Encode(e.rec, e.buf)
	}
	e.state = StateCoredumpSaved
}

// MarkCoredumpSkipped notes that no coredump will be saved for the fault
// recorded this session. Nothing is persisted; the stored reason and
// snapshot are unaffected.
func (e *Engine) MarkCoredumpSkipped() {
	if !e.booted || e.rec.StoredReason == common.ReasonNotSet {
		return
	}
	if e.state != StateCoredumpSaved {
		e.state = StateCoredumpSkipped
	}
}

// State returns the fault-capture state for the current session.
func (e *Engine) State() CaptureState {
	return e.state
}

// Decision returns the reconciled outcome for the current boot.
func (e *Engine) Decision() (BootDecision, error) {
	if !e.booted {
		return BootDecision{}, ErrNotBooted
	}
	return e.decision, nil
}

// RebootReason returns the two reason sources for the current boot: the
// register-derived reason and the prior session's stored reason.
func (e *Engine) RebootReason() (BootReasons, error) {
	if !e.booted {
		return BootReasons{}, ErrNotBooted
	}
	return e.decision.Sources, nil
}

// UnexpectedReboot reports whether the current boot was caused by a
// reason in the unexpected partition.
func (e *Engine) UnexpectedReboot() (bool, error) {
	if !e.booted {
		return false, ErrNotBooted
	}
	return e.decision.Unexpected, nil
}

// CrashCount returns the crash-loop counter: the number of boots caused
// by an unexpected reason since the counter was last reset. The engine
// takes no corrective action itself; recovery policy belongs to the
// caller.
func (e *Engine) CrashCount() (uint32, error) {
	if !e.booted {
		return 0, ErrNotBooted
	}
	return e.rec.CrashCount, nil
}

// ResetCrashCount zeroes the crash-loop counter in the persistent region.
func (e *Engine) ResetCrashCount() error {
	if !e.booted {
		return ErrNotBooted
	}
	e.rec.CrashCount = 0
	e.decision.CrashCount = 0
	return region.Encode(e.rec, e.buf)
}

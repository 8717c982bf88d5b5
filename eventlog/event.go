package eventlog

import (
	"fmt"
	"math"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"reboottrack/common"
)

// EventSchemaVersion identifies the serialized event layout. Bump on any
// field change so offline consumers can dispatch on it.
const EventSchemaVersion = 1

// RebootEvent is the record drained into event storage once per boot: the
// reconciled reason for the boot plus the evidence it was derived from.
// It is serialized as a CBOR map with small integer keys to keep the
// on-device footprint fixed and tiny.
type RebootEvent struct {
	SchemaVersion uint8  `cbor:"1,keyasint"`
	Reason        uint32 `cbor:"2,keyasint"`
	Unexpected    bool   `cbor:"3,keyasint"`
	CrashCount    uint32 `cbor:"4,keyasint"`
	ResetRegRaw   uint32 `cbor:"5,keyasint"`
	CoredumpSaved bool   `cbor:"6,keyasint"`

	// PC/LR are present only when a register snapshot was recorded with
	// the reason that won reconciliation.
	PC *uint32 `cbor:"7,keyasint,omitempty"`
	LR *uint32 `cbor:"8,keyasint,omitempty"`
}

// ReasonCode returns the typed reboot reason for the event.
func (e RebootEvent) ReasonCode() common.RebootReason {
	return common.RebootReason(e.Reason)
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("eventlog: cbor enc mode: %v", err))
	}
	return em
}()

// Marshal serializes the event.
func (e RebootEvent) Marshal() ([]byte, error) {
	data, err := encMode.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("eventlog: marshal event: %w", err)
	}
	return data, nil
}

// UnmarshalEvent decodes a serialized reboot event.
func UnmarshalEvent(data []byte) (RebootEvent, error) {
	var e RebootEvent
	if err := cbor.Unmarshal(data, &e); err != nil {
		return RebootEvent{}, fmt.Errorf("eventlog: unmarshal event: %w", err)
	}
	if e.SchemaVersion != EventSchemaVersion {
		return RebootEvent{}, fmt.Errorf("eventlog: unsupported event schema %d", e.SchemaVersion)
	}
	return e, nil
}

var (
	worstCaseOnce sync.Once
	worstCaseSize int
)

// WorstCaseEventSize returns a fixed upper bound on the serialized size
// of any reachable RebootEvent. It is independent of current state, so
// callers can pre-size sink buffers before any event exists. The bound is
// computed by encoding a template event with every field present at its
// widest encoding.
func WorstCaseEventSize() int {
	worstCaseOnce.Do(func() {
		pc := uint32(math.MaxUint32)
		lr := uint32(math.MaxUint32)
		widest := RebootEvent{
			SchemaVersion: math.MaxUint8,
			Reason:        math.MaxUint32,
			Unexpected:    true,
			CrashCount:    math.MaxUint32,
			ResetRegRaw:   math.MaxUint32,
			CoredumpSaved: true,
			PC:            &pc,
			LR:            &lr,
		}
		data, err := encMode.Marshal(widest)
		if err != nil {
			// The template is a fixed struct; this cannot fail at runtime.
			panic(fmt.Sprintf("eventlog: worst case size: %v", err))
		}
		worstCaseSize = len(data)
	})
	return worstCaseSize
}

package tracker

import (
	"errors"
	"testing"

	"reboottrack/common"
	"reboottrack/eventlog"
)

type rejectingSink struct{}

func (rejectingSink) Append([]byte) error {
	return errors.New("storage full")
}

func TestCollectBeforeBoot(t *testing.T) {
	eng := New()
	if _, err := eng.Collect(&eventlog.MemorySink{}); !errors.Is(err, ErrNotBooted) {
		t.Errorf("Collect() error = %v, want ErrNotBooted", err)
	}
}

func TestCollectOncePerBoot(t *testing.T) {
	buf := garbageRegion()
	eng := rebootDevice(t, buf, nil, nil)
	eng.MarkResetImminent(common.ReasonHardFault, &common.RegisterSnapshot{PC: 0x1000, LR: 0x1004})

	eng = rebootDevice(t, buf, nil, nil)
	sink := &eventlog.MemorySink{}

	collected, err := eng.Collect(sink)
	if err != nil || !collected {
		t.Fatalf("Collect() = (%v, %v), want (true, nil)", collected, err)
	}

	// Second drain in the same boot: nothing to collect, not an error.
	collected, err = eng.Collect(sink)
	if err != nil {
		t.Fatalf("second Collect() error = %v", err)
	}
	if collected {
		t.Error("second Collect() = true, want nothing to collect")
	}
	if sink.Len() != 1 {
		t.Fatalf("sink has %d events, want 1", sink.Len())
	}

	ev, err := eventlog.UnmarshalEvent(sink.Events[0])
	if err != nil {
		t.Fatal(err)
	}
	if ev.ReasonCode() != common.ReasonHardFault {
		t.Errorf("event reason = %s, want HardFault", ev.ReasonCode())
	}
	if !ev.Unexpected {
		t.Error("event should be unexpected")
	}
	if ev.CrashCount != 1 {
		t.Errorf("event crash count = %d, want 1", ev.CrashCount)
	}
	if ev.PC == nil || *ev.PC != 0x1000 {
		t.Errorf("event pc = %v, want 0x1000", ev.PC)
	}
	if ev.LR == nil || *ev.LR != 0x1004 {
		t.Errorf("event lr = %v, want 0x1004", ev.LR)
	}
}

func TestCollectSinkFailure(t *testing.T) {
	buf := garbageRegion()
	eng := rebootDevice(t, buf, nil, nil)

	if _, err := eng.Collect(rejectingSink{}); err == nil {
		t.Fatal("Collect() should forward sink failure")
	}

	// A failed drain leaves the record collectible.
	collected, err := eng.Collect(&eventlog.MemorySink{})
	if err != nil || !collected {
		t.Errorf("retry Collect() = (%v, %v), want (true, nil)", collected, err)
	}
}

// The advertised worst case must bound the actual serialized size for
// every reachable decision shape.
func TestWorstCaseStorageSizeBound(t *testing.T) {
	bound := WorstCaseStorageSize()
	if bound <= 0 {
		t.Fatalf("WorstCaseStorageSize() = %d", bound)
	}

	scenarios := []struct {
		name  string
		setup func(buf []byte)
	}{
		{"no snapshot", func(buf []byte) {}},
		{"with snapshot", func(buf []byte) {
			eng := rebootDevice(t, buf, nil, nil)
			eng.MarkResetImminent(common.ReasonStackOverflow,
				&common.RegisterSnapshot{PC: 0xFFFF_FFFF, LR: 0xFFFF_FFFF})
			eng.MarkCoredumpSaved()
		}},
	}

	for _, sc := range scenarios {
		t.Run(sc.name, func(t *testing.T) {
			buf := garbageRegion()
			sc.setup(buf)

			eng := rebootDevice(t, buf, wdtMapper(), &BootupInfo{ResetReasonReg: 0xFFFF_FFFF})
			sink := &eventlog.MemorySink{}
			if _, err := eng.Collect(sink); err != nil {
				t.Fatal(err)
			}
			if got := len(sink.Events[0]); got > bound {
				t.Errorf("serialized event is %d bytes, exceeds bound %d", got, bound)
			}
		})
	}
}

package sqlitelog

import (
	"context"
	"testing"

	"reboottrack/common"
	"reboottrack/eventlog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func appendEvent(t *testing.T, store *Store, reason common.RebootReason, crashCount uint32) {
	t.Helper()
	ev := eventlog.RebootEvent{
		SchemaVersion: eventlog.EventSchemaVersion,
		Reason:        uint32(reason),
		Unexpected:    reason.Class() == common.ClassUnexpected,
		CrashCount:    crashCount,
	}
	data, err := ev.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Append(data); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
}

func TestAppendAndEvents(t *testing.T) {
	store := openTestStore(t)

	appendEvent(t, store, common.ReasonPowerOnReset, 0)
	appendEvent(t, store, common.ReasonHardFault, 1)

	events, err := store.Events(context.Background())
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Events() returned %d rows, want 2", len(events))
	}
	if events[0].Event.ReasonCode() != common.ReasonPowerOnReset {
		t.Errorf("first event reason = %s, want PowerOnReset", events[0].Event.ReasonCode())
	}
	if events[1].Event.ReasonCode() != common.ReasonHardFault {
		t.Errorf("second event reason = %s, want HardFault", events[1].Event.ReasonCode())
	}
	if !events[1].Event.Unexpected {
		t.Error("hard fault event should be unexpected")
	}
}

func TestAppendRejectsGarbage(t *testing.T) {
	store := openTestStore(t)
	if err := store.Append([]byte{0xFF, 0x13}); err == nil {
		t.Error("Append() should reject an undecodable payload")
	}
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t)

	t.Run("empty history", func(t *testing.T) {
		sum, err := store.Summarize(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if sum.HasEvents {
			t.Error("HasEvents = true on empty store")
		}
	})

	appendEvent(t, store, common.ReasonPowerOnReset, 0)
	appendEvent(t, store, common.ReasonUserReset, 0)
	appendEvent(t, store, common.ReasonHardFault, 1)
	appendEvent(t, store, common.ReasonSoftwareWatchdog, 2)

	sum, err := store.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalBoots != 4 {
		t.Errorf("TotalBoots = %d, want 4", sum.TotalBoots)
	}
	if sum.UnexpectedBoots != 2 {
		t.Errorf("UnexpectedBoots = %d, want 2", sum.UnexpectedBoots)
	}
	if sum.CurrentStreak != 2 {
		t.Errorf("CurrentStreak = %d, want 2", sum.CurrentStreak)
	}
	if sum.LastReason != common.ReasonSoftwareWatchdog {
		t.Errorf("LastReason = %s, want SoftwareWatchdog", sum.LastReason)
	}
	if sum.LastCrashCount != 2 {
		t.Errorf("LastCrashCount = %d, want 2", sum.LastCrashCount)
	}

	// An expected boot ends the streak.
	appendEvent(t, store, common.ReasonFirmwareUpdate, 2)
	sum, err = store.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if sum.CurrentStreak != 0 {
		t.Errorf("CurrentStreak after expected boot = %d, want 0", sum.CurrentStreak)
	}
}

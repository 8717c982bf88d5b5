package region

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"reboottrack/common"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"empty", Empty()},
		{
			"fault recorded",
			Record{
				StoredReason:  common.ReasonHardFault,
				Regs:          common.RegisterSnapshot{PC: 0x1000, LR: 0x1004},
				CoredumpSaved: true,
				ResetRegRaw:   0x20,
				RegReason:     common.ReasonPowerOnReset,
				CrashCount:    7,
			},
		},
		{
			"reg reason only",
			Record{
				StoredReason: common.ReasonNotSet,
				ResetRegRaw:  0x4,
				RegReason:    common.ReasonSoftwareWatchdog,
				CrashCount:   1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, Size)
			if err := Encode(tt.rec, buf); err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			got, err := Decode(buf)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if diff := cmp.Diff(tt.rec, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSizeMismatch(t *testing.T) {
	for _, n := range []int{0, 32, Size - 1, Size + 1, 128} {
		if _, err := Decode(make([]byte, n)); err == nil {
			t.Errorf("Decode() with %d bytes should fail", n)
		}
		if err := Encode(Empty(), make([]byte, n)); err == nil {
			t.Errorf("Encode() with %d bytes should fail", n)
		}
	}
}

// A region full of arbitrary bytes must decode as "no prior data" and
// never panic. The validity magic plus CRC make an accidental match
// practically impossible.
func TestDecodeArbitraryBytes(t *testing.T) {
	rng := rand.New(rand.NewSource(0x5EED))
	buf := make([]byte, Size)

	for i := 0; i < 5000; i++ {
		rng.Read(buf)
		rec, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode() error on random bytes = %v", err)
		}
		if rec.StoredReason != common.ReasonNotSet {
			t.Fatalf("random bytes decoded to stored reason %s", rec.StoredReason)
		}
		if rec.RegReason != common.ReasonNotSet {
			t.Fatalf("random bytes decoded to reg reason %s", rec.RegReason)
		}
		if rec.CrashCount != 0 {
			t.Fatalf("random bytes decoded to crash count %d", rec.CrashCount)
		}
	}
}

func TestDecodeUninitializedPatterns(t *testing.T) {
	for _, fill := range []byte{0x00, 0xFF, 0xA5} {
		buf := make([]byte, Size)
		for i := range buf {
			buf[i] = fill
		}
		rec, err := Decode(buf)
		if err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
		if diff := cmp.Diff(Empty(), rec); diff != "" {
			t.Errorf("fill 0x%02x: want empty record (-want +got):\n%s", fill, diff)
		}
	}
}

// The crash-count cell is validated independently: corrupting the record
// cell loses the stored reason but keeps the count, and vice versa.
func TestCellIndependence(t *testing.T) {
	full := Record{
		StoredReason: common.ReasonAssert,
		Regs:         common.RegisterSnapshot{PC: 0xCAFE, LR: 0xF00D},
		RegReason:    common.ReasonPinReset,
		CrashCount:   3,
	}

	t.Run("record cell corrupted", func(t *testing.T) {
		buf := make([]byte, Size)
		if err := Encode(full, buf); err != nil {
			t.Fatal(err)
		}
		buf[offStoredReason] ^= 0xFF // breaks the record CRC

		rec, err := Decode(buf)
		if err != nil {
			t.Fatal(err)
		}
		if rec.StoredReason != common.ReasonNotSet {
			t.Errorf("stored reason = %s, want NotSet", rec.StoredReason)
		}
		if rec.CrashCount != 3 {
			t.Errorf("crash count = %d, want 3", rec.CrashCount)
		}
	})

	t.Run("crash cell corrupted", func(t *testing.T) {
		buf := make([]byte, Size)
		if err := Encode(full, buf); err != nil {
			t.Fatal(err)
		}
		buf[offCrashCount] ^= 0xFF

		rec, err := Decode(buf)
		if err != nil {
			t.Fatal(err)
		}
		if rec.CrashCount != 0 {
			t.Errorf("crash count = %d, want 0", rec.CrashCount)
		}
		if rec.StoredReason != common.ReasonAssert {
			t.Errorf("stored reason = %s, want Assert", rec.StoredReason)
		}
	})
}

func TestVersionMismatchTreatedAsEmpty(t *testing.T) {
	rec := Record{
		StoredReason: common.ReasonHardFault,
		RegReason:    common.ReasonPowerOnReset,
		CrashCount:   2,
	}
	buf := make([]byte, Size)
	if err := Encode(rec, buf); err != nil {
		t.Fatal(err)
	}
	buf[offVersion] = LayoutVersion + 1

	got, err := Decode(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.StoredReason != common.ReasonNotSet {
		t.Errorf("stored reason = %s, want NotSet after version bump", got.StoredReason)
	}
	// The crash cell has no version; it still validates.
	if got.CrashCount != 2 {
		t.Errorf("crash count = %d, want 2", got.CrashCount)
	}
}

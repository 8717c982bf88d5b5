// Package region implements the fixed layout of the reboot-tracking
// persistent region: a 64-byte block placed in memory that is excluded
// from zero-init and therefore survives a reset.
//
// The region is always read and written as a whole through an explicit
// encode/decode pair - never reinterpreted in place - so a layout change
// between firmware versions degrades to "no prior data" instead of
// misreading stale bytes. Two independently validated cells share the
// block: the reboot record (reason, register snapshot, coredump flag)
// and the crash-count cell. Each cell carries its own magic and CRC so a
// torn write to one does not take the other down with it.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"

	"reboottrack/common"
)

// Size is the exact number of bytes the caller must reserve for the
// region. Any other size is a configuration error, not something to
// truncate or pad around.
const Size = 64

// LayoutVersion is bumped whenever the byte layout below changes. A
// version mismatch on decode is treated the same as corruption.
const LayoutVersion = 1

const (
	recordMagic uint32 = 0xB007CAFE
	crashMagic  uint32 = 0x5AFEC0DE
)

// Byte offsets within the region. The record cell spans [0x00, 0x24),
// with its CRC over [0x00, 0x20) stored at 0x20. The crash cell spans
// [0x24, 0x30) with its CRC over [0x24, 0x2C) stored at 0x2C. The
// remaining bytes up to Size are reserved and ignored on decode.
const (
	offMagic         = 0x00
	offVersion       = 0x04
	offStoredReason  = 0x08
	offPC            = 0x0C
	offLR            = 0x10
	offCoredumpSaved = 0x14
	offResetRegRaw   = 0x18
	offRegReason     = 0x1C
	offRecordCRC     = 0x20
	offCrashMagic    = 0x24
	offCrashCount    = 0x28
	offCrashCRC      = 0x2C
)

// ErrSize is returned when the supplied buffer is not exactly Size bytes.
var ErrSize = errors.New("region: buffer is not the required size")

// Record is the decoded contents of the persistent region.
type Record struct {
	// StoredReason is the reason written by mark-reset-imminent during
	// the boot before the reset, or ReasonNotSet if none was recorded.
	StoredReason common.RebootReason

	// Regs is the register snapshot captured alongside StoredReason.
	// Only meaningful when StoredReason != ReasonNotSet.
	Regs common.RegisterSnapshot

	// CoredumpSaved reports that a coredump was persisted for the fault
	// described by StoredReason.
	CoredumpSaved bool

	// ResetRegRaw is the raw value of the hardware reset-reason register
	// captured at the previous boot, kept for diagnostics.
	ResetRegRaw uint32

	// RegReason is the reboot reason mapped from the reset-reason
	// register at the previous boot, or ReasonNotSet.
	RegReason common.RebootReason

	// CrashCount accumulates across boots until explicitly reset. It
	// lives in its own validated cell so it survives record corruption.
	CrashCount uint32
}

// Empty returns a record representing "no prior data": both reasons
// unset, zeroed snapshot, zero crash count.
func Empty() Record {
	return Record{
		StoredReason: common.ReasonNotSet,
		RegReason:    common.ReasonNotSet,
	}
}

// Decode reads the whole region. Corruption of either cell is an
// expected outcome after an uncontrolled power event and is recovered
// locally: an invalid record cell yields the Empty record fields, an
// invalid crash cell yields CrashCount == 0. The only error condition is
// a buffer of the wrong size, which is a caller bug.
func Decode(buf []byte) (Record, error) {
	if len(buf) != Size {
		return Record{}, fmt.Errorf("%w: got %d, want %d", ErrSize, len(buf), Size)
	}

	rec := Empty()

	if recordCellValid(buf) {
		rec.StoredReason = common.RebootReason(le32(buf, offStoredReason))
		rec.Regs.PC = le32(buf, offPC)
		rec.Regs.LR = le32(buf, offLR)
		rec.CoredumpSaved = buf[offCoredumpSaved] == 1
		rec.ResetRegRaw = le32(buf, offResetRegRaw)
		rec.RegReason = common.RebootReason(le32(buf, offRegReason))
	}

	if crashCellValid(buf) {
		rec.CrashCount = le32(buf, offCrashCount)
	}

	return rec, nil
}

// Encode writes the whole region, stamping fresh magics, version and
// CRCs for both cells. It performs no allocation, so it is safe to call
// from fault context on an already-bound buffer.
func Encode(rec Record, buf []byte) error {
	if len(buf) != Size {
		return fmt.Errorf("%w: got %d, want %d", ErrSize, len(buf), Size)
	}

	putLE32(buf, offMagic, recordMagic)
	buf[offVersion] = LayoutVersion
	buf[offVersion+1] = 0
	buf[offVersion+2] = 0
	buf[offVersion+3] = 0
	putLE32(buf, offStoredReason, uint32(rec.StoredReason))
	putLE32(buf, offPC, rec.Regs.PC)
	putLE32(buf, offLR, rec.Regs.LR)
	buf[offCoredumpSaved] = 0
	if rec.CoredumpSaved {
		buf[offCoredumpSaved] = 1
	}
	buf[offCoredumpSaved+1] = 0
	buf[offCoredumpSaved+2] = 0
	buf[offCoredumpSaved+3] = 0
	putLE32(buf, offResetRegRaw, rec.ResetRegRaw)
	putLE32(buf, offRegReason, uint32(rec.RegReason))
	putLE32(buf, offRecordCRC, crc32.ChecksumIEEE(buf[offMagic:offRecordCRC]))

	putLE32(buf, offCrashMagic, crashMagic)
	putLE32(buf, offCrashCount, rec.CrashCount)
	putLE32(buf, offCrashCRC, crc32.ChecksumIEEE(buf[offCrashMagic:offCrashCRC]))

	for i := offCrashCRC + 4; i < Size; i++ {
		buf[i] = 0
	}
	return nil
}

func recordCellValid(buf []byte) bool {
	if le32(buf, offMagic) != recordMagic {
		return false
	}
	if buf[offVersion] != LayoutVersion {
		return false
	}
	if buf[offCoredumpSaved] > 1 {
		return false
	}
	return le32(buf, offRecordCRC) == crc32.ChecksumIEEE(buf[offMagic:offRecordCRC])
}

func crashCellValid(buf []byte) bool {
	if le32(buf, offCrashMagic) != crashMagic {
		return false
	}
	return le32(buf, offCrashCRC) == crc32.ChecksumIEEE(buf[offCrashMagic:offCrashCRC])
}

func le32(buf []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(buf[off : off+4])
}

func putLE32(buf []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(buf[off:off+4], v)
}

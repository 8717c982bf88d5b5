// Package cli implements the rebootctl subcommands. The tools operate on
// a region file: a byte-for-byte image of the 64-byte persistent region,
// standing in for the device's noinit memory during bench work and
// offline analysis.
package cli

import (
	"fmt"
	"os"
	"strconv"

	"reboottrack/region"
)

// loadRegion reads a region image. When create is set, a missing file
// yields a fresh image filled with 0xFF, matching never-written memory.
func loadRegion(path string, create bool) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if os.IsNotExist(err) && create {
		buf = make([]byte, region.Size)
		for i := range buf {
			buf[i] = 0xFF
		}
		return buf, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read region image: %w", err)
	}
	if len(buf) != region.Size {
		return nil, fmt.Errorf("region image %s is %d bytes, want %d", path, len(buf), region.Size)
	}
	return buf, nil
}

func saveRegion(path string, buf []byte) error {
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write region image: %w", err)
	}
	return nil
}

// parseUint32 accepts decimal or 0x-prefixed hex.
func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", s, err)
	}
	return uint32(v), nil
}

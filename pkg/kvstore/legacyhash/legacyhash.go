// Package legacyhash diagnoses the on-disk hash-file format still
// encountered on hosts that have not yet migrated a database to bbolt. It
// is read-only: the engine never writes this format, it only recognizes
// and reports on it so Diagnose can tell a legacy file from a genuinely
// corrupt bbolt file.
package legacyhash

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	magic         = "ToKyO CaBiNeT"
	headerSize    = 256
	sizeFieldOff  = 56
	sizeFieldSize = 8
)

// Looks reports whether path starts with the legacy magic string, without
// interpreting anything further.
func Looks(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, len(magic))
	n, err := f.Read(buf)
	return err == nil && n == len(buf) && string(buf) == magic
}

// Diagnose performs the header check described for the legacy format: the
// file must be at least one header long, must start with the magic
// string, and its declared size field must match the actual file size —
// directly, or after a 64-bit byte swap (an endianness mismatch rather
// than corruption).
func Diagnose(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("legacyhash: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("legacyhash: stat %s: %w", path, err)
	}
	size := info.Size()
	if size < headerSize {
		return fmt.Errorf("legacyhash: %s is %d bytes, shorter than the %d-byte header", path, size, headerSize)
	}

	header := make([]byte, headerSize)
	if _, err := f.ReadAt(header, 0); err != nil {
		return fmt.Errorf("legacyhash: read header of %s: %w", path, err)
	}

	if string(header[:len(magic)]) != magic {
		return fmt.Errorf("legacyhash: %s: magic string mismatch", path)
	}

	declared := binary.LittleEndian.Uint64(header[sizeFieldOff : sizeFieldOff+sizeFieldSize])
	if declared == uint64(size) {
		return nil
	}

	swapped := swab64(declared)
	if swapped == uint64(size) {
		return fmt.Errorf("legacyhash: %s: endianness mismatch (declared size byte-swapped matches file size)", path)
	}

	return fmt.Errorf("legacyhash: %s: size mismatch, declared=%d actual=%d", path, declared, size)
}

func swab64(v uint64) uint64 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return binary.LittleEndian.Uint64(b[:])
}
